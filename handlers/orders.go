package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/araneta/postoko-sub002/services"
	"github.com/araneta/postoko-sub002/storage"
)

// OrdersHandler holds the dependencies for order endpoints.
type OrdersHandler struct {
	Settlement *services.OrderSettlement
	Orders     storage.OrderStore
}

// NewOrdersHandler creates a new OrdersHandler.
func NewOrdersHandler(settlement *services.OrderSettlement, orders storage.OrderStore) *OrdersHandler {
	return &OrdersHandler{Settlement: settlement, Orders: orders}
}

// Create settles a sale: applies the discount code if any, persists the
// order and credits loyalty points. A failed accrual does not fail the
// order; it shows up in the response warnings instead.
func (h *OrdersHandler) Create(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req struct {
		CustomerID   string             `json:"customer_id" binding:"omitempty,uuid"`
		DiscountCode string             `json:"discount_code"`
		Items        []orderItemRequest `json:"items" binding:"required,min=1,dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.SettleInput{
		StoreInfoID:  storeID,
		Items:        toOrderItems(req.Items),
		DiscountCode: req.DiscountCode,
	}
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		input.CustomerID = &id
	}

	result, err := h.Settlement.Settle(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"success":       true,
		"message":       "Order created successfully",
		"order":         result.Order,
		"discount":      result.Discount,
		"points_earned": result.PointsEarned,
		"new_balance":   result.NewBalance,
	}
	if len(result.Warnings) > 0 {
		resp["warnings"] = result.Warnings
	}

	c.JSON(http.StatusCreated, resp)
}

// Get returns one order with its items.
func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, err := h.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}
