package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/services"
	"github.com/araneta/postoko-sub002/storage"
)

// PromotionsHandler holds the dependencies for promotion endpoints.
type PromotionsHandler struct {
	Catalog    *services.PromotionCatalog
	Calculator *services.DiscountCalculator
	Media      *services.MediaService
}

// NewPromotionsHandler creates a new PromotionsHandler. Media may be nil
// when no Cloudinary credentials are configured; image upload then returns
// 503.
func NewPromotionsHandler(catalog *services.PromotionCatalog, calculator *services.DiscountCalculator, media *services.MediaService) *PromotionsHandler {
	return &PromotionsHandler{Catalog: catalog, Calculator: calculator, Media: media}
}

type orderItemRequest struct {
	ProductID  string          `json:"product_id" binding:"required,uuid"`
	CategoryID string          `json:"category_id" binding:"omitempty,uuid"`
	Name       string          `json:"name"`
	Quantity   int             `json:"quantity" binding:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

func toOrderItems(reqs []orderItemRequest) []models.OrderItem {
	items := make([]models.OrderItem, len(reqs))
	for i, r := range reqs {
		items[i] = models.OrderItem{
			ProductID: uuid.MustParse(r.ProductID),
			Name:      r.Name,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
		}
		if r.CategoryID != "" {
			id := uuid.MustParse(r.CategoryID)
			items[i].CategoryID = &id
		}
	}
	return items
}

// ValidateCode validates a discount code against a cart and returns the
// computed discount.
func (h *PromotionsHandler) ValidateCode(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req struct {
		Code       string             `json:"code" binding:"required"`
		CustomerID string             `json:"customer_id" binding:"omitempty,uuid"`
		OrderItems []orderItemRequest `json:"order_items" binding:"required,dive"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo, err := h.Catalog.FindActiveByCode(c.Request.Context(), storeID, req.Code, time.Now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"valid": false, "error": "Invalid discount code"})
			return
		}
		respondError(c, err)
		return
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		id := uuid.MustParse(req.CustomerID)
		customerID = &id
	}

	result, err := h.Calculator.ValidateAndCompute(c.Request.Context(), promo, customerID, toOrderItems(req.OrderItems))
	if err != nil {
		var ruleErr *services.RuleError
		if errors.As(err, &ruleErr) {
			c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": ruleErr.Message, "reason": ruleErr.Reason})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":             true,
		"promotion":         result.Promotion,
		"discount_amount":   result.DiscountAmount,
		"eligible_items":    result.EligibleItems,
		"eligible_subtotal": result.EligibleSubtotal,
	})
}

// List returns the store's promotions; ?active=true filters to currently
// applicable ones.
func (h *PromotionsHandler) List(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var promos []models.Promotion
	var err error
	if c.Query("active") == "true" {
		promos, err = h.Catalog.ListActive(c.Request.Context(), storeID, time.Now())
	} else {
		promos, err = h.Catalog.List(c.Request.Context(), storeID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    promos,
	})
}

// Get returns one promotion.
func (h *PromotionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promotion id"})
		return
	}

	promo, err := h.Catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    promo,
	})
}

type promotionRequest struct {
	Name                  string           `json:"name" binding:"required"`
	Description           string           `json:"description"`
	DiscountType          string           `json:"discount_type" binding:"required,oneof=percentage fixed_amount"`
	DiscountValue         *decimal.Decimal `json:"discount_value" binding:"required"`
	MinimumPurchase       *decimal.Decimal `json:"minimum_purchase"`
	MaximumDiscount       *decimal.Decimal `json:"maximum_discount"`
	StartDate             time.Time        `json:"start_date" binding:"required"`
	EndDate               time.Time        `json:"end_date" binding:"required"`
	UsageLimit            *int             `json:"usage_limit" binding:"omitempty,gt=0"`
	CustomerUsageLimit    *int             `json:"customer_usage_limit" binding:"omitempty,gt=0"`
	IsActive              bool             `json:"is_active"`
	ApplicableCategoryIDs []string         `json:"applicable_category_ids" binding:"omitempty,dive,uuid"`
	ApplicableProductIDs  []string         `json:"applicable_product_ids" binding:"omitempty,dive,uuid"`
	Codes                 []string         `json:"codes"`
}

func (r *promotionRequest) toModel(storeID uuid.UUID) *models.Promotion {
	promo := &models.Promotion{
		StoreInfoID:        storeID,
		Name:               r.Name,
		Description:        r.Description,
		DiscountType:       r.DiscountType,
		DiscountValue:      *r.DiscountValue,
		MinimumPurchase:    r.MinimumPurchase,
		MaximumDiscount:    r.MaximumDiscount,
		StartDate:          r.StartDate,
		EndDate:            r.EndDate,
		UsageLimit:         r.UsageLimit,
		CustomerUsageLimit: r.CustomerUsageLimit,
		IsActive:           r.IsActive,
		Codes:              r.Codes,
	}
	for _, raw := range r.ApplicableCategoryIDs {
		promo.ApplicableCategoryIDs = append(promo.ApplicableCategoryIDs, uuid.MustParse(raw))
	}
	for _, raw := range r.ApplicableProductIDs {
		promo.ApplicableProductIDs = append(promo.ApplicableProductIDs, uuid.MustParse(raw))
	}
	return promo
}

// Create inserts a promotion for the caller's store.
func (h *PromotionsHandler) Create(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo := req.toModel(storeID)
	if userID, exists := c.Get("user_id"); exists {
		if id, err := uuid.Parse(userID.(string)); err == nil {
			promo.CreatedBy = &id
		}
	}

	created, err := h.Catalog.Create(c.Request.Context(), promo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Promotion created successfully",
		"data":    created,
	})
}

// Update replaces a promotion's mutable fields.
func (h *PromotionsHandler) Update(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promotion id"})
		return
	}

	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	promo := req.toModel(storeID)
	promo.ID = id

	updated, err := h.Catalog.Update(c.Request.Context(), promo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Promotion updated successfully",
		"data":    updated,
	})
}

// Delete removes a promotion; used promotions are soft deleted.
func (h *PromotionsHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promotion id"})
		return
	}

	if err := h.Catalog.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Promotion deleted successfully",
	})
}

// Stats returns the store's promotion totals.
func (h *PromotionsHandler) Stats(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	stats, err := h.Catalog.Stats(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// UploadImage uploads a promotion banner to Cloudinary and records its URL.
func (h *PromotionsHandler) UploadImage(c *gin.Context) {
	if h.Media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image uploads are not configured"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid promotion id"})
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required"})
		return
	}
	defer file.Close()

	url, err := h.Media.UploadPromotionBanner(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image"})
		return
	}

	if err := h.Catalog.SetImage(c.Request.Context(), id, url); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"image_url": url,
	})
}
