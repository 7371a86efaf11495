package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/services"
	"github.com/araneta/postoko-sub002/storage"
)

// LoyaltyHandler holds the dependencies for loyalty endpoints.
type LoyaltyHandler struct {
	Engine *services.LoyaltyEngine
	Store  storage.LoyaltyStore
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(engine *services.LoyaltyEngine, store storage.LoyaltyStore) *LoyaltyHandler {
	return &LoyaltyHandler{Engine: engine, Store: store}
}

// GetSettings returns the caller's store loyalty settings.
func (h *LoyaltyHandler) GetSettings(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	settings, err := h.Store.GetSettings(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// UpdateSettings applies a partial update to the store's loyalty settings.
func (h *LoyaltyHandler) UpdateSettings(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req struct {
		PointsPerCurrency *decimal.Decimal `json:"points_per_currency"`
		RedemptionRate    *decimal.Decimal `json:"redemption_rate"`
		MinimumRedemption *int64           `json:"minimum_redemption" binding:"omitempty,gte=0"`
		ExpiryMonths      *int             `json:"expiry_months" binding:"omitempty,gt=0"`
		ClearExpiry       bool             `json:"clear_expiry"`
		Enabled           *bool            `json:"enabled"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PointsPerCurrency != nil && req.PointsPerCurrency.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points_per_currency must not be negative"})
		return
	}
	if req.RedemptionRate != nil && !req.RedemptionRate.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "redemption_rate must be positive"})
		return
	}
	if req.ExpiryMonths != nil && *req.ExpiryMonths <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expiry_months must be positive"})
		return
	}

	settings, err := h.Store.UpdateSettings(c.Request.Context(), storeID, storage.SettingsUpdate{
		PointsPerCurrency: req.PointsPerCurrency,
		RedemptionRate:    req.RedemptionRate,
		MinimumRedemption: req.MinimumRedemption,
		ExpiryMonths:      req.ExpiryMonths,
		ClearExpiry:       req.ClearExpiry,
		Enabled:           req.Enabled,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    settings,
	})
}

// GetCustomerPoints returns a customer's balance and lifetime totals.
func (h *LoyaltyHandler) GetCustomerPoints(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
		return
	}

	acct, err := h.Engine.GetBalance(c.Request.Context(), customerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"balance":        acct.PointsBalance,
			"total_earned":   acct.TotalEarned,
			"total_redeemed": acct.TotalRedeemed,
			"tier":           acct.Tier,
		},
	})
}

// GetCustomerTransactions returns a customer's ledger history, newest first.
func (h *LoyaltyHandler) GetCustomerTransactions(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	entries, err := h.Engine.GetHistory(c.Request.Context(), customerID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
	})
}

// Earn credits points for a purchase.
func (h *LoyaltyHandler) Earn(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req struct {
		CustomerID string           `json:"customer_id" binding:"required,uuid"`
		OrderID    string           `json:"order_id" binding:"required,uuid"`
		Amount     *decimal.Decimal `json:"amount" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
	orderID := uuid.MustParse(req.OrderID)

	result, err := h.Engine.Earn(c.Request.Context(), storeID, customerID, orderID, *req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"points_earned": result.PointsEarned,
		"new_balance":   result.NewBalance,
		"tier":          result.Tier,
	})
}

// Redeem converts points into a currency discount.
func (h *LoyaltyHandler) Redeem(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	var req struct {
		CustomerID     string `json:"customer_id" binding:"required,uuid"`
		PointsToRedeem int64  `json:"points_to_redeem" binding:"required,gt=0"`
		OrderID        string `json:"order_id" binding:"omitempty,uuid"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID := uuid.MustParse(req.CustomerID)
	var orderID *uuid.UUID
	if req.OrderID != "" {
		id := uuid.MustParse(req.OrderID)
		orderID = &id
	}

	result, err := h.Engine.Redeem(c.Request.Context(), storeID, customerID, req.PointsToRedeem, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"discount_value": result.DiscountValue,
		"new_balance":    result.NewBalance,
	})
}

// Adjust applies a manual balance correction.
func (h *LoyaltyHandler) Adjust(c *gin.Context) {
	var req struct {
		CustomerID  string `json:"customer_id" binding:"required,uuid"`
		Delta       int64  `json:"delta" binding:"required"`
		Description string `json:"description" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acct, err := h.Engine.Adjust(c.Request.Context(), uuid.MustParse(req.CustomerID), req.Delta, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"new_balance": acct.PointsBalance,
	})
}

// Expire sweeps inactive accounts under the store's expiry policy.
func (h *LoyaltyHandler) Expire(c *gin.Context) {
	storeID, ok := storeIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Store not found in token"})
		return
	}

	result, err := h.Engine.ExpireInactive(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"accounts_expired": result.AccountsExpired,
		"points_expired":   result.PointsExpired,
	})
}
