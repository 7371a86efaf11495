package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneta/postoko-sub002/models"
)

func seedPromotion(env *testEnv, code string) models.Promotion {
	promo := models.Promotion{
		ID:            uuid.New(),
		StoreInfoID:   env.storeID,
		Name:          "Seeded promo",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		StartDate:     time.Now().Add(-time.Hour),
		EndDate:       time.Now().Add(24 * time.Hour),
		IsActive:      true,
		Codes:         []string{code},
	}
	env.store.SeedPromotion(promo)
	return promo
}

func itemPayload(price string) []map[string]interface{} {
	return []map[string]interface{}{
		{
			"product_id": uuid.New().String(),
			"name":       "widget",
			"quantity":   1,
			"unit_price": price,
		},
	}
}

func TestValidateCodeSuccess(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")
	seedPromotion(env, "TEN")

	w := env.do(t, http.MethodPost, "/api/v1/promotions/validate-code", map[string]interface{}{
		"code":        "TEN",
		"order_items": itemPayload("100.00"),
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "10", body["discount_amount"])
}

func TestValidateCodeUnknownCodeIs404(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	w := env.do(t, http.MethodPost, "/api/v1/promotions/validate-code", map[string]interface{}{
		"code":        "MISSING",
		"order_items": itemPayload("100.00"),
	}, token)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["valid"])
}

func TestValidateCodeRuleViolationCarriesReason(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	promo := seedPromotion(env, "BIGCART")
	minimum := decimal.NewFromInt(500)
	promo.MinimumPurchase = &minimum
	env.store.SeedPromotion(promo)

	w := env.do(t, http.MethodPost, "/api/v1/promotions/validate-code", map[string]interface{}{
		"code":        "BIGCART",
		"order_items": itemPayload("100.00"),
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "minimum_purchase_not_met", body["reason"])
}

func TestCreatePromotion(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	w := env.do(t, http.MethodPost, "/api/v1/promotions", map[string]interface{}{
		"name":           "Summer sale",
		"discount_type":  "percentage",
		"discount_value": "15",
		"start_date":     time.Now().Format(time.RFC3339),
		"end_date":       time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		"is_active":      true,
		"codes":          []string{"SUMMER15"},
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Summer sale", data["name"])
	assert.Equal(t, env.storeID.String(), data["store_info_id"])
	assert.NotEmpty(t, data["id"])
}

func TestCreatePromotionAcceptsZeroPercent(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	// 0% is a valid percentage; only a missing discount_value binds as absent
	w := env.do(t, http.MethodPost, "/api/v1/promotions", map[string]interface{}{
		"name":           "Placeholder",
		"discount_type":  "percentage",
		"discount_value": "0",
		"start_date":     time.Now().Format(time.RFC3339),
		"end_date":       time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
		"is_active":      false,
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "0", decode(t, w)["data"].(map[string]interface{})["discount_value"])

	w = env.do(t, http.MethodPost, "/api/v1/promotions", map[string]interface{}{
		"name":          "Missing value",
		"discount_type": "percentage",
		"start_date":    time.Now().Format(time.RFC3339),
		"end_date":      time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePromotionRejectsBadPercentage(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	w := env.do(t, http.MethodPost, "/api/v1/promotions", map[string]interface{}{
		"name":           "Broken",
		"discount_type":  "percentage",
		"discount_value": "150",
		"start_date":     time.Now().Format(time.RFC3339),
		"end_date":       time.Now().AddDate(0, 1, 0).Format(time.RFC3339),
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPromotionsActiveFilter(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	seedPromotion(env, "LIVE")
	expired := seedPromotion(env, "DEAD")
	expired.StartDate = time.Now().AddDate(0, -2, 0)
	expired.EndDate = time.Now().AddDate(0, -1, 0)
	env.store.SeedPromotion(expired)

	w := env.do(t, http.MethodGet, "/api/v1/promotions", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 2)

	w = env.do(t, http.MethodGet, "/api/v1/promotions?active=true", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"].([]interface{}), 1)
}

func TestGetPromotionNotFound(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/promotions/%s", uuid.New()), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePromotion(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")
	promo := seedPromotion(env, "RENAME")

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/promotions/%s", promo.ID), map[string]interface{}{
		"name":           "Renamed",
		"discount_type":  "fixed_amount",
		"discount_value": "5",
		"start_date":     promo.StartDate.Format(time.RFC3339),
		"end_date":       promo.EndDate.Format(time.RFC3339),
		"is_active":      true,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Renamed", data["name"])
	assert.Equal(t, "fixed_amount", data["discount_type"])
}

func TestDeletePromotion(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")
	promo := seedPromotion(env, "GONE")

	w := env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/promotions/%s", promo.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/promotions/%s", promo.ID), nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPromotionStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	promo := seedPromotion(env, "STATS")
	env.store.SeedUsage(models.PromotionUsage{
		PromotionID:    promo.ID,
		OrderID:        uuid.New(),
		DiscountAmount: decimal.NewFromFloat(4.50),
	})

	w := env.do(t, http.MethodGet, "/api/v1/promotions/stats", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), jsonNumber(data["total_promotions"]))
	assert.Equal(t, float64(1), jsonNumber(data["total_usage"]))
	assert.Equal(t, "4.5", data["total_discount"])
}

func TestUploadImageWithoutMediaServiceIs503(t *testing.T) {
	handler := NewPromotionsHandler(nil, nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

	handler.UploadImage(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
