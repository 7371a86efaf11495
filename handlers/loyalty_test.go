package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneta/postoko-sub002/models"
)

func TestGetSettingsReturnsDefaults(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	w := env.do(t, http.MethodGet, "/api/v1/loyalty/settings", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, env.storeID.String(), data["store_info_id"])
	assert.Equal(t, true, data["enabled"])
}

func TestUpdateSettingsPartial(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	w := env.do(t, http.MethodPut, "/api/v1/loyalty/settings", map[string]interface{}{
		"points_per_currency": "2",
		"minimum_redemption":  100,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(100), jsonNumber(data["minimum_redemption"]))

	// Untouched fields keep their defaults
	assert.Equal(t, true, data["enabled"])
}

func TestUpdateSettingsRejectsBadValues(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")

	cases := []map[string]interface{}{
		{"points_per_currency": "-1"},
		{"redemption_rate": "0"},
		{"minimum_redemption": -5},
		{"expiry_months": 0},
	}
	for _, body := range cases {
		w := env.do(t, http.MethodPut, "/api/v1/loyalty/settings", body, token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestEarnEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")
	customerID := uuid.New()

	w := env.do(t, http.MethodPost, "/api/v1/loyalty/earn", map[string]interface{}{
		"customer_id": customerID.String(),
		"order_id":    uuid.New().String(),
		"amount":      "50.00",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, float64(50), jsonNumber(body["points_earned"]))
	assert.Equal(t, float64(50), jsonNumber(body["new_balance"]))
}

func TestEarnEndpointAcceptsZeroAmount(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	// A fully discounted sale still records the order reference
	w := env.do(t, http.MethodPost, "/api/v1/loyalty/earn", map[string]interface{}{
		"customer_id": uuid.New().String(),
		"order_id":    uuid.New().String(),
		"amount":      "0",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(0), jsonNumber(decode(t, w)["points_earned"]))

	// Missing amount is still a binding error
	w = env.do(t, http.MethodPost, "/api/v1/loyalty/earn", map[string]interface{}{
		"customer_id": uuid.New().String(),
		"order_id":    uuid.New().String(),
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEarnEndpointDuplicateOrderConflicts(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")
	customerID := uuid.New()
	orderID := uuid.New()

	body := map[string]interface{}{
		"customer_id": customerID.String(),
		"order_id":    orderID.String(),
		"amount":      "50.00",
	}
	w := env.do(t, http.MethodPost, "/api/v1/loyalty/earn", body, token)
	require.Equal(t, http.StatusOK, w.Code)

	// The replay is rejected without crediting twice
	w = env.do(t, http.MethodPost, "/api/v1/loyalty/earn", body, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	points := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loyalty/customers/%s/points", customerID), nil, token)
	data := decode(t, points)["data"].(map[string]interface{})
	assert.Equal(t, float64(50), jsonNumber(data["balance"]))
}

func TestRedeemEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")
	customerID := uuid.New()
	env.store.SeedAccount(models.PointsAccount{CustomerID: customerID, PointsBalance: 200, Tier: models.TierBronze})

	w := env.do(t, http.MethodPost, "/api/v1/loyalty/redeem", map[string]interface{}{
		"customer_id":      customerID.String(),
		"points_to_redeem": 100,
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "1", body["discount_value"])
	assert.Equal(t, float64(100), jsonNumber(body["new_balance"]))
}

func TestRedeemInsufficientBalanceMapsTo400WithReason(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	w := env.do(t, http.MethodPost, "/api/v1/loyalty/redeem", map[string]interface{}{
		"customer_id":      uuid.New().String(),
		"points_to_redeem": 100,
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_balance", decode(t, w)["reason"])
}

func TestGetCustomerPointsUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loyalty/customers/%s/points", uuid.New()), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), jsonNumber(data["balance"]))
	assert.Equal(t, "bronze", data["tier"])
}

func TestGetCustomerTransactions(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "cashier")
	customerID := uuid.New()

	for i := 0; i < 3; i++ {
		w := env.do(t, http.MethodPost, "/api/v1/loyalty/earn", map[string]interface{}{
			"customer_id": customerID.String(),
			"order_id":    uuid.New().String(),
			"amount":      "10.00",
		}, token)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loyalty/customers/%s/transactions?limit=2", customerID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	assert.Len(t, data, 2)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/loyalty/customers/%s/transactions?limit=bogus", customerID), nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")
	customerID := uuid.New()

	w := env.do(t, http.MethodPost, "/api/v1/loyalty/adjust", map[string]interface{}{
		"customer_id": customerID.String(),
		"delta":       500,
		"description": "import from legacy system",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(500), jsonNumber(decode(t, w)["new_balance"]))

	w = env.do(t, http.MethodPost, "/api/v1/loyalty/adjust", map[string]interface{}{
		"customer_id": customerID.String(),
		"delta":       -600,
		"description": "over-correction",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "would_go_negative", decode(t, w)["reason"])
}

func TestExpireEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, "admin")
	months := 6
	env.store.SeedSettings(models.LoyaltySettings{
		StoreInfoID:       env.storeID,
		PointsPerCurrency: decimal.NewFromInt(1),
		RedemptionRate:    decimal.NewFromFloat(0.01),
		ExpiryMonths:      &months,
		Enabled:           true,
	})
	env.store.SeedAccount(models.PointsAccount{
		CustomerID:    uuid.New(),
		PointsBalance: 40,
		Tier:          models.TierBronze,
		LastActivity:  time.Now().AddDate(-1, 0, 0),
	})

	w := env.do(t, http.MethodPost, "/api/v1/loyalty/expire", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, float64(1), jsonNumber(body["accounts_expired"]))
	assert.Equal(t, float64(40), jsonNumber(body["points_expired"]))
}
