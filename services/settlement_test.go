package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
	"github.com/araneta/postoko-sub002/storage/storetest"
)

func newTestSettlement(t *testing.T) (*OrderSettlement, *storetest.Store) {
	t.Helper()
	store := storetest.New()
	logger := zap.NewNop()
	catalog := NewPromotionCatalog(store)
	calculator := NewDiscountCalculator(store, "USD")
	engine := NewLoyaltyEngine(store, logger, "USD")
	return NewOrderSettlement(store, catalog, calculator, engine, logger), store
}

func TestSettleOrderWithDiscountAndPoints(t *testing.T) {
	settlement, store := newTestSettlement(t)
	ctx := context.Background()
	storeID := uuid.New()
	customerID := uuid.New()

	promo := activePromotion(storeID)
	store.SeedPromotion(promo)

	result, err := settlement.Settle(ctx, SettleInput{
		StoreInfoID:  storeID,
		CustomerID:   &customerID,
		Items:        cartItems(100),
		DiscountCode: "SAVE20",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)

	// 20% off 100, points on the discounted total
	assert.True(t, result.Discount.Equal(decimal.NewFromInt(20)))
	assert.True(t, result.Order.Total.Equal(decimal.NewFromInt(80)))
	assert.Equal(t, int64(80), result.PointsEarned)
	assert.Equal(t, int64(80), result.NewBalance)
	assert.Equal(t, "completed", result.Order.Status)
	require.NotNil(t, result.Order.PromotionID)
	assert.Equal(t, promo.ID, *result.Order.PromotionID)

	usage := store.UsageRows()
	require.Len(t, usage, 1)
	assert.Equal(t, promo.ID, usage[0].PromotionID)
	assert.Equal(t, result.Order.ID, usage[0].OrderID)
	assert.True(t, usage[0].DiscountAmount.Equal(decimal.NewFromInt(20)))

	entries := store.LedgerEntries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].OrderID)
	assert.Equal(t, result.Order.ID, *entries[0].OrderID)
}

func TestSettleWithoutCode(t *testing.T) {
	settlement, store := newTestSettlement(t)
	customerID := uuid.New()

	result, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID: uuid.New(),
		CustomerID:  &customerID,
		Items:       cartItems(42),
	})
	require.NoError(t, err)
	assert.True(t, result.Discount.IsZero())
	assert.Equal(t, int64(42), result.PointsEarned)
	assert.Empty(t, store.UsageRows())
}

func TestSettleInvalidCodeWritesNothing(t *testing.T) {
	settlement, store := newTestSettlement(t)

	_, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID:  uuid.New(),
		Items:        cartItems(100),
		DiscountCode: "NOPE",
	})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, ReasonExpiredOrInactive, ruleErr.Reason)

	// A failed validation must abort before anything is persisted
	assert.Empty(t, store.Orders())
	assert.Empty(t, store.UsageRows())
	assert.Empty(t, store.LedgerEntries())
}

func TestSettleRejectedCodeWritesNothing(t *testing.T) {
	settlement, store := newTestSettlement(t)
	storeID := uuid.New()

	promo := activePromotion(storeID)
	minimum := decimal.NewFromInt(500)
	promo.MinimumPurchase = &minimum
	store.SeedPromotion(promo)

	_, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID:  storeID,
		Items:        cartItems(100),
		DiscountCode: "SAVE20",
	})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, ReasonMinimumPurchaseNotMet, ruleErr.Reason)
	assert.Empty(t, store.Orders())
}

func TestSettlePointsFailureKeepsOrder(t *testing.T) {
	settlement, store := newTestSettlement(t)
	customerID := uuid.New()
	store.ApplyEntryErr = errors.New("connection reset")

	result, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID: uuid.New(),
		CustomerID:  &customerID,
		Items:       cartItems(100),
	})
	require.NoError(t, err, "a failed accrual must not fail the sale")
	assert.Equal(t, []string{WarningPointsNotCredited}, result.Warnings)
	assert.Equal(t, int64(0), result.PointsEarned)

	// The order survived even though the points did not
	require.Len(t, store.Orders(), 1)
}

func TestSettleDuplicateEarnIsNotAWarning(t *testing.T) {
	settlement, store := newTestSettlement(t)
	customerID := uuid.New()
	store.SeedAccount(models.PointsAccount{CustomerID: customerID, PointsBalance: 75, Tier: models.TierBronze})
	store.ApplyEntryErr = storage.ErrDuplicateEarn

	result, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID: uuid.New(),
		CustomerID:  &customerID,
		Items:       cartItems(100),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings, "a replayed credit is already applied, not a failure")
	assert.Equal(t, int64(0), result.PointsEarned)
	assert.Equal(t, int64(75), result.NewBalance)
}

func TestSettleWalkInEarnsNothing(t *testing.T) {
	settlement, store := newTestSettlement(t)

	result, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID: uuid.New(),
		Items:       cartItems(100),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PointsEarned)
	assert.Empty(t, result.Warnings)
	assert.Empty(t, store.LedgerEntries())
}

func TestSettleDisabledLoyaltySkipsQuietly(t *testing.T) {
	settlement, store := newTestSettlement(t)
	storeID := uuid.New()
	customerID := uuid.New()
	store.SeedSettings(models.LoyaltySettings{
		StoreInfoID:       storeID,
		PointsPerCurrency: decimal.NewFromInt(1),
		RedemptionRate:    decimal.NewFromFloat(0.01),
		Enabled:           false,
	})

	result, err := settlement.Settle(context.Background(), SettleInput{
		StoreInfoID: storeID,
		CustomerID:  &customerID,
		Items:       cartItems(100),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PointsEarned)
	assert.Empty(t, result.Warnings)
	require.Len(t, store.Orders(), 1)
}

func TestSettleRejectsEmptyOrBadItems(t *testing.T) {
	settlement, _ := newTestSettlement(t)
	ctx := context.Background()

	_, err := settlement.Settle(ctx, SettleInput{StoreInfoID: uuid.New()})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = settlement.Settle(ctx, SettleInput{
		StoreInfoID: uuid.New(),
		Items: []models.OrderItem{
			{ProductID: uuid.New(), Name: "bad", Quantity: 0, UnitPrice: decimal.NewFromInt(5)},
		},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSettleUsageLimitEnforcedAcrossOrders(t *testing.T) {
	settlement, store := newTestSettlement(t)
	ctx := context.Background()
	storeID := uuid.New()

	promo := activePromotion(storeID)
	limit := 1
	promo.UsageLimit = &limit
	store.SeedPromotion(promo)

	_, err := settlement.Settle(ctx, SettleInput{
		StoreInfoID:  storeID,
		Items:        cartItems(100),
		DiscountCode: "SAVE20",
	})
	require.NoError(t, err)

	_, err = settlement.Settle(ctx, SettleInput{
		StoreInfoID:  storeID,
		Items:        cartItems(100),
		DiscountCode: "SAVE20",
	})
	var ruleErr *RuleError
	require.ErrorAs(t, err, &ruleErr)
	assert.Equal(t, ReasonUsageLimitReached, ruleErr.Reason)
	assert.Len(t, store.Orders(), 1)
}

func TestSettleConcurrentUsageLimitOverrunTolerated(t *testing.T) {
	settlement, store := newTestSettlement(t)
	storeID := uuid.New()

	promo := activePromotion(storeID)
	limit := 1
	promo.UsageLimit = &limit
	store.SeedPromotion(promo)

	// Hold both settlements between the usage-count read and the order
	// write, so each sees zero prior uses. The limit check is
	// read-then-decide with no reservation; the overrun is tolerated, not
	// prevented.
	var barrier sync.WaitGroup
	barrier.Add(2)
	store.CountUsageHook = func() {
		barrier.Done()
		barrier.Wait()
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = settlement.Settle(context.Background(), SettleInput{
				StoreInfoID:  storeID,
				Items:        cartItems(100),
				DiscountCode: "SAVE20",
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Len(t, store.Orders(), 2)
	assert.Len(t, store.UsageRows(), 2, "both settlements passed the limit check before either recorded usage")
}

func TestOrderNumberFormat(t *testing.T) {
	n := newOrderNumber()
	assert.Regexp(t, `^POS-\d{8}-[0-9A-F]{10}$`, n)
	assert.Contains(t, n, time.Now().Format("20060102"))
}
