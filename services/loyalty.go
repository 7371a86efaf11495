package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// LoyaltyEngine runs earn/redeem/adjust operations against the points
// ledger. Settings are read from storage on every call so edits take effect
// immediately. Each operation is atomic: the storage layer locks the account
// row while the ledger entry and balance update commit together.
type LoyaltyEngine struct {
	store    storage.LoyaltyStore
	logger   *zap.Logger
	currency string
}

// NewLoyaltyEngine creates a LoyaltyEngine.
func NewLoyaltyEngine(store storage.LoyaltyStore, logger *zap.Logger, currency string) *LoyaltyEngine {
	return &LoyaltyEngine{store: store, logger: logger, currency: currency}
}

// EarnResult is the outcome of a successful earn.
type EarnResult struct {
	PointsEarned int64  `json:"points_earned"`
	NewBalance   int64  `json:"new_balance"`
	Tier         string `json:"tier"`
}

// RedeemResult is the outcome of a successful redemption.
type RedeemResult struct {
	DiscountValue   decimal.Decimal `json:"discount_value"`
	PointsRedeemed  int64           `json:"points_redeemed"`
	NewBalance      int64           `json:"new_balance"`
}

// ExpireResult summarizes an expiry sweep.
type ExpireResult struct {
	AccountsExpired int   `json:"accounts_expired"`
	PointsExpired   int64 `json:"points_expired"`
}

// Earn credits points for a completed purchase: floor(amount * rate). The
// ledger's per-order uniqueness makes a replayed earn for the same order
// fail with storage.ErrDuplicateEarn instead of double-crediting.
func (e *LoyaltyEngine) Earn(ctx context.Context, storeInfoID, customerID, orderID uuid.UUID, purchaseAmount decimal.Decimal) (*EarnResult, error) {
	settings, err := e.store.GetSettings(ctx, storeInfoID)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, ruleError(ReasonDisabled, "loyalty program is disabled")
	}

	points := purchaseAmount.Mul(settings.PointsPerCurrency).Floor().IntPart()
	if points < 0 {
		points = 0
	}

	oid := orderID
	entry := &models.LedgerEntry{
		CustomerID:  customerID,
		OrderID:     &oid,
		EntryType:   models.EntryEarned,
		PointsDelta: points,
		Description: fmt.Sprintf("Points earned on purchase of %s", purchaseAmount.StringFixed(minorUnits(e.currency))),
	}

	acct, err := e.store.ApplyEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	e.logger.Info("points earned",
		zap.String("customer_id", customerID.String()),
		zap.String("order_id", orderID.String()),
		zap.Int64("points", points),
		zap.Int64("new_balance", acct.PointsBalance),
	)
	return &EarnResult{
		PointsEarned: points,
		NewBalance:   acct.PointsBalance,
		Tier:         acct.Tier,
	}, nil
}

// Redeem converts points into a currency discount. Fails when the program is
// disabled, the amount is under the store minimum, or the balance cannot
// cover it. The balance check repeats inside the locked storage transaction,
// so concurrent redemptions on one account cannot both pass.
func (e *LoyaltyEngine) Redeem(ctx context.Context, storeInfoID, customerID uuid.UUID, pointsToRedeem int64, orderID *uuid.UUID) (*RedeemResult, error) {
	settings, err := e.store.GetSettings(ctx, storeInfoID)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, ruleError(ReasonDisabled, "loyalty program is disabled")
	}
	if pointsToRedeem <= 0 || pointsToRedeem < settings.MinimumRedemption {
		return nil, ruleError(ReasonBelowMinimum,
			fmt.Sprintf("minimum redemption is %d points", settings.MinimumRedemption))
	}

	balance := int64(0)
	if acct, err := e.store.GetAccount(ctx, customerID); err == nil {
		balance = acct.PointsBalance
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	if pointsToRedeem > balance {
		return nil, ruleError(ReasonInsufficientBalance,
			fmt.Sprintf("balance %d is less than %d", balance, pointsToRedeem))
	}

	entry := &models.LedgerEntry{
		CustomerID:  customerID,
		OrderID:     orderID,
		EntryType:   models.EntryRedeemed,
		PointsDelta: -pointsToRedeem,
		Description: fmt.Sprintf("Redeemed %d points", pointsToRedeem),
	}

	acct, err := e.store.ApplyEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			return nil, ruleError(ReasonInsufficientBalance, "insufficient points balance")
		}
		return nil, err
	}

	discount := roundCurrency(decimal.NewFromInt(pointsToRedeem).Mul(settings.RedemptionRate), e.currency)
	e.logger.Info("points redeemed",
		zap.String("customer_id", customerID.String()),
		zap.Int64("points", pointsToRedeem),
		zap.String("discount_value", discount.String()),
	)
	return &RedeemResult{
		DiscountValue:  discount,
		PointsRedeemed: pointsToRedeem,
		NewBalance:     acct.PointsBalance,
	}, nil
}

// GetBalance returns the customer's account, or an implicit zero-valued
// account when the customer has never earned. The implicit account is not
// persisted.
func (e *LoyaltyEngine) GetBalance(ctx context.Context, customerID uuid.UUID) (*models.PointsAccount, error) {
	acct, err := e.store.GetAccount(ctx, customerID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &models.PointsAccount{
				CustomerID: customerID,
				Tier:       models.TierBronze,
			}, nil
		}
		return nil, err
	}
	return acct, nil
}

// GetHistory returns the customer's ledger entries, newest first.
func (e *LoyaltyEngine) GetHistory(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	return e.store.ListLedgerEntries(ctx, customerID, limit)
}

// Adjust applies a manual correction. Delta may be negative but must not
// drive the balance below zero.
func (e *LoyaltyEngine) Adjust(ctx context.Context, customerID uuid.UUID, delta int64, description string) (*models.PointsAccount, error) {
	entry := &models.LedgerEntry{
		CustomerID:  customerID,
		EntryType:   models.EntryAdjusted,
		PointsDelta: delta,
		Description: description,
	}

	acct, err := e.store.ApplyEntry(ctx, entry)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientBalance) {
			return nil, ruleError(ReasonWouldGoNegative, "adjustment would make the balance negative")
		}
		return nil, err
	}

	e.logger.Info("points adjusted",
		zap.String("customer_id", customerID.String()),
		zap.Int64("delta", delta),
		zap.Int64("new_balance", acct.PointsBalance),
	)
	return acct, nil
}

// ExpireInactive zeroes the balance of every account whose last activity
// predates the store's expiry window, writing an expired ledger entry per
// account. Returns a rule error when the store has no expiry period.
func (e *LoyaltyEngine) ExpireInactive(ctx context.Context, storeInfoID uuid.UUID) (*ExpireResult, error) {
	settings, err := e.store.GetSettings(ctx, storeInfoID)
	if err != nil {
		return nil, err
	}
	if settings.ExpiryMonths == nil {
		return nil, ruleError(ReasonDisabled, "points expiry is not configured")
	}

	cutoff := time.Now().AddDate(0, -*settings.ExpiryMonths, 0)
	accounts, err := e.store.ListInactiveAccounts(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &ExpireResult{}
	for _, acct := range accounts {
		entry := &models.LedgerEntry{
			CustomerID:  acct.CustomerID,
			EntryType:   models.EntryExpired,
			PointsDelta: -acct.PointsBalance,
			Description: fmt.Sprintf("Expired %d points after %d months of inactivity", acct.PointsBalance, *settings.ExpiryMonths),
		}
		if _, err := e.store.ApplyEntry(ctx, entry); err != nil {
			e.logger.Error("failed to expire points",
				zap.String("customer_id", acct.CustomerID.String()),
				zap.Error(err),
			)
			continue
		}
		result.AccountsExpired++
		result.PointsExpired += acct.PointsBalance
	}
	return result, nil
}
