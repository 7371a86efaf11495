package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// WarningPointsNotCredited flags orders that were persisted but whose
// loyalty accrual failed. The sale stands; the points can be granted later
// with a manual adjustment.
const WarningPointsNotCredited = "points_not_credited"

// OrderSettlement ties discount application, order persistence and loyalty
// accrual into one request flow.
type OrderSettlement struct {
	orders     storage.OrderStore
	catalog    *PromotionCatalog
	calculator *DiscountCalculator
	engine     *LoyaltyEngine
	logger     *zap.Logger
}

// NewOrderSettlement creates an OrderSettlement.
func NewOrderSettlement(orders storage.OrderStore, catalog *PromotionCatalog, calculator *DiscountCalculator, engine *LoyaltyEngine, logger *zap.Logger) *OrderSettlement {
	return &OrderSettlement{
		orders:     orders,
		catalog:    catalog,
		calculator: calculator,
		engine:     engine,
		logger:     logger,
	}
}

// SettleInput is one order-creation request.
type SettleInput struct {
	StoreInfoID  uuid.UUID
	CustomerID   *uuid.UUID
	Items        []models.OrderItem
	DiscountCode string
}

// SettleResult is the settlement outcome. Warnings carry partial-success
// conditions; the order itself is always persisted when err is nil.
type SettleResult struct {
	Order        *models.Order   `json:"order"`
	Discount     decimal.Decimal `json:"discount"`
	PointsEarned int64           `json:"points_earned"`
	NewBalance   int64           `json:"new_balance"`
	Warnings     []string        `json:"warnings,omitempty"`
}

// Settle runs one order through discount validation, persistence and point
// accrual. A discount failure aborts before anything is written. An accrual
// failure after the order is persisted is surfaced as a warning, never a
// rollback: undoing a completed sale is worse than missing points.
func (s *OrderSettlement) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if len(input.Items) == 0 {
		return nil, validationError("order has no items")
	}

	subtotal := decimal.Zero
	for i := range input.Items {
		if input.Items[i].Quantity <= 0 {
			return nil, validationError("item quantity must be positive")
		}
		subtotal = subtotal.Add(input.Items[i].LineTotal())
	}

	discount := decimal.Zero
	var promo *models.Promotion
	var usage *models.PromotionUsage
	if input.DiscountCode != "" {
		found, err := s.catalog.FindActiveByCode(ctx, input.StoreInfoID, input.DiscountCode, time.Now())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, ruleError(ReasonExpiredOrInactive, "invalid discount code")
			}
			return nil, err
		}
		result, err := s.calculator.ValidateAndCompute(ctx, found, input.CustomerID, input.Items)
		if err != nil {
			return nil, err
		}
		promo = found
		discount = result.DiscountAmount
		usage = &models.PromotionUsage{
			PromotionID:    promo.ID,
			CustomerID:     input.CustomerID,
			DiscountAmount: discount,
		}
	}

	order := &models.Order{
		StoreInfoID:   input.StoreInfoID,
		CustomerID:    input.CustomerID,
		OrderNumber:   newOrderNumber(),
		Status:        "completed",
		Subtotal:      subtotal,
		DiscountTotal: discount,
		Total:         subtotal.Sub(discount),
		Items:         input.Items,
	}
	if promo != nil {
		order.PromotionID = &promo.ID
	}

	created, err := s.orders.CreateOrder(ctx, order, usage)
	if err != nil {
		return nil, err
	}

	result := &SettleResult{Order: created, Discount: discount}
	if input.CustomerID == nil {
		return result, nil
	}

	earn, err := s.engine.Earn(ctx, input.StoreInfoID, *input.CustomerID, created.ID, created.Total)
	switch {
	case err == nil:
		result.PointsEarned = earn.PointsEarned
		result.NewBalance = earn.NewBalance
	case errors.Is(err, storage.ErrDuplicateEarn):
		// Retried request: the order was already credited
		if acct, berr := s.engine.GetBalance(ctx, *input.CustomerID); berr == nil {
			result.NewBalance = acct.PointsBalance
		}
	default:
		var ruleErr *RuleError
		if errors.As(err, &ruleErr) && ruleErr.Reason == ReasonDisabled {
			// Loyalty switched off for the store, nothing to credit
			return result, nil
		}
		s.logger.Error("order persisted but points not credited",
			zap.String("order_id", created.ID.String()),
			zap.String("customer_id", input.CustomerID.String()),
			zap.Error(err),
		)
		result.Warnings = append(result.Warnings, WarningPointsNotCredited)
	}
	return result, nil
}

func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:10]
	return fmt.Sprintf("POS-%s-%s", time.Now().Format("20060102"), suffix)
}
