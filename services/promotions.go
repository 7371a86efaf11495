package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
	"github.com/araneta/postoko-sub002/storage"
)

// PromotionCatalog looks up promotions and manages their lifecycle.
type PromotionCatalog struct {
	store storage.PromotionStore
}

// NewPromotionCatalog creates a PromotionCatalog.
func NewPromotionCatalog(store storage.PromotionStore) *PromotionCatalog {
	return &PromotionCatalog{store: store}
}

// FindActiveByCode resolves a discount code within a store. Returns
// storage.ErrNotFound when no active promotion carries the code.
func (c *PromotionCatalog) FindActiveByCode(ctx context.Context, storeInfoID uuid.UUID, code string, now time.Time) (*models.Promotion, error) {
	return c.store.FindActiveByCode(ctx, storeInfoID, code, now)
}

// ListActive returns a store's currently applicable promotions.
func (c *PromotionCatalog) ListActive(ctx context.Context, storeInfoID uuid.UUID, now time.Time) ([]models.Promotion, error) {
	return c.store.ListPromotions(ctx, storeInfoID, true, now)
}

// List returns all of a store's promotions, soft-deleted ones excluded.
func (c *PromotionCatalog) List(ctx context.Context, storeInfoID uuid.UUID) ([]models.Promotion, error) {
	return c.store.ListPromotions(ctx, storeInfoID, false, time.Now())
}

// Get retrieves a promotion by id.
func (c *PromotionCatalog) Get(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	return c.store.GetPromotion(ctx, id)
}

// Create validates and inserts a promotion.
func (c *PromotionCatalog) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := validatePromotion(promo); err != nil {
		return nil, err
	}
	return c.store.CreatePromotion(ctx, promo)
}

// Update validates and replaces a promotion's mutable fields.
func (c *PromotionCatalog) Update(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := validatePromotion(promo); err != nil {
		return nil, err
	}
	return c.store.UpdatePromotion(ctx, promo)
}

// Delete removes a promotion. Promotions that have been used are soft
// deleted so order and usage history keeps resolving; unused ones are
// removed outright.
func (c *PromotionCatalog) Delete(ctx context.Context, id uuid.UUID) error {
	used, err := c.store.CountUsage(ctx, id)
	if err != nil {
		return err
	}
	if used > 0 {
		return c.store.SoftDeletePromotion(ctx, id)
	}
	return c.store.HardDeletePromotion(ctx, id)
}

// Stats aggregates a store's promotion totals.
func (c *PromotionCatalog) Stats(ctx context.Context, storeInfoID uuid.UUID) (*storage.PromotionStats, error) {
	return c.store.PromotionStats(ctx, storeInfoID, time.Now())
}

// SetImage records an uploaded banner URL on a promotion.
func (c *PromotionCatalog) SetImage(ctx context.Context, id uuid.UUID, imageURL string) error {
	return c.store.SetPromotionImage(ctx, id, imageURL)
}

func validatePromotion(promo *models.Promotion) error {
	switch promo.DiscountType {
	case models.DiscountPercentage:
		if promo.DiscountValue.IsNegative() || promo.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return validationError("percentage discount must be between 0 and 100")
		}
	case models.DiscountFixedAmount:
		if promo.DiscountValue.IsNegative() {
			return validationError("fixed discount must not be negative")
		}
	default:
		return validationError("unknown discount type %q", promo.DiscountType)
	}
	if promo.EndDate.Before(promo.StartDate) {
		return validationError("end date must not precede start date")
	}
	return nil
}

// DiscountCalculator computes the discount a promotion grants an order.
type DiscountCalculator struct {
	store    storage.PromotionReader
	currency string
}

// NewDiscountCalculator creates a DiscountCalculator.
func NewDiscountCalculator(store storage.PromotionReader, currency string) *DiscountCalculator {
	return &DiscountCalculator{store: store, currency: currency}
}

// DiscountResult is the outcome of a successful validation.
type DiscountResult struct {
	Promotion        *models.Promotion  `json:"promotion"`
	DiscountAmount   decimal.Decimal    `json:"discount_amount"`
	EligibleItems    []models.OrderItem `json:"eligible_items"`
	EligibleSubtotal decimal.Decimal    `json:"eligible_subtotal"`
}

// ValidateAndCompute runs the eligibility checks in order, short-circuiting
// on the first failure, and computes the discount over the eligible items.
// Failures are returned as *RuleError with the matching reason code.
func (dc *DiscountCalculator) ValidateAndCompute(ctx context.Context, promo *models.Promotion, customerID *uuid.UUID, items []models.OrderItem) (*DiscountResult, error) {
	now := time.Now()
	if promo == nil || !promo.ActiveAt(now) {
		return nil, ruleError(ReasonExpiredOrInactive, "promotion is expired or inactive")
	}

	eligible := eligibleItems(promo, items)
	subtotal := decimal.Zero
	for i := range eligible {
		subtotal = subtotal.Add(eligible[i].LineTotal())
	}

	if promo.MinimumPurchase != nil && subtotal.LessThan(*promo.MinimumPurchase) {
		return nil, ruleError(ReasonMinimumPurchaseNotMet,
			fmt.Sprintf("minimum purchase of %s required", promo.MinimumPurchase.StringFixed(minorUnits(dc.currency))))
	}

	if promo.UsageLimit != nil {
		used, err := dc.store.CountUsage(ctx, promo.ID)
		if err != nil {
			return nil, err
		}
		if used >= *promo.UsageLimit {
			return nil, ruleError(ReasonUsageLimitReached, "promotion usage limit reached")
		}
	}

	if promo.CustomerUsageLimit != nil && customerID != nil {
		used, err := dc.store.CountCustomerUsage(ctx, promo.ID, *customerID)
		if err != nil {
			return nil, err
		}
		if used >= *promo.CustomerUsageLimit {
			return nil, ruleError(ReasonCustomerUsageLimitReached, "you have reached the usage limit for this promotion")
		}
	}

	var discount decimal.Decimal
	switch promo.DiscountType {
	case models.DiscountPercentage:
		discount = subtotal.Mul(promo.DiscountValue).Div(decimal.NewFromInt(100))
		if promo.MaximumDiscount != nil && discount.GreaterThan(*promo.MaximumDiscount) {
			discount = *promo.MaximumDiscount
		}
	case models.DiscountFixedAmount:
		// Never discount more than the eligible subtotal
		discount = decimal.Min(promo.DiscountValue, subtotal)
	default:
		return nil, validationError("unknown discount type %q", promo.DiscountType)
	}
	discount = roundCurrency(discount, dc.currency)

	return &DiscountResult{
		Promotion:        promo,
		DiscountAmount:   discount,
		EligibleItems:    eligible,
		EligibleSubtotal: subtotal,
	}, nil
}

// eligibleItems filters order items by the promotion's category/product
// scoping. A promotion with neither list set applies to every item.
func eligibleItems(promo *models.Promotion, items []models.OrderItem) []models.OrderItem {
	if len(promo.ApplicableCategoryIDs) == 0 && len(promo.ApplicableProductIDs) == 0 {
		return items
	}

	products := make(map[uuid.UUID]bool, len(promo.ApplicableProductIDs))
	for _, id := range promo.ApplicableProductIDs {
		products[id] = true
	}
	categories := make(map[uuid.UUID]bool, len(promo.ApplicableCategoryIDs))
	for _, id := range promo.ApplicableCategoryIDs {
		categories[id] = true
	}

	var eligible []models.OrderItem
	for _, item := range items {
		if products[item.ProductID] {
			eligible = append(eligible, item)
			continue
		}
		if item.CategoryID != nil && categories[*item.CategoryID] {
			eligible = append(eligible, item)
		}
	}
	return eligible
}
