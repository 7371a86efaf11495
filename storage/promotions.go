package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
)

// PromotionReader defines the interface for reading promotions and their
// usage counts.
type PromotionReader interface {
	// GetPromotion retrieves a promotion by id, including soft-deleted rows
	// so historical references keep resolving.
	GetPromotion(ctx context.Context, id uuid.UUID) (*models.Promotion, error)

	// ListPromotions retrieves a store's promotions, newest first,
	// excluding soft-deleted rows. When activeOnly is set, only promotions
	// active at now are returned.
	ListPromotions(ctx context.Context, storeInfoID uuid.UUID, activeOnly bool, now time.Time) ([]models.Promotion, error)

	// FindActiveByCode resolves a discount code to the promotion carrying
	// it: active, within its validity window at now, not deleted. When
	// several match, the most recently created wins. Returns ErrNotFound
	// when no promotion matches.
	FindActiveByCode(ctx context.Context, storeInfoID uuid.UUID, code string, now time.Time) (*models.Promotion, error)

	// CountUsage returns how many orders have used the promotion.
	CountUsage(ctx context.Context, promotionID uuid.UUID) (int, error)

	// CountCustomerUsage returns how many orders by one customer have used
	// the promotion.
	CountCustomerUsage(ctx context.Context, promotionID, customerID uuid.UUID) (int, error)

	// PromotionStats aggregates a store's promotion totals.
	PromotionStats(ctx context.Context, storeInfoID uuid.UUID, now time.Time) (*PromotionStats, error)
}

// PromotionManager defines the interface for promotion lifecycle changes.
type PromotionManager interface {
	// CreatePromotion inserts a promotion and returns it with generated
	// fields populated.
	CreatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)

	// UpdatePromotion replaces the mutable fields of a promotion.
	UpdatePromotion(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)

	// SoftDeletePromotion sets deleted_at, hiding the promotion from
	// listings while keeping usage history resolvable.
	SoftDeletePromotion(ctx context.Context, id uuid.UUID) error

	// HardDeletePromotion removes the row. Only valid for promotions with
	// no recorded usage.
	HardDeletePromotion(ctx context.Context, id uuid.UUID) error

	// SetPromotionImage updates the banner image URL.
	SetPromotionImage(ctx context.Context, id uuid.UUID, imageURL string) error
}

// PromotionStats is the aggregate returned by PromotionReader.PromotionStats.
type PromotionStats struct {
	TotalPromotions  int             `json:"total_promotions"`
	ActivePromotions int             `json:"active_promotions"`
	TotalUsage       int             `json:"total_usage"`
	TotalDiscount    decimal.Decimal `json:"total_discount"`
}

// PromotionStore combines the reader and manager interfaces.
type PromotionStore interface {
	PromotionReader
	PromotionManager
}
