package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/araneta/postoko-sub002/models"
)

// OrderStore defines the interface for order persistence. Orders are the
// external anchor for ledger entries and promotion usage; this layer only
// writes them on behalf of settlement.
type OrderStore interface {
	// CreateOrder persists an order with its items and, when usage is
	// non-nil, the promotion usage row, in one transaction. Returns the
	// order with generated fields populated.
	CreateOrder(ctx context.Context, order *models.Order, usage *models.PromotionUsage) (*models.Order, error)

	// GetOrder retrieves an order with its items.
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
}
