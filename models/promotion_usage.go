package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionUsage records one application of a promotion to an order.
// Total and per-customer usage counts are COUNT queries over this table.
type PromotionUsage struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	PromotionID    uuid.UUID       `json:"promotion_id" db:"promotion_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty" db:"customer_id"`
	OrderID        uuid.UUID       `json:"order_id" db:"order_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	UsedAt         time.Time       `json:"used_at" db:"used_at"`
}

func (PromotionUsage) TableName() string {
	return "promotion_usage"
}

func (PromotionUsage) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS promotion_usage (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		promotion_id UUID NOT NULL REFERENCES promotions(id) ON DELETE CASCADE,
		customer_id UUID,
		order_id UUID NOT NULL,
		discount_amount NUMERIC(12,2) NOT NULL,
		used_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS promotion_usage_promotion ON promotion_usage (promotion_id, customer_id);`
}
