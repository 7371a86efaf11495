package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount types supported by promotions.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// Promotion is a store-scoped discount rule. Usage counts are derived from
// promotion_usage rows, never stored as a mutable counter on this row.
// Deleted promotions keep their row (deleted_at set) so order and usage
// history stays resolvable.
type Promotion struct {
	ID                    uuid.UUID        `json:"id" db:"id"`
	StoreInfoID           uuid.UUID        `json:"store_info_id" db:"store_info_id"`
	Name                  string           `json:"name" db:"name"`
	Description           string           `json:"description" db:"description"`
	DiscountType          string           `json:"discount_type" db:"discount_type"`
	DiscountValue         decimal.Decimal  `json:"discount_value" db:"discount_value"`
	MinimumPurchase       *decimal.Decimal `json:"minimum_purchase,omitempty" db:"minimum_purchase"`
	MaximumDiscount       *decimal.Decimal `json:"maximum_discount,omitempty" db:"maximum_discount"`
	StartDate             time.Time        `json:"start_date" db:"start_date"`
	EndDate               time.Time        `json:"end_date" db:"end_date"`
	UsageLimit            *int             `json:"usage_limit,omitempty" db:"usage_limit"`
	CustomerUsageLimit    *int             `json:"customer_usage_limit,omitempty" db:"customer_usage_limit"`
	IsActive              bool             `json:"is_active" db:"is_active"`
	ApplicableCategoryIDs []uuid.UUID      `json:"applicable_category_ids,omitempty" db:"applicable_category_ids"`
	ApplicableProductIDs  []uuid.UUID      `json:"applicable_product_ids,omitempty" db:"applicable_product_ids"`
	Codes                 []string         `json:"codes,omitempty" db:"codes"`
	ImageURL              *string          `json:"image_url,omitempty" db:"image_url"`
	CreatedBy             *uuid.UUID       `json:"created_by,omitempty" db:"created_by"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at" db:"updated_at"`
	DeletedAt             *time.Time       `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ActiveAt reports whether the promotion can be applied at the given time.
func (p *Promotion) ActiveAt(now time.Time) bool {
	if !p.IsActive || p.DeletedAt != nil {
		return false
	}
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// HasCode reports whether code belongs to the promotion's code set.
func (p *Promotion) HasCode(code string) bool {
	for _, c := range p.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func (Promotion) TableName() string {
	return "promotions"
}

func (Promotion) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS promotions (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		store_info_id UUID NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage', 'fixed_amount')),
		discount_value NUMERIC(12,2) NOT NULL CHECK (discount_value >= 0),
		minimum_purchase NUMERIC(12,2),
		maximum_discount NUMERIC(12,2),
		start_date TIMESTAMP WITH TIME ZONE NOT NULL,
		end_date TIMESTAMP WITH TIME ZONE NOT NULL,
		usage_limit INTEGER,
		customer_usage_limit INTEGER,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		applicable_category_ids UUID[] NOT NULL DEFAULT '{}',
		applicable_product_ids UUID[] NOT NULL DEFAULT '{}',
		codes TEXT[] NOT NULL DEFAULT '{}',
		image_url TEXT,
		created_by UUID REFERENCES users(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now(),
		deleted_at TIMESTAMP WITH TIME ZONE
	);
	CREATE INDEX IF NOT EXISTS promotions_store ON promotions (store_info_id, created_at DESC);`
}
