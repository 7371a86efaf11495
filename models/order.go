package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is the sale anchor for ledger entries and promotion usage. Customer
// is optional: walk-in sales carry no customer and accrue no points.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	StoreInfoID   uuid.UUID       `json:"store_info_id" db:"store_info_id"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty" db:"customer_id"`
	OrderNumber   string          `json:"order_number" db:"order_number"`
	Status        string          `json:"status" db:"status"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total" db:"discount_total"`
	Total         decimal.Decimal `json:"total" db:"total"`
	PromotionID   *uuid.UUID      `json:"promotion_id,omitempty" db:"promotion_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	Items         []OrderItem     `json:"items,omitempty"`
}

// OrderItem is a single cart line. CategoryID drives promotion eligibility.
type OrderItem struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	OrderID    uuid.UUID       `json:"order_id" db:"order_id"`
	ProductID  uuid.UUID       `json:"product_id" db:"product_id"`
	CategoryID *uuid.UUID      `json:"category_id,omitempty" db:"category_id"`
	Name       string          `json:"name" db:"name"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// LineTotal is quantity times unit price.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (Order) TableName() string {
	return "orders"
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (Order) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		store_info_id UUID NOT NULL,
		customer_id UUID,
		order_number VARCHAR(50) NOT NULL UNIQUE,
		status VARCHAR(20) NOT NULL DEFAULT 'completed',
		subtotal NUMERIC(12,2) NOT NULL,
		discount_total NUMERIC(12,2) NOT NULL DEFAULT 0,
		total NUMERIC(12,2) NOT NULL,
		promotion_id UUID REFERENCES promotions(id),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`
}

func (OrderItem) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id UUID NOT NULL,
		category_id UUID,
		name TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12,2) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`
}
