package models

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntryType is the kind of a ledger movement.
type LedgerEntryType string

const (
	EntryEarned   LedgerEntryType = "earned"
	EntryRedeemed LedgerEntryType = "redeemed"
	EntryExpired  LedgerEntryType = "expired"
	EntryAdjusted LedgerEntryType = "adjusted"
)

// LedgerEntry is an immutable, append-only record of a points movement.
// Delta is positive for earned/adjusted-up, negative for redeemed/expired.
// Entries are never updated or deleted; balances are the aggregation of
// deltas per customer.
type LedgerEntry struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	CustomerID  uuid.UUID       `json:"customer_id" db:"customer_id"`
	OrderID     *uuid.UUID      `json:"order_id,omitempty" db:"order_id"`
	EntryType   LedgerEntryType `json:"entry_type" db:"entry_type"`
	PointsDelta int64           `json:"points_delta" db:"points_delta"`
	Description string          `json:"description" db:"description"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "loyalty_ledger"
}

func (LedgerEntry) CreateTableSQL() string {
	// The partial unique index makes earn idempotent per order: a retried
	// order-creation request cannot credit the same order twice.
	return `
	CREATE TABLE IF NOT EXISTS loyalty_ledger (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		customer_id UUID NOT NULL,
		order_id UUID,
		entry_type TEXT NOT NULL CHECK (entry_type IN ('earned', 'redeemed', 'expired', 'adjusted')),
		points_delta BIGINT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS loyalty_ledger_earned_order
		ON loyalty_ledger (order_id) WHERE entry_type = 'earned';
	CREATE INDEX IF NOT EXISTS loyalty_ledger_customer
		ON loyalty_ledger (customer_id, created_at DESC);`
}
