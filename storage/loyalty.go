package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/araneta/postoko-sub002/models"
)

// SettingsUpdate is a partial update to a store's loyalty settings. Nil
// fields are left unchanged. ClearExpiry unsets the expiry period.
type SettingsUpdate struct {
	PointsPerCurrency *decimal.Decimal
	RedemptionRate    *decimal.Decimal
	MinimumRedemption *int64
	ExpiryMonths      *int
	ClearExpiry       bool
	Enabled           *bool
}

// LoyaltyReader defines the interface for reading loyalty state.
type LoyaltyReader interface {
	// GetAccount retrieves a customer's points account.
	// Returns ErrNotFound when the customer has never earned.
	GetAccount(ctx context.Context, customerID uuid.UUID) (*models.PointsAccount, error)

	// ListLedgerEntries retrieves a customer's ledger history, newest first.
	// A limit of 0 means no limit.
	ListLedgerEntries(ctx context.Context, customerID uuid.UUID, limit int) ([]models.LedgerEntry, error)

	// ListInactiveAccounts retrieves accounts with a positive balance whose
	// last activity predates the cutoff. Used by the expiry sweep.
	ListInactiveAccounts(ctx context.Context, cutoff time.Time) ([]models.PointsAccount, error)

	// GetSettings retrieves a store's loyalty settings, creating the default
	// row if the store has none yet.
	GetSettings(ctx context.Context, storeInfoID uuid.UUID) (*models.LoyaltySettings, error)
}

// LoyaltyManager defines the interface for mutating loyalty state.
type LoyaltyManager interface {
	// ApplyEntry atomically appends a ledger entry and updates the
	// customer's account (creating it when absent). The account row is
	// locked for the duration, and the resulting balance is checked against
	// zero inside the transaction. Returns the updated account.
	//
	// Returns ErrInsufficientBalance when the entry would make the balance
	// negative, and ErrDuplicateEarn when an earned entry for the same
	// order already exists.
	ApplyEntry(ctx context.Context, entry *models.LedgerEntry) (*models.PointsAccount, error)

	// UpdateSettings applies a partial settings update and returns the
	// updated row.
	UpdateSettings(ctx context.Context, storeInfoID uuid.UUID, update SettingsUpdate) (*models.LoyaltySettings, error)
}

// LoyaltyStore combines the reader and manager interfaces.
type LoyaltyStore interface {
	LoyaltyReader
	LoyaltyManager
}
