package storage

import "errors"

// Sentinel errors returned by storage implementations. Services translate
// these into the HTTP-facing error taxonomy.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrInsufficientBalance is returned when applying a ledger entry would
	// drive an account balance below zero. The check runs inside the same
	// transaction that locks the account row, so concurrent redemptions
	// cannot race past it.
	ErrInsufficientBalance = errors.New("storage: insufficient balance")

	// ErrDuplicateEarn is returned when an earned entry already exists for
	// the order. Earn is idempotent per order.
	ErrDuplicateEarn = errors.New("storage: order already credited")
)

// Store composes the full data layer. Components should depend on the more
// granular interfaces (LoyaltyStore, PromotionStore, ...) instead of this one.
type Store interface {
	LoyaltyStore
	PromotionStore
	OrderStore
	UserStore
}
