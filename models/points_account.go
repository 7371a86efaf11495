package models

import (
	"time"

	"github.com/google/uuid"
)

// Loyalty tiers, derived from lifetime earned points.
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// PointsAccount is the per-customer loyalty balance. One row per customer,
// created lazily on the first earn. Balance never goes below zero.
type PointsAccount struct {
	CustomerID    uuid.UUID `json:"customer_id" db:"customer_id"`
	PointsBalance int64     `json:"points_balance" db:"points_balance"`
	Tier          string    `json:"tier" db:"tier"`
	TotalEarned   int64     `json:"total_earned" db:"total_earned"`
	TotalRedeemed int64     `json:"total_redeemed" db:"total_redeemed"`
	LastActivity  time.Time `json:"last_activity" db:"last_activity"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// TierFor maps lifetime earned points to a tier.
func TierFor(totalEarned int64) string {
	switch {
	case totalEarned >= 50000:
		return TierPlatinum
	case totalEarned >= 10000:
		return TierGold
	case totalEarned >= 1000:
		return TierSilver
	default:
		return TierBronze
	}
}

func (PointsAccount) TableName() string {
	return "loyalty_accounts"
}

func (PointsAccount) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS loyalty_accounts (
		customer_id UUID PRIMARY KEY,
		points_balance BIGINT NOT NULL DEFAULT 0 CHECK (points_balance >= 0),
		tier TEXT NOT NULL DEFAULT 'bronze' CHECK (tier IN ('bronze', 'silver', 'gold', 'platinum')),
		total_earned BIGINT NOT NULL DEFAULT 0,
		total_redeemed BIGINT NOT NULL DEFAULT 0,
		last_activity TIMESTAMP WITH TIME ZONE DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
