package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltySettings configures the loyalty program for one store. Read on
// every earn/redeem call; never cached, so settings edits take effect
// immediately.
type LoyaltySettings struct {
	StoreInfoID       uuid.UUID       `json:"store_info_id" db:"store_info_id"`
	PointsPerCurrency decimal.Decimal `json:"points_per_currency" db:"points_per_currency"`
	RedemptionRate    decimal.Decimal `json:"redemption_rate" db:"redemption_rate"`
	MinimumRedemption int64           `json:"minimum_redemption" db:"minimum_redemption"`
	ExpiryMonths      *int            `json:"expiry_months,omitempty" db:"expiry_months"`
	Enabled           bool            `json:"enabled" db:"enabled"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// DefaultLoyaltySettings is the row created lazily the first time a store's
// settings are read: 1 point per currency unit, each point worth 0.01.
func DefaultLoyaltySettings(storeInfoID uuid.UUID) LoyaltySettings {
	return LoyaltySettings{
		StoreInfoID:       storeInfoID,
		PointsPerCurrency: decimal.NewFromInt(1),
		RedemptionRate:    decimal.NewFromFloat(0.01),
		MinimumRedemption: 0,
		Enabled:           true,
	}
}

func (LoyaltySettings) TableName() string {
	return "loyalty_settings"
}

func (LoyaltySettings) CreateTableSQL() string {
	return `
	CREATE TABLE IF NOT EXISTS loyalty_settings (
		store_info_id UUID PRIMARY KEY,
		points_per_currency NUMERIC(10,4) NOT NULL DEFAULT 1 CHECK (points_per_currency >= 0),
		redemption_rate NUMERIC(10,4) NOT NULL DEFAULT 0.01 CHECK (redemption_rate > 0),
		minimum_redemption BIGINT NOT NULL DEFAULT 0 CHECK (minimum_redemption >= 0),
		expiry_months INTEGER,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);`
}
