package services

import "github.com/shopspring/decimal"

// Currencies with no minor unit. Everything else uses two decimal places.
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
	"CLP": true,
	"ISK": true,
	"UGX": true,
	"XAF": true,
	"XOF": true,
}

// minorUnits returns the number of decimal places for a currency code.
func minorUnits(currency string) int32 {
	if zeroDecimalCurrencies[currency] {
		return 0
	}
	return 2
}

// roundCurrency rounds an amount to the currency's minor-unit precision,
// half up.
func roundCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(minorUnits(currency))
}
