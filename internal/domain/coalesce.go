package domain

import "github.com/shopspring/decimal"

// HoursOr returns the first non-nil hours value, or fallback when every
// candidate is nil.
func HoursOr(fallback decimal.Decimal, candidates ...*decimal.Decimal) decimal.Decimal {
	for _, h := range candidates {
		if h != nil {
			return *h
		}
	}
	return fallback
}
