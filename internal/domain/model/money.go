package model

import (
	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// MinorFromMajor converts a rupee amount to paise, rounding half-up to the
// nearest paisa. Zero and negative amounts are rejected.
func MinorFromMajor(major decimal.Decimal) (int64, error) {
	minor := major.Mul(hundred).Round(0)
	if !minor.IsPositive() {
		return 0, domain.ErrInvalidArgument
	}
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, domain.ErrInvalidArgument
	}
	return minor.IntPart(), nil
}

// MajorFromMinor renders paise as a two-place rupee amount.
func MajorFromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
