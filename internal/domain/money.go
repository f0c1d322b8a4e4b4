package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places kept for money and BeeCoin amounts.
const AmountPlaces = 2

var ErrInvalidAmount = errors.New("invalid amount")

// Column limits: prices, totals and balances are NUMERIC(10,2), per-unit
// accrual rates are NUMERIC(5,2).
var (
	MaxMoney       = decimal.RequireFromString("99999999.99")
	MaxAccrualRate = decimal.RequireFromString("999.99")
)

// CheckRange reports ErrInvalidAmount unless 0 <= d <= max.
func CheckRange(d, max decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(max) {
		return fmt.Errorf("%w: %s is outside [0, %s]", ErrInvalidAmount, d, max)
	}
	return nil
}

// ParseAmount parses a user-supplied decimal amount. Extra precision beyond
// AmountPlaces is truncated, never rounded up. Empty input is an error; callers
// that treat a missing amount as zero must do so explicitly.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d.Truncate(AmountPlaces), nil
}
