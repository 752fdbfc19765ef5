// Package money holds the fixed-point rules for token and currency amounts.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
)

// Scale is the number of fraction digits stored for balances and supply.
const Scale = 2

var (
	ErrNonPositive   = fmt.Errorf("amount must be greater than zero: %w", apperr.ErrValidation)
	ErrNegative      = fmt.Errorf("amount must not be negative: %w", apperr.ErrValidation)
	ErrTooPrecise    = fmt.Errorf("amount has more than %d fraction digits: %w", Scale, apperr.ErrValidation)
	ErrInvalidFormat = fmt.Errorf("amount is not a decimal number: %w", apperr.ErrValidation)
)

// Round rounds d half away from zero to Scale digits.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Portion returns amount*rate rounded to Scale digits.
func Portion(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(Scale)
}

// ValidatePositive accepts strictly positive amounts representable at Scale.
func ValidatePositive(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrNonPositive
	}
	if !d.Equal(d.Round(Scale)) {
		return ErrTooPrecise
	}
	return nil
}

// ValidateNonNegative accepts zero or positive amounts representable at Scale.
func ValidateNonNegative(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrNegative
	}
	if !d.Equal(d.Round(Scale)) {
		return ErrTooPrecise
	}
	return nil
}

// Parse parses a decimal string such as "12.50".
func Parse(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	return d, nil
}
