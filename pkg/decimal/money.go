// Package decimal provides the fixed-point monetary type used throughout the
// tax engine. Binary floating point is never used for money: amounts are
// shopspring decimals quantized to two fraction digits at result boundaries,
// while rates and FX factors stay at full precision for intermediate work.
package decimal

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary amount in a single currency with fixed-point
// precision. The zero value is a usable zero amount.
type Money struct {
	decimal.Decimal
}

// NewFromInt creates a Money amount from an integer number of currency units.
func NewFromInt(value int64) Money {
	return Money{decimal.NewFromInt(value)}
}

// NewFromDecimal wraps a raw decimal as a Money amount.
func NewFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// NewFromString parses a Money amount from its decimal string form.
func NewFromString(value string) (Money, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// RequireFromString parses a Money amount and panics on malformed input.
// Intended for table literals that are fixed at compile time.
func RequireFromString(value string) Money {
	return Money{decimal.RequireFromString(value)}
}

// Zero returns a zero Money amount.
func Zero() Money {
	return Money{decimal.Zero}
}

// Round quantizes the amount to two fraction digits (cents).
func (m Money) Round() Money {
	return Money{m.Decimal.Round(2)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// MulRate multiplies the amount by a rate (e.g. a marginal tax rate or an FX
// factor) at full precision. Callers round once at the result boundary.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money{m.Decimal.Mul(rate)}
}

// Mul multiplies the amount by a decimal quantity (e.g. a number of units).
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{m.Decimal.Mul(factor)}
}

// Div divides the amount by a decimal factor using the package default
// division precision (16 digits).
func (m Money) Div(factor decimal.Decimal) Money {
	return Money{m.Decimal.Div(factor)}
}

// FloorZero clamps a negative amount to zero. Allowance tapers, rebates and
// exclusions all floor at zero rather than going negative.
func (m Money) FloorZero() Money {
	if m.Decimal.IsNegative() {
		return Zero()
	}
	return m
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.Decimal.GreaterThan(other.Decimal)
}

// GreaterThanOrEqual reports whether m >= other.
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.Decimal.GreaterThanOrEqual(other.Decimal)
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.Decimal.LessThan(other.Decimal)
}

// LessThanOrEqual reports whether m <= other.
func (m Money) LessThanOrEqual(other Money) bool {
	return m.Decimal.LessThanOrEqual(other.Decimal)
}

// Equal reports whether the two amounts are numerically equal.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Decimal.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool {
	return m.Decimal.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool {
	return m.Decimal.IsPositive()
}

// Min returns the smaller of two Money amounts.
func Min(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of two Money amounts.
func Max(a, b Money) Money {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Sum adds a series of Money amounts.
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// String renders the amount with exactly two fraction digits.
func (m Money) String() string {
	return m.Decimal.StringFixed(2)
}
