package kernel

import (
	"fmt"

	"drivethru/internal/pkg/errs"
)

// Money is a value object representing a currency amount in integer cents.
// Using integer cents keeps line totals and tax computation exact; floating
// point never enters the order ledger.
//
// The zero value is a valid $0.00 amount. Negative amounts cannot be
// constructed through NewMoneyFromCents; arithmetic that would produce a
// negative amount (which would break the order-total invariant) must be
// rejected by the caller via IsNegative checks on the raw result.
//
// Money is immutable: all operations return a new value.
type Money struct {
	cents int64
}

// NewMoneyFromCents creates a Money amount from integer cents.
// Returns an error for negative amounts; prices and totals in the order
// ledger are always non-negative.
func NewMoneyFromCents(cents int64) (Money, error) {
	if cents < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money amount",
			fmt.Errorf("%d cents is negative", cents))
	}
	return Money{cents: cents}, nil
}

// Cents returns the raw amount in cents.
func (m Money) Cents() int64 {
	return m.cents
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// MultiplyInt returns the amount scaled by a non-negative integer factor,
// used for quantity * unit price line totals.
func (m Money) MultiplyInt(factor int) (Money, error) {
	if factor < 0 {
		return Money{}, errs.NewValueIsInvalidErrorWithCause("money factor",
			fmt.Errorf("%d is negative", factor))
	}
	return Money{cents: m.cents * int64(factor)}, nil
}

// ApplyRate returns the amount scaled by a basis-point rate, rounded half up.
// A rate of 825 basis points is 8.25%. Used for tax computation.
func (m Money) ApplyRate(basisPoints int64) Money {
	scaled := m.cents*basisPoints + 5000
	return Money{cents: scaled / 10000}
}

// GreaterThan reports whether m exceeds other.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// IsEqual compares two amounts by value.
func (m Money) IsEqual(other Money) bool {
	return m.cents == other.cents
}

// String formats the amount as dollars, e.g. "$12.50".
func (m Money) String() string {
	return fmt.Sprintf("$%d.%02d", m.cents/100, m.cents%100)
}
