// Package money carries amounts as int64 minor currency units (cents).
// Decimal strings exist only at the RPC boundary; the ledger never touches
// binary floats, so repeated increments cannot drift.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a signed quantity of minor currency units (cents).
type Amount int64

// Max is the exclusive ceiling for a single expense split or settlement,
// in minor units.
const Max Amount = 100_000_000

// Tolerance is the smallest split-sum discrepancy, in minor units, that
// rejects an expense. Only sub-cent residue is forgiven, and integer cents
// cannot carry any, so splits must sum to the total exactly.
const Tolerance Amount = 1

var (
	ErrNotDecimal   = errors.New("amount is not a valid decimal")
	ErrSubCent      = errors.New("amount has sub-cent precision")
	errCentOverflow = errors.New("amount overflows minor units")
)

var hundred = decimal.NewFromInt(100)

// Parse converts a decimal string like "12.34" into cents.
// It rejects sub-cent precision rather than rounding silently.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotDecimal, s)
	}
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("%w: %q", ErrSubCent, s)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q", errCentOverflow, s)
	}
	return Amount(cents.IntPart()), nil
}

// String renders the amount as a fixed two-decimal string, e.g. "10.00".
func (a Amount) String() string {
	return decimal.New(int64(a), -2).StringFixed(2)
}

// Abs returns the magnitude of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}
