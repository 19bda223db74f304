package common

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an immutable fixed-precision decimal used for prices. Comparisons
// are exact, there is no binary floating point involved.
type Amount struct {
	value decimal.Decimal
}

// NewAmount parses a decimal string such as "100" or "12.3450".
func NewAmount(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, value, err)
	}
	return Amount{value: d}, nil
}

func NewAmountFromInt(value int64) Amount {
	return Amount{value: decimal.NewFromInt(value)}
}

// MustAmount is NewAmount for literals known to be valid. It panics otherwise.
func MustAmount(value string) Amount {
	a, err := NewAmount(value)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) Decimal() decimal.Decimal { return a.value }

func (a Amount) IsPositive() bool { return a.value.IsPositive() }
func (a Amount) IsZero() bool     { return a.value.IsZero() }

// Cmp returns -1, 0 or +1 depending on whether a is less than, equal to or
// greater than b. 100 and 100.00 compare equal.
func (a Amount) Cmp(b Amount) int { return a.value.Cmp(b.value) }

func (a Amount) Equal(b Amount) bool              { return a.value.Equal(b.value) }
func (a Amount) LessThan(b Amount) bool           { return a.value.LessThan(b.value) }
func (a Amount) LessThanOrEqual(b Amount) bool    { return a.value.LessThanOrEqual(b.value) }
func (a Amount) GreaterThan(b Amount) bool        { return a.value.GreaterThan(b.value) }
func (a Amount) GreaterThanOrEqual(b Amount) bool { return a.value.GreaterThanOrEqual(b.value) }

func (a Amount) Add(b Amount) Amount {
	return Amount{value: a.value.Add(b.value)}
}

// Mul returns the notional value of n units priced at a.
func (a Amount) Mul(n uint64) Amount {
	return Amount{value: a.value.Mul(decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0))}
}

func (a Amount) String() string { return a.value.String() }

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.value.MarshalJSON()
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	a.value = d
	return nil
}
