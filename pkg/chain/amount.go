package chain

import (
	"errors"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that are not positive base-10 integers.
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// ParseAmount parses a positive integer amount expressed in the smallest unit
// of a chain's currency (e.g. wei).
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrInvalidAmount
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	return v, nil
}

// ToUnits converts an amount in the smallest unit to whole currency units.
func ToUnits(amount *big.Int, decimals int) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FromUnits scales a whole-unit value to the smallest unit, truncating any
// fractional remainder below the currency precision.
func FromUnits(units decimal.Decimal, decimals int) *big.Int {
	return units.Shift(int32(decimals)).BigInt()
}
