// Package units converts between whole EUR amounts and the ledger's smallest
// unit. The token carries 18 decimal places; all arithmetic is integer.
package units

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Decimals is the number of decimal places of the ledger token.
const Decimals = 18

// one is 10^Decimals, the number of smallest units in one EUR.
var one = uint256.NewInt(1_000_000_000_000_000_000)

// One returns a fresh copy of 10^Decimals.
func One() *uint256.Int {
	return new(uint256.Int).Set(one)
}

// Zero returns a new zero amount.
func Zero() *uint256.Int {
	return new(uint256.Int)
}

// EUR converts a whole EUR amount to smallest units.
func EUR(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), one)
}

// Parse reads a decimal EUR string such as "1000" or "12.5" into smallest units.
func Parse(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && (frac == "" || len(frac) > Decimals) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if whole == "" {
		whole = "0"
	}
	frac += strings.Repeat("0", Decimals-len(frac))
	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return Zero(), nil
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAmount, s, err)
	}
	return v, nil
}

// Format renders an amount in smallest units as a decimal EUR string,
// trimming trailing zeros of the fractional part.
func Format(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	whole, frac := new(uint256.Int).DivMod(v, one, new(uint256.Int))
	if frac.IsZero() {
		return whole.Dec()
	}
	fs := frac.Dec()
	fs = strings.Repeat("0", Decimals-len(fs)) + fs
	return whole.Dec() + "." + strings.TrimRight(fs, "0")
}

// Float64 approximates v in EUR. It is meant for reporting only.
func Float64(v *uint256.Int) float64 {
	f, _ := strconv.ParseFloat(Format(v), 64)
	return f
}
