package domain

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// StandardDecimals is the precision every balance and min amount is normalized to.
const StandardDecimals = 18

// ParseAmount parses a base-10 integer amount. Empty, negative and fractional values are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return v, nil
}

// ToStandard scales a native token amount to StandardDecimals.
func ToStandard(amount *uint256.Int, decimals uint8) *uint256.Int {
	return rescale(amount, int(decimals), StandardDecimals)
}

// ToNative scales a normalized amount back to the token's native decimals, truncating.
func ToNative(amount *uint256.Int, decimals uint8) *uint256.Int {
	return rescale(amount, StandardDecimals, int(decimals))
}

func rescale(amount *uint256.Int, from, to int) *uint256.Int {
	if amount == nil {
		return new(uint256.Int)
	}
	out := amount.Clone()
	switch {
	case from < to:
		out.Mul(out, pow10(to-from))
	case from > to:
		out.Div(out, pow10(from-to))
	}
	return out
}

func pow10(n int) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(n)))
}

// MinAmount returns the smaller of a and b.
func MinAmount(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// SaturatingSub returns a-b, or zero when b exceeds a.
func SaturatingSub(a, b *uint256.Int) *uint256.Int {
	if b.Gt(a) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(a, b)
}

// AmountOrZero never returns nil.
func AmountOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
