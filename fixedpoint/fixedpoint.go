// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package fixedpoint implements 18-decimal fixed-point arithmetic on signed
// 256-bit integers. Values are carried as *big.Int and every intermediate is
// checked against the int256 range, so results match a host that provides
// native I256 with trapping overflow.
package fixedpoint

import (
	"errors"
	"math/big"
)

// Errors
var (
	ErrNegative        = errors.New("value is negative")
	ErrNegativeOrZero  = errors.New("value is negative or zero")
	ErrMathApprox      = errors.New("fixed point result does not fit in 128 bits")
	ErrAddOverflow     = errors.New("addition overflow")
	ErrSubUnderflow    = errors.New("subtraction underflow")
	ErrDivInternal     = errors.New("division by zero")
	ErrMulOverflow     = errors.New("multiplication overflow")
	ErrCPowBaseTooLow  = errors.New("cpow base too low")
	ErrCPowBaseTooHigh = errors.New("cpow base too high")
)

// Scaling constants
var (
	BONE          = big.NewInt(1_000_000_000_000_000_000) // 1e18
	FeeScalar     = big.NewInt(100_000_000_000_000)       // 1e14
	CPowPrecision = big.NewInt(100_000_000)               // 1e8
	MinCPowBase   = big.NewInt(1)
	MaxCPowBase   = new(big.Int).Sub(new(big.Int).Mul(big.NewInt(2), BONE), big.NewInt(1))
)

// Integer bounds
var (
	MaxI128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	MinI128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	MaxI256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	MinI256 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

// FitsI128 reports whether x is representable as a signed 128-bit integer.
func FitsI128(x *big.Int) bool {
	return x.Cmp(MinI128) >= 0 && x.Cmp(MaxI128) <= 0
}

// FitsI256 reports whether x is representable as a signed 256-bit integer.
func FitsI256(x *big.Int) bool {
	return x.Cmp(MinI256) >= 0 && x.Cmp(MaxI256) <= 0
}

// RequireNonNegative returns ErrNegative when x < 0.
func RequireNonNegative(x *big.Int) error {
	if x == nil || x.Sign() < 0 {
		return ErrNegative
	}
	return nil
}

// RequirePositive returns ErrNegativeOrZero when x <= 0.
func RequirePositive(x *big.Int) error {
	if x == nil || x.Sign() <= 0 {
		return ErrNegativeOrZero
	}
	return nil
}

// =========================================================================
// Scaling
// =========================================================================

// Upscale promotes an i128 token amount (or fee) into the fixed-point domain:
// amount * scalar. The product of two i128 values always fits in int256.
func Upscale(amount, scalar *big.Int) *big.Int {
	return new(big.Int).Mul(amount, scalar)
}

// DownscaleFloor divides x by scalar rounding toward negative infinity.
func DownscaleFloor(x, scalar *big.Int) (*big.Int, error) {
	return downscale(x, scalar, false)
}

// DownscaleCeil divides x by scalar rounding toward positive infinity.
func DownscaleCeil(x, scalar *big.Int) (*big.Int, error) {
	return downscale(x, scalar, true)
}

func downscale(x, scalar *big.Int, roundUp bool) (*big.Int, error) {
	r, err := mulDiv(x, big.NewInt(1), scalar, roundUp)
	if err != nil {
		return nil, err
	}
	if !FitsI128(r) {
		return nil, ErrMathApprox
	}
	return r, nil
}

// =========================================================================
// Directed rounding
// =========================================================================

// MulFloor returns floor(a * b / one).
func MulFloor(a, b, one *big.Int) (*big.Int, error) {
	return mulDiv(a, b, one, false)
}

// MulCeil returns ceil(a * b / one).
func MulCeil(a, b, one *big.Int) (*big.Int, error) {
	return mulDiv(a, b, one, true)
}

// DivFloor returns floor(a * one / b).
func DivFloor(a, b, one *big.Int) (*big.Int, error) {
	return mulDiv(a, one, b, false)
}

// DivCeil returns ceil(a * one / b).
func DivCeil(a, b, one *big.Int) (*big.Int, error) {
	return mulDiv(a, one, b, true)
}

// mulDiv computes x*y/z with the requested rounding direction. The product
// must stay inside int256, matching an I256 host.
func mulDiv(x, y, z *big.Int, roundUp bool) (*big.Int, error) {
	if z.Sign() == 0 {
		return nil, ErrDivInternal
	}
	prod := new(big.Int).Mul(x, y)
	if !FitsI256(prod) {
		return nil, ErrMulOverflow
	}

	q, m := new(big.Int).QuoRem(prod, z, new(big.Int))
	if m.Sign() != 0 {
		sameSign := (prod.Sign() < 0) == (z.Sign() < 0)
		if roundUp && sameSign {
			q.Add(q, big.NewInt(1))
		} else if !roundUp && !sameSign {
			q.Sub(q, big.NewInt(1))
		}
	}
	if !FitsI256(q) {
		return nil, ErrMulOverflow
	}
	return q, nil
}

// =========================================================================
// Checked arithmetic
// =========================================================================

// Add returns a + b, failing with ErrAddOverflow outside int256.
func Add(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Add(a, b)
	if !FitsI256(r) {
		return nil, ErrAddOverflow
	}
	return r, nil
}

// Sub returns a - b, failing with ErrSubUnderflow outside int256.
func Sub(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Sub(a, b)
	if !FitsI256(r) {
		return nil, ErrSubUnderflow
	}
	return r, nil
}

// SubNoNegative returns a - b and fails when a < b.
func SubNoNegative(a, b *big.Int) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, ErrSubUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

// AddI128 returns a + b constrained to the i128 range.
func AddI128(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Add(a, b)
	if !FitsI128(r) {
		return nil, ErrAddOverflow
	}
	return r, nil
}

// SubI128 returns a - b constrained to the i128 range.
func SubI128(a, b *big.Int) (*big.Int, error) {
	r := new(big.Int).Sub(a, b)
	if !FitsI128(r) {
		return nil, ErrSubUnderflow
	}
	return r, nil
}
