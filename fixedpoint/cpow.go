// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math"
	"math/big"
)

// cpowMaxTerms caps the binomial series. Worst case is near MaxCPowBase where
// the series converges slowly; the cap keeps execution cost deterministic.
const cpowMaxTerms = 50

// CPow computes base^exp where both are 18-decimal fixed-point numbers.
//
// The result is base^int(exp) * approx(base^frac(exp)); the fractional part
// is biased toward the requested rounding direction.
func CPow(base, exp *big.Int, roundUp bool) (*big.Int, error) {
	if base.Cmp(MinCPowBase) < 0 {
		return nil, ErrCPowBaseTooLow
	}
	if base.Cmp(MaxCPowBase) > 0 {
		return nil, ErrCPowBaseTooHigh
	}
	if err := RequireNonNegative(exp); err != nil {
		return nil, err
	}

	intPart, remain := new(big.Int).QuoRem(exp, BONE, new(big.Int))
	if !intPart.IsUint64() || intPart.Uint64() > math.MaxUint32 {
		return nil, ErrMulOverflow
	}

	whole, err := cpowi(base, uint32(intPart.Uint64()))
	if err != nil {
		return nil, err
	}
	if remain.Sign() == 0 {
		return whole, nil
	}

	partial, err := cpowApprox(base, remain, CPowPrecision, roundUp)
	if err != nil {
		return nil, err
	}
	if roundUp {
		return MulCeil(whole, partial, BONE)
	}
	return MulFloor(whole, partial, BONE)
}

// cpowi computes a^n for an integer n by square-and-multiply.
func cpowi(a *big.Int, n uint32) (*big.Int, error) {
	z := new(big.Int).Set(BONE)
	if n%2 != 0 {
		z.Set(a)
	}

	var err error
	a = new(big.Int).Set(a)
	for n /= 2; n != 0; n /= 2 {
		if a, err = MulFloor(a, a, BONE); err != nil {
			return nil, err
		}
		if n%2 != 0 {
			if z, err = MulFloor(z, a, BONE); err != nil {
				return nil, err
			}
		}
	}
	return z, nil
}

// cpowApprox evaluates (1+x)^e = sum C(e,k) x^k with x = base - 1 until a
// term drops below precision.
func cpowApprox(base, exp, precision *big.Int, roundUp bool) (*big.Int, error) {
	x := new(big.Int).Sub(base, BONE)
	term := new(big.Int).Set(BONE)
	sum := new(big.Int).Set(term)

	var (
		cx  *big.Int
		err error
	)
	for i := int64(1); i <= cpowMaxTerms; i++ {
		bigK := new(big.Int).Mul(big.NewInt(i), BONE)
		c := new(big.Int).Sub(exp, new(big.Int).Sub(bigK, BONE))

		if cx, err = MulFloor(c, x, BONE); err != nil {
			return nil, err
		}
		if term, err = MulFloor(term, cx, BONE); err != nil {
			return nil, err
		}
		if term, err = DivFloor(term, bigK, BONE); err != nil {
			return nil, err
		}
		if sum, err = Add(sum, term); err != nil {
			return nil, err
		}

		if new(big.Int).Abs(term).Cmp(precision) <= 0 {
			break
		}
	}

	switch {
	case x.Sign() > 0:
		// Oscillating series: drop the last term if it pushed past the
		// requested side.
		if (term.Sign() > 0 && !roundUp) || (term.Sign() < 0 && roundUp) {
			sum, err = Sub(sum, term)
		}
	case !roundUp:
		// Monotonically decreasing series: the last term is an overestimate.
		sum, err = Add(sum, term)
	}
	if err != nil {
		return nil, err
	}
	return sum, nil
}
