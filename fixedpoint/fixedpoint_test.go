// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func bigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int literal: " + s)
	}
	return n
}

func TestMulDivRounding(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b, one *big.Int) (*big.Int, error)
		a, b int64
		one  int64
		want int64
	}{
		{"mul floor positive", MulFloor, 7, 3, 2, 10},
		{"mul ceil positive", MulCeil, 7, 3, 2, 11},
		{"mul floor negative", MulFloor, -7, 3, 2, -11},
		{"mul ceil negative", MulCeil, -7, 3, 2, -10},
		{"mul exact", MulCeil, 6, 4, 3, 8},
		{"div floor", DivFloor, 10, 4, 1, 2},
		{"div ceil", DivCeil, 10, 4, 1, 3},
		{"div floor negative divisor", DivFloor, 10, -4, 1, -3},
		{"div ceil negative divisor", DivCeil, 10, -4, 1, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(big.NewInt(tt.a), big.NewInt(tt.b), big.NewInt(tt.one))
			require.NoError(t, err)
			require.Equal(t, tt.want, got.Int64())
		})
	}
}

func TestFixedDivision(t *testing.T) {
	third, err := DivFloor(big.NewInt(1), big.NewInt(3), BONE)
	require.NoError(t, err)
	require.Equal(t, "333333333333333333", third.String())

	thirdUp, err := DivCeil(big.NewInt(1), big.NewInt(3), BONE)
	require.NoError(t, err)
	require.Equal(t, "333333333333333334", thirdUp.String())
}

func TestArithmeticErrors(t *testing.T) {
	_, err := MulFloor(big.NewInt(1), big.NewInt(1), big.NewInt(0))
	require.ErrorIs(t, err, ErrDivInternal)

	_, err = MulFloor(MaxI256, big.NewInt(2), big.NewInt(1))
	require.ErrorIs(t, err, ErrMulOverflow)

	_, err = Add(MaxI256, big.NewInt(1))
	require.ErrorIs(t, err, ErrAddOverflow)

	_, err = Sub(MinI256, big.NewInt(1))
	require.ErrorIs(t, err, ErrSubUnderflow)

	_, err = SubNoNegative(big.NewInt(1), big.NewInt(2))
	require.ErrorIs(t, err, ErrSubUnderflow)

	_, err = AddI128(MaxI128, big.NewInt(1))
	require.ErrorIs(t, err, ErrAddOverflow)

	_, err = SubI128(MinI128, big.NewInt(1))
	require.ErrorIs(t, err, ErrSubUnderflow)

	require.ErrorIs(t, RequireNonNegative(big.NewInt(-1)), ErrNegative)
	require.NoError(t, RequireNonNegative(big.NewInt(0)))
	require.ErrorIs(t, RequirePositive(big.NewInt(0)), ErrNegativeOrZero)
	require.NoError(t, RequirePositive(big.NewInt(1)))
}

func TestScaling(t *testing.T) {
	up := Upscale(big.NewInt(5), BONE)
	require.Equal(t, "5000000000000000000", up.String())

	up.Add(up, big.NewInt(1))
	down, err := DownscaleFloor(up, BONE)
	require.NoError(t, err)
	require.Equal(t, int64(5), down.Int64())

	downUp, err := DownscaleCeil(up, BONE)
	require.NoError(t, err)
	require.Equal(t, int64(6), downUp.Int64())

	neg, err := DownscaleFloor(big.NewInt(-1), BONE)
	require.NoError(t, err)
	require.Equal(t, int64(-1), neg.Int64())

	tooBig := new(big.Int).Add(MaxI128, big.NewInt(1))
	_, err = DownscaleFloor(tooBig, big.NewInt(1))
	require.ErrorIs(t, err, ErrMathApprox)
}

func TestCPowBounds(t *testing.T) {
	_, err := CPow(big.NewInt(0), BONE, false)
	require.ErrorIs(t, err, ErrCPowBaseTooLow)

	_, err = CPow(new(big.Int).Mul(big.NewInt(2), BONE), BONE, false)
	require.ErrorIs(t, err, ErrCPowBaseTooHigh)

	_, err = CPow(BONE, big.NewInt(-1), false)
	require.ErrorIs(t, err, ErrNegative)
}

func TestCPowIntegerExponent(t *testing.T) {
	base := bigInt("1001000000000000000") // 1.001

	zero, err := CPow(base, big.NewInt(0), false)
	require.NoError(t, err)
	require.Equal(t, BONE.String(), zero.String())

	one, err := CPow(base, BONE, false)
	require.NoError(t, err)
	require.Equal(t, base.String(), one.String())

	two, err := CPow(base, new(big.Int).Mul(big.NewInt(2), BONE), false)
	require.NoError(t, err)
	require.Equal(t, "1002001000000000000", two.String())

	three, err := CPow(base, new(big.Int).Mul(big.NewInt(3), BONE), false)
	require.NoError(t, err)
	require.Equal(t, "1003003001000000000", three.String())
}

func TestCPowFractionalExponent(t *testing.T) {
	half := bigInt("500000000000000000")
	tolerance := big.NewInt(10_000_000_000) // 1e-8

	tests := []struct {
		name string
		base *big.Int
		want *big.Int
	}{
		{"sqrt 1.5", bigInt("1500000000000000000"), bigInt("1224744871391589049")},
		{"sqrt 0.5", bigInt("500000000000000000"), bigInt("707106781186547524")},
		{"sqrt 1.001", bigInt("1001000000000000000"), bigInt("1000499875062460964")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, err := CPow(tt.base, half, false)
			require.NoError(t, err)
			hi, err := CPow(tt.base, half, true)
			require.NoError(t, err)

			require.LessOrEqual(t, lo.Cmp(hi), 0)
			require.LessOrEqual(t, new(big.Int).Abs(new(big.Int).Sub(lo, tt.want)).Cmp(tolerance), 0)
			require.LessOrEqual(t, new(big.Int).Abs(new(big.Int).Sub(hi, tt.want)).Cmp(tolerance), 0)
		})
	}
}

func TestCPowMixedExponent(t *testing.T) {
	// 1.5^2.5 = 2.755675960631075...
	exp := bigInt("2500000000000000000")
	got, err := CPow(bigInt("1500000000000000000"), exp, false)
	require.NoError(t, err)

	want := bigInt("2755675960631075360")
	diff := new(big.Int).Abs(new(big.Int).Sub(got, want))
	require.LessOrEqual(t, diff.Cmp(big.NewInt(100_000_000_000)), 0)
}
