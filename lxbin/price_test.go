// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parsdao/lxbin/fixedpoint"
)

func TestPriceFromBin(t *testing.T) {
	zero, err := PriceFromBin(10, 0, false)
	require.NoError(t, err)
	require.Equal(t, fixedpoint.BONE.String(), zero.String())

	up, err := PriceFromBin(10, 1, false)
	require.NoError(t, err)
	require.Equal(t, "1001000000000000000", up.String())

	down, err := PriceFromBin(10, -1, false)
	require.NoError(t, err)
	require.Equal(t, "999000000000000000", down.String())

	two, err := PriceFromBin(10, 2, false)
	require.NoError(t, err)
	require.Equal(t, "1002001000000000000", two.String())
}

func TestPriceMonotonic(t *testing.T) {
	for _, step := range []uint32{1, 10, 100} {
		prev, err := PriceFromBin(step, -300, false)
		require.NoError(t, err)
		for id := int32(-299); id <= 300; id++ {
			price, err := PriceFromBin(step, id, false)
			require.NoError(t, err)
			require.Positive(t, price.Cmp(prev), "step %d bin %d", step, id)
			prev = price
		}
	}
}

func TestPriceFromBinAndToken(t *testing.T) {
	cfg := testConfig()
	for _, id := range []int32{-500, -37, -1, 0, 1, 42, 500} {
		raw, err := PriceFromBin(cfg.BinStep, id, false)
		require.NoError(t, err)

		yIn, err := PriceFromBinAndToken(cfg, id, tokenY)
		require.NoError(t, err)
		require.Zero(t, raw.Cmp(yIn))

		// Selling X pays the floored reciprocal of the rounded-up price, so
		// a round trip never returns more than it started with.
		xIn, err := PriceFromBinAndToken(cfg, id, tokenX)
		require.NoError(t, err)
		product, err := fixedpoint.MulFloor(xIn, raw, fixedpoint.BONE)
		require.NoError(t, err)
		require.LessOrEqual(t, product.Cmp(fixedpoint.BONE), 0, "bin %d", id)

		slack := new(big.Int).Sub(fixedpoint.BONE, product)
		require.LessOrEqual(t, slack.Cmp(big.NewInt(1_000_000_000)), 0, "bin %d slack %s", id, slack)
	}

	_, err := PriceFromBinAndToken(cfg, 0, bob)
	require.ErrorIs(t, err, ErrUnknownToken)
}
