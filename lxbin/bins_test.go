// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVecIDForBin(t *testing.T) {
	tests := []struct {
		bin  int32
		vec  int32
		slot int
	}{
		{0, 0, 0},
		{31, 0, 31},
		{32, 1, 0},
		{-1, -1, 31},
		{-32, -1, 0},
		{-33, -2, 31},
		{-64, -2, 0},
		{math.MaxInt32, math.MaxInt32 / BinVecSize, BinVecSize - 1},
		{math.MinInt32, math.MinInt32 / BinVecSize, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.vec, VecIDForBin(tt.bin), "vec of bin %d", tt.bin)
		require.Equal(t, tt.slot, SlotForBin(tt.bin), "slot of bin %d", tt.bin)
		require.True(t, IsBinInVec(tt.bin, tt.vec))
	}
}

func TestBinDecomposition(t *testing.T) {
	check := func(id int32) {
		got := int64(VecIDForBin(id))*BinVecSize + int64(SlotForBin(id))
		require.Equal(t, int64(id), got, "bin %d", id)
	}
	for id := int32(-1000); id <= 1000; id++ {
		check(id)
	}
	for _, id := range []int32{math.MinInt32, math.MinInt32 + 1, math.MaxInt32 - 1, math.MaxInt32} {
		check(id)
	}
}

func TestDefaultVecs(t *testing.T) {
	for _, vecID := range []int32{-3, 0, 5} {
		bins := DefaultBinVec(vecID)
		shares := DefaultShareVec(vecID)
		require.Len(t, bins, BinVecSize)
		require.Len(t, shares, BinVecSize)
		require.True(t, bins.IsEmpty())
		require.True(t, shares.IsEmpty())
		for i := range bins {
			require.Equal(t, FirstBinInVec(vecID)+int32(i), bins[i].BinID)
			require.Equal(t, bins[i].BinID, shares[i].BinID)
			require.Equal(t, vecID, VecIDForBin(bins[i].BinID))
		}
	}
}

func TestLiquidityRange(t *testing.T) {
	var r LiquidityRange
	require.False(t, r.Contains(0))

	r = r.Extend(2)
	require.Equal(t, LiquidityRange{MinVec: 2, MaxVec: 2, Set: true}, r)
	r = r.Extend(-4).Extend(1)
	require.Equal(t, LiquidityRange{MinVec: -4, MaxVec: 2, Set: true}, r)
	require.True(t, r.Contains(0))
	require.False(t, r.Contains(3))
}
