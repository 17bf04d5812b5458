// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/lxbin/fixedpoint"
)

// sampleVec builds vector 0 around [active]: X below, Y above, both at it.
func sampleVec(active int32) BinVec {
	vec := DefaultBinVec(0)
	for i := range vec {
		id := vec[i].BinID
		switch {
		case id < active && id%3 != 0:
			vec[i].ReserveX = big.NewInt(int64(id+1) * 1_000)
		case id > active && id%4 != 0:
			vec[i].ReserveY = big.NewInt(int64(id+1) * 7_000)
		case id == active:
			vec[i].ReserveX = big.NewInt(11)
			vec[i].ReserveY = big.NewInt(13)
		}
	}
	return vec
}

func requireVecEqual(t *testing.T, want, got BinVec) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].BinID, got[i].BinID)
		require.Zero(t, want[i].ReserveX.Cmp(got[i].ReserveX), "bin %d x", want[i].BinID)
		require.Zero(t, want[i].ReserveY.Cmp(got[i].ReserveY), "bin %d y", want[i].BinID)
	}
}

func TestBinVecRoundTrip(t *testing.T) {
	for _, active := range []int32{-5, 0, 7, 31, 40} {
		vec := sampleVec(active)
		data, err := encodeBinVec(vec, active)
		require.NoError(t, err)
		got, err := decodeBinVec(data, 0, active)
		require.NoError(t, err)
		requireVecEqual(t, vec, got)
	}
}

func TestBinVecSingleValueSlots(t *testing.T) {
	vec := sampleVec(7)
	data, err := encodeBinVec(vec, 7)
	require.NoError(t, err)

	// Only the active bin keeps both reserves.
	require.Len(t, data, BinVecSize*(1+i128Len)+i128Len)
}

func TestBinVecActiveMove(t *testing.T) {
	// The active bin drained of Y becomes an X-only bin below the new
	// active bin, and the next bin holds both sides.
	vec := sampleVec(7)
	vec[7].ReserveY = new(big.Int)
	vec[8].ReserveX = big.NewInt(99)

	data, err := encodeBinVec(vec, 8)
	require.NoError(t, err)
	got, err := decodeBinVec(data, 0, 8)
	require.NoError(t, err)
	requireVecEqual(t, vec, got)

	// Slots stored with both values decode the same for any active bin.
	both := DefaultBinVec(0)
	both[3].ReserveX = big.NewInt(5)
	both[3].ReserveY = big.NewInt(6)
	data, err = encodeBinVec(both, 3)
	require.NoError(t, err)
	for _, active := range []int32{-10, 3, 50} {
		got, err := decodeBinVec(data, 0, active)
		require.NoError(t, err)
		requireVecEqual(t, both, got)
	}
}

func TestBinVecRejectsWideReserve(t *testing.T) {
	vec := DefaultBinVec(-1)
	vec[0].ReserveX = new(big.Int).Add(fixedpoint.MaxI128, big.NewInt(1))
	_, err := encodeBinVec(vec, 0)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestBinVecCorrupt(t *testing.T) {
	data, err := encodeBinVec(sampleVec(3), 3)
	require.NoError(t, err)

	_, err = decodeBinVec(data[:len(data)-1], 0, 3)
	require.ErrorIs(t, err, ErrCorruptRecord)

	_, err = decodeBinVec(append(append([]byte{}, data...), 0), 0, 3)
	require.ErrorIs(t, err, ErrCorruptRecord)

	bad := append([]byte{}, data...)
	bad[0] = 3
	_, err = decodeBinVec(bad, 0, 3)
	require.ErrorIs(t, err, ErrCorruptRecord)

	_, err = decodeBinVec(nil, 0, 3)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestI128TwosComplement(t *testing.T) {
	for _, v := range []*big.Int{
		big.NewInt(0),
		big.NewInt(-1),
		big.NewInt(123456789),
		fixedpoint.MaxI128,
		fixedpoint.MinI128,
	} {
		var buf [i128Len]byte
		require.NoError(t, putI128(buf[:], v))
		require.Zero(t, v.Cmp(readI128(buf[:])), "value %s", v)
	}
}

func TestShareVecRoundTrip(t *testing.T) {
	vec := DefaultShareVec(-2)
	vec[0].Shares = big.NewInt(1)
	vec[31].Shares = new(big.Int).Set(fixedpoint.MaxI128)

	data, err := encodeShareVec(vec)
	require.NoError(t, err)
	got, err := decodeShareVec(data, -2)
	require.NoError(t, err)
	for i := range vec {
		require.Equal(t, vec[i].BinID, got[i].BinID)
		require.Zero(t, vec[i].Shares.Cmp(got[i].Shares))
	}

	_, err = decodeShareVec(data[1:], -2)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestPositionRoundTrip(t *testing.T) {
	pos := &Position{BinShares: []BinShares{
		{BinID: -40, Shares: big.NewInt(5)},
		{BinID: 0, Shares: big.NewInt(1_000_000)},
		{BinID: 77, Shares: big.NewInt(3)},
	}}
	data, err := encodePosition(pos)
	require.NoError(t, err)
	got, err := decodePosition(data)
	require.NoError(t, err)
	require.Equal(t, pos, got)

	_, err = decodePosition(data[:5])
	require.ErrorIs(t, err, ErrCorruptRecord)

	unordered := &Position{BinShares: []BinShares{
		{BinID: 2, Shares: big.NewInt(1)},
		{BinID: 1, Shares: big.NewInt(1)},
	}}
	data, err = encodePosition(unordered)
	require.NoError(t, err)
	_, err = decodePosition(data)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestConfigAndRangeRoundTrip(t *testing.T) {
	cfg := PoolConfig{
		TokenX:    common.HexToAddress("0x01"),
		TokenY:    common.HexToAddress("0x02"),
		BinStep:   25,
		ActiveBin: -123_456,
		Fee:       30,
	}
	got, err := decodeConfig(encodeConfig(cfg))
	require.NoError(t, err)
	require.Equal(t, cfg, got)

	_, err = decodeConfig(make([]byte, configLen-1))
	require.ErrorIs(t, err, ErrCorruptRecord)

	rng := LiquidityRange{MinVec: -9, MaxVec: 4, Set: true}
	gotRange, err := decodeRange(encodeRange(rng))
	require.NoError(t, err)
	require.Equal(t, rng, gotRange)

	bad := encodeRange(rng)
	bad[8] = 2
	_, err = decodeRange(bad)
	require.ErrorIs(t, err, ErrCorruptRecord)
}

func TestBalanceEncoding(t *testing.T) {
	amount, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	data, err := encodeBalance(amount)
	require.NoError(t, err)
	require.Len(t, data, 32)
	got, err := decodeBalance(data)
	require.NoError(t, err)
	require.Zero(t, amount.Cmp(got))

	_, err = encodeBalance(big.NewInt(-1))
	require.ErrorIs(t, err, ErrCorruptRecord)
	_, err = decodeBalance(data[:31])
	require.ErrorIs(t, err, ErrCorruptRecord)
}
