// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/fixedpoint"
)

// Record sizes
const (
	i128Len      = 16
	shareVecLen  = BinVecSize * i128Len
	configLen    = common.AddressLength*2 + 4 + 4 + 4
	rangeLen     = 4 + 4 + 1
	posEntryLen  = 4 + i128Len
	posHeaderLen = 4
)

var two128 = new(big.Int).Lsh(big.NewInt(1), 128)

// putI128 writes [x] as 16-byte big-endian two's complement.
func putI128(buf []byte, x *big.Int) error {
	if !fixedpoint.FitsI128(x) {
		return fmt.Errorf("%w: %s does not fit in 128 bits", ErrCorruptRecord, x)
	}
	v := new(big.Int).Set(x)
	if v.Sign() < 0 {
		v.Add(v, two128)
	}
	v.FillBytes(buf[:i128Len])
	return nil
}

func readI128(buf []byte) *big.Int {
	v := new(big.Int).SetBytes(buf[:i128Len])
	if buf[0]&0x80 != 0 {
		v.Sub(v, two128)
	}
	return v
}

// encodeBinVec compresses each slot to one value when the side it belongs to
// can be recovered from [activeBin] alone: X-only bins below the active bin,
// Y-only bins above it, and empty bins. Everything else keeps both reserves,
// so a later move of the active bin never changes how a slot decodes.
func encodeBinVec(vec BinVec, activeBin int32) ([]byte, error) {
	buf := make([]byte, 0, BinVecSize*(1+2*i128Len))
	for _, bin := range vec {
		var (
			xZero = bin.ReserveX.Sign() == 0
			yZero = bin.ReserveY.Sign() == 0
		)

		var single *big.Int
		switch {
		case xZero && yZero:
			single = bin.ReserveX
		case yZero && bin.BinID < activeBin:
			single = bin.ReserveX
		case xZero && bin.BinID > activeBin:
			single = bin.ReserveY
		}

		var word [i128Len]byte
		if single != nil {
			if err := putI128(word[:], single); err != nil {
				return nil, err
			}
			buf = append(buf, 1)
			buf = append(buf, word[:]...)
			continue
		}

		buf = append(buf, 2)
		if err := putI128(word[:], bin.ReserveX); err != nil {
			return nil, err
		}
		buf = append(buf, word[:]...)
		if err := putI128(word[:], bin.ReserveY); err != nil {
			return nil, err
		}
		buf = append(buf, word[:]...)
	}
	return buf, nil
}

// decodeBinVec reverses encodeBinVec. A single value belongs to X when the
// bin is at or below [activeBin], to Y otherwise.
func decodeBinVec(data []byte, vecID, activeBin int32) (BinVec, error) {
	vec := DefaultBinVec(vecID)
	off := 0
	for i := range vec {
		if off >= len(data) {
			return nil, fmt.Errorf("%w: bin vector %d truncated at slot %d", ErrCorruptRecord, vecID, i)
		}
		count := int(data[off])
		off++
		if count != 1 && count != 2 {
			return nil, fmt.Errorf("%w: bin vector %d slot %d has %d values", ErrCorruptRecord, vecID, i, count)
		}
		if off+count*i128Len > len(data) {
			return nil, fmt.Errorf("%w: bin vector %d truncated at slot %d", ErrCorruptRecord, vecID, i)
		}

		first := readI128(data[off:])
		off += i128Len
		if count == 2 {
			vec[i].ReserveX = first
			vec[i].ReserveY = readI128(data[off:])
			off += i128Len
			continue
		}
		if vec[i].BinID <= activeBin {
			vec[i].ReserveX = first
		} else {
			vec[i].ReserveY = first
		}
	}
	if off != len(data) {
		return nil, fmt.Errorf("%w: bin vector %d has %d trailing bytes", ErrCorruptRecord, vecID, len(data)-off)
	}
	return vec, nil
}

func encodeShareVec(vec ShareVec) ([]byte, error) {
	buf := make([]byte, shareVecLen)
	for i, s := range vec {
		if err := putI128(buf[i*i128Len:], s.Shares); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func decodeShareVec(data []byte, vecID int32) (ShareVec, error) {
	if len(data) != shareVecLen {
		return nil, fmt.Errorf("%w: share vector %d has %d bytes", ErrCorruptRecord, vecID, len(data))
	}
	vec := DefaultShareVec(vecID)
	for i := range vec {
		vec[i].Shares = readI128(data[i*i128Len:])
	}
	return vec, nil
}

func encodePosition(pos *Position) ([]byte, error) {
	buf := make([]byte, posHeaderLen+len(pos.BinShares)*posEntryLen)
	binary.BigEndian.PutUint32(buf, uint32(len(pos.BinShares)))
	for i, s := range pos.BinShares {
		entry := buf[posHeaderLen+i*posEntryLen:]
		binary.BigEndian.PutUint32(entry, uint32(s.BinID))
		if err := putI128(entry[4:], s.Shares); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func decodePosition(data []byte) (*Position, error) {
	if len(data) < posHeaderLen {
		return nil, fmt.Errorf("%w: position of %d bytes", ErrCorruptRecord, len(data))
	}
	n := int(binary.BigEndian.Uint32(data))
	if len(data) != posHeaderLen+n*posEntryLen {
		return nil, fmt.Errorf("%w: position with %d entries has %d bytes", ErrCorruptRecord, n, len(data))
	}
	pos := &Position{BinShares: make([]BinShares, n)}
	for i := range pos.BinShares {
		entry := data[posHeaderLen+i*posEntryLen:]
		pos.BinShares[i] = BinShares{
			BinID:  int32(binary.BigEndian.Uint32(entry)),
			Shares: readI128(entry[4:]),
		}
	}
	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return pos, nil
}

func encodeConfig(cfg PoolConfig) []byte {
	buf := make([]byte, configLen)
	copy(buf, cfg.TokenX.Bytes())
	copy(buf[common.AddressLength:], cfg.TokenY.Bytes())
	off := common.AddressLength * 2
	binary.BigEndian.PutUint32(buf[off:], cfg.BinStep)
	binary.BigEndian.PutUint32(buf[off+4:], uint32(cfg.ActiveBin))
	binary.BigEndian.PutUint32(buf[off+8:], cfg.Fee)
	return buf
}

func decodeConfig(data []byte) (PoolConfig, error) {
	if len(data) != configLen {
		return PoolConfig{}, fmt.Errorf("%w: config of %d bytes", ErrCorruptRecord, len(data))
	}
	off := common.AddressLength * 2
	return PoolConfig{
		TokenX:    common.BytesToAddress(data[:common.AddressLength]),
		TokenY:    common.BytesToAddress(data[common.AddressLength:off]),
		BinStep:   binary.BigEndian.Uint32(data[off:]),
		ActiveBin: int32(binary.BigEndian.Uint32(data[off+4:])),
		Fee:       binary.BigEndian.Uint32(data[off+8:]),
	}, nil
}

func encodeRange(r LiquidityRange) []byte {
	buf := make([]byte, rangeLen)
	binary.BigEndian.PutUint32(buf, uint32(r.MinVec))
	binary.BigEndian.PutUint32(buf[4:], uint32(r.MaxVec))
	if r.Set {
		buf[8] = 1
	}
	return buf
}

func decodeRange(data []byte) (LiquidityRange, error) {
	if len(data) != rangeLen || data[8] > 1 {
		return LiquidityRange{}, fmt.Errorf("%w: liquidity range of %d bytes", ErrCorruptRecord, len(data))
	}
	return LiquidityRange{
		MinVec: int32(binary.BigEndian.Uint32(data)),
		MaxVec: int32(binary.BigEndian.Uint32(data[4:])),
		Set:    data[8] == 1,
	}, nil
}

// encodeBalance stores a ledger balance as a 32-byte EVM word.
func encodeBalance(amount *big.Int) ([]byte, error) {
	word, overflow := uint256.FromBig(amount)
	if overflow || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: balance %s", ErrCorruptRecord, amount)
	}
	b := word.Bytes32()
	return b[:], nil
}

func decodeBalance(data []byte) (*big.Int, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("%w: balance of %d bytes", ErrCorruptRecord, len(data))
	}
	return new(uint256.Int).SetBytes32(data).ToBig(), nil
}
