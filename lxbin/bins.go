// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import "math/big"

// VecIDForBin returns the vector holding [binID], rounding toward negative
// infinity so that bins -32..-1 live in vector -1.
func VecIDForBin(binID int32) int32 {
	id := int64(binID)
	vec := id / BinVecSize
	if id%BinVecSize != 0 && id < 0 {
		vec--
	}
	return int32(vec)
}

// SlotForBin returns the index of [binID] inside its vector.
func SlotForBin(binID int32) int {
	return int((int64(binID)%BinVecSize + BinVecSize) % BinVecSize)
}

// FirstBinInVec returns the bin id stored at slot 0 of [vecID].
func FirstBinInVec(vecID int32) int32 {
	return vecID * BinVecSize
}

// IsBinInVec reports whether [binID] belongs to vector [vecID].
func IsBinInVec(binID, vecID int32) bool {
	return VecIDForBin(binID) == vecID
}

// DefaultBinVec returns an empty vector with bin ids assigned.
func DefaultBinVec(vecID int32) BinVec {
	first := FirstBinInVec(vecID)
	vec := make(BinVec, BinVecSize)
	for i := range vec {
		vec[i] = Bin{
			BinID:    first + int32(i),
			ReserveX: new(big.Int),
			ReserveY: new(big.Int),
		}
	}
	return vec
}

// DefaultShareVec returns a zero share vector with bin ids assigned.
func DefaultShareVec(vecID int32) ShareVec {
	first := FirstBinInVec(vecID)
	vec := make(ShareVec, BinVecSize)
	for i := range vec {
		vec[i] = BinShares{BinID: first + int32(i), Shares: new(big.Int)}
	}
	return vec
}

// Get returns the bin [binID]; the caller must have loaded its vector.
func (v BinVec) Get(binID int32) Bin {
	return v[SlotForBin(binID)]
}

// Set stores [bin] at its slot.
func (v BinVec) Set(bin Bin) {
	v[SlotForBin(bin.BinID)] = bin
}

// IsEmpty reports whether no bin of the vector holds reserves.
func (v BinVec) IsEmpty() bool {
	for _, bin := range v {
		if !bin.IsEmpty() {
			return false
		}
	}
	return true
}

func (v ShareVec) Get(binID int32) BinShares {
	return v[SlotForBin(binID)]
}

func (v ShareVec) Set(shares BinShares) {
	v[SlotForBin(shares.BinID)] = shares
}

// IsEmpty reports whether every bin of the vector has zero share supply.
func (v ShareVec) IsEmpty() bool {
	for _, s := range v {
		if s.Shares.Sign() != 0 {
			return false
		}
	}
	return true
}
