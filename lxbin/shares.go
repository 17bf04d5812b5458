// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"math/big"

	"github.com/parsdao/lxbin/fixedpoint"
)

// CalculateSharesToMint returns the shares minted for depositing [inAmount]
// into [bin]. The first depositor is minted 1:1; later deposits are priced
// against reserve_x + reserve_y, floored.
func CalculateSharesToMint(binShares BinShares, bin Bin, inAmount *big.Int) (*big.Int, error) {
	if binShares.Shares.Sign() == 0 {
		return new(big.Int).Set(inAmount), nil
	}
	total, err := fixedpoint.AddI128(bin.ReserveX, bin.ReserveY)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulFloor(inAmount, binShares.Shares, total)
}

// CalculateAmountsForShares returns the reserves redeemed by burning
// [shares] of [bin]: the share ratio is floored at 18 decimals, then each
// reserve is floored.
func CalculateAmountsForShares(binShares BinShares, bin Bin, shares *big.Int) (amountX, amountY *big.Int, err error) {
	ratio, err := fixedpoint.DivFloor(shares, binShares.Shares, fixedpoint.BONE)
	if err != nil {
		return nil, nil, err
	}
	if amountX, err = fixedpoint.MulFloor(ratio, bin.ReserveX, fixedpoint.BONE); err != nil {
		return nil, nil, err
	}
	if amountY, err = fixedpoint.MulFloor(ratio, bin.ReserveY, fixedpoint.BONE); err != nil {
		return nil, nil, err
	}
	return amountX, amountY, nil
}
