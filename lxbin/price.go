// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/fixedpoint"
)

// PriceFromBin returns (1 + sign(id)*binStep/10_000)^|id| as an 18-decimal
// fixed-point value, the price of X in units of Y at bin [id].
func PriceFromBin(binStep uint32, id int32, roundUp bool) (*big.Int, error) {
	if id == 0 {
		return new(big.Int).Set(fixedpoint.BONE), nil
	}

	step := new(big.Int).Mul(big.NewInt(int64(binStep)), fixedpoint.BONE)
	step.Quo(step, big.NewInt(BasisPoints))

	base := new(big.Int).Set(fixedpoint.BONE)
	n := int64(id)
	if n < 0 {
		base.Sub(base, step)
		n = -n
	} else {
		base.Add(base, step)
	}

	exp := new(big.Int).Mul(big.NewInt(n), fixedpoint.BONE)
	return fixedpoint.CPow(base, exp, roundUp)
}

// PriceFromBinAndToken returns the amount of the other token received per
// unit of [token] at bin [id]: the bin price when paying Y, its floored
// reciprocal when paying X.
func PriceFromBinAndToken(cfg PoolConfig, id int32, token common.Address) (*big.Int, error) {
	switch token {
	case cfg.TokenY:
		return PriceFromBin(cfg.BinStep, id, false)
	case cfg.TokenX:
		price, err := PriceFromBin(cfg.BinStep, id, true)
		if err != nil {
			return nil, err
		}
		return fixedpoint.DivFloor(fixedpoint.BONE, price, fixedpoint.BONE)
	default:
		return nil, ErrUnknownToken
	}
}
