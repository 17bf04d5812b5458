// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"fmt"
	"math"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/fixedpoint"
)

// ModifyLiquidity applies a batch of deposits and removals to the position
// ([from], [positionID]). With [offsetFromActive] every BinIDOrOffset is
// relative to the active bin.
//
// The returned deltas are positive for amounts paid in by [from] and
// negative for amounts paid out to it.
func (p *Pool) ModifyLiquidity(
	from common.Address,
	positionID int32,
	args []DepositArgs,
	offsetFromActive bool,
) (xDelta, yDelta *big.Int, err error) {
	if err := p.auth.RequireAuth(from); err != nil {
		return nil, nil, err
	}
	if len(args) == 0 {
		return nil, nil, ErrEmptyBatch
	}
	for i, arg := range args {
		if arg.Amount == nil || arg.Amount.Sign() <= 0 {
			return nil, nil, fmt.Errorf("%w: batch entry %d", ErrZeroAmount, i)
		}
		if !fixedpoint.FitsI128(arg.Amount) {
			return nil, nil, fmt.Errorf("%w: batch entry %d exceeds 128 bits", ErrInvalidInput, i)
		}
	}

	err = p.update("modifyLiquidity", func(tx *txStore) error {
		xDelta, yDelta, err = p.modifyLiquidity(tx, from, positionID, args, offsetFromActive)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	p.log.Debug("lxbin liquidity modified",
		"from", from,
		"positionID", positionID,
		"entries", len(args),
		"xDelta", xDelta,
		"yDelta", yDelta,
	)
	return xDelta, yDelta, nil
}

func (p *Pool) modifyLiquidity(
	kv KVStore,
	from common.Address,
	positionID int32,
	args []DepositArgs,
	offsetFromActive bool,
) (*big.Int, *big.Int, error) {
	s := store{kv: kv}
	cfg, err := s.getConfig()
	if err != nil {
		return nil, nil, err
	}
	rng, err := s.getRange()
	if err != nil {
		return nil, nil, err
	}
	pos, err := s.getPosition(from, positionID)
	if err != nil {
		return nil, nil, err
	}
	if pos == nil {
		pos = &Position{}
	}

	var binOffset int64
	if offsetFromActive {
		binOffset = int64(cfg.ActiveBin)
	}

	var (
		cache  = vecCache{s: s, activeBin: cfg.ActiveBin}
		xDelta = new(big.Int)
		yDelta = new(big.Int)
	)
	for i, arg := range args {
		id := int64(arg.BinIDOrOffset) + binOffset
		if id < math.MinInt32 || id > math.MaxInt32 {
			return nil, nil, fmt.Errorf("%w: batch entry %d resolves to bin %d", ErrInvalidInput, i, id)
		}
		binID := int32(id)
		vecID := VecIDForBin(binID)
		if err := cache.load(vecID); err != nil {
			return nil, nil, err
		}

		state := binState{
			bin:    cache.bins.Get(binID),
			supply: cache.shares.Get(binID),
			user:   pos.Get(binID),
		}

		var amountX, amountY *big.Int
		if arg.IsRemove {
			amountX, amountY, err = state.withdraw(arg.Amount)
			if err == nil {
				amountX.Neg(amountX)
				amountY.Neg(amountY)
			}
		} else {
			amountX, amountY, err = state.deposit(cfg.ActiveBin, arg.Amount)
			rng = rng.Extend(vecID)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("batch entry %d at bin %d: %w", i, binID, err)
		}

		if xDelta, err = fixedpoint.AddI128(xDelta, amountX); err != nil {
			return nil, nil, err
		}
		if yDelta, err = fixedpoint.AddI128(yDelta, amountY); err != nil {
			return nil, nil, err
		}

		cache.bins.Set(state.bin)
		cache.shares.Set(state.supply)
		cache.dirty = true
		if state.user.Shares.Sign() == 0 {
			pos.Delete(state.user)
		} else {
			pos.Upsert(state.user)
		}
	}

	if err := cache.flush(); err != nil {
		return nil, nil, err
	}
	if err := s.putPosition(from, positionID, pos); err != nil {
		return nil, nil, err
	}
	if rng.Set {
		if err := s.putRange(rng); err != nil {
			return nil, nil, err
		}
	}

	if err := p.settle(kv, cfg.TokenX, from, xDelta); err != nil {
		return nil, nil, err
	}
	if err := p.settle(kv, cfg.TokenY, from, yDelta); err != nil {
		return nil, nil, err
	}
	return xDelta, yDelta, nil
}

// settle moves |delta| of [token] between [user] and the pool: a positive
// delta is paid in by the user, a negative one paid out to it.
func (p *Pool) settle(kv KVStore, token, user common.Address, delta *big.Int) error {
	switch delta.Sign() {
	case 1:
		return p.tokens.Transfer(kv, token, user, p.address, delta)
	case -1:
		return p.tokens.Transfer(kv, token, p.address, user, new(big.Int).Neg(delta))
	default:
		return nil
	}
}

// binState is one bin together with its share supply and the caller's holding.
type binState struct {
	bin    Bin
	supply BinShares
	user   BinShares
}

// deposit adds [amount] to the bin and mints shares to the user.
func (b *binState) deposit(activeBin int32, amount *big.Int) (amountX, amountY *big.Int, err error) {
	amountX, amountY, err = splitDeposit(b.bin, activeBin, amount)
	if err != nil {
		return nil, nil, err
	}
	minted, err := CalculateSharesToMint(b.supply, b.bin, amount)
	if err != nil {
		return nil, nil, err
	}
	if minted.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: deposit of %s mints no shares", ErrZeroAmount, amount)
	}

	if b.bin.ReserveX, err = fixedpoint.AddI128(b.bin.ReserveX, amountX); err != nil {
		return nil, nil, err
	}
	if b.bin.ReserveY, err = fixedpoint.AddI128(b.bin.ReserveY, amountY); err != nil {
		return nil, nil, err
	}
	if b.supply.Shares, err = fixedpoint.AddI128(b.supply.Shares, minted); err != nil {
		return nil, nil, err
	}
	if b.user.Shares, err = fixedpoint.AddI128(b.user.Shares, minted); err != nil {
		return nil, nil, err
	}
	return amountX, amountY, nil
}

// withdraw burns [shares] of the user's holding and returns the reserves
// they redeem.
func (b *binState) withdraw(shares *big.Int) (amountX, amountY *big.Int, err error) {
	if b.user.Shares.Cmp(shares) < 0 {
		return nil, nil, fmt.Errorf("%w: holds %s, burning %s", ErrInsufficientShares, b.user.Shares, shares)
	}
	amountX, amountY, err = CalculateAmountsForShares(b.supply, b.bin, shares)
	if err != nil {
		return nil, nil, err
	}

	if b.bin.ReserveX, err = fixedpoint.SubI128(b.bin.ReserveX, amountX); err != nil {
		return nil, nil, err
	}
	if b.bin.ReserveY, err = fixedpoint.SubI128(b.bin.ReserveY, amountY); err != nil {
		return nil, nil, err
	}
	if b.supply.Shares, err = fixedpoint.SubI128(b.supply.Shares, shares); err != nil {
		return nil, nil, err
	}
	if b.user.Shares, err = fixedpoint.SubI128(b.user.Shares, shares); err != nil {
		return nil, nil, err
	}
	return amountX, amountY, nil
}

// splitDeposit divides a deposit between the two reserves. Bins below the
// active bin take X, bins above take Y, and the active bin takes both in
// proportion to its reserves (half and half when empty, X rounded down).
func splitDeposit(bin Bin, activeBin int32, amount *big.Int) (amountX, amountY *big.Int, err error) {
	switch {
	case bin.BinID < activeBin:
		return new(big.Int).Set(amount), new(big.Int), nil
	case bin.BinID > activeBin:
		return new(big.Int), new(big.Int).Set(amount), nil
	}

	total, err := fixedpoint.AddI128(bin.ReserveX, bin.ReserveY)
	if err != nil {
		return nil, nil, err
	}
	if total.Sign() == 0 {
		amountX = new(big.Int).Quo(amount, big.NewInt(2))
	} else if amountX, err = fixedpoint.MulFloor(amount, bin.ReserveX, total); err != nil {
		return nil, nil, err
	}
	return amountX, new(big.Int).Sub(amount, amountX), nil
}
