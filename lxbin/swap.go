// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/fixedpoint"
)

// swapResult is the outcome of a bin walk.
type swapResult struct {
	amountOut *big.Int
	activeBin int32
	vecLoads  int
}

// SwapExactAmountIn sells [amountIn] of [inToken] for the other token,
// walking bins away from the active bin until the input is spent.
func (p *Pool) SwapExactAmountIn(
	from common.Address,
	amountIn *big.Int,
	minAmountOut *big.Int,
	inToken common.Address,
) (*big.Int, error) {
	res, err := p.swapExactAmountIn(from, amountIn, minAmountOut, inToken)
	if err != nil {
		return nil, err
	}
	return res.amountOut, nil
}

func (p *Pool) swapExactAmountIn(
	from common.Address,
	amountIn *big.Int,
	minAmountOut *big.Int,
	inToken common.Address,
) (swapResult, error) {
	if err := p.auth.RequireAuth(from); err != nil {
		return swapResult{}, err
	}
	if err := validateSwapAmounts(amountIn, minAmountOut); err != nil {
		return swapResult{}, err
	}

	var res swapResult
	err := p.update("swap", func(tx *txStore) error {
		s := store{kv: tx}
		cfg, err := s.getConfig()
		if err != nil {
			return err
		}
		outToken, err := cfg.OtherToken(inToken)
		if err != nil {
			return err
		}

		if err := p.tokens.Transfer(tx, inToken, from, p.address, amountIn); err != nil {
			return err
		}
		if res, err = p.walk(s, cfg, amountIn, inToken); err != nil {
			return err
		}
		if res.amountOut.Cmp(minAmountOut) < 0 {
			return fmt.Errorf("%w: got %s, want at least %s", ErrInsufficientOutput, res.amountOut, minAmountOut)
		}
		if res.amountOut.Sign() == 0 {
			return nil
		}
		return p.tokens.Transfer(tx, outToken, p.address, from, res.amountOut)
	})
	if err != nil {
		return swapResult{}, err
	}

	p.log.Debug("lxbin swap",
		"from", from,
		"inToken", inToken,
		"amountIn", amountIn,
		"amountOut", res.amountOut,
		"activeBin", res.activeBin,
		"vecLoads", res.vecLoads,
	)
	return res, nil
}

// QuoteExactAmountIn runs the swap walk without persisting anything or
// moving tokens. It returns the output and the active bin afterwards.
func (p *Pool) QuoteExactAmountIn(amountIn *big.Int, inToken common.Address) (*big.Int, int32, error) {
	res, err := p.quoteExactAmountIn(amountIn, inToken)
	if err != nil {
		return nil, 0, err
	}
	return res.amountOut, res.activeBin, nil
}

func (p *Pool) quoteExactAmountIn(amountIn *big.Int, inToken common.Address) (swapResult, error) {
	if err := validateSwapAmounts(amountIn, new(big.Int)); err != nil {
		return swapResult{}, err
	}

	tx := newTxStore(p.kv)
	defer tx.Abort()

	s := store{kv: tx}
	cfg, err := s.getConfig()
	if err != nil {
		return swapResult{}, err
	}
	if _, err := cfg.OtherToken(inToken); err != nil {
		return swapResult{}, err
	}
	return p.walk(s, cfg, amountIn, inToken)
}

func validateSwapAmounts(amountIn, minAmountOut *big.Int) error {
	if err := fixedpoint.RequirePositive(amountIn); err != nil {
		return fmt.Errorf("amount in: %w", err)
	}
	if err := fixedpoint.RequireNonNegative(minAmountOut); err != nil {
		return fmt.Errorf("min amount out: %w", err)
	}
	if !fixedpoint.FitsI128(amountIn) || !fixedpoint.FitsI128(minAmountOut) {
		return fmt.Errorf("%w: swap amount exceeds 128 bits", ErrInvalidInput)
	}
	return nil
}

// walk consumes [amountIn] bin by bin. X in walks up toward higher bins,
// Y in walks down. Every bin that pays out becomes the candidate active bin;
// the touched vectors and the config are written once the walk ends so the
// vectors are encoded against the final active bin.
func (p *Pool) walk(s store, cfg PoolConfig, amountIn *big.Int, inToken common.Address) (swapResult, error) {
	rng, err := s.getRange()
	if err != nil {
		return swapResult{}, err
	}

	var (
		isXIn     = inToken == cfg.TokenX
		step      = int32(1)
		remaining = fixedpoint.Upscale(amountIn, fixedpoint.BONE)
		amountOut = new(big.Int)
		fee       = fixedpoint.Upscale(big.NewInt(int64(cfg.Fee)), fixedpoint.FeeScalar)
		curBin    = cfg.ActiveBin
		vecID     = VecIDForBin(cfg.ActiveBin)
		slot      = SlotForBin(cfg.ActiveBin)
		touched   []int32
		vecs      = make(map[int32]BinVec)
	)
	if !isXIn {
		step = -1
	}

	for {
		if !rng.Set {
			return swapResult{}, ErrInsufficientLiquidity
		}
		// Vectors outside the deposit range are empty: skip ahead to the
		// range or stop once past it.
		switch {
		case step > 0 && vecID > rng.MaxVec, step < 0 && vecID < rng.MinVec:
			return swapResult{}, fmt.Errorf("%w: %s of input left past bin %d", ErrInsufficientLiquidity, remaining, curBin)
		case step > 0 && vecID < rng.MinVec:
			vecID, slot = rng.MinVec, 0
		case step < 0 && vecID > rng.MaxVec:
			vecID, slot = rng.MaxVec, BinVecSize-1
		}
		if p.maxVecLoads > 0 && len(touched) >= p.maxVecLoads {
			return swapResult{}, fmt.Errorf("%w: %d vectors", ErrVecLoadLimit, len(touched))
		}

		vec, err := s.getBinVec(vecID, cfg.ActiveBin)
		if err != nil {
			return swapResult{}, err
		}
		touched = append(touched, vecID)
		vecs[vecID] = vec

		for i := slot; i >= 0 && i < BinVecSize; i += int(step) {
			bin := vec[i]
			outReserve, inReserve := bin.ReserveY, bin.ReserveX
			if !isXIn {
				outReserve, inReserve = bin.ReserveX, bin.ReserveY
			}
			if outReserve.Sign() == 0 {
				continue
			}
			curBin = bin.BinID

			price, err := PriceFromBinAndToken(cfg, bin.BinID, inToken)
			if err != nil {
				return swapResult{}, err
			}
			if cfg.Fee != 0 {
				cut, err := fixedpoint.MulCeil(price, fee, fixedpoint.BONE)
				if err != nil {
					return swapResult{}, err
				}
				if price, err = fixedpoint.Sub(price, cut); err != nil {
					return swapResult{}, err
				}
			}

			potentialOut, err := fixedpoint.MulFloor(price, remaining, fixedpoint.BONE)
			if err != nil {
				return swapResult{}, err
			}
			avail := fixedpoint.Upscale(outReserve, fixedpoint.BONE)

			var inAdded *big.Int
			if potentialOut.Cmp(avail) <= 0 {
				// The input completes in this bin.
				if amountOut, err = fixedpoint.Add(amountOut, potentialOut); err != nil {
					return swapResult{}, err
				}
				if inAdded, err = fixedpoint.DownscaleFloor(remaining, fixedpoint.BONE); err != nil {
					return swapResult{}, err
				}
				left, err := fixedpoint.Sub(avail, potentialOut)
				if err != nil {
					return swapResult{}, err
				}
				if outReserve, err = fixedpoint.DownscaleCeil(left, fixedpoint.BONE); err != nil {
					return swapResult{}, err
				}
				remaining = new(big.Int)
			} else {
				// The bin is exhausted.
				if amountOut, err = fixedpoint.Add(amountOut, avail); err != nil {
					return swapResult{}, err
				}
				ratio, err := fixedpoint.DivFloor(avail, potentialOut, fixedpoint.BONE)
				if err != nil {
					return swapResult{}, err
				}
				consumed, err := fixedpoint.MulCeil(ratio, remaining, fixedpoint.BONE)
				if err != nil {
					return swapResult{}, err
				}
				if remaining, err = fixedpoint.Sub(remaining, consumed); err != nil {
					return swapResult{}, err
				}
				if inAdded, err = fixedpoint.DownscaleCeil(consumed, fixedpoint.BONE); err != nil {
					return swapResult{}, err
				}
				outReserve = new(big.Int)
			}

			if inReserve, err = fixedpoint.AddI128(inReserve, inAdded); err != nil {
				return swapResult{}, err
			}
			if isXIn {
				bin.ReserveX, bin.ReserveY = inReserve, outReserve
			} else {
				bin.ReserveX, bin.ReserveY = outReserve, inReserve
			}
			vec[i] = bin

			if remaining.Sign() == 0 {
				break
			}
		}

		if remaining.Sign() == 0 {
			break
		}
		vecID += step
		if step > 0 {
			slot = 0
		} else {
			slot = BinVecSize - 1
		}
	}

	for _, id := range touched {
		if err := s.putBinVec(id, vecs[id], curBin); err != nil {
			return swapResult{}, err
		}
	}
	cfg.ActiveBin = curBin
	if err := s.putConfig(cfg); err != nil {
		return swapResult{}, err
	}

	out, err := fixedpoint.DownscaleFloor(amountOut, fixedpoint.BONE)
	if err != nil {
		return swapResult{}, err
	}
	return swapResult{amountOut: out, activeBin: curBin, vecLoads: len(touched)}, nil
}
