// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lxbin implements LXBin (LP-9015), a concentrated-liquidity AMM for
// a single token pair. Liquidity sits in discrete bins on a geometric price
// grid; every bin holds reserves at the fixed price implied by its id.
// Bins are persisted lazily in fixed windows of BinVecSize slots.
package lxbin

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/contract"
	"github.com/parsdao/lxbin/fixedpoint"
)

// LXBinAddress is the LP-aligned precompile address.
// LP-aligned format: 0x0000000000000000000000000000000000LPNUM
const LXBinAddress = "0x0000000000000000000000000000000000009015" // LP-9015 LXBin

// Layout and parameter bounds
const (
	// BinVecSize is the number of bins stored together under one vector id.
	BinVecSize = 32

	// BasisPoints scales BinStep; a step must stay strictly below it.
	BasisPoints = 10_000

	// MaxFee is the largest fee accepted, scaled by fixedpoint.FeeScalar (100%).
	MaxFee = 10_000
)

// Gas costs
const (
	GasModifyBase   uint64 = 20_000 // Batch setup: config, position, first vector
	GasModifyPerArg uint64 = 6_000  // Per batch entry
	GasSwapBase     uint64 = 15_000 // Swap setup and token movements
	GasVecLoad      uint64 = 8_000  // Per bin vector crossed by a swap
	GasSlotWrite    uint64 = 5_000  // Per storage slot written by a mutating call
	GasBalanceOf    uint64 = 2_000  // balanceOf
	GasTransferBase uint64 = 5_000  // transfer
	GasQuoteBase    uint64 = 5_000  // Quote setup
	GasViewVec      uint64 = 4_000  // getBinVec / getSharesVec
	GasViewPosition uint64 = 3_000  // getPosition
	GasViewConfig   uint64 = 1_000  // getConfig
	GasEventEmit    uint64 = 1_500  // Log emission
)

// DefaultMaxVecLoads bounds the vectors a swap may cross when no gas limit applies.
const DefaultMaxVecLoads = 64

// Errors - Liquidity
var (
	ErrEmptyBatch         = errors.New("empty liquidity batch")
	ErrZeroAmount         = errors.New("amount must be positive")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Errors - Swap
var (
	ErrUnknownToken          = errors.New("token not in pool")
	ErrInsufficientOutput    = errors.New("insufficient output amount")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrVecLoadLimit          = errors.New("bin vector load limit reached")
)

// Errors - Pool
var (
	ErrPoolNotInitialized     = errors.New("pool not initialized")
	ErrPoolAlreadyInitialized = errors.New("pool already initialized")
	ErrInvalidBinStep         = errors.New("invalid bin step")
	ErrInvalidFee             = errors.New("invalid fee")
	ErrSameToken              = errors.New("token x and token y must differ")
	ErrInvalidAllocation      = errors.New("invalid initial balance")
)

// Errors - Access and storage
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrCorruptRecord       = errors.New("corrupt storage record")
	ErrReadOnly            = errors.New("state modification in read-only call")
	ErrOutOfGas            = contract.ErrOutOfGas
	ErrInvalidInput        = errors.New("invalid input")
)

// Bin is a single price tick. Below the active bin only ReserveX may be
// nonzero, above it only ReserveY.
type Bin struct {
	BinID    int32
	ReserveX *big.Int
	ReserveY *big.Int
}

// IsEmpty reports whether the bin holds no reserves.
func (b Bin) IsEmpty() bool {
	return b.ReserveX.Sign() == 0 && b.ReserveY.Sign() == 0
}

// BinShares is the total supply of shares of a bin, or a user's holding in it.
type BinShares struct {
	BinID  int32
	Shares *big.Int
}

// BinVec holds BinVecSize consecutive bins; slot s is bin vecID*BinVecSize+s.
type BinVec []Bin

// ShareVec holds the share supply of BinVecSize consecutive bins.
type ShareVec []BinShares

// Position is a user's holdings, ascending by bin id with no zero entries.
type Position struct {
	BinShares []BinShares
}

// PoolConfig is the singleton pool state.
type PoolConfig struct {
	TokenX    common.Address
	TokenY    common.Address
	BinStep   uint32
	ActiveBin int32
	Fee       uint32
}

// Validate checks the static pool parameters.
func (c PoolConfig) Validate() error {
	if c.TokenX == c.TokenY {
		return ErrSameToken
	}
	if c.BinStep == 0 || c.BinStep >= BasisPoints {
		return fmt.Errorf("%w: %d", ErrInvalidBinStep, c.BinStep)
	}
	if c.Fee > MaxFee {
		return fmt.Errorf("%w: %d", ErrInvalidFee, c.Fee)
	}
	return nil
}

// OtherToken returns the counterpart of [token] in the pair.
func (c PoolConfig) OtherToken(token common.Address) (common.Address, error) {
	switch token {
	case c.TokenX:
		return c.TokenY, nil
	case c.TokenY:
		return c.TokenX, nil
	default:
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
}

// Allocation credits a ledger balance when the pool is created.
type Allocation struct {
	Token  common.Address `json:"token"`
	Owner  common.Address `json:"owner"`
	Amount *big.Int       `json:"amount"`
}

// ValidateAllocations checks that every allocation credits a positive
// amount of a ledger-held pool token.
func (c PoolConfig) ValidateAllocations(allocs []Allocation) error {
	for i, a := range allocs {
		if a.Token != c.TokenX && a.Token != c.TokenY {
			return fmt.Errorf("%w: entry %d: %v", ErrInvalidAllocation, i, ErrUnknownToken)
		}
		if a.Token == NativeToken {
			return fmt.Errorf("%w: entry %d credits the native coin", ErrInvalidAllocation, i)
		}
		if a.Amount == nil || a.Amount.Sign() <= 0 || !fixedpoint.FitsI128(a.Amount) {
			return fmt.Errorf("%w: entry %d amount %v", ErrInvalidAllocation, i, a.Amount)
		}
	}
	return nil
}

// SameMarket reports whether [other] describes the same pair, step and fee.
// The active bin is ignored since it moves with every swap.
func (c PoolConfig) SameMarket(other PoolConfig) bool {
	return c.TokenX == other.TokenX &&
		c.TokenY == other.TokenY &&
		c.BinStep == other.BinStep &&
		c.Fee == other.Fee
}

// DepositArgs is one entry of a liquidity batch. For deposits Amount is in
// token units, for removals it is a share count.
type DepositArgs struct {
	IsRemove      bool
	BinIDOrOffset int32
	Amount        *big.Int
}

// LiquidityRange is the closed range of vector ids that ever received a
// deposit. Swaps never walk outside it.
type LiquidityRange struct {
	MinVec int32
	MaxVec int32
	Set    bool
}

// Contains reports whether [vecID] lies inside the range.
func (r LiquidityRange) Contains(vecID int32) bool {
	return r.Set && vecID >= r.MinVec && vecID <= r.MaxVec
}

// Extend widens the range to include [vecID].
func (r LiquidityRange) Extend(vecID int32) LiquidityRange {
	if !r.Set {
		return LiquidityRange{MinVec: vecID, MaxVec: vecID, Set: true}
	}
	if vecID < r.MinVec {
		r.MinVec = vecID
	}
	if vecID > r.MaxVec {
		r.MaxVec = vecID
	}
	return r
}

// PositionAmount values one position entry at current reserves.
type PositionAmount struct {
	BinID   int32
	Shares  *big.Int
	AmountX *big.Int
	AmountY *big.Int
}
