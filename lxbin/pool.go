// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/parsdao/lxbin/fixedpoint"
)

// Pool runs liquidity and swap operations against a KVStore. Each mutating
// call buffers its writes and token movements in an overlay that commits
// only when the whole operation succeeds.
//
// A Pool is not safe for concurrent use.
type Pool struct {
	kv      KVStore
	tokens  Tokens
	address common.Address
	auth    Authorizer
	log     log.Logger

	// maxVecLoads bounds the bin vectors one swap may load; zero disables it.
	maxVecLoads int
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pool) {
		p.log = logger
	}
}

// WithAuthorizer sets how [from] arguments are authenticated.
func WithAuthorizer(auth Authorizer) Option {
	return func(p *Pool) {
		p.auth = auth
	}
}

// WithMaxVecLoads bounds the number of bin vectors a swap may load.
func WithMaxVecLoads(n int) Option {
	return func(p *Pool) {
		p.maxVecLoads = n
	}
}

// NewPool creates a pool stored in [kv] whose reserves are held by [address].
func NewPool(kv KVStore, address common.Address, tokens Tokens, opts ...Option) *Pool {
	p := &Pool{
		kv:          kv,
		tokens:      tokens,
		address:     address,
		auth:        AllowAll,
		log:         log.NewTestLogger(log.InfoLevel),
		maxVecLoads: DefaultMaxVecLoads,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Address returns the account holding the pool reserves.
func (p *Pool) Address() common.Address {
	return p.address
}

// update runs [fn] against a fresh overlay and commits it on success.
func (p *Pool) update(op string, fn func(tx *txStore) error) error {
	tx := newTxStore(p.kv)
	if err := fn(tx); err != nil {
		tx.Abort()
		p.log.Warn("lxbin operation aborted", "op", op, "err", err)
		return err
	}
	return tx.Commit()
}

func (p *Pool) store() store {
	return store{kv: p.kv}
}

// Initialize stores the pool config and credits [balances] to the ledger.
// It fails once a config exists.
func (p *Pool) Initialize(cfg PoolConfig, balances ...Allocation) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateAllocations(balances); err != nil {
		return err
	}
	err := p.update("initialize", func(tx *txStore) error {
		s := store{kv: tx}
		exists, err := s.hasConfig()
		if err != nil {
			return err
		}
		if exists {
			return ErrPoolAlreadyInitialized
		}
		if err := s.putConfig(cfg); err != nil {
			return err
		}
		for _, a := range balances {
			if err := (Ledger{}).Mint(tx, a.Token, a.Owner, a.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.log.Info("lxbin pool initialized",
		"tokenX", cfg.TokenX,
		"tokenY", cfg.TokenY,
		"binStep", cfg.BinStep,
		"activeBin", cfg.ActiveBin,
		"fee", cfg.Fee,
		"allocations", len(balances),
	)
	return nil
}

// =========================================================================
// Views
// =========================================================================

// GetConfig returns the pool config.
func (p *Pool) GetConfig() (PoolConfig, error) {
	return p.store().getConfig()
}

// GetBinVec returns the bins of [vecID], defaulted when never written.
func (p *Pool) GetBinVec(vecID int32) (BinVec, error) {
	cfg, err := p.store().getConfig()
	if err != nil {
		return nil, err
	}
	return p.store().getBinVec(vecID, cfg.ActiveBin)
}

// GetSharesVec returns the share supply of the bins of [vecID].
func (p *Pool) GetSharesVec(vecID int32) (ShareVec, error) {
	return p.store().getShareVec(vecID)
}

// GetPosition returns the position or nil when it does not exist.
func (p *Pool) GetPosition(owner common.Address, positionID int32) (*Position, error) {
	return p.store().getPosition(owner, positionID)
}

// GetLiquidityRange returns the vector range that ever held deposits.
func (p *Pool) GetLiquidityRange() (LiquidityRange, error) {
	return p.store().getRange()
}

// GetPositionAmounts values every entry of a position at current reserves,
// as a full withdrawal would pay it out.
func (p *Pool) GetPositionAmounts(owner common.Address, positionID int32) ([]PositionAmount, error) {
	s := p.store()
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}
	pos, err := s.getPosition(owner, positionID)
	if err != nil || pos == nil {
		return nil, err
	}

	cache := vecCache{s: s, activeBin: cfg.ActiveBin}
	amounts := make([]PositionAmount, 0, len(pos.BinShares))
	for _, held := range pos.BinShares {
		if err := cache.load(VecIDForBin(held.BinID)); err != nil {
			return nil, err
		}
		x, y, err := CalculateAmountsForShares(cache.shares.Get(held.BinID), cache.bins.Get(held.BinID), held.Shares)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, PositionAmount{
			BinID:   held.BinID,
			Shares:  held.Shares,
			AmountX: x,
			AmountY: y,
		})
	}
	return amounts, nil
}

// BalanceOf returns the ledger balance of [owner] in [token].
func (p *Pool) BalanceOf(token, owner common.Address) (*big.Int, error) {
	cfg, err := p.store().getConfig()
	if err != nil {
		return nil, err
	}
	if token != cfg.TokenX && token != cfg.TokenY {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, token)
	}
	return Ledger{}.BalanceOf(p.kv, token, owner)
}

// Transfer moves [amount] of a pool token from [from] to [to].
func (p *Pool) Transfer(token, from, to common.Address, amount *big.Int) error {
	if err := p.auth.RequireAuth(from); err != nil {
		return err
	}
	if err := fixedpoint.RequirePositive(amount); err != nil {
		return err
	}
	return p.update("transfer", func(tx *txStore) error {
		cfg, err := store{kv: tx}.getConfig()
		if err != nil {
			return err
		}
		if token != cfg.TokenX && token != cfg.TokenY {
			return fmt.Errorf("%w: %s", ErrUnknownToken, token)
		}
		return p.tokens.Transfer(tx, token, from, to, amount)
	})
}

// PriceAt returns the bin price of [binID], X in units of Y, rounded down.
func (p *Pool) PriceAt(binID int32) (*big.Int, error) {
	cfg, err := p.store().getConfig()
	if err != nil {
		return nil, err
	}
	return PriceFromBin(cfg.BinStep, binID, false)
}

// =========================================================================
// Vector cache
// =========================================================================

// vecCache holds the single bin/share vector pair a liquidity batch works
// on, writing it back before another vector is loaded.
type vecCache struct {
	s         store
	activeBin int32

	vecID  int32
	bins   BinVec
	shares ShareVec
	loaded bool
	dirty  bool
}

func (c *vecCache) load(vecID int32) error {
	if c.loaded && c.vecID == vecID {
		return nil
	}
	if err := c.flush(); err != nil {
		return err
	}
	bins, err := c.s.getBinVec(vecID, c.activeBin)
	if err != nil {
		return err
	}
	shares, err := c.s.getShareVec(vecID)
	if err != nil {
		return err
	}
	c.vecID, c.bins, c.shares = vecID, bins, shares
	c.loaded, c.dirty = true, false
	return nil
}

func (c *vecCache) flush() error {
	if !c.loaded || !c.dirty {
		return nil
	}
	if err := c.s.putBinVec(c.vecID, c.bins, c.activeBin); err != nil {
		return err
	}
	if err := c.s.putShareVec(c.vecID, c.shares); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
