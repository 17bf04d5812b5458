// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/parsdao/lxbin/lxbin"
)

var poolAddress = common.HexToAddress(lxbin.LXBinAddress)

// simulator runs a scenario against a pool kept in memory.
type simulator struct {
	scenario *Scenario
	cfg      lxbin.PoolConfig
	db       database.Database
	pool     *lxbin.Pool
	out      io.Writer
	log      log.Logger
}

func newSimulator(s *Scenario, out io.Writer, logger log.Logger) (*simulator, error) {
	cfg, err := s.PoolConfig()
	if err != nil {
		return nil, err
	}

	db := memdb.New()
	pool := lxbin.NewPool(db, poolAddress, lxbin.Ledger{}, lxbin.WithLogger(logger))
	if err := pool.Initialize(cfg); err != nil {
		return nil, err
	}

	sim := &simulator{
		scenario: s,
		cfg:      cfg,
		db:       db,
		pool:     pool,
		out:      out,
		log:      logger,
	}
	for _, b := range s.Balances {
		if err := sim.mint(b); err != nil {
			return nil, fmt.Errorf("balance of %s: %w", b.Owner, err)
		}
	}
	return sim, nil
}

func (s *simulator) mint(b Balance) error {
	owner, err := s.scenario.Address(b.Owner)
	if err != nil {
		return err
	}
	for _, side := range []struct {
		token    common.Address
		amount   string
		decimals int32
	}{
		{s.cfg.TokenX, b.X, s.scenario.Decimals.X},
		{s.cfg.TokenY, b.Y, s.scenario.Decimals.Y},
	} {
		amount, err := parseAmount(side.amount, side.decimals)
		if err != nil {
			return err
		}
		if amount.Sign() == 0 {
			continue
		}
		if err := (lxbin.Ledger{}).Mint(s.db, side.token, owner, amount); err != nil {
			return err
		}
	}
	return nil
}

// Run executes every step in order and stops at the first failure.
func (s *simulator) Run() error {
	for i, step := range s.scenario.Steps {
		var err error
		switch {
		case step.Modify != nil:
			err = s.modify(step.Modify)
		case step.Swap != nil:
			err = s.swap(step.Swap)
		case step.Quote != nil:
			err = s.quote(step.Quote)
		case step.Dump != nil:
			err = s.dump(step.Dump)
		}
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return s.summary()
}

func (s *simulator) modify(m *ModifyStep) error {
	from, err := s.scenario.Address(m.From)
	if err != nil {
		return err
	}
	args := make([]lxbin.DepositArgs, len(m.Entries))
	for i, e := range m.Entries {
		amount, err := parseAmount(e.Amount, 0)
		if err != nil {
			return err
		}
		args[i] = lxbin.DepositArgs{IsRemove: e.Remove, BinIDOrOffset: e.Bin, Amount: amount}
	}

	xDelta, yDelta, err := s.pool.ModifyLiquidity(from, m.Position, args, m.OffsetFromActive)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "modify %s#%d: x %s, y %s\n",
		m.From, m.Position,
		formatAmount(xDelta, s.scenario.Decimals.X),
		formatAmount(yDelta, s.scenario.Decimals.Y),
	)
	return nil
}

// side resolves "x" or "y" to a token and its decimals.
func (s *simulator) side(name string) (common.Address, int32, int32, error) {
	switch strings.ToLower(name) {
	case "x":
		return s.cfg.TokenX, s.scenario.Decimals.X, s.scenario.Decimals.Y, nil
	case "y":
		return s.cfg.TokenY, s.scenario.Decimals.Y, s.scenario.Decimals.X, nil
	default:
		return common.Address{}, 0, 0, fmt.Errorf("%w: %q", errBadSide, name)
	}
}

func (s *simulator) swap(w *SwapStep) error {
	from, err := s.scenario.Address(w.From)
	if err != nil {
		return err
	}
	token, inDecimals, outDecimals, err := s.side(w.In)
	if err != nil {
		return err
	}
	amount, err := parseAmount(w.Amount, inDecimals)
	if err != nil {
		return err
	}
	minOut, err := parseAmount(w.MinOut, outDecimals)
	if err != nil {
		return err
	}

	out, err := s.pool.SwapExactAmountIn(from, amount, minOut, token)
	if err != nil {
		return err
	}
	cfg, err := s.pool.GetConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "swap %s: %s %s in, %s out, active bin %d\n",
		w.From, formatAmount(amount, inDecimals), strings.ToLower(w.In),
		formatAmount(out, outDecimals), cfg.ActiveBin,
	)
	return nil
}

func (s *simulator) quote(q *QuoteStep) error {
	token, inDecimals, outDecimals, err := s.side(q.In)
	if err != nil {
		return err
	}
	amount, err := parseAmount(q.Amount, inDecimals)
	if err != nil {
		return err
	}
	out, active, err := s.pool.QuoteExactAmountIn(amount, token)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "quote: %s %s in, %s out, active bin %d\n",
		formatAmount(amount, inDecimals), strings.ToLower(q.In),
		formatAmount(out, outDecimals), active,
	)
	return nil
}

func (s *simulator) dump(d *DumpStep) error {
	if d.From > d.To {
		return fmt.Errorf("empty bin range [%d, %d]", d.From, d.To)
	}
	cfg, err := s.pool.GetConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(s.out, "%8s  %12s  %16s  %16s  %16s\n", "bin", "price", "reserve_x", "reserve_y", "shares")
	var (
		bins   lxbin.BinVec
		shares lxbin.ShareVec
		vecID  int32
	)
	for id := int64(d.From); id <= int64(d.To); id++ {
		binID := int32(id)
		if bins == nil || lxbin.VecIDForBin(binID) != vecID {
			vecID = lxbin.VecIDForBin(binID)
			if bins, err = s.pool.GetBinVec(vecID); err != nil {
				return err
			}
			if shares, err = s.pool.GetSharesVec(vecID); err != nil {
				return err
			}
		}
		price, err := s.pool.PriceAt(binID)
		if err != nil {
			return err
		}
		bin := bins.Get(binID)
		marker := " "
		if binID == cfg.ActiveBin {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%7d%s  %12s  %16s  %16s  %16s\n",
			binID, marker, formatPrice(price),
			formatAmount(bin.ReserveX, s.scenario.Decimals.X),
			formatAmount(bin.ReserveY, s.scenario.Decimals.Y),
			shares.Get(binID).Shares.String(),
		)
	}

	if d.Owner == "" {
		return nil
	}
	owner, err := s.scenario.Address(d.Owner)
	if err != nil {
		return err
	}
	amounts, err := s.pool.GetPositionAmounts(owner, d.Position)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "position %s#%d:\n", d.Owner, d.Position)
	for _, a := range amounts {
		fmt.Fprintf(s.out, "  bin %d: %s shares, redeemable x %s, y %s\n",
			a.BinID, a.Shares.String(),
			formatAmount(a.AmountX, s.scenario.Decimals.X),
			formatAmount(a.AmountY, s.scenario.Decimals.Y),
		)
	}
	return nil
}

// summary prints the final active bin and the balances of every funded owner.
func (s *simulator) summary() error {
	cfg, err := s.pool.GetConfig()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "active bin %d\n", cfg.ActiveBin)

	owners := []string{"pool"}
	for _, b := range s.scenario.Balances {
		owners = append(owners, b.Owner)
	}
	for _, name := range owners {
		addr := poolAddress
		if name != "pool" {
			if addr, err = s.scenario.Address(name); err != nil {
				return err
			}
		}
		x, err := s.balance(s.cfg.TokenX, addr)
		if err != nil {
			return err
		}
		y, err := s.balance(s.cfg.TokenY, addr)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "balance %s: x %s, y %s\n",
			name, formatAmount(x, s.scenario.Decimals.X), formatAmount(y, s.scenario.Decimals.Y))
	}
	return nil
}

func (s *simulator) balance(token, owner common.Address) (*big.Int, error) {
	return lxbin.Ledger{}.BalanceOf(s.db, token, owner)
}
