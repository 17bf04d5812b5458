// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/luxfi/geth/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/parsdao/lxbin/lxbin"
)

var (
	errBadStep    = errors.New("step must set exactly one action")
	errBadAddress = errors.New("invalid address")
	errBadAmount  = errors.New("invalid amount")
	errBadSide    = errors.New("token side must be x or y")
)

// Scenario is a YAML simulation script.
type Scenario struct {
	Pool struct {
		TokenX    string `yaml:"token_x"`
		TokenY    string `yaml:"token_y"`
		BinStep   uint32 `yaml:"bin_step"`
		ActiveBin int32  `yaml:"active_bin"`
		Fee       uint32 `yaml:"fee"`
	} `yaml:"pool"`

	// Decimals scale the human-readable amounts of each token.
	Decimals struct {
		X int32 `yaml:"x"`
		Y int32 `yaml:"y"`
	} `yaml:"decimals"`

	Accounts map[string]string `yaml:"accounts"`
	Balances []Balance         `yaml:"balances"`
	Steps    []Step            `yaml:"steps"`
}

// Balance mints initial ledger funds.
type Balance struct {
	Owner string `yaml:"owner"`
	X     string `yaml:"x"`
	Y     string `yaml:"y"`
}

// Step is one action; exactly one field is set.
type Step struct {
	Modify *ModifyStep `yaml:"modify"`
	Swap   *SwapStep   `yaml:"swap"`
	Quote  *QuoteStep  `yaml:"quote"`
	Dump   *DumpStep   `yaml:"dump"`
}

type ModifyStep struct {
	From             string       `yaml:"from"`
	Position         int32        `yaml:"position"`
	OffsetFromActive bool         `yaml:"offset_from_active"`
	Entries          []ModifyArgs `yaml:"entries"`
}

// ModifyArgs is one batch entry. Amounts are raw units: a deposit may span
// both tokens at the active bin and a removal counts shares.
type ModifyArgs struct {
	Bin    int32  `yaml:"bin"`
	Amount string `yaml:"amount"`
	Remove bool   `yaml:"remove"`
}

type SwapStep struct {
	From   string `yaml:"from"`
	In     string `yaml:"in"`
	Amount string `yaml:"amount"`
	MinOut string `yaml:"min_out"`
}

type QuoteStep struct {
	In     string `yaml:"in"`
	Amount string `yaml:"amount"`
}

// DumpStep prints the bins [From, To] and, when Owner is set, that
// owner's position.
type DumpStep struct {
	From     int32  `yaml:"from"`
	To       int32  `yaml:"to"`
	Owner    string `yaml:"owner"`
	Position int32  `yaml:"position"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i, step := range s.Steps {
		n := 0
		for _, set := range []bool{step.Modify != nil, step.Swap != nil, step.Quote != nil, step.Dump != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			return nil, fmt.Errorf("step %d: %w", i, errBadStep)
		}
	}
	return &s, nil
}

// PoolConfig resolves the pool section.
func (s *Scenario) PoolConfig() (lxbin.PoolConfig, error) {
	x, err := s.Address(s.Pool.TokenX)
	if err != nil {
		return lxbin.PoolConfig{}, fmt.Errorf("token_x: %w", err)
	}
	y, err := s.Address(s.Pool.TokenY)
	if err != nil {
		return lxbin.PoolConfig{}, fmt.Errorf("token_y: %w", err)
	}
	cfg := lxbin.PoolConfig{
		TokenX:    x,
		TokenY:    y,
		BinStep:   s.Pool.BinStep,
		ActiveBin: s.Pool.ActiveBin,
		Fee:       s.Pool.Fee,
	}
	return cfg, cfg.Validate()
}

// Address resolves an account alias or a hex address.
func (s *Scenario) Address(name string) (common.Address, error) {
	if hex, ok := s.Accounts[name]; ok {
		name = hex
	}
	if !common.IsHexAddress(name) {
		return common.Address{}, fmt.Errorf("%w: %q", errBadAddress, name)
	}
	return common.HexToAddress(name), nil
}

// parseAmount turns a decimal token amount into raw units.
func parseAmount(s string, decimals int32) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", errBadAmount, s)
	}
	raw := d.Shift(decimals)
	if !raw.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", errBadAmount, s, decimals)
	}
	return raw.BigInt(), nil
}

// formatAmount renders raw units with [decimals] places.
func formatAmount(raw *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(raw, -decimals).String()
}
