// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/lxbin/contract"
	"github.com/parsdao/lxbin/modules"
	"github.com/parsdao/lxbin/precompileconfig"
)

var _ contract.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this precompile config.
const ConfigKey = "lxbinConfig"

// ContractLXBinAddress is the account holding the pool state and reserves.
var ContractLXBinAddress = common.HexToAddress(LXBinAddress)

// Module is the precompile module (LXBin at LP-9015)
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractLXBinAddress,
	Contract:     LXBinPrecompile,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() precompileconfig.Config {
	return new(Config)
}

// Configure initializes the pool from the activation config. Activating a
// config for the market already stored is a no-op, so a precompile that was
// disabled and re-enabled keeps its pool.
func (*configurator) Configure(
	chainConfig precompileconfig.ChainConfig,
	cfg precompileconfig.Config,
	state contract.StateDB,
	blockContext contract.ConfigurationBlockContext,
) error {
	config, ok := cfg.(*Config)
	if !ok {
		return fmt.Errorf("expected config type %T, got %T: %v", &Config{}, cfg, cfg)
	}
	if config.IsDisabled() {
		return nil
	}

	pool := NewPool(
		NewStateKV(state, ContractLXBinAddress),
		ContractLXBinAddress,
		&NativeTokens{State: state},
		WithLogger(LXBinPrecompile.log),
	)
	existing, err := pool.GetConfig()
	switch {
	case err == nil:
		if !existing.SameMarket(config.PoolConfig()) {
			return fmt.Errorf("lxbin configure: %w: stored pool differs", ErrPoolAlreadyInitialized)
		}
		return nil
	case !errors.Is(err, ErrPoolNotInitialized):
		return fmt.Errorf("lxbin configure: %w", err)
	}

	if err := pool.Initialize(config.PoolConfig(), config.InitialBalances...); err != nil {
		return fmt.Errorf("lxbin configure: %w", err)
	}
	return nil
}

// Config implements the precompileconfig.Config interface
type Config struct {
	Upgrade   precompileconfig.Upgrade `json:"upgrade,omitempty"`
	TokenX    common.Address           `json:"tokenX"`
	TokenY    common.Address           `json:"tokenY"`
	BinStep   uint32                   `json:"binStep"`
	ActiveBin int32                    `json:"activeBin"`
	Fee       uint32                   `json:"fee,omitempty"`

	// InitialBalances seeds the ledger of non-native pool tokens.
	InitialBalances []Allocation `json:"initialBalances,omitempty"`
}

// PoolConfig returns the pool parameters carried by the activation config.
func (c *Config) PoolConfig() PoolConfig {
	return PoolConfig{
		TokenX:    c.TokenX,
		TokenY:    c.TokenY,
		BinStep:   c.BinStep,
		ActiveBin: c.ActiveBin,
		Fee:       c.Fee,
	}
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg precompileconfig.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	if !c.Upgrade.Equal(&other.Upgrade) || c.PoolConfig() != other.PoolConfig() {
		return false
	}
	if len(c.InitialBalances) != len(other.InitialBalances) {
		return false
	}
	for i, a := range c.InitialBalances {
		b := other.InitialBalances[i]
		if a.Token != b.Token || a.Owner != b.Owner || !sameAmount(a.Amount, b.Amount) {
			return false
		}
	}
	return true
}

func (c *Config) Verify(chainConfig precompileconfig.ChainConfig) error {
	if c.IsDisabled() {
		return nil
	}
	cfg := c.PoolConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.ValidateAllocations(c.InitialBalances)
}

func sameAmount(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
