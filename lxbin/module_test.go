// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/luxfi/geth/common"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/lxbin/modules"
	"github.com/parsdao/lxbin/precompileconfig"
)

func TestModuleRegistered(t *testing.T) {
	mod, ok := modules.GetPrecompileModule(ConfigKey)
	require.True(t, ok)
	require.Equal(t, ContractLXBinAddress, mod.Address)

	byAddr, ok := modules.GetPrecompileModuleByAddress(ContractLXBinAddress)
	require.True(t, ok)
	require.Equal(t, ConfigKey, byAddr.ConfigKey)
	require.True(t, modules.ReservedAddress(ContractLXBinAddress))

	_, ok = mod.MakeConfig().(*Config)
	require.True(t, ok)
}

func TestConfigJSON(t *testing.T) {
	raw := `{
		"upgrade": {"blockTimestamp": 100},
		"tokenX": "0x00000000000000000000000000000000000000a1",
		"tokenY": "0x00000000000000000000000000000000000000a2",
		"binStep": 25,
		"activeBin": -8,
		"fee": 30,
		"initialBalances": [
			{"token": "0x00000000000000000000000000000000000000a2", "owner": "0x0000000000000000000000000000000000a11ce0", "amount": 1000000000000000000000}
		]
	}`
	cfg := new(Config)
	require.NoError(t, json.Unmarshal([]byte(raw), cfg))
	require.Equal(t, uint64(100), *cfg.Timestamp())
	require.False(t, cfg.IsDisabled())
	require.Equal(t, PoolConfig{TokenX: tokenX, TokenY: tokenY, BinStep: 25, ActiveBin: -8, Fee: 30}, cfg.PoolConfig())
	require.Len(t, cfg.InitialBalances, 1)
	require.Equal(t, alice, cfg.InitialBalances[0].Owner)
	require.Equal(t, "1000000000000000000000", cfg.InitialBalances[0].Amount.String())
	require.NoError(t, cfg.Verify(nil))
	require.Equal(t, ConfigKey, cfg.Key())
}

func TestConfigEqualAndVerify(t *testing.T) {
	ts := uint64(5)
	base := &Config{Upgrade: precompileconfig.Upgrade{BlockTimestamp: &ts}, TokenX: tokenX, TokenY: tokenY, BinStep: 10}
	same := &Config{Upgrade: precompileconfig.Upgrade{BlockTimestamp: &ts}, TokenX: tokenX, TokenY: tokenY, BinStep: 10}
	require.True(t, base.Equal(same))

	other := *same
	other.Fee = 1
	require.False(t, base.Equal(&other))
	require.False(t, base.Equal(nil))

	funded := *same
	funded.InitialBalances = []Allocation{{Token: tokenX, Owner: alice, Amount: big.NewInt(5)}}
	require.False(t, base.Equal(&funded))
	fundedCopy := funded
	fundedCopy.InitialBalances = []Allocation{{Token: tokenX, Owner: alice, Amount: big.NewInt(5)}}
	require.True(t, funded.Equal(&fundedCopy))
	fundedCopy.InitialBalances[0].Amount = nil
	require.False(t, funded.Equal(&fundedCopy))

	bad := &Config{TokenX: tokenX, TokenY: tokenX, BinStep: 10}
	require.ErrorIs(t, bad.Verify(nil), ErrSameToken)

	bad.Upgrade.Disable = true
	require.NoError(t, bad.Verify(nil))

	allocations := []struct {
		name   string
		tokenX common.Address
		alloc  Allocation
	}{
		{"token outside pair", tokenX, Allocation{Token: bob, Owner: alice, Amount: big.NewInt(1)}},
		{"native coin", NativeToken, Allocation{Token: NativeToken, Owner: alice, Amount: big.NewInt(1)}},
		{"zero amount", tokenX, Allocation{Token: tokenX, Owner: alice, Amount: big.NewInt(0)}},
		{"missing amount", tokenX, Allocation{Token: tokenX, Owner: alice}},
	}
	for _, tt := range allocations {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				TokenX:          tt.tokenX,
				TokenY:          tokenY,
				BinStep:         10,
				InitialBalances: []Allocation{tt.alloc},
			}
			require.ErrorIs(t, cfg.Verify(nil), ErrInvalidAllocation)
		})
	}
}

func TestConfigure(t *testing.T) {
	state := NewMockStateDB()
	block := &mockBlockContext{number: big.NewInt(0)}
	cfg := &Config{
		TokenX:          tokenX,
		TokenY:          tokenY,
		BinStep:         10,
		ActiveBin:       3,
		InitialBalances: []Allocation{{Token: tokenY, Owner: alice, Amount: big.NewInt(500)}},
	}

	require.NoError(t, Module.Configurator.Configure(nil, cfg, state, block))

	p := NewPool(NewStateKV(state, ContractLXBinAddress), ContractLXBinAddress, Ledger{})
	got, err := p.GetConfig()
	require.NoError(t, err)
	require.Equal(t, int32(3), got.ActiveBin)
	bal, err := p.BalanceOf(tokenY, alice)
	require.NoError(t, err)
	requireAmount(t, 500, bal)

	// Re-enabling over the stored pool keeps its state and mints nothing.
	got.ActiveBin = 7
	require.NoError(t, p.store().putConfig(got))
	require.NoError(t, Module.Configurator.Configure(nil, cfg, state, block))
	got, err = p.GetConfig()
	require.NoError(t, err)
	require.Equal(t, int32(7), got.ActiveBin)
	bal, err = p.BalanceOf(tokenY, alice)
	require.NoError(t, err)
	requireAmount(t, 500, bal)

	refee := *cfg
	refee.Fee = 30
	require.ErrorIs(t, Module.Configurator.Configure(nil, &refee, state, block), ErrPoolAlreadyInitialized)

	disabled := &Config{Upgrade: precompileconfig.Upgrade{Disable: true}}
	require.NoError(t, Module.Configurator.Configure(nil, disabled, NewMockStateDB(), block))

	require.Error(t, Module.Configurator.Configure(nil, &otherConfig{}, state, block))
}

type otherConfig struct{ Config }
