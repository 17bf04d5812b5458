// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"maps"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/parsdao/lxbin/contract"
)

var _ contract.StateDB = (*MockStateDB)(nil)

// MockStateDB implements contract.StateDB interface for testing
type MockStateDB struct {
	storage   map[common.Address]map[common.Hash]common.Hash
	balances  map[common.Address]*uint256.Int
	logs      []*ethtypes.Log
	snapshots []mockSnapshot

	// writes counts SetState calls.
	writes int
}

type mockSnapshot struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	logs     int
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		logs:     make([]*ethtypes.Log, 0),
	}
}

func (m *MockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *MockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	m.writes++
	prev := m.storage[addr][key]
	if value == (common.Hash{}) {
		delete(m.storage[addr], key)
	} else {
		m.storage[addr][key] = value
	}
	return prev
}

// usedSlots counts the nonzero storage slots of [addr].
func (m *MockStateDB) usedSlots(addr common.Address) int {
	return len(m.storage[addr])
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *MockStateDB) AddLog(log *ethtypes.Log) { m.logs = append(m.logs, log) }
func (m *MockStateDB) Logs() []*ethtypes.Log    { return m.logs }

func (m *MockStateDB) Snapshot() int {
	snap := mockSnapshot{
		storage:  make(map[common.Address]map[common.Hash]common.Hash, len(m.storage)),
		balances: make(map[common.Address]*uint256.Int, len(m.balances)),
		logs:     len(m.logs),
	}
	for addr, slots := range m.storage {
		snap.storage[addr] = maps.Clone(slots)
	}
	for addr, bal := range m.balances {
		snap.balances[addr] = bal.Clone()
	}
	m.snapshots = append(m.snapshots, snap)
	return len(m.snapshots) - 1
}

func (m *MockStateDB) RevertToSnapshot(id int) {
	snap := m.snapshots[id]
	m.storage = snap.storage
	m.balances = snap.balances
	m.logs = m.logs[:snap.logs]
	m.snapshots = m.snapshots[:id]
}

type mockBlockContext struct {
	number    *big.Int
	timestamp uint64
}

func (b *mockBlockContext) Number() *big.Int  { return b.number }
func (b *mockBlockContext) Timestamp() uint64 { return b.timestamp }

type mockAccessibleState struct {
	state *MockStateDB
	block *mockBlockContext
}

func newMockAccessibleState(state *MockStateDB) *mockAccessibleState {
	return &mockAccessibleState{
		state: state,
		block: &mockBlockContext{number: big.NewInt(1), timestamp: 1},
	}
}

func (a *mockAccessibleState) GetStateDB() contract.StateDB           { return a.state }
func (a *mockAccessibleState) GetBlockContext() contract.BlockContext { return a.block }
