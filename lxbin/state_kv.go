// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"

	"github.com/parsdao/lxbin/contract"
)

// maxBlobLen caps a single stored value; larger headers are corruption.
const maxBlobLen = 1 << 20

var stateKVPrefix = []byte("lxkv")

// StateKV stores blobs in the 32-byte storage slots of a precompile
// account. The header slot at blake3(prefix||key) holds len+1 (zero means
// absent); chunk i lives at blake3(header||i).
type StateKV struct {
	state contract.StateDB
	addr  common.Address

	// writes counts SetState calls so callers can price them.
	writes uint64
}

var _ KVStore = (*StateKV)(nil)

// NewStateKV returns a KVStore over the storage of [addr].
func NewStateKV(state contract.StateDB, addr common.Address) *StateKV {
	return &StateKV{state: state, addr: addr}
}

// SlotWrites returns the number of storage slots written so far.
func (s *StateKV) SlotWrites() uint64 {
	return s.writes
}

func (s *StateKV) setState(key, value common.Hash) {
	s.state.SetState(s.addr, key, value)
	s.writes++
}

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id []byte) common.Hash {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key
}

func chunkKey(header common.Hash, index uint32) common.Hash {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], index)
	return makeStorageKey(header[:], idx[:])
}

func chunkCount(n int) uint32 {
	return uint32((n + common.HashLength - 1) / common.HashLength)
}

// length returns the stored blob length, or -1 when absent.
func (s *StateKV) length(header common.Hash) (int, error) {
	word := s.state.GetState(s.addr, header)
	if word == (common.Hash{}) {
		return -1, nil
	}
	n := new(uint256.Int).SetBytes32(word[:])
	if !n.IsUint64() || n.Uint64() > maxBlobLen+1 {
		return 0, fmt.Errorf("%w: blob header %s", ErrCorruptRecord, word)
	}
	return int(n.Uint64()) - 1, nil
}

func (s *StateKV) Has(key []byte) (bool, error) {
	n, err := s.length(makeStorageKey(stateKVPrefix, key))
	if err != nil {
		return false, err
	}
	return n >= 0, nil
}

func (s *StateKV) Get(key []byte) ([]byte, error) {
	header := makeStorageKey(stateKVPrefix, key)
	n, err := s.length(header)
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, database.ErrNotFound
	}

	value := make([]byte, 0, int(chunkCount(n))*common.HashLength)
	for i := uint32(0); i < chunkCount(n); i++ {
		word := s.state.GetState(s.addr, chunkKey(header, i))
		value = append(value, word[:]...)
	}
	return value[:n], nil
}

func (s *StateKV) Put(key []byte, value []byte) error {
	if len(value) > maxBlobLen {
		return fmt.Errorf("%w: value of %d bytes", ErrInvalidInput, len(value))
	}
	header := makeStorageKey(stateKVPrefix, key)
	old, err := s.length(header)
	if err != nil {
		return err
	}

	chunks := chunkCount(len(value))
	for i := uint32(0); i < chunks; i++ {
		var word common.Hash
		copy(word[:], value[int(i)*common.HashLength:])
		s.setState(chunkKey(header, i), word)
	}
	if old > 0 {
		s.clearChunks(header, chunks, chunkCount(old))
	}

	length := uint256.NewInt(uint64(len(value)) + 1)
	s.setState(header, length.Bytes32())
	return nil
}

func (s *StateKV) Delete(key []byte) error {
	header := makeStorageKey(stateKVPrefix, key)
	old, err := s.length(header)
	if err != nil || old < 0 {
		return err
	}
	s.clearChunks(header, 0, chunkCount(old))
	s.setState(header, common.Hash{})
	return nil
}

// clearChunks zeroes chunks [from, to) so a shrinking value leaves no residue.
func (s *StateKV) clearChunks(header common.Hash, from, to uint32) {
	for i := from; i < to; i++ {
		s.setState(chunkKey(header, i), common.Hash{})
	}
}
