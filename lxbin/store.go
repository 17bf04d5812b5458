// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
)

// store gives typed access to the pool namespaces of a KVStore.
type store struct {
	kv KVStore
}

// get returns nil, nil for a missing key.
func (s store) get(key []byte) ([]byte, error) {
	data, err := s.kv.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	return data, err
}

func (s store) getConfig() (PoolConfig, error) {
	data, err := s.get(configKey())
	if err != nil {
		return PoolConfig{}, err
	}
	if data == nil {
		return PoolConfig{}, ErrPoolNotInitialized
	}
	return decodeConfig(data)
}

func (s store) hasConfig() (bool, error) {
	return s.kv.Has(configKey())
}

func (s store) putConfig(cfg PoolConfig) error {
	return s.kv.Put(configKey(), encodeConfig(cfg))
}

func (s store) getRange() (LiquidityRange, error) {
	data, err := s.get(rangeKey())
	if err != nil || data == nil {
		return LiquidityRange{}, err
	}
	return decodeRange(data)
}

func (s store) putRange(r LiquidityRange) error {
	return s.kv.Put(rangeKey(), encodeRange(r))
}

// getBinVec loads vector [vecID], decoding single-value slots against
// [activeBin]. A missing vector resolves to the default.
func (s store) getBinVec(vecID, activeBin int32) (BinVec, error) {
	data, err := s.get(binVecKey(vecID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return DefaultBinVec(vecID), nil
	}
	return decodeBinVec(data, vecID, activeBin)
}

// putBinVec persists [vec] encoded against [activeBin]; an empty vector is
// removed instead.
func (s store) putBinVec(vecID int32, vec BinVec, activeBin int32) error {
	if vec.IsEmpty() {
		return s.kv.Delete(binVecKey(vecID))
	}
	data, err := encodeBinVec(vec, activeBin)
	if err != nil {
		return err
	}
	return s.kv.Put(binVecKey(vecID), data)
}

func (s store) getShareVec(vecID int32) (ShareVec, error) {
	data, err := s.get(shareVecKey(vecID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return DefaultShareVec(vecID), nil
	}
	return decodeShareVec(data, vecID)
}

func (s store) putShareVec(vecID int32, vec ShareVec) error {
	if vec.IsEmpty() {
		return s.kv.Delete(shareVecKey(vecID))
	}
	data, err := encodeShareVec(vec)
	if err != nil {
		return err
	}
	return s.kv.Put(shareVecKey(vecID), data)
}

// getPosition returns nil when the position does not exist.
func (s store) getPosition(owner common.Address, positionID int32) (*Position, error) {
	data, err := s.get(positionKey(owner, positionID))
	if err != nil || data == nil {
		return nil, err
	}
	return decodePosition(data)
}

// putPosition persists [pos], deleting the record once it holds nothing.
func (s store) putPosition(owner common.Address, positionID int32, pos *Position) error {
	key := positionKey(owner, positionID)
	if pos.IsEmpty() {
		return s.kv.Delete(key)
	}
	data, err := encodePosition(pos)
	if err != nil {
		return err
	}
	return s.kv.Put(key, data)
}
