// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
)

// KVStore is the persistence the pool runs on. Every luxfi/database
// Database satisfies it; a missing key yields database.ErrNotFound.
type KVStore interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

// Key namespaces
var (
	configPrefix   = []byte("conf")
	rangePrefix    = []byte("lrng")
	binVecPrefix   = []byte("bvec")
	shareVecPrefix = []byte("svec")
	positionPrefix = []byte("posn")
	balancePrefix  = []byte("blnc")
)

func configKey() []byte {
	return configPrefix
}

func rangeKey() []byte {
	return rangePrefix
}

func binVecKey(vecID int32) []byte {
	return appendInt32(append([]byte{}, binVecPrefix...), vecID)
}

func shareVecKey(vecID int32) []byte {
	return appendInt32(append([]byte{}, shareVecPrefix...), vecID)
}

func positionKey(owner common.Address, positionID int32) []byte {
	key := append(append([]byte{}, positionPrefix...), owner.Bytes()...)
	return appendInt32(key, positionID)
}

func balanceKey(token, owner common.Address) []byte {
	key := append(append([]byte{}, balancePrefix...), token.Bytes()...)
	return append(key, owner.Bytes()...)
}

func appendInt32(b []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(v))
}
