// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"sort"

	"github.com/luxfi/database"
)

// txStore buffers the writes of one operation over a parent store. Nothing
// reaches the parent until Commit; Abort discards the buffer.
type txStore struct {
	parent  KVStore
	writes  map[string][]byte
	deleted map[string]struct{}
}

var _ KVStore = (*txStore)(nil)

func newTxStore(parent KVStore) *txStore {
	return &txStore{
		parent:  parent,
		writes:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

func (t *txStore) Has(key []byte) (bool, error) {
	k := string(key)
	if _, ok := t.writes[k]; ok {
		return true, nil
	}
	if _, ok := t.deleted[k]; ok {
		return false, nil
	}
	return t.parent.Has(key)
}

func (t *txStore) Get(key []byte) ([]byte, error) {
	k := string(key)
	if v, ok := t.writes[k]; ok {
		return append([]byte{}, v...), nil
	}
	if _, ok := t.deleted[k]; ok {
		return nil, database.ErrNotFound
	}
	return t.parent.Get(key)
}

func (t *txStore) Put(key []byte, value []byte) error {
	k := string(key)
	delete(t.deleted, k)
	t.writes[k] = append([]byte{}, value...)
	return nil
}

func (t *txStore) Delete(key []byte) error {
	k := string(key)
	delete(t.writes, k)
	t.deleted[k] = struct{}{}
	return nil
}

// Commit flushes buffered writes to the parent in key order.
func (t *txStore) Commit() error {
	for _, k := range sortedKeys(t.deleted) {
		if err := t.parent.Delete([]byte(k)); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(t.writes) {
		if err := t.parent.Put([]byte(k), t.writes[k]); err != nil {
			return err
		}
	}
	t.Abort()
	return nil
}

// Abort drops every buffered write.
func (t *txStore) Abort() {
	t.writes = make(map[string][]byte)
	t.deleted = make(map[string]struct{})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
