// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package precompileconfig defines the activation config shared by every
// stateful precompile module.
package precompileconfig

// Config is the JSON configured activation of a precompile.
type Config interface {
	// Key returns the unique key used in the chain config JSON.
	Key() string
	// Timestamp returns the activation time, nil when not scheduled.
	Timestamp() *uint64
	// IsDisabled reports whether this entry deactivates the precompile.
	IsDisabled() bool
	// Equal reports whether [cfg] is identical to this config.
	Equal(cfg Config) bool
	// Verify checks the config is valid for [chainConfig].
	Verify(chainConfig ChainConfig) error
}

// ChainConfig is the subset of the chain configuration visible to precompiles.
type ChainConfig interface {
	// IsActive reports whether a fork scheduled at [forkTime] is active at [timestamp].
	IsActive(forkTime *uint64, timestamp uint64) bool
}

// Upgrade is embedded by every precompile config to schedule activation.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the scheduled activation time.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal returns true iff [other] has the same timestamp and disable flag.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	switch {
	case u.BlockTimestamp == nil && other.BlockTimestamp == nil:
		return true
	case u.BlockTimestamp == nil || other.BlockTimestamp == nil:
		return false
	default:
		return *u.BlockTimestamp == *other.BlockTimestamp
	}
}

// ActiveAt reports whether an upgrade scheduled at [forkTime] is active at [timestamp].
func ActiveAt(forkTime *uint64, timestamp uint64) bool {
	return forkTime != nil && *forkTime <= timestamp
}
