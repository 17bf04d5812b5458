// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package lxbin

import (
	"fmt"
	"math/big"
)

// Get returns the holding at [binID], or a zero record when absent.
// The position is not modified.
func (p *Position) Get(binID int32) BinShares {
	for _, s := range p.BinShares {
		if s.BinID == binID {
			return BinShares{BinID: binID, Shares: new(big.Int).Set(s.Shares)}
		}
	}
	return BinShares{BinID: binID, Shares: new(big.Int)}
}

// Upsert replaces the record for [rec.BinID] or inserts it in order.
func (p *Position) Upsert(rec BinShares) {
	for i, s := range p.BinShares {
		if s.BinID == rec.BinID {
			p.BinShares[i] = rec
			return
		}
		if s.BinID > rec.BinID {
			p.BinShares = append(p.BinShares, BinShares{})
			copy(p.BinShares[i+1:], p.BinShares[i:])
			p.BinShares[i] = rec
			return
		}
	}
	p.BinShares = append(p.BinShares, rec)
}

// Delete removes the record for [rec.BinID] if present.
func (p *Position) Delete(rec BinShares) {
	for i, s := range p.BinShares {
		if s.BinID == rec.BinID {
			p.BinShares = append(p.BinShares[:i], p.BinShares[i+1:]...)
			return
		}
	}
}

// IsEmpty reports whether the position holds no shares.
func (p *Position) IsEmpty() bool {
	return len(p.BinShares) == 0
}

// Validate checks the entries are strictly ascending and positive.
func (p *Position) Validate() error {
	for i, s := range p.BinShares {
		if s.Shares == nil || s.Shares.Sign() <= 0 {
			return fmt.Errorf("bin %d holds %v shares", s.BinID, s.Shares)
		}
		if i > 0 && p.BinShares[i-1].BinID >= s.BinID {
			return fmt.Errorf("bin %d follows bin %d", s.BinID, p.BinShares[i-1].BinID)
		}
	}
	return nil
}
