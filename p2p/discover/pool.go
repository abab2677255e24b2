// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package discover

import (
	set "gopkg.in/fatih/set.v0"
)

// insertionPool is the per-bucket deduplicating waiting set of
// candidates that collided with a full bucket. Its purpose is purely
// deduplication: many concurrent callers may offer the same candidate
// before it is ever examined, and the pool must remember it was
// already offered.
//
// busy is true while exactly one candidate from this pool is being
// evaluated via a PING to the bucket's least-recently-seen entry; it
// enforces at most one PING in flight per bucket.
type insertionPool struct {
	candidates *set.Set
	busy       bool
}

func newInsertionPool() *insertionPool {
	return &insertionPool{candidates: set.New()}
}

// Add offers c to the pool. It reports whether c was newly added
// (false if it was already waiting).
func (p *insertionPool) Add(c NodeID) bool {
	if p.candidates.Has(c) {
		return false
	}
	p.candidates.Add(c)
	return true
}

// Remove drops c from the pool, if present.
func (p *insertionPool) Remove(c NodeID) {
	p.candidates.Remove(c)
}

// Contains reports whether c is currently waiting in the pool.
func (p *insertionPool) Contains(c NodeID) bool {
	return p.candidates.Has(c)
}

// Len reports how many candidates are currently waiting.
func (p *insertionPool) Len() int {
	return p.candidates.Size()
}

// PickAny returns an arbitrary waiting candidate and true, or the
// zero value and false if the pool is empty. Which candidate is
// picked is unspecified.
func (p *insertionPool) PickAny() (NodeID, bool) {
	for _, v := range p.candidates.List() {
		return v.(NodeID), true
	}
	return NodeID{}, false
}
