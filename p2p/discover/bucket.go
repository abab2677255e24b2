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
	"sort"
	"time"
)

// NodeEntry is a bucket member: an id paired with the last moment its
// liveness was confirmed.
type NodeEntry struct {
	ID       NodeID
	LastSeen time.Time
}

// Bucket is a fixed-capacity, duplicate-free collection of NodeEntry
// values. It holds no reference back to its owning table or to live
// peer connections, only ids and timestamps, so buckets compose
// freely without creating reference cycles.
//
// A Bucket does not synchronize its own access; RoutingTable holds
// the single lock that serializes every mutating call.
type Bucket struct {
	capacity int
	entries  []NodeEntry // insertion order; LastSeen carries recency
}

// newBucket returns an empty bucket with the given capacity.
func newBucket(capacity int) *Bucket {
	return &Bucket{capacity: capacity}
}

// Count returns the number of entries currently held.
func (b *Bucket) Count() int {
	return len(b.entries)
}

// Contains reports whether id is present.
func (b *Bucket) Contains(id NodeID) bool {
	return b.indexOf(id) >= 0
}

func (b *Bucket) indexOf(id NodeID) int {
	for i := range b.entries {
		if b.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Add inserts id with LastSeen = now. It returns (inserted,
// alreadyPresent): if id is already present, (false, true); if the
// bucket is full, (false, false); otherwise the entry is appended and
// (true, false) is returned.
func (b *Bucket) Add(id NodeID, now time.Time) (inserted, alreadyPresent bool) {
	if b.Contains(id) {
		return false, true
	}
	if len(b.entries) >= b.capacity {
		return false, false
	}
	b.entries = append(b.entries, NodeEntry{ID: id, LastSeen: now})
	return true, false
}

// Remove deletes id from the bucket. It fails with ErrNotFound if id
// is absent; evicting an id that isn't there is a programmer error.
func (b *Bucket) Remove(id NodeID) error {
	i := b.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	b.entries = append(b.entries[:i], b.entries[i+1:]...)
	return nil
}

// Touch sets id's LastSeen to now. It is a no-op if id is absent.
func (b *Bucket) Touch(id NodeID, now time.Time) {
	if i := b.indexOf(id); i >= 0 {
		b.entries[i].LastSeen = now
	}
}

// LeastRecentlySeen returns the entry with the smallest LastSeen,
// nil if the bucket is empty. Ties are broken by insertion order.
func (b *Bucket) LeastRecentlySeen() *NodeEntry {
	if len(b.entries) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(b.entries); i++ {
		if b.entries[i].LastSeen.Before(b.entries[best].LastSeen) {
			best = i
		}
	}
	e := b.entries[best]
	return &e
}

// MostRecentlySeen returns the entry with the largest LastSeen, nil
// if the bucket is empty. Ties are broken by insertion order.
func (b *Bucket) MostRecentlySeen() *NodeEntry {
	if len(b.entries) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(b.entries); i++ {
		if b.entries[i].LastSeen.After(b.entries[best].LastSeen) {
			best = i
		}
	}
	e := b.entries[best]
	return &e
}

// ListAll returns a copy of every entry currently held, in insertion
// order.
func (b *Bucket) ListAll() []NodeEntry {
	out := make([]NodeEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// ClosestTo returns up to n entries sorted ascending by XOR distance
// to target, ties broken by id ascending.
func (b *Bucket) ClosestTo(target NodeID, n int) []NodeEntry {
	out := b.ListAll()
	sort.Slice(out, func(i, j int) bool {
		di, dj := Xor(out[i].ID, target), Xor(out[j].ID, target)
		if di == dj {
			return Less(out[i].ID, out[j].ID)
		}
		return Less(di, dj)
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
