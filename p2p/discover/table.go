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
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"
)

// RoutingTable is the ordered array of exactly Config.IDLength
// buckets a node maintains. One exclusive mutex serializes every
// mutating operation, including FindClosest's snapshot.
type RoutingTable struct {
	mu sync.Mutex

	local  NodeID
	config Config
	masks  []*big.Int // masks[i] = (local >> i) XOR 1, for i in [0, IDLength)

	buckets []*Bucket
	pools   []*insertionPool

	book       *AddressBook
	supervisor *PingSupervisor
	ids        *IDGenerator

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup

	// nodeAddedHook, when set, is called after a candidate is
	// actually inserted into a bucket. It exists for tests.
	nodeAddedHook func(NodeID)
}

// NewRoutingTable constructs a RoutingTable for local, wires it to
// book for sending PINGs and ids for minting replacement-PING message
// ids, and starts its pool-scanner loop. The caller must eventually
// call Close.
func NewRoutingTable(local NodeID, config Config, book *AddressBook, supervisor *PingSupervisor, ids *IDGenerator) (*RoutingTable, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	t := &RoutingTable{
		local:      local,
		config:     config,
		masks:      make([]*big.Int, config.IDLength),
		buckets:    make([]*Bucket, config.IDLength),
		pools:      make([]*insertionPool, config.IDLength),
		book:       book,
		supervisor: supervisor,
		ids:        ids,
		closeCh:    make(chan struct{}),
	}
	localBig := local.Big()
	for i := 0; i < config.IDLength; i++ {
		t.masks[i] = new(big.Int).Xor(new(big.Int).Rsh(localBig, uint(i)), big.NewInt(1))
		t.buckets[i] = newBucket(config.K)
		t.pools[i] = newInsertionPool()
	}
	t.wg.Add(1)
	go t.poolScannerLoop()
	return t, nil
}

// Close stops the pool-scanner loop and waits for it to exit.
func (t *RoutingTable) Close() {
	t.closeOnce.Do(func() { close(t.closeCh) })
	t.wg.Wait()
}

// findBucket returns the unique bucket index a candidate id belongs
// to: the smallest i for which (id >> i) == mask[i],
// equivalently the position of the highest set bit of id XOR local.
// It fails with ErrInvalidLocalID when id == local (no bucket holds
// the local id) or, as a defensive backstop, when no bucket matches.
func (t *RoutingTable) findBucket(id NodeID) (int, error) {
	if id == t.local {
		return -1, ErrInvalidLocalID
	}
	idBig := id.Big()
	for i := 0; i < t.config.IDLength; i++ {
		if new(big.Int).Rsh(idBig, uint(i)).Cmp(t.masks[i]) == 0 {
			return i, nil
		}
	}
	return -1, ErrInvalidLocalID
}

// Insert offers candidate c to its bucket: a new id fills a free
// slot, a known id is touched, and a collision with a full bucket is
// deferred to the bucket's insertion pool. withContext must be false
// only for the one legal bootstrap case: inserting the well-known
// origin into an empty table with no originating message, where a
// full-bucket collision is dropped instead of pooled.
func (t *RoutingTable) Insert(c NodeID, withContext bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(c, withContext, time.Now())
}

func (t *RoutingTable) insertLocked(c NodeID, withContext bool, now time.Time) error {
	i, err := t.findBucket(c)
	if err != nil {
		return err
	}
	b, p := t.buckets[i], t.pools[i]

	inserted, alreadyPresent := b.Add(c, now)
	if inserted {
		metricBucketInsert.Mark(1)
		t.updateOccupancyLocked()
		if t.nodeAddedHook != nil {
			t.nodeAddedHook(c)
		}
		return nil
	}
	if alreadyPresent {
		b.Touch(c, now)
		metricBucketTouch.Mark(1)
		return nil
	}
	// Bucket full, candidate absent: defer to the pool scanner,
	// unless this is the bootstrap exception.
	if !withContext {
		return nil
	}
	metricPoolOffer.Mark(1)
	if !p.Add(c) {
		metricPoolDedup.Mark(1)
	}
	return nil
}

// poolScannerLoop wakes every Config.PoolScanPeriod and, for each
// bucket not already servicing a replacement candidate, starts one
// replacement-PING cycle.
func (t *RoutingTable) poolScannerLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.config.PoolScanPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.scanPoolsOnce()
		case <-t.closeCh:
			return
		}
	}
}

func (t *RoutingTable) scanPoolsOnce() {
	type job struct {
		i int
		c NodeID
	}
	var jobs []job

	t.mu.Lock()
	for i, p := range t.pools {
		if p.busy {
			continue
		}
		if c, ok := p.PickAny(); ok {
			p.busy = true
			jobs = append(jobs, job{i, c})
		}
	}
	t.mu.Unlock()

	for _, j := range jobs {
		t.pingForReplacement(j.i, j.c)
	}
}

// pingForReplacement probes bucket i's least-recently-seen entry with
// a supervised PING; candidate c takes its slot if the probe times
// out, and is dropped if the resident answers.
func (t *RoutingTable) pingForReplacement(i int, c NodeID) {
	t.mu.Lock()
	lrs := t.buckets[i].LeastRecentlySeen()
	if lrs == nil {
		// Race repair: the bucket drained between the scanner's peek
		// and now. Add c directly and release the pool slot.
		t.insertLocked(c, true, time.Now())
		t.pools[i].Remove(c)
		t.pools[i].busy = false
		t.mu.Unlock()
		return
	}
	pinged := lrs.ID
	t.mu.Unlock()

	reqID := t.ids.NextRequestID()
	sink, ok := t.book.Lookup(pinged)
	if !ok {
		// No sink for the least-recently-seen node: treat as an
		// immediate timeout.
		t.onPingTimeout(i, pinged, c)
		return
	}

	expiry := time.Now().Add(t.config.PingTimeout)
	msg := Message{
		UID:         t.ids.NextUID(),
		RequestID:   reqID,
		Name:        Ping,
		SenderID:    t.local,
		HasSender:   true,
		RecipientID: pinged,
	}
	if err := t.supervisor.Add(reqID, expiry, msg, replacementRecord{bucket: i, candidate: c, pinged: pinged}); err != nil {
		// A duplicate request id is a programmer error; it should
		// never happen because reqID was freshly minted.
		panic(err)
	}
	if err := sink.Send(msg); err != nil {
		// Sending failed synchronously (e.g. a bounded queue is
		// full): treat exactly like a timeout rather than leaving
		// the supervisor record to expire uselessly.
		t.supervisor.Cancel(reqID)
		t.onPingTimeout(i, pinged, c)
		return
	}
	metricPingSent.Mark(1)
}

// OnPingResponse resolves the outstanding PING resp answers: the
// responding resident is touched and the pool slot it was holding is
// released.
func (t *RoutingTable) OnPingResponse(resp Message) {
	_, replacementArg, ok := t.supervisor.Take(resp.RequestID)
	if !ok {
		// Unknown request id: either a late response to an already
		// expired/cancelled PING, or a genuine duplicate of a
		// response already processed. Either way, drop silently.
		return
	}
	metricPingResponse.Mark(1)
	replacement := replacementArg.(replacementRecord)

	t.mu.Lock()
	defer t.mu.Unlock()
	i, err := t.findBucket(resp.SenderID)
	if err != nil {
		return
	}
	t.buckets[i].Touch(resp.SenderID, time.Now())
	metricBucketTouch.Mark(1)
	t.pools[i].Remove(replacement.candidate)
	t.pools[i].busy = false
}

// onPingTimeout evicts a resident that never answered its
// replacement PING and installs the waiting candidate in its place.
func (t *RoutingTable) onPingTimeout(i int, pinged, replacement NodeID) {
	metricPingTimeout.Mark(1)
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.buckets[i].Remove(pinged); err != nil {
		// The pinged node vanished from its bucket already (e.g. a
		// concurrent eviction). Nothing left to replace.
		t.pools[i].Remove(replacement)
		t.pools[i].busy = false
		return
	}
	metricBucketEvict.Mark(1)
	t.updateOccupancyLocked()
	t.insertLocked(replacement, true, time.Now())
	t.pools[i].Remove(replacement)
	t.pools[i].busy = false
}

// updateOccupancyLocked refreshes the total-entries-across-all-buckets
// gauge. Callers must hold t.mu.
func (t *RoutingTable) updateOccupancyLocked() {
	var total int64
	for _, b := range t.buckets {
		total += int64(b.Count())
	}
	metricBucketOccupancy.Update(total)
}

// FindClosest gathers every entry across every bucket, sorted
// ascending by XOR distance to target, ties broken by id ascending,
// and returns the first min(n, total). It is a point-in-time snapshot
// taken under the table's lock.
func (t *RoutingTable) FindClosest(target NodeID, n int) []NodeID {
	t.mu.Lock()
	var all []NodeEntry
	for _, b := range t.buckets {
		all = append(all, b.ListAll()...)
	}
	t.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		di, dj := Xor(all[i].ID, target), Xor(all[j].ID, target)
		if di == dj {
			return Less(all[i].ID, all[j].ID)
		}
		return Less(di, dj)
	})
	if n > len(all) {
		n = len(all)
	}
	out := make([]NodeID, n)
	for i := 0; i < n; i++ {
		out[i] = all[i].ID
	}
	return out
}

// RandomIDInBucket produces an id whose XOR distance to local falls
// in bucket i's range, by starting from mask[i]<<i and setting the
// low i bits uniformly at random. Bootstrap refresh uses it to aim a
// lookup at a specific bucket.
func (t *RoutingTable) RandomIDInBucket(i int) (NodeID, error) {
	if i < 0 || i >= t.config.IDLength {
		return NodeID{}, fmt.Errorf("discover: bucket index %d out of range (0..%d)", i, t.config.IDLength-1)
	}
	base := new(big.Int).Lsh(t.masks[i], uint(i))
	if i > 0 {
		low, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), uint(i)))
		if err != nil {
			return NodeID{}, err
		}
		base.Or(base, low)
	}
	return NodeIDFromBig(base), nil
}

// Dump renders the single-line textual representation
// "{i1:[id,id,...] i2:[...] ...}" for non-empty buckets only, in
// ascending bucket index.
func (t *RoutingTable) Dump() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var parts []string
	for i, b := range t.buckets {
		if b.Count() == 0 {
			continue
		}
		ids := make([]string, 0, b.Count())
		for _, e := range b.ListAll() {
			ids = append(ids, e.ID.String())
		}
		parts = append(parts, fmt.Sprintf("%d:[%s]", i, strings.Join(ids, ",")))
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Explain is a debug-only helper that renders the per-bucket mask
// derivation alongside occupancy; it is never called from a hot path.
func (t *RoutingTable) Explain() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "routing table for %s\n", t.local)
	for i := 0; i < t.config.IDLength; i++ {
		fmt.Fprintf(&sb, "  %3d: mask=%s entries=%d\n", i, t.masks[i].Text(2), t.buckets[i].Count())
	}
	return sb.String()
}

// replacementRecord is the PingSupervisor payload a RoutingTable
// attaches to an outstanding PING it issued for bucket maintenance.
type replacementRecord struct {
	bucket    int
	candidate NodeID
	pinged    NodeID
}
