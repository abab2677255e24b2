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
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// resolvedCacheSize bounds the recently-resolved-request-id cache
// used to recognize a late, duplicate PING_RESPONSE after its
// request has already been taken or has expired. Sized generously
// relative to K * IDLength so a
// bucket-maintenance burst across every bucket doesn't evict entries
// before a plausible duplicate could arrive.
const resolvedCacheSize = 4096

// pingRecord is the bookkeeping entry for one outstanding PING.
// replacement is opaque to PingSupervisor: it is whatever the issuer
// attached to Add and gets handed back unchanged to onExpire or Take,
// so the supervisor never needs to know about buckets.
type pingRecord struct {
	msg         Message
	expiry      time.Time
	replacement interface{}
}

// PingSupervisor tracks outstanding PINGs and calls onExpire for any
// that go unanswered past their deadline: a periodic scan taken under
// a lock, expired entries collected and removed, then callbacks fired
// on their own goroutines outside the lock, so a slow callback never
// blocks the scan loop.
type PingSupervisor struct {
	mu          sync.Mutex
	outstanding map[uint64]*pingRecord
	resolved    *lru.Cache

	scanPeriod time.Duration
	onExpire   func(msg Message, replacement interface{})

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewPingSupervisor starts a supervisor whose scan period is
// pingTimeout/3, so an expiry is detected within a third of the
// timeout window. onExpire is invoked once per expired PING, never
// while the supervisor's lock is held.
func NewPingSupervisor(pingTimeout time.Duration, onExpire func(Message, interface{})) (*PingSupervisor, error) {
	cache, err := lru.New(resolvedCacheSize)
	if err != nil {
		return nil, err
	}
	s := &PingSupervisor{
		outstanding: make(map[uint64]*pingRecord),
		resolved:    cache,
		scanPeriod:  pingTimeout / 3,
		onExpire:    onExpire,
		closeCh:     make(chan struct{}),
	}
	if s.scanPeriod <= 0 {
		s.scanPeriod = time.Millisecond
	}
	s.wg.Add(1)
	go s.scanLoop()
	return s, nil
}

// Close stops the scan loop and waits for it to exit. Callbacks
// already in flight are not waited on.
func (s *PingSupervisor) Close() {
	s.closeOnce.Do(func() { close(s.closeCh) })
	s.wg.Wait()
}

// Add registers a new outstanding PING. It fails with
// ErrDuplicateRequestID if reqID is already outstanding, a programmer
// error, since request ids are minted by IDGenerator and must never
// collide.
func (s *PingSupervisor) Add(reqID uint64, expiry time.Time, msg Message, replacement interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.outstanding[reqID]; exists {
		return ErrDuplicateRequestID
	}
	s.outstanding[reqID] = &pingRecord{msg: msg, expiry: expiry, replacement: replacement}
	return nil
}

// Cancel removes reqID from the outstanding set without marking it as
// resolved, for the case where the PING was never actually sent (a
// synchronous send failure). No response is expected, so a later
// duplicate check need not fire for it.
func (s *PingSupervisor) Cancel(reqID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.outstanding, reqID)
}

// Take resolves an outstanding PING by request id, for the
// PING_RESPONSE path. ok is false if reqID is unknown: either it
// never existed, it already expired, or it was already taken by an
// earlier response to the same request. The duplicate counter is
// marked for the latter two (both are remembered in the resolved
// cache), not for an id that never existed.
func (s *PingSupervisor) Take(reqID uint64) (msg Message, replacement interface{}, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, exists := s.outstanding[reqID]; exists {
		delete(s.outstanding, reqID)
		s.resolved.Add(reqID, struct{}{})
		return rec.msg, rec.replacement, true
	}
	if s.resolved.Contains(reqID) {
		metricPingDuplicate.Mark(1)
	}
	return Message{}, nil, false
}

func (s *PingSupervisor) scanLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.scanPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.scanOnce()
		case <-s.closeCh:
			return
		}
	}
}

func (s *PingSupervisor) scanOnce() {
	now := time.Now()
	var expired []*pingRecord

	s.mu.Lock()
	for reqID, rec := range s.outstanding {
		if !now.Before(rec.expiry) {
			expired = append(expired, rec)
			delete(s.outstanding, reqID)
			s.resolved.Add(reqID, struct{}{})
		}
	}
	s.mu.Unlock()

	for _, rec := range expired {
		rec := rec
		go s.onExpire(rec.msg, rec.replacement)
	}
}

// Len reports how many PINGs are currently outstanding. Exposed for
// tests and for the CLI demo's status line.
func (s *PingSupervisor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outstanding)
}
