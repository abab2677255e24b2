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
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
)

func testConfig() Config {
	return Config{
		IDLength:        16,
		K:               2,
		Alpha:           3,
		PingTimeout:     50 * time.Millisecond,
		FindNodeTimeout: 50 * time.Millisecond,
		PoolScanPeriod:  time.Hour, // manual scanPoolsOnce() drives tests deterministically
	}
}

// newTestTable wires a RoutingTable to a fresh PingSupervisor exactly
// the way NewNodeCore does, so onPingTimeout has a *RoutingTable to
// call back into.
func newTestTable(t *testing.T, config Config) (*RoutingTable, *AddressBook, NodeID) {
	t.Helper()
	local, err := RandomNodeID(config.IDLength)
	assert.NoError(t, err)

	book := NewAddressBook()
	var table *RoutingTable
	supervisor, err := NewPingSupervisor(config.PingTimeout, func(msg Message, replacement interface{}) {
		rr := replacement.(replacementRecord)
		table.onPingTimeout(rr.bucket, rr.pinged, rr.candidate)
	})
	assert.NoError(t, err)
	t.Cleanup(supervisor.Close)

	table, err = NewRoutingTable(local, config, book, supervisor, NewIDGenerator())
	assert.NoError(t, err)
	t.Cleanup(table.Close)

	return table, book, local
}

// newTestTableWithLocal is newTestTable with a caller-chosen local id,
// for tests that pin down exact bucket positions.
func newTestTableWithLocal(t *testing.T, config Config, local NodeID) (*RoutingTable, *AddressBook) {
	t.Helper()
	book := NewAddressBook()
	var table *RoutingTable
	supervisor, err := NewPingSupervisor(config.PingTimeout, func(msg Message, replacement interface{}) {
		rr := replacement.(replacementRecord)
		table.onPingTimeout(rr.bucket, rr.pinged, rr.candidate)
	})
	assert.NoError(t, err)
	t.Cleanup(supervisor.Close)

	table, err = NewRoutingTable(local, config, book, supervisor, NewIDGenerator())
	assert.NoError(t, err)
	t.Cleanup(table.Close)

	return table, book
}

// With an 8-bit id space and local id 0b00000101, an id that differs
// first at bit 0 lands in bucket 0 and one that differs at the top
// bit lands in bucket 7.
func TestBucketMaskDerivation(t *testing.T) {
	config := testConfig()
	config.IDLength = 8
	table, _ := newTestTableWithLocal(t, config, MustHexID("0x05"))

	i, err := table.findBucket(MustHexID("0x04"))
	assert.NoError(t, err)
	assert.Equal(t, 0, i)

	i, err = table.findBucket(MustHexID("0x80"))
	assert.NoError(t, err)
	assert.Equal(t, 7, i)
}

func TestInsertIntoEmptyTable(t *testing.T) {
	config := testConfig()
	config.IDLength = 8
	config.K = 3
	table, _ := newTestTableWithLocal(t, config, MustHexID("0x05"))

	for _, id := range []NodeID{MustHexID("0x06"), MustHexID("0x07"), MustHexID("0x04")} {
		assert.NoError(t, table.Insert(id, true))
	}

	assert.Equal(t, 1, table.buckets[0].Count())
	assert.True(t, table.buckets[0].Contains(MustHexID("0x04")))
	assert.Equal(t, 2, table.buckets[1].Count())
	assert.True(t, table.buckets[1].Contains(MustHexID("0x06")))
	assert.True(t, table.buckets[1].Contains(MustHexID("0x07")))

	closest := table.FindClosest(MustHexID("0x00"), 3)
	assert.Equal(t, []NodeID{MustHexID("0x04"), MustHexID("0x06"), MustHexID("0x07")}, closest)
}

// Offering the same candidate repeatedly against a full bucket keeps
// exactly one pool entry and never has more than one PING in flight.
func TestRepeatedOfferSendsSinglePing(t *testing.T) {
	config := testConfig()
	config.K = 1
	config.PingTimeout = time.Minute // the probe must stay in flight for the whole test
	table, book, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))
	book.Register(resident, silentSink{})

	candidate, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for candidate == resident {
		candidate, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	for i := 0; i < 10; i++ {
		assert.NoError(t, table.Insert(candidate, true))
	}
	assert.Equal(t, 1, table.pools[4].Len())

	table.scanPoolsOnce()
	assert.Equal(t, 1, table.supervisor.Len())

	// Further offers and scans while the probe is in flight must not
	// start a second PING for the same bucket.
	assert.NoError(t, table.Insert(candidate, true))
	table.scanPoolsOnce()
	assert.Equal(t, 1, table.supervisor.Len())
	assert.True(t, table.pools[4].busy)
}

func TestNewRoutingTableRejectsInvalidConfig(t *testing.T) {
	bad := testConfig()
	bad.K = 0
	_, err := NewRoutingTable(NodeID{}, bad, NewAddressBook(), nil, NewIDGenerator())
	assert.Error(t, err)
}

func TestFindBucketRejectsLocalID(t *testing.T) {
	table, _, local := newTestTable(t, testConfig())
	assert.Equal(t, ErrInvalidLocalID, table.Insert(local, true))
}

func TestFindBucketIsDeterministic(t *testing.T) {
	table, _, _ := newTestTable(t, testConfig())
	id, err := table.RandomIDInBucket(5)
	assert.NoError(t, err)
	i1, err := table.findBucket(id)
	assert.NoError(t, err)
	i2, err := table.findBucket(id)
	assert.NoError(t, err)
	assert.Equal(t, 5, i1)
	assert.Equal(t, i1, i2)
}

func TestInsertNewCandidateIsFindable(t *testing.T) {
	table, _, _ := newTestTable(t, testConfig())
	id, err := table.RandomIDInBucket(3)
	assert.NoError(t, err)

	assert.NoError(t, table.Insert(id, true))
	closest := table.FindClosest(id, 10)
	assert.Contains(t, closest, id)
}

// Inserting a candidate already present must not create a second
// entry.
func TestInsertExistingCandidateIsTouchedNotDuplicated(t *testing.T) {
	table, _, _ := newTestTable(t, testConfig())
	id, err := table.RandomIDInBucket(3)
	assert.NoError(t, err)

	assert.NoError(t, table.Insert(id, true))
	assert.NoError(t, table.Insert(id, true))

	closest := table.FindClosest(id, 10)
	count := 0
	for _, got := range closest {
		if got == id {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// Once a bucket is at capacity, a new candidate is held in the
// bucket's pool rather than placed directly, and is not yet reachable
// through FindClosest.
func TestInsertFullBucketDefersToPool(t *testing.T) {
	config := testConfig()
	config.K = 1
	table, _, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))

	waiting, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for waiting == resident {
		waiting, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	assert.NoError(t, table.Insert(waiting, true))

	closest := table.FindClosest(waiting, 10)
	assert.NotContains(t, closest, waiting)
	assert.Contains(t, closest, resident)
	assert.True(t, table.pools[4].Contains(waiting))
}

// The one legal withContext=false call (seeding the well-known
// bootstrap origin into a full bucket) is simply dropped, never
// queued to the pool.
func TestInsertBootstrapExceptionSkipsPool(t *testing.T) {
	config := testConfig()
	config.K = 1
	table, _, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))

	origin, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for origin == resident {
		origin, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	assert.NoError(t, table.Insert(origin, false))
	assert.False(t, table.pools[4].Contains(origin))
}

// fakePingSink answers every PING it receives with a PING_RESPONSE
// delivered directly into the supplied table, so pingForReplacement's
// success path can be driven deterministically without a full
// NodeCore receive loop.
type fakePingSink struct {
	table *RoutingTable
	id    NodeID
}

func (s *fakePingSink) Send(msg Message) error {
	if msg.Name != Ping {
		return nil
	}
	resp := Message{
		RequestID:   msg.RequestID,
		Name:        PingResponse,
		SenderID:    s.id,
		HasSender:   true,
		RecipientID: msg.SenderID,
	}
	s.table.OnPingResponse(resp)
	return nil
}

type silentSink struct{}

func (silentSink) Send(msg Message) error { return nil }

// A live least-recently-seen resident survives a replacement PING,
// and the replacement candidate is dropped from the pool.
func TestPingForReplacementSuccessKeepsResident(t *testing.T) {
	config := testConfig()
	config.K = 1
	table, book, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))
	book.Register(resident, &fakePingSink{table: table, id: resident})

	candidate, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for candidate == resident {
		candidate, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	assert.NoError(t, table.Insert(candidate, true))

	table.scanPoolsOnce()
	// OnPingResponse runs synchronously inside fakePingSink.Send above.

	closest := table.FindClosest(resident, 10)
	assert.Contains(t, closest, resident)
	assert.NotContains(t, closest, candidate)
	assert.False(t, table.pools[4].Contains(candidate))
	assert.False(t, table.pools[4].busy)
}

// A resident that never answers its replacement PING is evicted and
// the waiting candidate takes its place.
func TestPingForReplacementTimeoutEvicts(t *testing.T) {
	config := testConfig()
	config.K = 1
	config.PingTimeout = 10 * time.Millisecond
	table, book, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))
	book.Register(resident, silentSink{}) // never answers

	candidate, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for candidate == resident {
		candidate, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	assert.NoError(t, table.Insert(candidate, true))

	table.scanPoolsOnce()

	assert.Eventually(t, func() bool {
		closest := table.FindClosest(candidate, 10)
		for _, id := range closest {
			if id == candidate {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	closest := table.FindClosest(resident, 10)
	assert.NotContains(t, closest, resident)
}

// A resident with no registered Sink at all is treated the same as a
// timed-out PING.
func TestPingForReplacementNoSinkIsImmediateTimeout(t *testing.T) {
	config := testConfig()
	config.K = 1
	table, _, _ := newTestTable(t, config)

	resident, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(resident, true))
	// resident is never registered in the address book.

	candidate, err := table.RandomIDInBucket(4)
	assert.NoError(t, err)
	for candidate == resident {
		candidate, err = table.RandomIDInBucket(4)
		assert.NoError(t, err)
	}
	assert.NoError(t, table.Insert(candidate, true))

	table.scanPoolsOnce()

	closest := table.FindClosest(candidate, 10)
	assert.Contains(t, closest, candidate)
}

func TestFindClosestOrdersAscendingAndBounds(t *testing.T) {
	table, _, local := newTestTable(t, testConfig())
	var ids []NodeID
	for i := 0; i < 6; i++ {
		id, err := table.RandomIDInBucket(i + 2)
		assert.NoError(t, err)
		assert.NoError(t, table.Insert(id, true))
		ids = append(ids, id)
	}

	top3 := table.FindClosest(local, 3)
	assert.Len(t, top3, 3)
	for i := 1; i < len(top3); i++ {
		ordered := Less(Xor(top3[i-1], local), Xor(top3[i], local)) || Xor(top3[i-1], local) == Xor(top3[i], local)
		if !ordered {
			t.Logf("unordered result: %s", spew.Sdump(top3))
		}
		assert.True(t, ordered)
	}

	all := table.FindClosest(local, 1000)
	assert.Len(t, all, len(ids))
}

func TestRandomIDInBucketRejectsOutOfRange(t *testing.T) {
	table, _, _ := newTestTable(t, testConfig())
	_, err := table.RandomIDInBucket(-1)
	assert.Error(t, err)
	_, err = table.RandomIDInBucket(table.config.IDLength)
	assert.Error(t, err)
}

func TestDumpRendersOnlyNonEmptyBuckets(t *testing.T) {
	table, _, _ := newTestTable(t, testConfig())
	assert.Equal(t, "{}", table.Dump())

	id, err := table.RandomIDInBucket(2)
	assert.NoError(t, err)
	assert.NoError(t, table.Insert(id, true))

	dump := table.Dump()
	assert.Contains(t, dump, "2:[")
	assert.Contains(t, dump, id.String())
}
