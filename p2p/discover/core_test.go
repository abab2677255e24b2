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

	"github.com/stretchr/testify/assert"
)

func newTestCore(t *testing.T, config Config, book *AddressBook, ids *IDGenerator, hook RefreshHook) *NodeCore {
	t.Helper()
	id, err := RandomNodeID(config.IDLength)
	assert.NoError(t, err)
	n, err := NewNodeCore(id, config, book, ids, 64, hook, nil)
	assert.NoError(t, err)
	t.Cleanup(n.Close)
	return n
}

func TestNodeCoreBootstrapRegistersOriginAndFindsNode(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()

	origin := newTestCore(t, config, book, ids, nil)
	local := newTestCore(t, config, book, ids, nil)

	assert.NoError(t, local.Bootstrap(origin.ID()))

	assert.Eventually(t, func() bool {
		return local.Table().FindClosest(origin.ID(), 1) != nil &&
			len(local.Table().FindClosest(origin.ID(), 1)) == 1
	}, time.Second, 5*time.Millisecond)

	// origin, too, must have learned about local via the FIND_NODE it
	// received.
	assert.Eventually(t, func() bool {
		closest := origin.Table().FindClosest(local.ID(), 1)
		return len(closest) == 1 && closest[0] == local.ID()
	}, time.Second, 5*time.Millisecond)
}

func TestNodeCoreBootstrapAgainstSelfIsNoop(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	local := newTestCore(t, config, book, NewIDGenerator(), nil)
	assert.NoError(t, local.Bootstrap(local.ID()))
	assert.Empty(t, local.Table().FindClosest(local.ID(), 10))
}

func TestNodeCoreRefreshHookFiresOnlyForBootstrapResponse(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()
	origin := newTestCore(t, config, book, ids, nil)

	called := make(chan []NodeID, 1)
	local := newTestCore(t, config, book, ids, func(discovered []NodeID) {
		called <- discovered
	})

	assert.NoError(t, local.Bootstrap(origin.ID()))

	select {
	case discovered := <-called:
		assert.NotNil(t, discovered)
	case <-time.After(time.Second):
		t.Fatal("refresh hook never fired for the bootstrap response")
	}

	// A later, non-bootstrap FIND_NODE_RESPONSE (e.g. a stale or
	// duplicate reply) must be absorbed into the table but must not
	// re-fire the hook.
	stray := Message{
		RequestID:   ids.NextRequestID(),
		Name:        FindNodeResponse,
		SenderID:    origin.ID(),
		HasSender:   true,
		RecipientID: local.ID(),
		Args:        []NodeID{},
	}
	local.handleFindNodeResponse(stray)

	select {
	case <-called:
		t.Fatal("refresh hook fired for a non-bootstrap response")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNodeCorePingRoundTrip(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()
	a := newTestCore(t, config, book, ids, nil)
	b := newTestCore(t, config, book, ids, nil)

	assert.NoError(t, a.Ping(b.ID()))

	// b must have learned about a from the PING's sender id.
	assert.Eventually(t, func() bool {
		closest := b.Table().FindClosest(a.ID(), 1)
		return len(closest) == 1 && closest[0] == a.ID()
	}, time.Second, 5*time.Millisecond)
}

// A PING whose sender has already left the address book gets neither
// a PING_RESPONSE nor a routing-table slot.
func TestNodeCorePingFromUnreachableSenderIsDropped(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()
	b := newTestCore(t, config, book, ids, nil)

	ghost, err := RandomNodeID(config.IDLength)
	assert.NoError(t, err)
	ping := Message{
		UID:         ids.NextUID(),
		RequestID:   ids.NextRequestID(),
		Name:        Ping,
		SenderID:    ghost,
		HasSender:   true,
		RecipientID: b.ID(),
	}
	assert.NoError(t, b.Send(ping))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, b.Table().FindClosest(ghost, 10))
}

// A FIND_NODE_RESPONSE carries up to Config.IDLength closest ids, not
// Config.K (the unrelated, and in this test smaller, per-bucket
// capacity).
func TestNodeCoreFindNodeRespondsWithIDLengthNotK(t *testing.T) {
	config := testConfig()
	config.K = 1
	config.IDLength = 16
	book := NewAddressBook()
	ids := NewIDGenerator()

	responder := newTestCore(t, config, book, ids, nil)
	// Seed responder's table with one entry per bucket, well beyond K,
	// so a response capped at K would visibly lose entries.
	want := 0
	for i := 0; i < config.IDLength; i++ {
		id, err := responder.Table().RandomIDInBucket(i)
		assert.NoError(t, err)
		assert.NoError(t, responder.Table().Insert(id, true))
		want++
	}

	// The asker's own buckets must be able to hold every id the reply
	// carries (plus the responder itself), or its table would cap the
	// count at K per bucket regardless of the reply's length.
	askerConfig := config
	askerConfig.K = want + 1
	asker := newTestCore(t, askerConfig, book, ids, nil)
	assert.NoError(t, asker.Bootstrap(responder.ID()))

	assert.Eventually(t, func() bool {
		return len(asker.Table().FindClosest(asker.ID(), 1000)) >= want
	}, time.Second, 5*time.Millisecond)
}

func TestNodeCoreSendToUnregisteredRecipientFails(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	a := newTestCore(t, config, book, NewIDGenerator(), nil)

	unregistered, err := RandomNodeID(config.IDLength)
	assert.NoError(t, err)
	assert.Equal(t, ErrRecipientUnknown, a.Bootstrap(unregistered))
}

// TestNodeCoreSendFullInbox exercises Send's bounded-queue behavior
// directly against a bare NodeCore (no receive loop running to drain
// it), so the overflow error is deterministic.
func TestNodeCoreSendFullInbox(t *testing.T) {
	n := &NodeCore{inbox: make(chan Message, 1)}
	assert.NoError(t, n.Send(Message{UID: 1}))
	assert.Equal(t, ErrInboxFull, n.Send(Message{UID: 2}))
}

func TestNodeCoreDisconnectDropsMessages(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()
	a := newTestCore(t, config, book, ids, nil)
	b := newTestCore(t, config, book, ids, nil)

	disconnect := Message{UID: ids.NextUID(), RequestID: ids.NextRequestID(), Name: Disconnect, RecipientID: b.ID()}
	assert.NoError(t, b.Send(disconnect))

	assert.Eventually(t, func() bool {
		return b.State() == Disconnected
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, a.Ping(b.ID()))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, b.Table().FindClosest(a.ID(), 10))

	reconnect := Message{UID: ids.NextUID(), RequestID: ids.NextRequestID(), Name: Reconnect, RecipientID: b.ID()}
	assert.NoError(t, b.Send(reconnect))
	assert.Eventually(t, func() bool {
		return b.State() == Connected
	}, time.Second, 5*time.Millisecond)
}

func TestNodeCoreTerminateDeregistersAndStopsLoop(t *testing.T) {
	config := testConfig()
	book := NewAddressBook()
	ids := NewIDGenerator()
	id, err := RandomNodeID(config.IDLength)
	assert.NoError(t, err)
	n, err := NewNodeCore(id, config, book, ids, 8, nil, nil)
	assert.NoError(t, err)

	assert.True(t, book.IsRunning(id))
	terminate := Message{UID: ids.NextUID(), RequestID: ids.NextRequestID(), Name: Terminate, RecipientID: id}
	assert.NoError(t, n.Send(terminate))

	assert.Eventually(t, func() bool {
		return !book.IsRunning(id)
	}, time.Second, 5*time.Millisecond)
}
