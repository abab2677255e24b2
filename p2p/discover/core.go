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
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eth-classic/kademlia/logger"
)

// ConnectionState gates which messages a NodeCore's receive loop acts
// on. A RECONNECT/TERMINATE is always processed;
// everything else is silently dropped while Disconnected, simulating
// a node that has fallen off the network without tearing down its
// state.
type ConnectionState int32

const (
	Connected ConnectionState = iota
	Disconnected
)

func (s ConnectionState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// RefreshHook is called after a NodeCore absorbs the
// FIND_NODE_RESPONSE that answers its bootstrap request, with the
// node ids the response carried. It is the seam where an iterative
// lookup layer plugs in: this package stops at a single round-trip
// and hands control back to the caller, which is free to issue
// follow-up FIND_NODEs through the same NodeCore.
type RefreshHook func(discovered []NodeID)

// NodeCore is the single-consumer receive loop and message dispatcher
// owning one local NodeID's RoutingTable and PingSupervisor. All
// inbound traffic funnels through one buffered channel drained by one
// goroutine, so handlers never race each other.
type NodeCore struct {
	id     NodeID
	config Config

	book       *AddressBook
	table      *RoutingTable
	supervisor *PingSupervisor
	ids        *IDGenerator

	refreshHook RefreshHook
	// bootstrapRequestID is the request_id of the FIND_NODE(self,self)
	// Bootstrap issues; only a FIND_NODE_RESPONSE matching it continues
	// into refreshHook. Zero means Bootstrap was never called.
	// Accessed via sync/atomic: Bootstrap (caller's goroutine) writes
	// it, the receive loop reads it.
	bootstrapRequestID uint64
	logSink            *logger.RecordWriter

	inbox chan Message
	state int32 // ConnectionState, accessed via sync/atomic

	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup
}

// NewNodeCore constructs a NodeCore for id, registers it in book under
// id, and starts its receive loop. ids mints every message's uid and
// request_id; callers typically share one IDGenerator (like one
// AddressBook) across every NodeCore in the same simulated network
// inboxSize bounds the node's inbound queue; Send returns ErrInboxFull
// once it is exceeded. logSink may be nil, in which case the node
// emits no structured log records at all.
func NewNodeCore(id NodeID, config Config, book *AddressBook, ids *IDGenerator, inboxSize int, refreshHook RefreshHook, logSink *logger.RecordWriter) (*NodeCore, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	n := &NodeCore{
		id:          id,
		config:      config,
		book:        book,
		ids:         ids,
		refreshHook: refreshHook,
		logSink:     logSink,
		inbox:       make(chan Message, inboxSize),
		closeCh:     make(chan struct{}),
	}
	atomic.StoreInt32(&n.state, int32(Connected))

	supervisor, err := NewPingSupervisor(config.PingTimeout, func(msg Message, replacement interface{}) {
		rr := replacement.(replacementRecord)
		n.table.onPingTimeout(rr.bucket, rr.pinged, rr.candidate)
	})
	if err != nil {
		return nil, err
	}
	n.supervisor = supervisor

	table, err := NewRoutingTable(id, config, book, supervisor, ids)
	if err != nil {
		supervisor.Close()
		return nil, err
	}
	n.table = table

	book.Register(id, n)
	n.wg.Add(1)
	go n.run()
	return n, nil
}

// ID returns the node's local id.
func (n *NodeCore) ID() NodeID { return n.id }

// Table returns the node's RoutingTable, for inspection (Dump,
// FindClosest) by tests and the CLI demo.
func (n *NodeCore) Table() *RoutingTable { return n.table }

// State reports the node's current ConnectionState.
func (n *NodeCore) State() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&n.state))
}

// Send enqueues msg on the node's inbox (the Sink implementation
// other nodes reach this one through via the AddressBook). It never
// blocks: a full inbox is reported as ErrInboxFull rather than
// applying backpressure to the sender.
func (n *NodeCore) Send(msg Message) error {
	select {
	case n.inbox <- msg:
		return nil
	default:
		return ErrInboxFull
	}
}

// Ping sends a bare PING to target and returns any error in delivering
// it. Unlike the bucket-maintenance PINGs RoutingTable issues itself,
// this one is not registered with the PingSupervisor: it exists for
// manual, interactive probing (the CLI demo's "ping" command), so a
// PING_RESPONSE to it is simply absorbed and dropped by
// OnPingResponse's unknown-request-id path.
func (n *NodeCore) Ping(target NodeID) error {
	msg := Message{
		UID:         n.ids.NextUID(),
		RequestID:   n.ids.NextRequestID(),
		Name:        Ping,
		SenderID:    n.id,
		HasSender:   true,
		RecipientID: target,
	}
	return n.sendTo(target, msg)
}

// Bootstrap seeds the routing table with origin and issues the
// FIND_NODE(self, self) that begins populating it, remembering its
// request_id as bootstrapRequestID so handleFindNodeResponse can
// recognize the reply that continues it. origin == the local id is a
// no-op: there is nothing to bootstrap against.
func (n *NodeCore) Bootstrap(origin NodeID) error {
	if origin == n.id {
		return nil
	}
	if err := n.table.Insert(origin, false); err != nil {
		return err
	}
	reqID := n.ids.NextRequestID()
	atomic.StoreUint64(&n.bootstrapRequestID, reqID)
	msg := Message{
		UID:         n.ids.NextUID(),
		RequestID:   reqID,
		Name:        FindNode,
		SenderID:    n.id,
		HasSender:   true,
		RecipientID: origin,
		Args:        n.id,
	}
	return n.sendTo(origin, msg)
}

// Close tears the node down: it deregisters from the address book,
// stops the routing table's pool scanner and the ping supervisor's
// scan loop, and stops the receive loop. Close is idempotent and safe
// to call concurrently with the receive loop processing a TERMINATE.
func (n *NodeCore) Close() {
	n.closeOnce.Do(func() {
		n.book.Deregister(n.id)
		n.table.Close()
		n.supervisor.Close()
		close(n.closeCh)
	})
	n.wg.Wait()
}

func (n *NodeCore) run() {
	defer n.wg.Done()
	for {
		select {
		case msg := <-n.inbox:
			if n.dispatch(msg) {
				return
			}
		case <-n.closeCh:
			return
		}
	}
}

// dispatch handles one message and reports whether the receive loop
// should stop (true only for TERMINATE).
func (n *NodeCore) dispatch(msg Message) (stop bool) {
	n.logMessage(msg, "receive")
	if n.State() == Disconnected && msg.Name != Reconnect && msg.Name != Terminate {
		return false
	}
	switch msg.Name {
	case FindNode:
		n.handleFindNode(msg)
	case FindNodeResponse:
		n.handleFindNodeResponse(msg)
	case Ping:
		n.handlePing(msg)
	case PingResponse:
		n.table.OnPingResponse(msg)
	case Disconnect:
		atomic.StoreInt32(&n.state, int32(Disconnected))
	case Reconnect:
		atomic.StoreInt32(&n.state, int32(Connected))
	case Terminate:
		n.handleTerminate()
		return true
	}
	return false
}

func (n *NodeCore) handleFindNode(msg Message) {
	metricFindNodeServed.Mark(1)
	// The response carries up to IDLength ids: the cap on a
	// FIND_NODE reply is the id width/bucket count, not the
	// per-bucket capacity K. The snapshot is taken before the sender
	// is inserted, so a bootstrapping asker never finds its own id in
	// the reply.
	closest := n.table.FindClosest(msg.FindNodeTarget(), n.config.IDLength)
	resp := Message{
		UID:         n.ids.NextUID(),
		RequestID:   msg.RequestID,
		Name:        FindNodeResponse,
		SenderID:    n.id,
		HasSender:   true,
		RecipientID: msg.SenderID,
		Args:        closest,
	}
	n.sendTo(msg.SenderID, resp)
	if msg.HasSender {
		n.table.Insert(msg.SenderID, true)
	}
}

// handleFindNodeResponse absorbs every FIND_NODE_RESPONSE's ids into
// the routing table, but only continues into refreshHook when the
// response answers the one outstanding bootstrap request. A
// non-bootstrap response (a duplicate, a stale reply, or one from a
// future iterative-lookup call) is absorbed but never triggers the
// hook.
func (n *NodeCore) handleFindNodeResponse(msg Message) {
	ids := msg.FindNodeResponseIDs()
	for _, id := range ids {
		if id == n.id {
			continue
		}
		n.table.Insert(id, true)
	}
	bootstrapRequestID := atomic.LoadUint64(&n.bootstrapRequestID)
	if n.refreshHook != nil && bootstrapRequestID != 0 && msg.RequestID == bootstrapRequestID {
		n.refreshHook(ids)
	}
}

func (n *NodeCore) handlePing(msg Message) {
	// A sender that has already left the address book gets neither a
	// response nor a routing-table slot.
	if !msg.HasSender || !n.book.IsRunning(msg.SenderID) {
		return
	}
	resp := Message{
		UID:         n.ids.NextUID(),
		RequestID:   msg.RequestID,
		Name:        PingResponse,
		SenderID:    n.id,
		HasSender:   true,
		RecipientID: msg.SenderID,
	}
	n.sendTo(msg.SenderID, resp)
	n.table.Insert(msg.SenderID, true)
}

func (n *NodeCore) handleTerminate() {
	n.closeOnce.Do(func() {
		n.book.Deregister(n.id)
		n.table.Close()
		n.supervisor.Close()
		close(n.closeCh)
	})
}

func (n *NodeCore) sendTo(recipient NodeID, msg Message) error {
	sink, ok := n.book.Lookup(recipient)
	if !ok {
		return ErrRecipientUnknown
	}
	n.logMessage(msg, "send")
	return sink.Send(msg)
}

// logMessage appends a "message"-family record for msg. It is a
// no-op if no log sink was configured.
func (n *NodeCore) logMessage(msg Message, action string) {
	if n.logSink == nil {
		return
	}
	if action == "send" {
		logger.Infof(3, "%s", mlogMessageSend.SetDetailValues(string(msg.Name), msg.UID, msg.RecipientID.String()))
	} else {
		logger.Infof(3, "%s", mlogMessageReceive.SetDetailValues(string(msg.Name), msg.UID, msg.SenderID.String()))
	}
	rec := logger.MessageRecord{
		Name:        string(msg.Name),
		UID:         msg.UID,
		RequestID:   msg.RequestID,
		HasSender:   msg.HasSender,
		SenderID:    msg.SenderID.String(),
		RecipientID: msg.RecipientID.String(),
		HasArgs:     msg.Args != nil,
		Args:        argsString(msg),
		Action:      action,
	}
	n.logSink.WriteMessage(rec)
}

// Snapshot returns the node's current routing-table dump and, if a
// log sink was configured, also appends a DataRecord capturing it
// (the "data"/"ROUTING_TABLE" record family).
func (n *NodeCore) Snapshot() string {
	dump := n.table.Dump()
	if n.logSink == nil {
		return dump
	}
	logger.Infof(3, "%s", mlogRoutingTableSnapshot.SetDetailValues(n.id.String()))
	n.logSink.WriteData(logger.DataRecord{
		Type:       "ROUTING_TABLE",
		MessageUID: n.ids.NextUID(),
		NodeID:     n.id.String(),
		Data:       dump,
	})
	return dump
}

func argsString(msg Message) string {
	switch msg.Name {
	case FindNode:
		return msg.FindNodeTarget().String()
	case FindNodeResponse:
		ids := msg.FindNodeResponseIDs()
		parts := make([]string, len(ids))
		for i, id := range ids {
			parts[i] = id.String()
		}
		return strings.Join(parts, ",")
	default:
		return ""
	}
}
