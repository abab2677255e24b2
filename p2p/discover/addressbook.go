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

import "sync"

// Sink is the send-datagram primitive a node is reached through. It
// is implemented, for the simulated transport, by an in-process
// inbound queue; a real deployment would implement it over a UDP
// socket.
type Sink interface {
	// Send enqueues msg for delivery. It returns an error if the
	// sink can no longer accept messages (e.g. a bounded queue is
	// full, or the recipient has gone away): a transient, locally
	// recovered condition, never a panic.
	Send(msg Message) error
}

// AddressBook is the process-wide, shared registry mapping a node id
// to its Sink. It is not owned by any one node; every NodeCore
// registers itself on construction and deregisters on TERMINATE.
type AddressBook struct {
	mu    sync.RWMutex
	sinks map[NodeID]Sink
}

// NewAddressBook returns an empty, ready-to-use AddressBook.
func NewAddressBook() *AddressBook {
	return &AddressBook{sinks: make(map[NodeID]Sink)}
}

// Register associates id with sink, replacing any previous
// registration for id.
func (ab *AddressBook) Register(id NodeID, sink Sink) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	ab.sinks[id] = sink
}

// Deregister removes id's registration, if any.
func (ab *AddressBook) Deregister(id NodeID) {
	ab.mu.Lock()
	defer ab.mu.Unlock()
	delete(ab.sinks, id)
}

// Lookup returns id's Sink and true, or nil and false if id is not
// registered.
func (ab *AddressBook) Lookup(id NodeID) (Sink, bool) {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	s, ok := ab.sinks[id]
	return s, ok
}

// IsRunning reports whether id is currently registered.
func (ab *AddressBook) IsRunning(id NodeID) bool {
	_, ok := ab.Lookup(id)
	return ok
}

// Len reports how many nodes are currently registered.
func (ab *AddressBook) Len() int {
	ab.mu.RLock()
	defer ab.mu.RUnlock()
	return len(ab.sinks)
}
