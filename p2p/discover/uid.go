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

import "sync/atomic"

// IDGenerator mints the per-process monotonic uid and request_id
// values every Message carries. Like AddressBook, it is an explicit
// collaborator threaded through NewNodeCore/NewRoutingTable rather
// than an ambient package singleton, so tests and multi-network
// processes instantiate their own.
type IDGenerator struct {
	uid       uint64
	requestID uint64
}

// NewIDGenerator returns a generator starting from zero. One is
// typically shared process-wide across every NodeCore in the same
// simulated network, the same way a single AddressBook is shared.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NextUID returns the next message correlation uid.
func (g *IDGenerator) NextUID() uint64 {
	return atomic.AddUint64(&g.uid, 1)
}

// NextRequestID returns the next message request id.
func (g *IDGenerator) NextRequestID() uint64 {
	return atomic.AddUint64(&g.requestID, 1)
}
