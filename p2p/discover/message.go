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

// MessageName tags the variant of a Message: one record shape keyed
// by name, dispatched through a switch, rather than a base/subclass
// tree.
type MessageName string

const (
	FindNode         MessageName = "FIND_NODE"
	FindNodeResponse MessageName = "FIND_NODE_RESPONSE"
	Ping             MessageName = "PING"
	PingResponse     MessageName = "PING_RESPONSE"
	Disconnect       MessageName = "DISCONNECT"
	Reconnect        MessageName = "RECONNECT"
	Terminate        MessageName = "TERMINATE"
)

// expectsResponse reports whether name is ever the Name of a request
// that a responder replies to.
func (n MessageName) expectsResponse() bool {
	switch n {
	case FindNode, Ping:
		return true
	default:
		return false
	}
}

// Message is the shape common to every wire message:
// {uid, request_id, name, sender_id?, recipient_id, args?}. args
// holds a MessageName-specific payload:
//   - FindNode: the target NodeID being searched for.
//   - FindNodeResponse: a []NodeID of up to L closest ids.
//   - Ping, PingResponse, Disconnect, Reconnect, Terminate: nil.
type Message struct {
	UID         uint64
	RequestID   uint64
	Name        MessageName
	SenderID    NodeID
	HasSender   bool
	RecipientID NodeID
	Args        interface{}
}

// FindNodeTarget type-asserts Args for a FIND_NODE message.
func (m Message) FindNodeTarget() NodeID {
	return m.Args.(NodeID)
}

// FindNodeResponseIDs type-asserts Args for a FIND_NODE_RESPONSE
// message.
func (m Message) FindNodeResponseIDs() []NodeID {
	return m.Args.([]NodeID)
}
