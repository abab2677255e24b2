// Copyright 2017 The go-ethereum Authors
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

// This file is home to this package's mlog line declarations: every
// line a NodeCore can emit is declared here once, documented, and
// filled in with SetDetailValues at its call site. Each event also
// becomes a JSON record through the node's log sink (see logMessage
// and Snapshot in core.go), not just a freeform text line.
package discover

import "github.com/eth-classic/kademlia/logger"

var mlogMessageSend = logger.MLogT{
	Description: "Emitted once for every message a node sends.",
	Receiver:    "MESSAGE",
	Verb:        "SEND",
	Subject:     "TO",
	Details: []logger.MLogDetailT{
		{Owner: "MESSAGE", Key: "NAME", Value: "STRING"},
		{Owner: "MESSAGE", Key: "UID", Value: "INT"},
		{Owner: "MESSAGE", Key: "TO", Value: "STRING"},
	},
}

var mlogMessageReceive = logger.MLogT{
	Description: "Emitted once for every message a node dequeues from its inbox, before dispatch.",
	Receiver:    "MESSAGE",
	Verb:        "RECEIVE",
	Subject:     "FROM",
	Details: []logger.MLogDetailT{
		{Owner: "MESSAGE", Key: "NAME", Value: "STRING"},
		{Owner: "MESSAGE", Key: "UID", Value: "INT"},
		{Owner: "MESSAGE", Key: "FROM", Value: "STRING"},
	},
}

var mlogRoutingTableSnapshot = logger.MLogT{
	Description: "A point-in-time dump of a node's routing table.",
	Receiver:    "ROUTING_TABLE",
	Verb:        "DUMP",
	Subject:     "SELF",
	Details: []logger.MLogDetailT{
		{Owner: "ROUTING_TABLE", Key: "NODE_ID", Value: "STRING"},
	},
}
