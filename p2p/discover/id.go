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

// Package discover implements the routing subsystem of a Kademlia
// distributed hash table: the per-node bucket table, its liveness
// supervisor, and the handlers for the FIND_NODE/PING wire messages.
package discover

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// idByteLen is the width, in bytes, of the fixed array backing NodeID.
// It bounds the id length a Config may declare (id_length <= idByteLen*8);
// unused high-order bytes are always zero. 256 bits comfortably covers
// the typical 128- and 160-bit id spaces.
const idByteLen = 32

// NodeID is an unsigned integer identifier of configured bit width.
// It is a fixed-size value (comparable, usable as a map key) so that
// it can serve directly as the key type for buckets, pools, and the
// AddressBook.
type NodeID [idByteLen]byte

// ErrInvalidLocalID is returned when an operation is asked to place
// the local node's own id into its own routing table.
var ErrInvalidLocalID = fmt.Errorf("discover: local id cannot be inserted into its own routing table")

// Big returns the numeric value of id.
func (id NodeID) Big() *big.Int {
	return new(big.Int).SetBytes(id[:])
}

// NodeIDFromBig packs the value of b into a NodeID, zero-extended on
// the left. It panics if b is negative or does not fit in idByteLen
// bytes; both are programmer errors (bad random generation or a
// misconfigured id_length), not recoverable protocol conditions.
func NodeIDFromBig(b *big.Int) NodeID {
	if b.Sign() < 0 {
		panic("discover: negative node id")
	}
	raw := b.Bytes()
	if len(raw) > idByteLen {
		panic("discover: node id overflows the configured width")
	}
	var id NodeID
	copy(id[idByteLen-len(raw):], raw)
	return id
}

// HexID parses a hex string (with or without 0x prefix) into a NodeID.
func HexID(s string) (NodeID, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return NodeID{}, err
	}
	if len(raw) > idByteLen {
		return NodeID{}, fmt.Errorf("discover: hex id too long (%d bytes)", len(raw))
	}
	var id NodeID
	copy(id[idByteLen-len(raw):], raw)
	return id, nil
}

// MustHexID is HexID but panics on error; it exists for tests and
// golden-vector tables where the input is known-good at compile time.
func MustHexID(s string) NodeID {
	id, err := HexID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// RandomNodeID returns a uniformly random id whose value fits in the
// low idLength bits.
func RandomNodeID(idLength int) (NodeID, error) {
	nbytes := (idLength + 7) / 8
	raw := make([]byte, nbytes)
	if _, err := rand.Read(raw); err != nil {
		return NodeID{}, err
	}
	b := new(big.Int).SetBytes(raw)
	b.And(b, maxValue(idLength))
	return NodeIDFromBig(b), nil
}

// maxValue returns (1<<bits)-1 as a *big.Int.
func maxValue(bits int) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
}

// String renders id as a 0x-prefixed hex string.
func (id NodeID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// Xor returns the bitwise XOR distance between id and other.
func Xor(a, b NodeID) NodeID {
	var out NodeID
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// Less reports whether a, interpreted as an unsigned integer, is
// numerically smaller than b. Because both are fixed-width and
// zero-extended on the left, byte-lexicographic order is numeric
// order.
func Less(a, b NodeID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

// IsZero reports whether id is the all-zero value.
func (id NodeID) IsZero() bool {
	return id == NodeID{}
}
