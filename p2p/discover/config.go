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
	"fmt"
	"time"
)

// Config is the immutable-after-construction configuration shared by
// a RoutingTable, its PingSupervisor, and the owning NodeCore.
type Config struct {
	// IDLength is the bit width of every node id and the number of
	// buckets in a RoutingTable.
	IDLength int

	// K is the per-bucket capacity.
	K int

	// Alpha is the concurrency factor for iterative lookups. It is
	// retained for wire/config compatibility; this package does not
	// perform the iterative lookup itself.
	Alpha int

	// PingTimeout is how long an outstanding PING waits for a
	// PING_RESPONSE before the PingSupervisor declares it expired.
	PingTimeout time.Duration

	// FindNodeTimeout is the configured expiry for an outstanding
	// FIND_NODE. The response path here is fire-and-forget; this
	// value is surfaced for a higher retry layer.
	FindNodeTimeout time.Duration

	// PoolScanPeriod is the tick interval of the per-bucket
	// insertion-pool scanner.
	PoolScanPeriod time.Duration
}

// DefaultConfig returns a 128-bit id space, bucket capacity 20,
// alpha 3, three-second message timeouts, and a one-second pool scan
// period.
func DefaultConfig() Config {
	return Config{
		IDLength:        128,
		K:               20,
		Alpha:           3,
		PingTimeout:     3 * time.Second,
		FindNodeTimeout: 3 * time.Second,
		PoolScanPeriod:  1 * time.Second,
	}
}

// Validate reports a programmer error in the configuration itself
// (not a protocol condition) — a zero or negative id length, bucket
// capacity, or period makes the rest of the package's invariants
// meaningless.
func (c Config) Validate() error {
	switch {
	case c.IDLength <= 0 || c.IDLength > idByteLen*8:
		return fmt.Errorf("discover: id_length %d out of range (1..%d)", c.IDLength, idByteLen*8)
	case c.K <= 0:
		return fmt.Errorf("discover: k must be positive, got %d", c.K)
	case c.Alpha <= 0:
		return fmt.Errorf("discover: alpha must be positive, got %d", c.Alpha)
	case c.PingTimeout <= 0:
		return fmt.Errorf("discover: message_ping_node_timeout must be positive")
	case c.FindNodeTimeout <= 0:
		return fmt.Errorf("discover: message_find_node_timeout must be positive")
	case c.PoolScanPeriod <= 0:
		return fmt.Errorf("discover: inserter_scanner_period must be positive")
	}
	return nil
}
