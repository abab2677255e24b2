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

import "github.com/rcrowley/go-metrics"

// reg is this package's metrics destination: one registry, many named
// meters/gauges covering routing-table and supervisor activity.
var reg = metrics.NewRegistry()

var (
	metricBucketInsert   = metrics.NewRegisteredMeter("kad/bucket/insert", reg)
	metricBucketEvict    = metrics.NewRegisteredMeter("kad/bucket/evict", reg)
	metricBucketTouch    = metrics.NewRegisteredMeter("kad/bucket/touch", reg)
	metricPoolOffer      = metrics.NewRegisteredMeter("kad/pool/offer", reg)
	metricPoolDedup      = metrics.NewRegisteredMeter("kad/pool/dedup", reg)
	metricPingSent       = metrics.NewRegisteredMeter("kad/ping/sent", reg)
	metricPingTimeout    = metrics.NewRegisteredMeter("kad/ping/timeout", reg)
	metricPingResponse   = metrics.NewRegisteredMeter("kad/ping/response", reg)
	metricPingDuplicate  = metrics.NewRegisteredMeter("kad/ping/duplicate_response", reg)
	metricFindNodeServed = metrics.NewRegisteredMeter("kad/findnode/served", reg)

	metricBucketOccupancy = metrics.GetOrRegisterGauge("kad/bucket/occupancy", reg)
)

// Registry exposes the package's metrics registry so a process can
// wire it into its own reporting, e.g. dumping it to a file on a
// timer, without this package needing to know about file paths.
func Registry() metrics.Registry {
	return reg
}
