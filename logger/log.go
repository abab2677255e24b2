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

package logger

import (
	"fmt"
	"os"
	"sync/atomic"
)

// Level is a verbosity threshold on a coarse 0-9 scale, used to gate
// console output.
type Level int32

var verbosity int32

// SetVerbosity sets the process-wide console verbosity threshold.
func SetVerbosity(v Level) { atomic.StoreInt32(&verbosity, int32(v)) }

// V reports whether level is at or below the current verbosity
// threshold. Callers gate expensive log rendering on it before
// calling Infof.
func V(level Level) bool {
	return int32(level) <= atomic.LoadInt32(&verbosity)
}

// Infof writes a formatted line to stderr if V(level) is enabled.
func Infof(level Level, format string, args ...interface{}) {
	if !V(level) {
		return
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Fatalf writes a formatted line to stderr and exits the process with
// status 1.
func Fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
