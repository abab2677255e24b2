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

// Package logger provides the self-documenting mlog line schema
// (MLogT/MLogDetailT) and the structured JSON-lines sinks that record
// it.
package logger

import "fmt"

// MLogDetailT names one field of an MLogT line: who it belongs to
// (Owner), its key, and — once SetDetailValues has run — its value.
type MLogDetailT struct {
	Owner string
	Key   string
	Value interface{}
}

// MLogT documents one self-describing log line: a Receiver performs
// a Verb on a Subject, carrying zero or more Details. Packages declare
// one MLogT var per distinct event they log (see p2p/discover/mlog.go),
// and call SetDetailValues at each call site to fill in that event's
// values.
type MLogT struct {
	Description string
	Receiver    string
	Verb        string
	Subject     string
	Details     []MLogDetailT
}

// SetDetailValues returns a copy of m with each Details[i].Value set
// from detailVals, in order. It panics if the argument count doesn't
// match the declared Details — a call-site/declaration mismatch is a
// programmer error, never a runtime condition a caller can recover
// from.
func (m MLogT) SetDetailValues(detailVals ...interface{}) MLogT {
	if len(detailVals) != len(m.Details) {
		panic(fmt.Sprintf("logger: mlog %s.%s.%s: want %d detail values, got %d",
			m.Receiver, m.Verb, m.Subject, len(m.Details), len(detailVals)))
	}
	out := m
	out.Details = make([]MLogDetailT, len(m.Details))
	copy(out.Details, m.Details)
	for i, v := range detailVals {
		out.Details[i].Value = v
	}
	return out
}

// String renders m as "$RECEIVER $VERB $SUBJECT [detail] [detail] ...",
// a human-readable console echo alongside the JSON sink.
func (m MLogT) String() string {
	out := fmt.Sprintf("%s %s %s", placeholder(m.Receiver), placeholder(m.Verb), placeholder(m.Subject))
	for _, d := range m.Details {
		out += fmt.Sprintf(" [%s:%s=%v]", d.Owner, d.Key, d.Value)
	}
	return out
}

func placeholder(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
