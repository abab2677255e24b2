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
	"io"
	"sync"

	"github.com/mailru/easyjson/jwriter"
)

// MessageRecord is the "message" log-record family: one line per
// message a node sends or receives.
type MessageRecord struct {
	Name        string
	UID         uint64
	RequestID   uint64
	HasSender   bool
	SenderID    string
	RecipientID string
	HasArgs     bool
	Args        string
	Action      string // "send" or "receive"
}

func (r MessageRecord) marshal(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"log-type":"message","name":`)
	w.String(r.Name)
	w.RawString(`,"uid":`)
	w.Uint64(r.UID)
	w.RawString(`,"request_id":`)
	w.Uint64(r.RequestID)
	w.RawString(`,"sender_id":`)
	if r.HasSender {
		w.String(r.SenderID)
	} else {
		w.RawString("null")
	}
	w.RawString(`,"recipient_id":`)
	w.String(r.RecipientID)
	w.RawString(`,"args":`)
	if r.HasArgs {
		w.String(r.Args)
	} else {
		w.RawString("null")
	}
	w.RawString(`,"action":`)
	w.String(r.Action)
	w.RawByte('}')
}

// DataRecord is the "data" log-record family: a routing-table
// textual-dump snapshot.
type DataRecord struct {
	Type       string // always "ROUTING_TABLE"
	MessageUID uint64
	NodeID     string
	Data       string
}

func (r DataRecord) marshal(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"log-type":"data","type":`)
	w.String(r.Type)
	w.RawString(`,"message_uid":`)
	w.Uint64(r.MessageUID)
	w.RawString(`,"node_id":`)
	w.String(r.NodeID)
	w.RawString(`,"data":`)
	w.String(r.Data)
	w.RawByte('}')
}

// RecordWriter appends MessageRecord/DataRecord values as JSON lines
// to out, one per call, serialized with github.com/mailru/easyjson's
// low-level jwriter.Writer directly rather than through generated
// (Un)MarshalJSON methods — the two record shapes here are small and
// fixed, so hand-written field writes avoid a codegen step for a
// two-struct schema.
type RecordWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewRecordWriter wraps out (typically a *RotatingFileSink, or
// os.Stdout for a console echo) as a RecordWriter.
func NewRecordWriter(out io.Writer) *RecordWriter {
	return &RecordWriter{out: out}
}

// WriteMessage appends rec as one JSON line.
func (rw *RecordWriter) WriteMessage(rec MessageRecord) error {
	return rw.writeLine(rec.marshal)
}

// WriteData appends rec as one JSON line.
func (rw *RecordWriter) WriteData(rec DataRecord) error {
	return rw.writeLine(rec.marshal)
}

func (rw *RecordWriter) writeLine(marshal func(*jwriter.Writer)) error {
	var jw jwriter.Writer
	marshal(&jw)
	jw.RawByte('\n')

	rw.mu.Lock()
	defer rw.mu.Unlock()
	_, err := jw.DumpTo(rw.out)
	return err
}
