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
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/snappy"
)

// RotatingFileSink is an io.Writer that appends to a current log file
// and, once it crosses maxBytes, closes and snappy-compresses it
// before opening a fresh one. Segments are named
// tag.timestamp.seq.mlog under a single caller-supplied directory.
type RotatingFileSink struct {
	mu       sync.Mutex
	dir      string
	tag      string
	maxBytes int64

	cur      *os.File
	curBytes int64
	seq      int
}

// NewRotatingFileSink opens the first segment under dir, tagged tag,
// rotating once a segment reaches maxBytes.
func NewRotatingFileSink(dir, tag string, maxBytes int64) (*RotatingFileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	s := &RotatingFileSink{dir: dir, tag: tag, maxBytes: maxBytes}
	if err := s.openSegment(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RotatingFileSink) openSegment() error {
	t := timeNow()
	name := fmt.Sprintf("%s.%04d%02d%02d-%02d%02d%02d.%d.mlog",
		s.tag, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), s.seq)
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	s.cur = f
	s.curBytes = 0
	s.seq++
	return nil
}

// timeNow exists only so segment naming reads like a single clock
// call at each use; it is not a seam for tests (time.Now is stdlib
// and deterministic enough for a file name).
func timeNow() time.Time { return time.Now() }

// Write implements io.Writer. A single call is never split across
// segments, so one JSON line always lands entirely within one
// (possibly over-sized) segment.
func (s *RotatingFileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.cur.Write(p)
	s.curBytes += int64(n)
	if err != nil {
		return n, err
	}
	if s.curBytes >= s.maxBytes {
		if err := s.rotateLocked(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (s *RotatingFileSink) rotateLocked() error {
	closed := s.cur
	closedName := closed.Name()
	if err := closed.Close(); err != nil {
		return err
	}
	if err := compressAndRemove(closedName); err != nil {
		return err
	}
	return s.openSegment()
}

// compressAndRemove snappy-compresses path to path+".snappy" and
// removes the uncompressed original.
func compressAndRemove(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, raw)
	if err := os.WriteFile(path+".snappy", compressed, 0o644); err != nil {
		return err
	}
	return os.Remove(path)
}

// Close flushes and closes the current segment without compressing
// it — a still-open segment is left as plain text so it can be tailed
// live; only rotated (completed) segments are compressed.
func (s *RotatingFileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Close()
}
