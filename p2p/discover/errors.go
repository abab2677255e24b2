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

import "errors"

// Programmer errors are returned (never silently swallowed) so the
// caller that made the mistake aborts the containing operation. The
// two transport errors below are returned to callers outside the
// receive loop (Send, Bootstrap, Ping); inside the receive loop such
// transients are handled where they occur and never escape it.
var (
	// ErrNotFound is returned by Bucket.Remove when the given id is
	// not present; evicting an absent id is a programmer error.
	ErrNotFound = errors.New("discover: id not found in bucket")

	// ErrDuplicateRequestID is returned by PingSupervisor.Add when
	// request_id is already tracked.
	ErrDuplicateRequestID = errors.New("discover: duplicate request id")

	// ErrRecipientUnknown is returned when a NodeCore tries to reach a
	// recipient with no registered Sink in the AddressBook.
	ErrRecipientUnknown = errors.New("discover: recipient not registered in address book")

	// ErrInboxFull is returned by NodeCore.Send when the recipient's
	// bounded inbound queue has no free capacity: a transient and
	// locally recoverable condition, never a panic.
	ErrInboxFull = errors.New("discover: recipient inbox full")
)
