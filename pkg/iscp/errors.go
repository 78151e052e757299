// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"errors"
	"fmt"
	"time"
)

// ErrConnectionClosed is returned when the peer closes the connection or the
// connection is closed locally while a read is pending.
var ErrConnectionClosed = errors.New("iscp: connection closed")

// errReadTimeout marks a read that hit its deadline.
var errReadTimeout = errors.New("iscp: read timeout")

// ConnectionError is returned when a connection to the receiver cannot be
// established.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("iscp: cannot connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// AcknowledgmentTimeoutError is returned when no reply with the command's
// group code arrives within the acknowledgment window.
type AcknowledgmentTimeoutError struct {
	Command string
	// LastReply is the last reply seen while waiting, empty if none.
	LastReply string
	Elapsed   time.Duration
}

func (e *AcknowledgmentTimeoutError) Error() string {
	return fmt.Sprintf("iscp: receiver did not acknowledge command after %v, sent: %q, received: %q",
		e.Elapsed, e.Command, e.LastReply)
}

// MalformedFrameError is returned for a frame header that cannot describe a
// valid frame.
type MalformedFrameError struct {
	Reason       string
	HeaderLength int32
	DataLength   int32
}

func (e *MalformedFrameError) Error() string {
	return "iscp: malformed frame: " + e.Reason
}
