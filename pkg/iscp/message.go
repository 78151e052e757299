// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import "time"

// Message is one decoded command or reply taken off the wire.
type Message struct {
	// Command is the decoded command text, e.g. "PWR01".
	Command string
	// UnitType is the byte following the start marker ('1' for receivers).
	UnitType byte
	// Header is the parsed eISCP header, nil for serial framing.
	Header *Header
	// Raw holds the complete frame bytes as received.
	Raw []byte
	// Timestamp is the time the frame was decoded.
	Timestamp time.Time
}

// GroupCode returns the 3 character feature code of the message.
func (m Message) GroupCode() string {
	return GroupCode(m.Command)
}

// Value returns the parameter part of the message.
func (m Message) Value() string {
	return Value(m.Command)
}

// IsNotAvailable reports whether the receiver answered with the N/A sentinel.
func (m Message) IsNotAvailable() bool {
	return m.Value() == NotAvailable
}
