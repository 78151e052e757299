// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package iscp implements the Integra Serial Control Protocol as spoken by
// Onkyo and Integra AV receivers.
//
// The package covers the eISCP network framing (a 16 byte "ISCP" header in
// front of every command), the plain RS-232 framing, stream reassembly across
// partial reads, and a connection object that correlates replies to the
// commands that caused them.
package iscp

import "time"

// Frame header layout
const (
	Magic          = "ISCP"
	HeaderSize     = 16 // magic + header length + data length + version + reserved
	Version        = 0x01
	lengthFieldEnd = 12 // magic + header length + data length
)

// Header sanity limits. Receivers always send HeaderSize; anything outside
// these bounds is treated as a malformed frame.
const (
	MinHeaderSize = HeaderSize
	MaxHeaderSize = 64
	MaxDataSize   = 64 * 1024
)

// Payload framing bytes
const (
	StartByte = '!'
	EOFByte   = 0x1A
	CRByte    = '\r'
	LFByte    = '\n'

	payloadPrefixSize  = 2 // start byte + unit type
	payloadTrailerSize = 3 // EOF CR LF
)

// Unit types (second payload byte)
const (
	UnitReceiver  = '1'
	UnitDiscovery = 'x'
)

// Command vocabulary
const (
	GroupCodeSize = 3
	ParamQuery    = "QSTN"
	ParamUp       = "UP"
	ParamDown     = "DOWN"
	NotAvailable  = "N/A"
)

// Network defaults
const (
	DefaultPort           = 60128
	DefaultConnectTimeout = 2 * time.Second
	DefaultAckTimeout     = time.Second
	DefaultListenTimeout  = 10 * time.Hour
	defaultReadSize       = 1024
)
