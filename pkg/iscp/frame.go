// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Header is the fixed eISCP frame header.
type Header struct {
	HeaderLength int32
	DataLength   int32
	Version      byte
	Reserved     [3]byte
}

// TotalLength returns the number of bytes the header claims for the frame.
func (h Header) TotalLength() int64 {
	return int64(h.HeaderLength) + int64(h.DataLength)
}

// Encoder builds eISCP frames for transmission.
type Encoder struct {
	// UnitType follows the start byte, UnitReceiver for normal commands.
	UnitType byte
	// Terminator is appended after the command text.
	Terminator []byte
	// StrictLength makes the data length field count the real payload.
	// Receivers expect the historical len(command)+1 value, which is what
	// the zero value sends.
	StrictLength bool
}

// NewEncoder returns an encoder for commands addressed to a receiver.
func NewEncoder() *Encoder {
	return &Encoder{
		UnitType:   UnitReceiver,
		Terminator: []byte{CRByte},
	}
}

// ReplyEncoder returns an encoder producing frames shaped like the ones a
// receiver sends: strict data length and an EOF CR LF terminator.
func ReplyEncoder() *Encoder {
	return &Encoder{
		UnitType:     UnitReceiver,
		Terminator:   []byte{EOFByte, CRByte, LFByte},
		StrictLength: true,
	}
}

// Encode returns the complete wire frame for command.
func (e *Encoder) Encode(command string) []byte {
	payloadLen := payloadPrefixSize + len(command) + len(e.Terminator)

	dataLen := len(command) + 1
	if e.StrictLength {
		dataLen = payloadLen
	}

	frame := make([]byte, HeaderSize, HeaderSize+payloadLen)
	copy(frame[0:4], Magic)
	binary.BigEndian.PutUint32(frame[4:8], uint32(HeaderSize))
	binary.BigEndian.PutUint32(frame[8:12], uint32(dataLen))
	frame[12] = Version
	// frame[13:16] reserved, zero

	frame = append(frame, StartByte, e.UnitType)
	frame = append(frame, command...)
	frame = append(frame, e.Terminator...)
	return frame
}

// EncodeCommand encodes command with the default receiver encoder.
func EncodeCommand(command string) []byte {
	return NewEncoder().Encode(command)
}

// Frame is one complete eISCP frame sliced out of a byte stream.
type Frame struct {
	Header  Header
	Payload []byte
	Raw     []byte
}

// UnitType returns the unit type byte, or 0 if the payload is too short.
func (f Frame) UnitType() byte {
	if len(f.Payload) < payloadPrefixSize {
		return 0
	}
	return f.Payload[1]
}

// Command returns the payload with the start byte, unit type and the 3 byte
// terminator stripped.
func (f Frame) Command() string {
	if len(f.Payload) < payloadPrefixSize+payloadTrailerSize {
		return ""
	}
	return string(f.Payload[payloadPrefixSize : len(f.Payload)-payloadTrailerSize])
}

// DecodeFrame applies the frame decode algorithm to data.
//
// skip is the number of leading bytes that precede the magic marker and can
// be discarded. n is the length of the complete frame starting at data[skip],
// or 0 if more bytes are needed. A structurally invalid header yields a
// *MalformedFrameError; the caller should drop at least one byte past skip
// before trying again.
func DecodeFrame(data []byte) (frame Frame, skip int, n int, err error) {
	skip = scanMagic(data)
	data = data[skip:]

	if len(data) < lengthFieldEnd {
		return Frame{}, skip, 0, nil
	}

	hdr := Header{
		HeaderLength: int32(binary.BigEndian.Uint32(data[4:8])),
		DataLength:   int32(binary.BigEndian.Uint32(data[8:12])),
	}
	if err := checkLengths(hdr); err != nil {
		return Frame{}, skip, 0, err
	}

	total := int(hdr.TotalLength())
	if len(data) < total {
		return Frame{}, skip, 0, nil
	}

	hdr.Version = data[12]
	copy(hdr.Reserved[:], data[13:16])

	raw := make([]byte, total)
	copy(raw, data[:total])
	return Frame{
		Header:  hdr,
		Payload: raw[hdr.HeaderLength:],
		Raw:     raw,
	}, skip, total, nil
}

// checkLengths rejects header and data lengths that cannot describe a frame.
func checkLengths(h Header) error {
	switch {
	case h.HeaderLength < MinHeaderSize || h.HeaderLength > MaxHeaderSize:
		return &MalformedFrameError{
			Reason:       fmt.Sprintf("header length %d outside [%d, %d]", h.HeaderLength, MinHeaderSize, MaxHeaderSize),
			HeaderLength: h.HeaderLength,
			DataLength:   h.DataLength,
		}
	case h.DataLength < payloadPrefixSize+payloadTrailerSize:
		return &MalformedFrameError{
			Reason:       fmt.Sprintf("data length %d too short", h.DataLength),
			HeaderLength: h.HeaderLength,
			DataLength:   h.DataLength,
		}
	case h.DataLength > MaxDataSize:
		return &MalformedFrameError{
			Reason:       fmt.Sprintf("data length %d exceeds %d", h.DataLength, MaxDataSize),
			HeaderLength: h.HeaderLength,
			DataLength:   h.DataLength,
		}
	}
	return nil
}

// scanMagic returns the offset of the first magic marker in data. When no
// complete marker is present it keeps any trailing bytes that could be the
// start of one.
func scanMagic(data []byte) int {
	if i := bytes.Index(data, []byte(Magic)); i >= 0 {
		return i
	}
	for keep := len(Magic) - 1; keep > 0; keep-- {
		if len(data) >= keep && bytes.HasPrefix([]byte(Magic), data[len(data)-keep:]) {
			return len(data) - keep
		}
	}
	return len(data)
}
