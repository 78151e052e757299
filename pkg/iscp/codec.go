// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"bytes"
	"fmt"
)

// Codec turns commands into wire bytes and wire bytes back into messages.
type Codec interface {
	// Encode returns the wire form of command.
	Encode(command string) []byte
	// Decode looks for one message in data. skip leading bytes are garbage,
	// n is the length of the message after them (0 if incomplete).
	Decode(data []byte) (msg Message, skip int, n int, err error)
}

var (
	_ Codec = (*NetworkCodec)(nil)
	_ Codec = (*SerialCodec)(nil)
)

// NetworkCodec frames commands with the eISCP header used over TCP.
type NetworkCodec struct {
	Encoder *Encoder
}

// NewNetworkCodec returns a codec using the default receiver encoder.
func NewNetworkCodec() *NetworkCodec {
	return &NetworkCodec{Encoder: NewEncoder()}
}

// Encode implements Codec.
func (c *NetworkCodec) Encode(command string) []byte {
	if c.Encoder == nil {
		return EncodeCommand(command)
	}
	return c.Encoder.Encode(command)
}

// Decode implements Codec.
func (c *NetworkCodec) Decode(data []byte) (Message, int, int, error) {
	frame, skip, n, err := DecodeFrame(data)
	if err != nil || n == 0 {
		return Message{}, skip, 0, err
	}
	hdr := frame.Header
	return Message{
		Command:  frame.Command(),
		UnitType: frame.UnitType(),
		Header:   &hdr,
		Raw:      frame.Raw,
	}, skip, n, nil
}

// MaxSerialMessageSize bounds a serial message between start byte and
// terminator.
const MaxSerialMessageSize = 256

// SerialCodec frames commands the way the RS-232 port expects them: no
// header, "!1" + command + CR out, "!1" + command + EOF in.
type SerialCodec struct {
	UnitType byte
}

// NewSerialCodec returns a codec for a receiver's serial port.
func NewSerialCodec() *SerialCodec {
	return &SerialCodec{UnitType: UnitReceiver}
}

// Encode implements Codec.
func (c *SerialCodec) Encode(command string) []byte {
	out := make([]byte, 0, payloadPrefixSize+len(command)+1)
	out = append(out, StartByte, c.UnitType)
	out = append(out, command...)
	return append(out, CRByte)
}

// Decode implements Codec.
func (c *SerialCodec) Decode(data []byte) (Message, int, int, error) {
	skip := bytes.IndexByte(data, StartByte)
	if skip < 0 {
		return Message{}, len(data), 0, nil
	}
	data = data[skip:]

	end := bytes.IndexFunc(data, func(r rune) bool {
		return r == EOFByte || r == CRByte || r == LFByte
	})
	if end < 0 {
		if len(data) > MaxSerialMessageSize {
			return Message{}, skip, 0, &MalformedFrameError{
				Reason: fmt.Sprintf("no terminator within %d bytes", MaxSerialMessageSize),
			}
		}
		return Message{}, skip, 0, nil
	}
	if end < payloadPrefixSize {
		return Message{}, skip, 0, &MalformedFrameError{Reason: "message shorter than start and unit type"}
	}

	raw := make([]byte, end+1)
	copy(raw, data[:end+1])
	return Message{
		Command:  string(raw[payloadPrefixSize:end]),
		UnitType: raw[1],
		Raw:      raw,
	}, skip, end + 1, nil
}
