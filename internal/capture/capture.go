// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records raw receiver traffic to a file of CBOR records and
// plays it back.
package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/oky/pkg/iscp"
)

// FormatVersion is written in the header record of every capture.
const FormatVersion = 1

// Direction of a captured record
const (
	DirectionReceived uint8 = 0
	DirectionSent     uint8 = 1
)

// Header is the first record of a capture file.
type Header struct {
	Version   uint   `cbor:"1,keyasint"`
	Source    string `cbor:"2,keyasint"`
	StartTime int64  `cbor:"3,keyasint"` // unix nanoseconds
	Codec     string `cbor:"4,keyasint"`
}

// Record is one captured message.
type Record struct {
	Time      int64  `cbor:"1,keyasint"` // unix nanoseconds
	Direction uint8  `cbor:"2,keyasint"`
	Raw       []byte `cbor:"3,keyasint"`
	Command   string `cbor:"4,keyasint,omitempty"`
}

// Timestamp returns the record time.
func (r Record) Timestamp() time.Time {
	return time.Unix(0, r.Time)
}

// Writer appends records to a capture stream.
type Writer struct {
	bw  *bufio.Writer
	enc *cbor.Encoder
}

// NewWriter writes the capture header to w and returns a Writer.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	bw := bufio.NewWriter(w)
	enc := cbor.NewEncoder(bw)
	h.Version = FormatVersion
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("failed to write capture header: %w", err)
	}
	return &Writer{bw: bw, enc: enc}, nil
}

// WriteMessage records a received message.
func (w *Writer) WriteMessage(m iscp.Message) error {
	return w.Write(Record{
		Time:      m.Timestamp.UnixNano(),
		Direction: DirectionReceived,
		Raw:       m.Raw,
		Command:   m.Command,
	})
}

// Write appends r.
func (w *Writer) Write(r Record) error {
	if err := w.enc.Encode(r); err != nil {
		return fmt.Errorf("failed to write capture record: %w", err)
	}
	return nil
}

// Flush writes buffered records to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Reader reads a capture stream written by Writer.
type Reader struct {
	dec    *cbor.Decoder
	header Header
}

// NewReader reads and checks the capture header.
func NewReader(r io.Reader) (*Reader, error) {
	dec := cbor.NewDecoder(bufio.NewReader(r))
	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported capture version %d", h.Version)
	}
	return &Reader{dec: dec, header: h}, nil
}

// Header returns the capture header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next record, or io.EOF at the end of the capture.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read capture record: %w", err)
	}
	return rec, nil
}

// Replay feeds every received record's raw bytes through codec and calls fn
// for each decoded message, stamped with the record time. Malformed frames
// are skipped and counted in stats.
func (r *Reader) Replay(codec iscp.Codec, stats *iscp.Statistics, fn iscp.Handler) error {
	var buf iscp.ReceiveBuffer
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Direction != DirectionReceived {
			continue
		}

		_, _ = buf.Write(rec.Raw)
		for {
			msg, ok, err := buf.Next(codec)
			if err != nil {
				stats.RecordMalformed()
				continue
			}
			if !ok {
				break
			}
			msg.Timestamp = rec.Timestamp()
			stats.RecordFrame(len(iscp.ValidateMessage(msg)))
			if err := fn(msg); err != nil {
				return err
			}
		}
	}
}
