// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeCommand_Layout(t *testing.T) {
	got := EncodeCommand("PWRQSTN")

	want := []byte("ISCP")
	want = append(want, 0x00, 0x00, 0x00, 0x10) // header length 16
	want = append(want, 0x00, 0x00, 0x00, 0x08) // len("PWRQSTN")+1
	want = append(want, 0x01, 0x00, 0x00, 0x00) // version + reserved
	want = append(want, []byte("!1PWRQSTN\r")...)

	if !bytes.Equal(got, want) {
		t.Errorf("EncodeCommand() =\n% X\nwant\n% X", got, want)
	}
}

func TestEncoder_DataLengthQuirk(t *testing.T) {
	tests := []struct {
		name    string
		encoder *Encoder
		command string
		want    uint32
	}{
		{"default undercounts", NewEncoder(), "MVL2A", 6},
		{"default empty command", NewEncoder(), "", 1},
		{"strict counts payload", &Encoder{UnitType: UnitReceiver, Terminator: []byte{CRByte}, StrictLength: true}, "MVL2A", 8},
		{"reply encoder", ReplyEncoder(), "PWR01", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := tt.encoder.Encode(tt.command)
			got := binary.BigEndian.Uint32(frame[8:12])
			if got != tt.want {
				t.Errorf("data length = %d, want %d", got, tt.want)
			}
			if hl := binary.BigEndian.Uint32(frame[4:8]); hl != HeaderSize {
				t.Errorf("header length = %d, want %d", hl, HeaderSize)
			}
		})
	}
}

func TestDecodeFrame_RoundTrip(t *testing.T) {
	commands := []string{"PWR01", "MVL2A", "SLI2B", "ZVLN/A", "IFA" + "HDMI 1,PCM,48 kHz,2.0ch", "", "X"}

	for _, cmd := range commands {
		encoded := ReplyEncoder().Encode(cmd)
		frame, skip, n, err := DecodeFrame(encoded)
		if err != nil {
			t.Fatalf("DecodeFrame(%q) error: %v", cmd, err)
		}
		if skip != 0 {
			t.Errorf("DecodeFrame(%q) skip = %d, want 0", cmd, skip)
		}
		if n != len(encoded) {
			t.Errorf("DecodeFrame(%q) n = %d, want %d", cmd, n, len(encoded))
		}
		if got := frame.Command(); got != cmd {
			t.Errorf("Command() = %q, want %q", got, cmd)
		}
		if frame.UnitType() != UnitReceiver {
			t.Errorf("UnitType() = %q, want '1'", frame.UnitType())
		}
	}
}

func TestDecodeFrame_RealReply(t *testing.T) {
	// Captured from a TX-NR626
	data := []byte("ISCP\x00\x00\x00\x10\x00\x00\x00\x0a\x01\x00\x00\x00!1PWR00\x1a\r\n")

	frame, _, n, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if n != len(data) {
		t.Errorf("n = %d, want %d", n, len(data))
	}
	if frame.Command() != "PWR00" {
		t.Errorf("Command() = %q, want PWR00", frame.Command())
	}
	if frame.Header.Version != Version {
		t.Errorf("Version = %d, want %d", frame.Header.Version, Version)
	}
}

func TestDecodeFrame_Incomplete(t *testing.T) {
	encoded := ReplyEncoder().Encode("PWR01")

	for _, size := range []int{0, 3, 4, 11, 12, 16, len(encoded) - 1} {
		_, skip, n, err := DecodeFrame(encoded[:size])
		if err != nil {
			t.Errorf("size %d: unexpected error %v", size, err)
		}
		if n != 0 {
			t.Errorf("size %d: n = %d, want 0", size, n)
		}
		if skip != 0 {
			t.Errorf("size %d: skip = %d, want 0", size, skip)
		}
	}
}

func TestDecodeFrame_GarbagePrefix(t *testing.T) {
	encoded := ReplyEncoder().Encode("SLI2B")
	data := append([]byte("\x00\xffgarbage ISC"), encoded...)

	frame, skip, n, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame error: %v", err)
	}
	if skip != 13 {
		t.Errorf("skip = %d, want 13", skip)
	}
	if n != len(encoded) {
		t.Errorf("n = %d, want %d", n, len(encoded))
	}
	if frame.Command() != "SLI2B" {
		t.Errorf("Command() = %q, want SLI2B", frame.Command())
	}
}

func TestDecodeFrame_KeepsPartialMagic(t *testing.T) {
	tests := []struct {
		data []byte
		skip int
	}{
		{[]byte("xxxI"), 3},
		{[]byte("xxxIS"), 3},
		{[]byte("xxxISC"), 3},
		{[]byte("xxxIX"), 5},
		{[]byte("no magic here"), 13},
	}

	for _, tt := range tests {
		_, skip, n, err := DecodeFrame(tt.data)
		if err != nil || n != 0 {
			t.Errorf("DecodeFrame(%q) = n %d, err %v", tt.data, n, err)
		}
		if skip != tt.skip {
			t.Errorf("DecodeFrame(%q) skip = %d, want %d", tt.data, skip, tt.skip)
		}
	}
}

func TestDecodeFrame_Malformed(t *testing.T) {
	header := func(hl, dl uint32) []byte {
		b := []byte("ISCP")
		b = binary.BigEndian.AppendUint32(b, hl)
		b = binary.BigEndian.AppendUint32(b, dl)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"negative header length", header(0xFFFFFFF0, 10)},
		{"header length too small", header(8, 10)},
		{"header length too large", header(1<<20, 10)},
		{"negative data length", header(16, 0x80000000)},
		{"data length too large", header(16, MaxDataSize+1)},
		{"data length shorter than framing", header(16, 4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, n, err := DecodeFrame(tt.data)
			var mfe *MalformedFrameError
			if !errors.As(err, &mfe) {
				t.Fatalf("error = %v, want *MalformedFrameError", err)
			}
			if n != 0 {
				t.Errorf("n = %d, want 0", n)
			}
		})
	}
}
