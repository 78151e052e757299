// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"errors"
	"testing"
)

// drain feeds chunks into a buffer and collects every decoded command.
func drain(t *testing.T, codec Codec, chunks ...[]byte) []string {
	t.Helper()
	var buf ReceiveBuffer
	var got []string
	for _, chunk := range chunks {
		buf.Write(chunk)
		for {
			msg, ok, err := buf.Next(codec)
			if err != nil {
				t.Fatalf("Next() error: %v", err)
			}
			if !ok {
				break
			}
			got = append(got, msg.Command)
		}
	}
	return got
}

func TestReceiveBuffer_SingleFrame(t *testing.T) {
	got := drain(t, NewNetworkCodec(), ReplyEncoder().Encode("PWR01"))
	if len(got) != 1 || got[0] != "PWR01" {
		t.Errorf("decoded %q, want [PWR01]", got)
	}
}

func TestReceiveBuffer_EverySplitPoint(t *testing.T) {
	encoded := ReplyEncoder().Encode("MVL2A")

	for split := 1; split < len(encoded); split++ {
		got := drain(t, NewNetworkCodec(), encoded[:split], encoded[split:])
		if len(got) != 1 || got[0] != "MVL2A" {
			t.Errorf("split at %d: decoded %q, want [MVL2A]", split, got)
		}
	}
}

func TestReceiveBuffer_ByteAtATime(t *testing.T) {
	encoded := ReplyEncoder().Encode("SLI2B")
	chunks := make([][]byte, len(encoded))
	for i := range encoded {
		chunks[i] = encoded[i : i+1]
	}

	got := drain(t, NewNetworkCodec(), chunks...)
	if len(got) != 1 || got[0] != "SLI2B" {
		t.Errorf("decoded %q, want [SLI2B]", got)
	}
}

func TestReceiveBuffer_MultipleFramesOneRead(t *testing.T) {
	var data []byte
	for _, cmd := range []string{"NLSU0-", "MVL10", "PWR01"} {
		data = append(data, ReplyEncoder().Encode(cmd)...)
	}

	got := drain(t, NewNetworkCodec(), data)
	want := []string{"NLSU0-", "MVL10", "PWR01"}
	if len(got) != len(want) {
		t.Fatalf("decoded %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestReceiveBuffer_LeftoverStaysBuffered(t *testing.T) {
	first := ReplyEncoder().Encode("PWR01")
	second := ReplyEncoder().Encode("MVL20")

	var buf ReceiveBuffer
	buf.Write(first)
	buf.Write(second[:7])

	msg, ok, err := buf.Next(NewNetworkCodec())
	if err != nil || !ok || msg.Command != "PWR01" {
		t.Fatalf("Next() = %q, %v, %v", msg.Command, ok, err)
	}
	if buf.Len() != 7 {
		t.Errorf("Len() = %d, want 7", buf.Len())
	}

	if _, ok, _ := buf.Next(NewNetworkCodec()); ok {
		t.Fatal("Next() decoded a frame from a partial buffer")
	}

	buf.Write(second[7:])
	msg, ok, err = buf.Next(NewNetworkCodec())
	if err != nil || !ok || msg.Command != "MVL20" {
		t.Fatalf("Next() = %q, %v, %v", msg.Command, ok, err)
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d, want 0", buf.Len())
	}
}

func TestReceiveBuffer_GarbageIsDiscarded(t *testing.T) {
	garbage := []byte{0x00, 0x13, 'I', 'S', 0x7E, 0xFF}
	encoded := ReplyEncoder().Encode("ZVL1E")

	got := drain(t, NewNetworkCodec(), garbage, encoded)
	if len(got) != 1 || got[0] != "ZVL1E" {
		t.Errorf("decoded %q, want [ZVL1E]", got)
	}
}

func TestReceiveBuffer_ResyncAfterMalformed(t *testing.T) {
	bad := []byte("ISCP\xff\xff\xff\xff\x00\x00\x00\x10")
	good := ReplyEncoder().Encode("PWR00")

	var buf ReceiveBuffer
	buf.Write(append(bad, good...))

	_, _, err := buf.Next(NewNetworkCodec())
	var mfe *MalformedFrameError
	if !errors.As(err, &mfe) {
		t.Fatalf("first Next() error = %v, want *MalformedFrameError", err)
	}

	msg, ok, err := buf.Next(NewNetworkCodec())
	if err != nil || !ok {
		t.Fatalf("second Next() = %v, %v", ok, err)
	}
	if msg.Command != "PWR00" {
		t.Errorf("Command = %q, want PWR00", msg.Command)
	}
	if buf.Discarded() != uint64(len(bad)) {
		t.Errorf("Discarded() = %d, want %d", buf.Discarded(), len(bad))
	}
}
