// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oky/pkg/iscp"
)

func encodedMessage(command string, at time.Time) iscp.Message {
	return iscp.Message{
		Command:   command,
		Raw:       iscp.ReplyEncoder().Encode(command),
		Timestamp: at,
	}
}

func TestWriterReader(t *testing.T) {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	w, err := NewWriter(&buf, Header{Source: "10.0.0.112:60128", StartTime: start.UnixNano(), Codec: "network"})
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage(encodedMessage("PWR01", start)))
	require.NoError(t, w.Write(Record{Time: start.UnixNano(), Direction: DirectionSent, Raw: iscp.EncodeCommand("MVLUP")}))
	require.NoError(t, w.WriteMessage(encodedMessage("MVL21", start.Add(time.Second))))
	require.NoError(t, w.Flush())

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.112:60128", r.Header().Source)
	assert.Equal(t, uint(FormatVersion), r.Header().Version)

	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "PWR01", rec.Command)
	assert.Equal(t, start, rec.Timestamp().UTC())

	rec, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, DirectionSent, rec.Direction)

	_, err = r.Next()
	require.NoError(t, err)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReplay(t *testing.T) {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	w, err := NewWriter(&buf, Header{Codec: "network"})
	require.NoError(t, err)

	frame := iscp.ReplyEncoder().Encode("SLI2B")
	require.NoError(t, w.WriteMessage(encodedMessage("PWR01", start)))
	// A frame split over two reads is reassembled on replay.
	require.NoError(t, w.Write(Record{Time: start.UnixNano(), Raw: frame[:10]}))
	require.NoError(t, w.Write(Record{Time: start.UnixNano(), Raw: frame[10:]}))
	require.NoError(t, w.Write(Record{Time: start.UnixNano(), Direction: DirectionSent, Raw: iscp.EncodeCommand("SLIQSTN")}))
	require.NoError(t, w.Flush())

	r, err := NewReader(&buf)
	require.NoError(t, err)

	stats := iscp.NewStatistics()
	var got []string
	require.NoError(t, r.Replay(iscp.NewNetworkCodec(), stats, func(m iscp.Message) error {
		got = append(got, m.Command)
		assert.Equal(t, start, m.Timestamp.UTC())
		return nil
	}))

	assert.Equal(t, []string{"PWR01", "SLI2B"}, got)
	assert.EqualValues(t, 2, stats.Snapshot().Frames)
}

func TestNewReader_RejectsGarbage(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte{0xFF, 0x00}))
	assert.Error(t, err)
}
