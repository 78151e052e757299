// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of connection statistics.
type Snapshot struct {
	StartTime time.Time
	Elapsed   time.Duration

	// Counters
	BytesReceived   uint64
	BytesDiscarded  uint64
	Frames          uint64
	MalformedFrames uint64
	Anomalies       uint64

	CommandsSent         uint64
	CommandsAcknowledged uint64
	AckTimeouts          uint64
	UnsolicitedReplies   uint64

	LastRoundTrip time.Duration

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// Statistics tracks traffic and error counts for a connection. It is safe
// for concurrent use.
type Statistics struct {
	mu sync.Mutex
	s  Snapshot
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{s: Snapshot{StartTime: time.Now()}}
}

// Snapshot returns a copy of the counters with rates calculated.
func (st *Statistics) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	s := st.s
	s.Elapsed = time.Since(s.StartTime)
	if secs := s.Elapsed.Seconds(); secs > 0 {
		s.FrameRate = float64(s.Frames) / secs
		s.ErrorRate = float64(s.MalformedFrames+s.AckTimeouts) / secs
	}
	return s
}

// Reset resets all statistics counters
func (st *Statistics) Reset() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s = Snapshot{StartTime: time.Now()}
}

func (st *Statistics) update(f func(s *Snapshot)) {
	st.mu.Lock()
	f(&st.s)
	st.mu.Unlock()
}

// RecordFrame counts a decoded frame and its header anomalies.
func (st *Statistics) RecordFrame(anomalies int) {
	st.update(func(s *Snapshot) {
		s.Frames++
		s.Anomalies += uint64(anomalies)
	})
}

// RecordMalformed counts a frame rejected by the decoder.
func (st *Statistics) RecordMalformed() {
	st.update(func(s *Snapshot) { s.MalformedFrames++ })
}

func (st *Statistics) recordBytes(received int, discarded uint64) {
	st.update(func(s *Snapshot) {
		s.BytesReceived += uint64(received)
		s.BytesDiscarded = discarded
	})
}

func (st *Statistics) recordSent() {
	st.update(func(s *Snapshot) { s.CommandsSent++ })
}

func (st *Statistics) recordAcknowledged(rtt time.Duration) {
	st.update(func(s *Snapshot) {
		s.CommandsAcknowledged++
		s.LastRoundTrip = rtt
	})
}

func (st *Statistics) recordTimeout() {
	st.update(func(s *Snapshot) { s.AckTimeouts++ })
}

func (st *Statistics) recordUnsolicited() {
	st.update(func(s *Snapshot) { s.UnsolicitedReplies++ })
}

// String returns a formatted statistics summary
func (s Snapshot) String() string {
	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", s.Elapsed.Seconds())
	result += fmt.Sprintf("Bytes Received:  %8d\n", s.BytesReceived)
	if s.BytesDiscarded > 0 {
		result += fmt.Sprintf("Bytes Discarded: %8d\n", s.BytesDiscarded)
	}
	result += fmt.Sprintf("Frames:          %8d\n", s.Frames)
	if s.MalformedFrames > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedFrames)
	}
	if s.Anomalies > 0 {
		result += fmt.Sprintf("Header Anomalies:%8d\n", s.Anomalies)
	}
	if s.CommandsSent > 0 {
		result += fmt.Sprintf("Commands Sent:   %8d\n", s.CommandsSent)
		result += fmt.Sprintf("  Acknowledged:     %5d\n", s.CommandsAcknowledged)
		result += fmt.Sprintf("  Timed Out:        %5d\n", s.AckTimeouts)
		result += fmt.Sprintf("  Last RTT:      %8v\n", s.LastRoundTrip.Round(time.Millisecond))
	}
	if s.UnsolicitedReplies > 0 {
		result += fmt.Sprintf("Unsolicited:     %8d\n", s.UnsolicitedReplies)
	}
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"
	return result
}
