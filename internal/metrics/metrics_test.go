// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oky/pkg/iscp"
)

func TestCollector_ReportsSnapshot(t *testing.T) {
	stats := iscp.NewStatistics()
	stats.RecordFrame(0)
	stats.RecordFrame(1)
	stats.RecordMalformed()

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(stats))

	expected := `
# HELP oky_iscp_frames_total Frames decoded.
# TYPE oky_iscp_frames_total counter
oky_iscp_frames_total 2
# HELP oky_iscp_malformed_frames_total Frames rejected as malformed.
# TYPE oky_iscp_malformed_frames_total counter
oky_iscp_malformed_frames_total 1
# HELP oky_iscp_header_anomalies_total Header anomalies on decoded frames.
# TYPE oky_iscp_header_anomalies_total counter
oky_iscp_header_anomalies_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"oky_iscp_frames_total", "oky_iscp_malformed_frames_total", "oky_iscp_header_anomalies_total")
	require.NoError(t, err)
}

func TestMessageCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	mc := NewMessageCounter(reg)

	mc.Observe(iscp.Message{Command: "PWR01"})
	mc.Observe(iscp.Message{Command: "MVL20"})
	mc.Observe(iscp.Message{Command: "MVL21"})

	assert.Equal(t, 2.0, testutil.ToFloat64(mc.vec.WithLabelValues("MVL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mc.vec.WithLabelValues("PWR")))
}

func TestHandler_ServesRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(NewCollector(iscp.NewStatistics()))

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "oky_iscp_commands_sent_total 0")
	assert.Contains(t, string(body), "go_goroutines")
}
