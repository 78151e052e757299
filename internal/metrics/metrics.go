// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes ISCP connection statistics to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Thermoquad/oky/pkg/iscp"
)

const namespace = "oky"

// NewRegistry creates a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// Collector reports an iscp.Statistics snapshot on every scrape.
type Collector struct {
	stats *iscp.Statistics

	bytesReceived  *prometheus.Desc
	bytesDiscarded *prometheus.Desc
	frames         *prometheus.Desc
	malformed      *prometheus.Desc
	anomalies      *prometheus.Desc
	sent           *prometheus.Desc
	acknowledged   *prometheus.Desc
	timeouts       *prometheus.Desc
	unsolicited    *prometheus.Desc
	roundTrip      *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a collector over stats.
func NewCollector(stats *iscp.Statistics) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "iscp", name), help, nil, nil)
	}
	return &Collector{
		stats:          stats,
		bytesReceived:  desc("bytes_received_total", "Bytes read from the receiver."),
		bytesDiscarded: desc("bytes_discarded_total", "Bytes skipped while looking for a frame."),
		frames:         desc("frames_total", "Frames decoded."),
		malformed:      desc("malformed_frames_total", "Frames rejected as malformed."),
		anomalies:      desc("header_anomalies_total", "Header anomalies on decoded frames."),
		sent:           desc("commands_sent_total", "Commands written to the receiver."),
		acknowledged:   desc("commands_acknowledged_total", "Commands answered by a matching reply."),
		timeouts:       desc("ack_timeouts_total", "Commands that got no matching reply in time."),
		unsolicited:    desc("unsolicited_replies_total", "Replies discarded while waiting for another group code."),
		roundTrip:      desc("last_round_trip_seconds", "Round trip time of the last acknowledged command."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.bytesReceived, c.bytesDiscarded, c.frames, c.malformed, c.anomalies,
		c.sent, c.acknowledged, c.timeouts, c.unsolicited, c.roundTrip,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(c.bytesReceived, s.BytesReceived)
	counter(c.bytesDiscarded, s.BytesDiscarded)
	counter(c.frames, s.Frames)
	counter(c.malformed, s.MalformedFrames)
	counter(c.anomalies, s.Anomalies)
	counter(c.sent, s.CommandsSent)
	counter(c.acknowledged, s.CommandsAcknowledged)
	counter(c.timeouts, s.AckTimeouts)
	counter(c.unsolicited, s.UnsolicitedReplies)
	ch <- prometheus.MustNewConstMetric(c.roundTrip, prometheus.GaugeValue, s.LastRoundTrip.Seconds())
}

// MessageCounter counts decoded messages by group code.
type MessageCounter struct {
	vec *prometheus.CounterVec
}

// NewMessageCounter registers a per group code counter with reg.
func NewMessageCounter(reg prometheus.Registerer) *MessageCounter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "iscp",
		Name:      "messages_total",
		Help:      "Decoded messages by group code.",
	}, []string{"group"})
	reg.MustRegister(vec)
	return &MessageCounter{vec: vec}
}

// Observe counts msg.
func (m *MessageCounter) Observe(msg iscp.Message) {
	m.vec.WithLabelValues(msg.GroupCode()).Inc()
}

// Serve runs an HTTP server for reg on addr until ctx is done.
func Serve(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(reg))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
