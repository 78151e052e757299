// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/oky/internal/capture"
	"github.com/Thermoquad/oky/internal/metrics"
	"github.com/Thermoquad/oky/pkg/iscp"
)

var (
	logRecordFile  string
	logMetricsAddr string
	logStatsEvery  time.Duration
	logAnomalies   bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Print every message the receiver sends",
	Long: `Listen to the receiver and print each message as it arrives, with a
timestamp and the feature name.

Receivers broadcast every state change (front panel, remote, other clients),
so this is also a way to find the command for a button press.

--record writes the raw traffic to a capture file that "oky replay" can
read back. --metrics-addr serves connection statistics for Prometheus at
/metrics.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().StringVar(&logRecordFile, "record", "", "Write raw traffic to this capture file")
	logCmd.Flags().StringVar(&logMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9120)")
	logCmd.Flags().DurationVar(&logStatsEvery, "stats-interval", 0, "Print statistics at this interval (0 disables)")
	logCmd.Flags().BoolVar(&logAnomalies, "anomalies", false, "Print header anomalies of each frame")
	_ = v.BindPFlag("metrics.addr", logCmd.Flags().Lookup("metrics-addr"))
}

func runLog(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	out := &syncWriter{w: cmd.OutOrStdout()}
	fmt.Fprintf(out, "oky - Message Log\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	handlers := []iscp.Handler{func(m iscp.Message) error {
		fmt.Fprint(out, iscp.FormatMessage(m))
		if logAnomalies {
			printAnomalies(out, m)
		}
		return nil
	}}

	if logRecordFile != "" {
		rec, closeRec, err := openRecording(logRecordFile, connInfo)
		if err != nil {
			return err
		}
		defer closeRec()
		handlers = append(handlers, rec.WriteMessage)
	}

	if addr := cfg.Metrics.Addr; addr != "" {
		reg := metrics.NewRegistry()
		reg.MustRegister(metrics.NewCollector(conn.Statistics()))
		counter := metrics.NewMessageCounter(reg)
		handlers = append(handlers, func(m iscp.Message) error {
			counter.Observe(m)
			return nil
		})
		go func() {
			if err := metrics.Serve(ctx, addr, reg, logger); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	if logStatsEvery > 0 {
		go printStatsEvery(ctx, out, conn.Statistics(), logStatsEvery)
	}

	err = conn.Listen(ctx, func(m iscp.Message) error {
		for _, h := range handlers {
			if err := h(m); err != nil {
				return err
			}
		}
		return nil
	})

	fmt.Fprintln(out)
	fmt.Fprint(out, conn.Statistics().Snapshot())

	switch {
	case errors.Is(err, context.Canceled):
		return nil
	case errors.Is(err, iscp.ErrConnectionClosed):
		logger.Info("connection closed")
		return nil
	}
	return err
}

// openRecording creates a capture file and returns its writer and a function
// that flushes and closes it.
func openRecording(path, source string) (*capture.Writer, func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	w, err := capture.NewWriter(f, capture.Header{
		Source:    source,
		StartTime: time.Now().UnixNano(),
		Codec:     codecName(),
	})
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return w, func() {
		if err := w.Flush(); err != nil {
			logger.Error("failed to flush capture", zap.Error(err))
		}
		f.Close()
	}, nil
}

// codecName names the framing in use, as recorded in capture headers.
func codecName() string {
	if cfg.WebSocket.URL == "" && cfg.Serial.Port != "" {
		return "serial"
	}
	return "network"
}

func printAnomalies(w io.Writer, m iscp.Message) {
	for _, a := range iscp.ValidateMessage(m) {
		fmt.Fprintf(w, "  [ANOMALY] %s\n", a.Message)
	}
}

func printStatsEvery(ctx context.Context, w io.Writer, stats *iscp.Statistics, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintln(w)
			fmt.Fprint(w, stats.Snapshot())
			fmt.Fprintln(w)
		}
	}
}

// syncWriter serialises writes from the listener and the stats ticker.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
