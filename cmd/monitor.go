// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive TUI for watching and controlling a receiver",
	Long: `Watch and control one receiver zone in an interactive terminal UI.

Features:
  - Live zone status (power, volume, source, mute, tone)
  - Event log of every message the receiver sends
  - Raw command input
  - Statistics tracking
  - Automatic reconnection on connection loss

Keys:
  q        quit
  p        toggle power
  + / -    volume up / down
  m        toggle mute
  b / B    bass up / down (zone 2)
  t / T    treble up / down (zone 2)
  r        refresh status
  tab      enter a raw command, enter sends it, esc cancels

Supports TCP, serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// connectionManager handles connection lifecycle and reconnection
type connectionManager struct {
	conn  *iscp.Conn
	mu    sync.RWMutex
	p     *tea.Program
	zone  receiver.Zone
	stats *iscp.Statistics
}

func (cm *connectionManager) getConn() *iscp.Conn {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn
}

func (cm *connectionManager) setConn(conn *iscp.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.conn = conn
}

// post writes a command on the current connection. Replies arrive through
// the listener like any other message.
func (cm *connectionManager) post(command string) error {
	conn := cm.getConn()
	if conn == nil {
		return iscp.ErrConnectionClosed
	}
	return conn.Post(command)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	zone, err := selectedZone()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := iscp.NewStatistics()
	conn, connInfo, err := OpenConnection(ctx, iscp.WithStatistics(stats))
	if err != nil {
		return err
	}

	cm := &connectionManager{conn: conn, zone: zone, stats: stats}

	m := newMonitorModel(zone, connInfo, stats, cm.post)
	p := tea.NewProgram(m, tea.WithAltScreen())
	cm.p = p

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		cm.listenLoop(ctx)
	}()

	_, err = p.Run()
	cancel()
	cm.getConn().Close()
	wg.Wait()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// listenLoop forwards messages to the TUI and reconnects when the
// connection is lost, until ctx is cancelled.
func (cm *connectionManager) listenLoop(ctx context.Context) {
	for {
		cm.queryStatus()

		err := cm.getConn().Listen(ctx, func(msg iscp.Message) error {
			cm.p.Send(receiverMsg{msg: msg})
			return nil
		})
		if ctx.Err() != nil {
			return
		}
		logger.Warn("connection lost", zap.Error(err))
		cm.p.Send(connectionLostMsg{err: err})

		if !cm.reconnect(ctx) {
			return
		}
	}
}

// reconnect attempts to reconnect with exponential backoff
// Returns false if ctx was cancelled during reconnection
func (cm *connectionManager) reconnect(ctx context.Context) bool {
	cm.getConn().Close()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}

		conn, connInfo, err := OpenConnection(ctx, iscp.WithStatistics(cm.stats))
		if err == nil {
			cm.setConn(conn)
			cm.p.Send(reconnectedMsg{connInfo: connInfo})
			return true
		}
		if errors.Is(err, context.Canceled) {
			return false
		}
		logger.Debug("reconnect failed", zap.Error(err), zap.Duration("backoff", backoff))

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// queryStatus asks for the zone status. The answers are picked up by the
// listener.
func (cm *connectionManager) queryStatus() {
	for _, q := range statusQueries(cm.zone) {
		if err := cm.post(q); err != nil {
			logger.Warn("status query failed", zap.String("command", q), zap.Error(err))
			return
		}
	}
}

// statusQueries lists the queries that fill in the status panel for zone.
func statusQueries(zone receiver.Zone) []string {
	queries := []string{
		iscp.Query(zone.PowerGroup),
		iscp.Query(zone.VolumeGroup),
		iscp.Query(zone.SourceGroup),
		iscp.Query(zone.MuteGroup),
	}
	if zone.ToneGroup != "" {
		queries = append(queries, iscp.Query(zone.ToneGroup))
	}
	return queries
}
