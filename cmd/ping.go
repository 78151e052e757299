// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/iscp"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Measure command round trips to the receiver",
	Long: `Send power queries and report the time until each is acknowledged.

Exit codes:
  0 - Every query was acknowledged
  1 - At least one query timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 3, "Number of queries to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between queries")
}

func runPing(cmd *cobra.Command, args []string) error {
	if pingCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	zone, err := selectedZone()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer func() { conn.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "oky - Ping\n")
	fmt.Fprintf(out, "Connection: %s\n", connInfo)
	fmt.Fprintf(out, "Count: %d queries\n\n", pingCount)

	query := iscp.Query(zone.PowerGroup)
	failCount := 0

	for i := 1; i <= pingCount; i++ {
		fmt.Fprintf(out, "Ping %d/%d: ", i, pingCount)

		start := time.Now()
		reply, err := conn.SendCommand(query)
		var ate *iscp.AcknowledgmentTimeoutError
		switch {
		case errors.As(err, &ate):
			fmt.Fprintf(out, "TIMEOUT (no %s reply in %v)\n", zone.PowerGroup, ate.Elapsed.Round(time.Millisecond))
			failCount++
			if cfg.WebSocket.URL != "" && i < pingCount {
				// a WebSocket is dead after a read deadline
				stats := conn.Statistics()
				conn.Close()
				if conn, _, err = OpenConnection(ctx, iscp.WithStatistics(stats)); err != nil {
					return err
				}
			}
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "%s, rtt=%v\n", reply, time.Since(start).Round(time.Millisecond))
		}

		// Small delay between pings
		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	// Summary
	fmt.Fprintf(out, "\n--- Ping statistics ---\n")
	fmt.Fprintf(out, "%d queries sent, %d acknowledged, %.0f%% loss\n",
		pingCount, pingCount-failCount, float64(failCount)/float64(pingCount)*100)
	fmt.Fprint(out, conn.Statistics().Snapshot())

	if failCount > 0 {
		return fmt.Errorf("%d of %d queries not acknowledged", failCount, pingCount)
	}
	return nil
}
