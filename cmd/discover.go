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

// errNoDevices is returned when discovery finishes without an answer.
var errNoDevices = errors.New("no receivers found")

var (
	discoverTimeout   time.Duration
	discoverBroadcast string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find receivers on the local network",
	Long: `Broadcast an ISCP discovery query over UDP and list the receivers that
answer. Each receiver reports its model, control port, region and
identifier (usually the MAC address).

Examples:
  oky discover
  oky discover --timeout 5s --broadcast 192.168.1.255:60128

Exit codes:
  0 - At least one receiver found
  1 - No receivers answered`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 3*time.Second, "How long to wait for answers")
	discoverCmd.Flags().StringVar(&discoverBroadcast, "broadcast",
		fmt.Sprintf("255.255.255.255:%d", iscp.DefaultPort), "Broadcast address to query")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "oky - Receiver Discovery\n")
	fmt.Fprintf(out, "Broadcast: %s\n", discoverBroadcast)
	fmt.Fprintf(out, "Timeout: %s\n", discoverTimeout)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	devices, err := iscp.Discover(ctx, discoverBroadcast, discoverTimeout)
	if err != nil {
		return err
	}

	for _, d := range devices {
		fmt.Fprintf(out, "\nReceiver found:\n")
		fmt.Fprintf(out, "  Model: %s\n", d.Model)
		fmt.Fprintf(out, "  Address: %s\n", d.Address())
		fmt.Fprintf(out, "  Region: %s\n", d.Region)
		fmt.Fprintf(out, "  Identifier: %s\n", d.Identifier)
	}

	fmt.Fprintf(out, "\n--- Discovery summary ---\n")
	fmt.Fprintf(out, "Receivers found: %d\n", len(devices))
	if len(devices) == 0 {
		return errNoDevices
	}
	return nil
}
