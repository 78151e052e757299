// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print power, source and volume of both zones",
	Long: `Query power, source and volume of both zones, and the audio and video
input information of the main zone.

The queries are sent one after another; the receiver may change state in
between.`,
	Args: cobra.NoArgs,
	RunE: runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(cmd *cobra.Command, args []string) error {
	return withZone(cmd, func(r *receiver.Receiver, _ *receiver.ZoneControl) error {
		st, err := r.State()
		if err != nil {
			return err
		}
		printState(cmd.OutOrStdout(), st)
		return nil
	})
}

func printState(w io.Writer, st receiver.State) {
	printZoneStatus(w, "Main", receiver.Main, st.Main)
	fmt.Fprintf(w, "%-6s audio:         %s\n", "Main", st.Main.Audio)
	fmt.Fprintf(w, "%-6s video:         %s\n", "Main", st.Main.Video)
	fmt.Fprintln(w)
	printZoneStatus(w, "Zone2", receiver.Zone2, st.Zone2)
}

func printZoneStatus(w io.Writer, label string, zone receiver.Zone, s receiver.ZoneStatus) {
	fmt.Fprintf(w, "%-6s power:         %s\n", label, iscp.FormatValue(zone.PowerGroup, s.Power))
	fmt.Fprintf(w, "%-6s source:        %s\n", label, s.Source)
	fmt.Fprintf(w, "%-6s volume (0-80): %d\n", label, s.Volume)
}
