// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/internal/capture"
	"github.com/Thermoquad/oky/pkg/iscp"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Print the messages in a capture file",
	Long: `Decode a capture written by "oky log --record" and print its messages
the way "oky log" shows them. No receiver connection is needed.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&logAnomalies, "anomalies", false, "Print header anomalies of each frame")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := capture.NewReader(f)
	if err != nil {
		return err
	}

	var codec iscp.Codec = iscp.NewNetworkCodec()
	if r.Header().Codec == "serial" {
		codec = iscp.NewSerialCodec()
	}

	out := cmd.OutOrStdout()
	h := r.Header()
	fmt.Fprintf(out, "Capture: %s\n", args[0])
	fmt.Fprintf(out, "Source: %s (%s framing)\n\n", h.Source, h.Codec)

	stats := iscp.NewStatistics()
	err = r.Replay(codec, stats, func(m iscp.Message) error {
		fmt.Fprint(out, iscp.FormatMessage(m))
		if logAnomalies {
			printAnomalies(out, m)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s := stats.Snapshot()
	fmt.Fprintf(out, "\n%d messages, %d malformed\n", s.Frames, s.MalformedFrames)
	return nil
}
