// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/receiver"
)

var bassCmd = &cobra.Command{
	Use:       "bass [up|down]",
	Short:     "Print the tone settings, or step bass",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTone(cmd, args, (*receiver.ZoneControl).BassUp, (*receiver.ZoneControl).BassDown)
	},
}

var trebleCmd = &cobra.Command{
	Use:       "treble [up|down]",
	Short:     "Print the tone settings, or step treble",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTone(cmd, args, (*receiver.ZoneControl).TrebleUp, (*receiver.ZoneControl).TrebleDown)
	},
}

func init() {
	rootCmd.AddCommand(bassCmd, trebleCmd)
}

type toneOp func(*receiver.ZoneControl) (receiver.Tone, error)

func runTone(cmd *cobra.Command, args []string, up, down toneOp) error {
	op := toneOp((*receiver.ZoneControl).Tone)
	if len(args) == 1 {
		switch args[0] {
		case "up":
			op = up
		case "down":
			op = down
		}
	}

	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		t, err := op(z)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), t)
		return nil
	})
}
