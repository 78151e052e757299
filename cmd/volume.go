// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/receiver"
)

var volumeCmd = &cobra.Command{
	Use:   "volume [N]",
	Short: "Print or set the zone volume (0-80)",
	Long: `Print the current volume, or set it to N.

Values below 0 are sent as 0. Values above 80 are sent as 25 to protect
speakers from a typo.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

var upCmd = &cobra.Command{
	Use:   "up [N]",
	Short: "Raise the volume one step, or by N",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVolumeStep(cmd, args, (*receiver.ZoneControl).VolumeUp)
	},
}

var downCmd = &cobra.Command{
	Use:   "down [N]",
	Short: "Lower the volume one step, or by N",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVolumeStep(cmd, args, (*receiver.ZoneControl).VolumeDown)
	},
}

func init() {
	rootCmd.AddCommand(volumeCmd, upCmd, downCmd)
}

func runVolume(cmd *cobra.Command, args []string) error {
	var set *int
	if len(args) == 1 {
		n, err := parseVolumeArg(args[0])
		if err != nil {
			return err
		}
		set = &n
	}

	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		var (
			v   int
			err error
		)
		if set != nil {
			v, err = z.SetVolume(*set)
		} else {
			v, err = z.Volume()
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	})
}

func runVolumeStep(cmd *cobra.Command, args []string, op func(*receiver.ZoneControl, int) (int, error)) error {
	delta := 0
	if len(args) == 1 {
		n, err := parseVolumeArg(args[0])
		if err != nil {
			return err
		}
		delta = n
	}

	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		v, err := op(z, delta)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	})
}

func parseVolumeArg(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: must be an integer", s)
	}
	return n, nil
}
