// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var muteCmd = &cobra.Command{
	Use:   "mute",
	Short: "Mute the zone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMute(cmd, (*receiver.ZoneControl).Mute)
	},
}

var unmuteCmd = &cobra.Command{
	Use:   "unmute",
	Short: "Unmute the zone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMute(cmd, (*receiver.ZoneControl).Unmute)
	},
}

func init() {
	rootCmd.AddCommand(muteCmd, unmuteCmd)
}

func runMute(cmd *cobra.Command, op func(*receiver.ZoneControl) (string, error)) error {
	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		v, err := op(z)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), iscp.FormatValue(z.Zone().MuteGroup, v))
		return nil
	})
}
