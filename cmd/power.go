// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Power on the zone",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, (*receiver.ZoneControl).PowerOn)
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Put the zone in standby",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, (*receiver.ZoneControl).PowerOff)
	},
}

var powerCmd = &cobra.Command{
	Use:   "power",
	Short: "Print the zone power state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPower(cmd, (*receiver.ZoneControl).Power)
	},
}

func init() {
	rootCmd.AddCommand(onCmd, offCmd, powerCmd)
}

func runPower(cmd *cobra.Command, op func(*receiver.ZoneControl) (string, error)) error {
	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		v, err := op(z)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), iscp.FormatValue(z.Zone().PowerGroup, v))
		return nil
	})
}
