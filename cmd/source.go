// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/receiver"
)

var sourceCmd = &cobra.Command{
	Use:   "source [NAME]",
	Short: "Print or select the zone source",
	Long: `Print the current source and the list of known sources, or select NAME.

Sources: ` + strings.Join(receiver.Sources(), ", ") + `

SOURCE selects the main zone's source in zone 2. UP and DOWN step through
the inputs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, args []string) error {
	var name string
	if len(args) == 1 {
		name = strings.ToUpper(args[0])
		if _, err := receiver.SourceCode(name); err != nil {
			return err
		}
	}

	return withZone(cmd, func(_ *receiver.Receiver, z *receiver.ZoneControl) error {
		out := cmd.OutOrStdout()
		if name != "" {
			got, err := z.SetSource(name)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, got)
			return nil
		}

		current, err := z.Source()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Current source: %s\n", current)
		fmt.Fprintf(out, "Available sources: %s\n", strings.Join(receiver.Sources(), ", "))
		return nil
	})
}
