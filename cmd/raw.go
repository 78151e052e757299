// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var rawDecode bool

var rawCmd = &cobra.Command{
	Use:   "cmd RAW",
	Short: "Send a raw ISCP command and print the reply",
	Long: `Send RAW (group code and parameter, e.g. IFVQSTN) and print the reply
with the same group code. Replies for other group codes are ignored.`,
	Args: cobra.ExactArgs(1),
	RunE: runRaw,
}

func init() {
	rootCmd.AddCommand(rawCmd)
	rawCmd.Flags().BoolVarP(&rawDecode, "decode", "d", false, "Print the reply in human-readable form")
}

func runRaw(cmd *cobra.Command, args []string) error {
	command := strings.ToUpper(strings.TrimSpace(args[0]))
	if len(command) < iscp.GroupCodeSize {
		return fmt.Errorf("invalid command %q: needs a 3 letter group code", args[0])
	}

	return withZone(cmd, func(r *receiver.Receiver, _ *receiver.ZoneControl) error {
		reply, err := r.SendCommand(command)
		if err != nil {
			return err
		}
		if rawDecode {
			group := iscp.GroupCode(reply)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", group, iscp.FormatGroupCode(group), iscp.FormatValue(group, iscp.Value(reply)))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	})
}
