// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/oky/internal/config"
	"github.com/Thermoquad/oky/internal/logging"
	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

var (
	cfgFile string
	verbose bool

	// Receiver address flags, resolved against OKY_ADDRESS and the config
	// file by config.Resolve
	hostFlag string
	portFlag int

	v      = config.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "oky",
	Short: "Onkyo/Integra receiver control",
	Long: `oky - control Onkyo and Integra AV receivers over ISCP.

Sends power, volume, source, mute and tone commands to a receiver and prints
the acknowledged value. Without an argument, volume and source print the
current setting.

Connection modes:
  TCP:       --host 10.0.0.112 [--port 60128]  (or OKY_ADDRESS=host[:port])
  Serial:    --serial /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the OKY_PASSWORD
environment variable, or prompted interactively if not set.

Examples:
  oky on                      ; power on the main zone
  oky -z2 volume 30           ; set zone 2 volume to 30
  oky source PC               ; select the PC input
  oky source                  ; print the current source and all sources
  oky cmd IFVQSTN             ; send a raw ISCP command
  oky log --record out.cbor   ; print everything the receiver says

Exit codes:
  0 - Success
  1 - Usage error or command failure
  2 - Connection error`,
	Version:           "1.0.0",
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/oky/config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log protocol traffic")

	// TCP connection flags
	pf.StringVar(&hostFlag, "host", "", "Receiver host name or IP")
	pf.IntVar(&portFlag, "port", 0, "Receiver TCP port (default 60128)")
	pf.IntP("zone", "z", 1, "Zone to control (1 or 2)")

	// Serial connection flags
	pf.StringP("serial", "s", "", "Serial port device")
	pf.IntP("baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	pf.StringP("url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.String("username", "", "Username for HTTP Basic auth")
	pf.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Logging flags
	pf.String("log-level", "warn", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")
	pf.String("log-file", "", "Also write logs to this file, rotated")

	for flag, key := range map[string]string{
		"zone":          "zone",
		"serial":        "serial.port",
		"baud":          "serial.baud",
		"url":           "websocket.url",
		"username":      "websocket.username",
		"no-ssl-verify": "websocket.no_ssl_verify",
		"log-level":     "logging.level",
		"log-format":    "logging.format",
		"log-file":      "logging.file.filename",
	} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

// setup loads the configuration and builds the logger before any command
// runs. Usage is only printed for errors found before this point.
func setup(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	c, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// selectedZone returns the zone chosen with --zone.
func selectedZone() (receiver.Zone, error) {
	return receiver.ZoneByNumber(cfg.Zone)
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	c, err := rootCmd.ExecuteC()
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		// cobra only prints usage for errors after a command was found
		c.PrintErr(c.UsageString())
	}
	return err
}

// ExitCode maps an error returned by Execute onto the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *iscp.ConnectionError
	if errors.As(err, &ce) || errors.Is(err, iscp.ErrConnectionClosed) {
		return 2
	}
	return 1
}
