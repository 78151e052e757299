// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Thermoquad/oky/pkg/receiver"
)

// withZone opens a connection, runs fn against the selected zone and closes
// the connection again.
func withZone(cmd *cobra.Command, fn func(r *receiver.Receiver, z *receiver.ZoneControl) error) error {
	zone, err := selectedZone()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	conn, connInfo, err := OpenConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug("connected", zap.String("connection", connInfo), zap.String("zone", zone.Name))

	r := receiver.New(conn, receiver.WithLogger(logger.Named("receiver")))
	return fn(r, r.Zone(zone))
}
