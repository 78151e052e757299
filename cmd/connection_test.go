// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oky/pkg/iscp"
)

// bridgeServer accepts one WebSocket client and sends it the given frames.
func bridgeServer(t *testing.T, frames ...[]byte) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for _, f := range frames {
			if err := c.WriteMessage(websocket.BinaryMessage, f); err != nil {
				return
			}
		}
		// hold the connection open until the client goes away
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketConnection_Read(t *testing.T) {
	frame := iscp.ReplyEncoder().Encode("PWR01")
	ws, err := OpenWebSocketConnection(context.Background(), bridgeServer(t, frame), "", "", false)
	require.NoError(t, err)
	defer ws.Close()

	conn := iscp.NewConn(ws)
	var got []string
	errStop := errors.New("stop")
	err = conn.Listen(context.Background(), func(m iscp.Message) error {
		got = append(got, m.Command)
		return errStop
	})
	assert.ErrorIs(t, err, errStop)
	assert.Equal(t, []string{"PWR01"}, got)
}

func TestWebSocketConnection_DeadAfterDeadline(t *testing.T) {
	ws, err := OpenWebSocketConnection(context.Background(), bridgeServer(t), "", "", false)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	buf := make([]byte, 64)
	_, err = ws.Read(buf)
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)

	_, err = ws.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestWebSocketConnection_TimeoutThenClosed(t *testing.T) {
	ws, err := OpenWebSocketConnection(context.Background(), bridgeServer(t), "", "", false)
	require.NoError(t, err)

	conn := iscp.NewConn(ws, iscp.WithAckTimeout(30*time.Millisecond))
	defer conn.Close()

	var ate *iscp.AcknowledgmentTimeoutError
	_, err = conn.SendCommand("PWRQSTN")
	require.ErrorAs(t, err, &ate)

	_, err = conn.SendCommand("PWRQSTN")
	assert.ErrorIs(t, err, iscp.ErrConnectionClosed)
}

func TestOpenWebSocketConnection_BadURL(t *testing.T) {
	_, err := OpenWebSocketConnection(context.Background(), "http://bridge.local/iscp", "", "", false)
	assert.ErrorContains(t, err, "scheme must be ws or wss")

	var ce *iscp.ConnectionError
	_, err = OpenWebSocketConnection(context.Background(), "ws://127.0.0.1:1/iscp", "", "", false)
	assert.ErrorAs(t, err, &ce)
}

func TestGetPassword_FromEnvironment(t *testing.T) {
	t.Setenv("OKY_PASSWORD", "s3cret")
	pw, err := GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)
}
