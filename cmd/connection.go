// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/Thermoquad/oky/pkg/iscp"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

var (
	_ Connection = (*SerialConnection)(nil)
	_ Connection = (*WebSocketConnection)(nil)
)

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if n == 0 && err == nil {
		// the port returns 0, nil when its read timeout expires
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// SetReadDeadline maps a deadline onto the port's read timeout.
func (s *SerialConnection) SetReadDeadline(t time.Time) error {
	d := time.Until(t)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return s.port.SetReadTimeout(d)
}

// WebSocketConnection wraps a WebSocket connection for byte-level reading.
//
// gorilla/websocket connections cannot be read again after any read error,
// a deadline included, so once an acknowledgment timeout has hit, every
// later Read returns io.EOF and the iscp.Conn reports ErrConnectionClosed.
// Callers that keep going after a timeout must open a new connection.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool // Track if connection has failed/closed
	writeMu   sync.Mutex
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	// Return immediately if connection is known to be closed
	if w.closed {
		return 0, io.EOF
	}

	// If we have buffered data, return it first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	// Read next message from WebSocket (non-recursive loop to avoid stack overflow)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// gorilla/websocket connections are unusable after any read
			// error, including a deadline
			w.closed = true
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}

		// The bridge forwards receiver traffic as binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}

		// Buffer the message and return what fits
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	return w.conn.Close()
}

// SetReadDeadline implements the deadline used for the acknowledgment window.
func (w *WebSocketConnection) SetReadDeadline(t time.Time) error {
	return w.conn.SetReadDeadline(t)
}

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (*SerialConnection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, &iscp.ConnectionError{Addr: portName, Err: err}
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection dials a bridge that relays ISCP frames as binary
// WebSocket messages. username and password, when both are set, are sent as
// HTTP Basic credentials.
func OpenWebSocketConnection(ctx context.Context, wsURL, username, password string, skipSSLVerify bool) (*WebSocketConnection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge URL %q: %w", wsURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("invalid bridge URL %q: scheme must be ws or wss", wsURL)
	}

	dialer := websocket.Dialer{HandshakeTimeout: connectTimeout()}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	header := http.Header{}
	if username != "" && password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		header.Set("Authorization", "Basic "+token)
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("bridge answered %s: %w", resp.Status, err)
		}
		return nil, &iscp.ConnectionError{Addr: u.Host, Err: err}
	}
	return &WebSocketConnection{conn: conn}, nil
}

// connectTimeout is the configured connect timeout, or the iscp default
// before the configuration is loaded.
func connectTimeout() time.Duration {
	if cfg == nil || cfg.ConnectTimeout <= 0 {
		return iscp.DefaultConnectTimeout
	}
	return cfg.ConnectTimeout
}

// GetPassword returns the bridge password from OKY_PASSWORD, or asks for it
// on the terminal without echo. Piped input is read as a single line.
func GetPassword() (string, error) {
	if pw, ok := os.LookupEnv("OKY_PASSWORD"); ok && pw != "" {
		return pw, nil
	}

	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read bridge password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(os.Stderr, "Bridge password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read bridge password: %w", err)
	}
	return string(pw), nil
}

// wsPassword is asked for once and reused when the monitor reconnects
var wsPassword string

// connOptions returns the iscp options derived from the configuration.
func connOptions(extra ...iscp.Option) []iscp.Option {
	opts := []iscp.Option{
		iscp.WithLogger(logger.Named("iscp")),
		iscp.WithConnectTimeout(cfg.ConnectTimeout),
		iscp.WithAckTimeout(cfg.AckTimeout),
	}
	return append(opts, extra...)
}

// OpenConnection opens a WebSocket, serial or TCP connection to the
// receiver, in that order of preference, based on flags and configuration.
func OpenConnection(ctx context.Context, extra ...iscp.Option) (*iscp.Conn, string, error) {
	opts := connOptions(extra...)

	if wsURL := cfg.WebSocket.URL; wsURL != "" {
		// WebSocket mode
		if cfg.WebSocket.Username != "" && wsPassword == "" {
			var err error
			wsPassword, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		ws, err := OpenWebSocketConnection(ctx, wsURL, cfg.WebSocket.Username, wsPassword, cfg.WebSocket.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return iscp.NewConn(ws, opts...), fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName := cfg.Serial.Port; portName != "" {
		// Serial mode
		sc, err := OpenSerialConnection(portName, cfg.Serial.Baud)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, iscp.WithCodec(iscp.NewSerialCodec()))
		return iscp.NewConn(sc, opts...), fmt.Sprintf("Serial: %s @ %d baud", portName, cfg.Serial.Baud), nil
	}

	host, port, err := cfg.Resolve(hostFlag, portFlag)
	if err != nil {
		return nil, "", err
	}
	conn, err := iscp.Dial(ctx, host, port, opts...)
	if err != nil {
		return nil, "", err
	}
	return conn, "TCP: " + net.JoinHostPort(host, strconv.Itoa(port)), nil
}
