// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Handler receives every message decoded in listen mode. Returning an error
// stops Listen.
type Handler func(msg Message) error

// Option configures a Conn.
type Option func(*options)

type options struct {
	codec          Codec
	clock          clock.Clock
	logger         *zap.Logger
	stats          *Statistics
	connectTimeout time.Duration
	ackTimeout     time.Duration
	listenTimeout  time.Duration
	readSize       int
}

func newOptions(opts []Option) *options {
	o := &options{
		connectTimeout: DefaultConnectTimeout,
		ackTimeout:     DefaultAckTimeout,
		listenTimeout:  DefaultListenTimeout,
		readSize:       defaultReadSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.codec == nil {
		o.codec = NewNetworkCodec()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.stats == nil {
		o.stats = NewStatistics()
	}
	return o
}

// WithCodec selects the wire framing. Defaults to NewNetworkCodec().
func WithCodec(c Codec) Option { return func(o *options) { o.codec = c } }

// WithClock replaces the wall clock used for the acknowledgment window.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithLogger sets the logger for traffic and protocol warnings.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

// WithStatistics shares a statistics tracker with the caller.
func WithStatistics(s *Statistics) Option { return func(o *options) { o.stats = s } }

// WithConnectTimeout bounds Dial.
func WithConnectTimeout(d time.Duration) Option { return func(o *options) { o.connectTimeout = d } }

// WithAckTimeout sets how long SendCommand waits for a matching reply.
func WithAckTimeout(d time.Duration) Option { return func(o *options) { o.ackTimeout = d } }

// WithListenTimeout sets the per-read idle timeout in listen mode.
func WithListenTimeout(d time.Duration) Option { return func(o *options) { o.listenTimeout = d } }

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Conn is a connection to one receiver. It owns the stream and its receive
// buffer. Only one command can be outstanding at a time: the protocol has no
// request identifiers, so SendCommand holds the read side until its reply
// arrives.
type Conn struct {
	rwc io.ReadWriteCloser
	opt *options
	log *zap.Logger

	readMu  sync.Mutex // held by SendCommand and Listen
	writeMu sync.Mutex
	buf     ReceiveBuffer
	readBuf []byte

	closeOnce sync.Once
	closeErr  error
}

// Dial opens a TCP connection to a receiver.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Conn, error) {
	o := newOptions(opts)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	o.logger.Debug("connecting", zap.String("addr", addr))
	d := net.Dialer{Timeout: o.connectTimeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	return newConn(nc, o), nil
}

// NewConn wraps an already open stream, e.g. a serial port or a bridge.
func NewConn(rwc io.ReadWriteCloser, opts ...Option) *Conn {
	return newConn(rwc, newOptions(opts))
}

func newConn(rwc io.ReadWriteCloser, o *options) *Conn {
	return &Conn{
		rwc:     rwc,
		opt:     o,
		log:     o.logger,
		readBuf: make([]byte, o.readSize),
	}
}

// Statistics returns the connection's statistics tracker.
func (c *Conn) Statistics() *Statistics {
	return c.opt.stats
}

// SendCommand sends command and waits for the reply carrying the same group
// code. Replies for other group codes are discarded. If no matching reply
// arrives within the acknowledgment window an *AcknowledgmentTimeoutError is
// returned.
func (c *Conn) SendCommand(command string) (string, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if err := c.write(command); err != nil {
		return "", err
	}

	clk := c.opt.clock
	start := clk.Now()
	var last string

	timeout := func() error {
		c.opt.stats.recordTimeout()
		elapsed := clk.Since(start)
		c.log.Warn("command not acknowledged",
			zap.String("command", command),
			zap.String("last_reply", last),
			zap.Duration("elapsed", elapsed))
		return &AcknowledgmentTimeoutError{Command: command, LastReply: last, Elapsed: elapsed}
	}

	for {
		msg, ok, err := c.next()
		if err != nil {
			return "", err
		}
		if ok {
			if Matches(command, msg.Command) {
				rtt := clk.Since(start)
				c.opt.stats.recordAcknowledged(rtt)
				c.log.Debug("received", zap.String("reply", msg.Command), zap.Duration("rtt", rtt))
				return msg.Command, nil
			}
			last = msg.Command
			c.opt.stats.recordUnsolicited()
			c.log.Debug("ignoring unsolicited reply",
				zap.String("command", command),
				zap.String("reply", msg.Command))
		}

		if clk.Since(start) > c.opt.ackTimeout {
			return "", timeout()
		}
		if ok {
			continue
		}

		// The clock only measures the window; the transport deadline is
		// wall time.
		if err := c.fill(c.opt.ackTimeout - clk.Since(start)); err != nil {
			if errors.Is(err, errReadTimeout) {
				return "", timeout()
			}
			return "", err
		}
	}
}

// Post writes command without waiting for a reply. It is meant to be used
// while another goroutine runs Listen on the same connection.
func (c *Conn) Post(command string) error {
	return c.write(command)
}

// Listen forwards every decoded message to handler until ctx is cancelled,
// the peer closes the connection, or handler returns an error. Cancelling ctx
// closes the connection to unblock the pending read.
func (c *Conn) Listen(ctx context.Context, handler Handler) error {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		for {
			msg, ok, err := c.next()
			if err != nil {
				c.log.Warn("skipping malformed frame", zap.Error(err))
				continue
			}
			if !ok {
				break
			}
			if err := handler(msg); err != nil {
				return err
			}
		}

		err := c.fill(c.opt.listenTimeout)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errReadTimeout) {
			c.log.Debug("listen idle", zap.Duration("timeout", c.opt.listenTimeout))
			continue
		}
		return err
	}
}

// Close releases the connection. Calling it more than once is safe.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.log.Debug("closing connection")
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

func (c *Conn) write(command string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	frame := c.opt.codec.Encode(command)
	c.log.Debug("sending", zap.String("command", command), zap.Int("bytes", len(frame)))

	for written := 0; written < len(frame); {
		n, err := c.rwc.Write(frame[written:])
		if err != nil {
			if classifyError(err) == ErrConnectionClosed {
				return ErrConnectionClosed
			}
			return fmt.Errorf("iscp: write %q: %w", command, err)
		}
		written += n
	}
	c.opt.stats.recordSent()
	return nil
}

// next decodes one buffered message, if any.
func (c *Conn) next() (Message, bool, error) {
	msg, ok, err := c.buf.Next(c.opt.codec)
	c.opt.stats.recordBytes(0, c.buf.Discarded())
	if err != nil {
		c.opt.stats.RecordMalformed()
		return Message{}, false, err
	}
	if !ok {
		return Message{}, false, nil
	}

	msg.Timestamp = c.opt.clock.Now()
	anomalies := ValidateMessage(msg)
	for i := range anomalies {
		c.log.Debug("frame anomaly", zap.String("command", msg.Command), zap.Error(&anomalies[i]))
	}
	c.opt.stats.RecordFrame(len(anomalies))
	return msg, true, nil
}

// fill performs one read into the receive buffer, waiting at most timeout
// of wall time when the stream supports read deadlines.
func (c *Conn) fill(timeout time.Duration) error {
	if d, ok := c.rwc.(readDeadliner); ok {
		_ = d.SetReadDeadline(time.Now().Add(timeout))
	}

	n, err := c.rwc.Read(c.readBuf)
	if n > 0 {
		_, _ = c.buf.Write(c.readBuf[:n])
		c.opt.stats.recordBytes(n, c.buf.Discarded())
	}
	if err != nil {
		if n > 0 && errors.Is(err, io.EOF) {
			return nil
		}
		return classifyError(err)
	}
	if n == 0 {
		return ErrConnectionClosed
	}
	return nil
}

// classifyError maps transport errors onto the package's error taxonomy.
func classifyError(err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return errReadTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return errReadTimeout
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, ErrConnectionClosed):
		return ErrConnectionClosed
	}
	return err
}
