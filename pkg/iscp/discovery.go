// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// DiscoveryQuery is the command broadcast to find receivers on the LAN.
const DiscoveryQuery = "ECNQSTN"

// Device is a receiver that answered a discovery query.
type Device struct {
	Model      string
	Port       int
	Region     string
	Identifier string // usually the MAC address
	Host       string
}

// Address returns host:port for Dial.
func (d Device) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// ParseDiscoveryReply parses an "ECN<model>/<port>/<region>/<id>" reply.
func ParseDiscoveryReply(command string) (Device, error) {
	if GroupCode(command) != "ECN" {
		return Device{}, fmt.Errorf("not a discovery reply: %q", command)
	}
	fields := strings.Split(Value(command), "/")
	if len(fields) != 4 {
		return Device{}, fmt.Errorf("discovery reply has %d fields, want 4: %q", len(fields), command)
	}
	port, err := strconv.Atoi(fields[1])
	if err != nil {
		return Device{}, fmt.Errorf("discovery reply port %q: %w", fields[1], err)
	}
	return Device{
		Model:      fields[0],
		Port:       port,
		Region:     fields[2],
		Identifier: strings.TrimRight(fields[3], "\x00"),
	}, nil
}

// discoveryEncoder addresses the query to every unit type.
var discoveryEncoder = &Encoder{
	UnitType:     UnitDiscovery,
	Terminator:   []byte{CRByte, LFByte},
	StrictLength: true,
}

// Discover broadcasts a discovery query to addr (normally
// "255.255.255.255:60128") and collects answers until timeout or ctx ends.
// Each receiver is reported once.
func Discover(ctx context.Context, addr string, timeout time.Duration) ([]Device, error) {
	dst, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("iscp: resolve %s: %w", addr, err)
	}
	pc, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("iscp: open discovery socket: %w", err)
	}
	defer pc.Close()

	if _, err := pc.WriteTo(discoveryEncoder.Encode(DiscoveryQuery), dst); err != nil {
		return nil, fmt.Errorf("iscp: send discovery query: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = pc.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = pc.SetReadDeadline(time.Now()) })
	defer stop()

	seen := make(map[string]bool)
	devices := make([]Device, 0)
	buf := make([]byte, 1024)
	for {
		n, from, err := pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return devices, nil
			}
			return devices, fmt.Errorf("iscp: read discovery reply: %w", err)
		}

		frame, _, size, err := DecodeFrame(buf[:n])
		if err != nil || size == 0 {
			continue
		}
		dev, err := ParseDiscoveryReply(frame.Command())
		if err != nil {
			continue
		}
		if ua, ok := from.(*net.UDPAddr); ok {
			dev.Host = ua.IP.String()
		}
		key := dev.Identifier + "@" + dev.Host
		if seen[key] {
			continue
		}
		seen[key] = true
		devices = append(devices, dev)
	}
}
