// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package receiver provides typed zone operations (power, volume, source,
// mute and tone) on top of an ISCP connection.
package receiver

import (
	"github.com/Thermoquad/oky/pkg/iscp"
	"go.uber.org/zap"
)

// Commander sends one command and returns the correlated reply.
// *iscp.Conn implements it.
type Commander interface {
	SendCommand(command string) (string, error)
}

var _ Commander = (*iscp.Conn)(nil)

// Receiver issues typed commands through a Commander. It does not serialise
// callers; the Commander is expected to allow one command at a time.
type Receiver struct {
	cmd Commander
	log *zap.Logger
}

// Option configures a Receiver.
type Option func(*Receiver)

// WithLogger sets the logger for replies.
func WithLogger(l *zap.Logger) Option { return func(r *Receiver) { r.log = l } }

// New returns a Receiver sending commands through cmd.
func New(cmd Commander, opts ...Option) *Receiver {
	r := &Receiver{cmd: cmd, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Zone returns the controls for zone.
func (r *Receiver) Zone(zone Zone) *ZoneControl {
	return &ZoneControl{zone: zone, cmd: r.cmd, log: r.log}
}

// Main returns the controls for the main zone.
func (r *Receiver) Main() *ZoneControl { return r.Zone(Main) }

// Zone2 returns the controls for zone 2.
func (r *Receiver) Zone2() *ZoneControl { return r.Zone(Zone2) }

// SendCommand sends a raw command and returns the full reply.
func (r *Receiver) SendCommand(command string) (string, error) {
	return r.cmd.SendCommand(command)
}

// AudioInformation returns the receiver's description of the audio input.
func (r *Receiver) AudioInformation() (string, error) {
	return r.query("IFA")
}

// VideoInformation returns the receiver's description of the video input.
func (r *Receiver) VideoInformation() (string, error) {
	return r.query("IFV")
}

func (r *Receiver) query(group string) (string, error) {
	reply, err := r.cmd.SendCommand(iscp.Query(group))
	if err != nil {
		return "", err
	}
	return iscp.Value(reply), nil
}

// ZoneStatus is a snapshot of one zone.
type ZoneStatus struct {
	Zone   string
	Power  string
	Source string
	Volume int
	// Audio and Video are only queried for the main zone.
	Audio string
	Video string
}

// State is a snapshot of both zones.
type State struct {
	Main  ZoneStatus
	Zone2 ZoneStatus
}

// ZoneStatus queries power, source and volume of zone, plus audio and video
// information for the main zone. The queries are sent one after another, so
// the result is not atomic.
func (r *Receiver) ZoneStatus(zone Zone) (ZoneStatus, error) {
	z := r.Zone(zone)
	st := ZoneStatus{Zone: zone.Name}

	var err error
	if st.Power, err = z.Power(); err != nil {
		return st, err
	}
	if st.Source, err = z.Source(); err != nil {
		return st, err
	}
	if st.Volume, err = z.Volume(); err != nil {
		return st, err
	}
	if zone.Name != Main.Name {
		return st, nil
	}
	if st.Audio, err = r.AudioInformation(); err != nil {
		return st, err
	}
	if st.Video, err = r.VideoInformation(); err != nil {
		return st, err
	}
	return st, nil
}

// State queries the main zone, then zone 2.
func (r *Receiver) State() (State, error) {
	var (
		s   State
		err error
	)
	if s.Main, err = r.ZoneStatus(Main); err != nil {
		return s, err
	}
	if s.Zone2, err = r.ZoneStatus(Zone2); err != nil {
		return s, err
	}
	return s, nil
}
