// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"fmt"
	"strconv"

	"github.com/Thermoquad/oky/pkg/iscp"
	"go.uber.org/zap"
)

// Zone names the group codes a receiver zone answers to.
type Zone struct {
	Name string

	PowerGroup  string
	VolumeGroup string
	SourceGroup string
	MuteGroup   string
	// ToneGroup is empty when the zone has no tone control.
	ToneGroup string
}

// Receiver zones
var (
	Main = Zone{
		Name:        "main",
		PowerGroup:  "PWR",
		VolumeGroup: "MVL",
		SourceGroup: "SLI",
		MuteGroup:   "AMT",
	}
	Zone2 = Zone{
		Name:        "zone2",
		PowerGroup:  "ZPW",
		VolumeGroup: "ZVL",
		SourceGroup: "SLZ",
		MuteGroup:   "ZMT",
		ToneGroup:   "ZTN",
	}
)

// ZoneByNumber returns Main for 1 and Zone2 for 2.
func ZoneByNumber(n int) (Zone, error) {
	switch n {
	case 1:
		return Main, nil
	case 2:
		return Zone2, nil
	}
	return Zone{}, fmt.Errorf("receiver: no zone %d", n)
}

// Volume limits
const (
	MaxVolume      = 80
	FallbackVolume = 25 // sent instead of anything above MaxVolume
)

// Parameter values for power and mute
const (
	On  = "01"
	Off = "00"

	// MuteOn and MuteOff follow the ISCP command reference, where 01 mutes.
	// Some older clients send 00 to mute zone 2; that mapping is not
	// reproduced here.
	MuteOn  = "01"
	MuteOff = "00"
)

// ZoneControl issues commands for one zone.
type ZoneControl struct {
	zone Zone
	cmd  Commander
	log  *zap.Logger
}

// Zone returns the zone this control is bound to.
func (z *ZoneControl) Zone() Zone {
	return z.zone
}

// send issues group+param and returns the reply value.
func (z *ZoneControl) send(group, param string) (string, error) {
	reply, err := z.cmd.SendCommand(group + param)
	if err != nil {
		return "", err
	}
	z.log.Debug("reply", zap.String("zone", z.zone.Name), zap.String("reply", reply))
	return iscp.Value(reply), nil
}

// Power returns the power parameter, "01" on and "00" standby.
func (z *ZoneControl) Power() (string, error) {
	return z.send(z.zone.PowerGroup, iscp.ParamQuery)
}

// PowerOn switches the zone on.
func (z *ZoneControl) PowerOn() (string, error) {
	return z.send(z.zone.PowerGroup, On)
}

// PowerOff puts the zone in standby.
func (z *ZoneControl) PowerOff() (string, error) {
	return z.send(z.zone.PowerGroup, Off)
}

// Volume returns the current volume. A receiver that reports the volume as
// not available yields 0.
func (z *ZoneControl) Volume() (int, error) {
	v, err := z.send(z.zone.VolumeGroup, iscp.ParamQuery)
	if err != nil {
		return 0, err
	}
	return ParseVolume(z.zone.VolumeGroup, v)
}

// SetVolume sets an absolute volume and returns the acknowledged value.
// Negative values become 0 and values above MaxVolume become FallbackVolume.
func (z *ZoneControl) SetVolume(volume int) (int, error) {
	v, err := z.send(z.zone.VolumeGroup, FormatVolume(volume))
	if err != nil {
		return 0, err
	}
	return parseHex(z.zone.VolumeGroup, v)
}

// VolumeUp raises the volume. With delta 0 the receiver steps the volume
// itself, otherwise the current volume is read and delta added to it.
func (z *ZoneControl) VolumeUp(delta int) (int, error) {
	if delta == 0 {
		return z.step(iscp.ParamUp)
	}
	current, err := z.Volume()
	if err != nil {
		return 0, err
	}
	return z.SetVolume(current + delta)
}

// VolumeDown lowers the volume, see VolumeUp.
func (z *ZoneControl) VolumeDown(delta int) (int, error) {
	if delta == 0 {
		return z.step(iscp.ParamDown)
	}
	current, err := z.Volume()
	if err != nil {
		return 0, err
	}
	return z.SetVolume(current - delta)
}

func (z *ZoneControl) step(param string) (int, error) {
	v, err := z.send(z.zone.VolumeGroup, param)
	if err != nil {
		return 0, err
	}
	return parseHex(z.zone.VolumeGroup, v)
}

// Source returns the symbolic name of the selected source.
func (z *ZoneControl) Source() (string, error) {
	v, err := z.send(z.zone.SourceGroup, iscp.ParamQuery)
	if err != nil {
		return "", err
	}
	return SourceName(v)
}

// SetSource selects a source by symbolic name and returns the name the
// receiver acknowledged.
func (z *ZoneControl) SetSource(name string) (string, error) {
	code, err := SourceCode(name)
	if err != nil {
		return "", err
	}
	v, err := z.send(z.zone.SourceGroup, code)
	if err != nil {
		return "", err
	}
	return SourceName(v)
}

// Mute mutes the zone.
func (z *ZoneControl) Mute() (string, error) {
	return z.send(z.zone.MuteGroup, MuteOn)
}

// Unmute unmutes the zone.
func (z *ZoneControl) Unmute() (string, error) {
	return z.send(z.zone.MuteGroup, MuteOff)
}

// FormatVolume clamps volume and encodes it as two uppercase hex digits.
func FormatVolume(volume int) string {
	switch {
	case volume < 0:
		volume = 0
	case volume > MaxVolume:
		volume = FallbackVolume
	}
	return fmt.Sprintf("%02X", volume)
}

// ParseVolume decodes a volume reply for group. N/A yields 0.
func ParseVolume(group, value string) (int, error) {
	if value == iscp.NotAvailable {
		return 0, nil
	}
	return parseHex(group, value)
}

func parseHex(group, value string) (int, error) {
	v, err := strconv.ParseUint(value, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrUnexpectedReply, group, value)
	}
	return int(v), nil
}
