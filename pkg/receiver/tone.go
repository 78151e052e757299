// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"fmt"

	"github.com/Thermoquad/oky/pkg/iscp"
)

// Tone parameters
const (
	toneQuery      = iscp.ParamQuery
	toneBassUp     = "BUP"
	toneBassDown   = "BDOWN"
	toneTrebleUp   = "TUP"
	toneTrebleDown = "TDOWN"
)

// Tone holds bass and treble levels. Available is false when the receiver
// answered N/A, which covers both values.
type Tone struct {
	Bass      int
	Treble    int
	Available bool
}

func (t Tone) String() string {
	if !t.Available {
		return "bass n/a, treble n/a"
	}
	return fmt.Sprintf("bass %d, treble %d", t.Bass, t.Treble)
}

// Tone returns the current bass and treble levels.
func (z *ZoneControl) Tone() (Tone, error) { return z.tone(toneQuery) }

// BassUp raises bass one step.
func (z *ZoneControl) BassUp() (Tone, error) { return z.tone(toneBassUp) }

// BassDown lowers bass one step.
func (z *ZoneControl) BassDown() (Tone, error) { return z.tone(toneBassDown) }

// TrebleUp raises treble one step.
func (z *ZoneControl) TrebleUp() (Tone, error) { return z.tone(toneTrebleUp) }

// TrebleDown lowers treble one step.
func (z *ZoneControl) TrebleDown() (Tone, error) { return z.tone(toneTrebleDown) }

func (z *ZoneControl) tone(param string) (Tone, error) {
	if z.zone.ToneGroup == "" {
		return Tone{}, fmt.Errorf("%w: %s tone", ErrNotSupported, z.zone.Name)
	}
	v, err := z.send(z.zone.ToneGroup, param)
	if err != nil {
		return Tone{}, err
	}
	return ParseTone(z.zone.ToneGroup, v)
}

// ParseTone decodes a bass/treble pair sent as four hex digits. N/A yields
// a Tone that is not Available.
func ParseTone(group, value string) (Tone, error) {
	if value == iscp.NotAvailable {
		return Tone{}, nil
	}
	if len(value) != 4 {
		return Tone{}, fmt.Errorf("%w: %s value %q", ErrUnexpectedReply, group, value)
	}
	bass, err := parseHex(group, value[:2])
	if err != nil {
		return Tone{}, err
	}
	treble, err := parseHex(group, value[2:])
	if err != nil {
		return Tone{}, err
	}
	return Tone{Bass: bass, Treble: treble, Available: true}, nil
}
