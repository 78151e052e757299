// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import (
	"fmt"
	"strconv"
)

var groupNames = map[string]string{
	// Main zone
	"PWR": "SYSTEM_POWER",
	"AMT": "AUDIO_MUTING",
	"MVL": "MASTER_VOLUME",
	"SLI": "INPUT_SELECTOR",
	"TFR": "TONE_FRONT",
	"LMD": "LISTENING_MODE",
	"SLP": "SLEEP_TIMER",
	"DIM": "DIMMER",

	// Zone 2
	"ZPW": "ZONE2_POWER",
	"ZMT": "ZONE2_MUTING",
	"ZVL": "ZONE2_VOLUME",
	"SLZ": "ZONE2_SELECTOR",
	"ZTN": "ZONE2_TONE",

	// Information
	"IFA": "AUDIO_INFORMATION",
	"IFV": "VIDEO_INFORMATION",
	"ECN": "DISCOVERY",

	// Tuner
	"TUN": "TUNER_FREQUENCY",
	"PRS": "TUNER_PRESET",

	// NET/USB
	"NLS": "NET_LIST_INFO",
	"NLT": "NET_LIST_TITLE",
	"NTM": "NET_TIME_INFO",
	"NAT": "NET_ARTIST",
	"NAL": "NET_ALBUM",
	"NTI": "NET_TITLE",
	"NTR": "NET_TRACK_INFO",
	"NST": "NET_PLAY_STATUS",
	"NJA": "NET_JACKET_ART",
	"NMS": "NET_MENU_STATUS",
}

// FormatGroupCode returns the human-readable name for a group code
func FormatGroupCode(group string) string {
	if name, ok := groupNames[group]; ok {
		return name
	}
	return "UNKNOWN"
}

// FormatMessage formats a message into a human-readable line
func FormatMessage(m Message) string {
	timestamp := m.Timestamp.Format("15:04:05.000")
	group := m.GroupCode()
	return fmt.Sprintf("[%s] %-3s %-20s %s\n", timestamp, group, FormatGroupCode(group), FormatValue(group, m.Value()))
}

// FormatValue renders a reply value for display. Volumes are shown in
// decimal next to their hex wire form; everything else is passed through.
func FormatValue(group, value string) string {
	if value == NotAvailable {
		return "n/a"
	}
	switch group {
	case "MVL", "ZVL":
		if v, err := strconv.ParseUint(value, 16, 8); err == nil {
			return fmt.Sprintf("%d (0x%s)", v, value)
		}
	case "PWR", "ZPW":
		switch value {
		case "00":
			return "standby"
		case "01":
			return "on"
		}
	case "AMT", "ZMT":
		switch value {
		case "00":
			return "unmuted"
		case "01":
			return "muted"
		}
	}
	return value
}
