// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

import "fmt"

// AnomalyType represents different kinds of header and payload anomalies
type AnomalyType int

const (
	AnomalyHeaderLength AnomalyType = iota
	AnomalyVersion
	AnomalyReserved
	AnomalyStartByte
	AnomalyUnitType
	AnomalyShortCommand
)

// ValidationError describes something unusual about a frame that was still
// decoded successfully.
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateMessage checks a decoded message for anomalies. Receivers in the
// field are not always strict about their own framing, so none of these
// reject the message; they are reported for logging and statistics.
func ValidateMessage(m Message) []ValidationError {
	errors := []ValidationError{}

	if h := m.Header; h != nil {
		if h.HeaderLength != HeaderSize {
			errors = append(errors, ValidationError{
				Type:    AnomalyHeaderLength,
				Message: fmt.Sprintf("header length=%d (expected %d)", h.HeaderLength, HeaderSize),
				Details: map[string]interface{}{"header_length": h.HeaderLength},
			})
		}
		if h.Version != Version {
			errors = append(errors, ValidationError{
				Type:    AnomalyVersion,
				Message: fmt.Sprintf("version=0x%02X (expected 0x%02X)", h.Version, Version),
				Details: map[string]interface{}{"version": h.Version},
			})
		}
		if h.Reserved != [3]byte{} {
			errors = append(errors, ValidationError{
				Type:    AnomalyReserved,
				Message: fmt.Sprintf("reserved bytes % X not zero", h.Reserved[:]),
				Details: map[string]interface{}{"reserved": h.Reserved},
			})
		}
	}

	if len(m.Raw) > 0 {
		start := m.Raw[0]
		if m.Header != nil && len(m.Raw) > int(m.Header.HeaderLength) {
			start = m.Raw[m.Header.HeaderLength]
		}
		if start != StartByte {
			errors = append(errors, ValidationError{
				Type:    AnomalyStartByte,
				Message: fmt.Sprintf("start byte=0x%02X (expected '!')", start),
				Details: map[string]interface{}{"start": start},
			})
		}
	}

	if m.UnitType != UnitReceiver && m.UnitType != UnitDiscovery {
		errors = append(errors, ValidationError{
			Type:    AnomalyUnitType,
			Message: fmt.Sprintf("unit type=0x%02X", m.UnitType),
			Details: map[string]interface{}{"unit_type": m.UnitType},
		})
	}

	if len(m.Command) < GroupCodeSize {
		errors = append(errors, ValidationError{
			Type:    AnomalyShortCommand,
			Message: fmt.Sprintf("command %q shorter than a group code", m.Command),
			Details: map[string]interface{}{"length": len(m.Command)},
		})
	}

	return errors
}
