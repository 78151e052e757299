// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned for a feature the zone does not have.
var ErrNotSupported = errors.New("receiver: not supported by zone")

// ErrUnexpectedReply is returned when a reply value cannot be decoded.
var ErrUnexpectedReply = errors.New("receiver: unexpected reply")

// UnknownSourceError is returned for a source name or wire code that is not
// in the source table. Exactly one of Name and Code is set.
type UnknownSourceError struct {
	Name string
	Code string
}

func (e *UnknownSourceError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("receiver: unknown source %q", e.Name)
	}
	return fmt.Sprintf("receiver: unknown source code %q", e.Code)
}
