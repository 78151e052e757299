// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package iscp

// GroupCode returns the leading 3 characters of a command or reply. Shorter
// input is returned unchanged.
func GroupCode(command string) string {
	if len(command) < GroupCodeSize {
		return command
	}
	return command[:GroupCodeSize]
}

// Value returns everything after the group code.
func Value(command string) string {
	if len(command) < GroupCodeSize {
		return ""
	}
	return command[GroupCodeSize:]
}

// Matches reports whether reply answers request. A reply answers a request
// iff both carry the same 3 byte group code.
//
// The protocol has no request identifiers, so an unsolicited broadcast for
// the same feature (for example a volume change made on the remote while a
// volume query is in flight) is indistinguishable from the real answer.
func Matches(request, reply string) bool {
	if len(request) < GroupCodeSize || len(reply) < GroupCodeSize {
		return false
	}
	return request[:GroupCodeSize] == reply[:GroupCodeSize]
}

// Query builds the query form of a group code, e.g. "PWR" -> "PWRQSTN".
func Query(group string) string {
	return group + ParamQuery
}
