// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package receiver

import "sort"

// sourceCodes maps symbolic source names to their SLI/SLZ parameter.
var sourceCodes = map[string]string{
	"VCR/DVR":       "00",
	"CBL/STAT":      "01",
	"GAME":          "02",
	"AUX":           "03",
	"AUX2":          "04",
	"PC":            "05",
	"BD/DVD":        "10",
	"TV/CD":         "23",
	"TUNER":         "24",
	"DLNA":          "27",
	"NETRADIO":      "28",
	"USB":           "29",
	"USB2":          "2A",
	"NET":           "2B",
	"PORT":          "40",
	"SOURCE":        "80",
	"AUDISSEYSETUP": "FF",
	"7F":            "OFF",
	"UP":            "UP",
	"DOWN":          "DOWN",
}

var sourceNames = func() map[string]string {
	m := make(map[string]string, len(sourceCodes))
	for name, code := range sourceCodes {
		m[code] = name
	}
	return m
}()

// SourceCode returns the wire code for a symbolic source name.
func SourceCode(name string) (string, error) {
	code, ok := sourceCodes[name]
	if !ok {
		return "", &UnknownSourceError{Name: name}
	}
	return code, nil
}

// SourceName returns the symbolic name for a wire code.
func SourceName(code string) (string, error) {
	name, ok := sourceNames[code]
	if !ok {
		return "", &UnknownSourceError{Code: code}
	}
	return name, nil
}

// Sources returns every symbolic source name, sorted.
func Sources() []string {
	names := make([]string, 0, len(sourceCodes))
	for name := range sourceCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
