// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Thermoquad/oky/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("bogus"))
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "warn"}, false, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, log.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "error"}, true, &buf)
	require.NoError(t, err)

	log.Debug("sending", zap.String("command", "PWRQSTN"))
	assert.Contains(t, buf.String(), "PWRQSTN")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, false, &buf)
	require.NoError(t, err)

	log.Info("received", zap.String("reply", "PWR01"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "received", entry["msg"])
	assert.Equal(t, "PWR01", entry["reply"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := NewWithWriter(config.LoggingConfig{Format: "xml"}, false, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_RollingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oky.log")
	log, err := NewWithWriter(config.LoggingConfig{
		Level: "info",
		File:  config.FileConfig{Filename: path, MaxSizeMB: 1},
	}, false, &bytes.Buffer{})
	require.NoError(t, err)

	log.Info("to file")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
