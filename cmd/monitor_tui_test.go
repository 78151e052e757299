// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

// recorder collects commands posted by the model.
type recorder struct {
	posted []string
	err    error
}

func (r *recorder) post(command string) error {
	r.posted = append(r.posted, command)
	return r.err
}

func newTestModel(zone receiver.Zone) (monitorModel, *recorder) {
	rec := &recorder{}
	return newMonitorModel(zone, "TCP: 10.0.0.112:60128", iscp.NewStatistics(), rec.post), rec
}

func update(t *testing.T, m monitorModel, msg tea.Msg) (monitorModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(monitorModel)
	require.True(t, ok, "Update returned %T", next)
	return mm, cmd
}

// press sends a key and runs the resulting command, feeding its message back
// into the model.
func press(t *testing.T, m monitorModel, key tea.KeyMsg) monitorModel {
	t.Helper()
	m, cmd := update(t, m, key)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			m, _ = update(t, m, msg)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func receive(t *testing.T, m monitorModel, command string) monitorModel {
	t.Helper()
	m, _ = update(t, m, receiverMsg{msg: iscp.Message{Command: command}})
	return m
}

func TestMonitor_ApplyMessages(t *testing.T) {
	m, _ := newTestModel(receiver.Main)

	m = receive(t, m, "PWR01")
	m = receive(t, m, "MVL2A")
	m = receive(t, m, "SLI10")
	m = receive(t, m, "AMT01")
	m = receive(t, m, "ZPW00") // other zone

	assert.Equal(t, "01", m.status.power)
	assert.True(t, m.status.hasVolume)
	assert.Equal(t, 42, m.status.volume)
	assert.Equal(t, "BD/DVD", m.status.source)
	assert.True(t, m.status.muted)
	assert.Len(t, m.eventLog, 5)
	assert.Contains(t, m.eventLog[0].message, "SYSTEM_POWER")

	m = receive(t, m, "MVLN/A")
	assert.False(t, m.status.hasVolume)

	m = receive(t, m, "SLI99")
	assert.Equal(t, "99", m.status.source)
}

func TestMonitor_ZoneTone(t *testing.T) {
	m, _ := newTestModel(receiver.Zone2)

	m = receive(t, m, "ZTN0A08")
	require.True(t, m.status.hasTone)
	assert.Equal(t, receiver.Tone{Bass: 10, Treble: 8, Available: true}, m.status.tone)

	m = receive(t, m, "ZTNN/A")
	assert.False(t, m.status.tone.Available)
	assert.Contains(t, m.View(), "bass n/a")
}

func TestMonitor_Keys(t *testing.T) {
	tests := []struct {
		name   string
		zone   receiver.Zone
		setup  []string
		key    string
		posted []string
	}{
		{"volume up", receiver.Main, nil, "+", []string{"MVLUP"}},
		{"volume down", receiver.Zone2, nil, "-", []string{"ZVLDOWN"}},
		{"power on from standby", receiver.Main, []string{"PWR00"}, "p", []string{"PWR01"}},
		{"power off", receiver.Main, []string{"PWR01"}, "p", []string{"PWR00"}},
		{"mute", receiver.Main, []string{"AMT00"}, "m", []string{"AMT01"}},
		{"unmute", receiver.Zone2, []string{"ZMT01"}, "m", []string{"ZMT00"}},
		{"bass up", receiver.Zone2, nil, "b", []string{"ZTNBUP"}},
		{"treble down", receiver.Zone2, nil, "T", []string{"ZTNTDOWN"}},
		{"tone on main", receiver.Main, nil, "b", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, rec := newTestModel(tt.zone)
			for _, s := range tt.setup {
				m = receive(t, m, s)
			}
			press(t, m, runes(tt.key))
			assert.Equal(t, tt.posted, rec.posted)
		})
	}
}

func TestMonitor_Refresh(t *testing.T) {
	m, rec := newTestModel(receiver.Zone2)
	m = press(t, m, runes("r"))
	assert.Equal(t, statusQueries(receiver.Zone2), rec.posted)
	assert.Len(t, m.eventLog, 5)
}

func TestMonitor_RawCommand(t *testing.T) {
	m, rec := newTestModel(receiver.Main)

	// Keystrokes into the input return cursor blink ticks, so they are
	// applied without running the returned commands.
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.inputActive)

	m, _ = update(t, m, runes("q"))
	assert.True(t, m.inputActive, "q types into the input instead of quitting")
	assert.False(t, m.quitting)

	m, _ = update(t, m, runes("ifaqstn"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.inputActive)
	assert.Equal(t, []string{"QIFAQSTN"}, rec.posted)
	assert.Equal(t, "", m.input.Value())
}

func TestMonitor_RawCommandCancel(t *testing.T) {
	m, rec := newTestModel(receiver.Main)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, _ = update(t, m, runes("PWR01"))
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.inputActive)
	assert.Empty(t, rec.posted)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd, "empty input sends nothing")
	assert.False(t, m.inputActive)
}

func TestMonitor_PostFailure(t *testing.T) {
	m, rec := newTestModel(receiver.Main)
	rec.err = iscp.ErrConnectionClosed

	m = press(t, m, runes("+"))
	last := m.eventLog[len(m.eventLog)-1]
	assert.True(t, last.isError)
	assert.Contains(t, last.message, "SEND FAILED MVLUP")
}

func TestMonitor_ConnectionLost(t *testing.T) {
	m, rec := newTestModel(receiver.Main)
	m = receive(t, m, "PWR01")

	m, _ = update(t, m, connectionLostMsg{err: errors.New("reset by peer")})
	assert.True(t, m.connectionLost)
	assert.Contains(t, m.View(), "RECONNECTING")

	m = press(t, m, runes("+"))
	assert.Empty(t, rec.posted)
	assert.Equal(t, "Cannot send command: connection lost", m.eventLog[len(m.eventLog)-1].message)

	m, _ = update(t, m, reconnectedMsg{connInfo: "TCP: 10.0.0.113:60128"})
	assert.False(t, m.connectionLost)
	assert.Equal(t, zoneStatus{}, m.status)
	assert.Contains(t, m.View(), "10.0.0.113")
}

func TestMonitor_Quit(t *testing.T) {
	m, _ := newTestModel(receiver.Main)
	m, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Equal(t, "Shutting down...\n", m.View())
}

func TestMonitor_EventLogCap(t *testing.T) {
	m, _ := newTestModel(receiver.Main)
	for i := 0; i < 150; i++ {
		m = receive(t, m, fmt.Sprintf("MVL%02X", i%80))
	}
	assert.Len(t, m.eventLog, m.maxLogEntries)
	assert.True(t, strings.HasSuffix(m.eventLog[len(m.eventLog)-1].message, "69 (0x45)"))
}

func TestMonitor_View(t *testing.T) {
	m, _ := newTestModel(receiver.Main)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 40})
	m = receive(t, m, "PWR01")

	view := m.View()
	assert.Contains(t, view, "OKY MONITOR")
	assert.Contains(t, view, "zone main")
	assert.Contains(t, view, "STATUS")
	assert.Contains(t, view, "STATISTICS")
	assert.Contains(t, view, "EVENTS")
}

func TestConnectionManager_Post(t *testing.T) {
	cm := &connectionManager{zone: receiver.Main}
	assert.ErrorIs(t, cm.post("PWRQSTN"), iscp.ErrConnectionClosed)

	client, server := net.Pipe()
	defer server.Close()
	cm.setConn(iscp.NewConn(client))
	defer cm.getConn().Close()

	want := iscp.EncodeCommand("PWRQSTN")
	got := make(chan []byte, 1)
	go func() {
		buf := make([]byte, len(want))
		n, _ := io.ReadFull(server, buf)
		got <- buf[:n]
	}()

	require.NoError(t, cm.post("PWRQSTN"))
	assert.Equal(t, want, <-got)
}
