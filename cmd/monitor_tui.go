// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/oky/pkg/iscp"
	"github.com/Thermoquad/oky/pkg/receiver"
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// eventLogEntry is one line of the event log
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// zoneStatus is the last known state of the monitored zone
type zoneStatus struct {
	power     string
	volume    int
	hasVolume bool
	source    string
	muted     bool
	hasMute   bool
	tone      receiver.Tone
	hasTone   bool
}

// monitorModel is the Bubble Tea model for the monitor TUI
type monitorModel struct {
	zone     receiver.Zone
	connInfo string
	post     func(command string) error

	status zoneStatus
	stats  *iscp.Statistics

	eventLog      []eventLogEntry
	maxLogEntries int

	input       textinput.Model
	inputActive bool

	width          int
	height         int
	quitting       bool
	connectionLost bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type monitorTickMsg time.Time

type receiverMsg struct {
	msg iscp.Message
}

type postFailedMsg struct {
	command string
	err     error
}

type connectionLostMsg struct {
	err error
}

type reconnectedMsg struct {
	connInfo string
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func newMonitorModel(zone receiver.Zone, connInfo string, stats *iscp.Statistics, post func(string) error) monitorModel {
	ti := textinput.New()
	ti.Placeholder = "PWRQSTN"
	ti.Prompt = "> "
	ti.CharLimit = 64
	ti.Width = 30

	return monitorModel{
		zone:          zone,
		connInfo:      connInfo,
		post:          post,
		stats:         stats,
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		input:         ti,
		width:         80,
		height:        24,
	}
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case monitorTickMsg:
		return m, monitorTickCmd()

	case receiverMsg:
		m.applyMessage(msg.msg)

	case postFailedMsg:
		m.addLogEntry(fmt.Sprintf("SEND FAILED %s: %v", msg.command, msg.err), true)

	case connectionLostMsg:
		m.connectionLost = true
		m.addLogEntry(fmt.Sprintf("Connection lost (%v) - reconnecting...", msg.err), true)

	case reconnectedMsg:
		m.connectionLost = false
		m.connInfo = msg.connInfo
		m.status = zoneStatus{}
		m.addLogEntry("Reconnected", false)
	}

	return m, nil
}

func (m monitorModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputActive {
		return m.handleInputKey(msg)
	}

	z := m.zone
	var cmd tea.Cmd
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "tab", ":":
		m.inputActive = true
		cmd = m.input.Focus()

	case "p":
		param := receiver.On
		if m.status.power == receiver.On {
			param = receiver.Off
		}
		cmd = m.send(z.PowerGroup + param)

	case "+", "=":
		cmd = m.send(z.VolumeGroup + iscp.ParamUp)

	case "-":
		cmd = m.send(z.VolumeGroup + iscp.ParamDown)

	case "m":
		param := receiver.MuteOn
		if m.status.muted {
			param = receiver.MuteOff
		}
		cmd = m.send(z.MuteGroup + param)

	case "b", "B", "t", "T":
		if z.ToneGroup == "" {
			m.addLogEntry(fmt.Sprintf("Tone control not supported on %s", z.Name), true)
			break
		}
		cmd = m.send(z.ToneGroup + toneKeys[msg.String()])

	case "r":
		cmd = m.send(statusQueries(z)...)
	}

	return m, cmd
}

// toneKeys maps tone keys to tone parameters
var toneKeys = map[string]string{"b": "BUP", "B": "BDOWN", "t": "TUP", "T": "TDOWN"}

func (m monitorModel) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		command := strings.ToUpper(strings.TrimSpace(m.input.Value()))
		m.closeInput()
		if command != "" {
			cmd = m.send(command)
		}

	case tea.KeyEsc:
		m.closeInput()

	default:
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *monitorModel) closeInput() {
	m.input.Reset()
	m.input.Blur()
	m.inputActive = false
}

// send returns a command that writes commands to the receiver in order.
func (m *monitorModel) send(commands ...string) tea.Cmd {
	if m.connectionLost {
		m.addLogEntry("Cannot send command: connection lost", true)
		return nil
	}
	for _, c := range commands {
		m.addLogEntry("-> "+c, false)
	}
	post := m.post
	return func() tea.Msg {
		for _, c := range commands {
			if err := post(c); err != nil {
				return postFailedMsg{command: c, err: err}
			}
		}
		return nil
	}
}

// applyMessage updates the zone status from a receiver message and logs it.
func (m *monitorModel) applyMessage(msg iscp.Message) {
	group, value := msg.GroupCode(), msg.Value()
	z := m.zone

	switch group {
	case z.PowerGroup:
		m.status.power = value
	case z.VolumeGroup:
		if v, err := receiver.ParseVolume(group, value); err == nil {
			m.status.volume = v
			m.status.hasVolume = !msg.IsNotAvailable()
		}
	case z.SourceGroup:
		if name, err := receiver.SourceName(value); err == nil {
			m.status.source = name
		} else {
			m.status.source = value
		}
	case z.MuteGroup:
		m.status.muted = value == receiver.MuteOn
		m.status.hasMute = true
	case z.ToneGroup:
		if z.ToneGroup == "" {
			break
		}
		if t, err := receiver.ParseTone(group, value); err == nil {
			m.status.tone = t
			m.status.hasTone = true
		}
	}

	m.addLogEntry(fmt.Sprintf("<- %s: %s", iscp.FormatGroupCode(group), iscp.FormatValue(group, value)), false)
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	focusedBoxStyle = boxStyle.BorderForeground(lipgloss.Color("12"))
)

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("OKY MONITOR"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.connectionLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | zone %s | q=quit tab=command", connStatus, m.zone.Name)))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.renderStatus(), " ", m.renderStatistics()))
	s.WriteString("\n")
	s.WriteString(m.renderInput())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())

	return s.String()
}

func (m monitorModel) renderStatus() string {
	unknown := headerStyle.Render("?")
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-7s", label+":")), value)
	}

	var s strings.Builder
	s.WriteString(labelStyle.Render("STATUS"))
	s.WriteString("\n")

	power := unknown
	if m.status.power != "" {
		power = valueStyle.Render(iscp.FormatValue(m.zone.PowerGroup, m.status.power))
	}
	s.WriteString(row("Power", power))

	volume := unknown
	if m.status.hasVolume {
		volume = valueStyle.Render(fmt.Sprintf("%d", m.status.volume))
	}
	s.WriteString(row("Volume", volume))

	source := unknown
	if m.status.source != "" {
		source = valueStyle.Render(m.status.source)
	}
	s.WriteString(row("Source", source))

	mute := unknown
	if m.status.hasMute {
		mute = valueStyle.Render("off")
		if m.status.muted {
			mute = warningStyle.Render("on")
		}
	}
	s.WriteString(row("Mute", mute))

	if m.zone.ToneGroup != "" {
		tone := unknown
		if m.status.hasTone {
			tone = valueStyle.Render(m.status.tone.String())
		}
		s.WriteString(row("Tone", tone))
	}

	return boxStyle.Width(36).Render(strings.TrimSuffix(s.String(), "\n"))
}

func (m monitorModel) renderStatistics() string {
	snap := m.stats.Snapshot()

	var s strings.Builder
	s.WriteString(labelStyle.Render("STATISTICS"))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Frames:      %s\n", valueStyle.Render(fmt.Sprintf("%d", snap.Frames))))
	s.WriteString(fmt.Sprintf("Rate:        %s\n", valueStyle.Render(fmt.Sprintf("%.1f/s", snap.FrameRate))))
	malformed := valueStyle.Render("0")
	if snap.MalformedFrames > 0 {
		malformed = errorStyle.Render(fmt.Sprintf("%d", snap.MalformedFrames))
	}
	s.WriteString(fmt.Sprintf("Malformed:   %s\n", malformed))
	s.WriteString(fmt.Sprintf("Discarded:   %s\n", valueStyle.Render(fmt.Sprintf("%d B", snap.BytesDiscarded))))
	s.WriteString(fmt.Sprintf("Sent:        %s", valueStyle.Render(fmt.Sprintf("%d", snap.CommandsSent))))

	width := m.width - 36 - 8
	if width < 24 {
		width = 24
	}
	return boxStyle.Width(width).Render(s.String())
}

func (m monitorModel) renderInput() string {
	style := boxStyle
	if m.inputActive {
		style = focusedBoxStyle
	}
	content := headerStyle.Render("tab to enter a raw command")
	if m.inputActive {
		content = m.input.View()
	}
	return style.Width(m.width - 4).Render(content)
}

func (m monitorModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(labelStyle.Render("EVENTS"))
	s.WriteString("\n")

	// Fill what is left of the screen below the panels
	logHeight := m.height - 17
	if logHeight < 3 {
		logHeight = 3
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for i := startIdx; i < len(m.eventLog); i++ {
		entry := m.eventLog[i]
		icon := "i"
		style := warningStyle
		if entry.isError {
			icon = "x"
			style = errorStyle
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n",
			headerStyle.Render(entry.timestamp.Format("15:04:05.000")),
			style.Render(icon),
			entry.message))
	}

	return boxStyle.Width(m.width - 4).Render(strings.TrimSuffix(s.String(), "\n"))
}
