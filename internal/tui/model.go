package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"tunnelo/internal/reporting"
	"tunnelo/internal/tunnel"
	"tunnelo/pkg/logging"
)

// MaxLogLines bounds the log kept for the log panel.
const MaxLogLines = 500

// For mocking in tests
var writeClipboard = clipboard.WriteAll

type logLine struct {
	level logging.LogLevel
	text  string
}

// Config wires the status view to a running orchestrator.
type Config struct {
	Endpoints []tunnel.Endpoint
	// Store holds the authoritative tunnel state. Updates only trigger
	// re-renders and may drop entries under load.
	Store   reporting.StateStore
	Updates <-chan reporting.Update
	Logs    <-chan logging.LogEntry
	Debug   bool
}

// Model is the bubbletea model of the status view.
type Model struct {
	cfg Config

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	logView viewport.Model

	logLines []logLine
	showLog  bool
	width    int
	height   int
	quitting bool
}

// New creates the initial model.
func New(cfg Config) Model {
	if cfg.Store == nil {
		cfg.Store = reporting.NewStateStore()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		cfg:     cfg,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		logView: viewport.New(0, 0),
		showLog: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		listenForUpdates(m.cfg.Updates),
		listenForLogs(m.cfg.Logs),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleLog):
			m.showLog = !m.showLog
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			m.copyLog()
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			m.resize()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.logView.LineUp(1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.logView.LineDown(1)
			return m, nil
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tunnelUpdateMsg:
		return m, listenForUpdates(m.cfg.Updates)

	case logEntryMsg:
		m.appendLog(logging.LogEntry(msg))
		return m, listenForLogs(m.cfg.Logs)

	case logsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) appendLog(entry logging.LogEntry) {
	text := fmt.Sprintf("%s [%s] %s: %s", entry.Timestamp.Format("15:04:05"), entry.Level, entry.Subsystem, entry.Message)
	if entry.Err != nil {
		text += fmt.Sprintf(" (%v)", entry.Err)
	}
	m.logLines = append(m.logLines, logLine{level: entry.Level, text: text})
	if len(m.logLines) > MaxLogLines {
		m.logLines = m.logLines[len(m.logLines)-MaxLogLines:]
	}
	m.refreshLog()
}

func (m *Model) refreshLog() {
	atBottom := m.logView.AtBottom()
	m.logView.SetContent(renderLogLines(m.logLines, m.logView.Width))
	if atBottom {
		m.logView.GotoBottom()
	}
}

// copyLog puts the unstyled, untruncated log on the system clipboard.
func (m Model) copyLog() {
	texts := make([]string, len(m.logLines))
	for i, l := range m.logLines {
		texts[i] = l.text
	}
	if err := writeClipboard(strings.Join(texts, "\n")); err != nil {
		logging.Warn("TUI", "Failed to copy log to clipboard: %v", err)
		return
	}
	logging.Info("TUI", "Copied %d log lines to clipboard", len(texts))
}

// resize gives the log panel whatever height the table and help leave.
func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	m.logView.Width = m.width - logPanelStyle.GetHorizontalFrameSize()
	used := len(m.cfg.Endpoints) + 6 + m.helpHeight()
	h := m.height - used - logPanelStyle.GetVerticalFrameSize()
	if h < 3 {
		h = 3
	}
	m.logView.Height = h
	m.refreshLog()
}

func (m Model) helpHeight() int {
	if m.help.ShowAll {
		return 3
	}
	return 1
}

func styleLogLine(level logging.LogLevel, line string) string {
	switch level {
	case logging.LevelDebug:
		return logDebugStyle.Render(line)
	case logging.LevelWarn:
		return logWarnStyle.Render(line)
	case logging.LevelError:
		return logErrorStyle.Render(line)
	default:
		return line
	}
}
