package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"tunnelo/internal/reporting"
	"tunnelo/pkg/logging"
)

// tunnelUpdateMsg signals that a tunnel changed state. The state itself is
// read from the store when rendering.
type tunnelUpdateMsg reporting.Update

type logEntryMsg logging.LogEntry

// logsClosedMsg is sent once the log channel is closed, after logging has
// switched back to the console.
type logsClosedMsg struct{}

func listenForUpdates(ch <-chan reporting.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return tunnelUpdateMsg(u)
	}
}

func listenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return logsClosedMsg{}
		}
		return logEntryMsg(entry)
	}
}
