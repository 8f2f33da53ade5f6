package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"tunnelo/internal/reporting"
)

const statePending = "Pending"

func (m Model) View() string {
	if m.quitting {
		return "Stopping tunnels...\n"
	}

	sections := []string{m.renderHeader(), m.renderTable()}
	if m.showLog && m.width > 0 {
		sections = append(sections, logPanelStyle.Render(m.logView.View()))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	running := 0
	for _, ep := range m.cfg.Endpoints {
		if snap, ok := m.cfg.Store.Get(ep.Name()); ok && snap.State == reporting.StateRunning {
			running++
		}
	}
	summary := fmt.Sprintf("%d tunnels, %d running", len(m.cfg.Endpoints), running)
	if m.cfg.Debug {
		summary += ", debug"
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, titleStyle.Render("tunnelo"), subtitleStyle.Render(summary))
}

func (m Model) renderTable() string {
	states := make([]string, 0, len(m.cfg.Endpoints))
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers("STATE", "TUNNEL", "KIND", "ATTEMPT", "DETAIL")

	for _, ep := range m.cfg.Endpoints {
		state, attempt, detail := statePending, "", ""
		if snap, ok := m.cfg.Store.Get(ep.Name()); ok {
			state = string(snap.State)
			attempt = strconv.Itoa(snap.Attempts)
			detail = snap.Detail
			if snap.LastError != nil && snap.State != reporting.StateRunning {
				detail = errorTextStyle.Render(truncate(snap.LastError.Error(), 60))
			}
		}
		states = append(states, state)
		t.Row(m.stateCell(state), ep.Name(), string(ep.Kind), attempt, detail)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		if col == 0 && row >= 0 && row < len(states) {
			return stateStyle(reporting.TunnelState(states[row]))
		}
		return cellStyle
	})
	return t.String()
}

func (m Model) stateCell(state string) string {
	switch reporting.TunnelState(state) {
	case reporting.StateStarting, reporting.StateAwaitingPort:
		return m.spinner.View() + " " + state
	default:
		return state
	}
}

// truncate shortens s to at most n terminal cells.
func truncate(s string, n int) string {
	if n <= 0 || runewidth.StringWidth(s) <= n {
		return s
	}
	return runewidth.Truncate(s, n, "…")
}

// renderLogLines fits each line to the panel width before styling it, so the
// viewport never wraps.
func renderLogLines(lines []logLine, maxWidth int) string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = styleLogLine(l.level, truncate(l.text, maxWidth))
	}
	return strings.Join(out, "\n")
}
