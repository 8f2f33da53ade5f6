package tui

import (
	"github.com/charmbracelet/lipgloss"

	"tunnelo/internal/reporting"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"}).
			PaddingLeft(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#404040", Dark: "#C0C0C0"}).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B0B0B0", Dark: "#505050"})

	errorTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"})

	logPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"})

	logDebugStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#707070"})
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFC107"})
	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF6B6B"})

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

var stateColors = map[reporting.TunnelState]lipgloss.AdaptiveColor{
	reporting.StateStarting:     {Light: "#B36B00", Dark: "#FFC107"},
	reporting.StateAwaitingPort: {Light: "#B36B00", Dark: "#FFC107"},
	reporting.StateRunning:      {Light: "#1B7F3B", Dark: "#4CAF50"},
	reporting.StateExited:       {Light: "#B00020", Dark: "#FF6B6B"},
	reporting.StateCancelled:    {Light: "#606060", Dark: "#A0A0A0"},
}

func stateStyle(state reporting.TunnelState) lipgloss.Style {
	c, ok := stateColors[state]
	if !ok {
		c = lipgloss.AdaptiveColor{Light: "#606060", Dark: "#A0A0A0"}
	}
	return cellStyle.Foreground(c).Bold(state == reporting.StateRunning)
}
