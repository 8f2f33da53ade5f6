package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the status view program. It exits when the user quits
// or ctx is cancelled.
func NewProgram(ctx context.Context, cfg Config) *tea.Program {
	return tea.NewProgram(New(cfg), tea.WithAltScreen(), tea.WithContext(ctx))
}
