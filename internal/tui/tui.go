package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fsmiamoto/tasker/internal/planner"
)

// Run starts the full-screen interface and blocks until the user quits.
// Cancelling ctx aborts any in-flight completion call.
func Run(ctx context.Context, session *planner.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
