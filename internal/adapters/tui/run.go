package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kirillkom/startup-scout/internal/core/ports"
)

// Run drives flow in the alternate screen until the user quits or ctx ends.
func Run(ctx context.Context, flow ports.ViewFlow, opts Options) error {
	program := tea.NewProgram(New(flow, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
