package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/forge-platform/forgecode/internal/adapters/tui"
	"github.com/forge-platform/forgecode/internal/core/domain"
	"github.com/forge-platform/forgecode/internal/core/ports"
	"github.com/spf13/cobra"
)

var uiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Browse build history in the terminal",
	Long: `Open the interactive build history browser.

Tabs filter by outcome; enter shows a build's details and r reloads.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

var uiLimit int

func init() {
	uiCmd.Flags().IntVar(&uiLimit, "limit", 200, "maximum number of builds to load")
}

func runUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), true, false)
	if err != nil {
		return err
	}
	defer a.Close()

	load := func(ctx context.Context) ([]*domain.Build, error) {
		return a.builds.History(ctx, ports.BuildFilter{Limit: uiLimit})
	}

	p := tea.NewProgram(
		tui.NewModel(load),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}

	return nil
}
