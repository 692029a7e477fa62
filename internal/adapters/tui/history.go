package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/forge-platform/forgecode/internal/core/domain"
)

// HistoryModel shows recorded builds in a table with a detail view.
type HistoryModel struct {
	table       table.Model
	builds      []*domain.Build
	visible     []*domain.Build
	showDetails bool
	width       int
	height      int
}

// NewHistoryModel creates an empty history table.
func NewHistoryModel() *HistoryModel {
	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Kind", Width: 6},
		{Title: "Script", Width: 28},
		{Title: "Target", Width: 10},
		{Title: "Status", Width: 18},
		{Title: "Exit", Width: 5},
		{Title: "Duration", Width: 10},
		{Title: "Created", Width: 17},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).BorderBottom(true).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(true)
	t.SetStyles(s)

	return &HistoryModel{table: t}
}

// SetSize resizes the table to the available area.
func (m *HistoryModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetWidth(width - 4)
	if height > 6 {
		m.table.SetHeight(height - 6)
	}
}

// SetBuilds replaces the builds and applies the tab's filter.
func (m *HistoryModel) SetBuilds(builds []*domain.Build, tab Tab) {
	m.builds = builds
	m.Filter(tab)
}

// Filter shows only the builds matching tab.
func (m *HistoryModel) Filter(tab Tab) {
	m.visible = m.visible[:0]
	for _, b := range m.builds {
		if tab.Matches(b) {
			m.visible = append(m.visible, b)
		}
	}

	rows := make([]table.Row, len(m.visible))
	for i, b := range m.visible {
		rows[i] = buildRow(b)
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// Count returns how many loaded builds match tab.
func (m *HistoryModel) Count(tab Tab) int {
	n := 0
	for _, b := range m.builds {
		if tab.Matches(b) {
			n++
		}
	}
	return n
}

// Selected returns the build under the cursor.
func (m *HistoryModel) Selected() *domain.Build {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return nil
	}
	return m.visible[idx]
}

// ShowDetails toggles the detail view of the selected build.
func (m *HistoryModel) ShowDetails(show bool) {
	m.showDetails = show && m.Selected() != nil
}

// Update handles table navigation.
func (m *HistoryModel) Update(msg tea.Msg) (*HistoryModel, tea.Cmd) {
	if m.showDetails {
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table or the selected build.
func (m *HistoryModel) View() string {
	if m.showDetails {
		return m.renderDetails(m.Selected())
	}
	if len(m.visible) == 0 {
		return subtitleStyle.Render("No builds recorded. Run 'forge run <file.fc1>' to add one.")
	}
	return m.table.View()
}

func (m *HistoryModel) renderDetails(b *domain.Build) string {
	header := titleStyle.Render(fmt.Sprintf("Build %s", b.ID))

	var details strings.Builder
	fmt.Fprintf(&details, "Kind:        %s\n", b.Kind)
	fmt.Fprintf(&details, "Script:      %s\n", b.Script)
	fmt.Fprintf(&details, "Target:      %s\n", b.Platform())
	fmt.Fprintf(&details, "Status:      %s\n", renderStatus(string(b.Status)))
	fmt.Fprintf(&details, "Exit code:   %s\n", exitLabel(b))
	fmt.Fprintf(&details, "Source hash: %s\n", b.SourceHash)
	fmt.Fprintf(&details, "Created:     %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
	if b.CompletedAt != nil {
		fmt.Fprintf(&details, "Duration:    %s\n", b.Duration.Round(time.Millisecond))
	}
	for _, a := range b.Artifacts {
		fmt.Fprintf(&details, "Artifact:    %s\n", a)
	}
	if b.Error != "" {
		fmt.Fprintf(&details, "Error:       %s\n", statusErrorStyle.Render(b.Error))
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		boxStyle.Width(width).Render(details.String()),
		subtitleStyle.Render("[esc] back"),
	)
}

func buildRow(b *domain.Build) table.Row {
	return table.Row{
		shortID(b.ID.String()),
		string(b.Kind),
		b.Script,
		b.Platform(),
		string(b.Status),
		exitLabel(b),
		b.Duration.Round(time.Millisecond).String(),
		b.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// exitLabel shows the exit code only for builds that ran.
func exitLabel(b *domain.Build) string {
	if !b.Ran() {
		return "-"
	}
	return fmt.Sprintf("%d", b.ExitCode)
}
