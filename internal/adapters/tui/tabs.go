package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// renderTabs renders the filter tab bar with the number of builds per tab.
func (m Model) renderTabs() string {
	var tabs []string

	for _, tab := range m.tabs {
		style := inactiveTabStyle
		if tab == m.activeTab {
			style = activeTabStyle
		}
		label := fmt.Sprintf("%s (%d)", tab, m.history.Count(tab))
		tabs = append(tabs, style.Render(label))
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	return tabBarStyle.Width(m.width).Render(tabRow)
}
