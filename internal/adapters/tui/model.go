// Package tui implements the Bubble Tea build history browser.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/forge-platform/forgecode/internal/core/domain"
)

// Tab filters the history by outcome.
type Tab int

const (
	TabAll Tab = iota
	TabSucceeded
	TabFailed
)

func (t Tab) String() string {
	return []string{"All", "Succeeded", "Failed"}[t]
}

// Matches reports whether a build belongs on the tab.
func (t Tab) Matches(b *domain.Build) bool {
	switch t {
	case TabSucceeded:
		return b.IsTerminal() && !b.Failed()
	case TabFailed:
		return b.Failed()
	default:
		return true
	}
}

// LoadFunc fetches the builds to browse.
type LoadFunc func(ctx context.Context) ([]*domain.Build, error)

type buildsLoadedMsg struct {
	builds []*domain.Build
	err    error
}

// Model represents the main TUI state.
type Model struct {
	activeTab   Tab
	tabs        []Tab
	width       int
	height      int
	help        help.Model
	keys        keyMap
	history     *HistoryModel
	load        LoadFunc
	err         error
	initialized bool
}

// keyMap defines the key bindings.
type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
	Help     key.Binding
	Enter    key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Up       key.Binding
	Down     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Refresh, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Refresh, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next filter"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev filter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "details"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

// NewModel creates a new TUI model that reads builds through load.
func NewModel(load LoadFunc) Model {
	return Model{
		activeTab: TabAll,
		tabs:      []Tab{TabAll, TabSucceeded, TabFailed},
		help:      help.New(),
		keys:      defaultKeyMap,
		history:   NewHistoryModel(),
		load:      load,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.refresh
}

func (m Model) refresh() tea.Msg {
	builds, err := m.load(context.Background())
	return buildsLoadedMsg{builds: builds, err: err}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.history.SetSize(msg.Width, msg.Height-4)
		m.initialized = true
		return m, nil

	case buildsLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.history.SetBuilds(msg.builds, m.activeTab)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.activeTab = Tab((int(m.activeTab) + 1) % len(m.tabs))
			m.history.Filter(m.activeTab)
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.activeTab = Tab((int(m.activeTab) - 1 + len(m.tabs)) % len(m.tabs))
			m.history.Filter(m.activeTab)
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh
		case key.Matches(msg, m.keys.Enter):
			m.history.ShowDetails(true)
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.history.ShowDetails(false)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.initialized {
		return "Loading..."
	}

	tabBar := m.renderTabs()

	var content string
	if m.err != nil {
		content = statusErrorStyle.Render("Failed to load history: " + m.err.Error())
	} else {
		content = m.history.View()
	}

	helpView := m.help.View(m.keys)

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, helpView)
}
