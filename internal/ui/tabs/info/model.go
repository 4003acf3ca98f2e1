// Package info provides the info tab showing configuration and build details.
package info

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hfrankel/cursor-usage-tui/internal/app"
	"github.com/hfrankel/cursor-usage-tui/internal/config"
)

// keyMap defines the key bindings specific to the info tab.
type keyMap struct {
	OpenDashboard key.Binding
	Up            key.Binding
	Down          key.Binding
}

// defaultKeyMap returns the default key bindings for the info tab.
func defaultKeyMap() keyMap {
	return keyMap{
		OpenDashboard: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open dashboard"),
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
}

// Model represents the info tab state.
type Model struct {
	state    *app.AppState
	config   *config.Config
	userID   string
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model
}

// New creates a new info model. userID may be empty when credential
// extraction failed.
func New(state *app.AppState, cfg *config.Config, userID string) *Model {
	return &Model{
		state:    state,
		config:   cfg,
		userID:   userID,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the info tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the info tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(keyMsg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// SetSize sets the available size for the info tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.OpenDashboard,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.OpenDashboard},
		{m.keys.Up, m.keys.Down},
	}
}
