// Package providers provides the per-provider health and budget tab.
package providers

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xiello/opencode-usage/internal/app"
)

// keyMap defines the key bindings specific to the providers tab.
type keyMap struct {
	Next  key.Binding
	Prev  key.Binding
	First key.Binding
	Last  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next provider"),
		),
		Prev: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev provider"),
		),
		First: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first provider"),
		),
		Last: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last provider"),
		),
	}
}

// Model represents the providers tab state.
type Model struct {
	state         *app.State
	keys          keyMap
	viewport      viewport.Model
	width         int
	height        int
	selectedIndex int
}

// New creates a new providers model.
func New(state *app.State) *Model {
	return &Model{
		state:    state,
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		count := len(m.state.GetSnapshot().Providers)
		switch {
		case key.Matches(msg, m.keys.Next):
			if m.selectedIndex < count-1 {
				m.selectedIndex++
			}
		case key.Matches(msg, m.keys.Prev):
			if m.selectedIndex > 0 {
				m.selectedIndex--
			}
		case key.Matches(msg, m.keys.First):
			m.selectedIndex = 0
		case key.Matches(msg, m.keys.Last):
			if count > 0 {
				m.selectedIndex = count - 1
			}
		}

	case app.SnapshotMsg:
		// Clamp selection when providers disappear after pruning.
		count := len(msg.Snapshot.Providers)
		if m.selectedIndex >= count && count > 0 {
			m.selectedIndex = count - 1
		}
		if count == 0 {
			m.selectedIndex = 0
		}
	}

	return m, nil
}

// SetSize sets the available size for the tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Next, m.keys.Prev}
}
