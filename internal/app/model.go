// Package app implements the main Bubble Tea application with tab-based navigation.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/xiello/opencode-usage/internal/services"
	"github.com/xiello/opencode-usage/internal/ui/styles"
)

// TabID represents the identifier for a tab in the application.
type TabID int

const (
	// TabDashboard is the ID for the dashboard tab.
	TabDashboard TabID = iota
	// TabProviders is the ID for the providers tab.
	TabProviders
	// TabModels is the ID for the model usage tab.
	TabModels
	// TabInfo is the ID for the info tab.
	TabInfo
)

// String returns the string representation of the TabID.
func (t TabID) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabProviders:
		return "Providers"
	case TabModels:
		return "Models"
	case TabInfo:
		return "Info"
	default:
		return "Unknown"
	}
}

// Tab defines the interface that all tabs must implement.
type Tab interface {
	// Init initializes the tab and returns any initial commands.
	Init() tea.Cmd

	// Update handles messages and returns the updated tab and any commands.
	Update(msg tea.Msg) (Tab, tea.Cmd)

	// View renders the tab content.
	View() string

	// SetSize sets the available size for the tab.
	SetSize(width, height int)

	// ShortHelp returns key bindings for the short help view.
	ShortHelp() []key.Binding
}

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	Tab1    key.Binding
	Tab2    key.Binding
	Tab3    key.Binding
	Tab4    key.Binding
	NextTab key.Binding
	PrevTab key.Binding

	CycleView  key.Binding
	CycleSort  key.Binding
	CycleChart key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding

	Up     key.Binding
	Down   key.Binding
	Escape key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Tab1:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "dashboard")),
		Tab2:    key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "providers")),
		Tab3:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "models")),
		Tab4:    key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "info")),
		NextTab: key.NewBinding(key.WithKeys("tab", "right"), key.WithHelp("tab/→", "next tab")),
		PrevTab: key.NewBinding(key.WithKeys("shift+tab", "left"), key.WithHelp("shift+tab/←", "prev tab")),

		CycleView:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "toggle month/all-time")),
		CycleSort:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle model sort")),
		CycleChart: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "cycle chart window")),
		Refresh:    key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Escape: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// chartWindows are the selectable trailing windows for the token chart.
var chartWindows = []time.Duration{
	15 * time.Minute,
	time.Hour,
	6 * time.Hour,
	24 * time.Hour,
}

// Model is the main application model.
type Model struct {
	// Tab management
	activeTab TabID
	tabs      []Tab
	tabNames  []string

	// Shared state
	state    *State
	services *services.Manager
	keymap   KeyMap

	// UI components
	spinner spinner.Model

	// Window dimensions
	width  int
	height int

	// UI state
	showHelp  bool
	ready     bool
	lastError string

	// Service subscription
	eventChannel chan services.ServiceEvent
}

// NewModel initializes a new application model.
func NewModel(mgr *services.Manager) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Model{
		activeTab: TabDashboard,
		tabNames:  []string{"Dashboard", "Providers", "Models", "Info"},
		tabs:      make([]Tab, 4),
		state:     NewState(),
		services:  mgr,
		keymap:    DefaultKeyMap(),
		spinner:   s,
	}
}

// SetTabs sets the tabs for the model.
func (m *Model) SetTabs(tabs []Tab) {
	m.tabs = tabs
	if m.width > 0 && m.height > 0 {
		m.updateTabSizes()
	}
}

// GetState returns the shared application state.
func (m *Model) GetState() *State {
	return m.state
}

// GetKeyMap returns the key bindings.
func (m *Model) GetKeyMap() KeyMap {
	return m.keymap
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		defaultTickCmd(),
	}

	if m.services != nil {
		cmds = append(cmds, subscribeCmd(m.services))
		cmds = append(cmds, takeSnapshotCmd(m.services))
	}

	for _, tab := range m.tabs {
		if tab != nil {
			cmds = append(cmds, tab.Init())
		}
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateTabSizes()

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.Quit) {
			return m, tea.Quit
		}
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		if m.services != nil {
			m.services.Prune()
			cmds = append(cmds, takeSnapshotCmd(m.services))
		}
		cmds = append(cmds, defaultTickCmd())

	case SnapshotMsg:
		m.state.SetSnapshot(msg.Snapshot)

	case SubscribedMsg:
		m.eventChannel = msg.Channel
		cmds = append(cmds, waitForEventCmd(m.eventChannel))

	case ServiceEventMsg:
		cmds = append(cmds, m.handleServiceEvent(msg.Event)...)

	case TabSwitchMsg:
		m.switchTab(msg.Tab)

	case ErrorMsg:
		m.lastError = msg.Error.Error()
	}

	if cmd := m.updateActiveTab(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleServiceEvent(event services.ServiceEvent) []tea.Cmd {
	var cmds []tea.Cmd

	switch e := event.(type) {
	case services.UsageUpdatedEvent, services.RateLimitHitEvent:
		if m.services != nil {
			cmds = append(cmds, takeSnapshotCmd(m.services))
		}
	case services.ErrorEvent:
		m.lastError = fmt.Sprintf("[%s] %v", e.Service, e.Error)
	}

	if m.eventChannel != nil {
		cmds = append(cmds, waitForEventCmd(m.eventChannel))
	}

	return cmds
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		return nil

	case key.Matches(msg, m.keymap.Escape):
		if m.showHelp {
			m.showHelp = false
		}
		return nil

	case key.Matches(msg, m.keymap.Tab1):
		m.switchTab(TabDashboard)
	case key.Matches(msg, m.keymap.Tab2):
		m.switchTab(TabProviders)
	case key.Matches(msg, m.keymap.Tab3):
		m.switchTab(TabModels)
	case key.Matches(msg, m.keymap.Tab4):
		m.switchTab(TabInfo)

	case key.Matches(msg, m.keymap.NextTab):
		m.switchTab((m.activeTab + 1) % TabID(len(m.tabs)))
	case key.Matches(msg, m.keymap.PrevTab):
		m.switchTab((m.activeTab + TabID(len(m.tabs)) - 1) % TabID(len(m.tabs)))

	case key.Matches(msg, m.keymap.CycleView):
		if m.services != nil {
			m.services.State().CycleViewMode()
			return takeSnapshotCmd(m.services)
		}

	case key.Matches(msg, m.keymap.CycleSort):
		if m.services != nil {
			m.services.State().CycleSortMode()
			return takeSnapshotCmd(m.services)
		}

	case key.Matches(msg, m.keymap.CycleChart):
		if m.services != nil {
			m.services.State().SetChartWindow(nextChartWindow(m.services.State().ChartWindow()))
			return takeSnapshotCmd(m.services)
		}

	case key.Matches(msg, m.keymap.Refresh):
		m.lastError = ""
		if m.services != nil {
			return takeSnapshotCmd(m.services)
		}
	}

	return nil
}

func nextChartWindow(current time.Duration) time.Duration {
	for i, w := range chartWindows {
		if w == current {
			return chartWindows[(i+1)%len(chartWindows)]
		}
	}
	return chartWindows[0]
}

func (m *Model) switchTab(tab TabID) {
	if int(tab) < len(m.tabs) {
		m.activeTab = tab
	}
}

func (m *Model) updateActiveTab(msg tea.Msg) tea.Cmd {
	if int(m.activeTab) >= len(m.tabs) || m.tabs[m.activeTab] == nil {
		return nil
	}

	tab, cmd := m.tabs[m.activeTab].Update(msg)
	m.tabs[m.activeTab] = tab
	return cmd
}

func (m *Model) updateTabSizes() {
	// Reserve rows for the navbar and the status footer.
	contentHeight := max(m.height-4, 0)
	for _, tab := range m.tabs {
		if tab != nil {
			tab.SetSize(m.width, contentHeight)
		}
	}
}

// View renders the application UI.
func (m *Model) View() string {
	var b strings.Builder

	if m.width > 0 {
		b.WriteString(m.renderNavbar())
		b.WriteString("\n")
	}

	if !m.ready {
		b.WriteString(fmt.Sprintf("%s Loading...", m.spinner.View()))
		return b.String()
	}

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		b.WriteString(m.tabs[m.activeTab].View())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	mainView := b.String()

	if m.showHelp {
		mainView = m.overlayCentered(mainView, m.renderHelp())
	}

	return mainView
}

func (m *Model) renderNavbar() string {
	var tabs []string

	for i, name := range m.tabNames {
		if TabID(i) == m.activeTab {
			tabs = append(tabs, styles.FocusedStyle.Render(fmt.Sprintf("[%d] %s", i+1, name)))
		} else {
			tabs = append(tabs, styles.HelpStyle.Render(fmt.Sprintf(" %d  %s", i+1, name)))
		}
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)

	return lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(styles.Subtle).
		Width(m.width).
		Render(bar)
}

func (m *Model) renderFooter() string {
	snap := m.state.GetSnapshot()

	parts := []string{
		fmt.Sprintf("view: %s", snap.ViewMode),
		fmt.Sprintf("chart: %s", snap.ChartWindow),
	}
	if !snap.LastUpdate.IsZero() {
		parts = append(parts, fmt.Sprintf("updated %s", snap.LastUpdate.Format("15:04:05")))
	}
	parts = append(parts, "? help")

	footer := styles.HelpStyle.Render(strings.Join(parts, "  │  "))

	if m.lastError != "" {
		footer += "  " + styles.ErrorTextStyle.Render(m.lastError)
	}

	return footer
}

func (m *Model) renderHelp() string {
	var lines []string

	lines = append(lines, styles.TitleStyle.Render("Keyboard Shortcuts"))
	lines = append(lines, "")

	lines = append(lines, styles.FocusedStyle.Render("Navigation"))
	lines = append(lines, "  1-4        Switch tabs")
	lines = append(lines, "  Tab        Next tab")
	lines = append(lines, "  Shift+Tab  Previous tab")
	lines = append(lines, "")

	lines = append(lines, styles.FocusedStyle.Render("Views"))
	lines = append(lines, "  v          Toggle month-to-date / all-time")
	lines = append(lines, "  s          Cycle model sort (cost/tokens/name)")
	lines = append(lines, "  w          Cycle chart window")
	lines = append(lines, "  r          Refresh now")
	lines = append(lines, "")

	lines = append(lines, styles.FocusedStyle.Render("General"))
	lines = append(lines, "  ?          Toggle help")
	lines = append(lines, "  q/Ctrl+C   Quit")

	if int(m.activeTab) < len(m.tabs) && m.tabs[m.activeTab] != nil {
		tabHelp := m.tabs[m.activeTab].ShortHelp()
		if len(tabHelp) > 0 {
			lines = append(lines, "")
			lines = append(lines, styles.FocusedStyle.Render(fmt.Sprintf("%s Tab", m.tabNames[m.activeTab])))
			for _, binding := range tabHelp {
				lines = append(lines, fmt.Sprintf("  %-10s %s", binding.Help().Key, binding.Help().Desc))
			}
		}
	}

	lines = append(lines, "")
	lines = append(lines, styles.HelpStyle.Render("Press ? or Esc to close"))

	return styles.HelpPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) overlayCentered(mainView string, overlay string) string {
	mainLines := strings.Split(mainView, "\n")
	overlayLines := strings.Split(overlay, "\n")

	overlayHeight := len(overlayLines)
	overlayWidth := lipgloss.Width(overlay)

	y := max((m.height-overlayHeight)/2, 0)
	x := max((m.width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		mainY := y + i
		if mainY >= len(mainLines) {
			break
		}

		mainLine := mainLines[mainY]

		left := ansi.Truncate(mainLine, x, "")
		right := ansi.TruncateLeft(mainLine, x+overlayWidth, "")

		if lipgloss.Width(left) < x {
			left += strings.Repeat(" ", x-lipgloss.Width(left))
		}

		mainLines[mainY] = left + overlayLine + right
	}

	return strings.Join(mainLines, "\n")
}
