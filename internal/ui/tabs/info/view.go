package info

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiello/opencode-usage/internal/ui/styles"
	"github.com/xiello/opencode-usage/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	var sections []string

	sections = append(sections, styles.TitleStyle.Render("About"))
	sections = append(sections, styles.HelpStyle.Render(version.Info()))
	sections = append(sections, "")

	cardWidth := max(m.width-6, 50)
	sections = append(sections, m.renderConfigCard(cardWidth))
	sections = append(sections, m.renderStatusCard(cardWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderConfigCard(width int) string {
	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Configuration"))

	if m.cfg == nil {
		rows = append(rows, styles.HelpStyle.Render("  no configuration loaded"))
	} else {
		rows = append(rows, m.configRow("storage path", m.cfg.StoragePath))
		rows = append(rows, m.configRow("budgets file", m.cfg.BudgetsPath))
		rows = append(rows, m.configRow("poll interval", m.cfg.PollInterval.String()))
		rows = append(rows, m.configRow("settle delay", m.cfg.SettleDelay.String()))
		rows = append(rows, m.configRow("retention", m.cfg.PruneMaxAge.String()))
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderStatusCard(width int) string {
	snap := m.state.GetSnapshot()

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Engine"))

	rows = append(rows, m.configRow("messages retained", fmt.Sprintf("%d", snap.AllTime.MessageCount)))
	rows = append(rows, m.configRow("sessions seen", fmt.Sprintf("%d", snap.AllTime.SessionCount)))

	lastUpdate := "never"
	if !snap.LastUpdate.IsZero() {
		lastUpdate = snap.LastUpdate.Format("2006-01-02 15:04:05")
	}
	rows = append(rows, m.configRow("last ingestion", lastUpdate))

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) configRow(label, value string) string {
	return fmt.Sprintf("  %s %s",
		styles.HelpStyle.Render(fmt.Sprintf("%-18s", label)),
		value,
	)
}
