package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiello/opencode-usage/internal/app"
	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/ui/components"
	"github.com/xiello/opencode-usage/internal/ui/styles"
)

// View renders the dashboard tab.
func (m *Model) View() string {
	if !m.state.IsLoaded() {
		return styles.DocStyle.Render(m.spinner.ViewWithLabel())
	}

	snap := m.state.GetSnapshot()

	var sections []string
	sections = append(sections, m.renderTitle(snap))
	sections = append(sections, m.renderStatsCard(snap))
	sections = append(sections, m.renderChartCard(snap))
	if card := m.renderAlertsCard(snap); card != "" {
		sections = append(sections, card)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle(snap app.Snapshot) string {
	title := styles.TitleStyle.Render("OpenCode Usage")

	scope := snap.ViewMode.String()
	if snap.ViewMode == models.ViewMonthToDate {
		scope = snap.MonthLabel
	}
	subtitle := styles.HelpStyle.Render(scope)

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderStatsCard(snap app.Snapshot) string {
	w := snap.Window
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Totals"))

	rows = append(rows, fmt.Sprintf("  %s  %s tokens    %s",
		styles.FocusedStyle.Render(components.FormatCompact(w.TotalTokens)),
		styles.HelpStyle.Render(components.FormatTokens(w.TotalTokens)),
		styles.SuccessTextStyle.Render(components.FormatCost(w.TotalCost)),
	))
	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
		"  input %s   output %s   reasoning %s",
		components.FormatCompact(w.TotalInput),
		components.FormatCompact(w.TotalOutput),
		components.FormatCompact(w.TotalReasoning),
	)))
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
		"  cache read %s   cache write %s",
		components.FormatCompact(w.TotalCacheRead),
		components.FormatCompact(w.TotalCacheWrite),
	)))
	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
		"  %d messages across %d sessions",
		w.MessageCount, w.SessionCount,
	)))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderChartCard(snap app.Snapshot) string {
	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render(
		fmt.Sprintf("Tokens per minute (trailing %s)", snap.ChartWindow),
	))

	values := components.SeriesValues(snap.Series, snap.TakenAt, snap.ChartWindow)
	rows = append(rows, components.RenderLineChart(values, cardWidth-10, 8, ""))

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderAlertsCard(snap app.Snapshot) string {
	if len(snap.RateLimits) == 0 {
		return ""
	}

	cardWidth := max(m.width-6, 40)

	var rows []string
	rows = append(rows, styles.CardTitleStyle.Render("Recent Rate Limits"))

	for _, ev := range snap.RateLimits {
		providerStyle := lipgloss.NewStyle().Foreground(styles.ProviderColor(ev.Provider()))
		line := fmt.Sprintf("  %s  %s  %s",
			styles.HelpStyle.Render(ev.Timestamp.Format("15:04:05")),
			providerStyle.Render(ev.Provider()),
			strings.TrimSpace(ev.ErrorMessage),
		)
		rows = append(rows, line)
	}

	return styles.CardStyle.Width(cardWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
