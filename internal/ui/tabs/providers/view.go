package providers

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/xiello/opencode-usage/internal/models"
	"github.com/xiello/opencode-usage/internal/ui/components"
	"github.com/xiello/opencode-usage/internal/ui/styles"
)

// View renders the providers tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	var sections []string
	sections = append(sections, styles.TitleStyle.Render("Providers"))
	sections = append(sections, styles.HelpStyle.Render(snap.ViewMode.String()))
	sections = append(sections, "")

	cardWidth := max(m.width-6, 50)

	if len(snap.Providers) == 0 {
		sections = append(sections, styles.CardStyle.Width(cardWidth).Render(
			styles.HelpStyle.Render("No provider activity yet"),
		))
	} else {
		for i, ps := range snap.Providers {
			sections = append(sections, m.renderProviderCard(ps, i == m.selectedIndex, cardWidth))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderProviderCard(ps models.ProviderStats, selected bool, width int) string {
	var rows []string

	rows = append(rows, m.renderProviderHeader(ps, selected))
	rows = append(rows, "")
	rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
		"  %s tokens   %s   %d messages",
		components.FormatTokens(ps.Stats.TotalTokens),
		components.FormatCost(ps.Stats.TotalCost),
		ps.Stats.MessageCount,
	)))

	if ps.RateLimits5m > 0 {
		rows = append(rows, styles.WarningTextStyle.Render(fmt.Sprintf(
			"  %d rate-limit hits in the last 5 minutes", ps.RateLimits5m,
		)))
	} else if !ps.LastRateLimit.IsZero() {
		rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf(
			"  last rate limit %s", ps.LastRateLimit.Format("15:04:05"),
		)))
	}

	if bars := m.renderBudgetBars(ps, width-8); len(bars) > 0 {
		rows = append(rows, "")
		rows = append(rows, bars...)
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

func (m *Model) renderProviderHeader(ps models.ProviderStats, selected bool) string {
	prefix := "  "
	if selected {
		prefix = styles.FocusedStyle.Render("▸ ")
	}

	name := lipgloss.NewStyle().
		Bold(true).
		Foreground(styles.ProviderColor(ps.ProviderID)).
		Render(ps.ProviderID)

	health := styles.ProviderHealthStyle(ps.Health).Render("● " + ps.Health.String())

	return fmt.Sprintf("%s%s  %s", prefix, name, health)
}

func (m *Model) renderBudgetBars(ps models.ProviderStats, width int) []string {
	barWidth := max(width-30, 10)

	var lines []string

	if ps.HasTokensBudget {
		bar := components.NewBudgetBar(barWidth)
		bar.SetLabel("monthly tokens")
		bar.SetPercent(ps.BudgetTokensPercent)
		lines = append(lines, "  "+bar.View())
	}
	if ps.HasCostBudget {
		bar := components.NewBudgetBar(barWidth)
		bar.SetLabel("monthly cost  ")
		bar.SetPercent(ps.BudgetCostPercent)
		lines = append(lines, "  "+bar.View())
	}

	for _, lim := range ps.Limits {
		bar := components.NewBudgetBar(barWidth)
		bar.SetLabel(fmt.Sprintf("%-5s %-6s   ", lim.Window, lim.Dimension))
		bar.SetPercent(lim.Percent)
		lines = append(lines, "  "+bar.View())
	}

	return lines
}
