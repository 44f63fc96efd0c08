package modelusage

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/xiello/opencode-usage/internal/ui/components"
	"github.com/xiello/opencode-usage/internal/ui/styles"
)

const maxModelIDWidth = 32

// View renders the model usage tab.
func (m *Model) View() string {
	snap := m.state.GetSnapshot()

	var sections []string
	sections = append(sections, styles.TitleStyle.Render("Model Usage"))
	sections = append(sections, styles.HelpStyle.Render(fmt.Sprintf(
		"%s  ·  sorted by %s  (press s to change)", snap.ViewMode, snap.SortMode,
	)))
	sections = append(sections, "")

	cardWidth := max(m.width-6, 60)

	if len(snap.Models) == 0 {
		sections = append(sections, styles.CardStyle.Width(cardWidth).Render(
			styles.HelpStyle.Render("No model activity yet"),
		))
	} else {
		sections = append(sections, m.renderTable(cardWidth))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTable(width int) string {
	snap := m.state.GetSnapshot()

	var rows []string

	header := fmt.Sprintf("  %-*s %-11s %10s %10s %8s %7s  %s",
		maxModelIDWidth, "MODEL", "PROVIDER", "TOKENS", "COST", "SHARE", "STATUS", "LAST SEEN")
	rows = append(rows, styles.TableHeaderStyle.Render(header))

	for _, ms := range snap.Models {
		name := ansi.Truncate(ms.ModelID, maxModelIDWidth, "…")
		providerStyle := lipgloss.NewStyle().Foreground(styles.ProviderColor(ms.ProviderID))
		healthStyle := styles.ModelHealthStyle(ms.Health)

		lastSeen := "never"
		if !ms.LastSeen.IsZero() {
			lastSeen = ms.LastSeen.Format("15:04:05")
		}

		row := fmt.Sprintf("  %-*s %s %10s %10s %7.1f%% %s  %s",
			maxModelIDWidth, name,
			providerStyle.Render(fmt.Sprintf("%-11s", ms.ProviderID)),
			components.FormatCompact(ms.Stats.TotalTokens),
			components.FormatCost(ms.Stats.TotalCost),
			ms.SharePercent,
			healthStyle.Render(fmt.Sprintf("%-7s", ms.Health)),
			styles.HelpStyle.Render(lastSeen),
		)
		rows = append(rows, row)
	}

	return styles.CardStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
