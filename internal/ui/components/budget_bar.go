package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/xiello/opencode-usage/internal/ui/styles"
)

// BudgetBar renders consumption against a configured budget or limit as a
// gradient progress bar with a label and percentage.
type BudgetBar struct {
	progress progress.Model
	label    string
	percent  float64
}

// NewBudgetBar creates a budget bar with the given rendered width.
func NewBudgetBar(width int) BudgetBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)

	return BudgetBar{progress: p}
}

// SetLabel updates the bar's label.
func (b *BudgetBar) SetLabel(label string) {
	b.label = label
}

// SetPercent sets the consumption percentage. Values above 100 render as a
// full bar but keep the overage visible in the numeric suffix.
func (b *BudgetBar) SetPercent(percent float64) {
	if percent < 0 {
		percent = 0
	}
	b.percent = percent
}

// Percent returns the current consumption percentage.
func (b BudgetBar) Percent() float64 {
	return b.percent
}

// SetWidth updates the bar's rendered width.
func (b *BudgetBar) SetWidth(width int) {
	b.progress.Width = width
}

// View renders the bar with label and percentage suffix.
func (b BudgetBar) View() string {
	fill := b.percent / 100
	if fill > 1 {
		fill = 1
	}

	suffix := fmt.Sprintf("%.1f%%", b.percent)
	suffixStyle := styles.HelpStyle
	if b.percent >= 100 {
		suffixStyle = styles.ErrorTextStyle
	} else if b.percent >= 80 {
		suffixStyle = styles.WarningTextStyle
	}

	parts := []string{b.progress.ViewAs(fill), " ", suffixStyle.Render(suffix)}
	if b.label != "" {
		parts = append([]string{styles.HelpStyle.Render(b.label), " "}, parts...)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
