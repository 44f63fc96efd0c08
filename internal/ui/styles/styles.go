// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/xiello/opencode-usage/internal/models"
)

// Color definitions for the usage dashboard theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Provider brand colors
	Anthropic  = lipgloss.Color("208") // Orange
	OpenAI     = lipgloss.Color("42")  // Green
	Google     = lipgloss.Color("39")  // Blue
	OpenRouter = lipgloss.Color("99")  // Violet

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// HelpStyle is used for secondary hint text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpPanelStyle frames the help modal.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(1, 3)

// SuccessTextStyle renders positive status text.
var SuccessTextStyle = lipgloss.NewStyle().Foreground(Success)

// ErrorTextStyle renders failure status text.
var ErrorTextStyle = lipgloss.NewStyle().Foreground(Error).Bold(true)

// WarningTextStyle renders warning status text.
var WarningTextStyle = lipgloss.NewStyle().Foreground(Warning)

// InfoTextStyle renders informational text.
var InfoTextStyle = lipgloss.NewStyle().Foreground(Info)

// FocusedStyle is used for focused or selected elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// TableHeaderStyle styles table header rows.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextSecondary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// ProviderColor returns the brand color for a provider ID.
func ProviderColor(providerID string) lipgloss.Color {
	switch providerID {
	case "anthropic":
		return Anthropic
	case "openai":
		return OpenAI
	case "google":
		return Google
	case "openrouter":
		return OpenRouter
	default:
		return Subtle
	}
}

// ProviderHealthStyle returns the text style for a provider health status.
func ProviderHealthStyle(h models.ProviderHealth) lipgloss.Style {
	switch h {
	case models.ProviderThrottled:
		return ErrorTextStyle
	case models.ProviderWarn:
		return WarningTextStyle
	default:
		return SuccessTextStyle
	}
}

// ModelHealthStyle returns the text style for a model health status.
func ModelHealthStyle(h models.ModelHealth) lipgloss.Style {
	switch h {
	case models.ModelError:
		return ErrorTextStyle
	case models.ModelStale:
		return HelpStyle
	default:
		return SuccessTextStyle
	}
}
