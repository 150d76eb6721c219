package terminal

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor  = lipgloss.Color("#7C3AED")
	GainColor     = lipgloss.Color("#10B981")
	LossColor     = lipgloss.Color("#EF4444")
	NeutralColor  = lipgloss.Color("#6B7280")
	WarningColor  = lipgloss.Color("#F59E0B")
	InfoColor     = lipgloss.Color("#3B82F6")
	BorderColor   = lipgloss.Color("#374151")
	TextColor     = lipgloss.Color("#F9FAFB")
	TextMutedColor = lipgloss.Color("#9CA3AF")
)

var (
	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextMutedColor)

	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Background(BorderColor)

	GainStyle    = lipgloss.NewStyle().Foreground(GainColor)
	LossStyle    = lipgloss.NewStyle().Foreground(LossColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(TextMutedColor)
	ActiveFilter = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(PrimaryColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor).
			Padding(0, 1)

	StatusBarKeyStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(PrimaryColor)
)

// trendStyle colors gains green and losses red
func trendStyle(gain bool) lipgloss.Style {
	if gain {
		return GainStyle
	}
	return LossStyle
}

// severityStyle colors a notification by severity
func severityStyle(severity string) lipgloss.Style {
	switch severity {
	case "success":
		return lipgloss.NewStyle().Foreground(GainColor)
	case "error":
		return lipgloss.NewStyle().Foreground(LossColor)
	case "warning":
		return lipgloss.NewStyle().Foreground(WarningColor)
	default:
		return lipgloss.NewStyle().Foreground(InfoColor)
	}
}
