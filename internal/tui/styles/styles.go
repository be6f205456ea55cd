package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors - all colors meet WCAG AA contrast (4.5:1) on both black and dark surfaces
	PrimaryColor   = lipgloss.Color("#A78BFA") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	WarningColor   = lipgloss.Color("#F59E0B") // Amber
	ErrorColor     = lipgloss.Color("#F87171") // Red
	MutedColor     = lipgloss.Color("#9CA3AF") // Gray
	TextColor      = lipgloss.Color("#F9FAFB") // Light text
	BorderColor    = lipgloss.Color("#6B7280") // Gray
	BlueColor      = lipgloss.Color("#60A5FA") // Blue

	// Status colors
	StatusPendingColor    = lipgloss.Color("#9CA3AF") // Gray
	StatusReadyColor      = lipgloss.Color("#60A5FA") // Blue
	StatusActingColor     = lipgloss.Color("#F59E0B") // Amber
	StatusRecoveringColor = lipgloss.Color("#FB923C") // Orange
	StatusDoneColor       = lipgloss.Color("#10B981") // Green
	StatusErrorColor      = lipgloss.Color("#F87171") // Red

	// Convenience styles for colors
	Primary   = lipgloss.NewStyle().Foreground(PrimaryColor)
	Secondary = lipgloss.NewStyle().Foreground(SecondaryColor)
	Warning   = lipgloss.NewStyle().Foreground(WarningColor)
	Error     = lipgloss.NewStyle().Foreground(ErrorColor)
	Muted     = lipgloss.NewStyle().Foreground(MutedColor)

	// Base styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	Label = lipgloss.NewStyle().
		Foreground(MutedColor).
		Width(14)

	// Status badge styles
	StatusBadge = lipgloss.NewStyle().
			Padding(0, 1).
			MarginRight(1)

	// Content area
	ContentBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(1, 2)

	// Help bar
	HelpBar = lipgloss.NewStyle().
		Foreground(MutedColor).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(SecondaryColor)

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(PrimaryColor).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(BorderColor).
		MarginBottom(1).
		PaddingBottom(1)

	// Table
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	LeaderMark = lipgloss.NewStyle().
			Bold(true).
			Foreground(WarningColor)
)

// StatusColor returns the color for a watcher or leader status
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "pending", "waiting":
		return StatusPendingColor
	case "ready":
		return StatusReadyColor
	case "acting":
		return StatusActingColor
	case "recovering", "action_error":
		return StatusRecoveringColor
	case "done":
		return StatusDoneColor
	case "error":
		return StatusErrorColor
	default:
		return MutedColor
	}
}

// StatusIcon returns an icon for a watcher or leader status
func StatusIcon(status string) string {
	switch status {
	case "pending", "waiting":
		return "○"
	case "ready":
		return "●"
	case "acting":
		return "▶"
	case "recovering":
		return "↻"
	case "action_error":
		return "!"
	case "done":
		return "✓"
	case "error":
		return "✗"
	default:
		return "●"
	}
}

// Status renders status with its icon and color.
func Status(status string) string {
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Render(StatusIcon(status) + " " + status)
}
