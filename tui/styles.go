package tui

import "github.com/charmbracelet/lipgloss"

// Palette roughly follows Dracula.
const (
	colorText    = "#f8f8f2"
	colorMuted   = "#6272a4"
	colorSurface = "#44475a"
	colorSuccess = "#50fa7b"
	colorWarning = "#f1fa8c"
	colorInfo    = "#8be9fd"
	colorDanger  = "#ff5555"
)

type styles struct {
	Bar     lipgloss.Style
	DocName lipgloss.Style
	Help    lipgloss.Style
	Saved   lipgloss.Style
	Unsaved lipgloss.Style
	Saving  lipgloss.Style
	Error   lipgloss.Style
}

func defaultStyles() styles {
	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	return styles{
		Bar: lipgloss.NewStyle().
			Background(lipgloss.Color(colorSurface)).
			Foreground(lipgloss.Color(colorText)),
		DocName: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color(colorText)).
			Background(lipgloss.Color(colorSurface)),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted)),
		Saved:   badge.Foreground(lipgloss.Color(colorSuccess)),
		Unsaved: badge.Foreground(lipgloss.Color(colorWarning)),
		Saving:  badge.Foreground(lipgloss.Color(colorInfo)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorDanger)).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorDanger)).
			Padding(1, 2),
	}
}
