package wizard

import "github.com/charmbracelet/lipgloss"

// Rose Pine Moon - self-contained copy (no ui/ import).
var (
	colorMuted = lipgloss.Color("#6e6a86")
	colorIris  = lipgloss.Color("#c4a7e7")
	colorFoam  = lipgloss.Color("#9ccfd8")
	colorLove  = lipgloss.Color("#eb6f92")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorIris)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)

	// Result lines printed after the wizard closes.
	OKStyle   = lipgloss.NewStyle().Foreground(colorFoam)
	FailStyle = lipgloss.NewStyle().Foreground(colorLove)
	PathStyle = lipgloss.NewStyle().Foreground(colorMuted)
)
