package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kastheco/tareas/config"
)

// Palette holds the colours every component renders with.
type Palette struct {
	Base    lipgloss.Color
	Surface lipgloss.Color
	Overlay lipgloss.Color
	Muted   lipgloss.Color
	Subtle  lipgloss.Color
	Text    lipgloss.Color

	Love lipgloss.Color // error, danger, Alta
	Gold lipgloss.Color // warning, Media
	Rose lipgloss.Color // accent
	Pine lipgloss.Color // link, Baja
	Foam lipgloss.Color // info, completed
	Iris lipgloss.Color // highlight, primary
}

// Rosé Pine Moon and Rosé Pine Dawn.
// https://rosepinetheme.com/palette/
var (
	PaletteDark = Palette{
		Base:    "#232136",
		Surface: "#2a273f",
		Overlay: "#393552",
		Muted:   "#6e6a86",
		Subtle:  "#908caa",
		Text:    "#e0def4",
		Love:    "#eb6f92",
		Gold:    "#f6c177",
		Rose:    "#ea9a97",
		Pine:    "#3e8fb0",
		Foam:    "#9ccfd8",
		Iris:    "#c4a7e7",
	}
	PaletteLight = Palette{
		Base:    "#faf4ed",
		Surface: "#fffaf3",
		Overlay: "#f2e9e1",
		Muted:   "#9893a5",
		Subtle:  "#797593",
		Text:    "#575279",
		Love:    "#b4637a",
		Gold:    "#ea9d34",
		Rose:    "#d7827e",
		Pine:    "#286983",
		Foam:    "#56949f",
		Iris:    "#907aa9",
	}
)

// Active is the palette in use. Styles are built from it at render time so a
// theme switch takes effect on the next frame.
var Active = PaletteDark

// ResolveTheme picks the palette for t. ThemeAuto follows the terminal
// background as reported by out.
func ResolveTheme(t config.Theme, out *termenv.Output) Palette {
	switch t {
	case config.ThemeDark:
		return PaletteDark
	case config.ThemeLight:
		return PaletteLight
	}
	if out != nil && !out.HasDarkBackground() {
		return PaletteLight
	}
	return PaletteDark
}

// ApplyTheme makes the palette for t active and returns it.
func ApplyTheme(t config.Theme, out *termenv.Output) Palette {
	Active = ResolveTheme(t, out)
	return Active
}
