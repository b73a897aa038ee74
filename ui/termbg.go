package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// SetTerminalBackground emits OSC 11 so unstyled cells use the palette base
// colour. The returned func restores the terminal default via OSC 111.
func SetTerminalBackground(c lipgloss.Color) func() {
	return setTermBg(os.Stdout, c)
}

func setTermBg(w io.Writer, c lipgloss.Color) func() {
	if c == "" {
		return func() {}
	}
	fmt.Fprintf(w, "\033]11;%s\033\\", string(c))
	return func() {
		fmt.Fprint(w, "\033]111\033\\")
	}
}

// FillLines pads s with blank lines up to height so the alt-screen renderer
// does not leave stale rows below the view.
func FillLines(s string, height int) string {
	if height <= 0 {
		return s
	}
	n := lipgloss.Height(s)
	for ; n < height; n++ {
		s += "\n"
	}
	return s
}
