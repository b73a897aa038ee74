// Package overlay renders the modal and floating layers drawn on top of the
// task list: prompts, help, the offline banner and toast notifications.
package overlay

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// PlaceOverlay draws fg over bg with its top-left corner at (x, y). With
// center set, x and y are ignored and fg is centred. Cells of bg outside fg
// keep their styling.
func PlaceOverlay(x, y int, fg, bg string, center bool) string {
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")

	fgWidth := 0
	for _, l := range fgLines {
		fgWidth = max(fgWidth, ansi.StringWidth(l))
	}
	bgWidth := 0
	for _, l := range bgLines {
		bgWidth = max(bgWidth, ansi.StringWidth(l))
	}

	if center {
		x = (bgWidth - fgWidth) / 2
		y = (len(bgLines) - len(fgLines)) / 2
	}
	x = max(x, 0)
	y = max(y, 0)

	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	var b strings.Builder
	for i, bgLine := range bgLines {
		if i > 0 {
			b.WriteByte('\n')
		}
		if i < y || i >= y+len(fgLines) {
			b.WriteString(bgLine)
			continue
		}
		fgLine := fgLines[i-y]
		w := ansi.StringWidth(fgLine)

		left := ansi.Truncate(bgLine, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		b.WriteString(left)
		b.WriteString(fgLine)
		b.WriteString("\x1b[0m")
		b.WriteString(ansi.TruncateLeft(bgLine, x+w, ""))
	}
	return b.String()
}
