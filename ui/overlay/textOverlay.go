package overlay

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kastheco/tareas/ui"
)

// TextOverlay shows static content until any key is pressed.
type TextOverlay struct {
	content   string
	OnDismiss func()
	width     int
}

func NewTextOverlay(content string) *TextOverlay {
	return &TextOverlay{content: content}
}

func (t *TextOverlay) SetWidth(width int) { t.width = width }

// HandleKeyPress closes on any key and runs OnDismiss once.
func (t *TextOverlay) HandleKeyPress(tea.KeyMsg) bool {
	if t.OnDismiss != nil {
		t.OnDismiss()
		t.OnDismiss = nil
	}
	return true
}

func (t *TextOverlay) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.Active.Iris).
		Padding(1, 2)
	if t.width > 0 {
		style = style.Width(t.width)
	}
	return style.Render(t.content)
}
