package overlay

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/ui"
)

// ConfirmOverlay renders the confirmation at the head of the broker queue.
// It is render-only: keys go to broker.HandleConfirmKey.
type ConfirmOverlay struct {
	req     broker.ConfirmRequest
	waiting int
	width   int
}

// NewConfirmOverlay creates an overlay for req. waiting is the number of
// confirmations queued behind it.
func NewConfirmOverlay(req broker.ConfirmRequest, waiting int) *ConfirmOverlay {
	return &ConfirmOverlay{req: req, waiting: waiting, width: 50}
}

// Request returns the request being shown.
func (c *ConfirmOverlay) Request() broker.ConfirmRequest { return c.req }

// SetWidth sets the overlay width.
func (c *ConfirmOverlay) SetWidth(width int) {
	c.width = clampInt(width, 30, 70)
}

// Render returns the styled overlay string.
func (c *ConfirmOverlay) Render() string {
	accent := ui.Active.Iris
	if c.req.Danger {
		accent = ui.Active.Love
	}

	titleStyle := lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1)
	textStyle := lipgloss.NewStyle().Foreground(ui.Active.Text)
	keyStyle := lipgloss.NewStyle().Foreground(ui.Active.Muted)
	cancelBtn := lipgloss.NewStyle().Foreground(ui.Active.Subtle).Background(ui.Active.Overlay).Padding(0, 1)
	confirmBtn := cancelBtn.Foreground(ui.Active.Base).Background(accent)

	inner := c.width - 6
	content := ""
	if c.req.Title != "" {
		content += titleStyle.Render(c.req.Title) + "\n"
	}
	content += textStyle.Render(wordwrap.String(c.req.Message, inner)) + "\n\n"
	content += keyStyle.Render("esc ") + cancelBtn.Render(c.req.CancelText) + "  " +
		keyStyle.Render("enter ") + confirmBtn.Render(c.req.ConfirmText)
	if c.waiting > 0 {
		content += "\n" + lipgloss.NewStyle().Foreground(ui.Active.Muted).MarginTop(1).
			Render(fmt.Sprintf("%d more waiting", c.waiting))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(1, 2).
		Width(c.width).
		Render(content)
}
