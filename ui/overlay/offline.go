package overlay

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kastheco/tareas/ui"
)

// OfflineOverlay blocks the task list while the service is unreachable.
type OfflineOverlay struct {
	cause    string
	retrying bool
	spinner  *spinner.Model
	width    int
}

func NewOfflineOverlay(s *spinner.Model) *OfflineOverlay {
	return &OfflineOverlay{spinner: s, width: 50}
}

// SetCause sets the error text shown under the title.
func (o *OfflineOverlay) SetCause(cause string) { o.cause = cause }

// SetRetrying switches the hint line to a spinner while a retry runs.
func (o *OfflineOverlay) SetRetrying(retrying bool) { o.retrying = retrying }

func (o *OfflineOverlay) Retrying() bool { return o.retrying }

func (o *OfflineOverlay) SetWidth(width int) { o.width = clampInt(width, 30, 70) }

func (o *OfflineOverlay) Render() string {
	title := lipgloss.NewStyle().Foreground(ui.Active.Love).Bold(true).MarginBottom(1).
		Render("Sin conexión con el servidor")
	body := lipgloss.NewStyle().Foreground(ui.Active.Text).
		Render(wordwrap.String("Los cambios no se pueden guardar hasta que vuelva la conexión.", o.width-6))

	content := title + "\n" + body
	if o.cause != "" {
		content += "\n\n" + lipgloss.NewStyle().Foreground(ui.Active.Muted).Render(wordwrap.String(o.cause, o.width-6))
	}

	hint := lipgloss.NewStyle().Foreground(ui.Active.Subtle).Render("r reintentar · q salir")
	if o.retrying {
		hint = lipgloss.NewStyle().Foreground(ui.Active.Gold).Render(o.spinner.View() + " reintentando…")
	}
	content += "\n\n" + hint

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.Active.Love).
		Padding(1, 2).
		Width(o.width).
		Render(content)
}
