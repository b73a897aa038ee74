package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/kastheco/tareas/config/auditlog"
)

// HistoryPane renders a scrollable list of recent activity events below the
// task table.
type HistoryPane struct {
	events   []auditlog.Event
	viewport viewport.Model
	width    int
	height   int
	visible  bool
	err      error
}

// NewHistoryPane creates a hidden HistoryPane.
func NewHistoryPane() *HistoryPane {
	return &HistoryPane{viewport: viewport.New(0, 0)}
}

// SetSize updates the pane dimensions and rebuilds the viewport content.
func (p *HistoryPane) SetSize(w, h int) {
	p.width = w
	p.height = h
	// One line for the header.
	p.viewport.Width = w
	p.viewport.Height = max(h-1, 0)
	p.viewport.SetContent(p.renderBody())
}

func (p *HistoryPane) Height() int { return p.height }

// SetEvents replaces the event list, newest first, and scrolls to the top.
func (p *HistoryPane) SetEvents(events []auditlog.Event, err error) {
	p.events = events
	p.err = err
	p.viewport.SetContent(p.renderBody())
	p.viewport.GotoTop()
}

func (p *HistoryPane) ScrollDown(n int) { p.viewport.LineDown(n) }

func (p *HistoryPane) ScrollUp(n int) { p.viewport.LineUp(n) }

func (p *HistoryPane) Visible() bool { return p.visible }

func (p *HistoryPane) ToggleVisible() { p.visible = !p.visible }

func (p *HistoryPane) String() string {
	return lipgloss.JoinVertical(lipgloss.Left, p.renderHeader(), p.viewport.View())
}

func (p *HistoryPane) renderHeader() string {
	left := "── historial ──"
	right := "H cerrar"
	gap := max(p.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return lipgloss.NewStyle().Foreground(Active.Muted).Render(left + strings.Repeat(" ", gap) + right)
}

func (p *HistoryPane) renderBody() string {
	muted := lipgloss.NewStyle().Foreground(Active.Muted)
	if p.err != nil {
		return lipgloss.NewStyle().Foreground(Active.Love).Render("! " + p.err.Error())
	}
	if len(p.events) == 0 {
		return muted.Render("· sin actividad")
	}

	lines := make([]string, 0, len(p.events))
	for _, e := range p.events {
		icon, color := EventKindIcon(e.Kind)
		msg := describeEvent(e)
		// time (5) + icon + two spaces
		if avail := p.width - 8; avail > 0 {
			msg = truncate.StringWithTail(msg, uint(avail), "…")
		}
		line := muted.Render(e.Timestamp.Local().Format("15:04")) + " " +
			lipgloss.NewStyle().Foreground(color).Render(icon) + " " +
			lipgloss.NewStyle().Foreground(Active.Text).Render(msg)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func describeEvent(e auditlog.Event) string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Count > 0 {
		msg += " (" + plural(e.Count) + ")"
	}
	return msg
}

func plural(n int) string {
	if n == 1 {
		return "1 tarea"
	}
	return strconv.Itoa(n) + " tareas"
}

// EventKindIcon returns the icon and colour for an activity kind.
func EventKindIcon(kind auditlog.EventKind) (string, lipgloss.Color) {
	switch kind {
	case auditlog.EventTaskCreated:
		return "✦", Active.Foam
	case auditlog.EventTaskRenamed:
		return "✎", Active.Iris
	case auditlog.EventTaskCompleted, auditlog.EventBatchCompleted:
		return "✓", Active.Foam
	case auditlog.EventTaskReopened:
		return "○", Active.Subtle
	case auditlog.EventTaskPriority, auditlog.EventBatchPriority:
		return "↕", Active.Gold
	case auditlog.EventTaskDeleted, auditlog.EventBatchDeleted:
		return "✕", Active.Love
	case auditlog.EventExported:
		return "⇩", Active.Pine
	case auditlog.EventImported:
		return "⇧", Active.Pine
	case auditlog.EventRejected:
		return "!", Active.Gold
	case auditlog.EventMutationFailed, auditlog.EventRefreshFailed:
		return "!", Active.Love
	default:
		return "·", Active.Muted
	}
}
