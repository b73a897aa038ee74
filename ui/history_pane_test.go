package ui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/kastheco/tareas/config/auditlog"
)

func historyEvents(n int) []auditlog.Event {
	events := make([]auditlog.Event, n)
	for i := range events {
		events[i] = auditlog.Event{
			Kind:      auditlog.EventTaskCreated,
			Timestamp: time.Date(2026, 10, 16, 12, i, 0, 0, time.Local),
			Message:   fmt.Sprintf("event %d", i),
		}
	}
	return events
}

func TestHistoryPane_RenderEmpty(t *testing.T) {
	pane := NewHistoryPane()
	pane.SetSize(60, 10)
	output := ansi.Strip(pane.String())
	assert.Contains(t, output, "historial")
	assert.Contains(t, output, "sin actividad")
}

func TestHistoryPane_RenderEvents(t *testing.T) {
	pane := NewHistoryPane()
	pane.SetSize(60, 10)
	pane.SetEvents([]auditlog.Event{
		{Kind: auditlog.EventTaskCreated, Message: "Comprar pan", Timestamp: time.Date(2026, 10, 16, 12, 34, 0, 0, time.Local)},
		{Kind: auditlog.EventBatchDeleted, Count: 3, Timestamp: time.Date(2026, 10, 16, 12, 35, 0, 0, time.Local)},
	}, nil)
	output := ansi.Strip(pane.String())
	assert.Contains(t, output, "12:34 ✦ task_created: Comprar pan")
	assert.Contains(t, output, "batch_deleted (3 tareas)")
}

func TestHistoryPane_RenderError(t *testing.T) {
	pane := NewHistoryPane()
	pane.SetSize(60, 10)
	pane.SetEvents(nil, errors.New("database is locked"))
	assert.Contains(t, ansi.Strip(pane.String()), "database is locked")
}

func TestHistoryPane_Scroll(t *testing.T) {
	pane := NewHistoryPane()
	pane.SetSize(60, 3) // very small, forces scroll
	pane.SetEvents(historyEvents(20), nil)

	pane.ScrollDown(5)
	assert.NotContains(t, pane.String(), "event 0\n")
	assert.Contains(t, pane.String(), "event 5")

	pane.ScrollUp(10)
	assert.Contains(t, pane.String(), "event 0")
}

func TestHistoryPane_MessageTruncation(t *testing.T) {
	pane := NewHistoryPane()
	pane.SetSize(40, 5)
	longMsg := "this is a very long message that should be truncated because it exceeds the available width"
	pane.SetEvents([]auditlog.Event{{Kind: auditlog.EventRejected, Message: longMsg}}, nil)

	output := ansi.Strip(pane.String())
	assert.NotContains(t, output, longMsg)
	assert.Contains(t, output, "rejected: this is")
}

func TestHistoryPane_ToggleVisibility(t *testing.T) {
	pane := NewHistoryPane()
	assert.False(t, pane.Visible())
	pane.ToggleVisible()
	assert.True(t, pane.Visible())
	pane.SetSize(60, 8)
	assert.Equal(t, 8, pane.Height())
}
