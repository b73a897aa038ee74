package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/kastheco/tareas/connectivity"
	"github.com/kastheco/tareas/view"
)

func TestStatusBar_Baseline(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(100)
	sb.SetData(StatusBarData{
		Total: 12, Pending: 5, Page: 2, Pages: 3, PageSize: 5,
		SortKey: view.SortFecha, Order: view.Desc,
	})

	result := ansi.Strip(sb.String())
	assert.Contains(t, result, "tareas")
	assert.Contains(t, result, "5 pendientes / 12")
	assert.Contains(t, result, "pág 2/3 · 5")
	assert.Contains(t, result, "fecha ▼")
	assert.NotContains(t, result, "sin conexión")
	// Should be exactly 1 line (no newlines in output)
	assert.Equal(t, 0, strings.Count(result, "\n"))
}

func TestStatusBar_SearchSelectionAndOffline(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(120)
	sb.SetData(StatusBarData{
		Total: 12, Pending: 5, Filtered: 2, Search: "pan", Selected: 3,
		SortKey: view.SortPrioridad, Order: view.Asc, Status: connectivity.Blocked,
	})

	result := ansi.Strip(sb.String())
	assert.Contains(t, result, "/pan (2)")
	assert.Contains(t, result, "3 seleccionadas")
	assert.Contains(t, result, "prioridad ▲")
	assert.Contains(t, result, "pág 0/1", "zero pages still reads as one")
	assert.Contains(t, result, "sin conexión")
}

func TestStatusBar_TooNarrow(t *testing.T) {
	sb := NewStatusBar()
	sb.SetSize(5)
	assert.Empty(t, sb.String())
}
