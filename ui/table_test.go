package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/view"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func sampleTasks() []task.Task {
	return []task.Task{
		{ID: 1, Description: "Comprar pan", Priority: task.PriorityBaja, CreatedAt: task.NewTimestamp(now.Add(-3 * time.Hour))},
		{ID: 2, Description: "Llamar al banco", Priority: task.PriorityAlta, Completed: true, CreatedAt: task.NewTimestamp(now.Add(-2 * time.Hour))},
		{ID: 3, Description: "Revisar el informe trimestral de ventas de la región norte antes del viernes", Priority: task.PriorityMedia, CreatedAt: task.NewTimestamp(now.Add(-time.Hour))},
	}
}

func newTable(t *testing.T, st view.State) *TaskTable {
	t.Helper()
	tbl := NewTaskTable()
	tbl.SetSize(80, 20)
	tbl.SetClock(func() time.Time { return now })
	tbl.SetTimeLayout("2006-01-02 15:04")
	tbl.SetData(view.Derive(sampleTasks(), st), st, true)
	return tbl
}

func TestTaskTable_RendersRowsInViewOrder(t *testing.T) {
	tbl := newTable(t, view.DefaultState())
	out := ansi.Strip(tbl.String())

	assert.Contains(t, out, "Creada ▼", "default sort is newest first")
	assert.Contains(t, out, "Alta")
	assert.Contains(t, out, "2026-10-16 10:00")
	assert.Less(t, strings.Index(out, "Revisar"), strings.Index(out, "Comprar"))
	assert.Contains(t, out, "…", "long descriptions are truncated")
	assert.NotContains(t, out, "antes del viernes")
}

func TestTaskTable_CompactModeUsesRelativeTime(t *testing.T) {
	tbl := newTable(t, view.DefaultState())
	tbl.SetMode(config.ViewCompact)
	out := ansi.Strip(tbl.String())

	assert.Contains(t, out, "3 hours ago")
	assert.NotContains(t, out, "2026-10-16")
}

func TestTaskTable_CursorAndSelection(t *testing.T) {
	st := view.DefaultState().ToggleSelected(1)
	tbl := newTable(t, st)

	cur, ok := tbl.CursorTask()
	require.True(t, ok)
	assert.Equal(t, int64(3), cur.ID)

	tbl.Up()
	assert.Equal(t, 0, tbl.Cursor(), "cursor stops at the top")
	tbl.Down()
	tbl.Down()
	tbl.Down()
	assert.Equal(t, 2, tbl.Cursor(), "cursor stops at the last row")
	assert.Equal(t, []int64{3, 2, 1}, tbl.PageIDs())

	lines := strings.Split(ansi.Strip(tbl.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[3], "● "), "selected row is marked: %q", lines[3])
	assert.True(t, strings.HasPrefix(lines[1], "  "), "unselected row is not: %q", lines[1])

	// A shorter page pulls the cursor back in range.
	tbl.SetData(view.Result{PageItems: sampleTasks()[:1]}, st, true)
	assert.Equal(t, 0, tbl.Cursor())
}

func TestTaskTable_EmptyStates(t *testing.T) {
	tbl := NewTaskTable()
	tbl.SetSize(80, 10)

	tbl.SetData(view.Result{}, view.DefaultState(), false)
	assert.Contains(t, ansi.Strip(tbl.String()), "Cargando")

	tbl.SetData(view.Result{}, view.DefaultState(), true)
	assert.Contains(t, ansi.Strip(tbl.String()), "No hay tareas")

	tbl.SetData(view.Result{}, view.DefaultState().WithSearch("xyz"), true)
	assert.Contains(t, ansi.Strip(tbl.String()), `Sin resultados para "xyz"`)

	_, ok := tbl.CursorTask()
	assert.False(t, ok)
}

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, Active.Love, PriorityColor(task.PriorityAlta))
	assert.Equal(t, Active.Muted, PriorityColor(task.Priority("urgent")))
}
