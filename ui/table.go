package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/view"
)

const (
	colMark     = 2
	colStatus   = 2
	colPriority = 9
	colRelTime  = 14
	colGap      = 2
	minDescCol  = 12
)

// TaskTable renders the visible page of tasks with a movable cursor.
type TaskTable struct {
	width, height int

	rows     []task.Task
	cursor   int
	selected map[int64]struct{}
	sortKey  view.SortKey
	order    view.SortOrder
	search   string
	warm     bool

	mode       config.ViewMode
	timeLayout string
	now        func() time.Time
}

// NewTaskTable returns an empty table in table mode.
func NewTaskTable() *TaskTable {
	return &TaskTable{
		mode:       config.ViewTable,
		timeLayout: config.DefaultConfig().TimeLayout(),
		now:        time.Now,
	}
}

func (t *TaskTable) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// SetMode switches between the full table and the compact list.
func (t *TaskTable) SetMode(m config.ViewMode) { t.mode = m }

func (t *TaskTable) Mode() config.ViewMode { return t.mode }

// SetTimeLayout sets the layout of the creation column in table mode.
func (t *TaskTable) SetTimeLayout(layout string) {
	if layout != "" {
		t.timeLayout = layout
	}
}

// SetClock overrides the reference time for relative dates.
func (t *TaskTable) SetClock(now func() time.Time) { t.now = now }

// SetData replaces the rows with the page in res and keeps the cursor in range.
func (t *TaskTable) SetData(res view.Result, st view.State, warm bool) {
	t.rows = res.PageItems
	t.selected = st.Selection
	t.sortKey = st.SortKey
	t.order = st.SortOrder
	t.search = st.SearchText
	t.warm = warm
	t.clampCursor()
}

func (t *TaskTable) clampCursor() {
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *TaskTable) Up() {
	if t.cursor > 0 {
		t.cursor--
	}
}

func (t *TaskTable) Down() {
	if t.cursor < len(t.rows)-1 {
		t.cursor++
	}
}

// Home moves the cursor to the first row.
func (t *TaskTable) Home() { t.cursor = 0 }

func (t *TaskTable) Cursor() int { return t.cursor }

// CursorTask returns the task under the cursor.
func (t *TaskTable) CursorTask() (task.Task, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return task.Task{}, false
	}
	return t.rows[t.cursor], true
}

// PageIDs returns the ids of the rendered rows.
func (t *TaskTable) PageIDs() []int64 {
	ids := make([]int64, len(t.rows))
	for i, r := range t.rows {
		ids[i] = r.ID
	}
	return ids
}

func (t *TaskTable) isSelected(id int64) bool {
	_, ok := t.selected[id]
	return ok
}

// PriorityColor maps a priority to its palette colour.
func PriorityColor(p task.Priority) lipgloss.Color {
	switch p {
	case task.PriorityAlta:
		return Active.Love
	case task.PriorityMedia:
		return Active.Gold
	case task.PriorityBaja:
		return Active.Pine
	default:
		return Active.Muted
	}
}

func (t *TaskTable) idWidth() int {
	w := 2
	for _, r := range t.rows {
		w = max(w, len(strconv.FormatInt(r.ID, 10)))
	}
	return w
}

func (t *TaskTable) timeWidth() int {
	if t.mode == config.ViewCompact {
		return colRelTime
	}
	return max(runewidth.StringWidth(time.Time{}.Format(t.timeLayout)), len("Creada"))
}

func (t *TaskTable) descWidth(idW int) int {
	fixed := colMark + colStatus + colPriority + t.timeWidth() + 3*colGap
	if t.mode == config.ViewTable {
		fixed += idW + colGap
	}
	return max(t.width-fixed, minDescCol)
}

func (t *TaskTable) formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	if t.mode == config.ViewCompact {
		return humanize.RelTime(ts, t.now(), "ago", "from now")
	}
	return ts.Format(t.timeLayout)
}

func (t *TaskTable) arrow(key view.SortKey) string {
	if t.sortKey != key {
		return ""
	}
	if t.order == view.Asc {
		return " ▲"
	}
	return " ▼"
}

func cell(s string, w int) string {
	if runewidth.StringWidth(s) > w {
		s = truncate.StringWithTail(s, uint(w), "…")
	}
	return runewidth.FillRight(s, w)
}

func (t *TaskTable) header(idW, descW int) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", colMark+colStatus))
	if t.mode == config.ViewTable {
		b.WriteString(runewidth.FillLeft(cell("ID"+t.arrow(view.SortID), idW), idW))
		b.WriteString(strings.Repeat(" ", colGap))
	}
	b.WriteString(cell("Descripción"+t.arrow(view.SortDescripcion), descW))
	b.WriteString(strings.Repeat(" ", colGap))
	b.WriteString(cell("Prioridad"+t.arrow(view.SortPrioridad), colPriority))
	b.WriteString(strings.Repeat(" ", colGap))
	b.WriteString(cell("Creada"+t.arrow(view.SortFecha), t.timeWidth()))
	return lipgloss.NewStyle().Foreground(Active.Subtle).Bold(true).Render(b.String())
}

func (t *TaskTable) row(i int, r task.Task, idW, descW int) string {
	base := lipgloss.NewStyle().Foreground(Active.Text)
	if i == t.cursor {
		base = base.Background(Active.Overlay)
	}
	muted := base.Foreground(Active.Muted)

	mark := "  "
	if t.isSelected(r.ID) {
		mark = "● "
	}
	status := "○ "
	statusStyle := base.Foreground(Active.Muted)
	if r.Completed {
		status = "✓ "
		statusStyle = base.Foreground(Active.Foam)
	}

	desc := cell(r.Description, descW)
	descStyle := base
	if r.Completed {
		descStyle = muted.Strikethrough(true)
	}

	parts := []string{
		base.Foreground(Active.Iris).Render(mark),
		statusStyle.Render(status),
	}
	if t.mode == config.ViewTable {
		id := runewidth.FillLeft(strconv.FormatInt(r.ID, 10), idW)
		parts = append(parts, muted.Render(id), base.Render(strings.Repeat(" ", colGap)))
	}
	parts = append(parts,
		descStyle.Render(desc),
		base.Render(strings.Repeat(" ", colGap)),
		base.Foreground(PriorityColor(r.Priority)).Render(cell(string(r.Priority), colPriority)),
		base.Render(strings.Repeat(" ", colGap)),
		muted.Render(cell(t.formatTime(r.CreatedTime()), t.timeWidth())),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// String renders the header and the rows, or an empty-state line.
func (t *TaskTable) String() string {
	idW := t.idWidth()
	descW := t.descWidth(idW)

	lines := []string{t.header(idW, descW)}
	if len(t.rows) == 0 {
		empty := lipgloss.NewStyle().Foreground(Active.Muted).Italic(true)
		switch {
		case !t.warm:
			lines = append(lines, empty.Render("Cargando tareas…"))
		case t.search != "":
			lines = append(lines, empty.Render(fmt.Sprintf("Sin resultados para %q", t.search)))
		default:
			lines = append(lines, empty.Render("No hay tareas. Pulsa n para crear una."))
		}
	}
	for i, r := range t.rows {
		lines = append(lines, t.row(i, r, idW, descW))
	}
	out := strings.Join(lines, "\n")
	if t.height > 0 {
		out = lipgloss.NewStyle().MaxHeight(t.height).Render(out)
	}
	return out
}
