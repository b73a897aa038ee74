package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/engine"
	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/keys"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/ui"
)

// historyLimit is how many activity events the history pane loads.
const historyLimit = 50

// run starts an engine command off the render loop. The engine reports
// failures through the notification center itself, so the result only
// updates the busy counter.
func (m *home) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	m.refreshView()
	ctx := m.ctx
	return func() tea.Msg {
		return cmdDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *home) handleCmdDone(msg cmdDoneMsg) tea.Cmd {
	m.busy = max(0, m.busy-1)
	if msg.op == "retry" {
		m.offlineOverlay.SetRetrying(false)
		m.syncOffline()
	}
	if msg.err != nil && !quiet(msg.err) {
		log.WarningLog.Printf("%s: %v", msg.op, msg.err)
	}
	m.refreshView()
	if m.history.Visible() {
		return m.loadHistory()
	}
	return nil
}

// quiet reports errors the user caused on purpose.
func quiet(err error) bool {
	return errors.Is(err, engine.ErrCancelled) || errors.Is(err, context.Canceled)
}

// handleTaskAction runs the mutation bound to name. With a selection the
// batch variants apply, otherwise the task under the cursor is the target.
func (m *home) handleTaskAction(name keys.KeyName) tea.Cmd {
	selected := m.engine.State().SelectionCount() > 0
	cur, hasCur := m.table.CursorTask()

	switch name {
	case keys.KeyNew:
		m.openNewTaskForm()
	case keys.KeyEdit:
		if !hasCur || m.svc.Broker == nil {
			return nil
		}
		id := cur.ID
		return m.run("edit", func(ctx context.Context) error { return m.engine.EditTask(ctx, id) })
	case keys.KeyToggle:
		if !hasCur {
			return nil
		}
		id := cur.ID
		return m.run("toggle", func(ctx context.Context) error { return m.engine.ToggleTask(ctx, id) })
	case keys.KeyPriority:
		if !hasCur {
			return nil
		}
		id, p := cur.ID, nextPriority(cur.Priority)
		return m.run("priority", func(ctx context.Context) error { return m.engine.SetPriority(ctx, id, p) })
	case keys.KeyAlta, keys.KeyMedia, keys.KeyBaja:
		p := priorityFor(name)
		if selected {
			return m.run("prioritize selected", func(ctx context.Context) error {
				return m.engine.PrioritizeSelected(ctx, p)
			})
		}
		if !hasCur {
			return nil
		}
		id := cur.ID
		return m.run("priority", func(ctx context.Context) error { return m.engine.SetPriority(ctx, id, p) })
	case keys.KeyDelete:
		if selected {
			return m.run("delete selected", m.engine.DeleteSelected)
		}
		if !hasCur {
			return nil
		}
		id := cur.ID
		return m.run("delete", func(ctx context.Context) error { return m.engine.DeleteTask(ctx, id) })
	case keys.KeyCompleteSel, keys.KeyReopenSel:
		completed := name == keys.KeyCompleteSel
		return m.run("complete selected", func(ctx context.Context) error {
			return m.engine.CompleteSelected(ctx, completed)
		})
	case keys.KeyExport:
		return m.exportLocal()
	case keys.KeyServerExport:
		return m.exportServer()
	}
	return nil
}

// createTask submits the new task form. The form stays open until the
// request finishes so a rejected description can be corrected in place.
func (m *home) createTask(desc string, p task.Priority) tea.Cmd {
	m.creating = true
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return createDoneMsg{err: m.engine.CreateTask(ctx, desc, p)}
	}
}

func (m *home) handleCreateDone(msg createDoneMsg) tea.Cmd {
	m.busy = max(0, m.busy-1)
	m.creating = false
	if m.formOverlay == nil {
		return nil
	}
	if msg.err != nil && !quiet(msg.err) {
		m.formOverlay.Reject(promptMessage(msg.err))
		return nil
	}
	m.formOverlay = nil
	m.setState(stateDefault)
	m.refreshView()
	return nil
}

// promptMessage is the inline error shown under a form field.
func promptMessage(err error) string {
	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message()
	case errors.Is(err, broker.ErrEmpty):
		return "The description cannot be empty."
	}
	return gateway.UserMessage(err)
}

func nextPriority(p task.Priority) task.Priority {
	for i, candidate := range task.Priorities {
		if candidate == p {
			return task.Priorities[(i+1)%len(task.Priorities)]
		}
	}
	return task.DefaultPriority
}

func priorityFor(name keys.KeyName) task.Priority {
	switch name {
	case keys.KeyAlta:
		return task.PriorityAlta
	case keys.KeyBaja:
		return task.PriorityBaja
	}
	return task.PriorityMedia
}

// exportLocal writes the selection, or the filtered view, as CSV into the
// working directory.
func (m *home) exportLocal() tea.Cmd {
	toastID := m.toastManager.Loading("Exportando…")
	now := time.Now()
	return tea.Batch(m.startToastTick(), func() tea.Msg {
		data, err := m.engine.ExportLocal(export.FormatCSV)
		if err != nil {
			return exportDoneMsg{toastID: toastID, err: err}
		}
		path, err := writeExport(export.FileName(export.FormatCSV, now), data)
		return exportDoneMsg{toastID: toastID, path: path, err: err}
	})
}

// exportServer downloads the server's CSV export into the working directory.
func (m *home) exportServer() tea.Cmd {
	toastID := m.toastManager.Loading("Descargando exportación…")
	now := time.Now()
	ctx := m.ctx
	return tea.Batch(m.startToastTick(), func() tea.Msg {
		data, err := m.engine.ExportServer(ctx, gateway.ExportCSV)
		if err != nil {
			return exportDoneMsg{toastID: toastID, err: err}
		}
		path, err := writeExport("servidor-"+export.FileName(export.FormatCSV, now), data)
		return exportDoneMsg{toastID: toastID, path: path, err: err}
	})
}

func writeExport(name string, data []byte) (string, error) {
	path, err := filepath.Abs(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

func (m *home) handleExportDone(msg exportDoneMsg) {
	m.toastManager.Resolve(msg.toastID)
	if m.svc.Center == nil {
		return
	}
	switch {
	case msg.err == nil:
		m.svc.Center.Success("Exported to " + msg.path)
	case gateway.IsConnectivity(msg.err) || gateway.IsServer(msg.err):
		// The engine already reported it.
	case !quiet(msg.err):
		log.ErrorLog.Printf("export: %v", msg.err)
		m.svc.Center.Error("Export failed: " + msg.err.Error())
	}
}

func (m *home) toggleHistory() tea.Cmd {
	m.history.ToggleVisible()
	m.layout()
	if !m.history.Visible() {
		return nil
	}
	return m.loadHistory()
}

func (m *home) loadHistory() tea.Cmd {
	audit := m.svc.Audit
	return func() tea.Msg {
		events, err := audit.Query(auditlog.QueryFilter{Limit: historyLimit})
		return historyMsg{events: events, err: err}
	}
}

// cycleTheme moves to the next theme, repaints and saves the preference.
func (m *home) cycleTheme() tea.Cmd {
	next := m.svc.Prefs.Theme().Next()
	palette := ui.ApplyTheme(next, m.termOut)
	if m.setBackground != nil {
		m.setBackground(palette.Base)
	}
	if err := m.svc.Prefs.SaveTheme(next); err != nil {
		log.WarningLog.Printf("save theme: %v", err)
	}
	if m.svc.Center != nil {
		m.svc.Center.Info(fmt.Sprintf("Theme: %s", next))
	}
	return nil
}

func (m *home) toggleViewMode() {
	mode := m.table.Mode().Toggle()
	m.table.SetMode(mode)
	if err := m.svc.Prefs.SaveViewMode(mode); err != nil {
		log.WarningLog.Printf("save view mode: %v", err)
	}
}

// copyDescription puts the description under the cursor on the clipboard.
func (m *home) copyDescription() tea.Cmd {
	t, ok := m.table.CursorTask()
	if !ok || m.svc.Center == nil {
		return nil
	}
	if err := clipboard.WriteAll(t.Description); err != nil {
		log.WarningLog.Printf("clipboard: %v", err)
		m.svc.Center.Error("Could not copy to the clipboard.")
		return nil
	}
	m.svc.Center.Info("Copied to clipboard.")
	return nil
}
