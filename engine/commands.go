package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/internal/sentry"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/task"
)

// validateDescription trims desc and checks it against the cache, ignoring
// the task being renamed. The server stays authoritative on uniqueness.
func (e *Engine) validateDescription(op, desc string, excludeID int64) (string, error) {
	trimmed := strings.TrimSpace(desc)
	if trimmed == "" {
		return "", &ValidationError{Op: op, Err: ErrEmptyDescription}
	}
	e.mu.RLock()
	dup, found := task.FindDuplicate(e.cache, trimmed, excludeID)
	e.mu.RUnlock()
	if found {
		return "", &ValidationError{Op: op, Err: ErrDuplicate, Conflict: &dup}
	}
	return trimmed, nil
}

// CreateTask adds a task. An invalid priority falls back to the default.
func (e *Engine) CreateTask(ctx context.Context, desc string, p task.Priority) error {
	const op = "create task"
	desc, err := e.validateDescription(op, desc, 0)
	if err != nil {
		return e.reject(err)
	}
	if !p.Valid() {
		p = task.DefaultPriority
	}
	msg, err := e.gw.Create(ctx, desc, p)
	if err != nil {
		return e.fail(op, err)
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventTaskCreated, desc), msg, "Task created.")
}

// RenameTask changes the description of id after the local checks.
func (e *Engine) RenameTask(ctx context.Context, id int64, desc string) error {
	const op = "rename task"
	if _, ok := e.Task(id); !ok {
		return e.reject(&ValidationError{Op: op, Err: ErrNotFound})
	}
	desc, err := e.validateDescription(op, desc, id)
	if err != nil {
		return e.reject(err)
	}
	msg, err := e.gw.Rename(ctx, id, desc)
	if err != nil {
		return e.fail(op, err)
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventTaskRenamed, desc, auditlog.WithTask(id)), msg, "Task updated.")
}

// EditTask prompts for a new description through the broker, then renames.
// A dismissed prompt returns ErrCancelled without touching the network.
func (e *Engine) EditTask(ctx context.Context, id int64) error {
	t, ok := e.Task(id)
	if !ok {
		return e.reject(&ValidationError{Op: "edit task", Err: ErrNotFound})
	}
	if e.broker == nil {
		return errors.New("edit task: no prompt available")
	}
	res, err := e.broker.RequestEdit(id, t.Description).Wait(ctx)
	if err != nil {
		return err
	}
	if !res.OK {
		return ErrCancelled
	}
	if res.Text == t.Description {
		return nil
	}
	return e.RenameTask(ctx, id, res.Text)
}

// ToggleTask flips the completed flag of id.
func (e *Engine) ToggleTask(ctx context.Context, id int64) error {
	t, ok := e.Task(id)
	if !ok {
		return e.reject(&ValidationError{Op: "toggle task", Err: ErrNotFound})
	}
	return e.SetCompleted(ctx, id, !t.Completed)
}

// SetCompleted marks id completed or pending.
func (e *Engine) SetCompleted(ctx context.Context, id int64, completed bool) error {
	msg, err := e.gw.SetCompleted(ctx, id, completed)
	if err != nil {
		return e.fail("update task", err)
	}
	kind, text := auditlog.EventTaskReopened, "Task marked as pending."
	if completed {
		kind, text = auditlog.EventTaskCompleted, "Task completed."
	}
	return e.succeed(ctx, auditlog.NewEvent(kind, "", auditlog.WithTask(id)), msg, text)
}

// SetPriority changes the priority of id.
func (e *Engine) SetPriority(ctx context.Context, id int64, p task.Priority) error {
	if !p.Valid() {
		return e.reject(&ValidationError{Op: "set priority", Err: ErrInvalidPriority})
	}
	msg, err := e.gw.SetPriority(ctx, id, p)
	if err != nil {
		return e.fail("set priority", err)
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventTaskPriority, string(p), auditlog.WithTask(id)), msg,
		fmt.Sprintf("Priority set to %s.", p))
}

// DeleteTask asks for confirmation, then deletes id.
func (e *Engine) DeleteTask(ctx context.Context, id int64) error {
	desc := fmt.Sprintf("task %d", id)
	if t, ok := e.Task(id); ok {
		desc = fmt.Sprintf("%q", t.Description)
	}
	if err := e.confirm(ctx, broker.ConfirmRequest{
		Title:       "Delete task",
		Message:     "Delete " + desc + "? This cannot be undone.",
		ConfirmText: "Delete",
		Danger:      true,
	}); err != nil {
		return err
	}
	msg, err := e.gw.Delete(ctx, id)
	if err != nil {
		return e.fail("delete task", err)
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventTaskDeleted, desc, auditlog.WithTask(id)), msg, "Task deleted.")
}

// DeleteSelected confirms and deletes every selected task, then clears the selection.
func (e *Engine) DeleteSelected(ctx context.Context) error {
	ids, err := e.selected("delete tasks")
	if err != nil {
		return err
	}
	if err := e.confirm(ctx, broker.ConfirmRequest{
		Title:       "Delete tasks",
		Message:     fmt.Sprintf("Delete %d selected task(s)? This cannot be undone.", len(ids)),
		ConfirmText: "Delete",
		Danger:      true,
	}); err != nil {
		return err
	}
	msg, err := e.gw.BatchDelete(ctx, ids)
	if err != nil {
		return e.fail("delete tasks", err)
	}
	e.ClearSelection()
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventBatchDeleted, "", auditlog.WithCount(len(ids))), msg,
		fmt.Sprintf("%d task(s) deleted.", len(ids)))
}

// CompleteSelected marks every selected task completed or pending.
func (e *Engine) CompleteSelected(ctx context.Context, completed bool) error {
	ids, err := e.selected("complete tasks")
	if err != nil {
		return err
	}
	msg, err := e.gw.BatchComplete(ctx, ids, completed)
	if err != nil {
		return e.fail("complete tasks", err)
	}
	text := fmt.Sprintf("%d task(s) completed.", len(ids))
	if !completed {
		text = fmt.Sprintf("%d task(s) marked as pending.", len(ids))
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventBatchCompleted, fmt.Sprint(completed), auditlog.WithCount(len(ids))), msg, text)
}

// PrioritizeSelected sets the priority of every selected task.
func (e *Engine) PrioritizeSelected(ctx context.Context, p task.Priority) error {
	if !p.Valid() {
		return e.reject(&ValidationError{Op: "prioritize tasks", Err: ErrInvalidPriority})
	}
	ids, err := e.selected("prioritize tasks")
	if err != nil {
		return err
	}
	msg, err := e.gw.BatchPriority(ctx, ids, p)
	if err != nil {
		return e.fail("prioritize tasks", err)
	}
	return e.succeed(ctx, auditlog.NewEvent(auditlog.EventBatchPriority, string(p), auditlog.WithCount(len(ids))), msg,
		fmt.Sprintf("%d task(s) set to %s.", len(ids), p))
}

// ExportServer downloads the server-side export.
func (e *Engine) ExportServer(ctx context.Context, format gateway.ExportFormat) ([]byte, error) {
	b, err := e.gw.Export(ctx, format)
	if err != nil {
		return nil, e.fail("export tasks", err)
	}
	e.audit.Emit(auditlog.NewEvent(auditlog.EventExported, "server "+string(format), auditlog.WithSource(e.source)))
	return b, nil
}

// ExportTasks returns the tasks a local export covers: the selection when
// there is one, otherwise everything matching the search, in view order.
func (e *Engine) ExportTasks() []task.Task {
	filtered := e.Filtered()
	st := e.State()
	if st.SelectionCount() == 0 {
		return filtered
	}
	out := make([]task.Task, 0, st.SelectionCount())
	for _, t := range filtered {
		if st.Selected(t.ID) {
			out = append(out, t)
		}
	}
	// Selected tasks hidden by the current search are still exported.
	if len(out) < st.SelectionCount() {
		for _, t := range e.Tasks() {
			if st.Selected(t.ID) && !containsID(out, t.ID) {
				out = append(out, t)
			}
		}
	}
	return out
}

// ExportLocal renders ExportTasks in format f.
func (e *Engine) ExportLocal(f export.Format) ([]byte, error) {
	tasks := e.ExportTasks()
	b, err := export.Render(f, tasks, e.exportOpts)
	if err != nil {
		return nil, err
	}
	e.audit.Emit(auditlog.NewEvent(auditlog.EventExported, "local "+string(f),
		auditlog.WithCount(len(tasks)), auditlog.WithSource(e.source)))
	return b, nil
}

func containsID(tasks []task.Task, id int64) bool {
	for _, t := range tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) selected(op string) ([]int64, error) {
	ids := e.State().SelectedIDs()
	if len(ids) == 0 {
		return nil, e.reject(&ValidationError{Op: op, Err: ErrNothingSelected})
	}
	return ids, nil
}

// confirm blocks on the broker. Without a broker it always proceeds.
func (e *Engine) confirm(ctx context.Context, req broker.ConfirmRequest) error {
	if e.broker == nil {
		return nil
	}
	ok, err := e.broker.RequestConfirm(req).Wait(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// succeed records the mutation, refreshes the cache and only then posts the
// success message. A failed refresh is reported by Refresh itself.
func (e *Engine) succeed(ctx context.Context, ev auditlog.Event, serverMsg, fallback string) error {
	ev.Source = e.source
	e.audit.Emit(ev)
	e.mutations.Add(1)

	if err := e.Refresh(ctx, true); err != nil {
		return fmt.Errorf("refresh after %s: %w", ev.Kind, err)
	}
	msg := serverMsg
	if msg == "" {
		msg = fallback
	}
	e.notifier.Post(msg, notify.KindSuccess, 0)
	return nil
}

// reject reports a local validation failure. Nothing reaches the network.
func (e *Engine) reject(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		e.audit.Emit(auditlog.NewEvent(auditlog.EventRejected, ve.Error(),
			auditlog.WithSource(e.source), auditlog.WithLevel("warn")))
		e.notifier.Post(ve.Message(), notify.KindError, 0)
	}
	return err
}

// fail routes a gateway error: connectivity failures block, every failure is
// notified, and the cache is left as it was.
func (e *Engine) fail(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	e.audit.Emit(auditlog.NewEvent(auditlog.EventMutationFailed, fmt.Sprintf("%s: %v", op, err),
		auditlog.WithSource(e.source), auditlog.WithLevel("error")))
	var se *gateway.ServerError
	if errors.As(err, &se) && se.Status >= 500 {
		sentry.CaptureError(op, err)
	}
	e.report(err)
	return err
}

func (e *Engine) report(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	e.monitor.ReportFailure(err)
	log.WarningLog.Printf("engine: %v", err)
	e.notifier.Post(gateway.UserMessage(err), notify.KindError, 0)
}
