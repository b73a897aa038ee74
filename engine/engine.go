// Package engine is the task cache and view engine. It owns the last fetched
// task collection and the view state, and runs the user commands: mutations
// go through the gateway, and each success is followed by a forced refresh
// before it is reported.
package engine

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/connectivity"
	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/internal/debounce"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/view"
)

// Notifier receives user-facing messages. *notify.Center implements it.
type Notifier interface {
	Post(message string, kind notify.Kind, ttl time.Duration, opts ...notify.Option) string
}

// PageSizeSaver persists the page-size preference.
type PageSizeSaver interface {
	SavePageSize(n int) error
}

type nopNotifier struct{}

func (nopNotifier) Post(string, notify.Kind, time.Duration, ...notify.Option) string { return "" }

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier routes messages to n.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithMonitor reports connectivity failures to m and registers the forced
// refresh as its retry.
func WithMonitor(m *connectivity.Monitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// WithBroker asks b for confirmation before deletes and for the new text of
// an edit. Without a broker, deletes run unconfirmed and EditTask is unavailable.
func WithBroker(b *broker.Broker) Option {
	return func(e *Engine) { e.broker = b }
}

// WithAuditLog records every mutation outcome in l.
func WithAuditLog(l auditlog.Logger) Option {
	return func(e *Engine) { e.audit = l }
}

// WithPrefs persists the page size through p.
func WithPrefs(p PageSizeSaver) Option {
	return func(e *Engine) { e.prefs = p }
}

// WithClock sets the clock driving the search debounce.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSearchDelay overrides debounce.DefaultDelay.
func WithSearchDelay(d time.Duration) Option {
	return func(e *Engine) { e.searchDelay = d }
}

// WithState sets the initial view state.
func WithState(s view.State) Option {
	return func(e *Engine) { e.state = s }
}

// WithSource tags activity events with the acting surface (tui, cli).
func WithSource(source string) Option {
	return func(e *Engine) { e.source = source }
}

// WithExportOptions sets how local exports format timestamps.
func WithExportOptions(o export.Options) Option {
	return func(e *Engine) { e.exportOpts = o }
}

// WithOnChange is called after the cache or the view state changed.
func WithOnChange(fn func()) Option {
	return func(e *Engine) { e.onChange = fn }
}

// Engine is safe for concurrent use. Commands block on the network and on
// broker prompts, so UI adapters run them off the render loop.
type Engine struct {
	gw          gateway.Gateway
	notifier    Notifier
	monitor     *connectivity.Monitor
	broker      *broker.Broker
	audit       auditlog.Logger
	prefs       PageSizeSaver
	clock       clock.Clock
	searchDelay time.Duration
	search      *debounce.Debouncer
	source      string
	exportOpts  export.Options
	onChange    func()

	mu    sync.RWMutex
	cache []task.Task
	warm  bool
	state view.State

	flights singleflight.Group
	// mutations counts successful mutations; refreshes requested after
	// different mutations never share a flight.
	mutations atomic.Uint64
}

// New returns an Engine backed by gw.
func New(gw gateway.Gateway, opts ...Option) *Engine {
	e := &Engine{
		gw:    gw,
		state: view.DefaultState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.audit == nil {
		e.audit = auditlog.NopLogger()
	}
	if e.clock == nil {
		e.clock = clock.Real()
	}
	if e.monitor == nil {
		e.monitor = connectivity.NewMonitor()
	}
	e.search = debounce.New(e.clock, e.searchDelay)
	e.monitor.SetRetry(func(ctx context.Context) error { return e.Refresh(ctx, true) })
	if e.broker != nil {
		e.broker.SetValidator(func(req broker.EditRequest, text string) error {
			_, err := e.validateDescription("rename task", text, req.TaskID)
			return err
		})
	}
	return e
}

// Monitor returns the connectivity monitor fed by this engine.
func (e *Engine) Monitor() *connectivity.Monitor { return e.monitor }

// Refresh fetches the task list. With a warm cache and force=false it
// returns without a network call. On success the cache is replaced as a
// whole, vanished ids are dropped from the selection and a connectivity
// block is cleared. On failure the cache is left untouched and the error is
// reported. Concurrent refreshes share one round trip.
func (e *Engine) Refresh(ctx context.Context, force bool) error {
	e.mu.RLock()
	warm := e.warm
	e.mu.RUnlock()
	if warm && !force {
		return nil
	}

	key := "refresh-" + strconv.FormatUint(e.mutations.Load(), 10)
	ch := e.flights.DoChan(key, func() (any, error) {
		return nil, e.fetch(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) fetch(ctx context.Context) error {
	e.mu.RLock()
	st := e.state
	e.mu.RUnlock()

	tasks, err := e.gw.List(ctx, string(st.SortKey), string(st.SortOrder))
	if err != nil {
		e.audit.Emit(auditlog.NewEvent(auditlog.EventRefreshFailed, err.Error(),
			auditlog.WithSource(e.source), auditlog.WithLevel("error")))
		e.report(err)
		return err
	}

	snapshot := make([]task.Task, len(tasks))
	copy(snapshot, tasks)

	e.mu.Lock()
	e.cache = snapshot
	e.warm = true
	e.state = e.state.PruneSelection(snapshot)
	e.mu.Unlock()

	e.monitor.RecordSuccess()
	e.changed()
	return nil
}

// Warm reports whether the cache holds a successful fetch.
func (e *Engine) Warm() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.warm
}

// Tasks returns a copy of the cache.
func (e *Engine) Tasks() []task.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]task.Task, len(e.cache))
	copy(out, e.cache)
	return out
}

// Task returns the cached task with id.
func (e *Engine) Task(id int64) (task.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.cache {
		if t.ID == id {
			return t, true
		}
	}
	return task.Task{}, false
}

// State returns the current view state.
func (e *Engine) State() view.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// View derives the visible page and keeps the clamped page number.
func (e *Engine) View() view.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := view.Derive(e.cache, e.state)
	e.state.Page = res.Page
	return res
}

// Filtered returns every task matching the search, in view order.
func (e *Engine) Filtered() []task.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return view.Filtered(e.cache, e.state)
}

func (e *Engine) update(fn func(view.State) view.State) {
	e.mu.Lock()
	e.state = fn(e.state)
	e.mu.Unlock()
	e.changed()
}

// SetSearch applies q after the debounce delay. A later call replaces a
// pending one. No network call is made.
func (e *Engine) SetSearch(q string) {
	e.search.Trigger(func() { e.SetSearchNow(q) })
}

// SetSearchNow applies q immediately and returns to page 1.
func (e *Engine) SetSearchNow(q string) {
	e.search.Cancel()
	e.update(func(s view.State) view.State { return s.WithSearch(q) })
}

// SetSort sets the sort key and order and returns to page 1.
func (e *Engine) SetSort(key view.SortKey, order view.SortOrder) {
	e.update(func(s view.State) view.State { return s.WithSort(key, order) })
}

// ToggleSort selects key, or flips the order when key is already active.
func (e *Engine) ToggleSort(key view.SortKey) {
	e.update(func(s view.State) view.State { return s.ToggleSort(key) })
}

// SetPage requests page p; View clamps it.
func (e *Engine) SetPage(p int) {
	e.update(func(s view.State) view.State { return s.WithPage(p) })
}

// NextPage moves forward one page, stopping at the last.
func (e *Engine) NextPage() {
	res := e.View()
	e.SetPage(min(res.Page+1, res.TotalPages))
}

// PrevPage moves back one page, stopping at the first.
func (e *Engine) PrevPage() {
	res := e.View()
	e.SetPage(max(res.Page-1, 1))
}

// SetPageSize changes the page size, returns to page 1 and persists the
// preference. Sizes outside view.PageSizes fall back to the default.
func (e *Engine) SetPageSize(n int) {
	var size int
	e.update(func(s view.State) view.State {
		s = s.WithPageSize(n)
		size = s.PageSize
		return s
	})
	if e.prefs != nil {
		if err := e.prefs.SavePageSize(size); err != nil {
			log.WarningLog.Printf("engine: save page size: %v", err)
		}
	}
}

// ToggleSelect adds or removes id from the selection.
func (e *Engine) ToggleSelect(id int64) {
	e.update(func(s view.State) view.State { return s.ToggleSelected(id) })
}

// SelectPage selects every task on the visible page.
func (e *Engine) SelectPage() {
	res := e.View()
	ids := make([]int64, len(res.PageItems))
	for i, t := range res.PageItems {
		ids[i] = t.ID
	}
	e.update(func(s view.State) view.State { return s.SelectAll(ids) })
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.update(func(s view.State) view.State { return s.ClearSelection() })
}

// Close cancels a pending search.
func (e *Engine) Close() {
	e.search.Cancel()
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}
