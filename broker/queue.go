package broker

import (
	"sync"
	"time"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/log"
)

type item[R, T any] struct {
	req     R
	fut     *Future[T]
	timeout time.Duration
	timer   clock.Timer
}

// queue is a FIFO where only the head is visible. Resolving the head shows
// the next request.
type queue[R, T any] struct {
	mu       sync.Mutex
	clock    clock.Clock
	cancel   T
	state    State
	current  *item[R, T]
	pending  []*item[R, T]
	closed   bool
	onChange func()
}

func newQueue[R, T any](c clock.Clock, cancel T, onChange func()) *queue[R, T] {
	return &queue[R, T]{clock: c, cancel: cancel, state: StateIdle, onChange: onChange}
}

func (q *queue[R, T]) enqueue(req R, timeout time.Duration) *Future[T] {
	it := &item[R, T]{req: req, fut: newFuture[T](), timeout: timeout}
	it.fut.abandon = func() { q.withdraw(it) }

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		it.fut.resolve(q.cancel)
		return it.fut
	}
	q.pending = append(q.pending, it)
	changed := q.advance()
	q.mu.Unlock()

	if changed {
		q.changed()
	}
	return it.fut
}

// advance shows the next pending request when idle. Callers hold q.mu.
func (q *queue[R, T]) advance() bool {
	if q.state != StateIdle || len(q.pending) == 0 {
		return false
	}
	next, err := ApplyTransition(q.state, EventShow)
	if err != nil {
		log.ErrorLog.Printf("broker: %v", err)
		return false
	}
	it := q.pending[0]
	q.pending = q.pending[1:]
	q.current = it
	q.state = next
	if it.timeout > 0 {
		it.timer = q.clock.AfterFunc(it.timeout, func() { q.resolveItem(it, q.cancel) })
	}
	return true
}

// head returns the visible request.
func (q *queue[R, T]) head() (R, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		var zero R
		return zero, false
	}
	return q.current.req, true
}

func (q *queue[R, T]) resolve(v T) bool {
	q.mu.Lock()
	it := q.current
	q.mu.Unlock()
	if it == nil {
		return false
	}
	return q.resolveItem(it, v)
}

// answer resolves the visible request only if match accepts it, so a key
// press aimed at a prompt that has since been replaced does nothing.
func (q *queue[R, T]) answer(match func(R) bool, v T) bool {
	q.mu.Lock()
	it := q.current
	q.mu.Unlock()
	if it == nil || !match(it.req) {
		return false
	}
	return q.resolveItem(it, v)
}

// withdraw resolves it with the cancel value whether it is visible or still
// waiting, and shows the next request.
func (q *queue[R, T]) withdraw(it *item[R, T]) {
	q.mu.Lock()
	if q.current == it {
		q.mu.Unlock()
		q.resolveItem(it, q.cancel)
		return
	}
	removed := false
	for i, p := range q.pending {
		if p == it {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			removed = true
			break
		}
	}
	q.mu.Unlock()

	if removed {
		it.fut.resolve(q.cancel)
		q.changed()
	}
}

// resolveItem resolves it if it is still the visible request, then shows the
// next one. A timer that fires after the user answered is a no-op.
func (q *queue[R, T]) resolveItem(it *item[R, T], v T) bool {
	q.mu.Lock()
	if q.current != it {
		q.mu.Unlock()
		return false
	}
	resolving, err := ApplyTransition(q.state, EventResolve)
	if err != nil {
		q.mu.Unlock()
		log.ErrorLog.Printf("broker: %v", err)
		return false
	}
	q.state = resolving
	if it.timer != nil {
		it.timer.Stop()
	}
	it.fut.resolve(v)
	q.current = nil
	q.state, _ = ApplyTransition(q.state, EventSettle)
	q.advance()
	q.mu.Unlock()

	q.changed()
	return true
}

// close resolves the visible and every pending request with the cancel
// value. Later requests resolve immediately.
func (q *queue[R, T]) close() {
	q.mu.Lock()
	q.closed = true
	items := q.pending
	if q.current != nil {
		if q.current.timer != nil {
			q.current.timer.Stop()
		}
		items = append([]*item[R, T]{q.current}, items...)
	}
	q.current = nil
	q.pending = nil
	q.state = StateIdle
	q.mu.Unlock()

	for _, it := range items {
		it.fut.resolve(q.cancel)
	}
	if len(items) > 0 {
		q.changed()
	}
}

func (q *queue[R, T]) status() (State, int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state, len(q.pending)
}

func (q *queue[R, T]) changed() {
	if q.onChange != nil {
		q.onChange()
	}
}
