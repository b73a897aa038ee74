package broker

import (
	"context"
	"sync"
)

// Future is a value that is resolved exactly once.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	// abandon withdraws the request when a waiter gives up.
	abandon func()
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// resolve sets the value. Only the first call has an effect; it reports
// whether this call resolved the future.
func (f *Future[T]) resolve(v T) bool {
	resolved := false
	f.once.Do(func() {
		f.val = v
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done is closed once the future is resolved.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the future resolves or ctx is done. When ctx ends first
// the request is withdrawn: its prompt closes and the future resolves with
// the cancel value for every other waiter.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	case <-ctx.Done():
	}
	select {
	case <-f.done:
		return f.val, nil
	default:
	}
	if f.abandon != nil {
		f.abandon()
	}
	var zero T
	return zero, ctx.Err()
}

// Value returns the resolved value without blocking; ok is false while pending.
func (f *Future[T]) Value() (v T, ok bool) {
	select {
	case <-f.done:
		return f.val, true
	default:
		var zero T
		return zero, false
	}
}
