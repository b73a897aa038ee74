// Package connectivity tracks whether the task service is usable. A
// network failure or an offline signal blocks the UI; only a successful
// refresh unblocks it.
package connectivity

import (
	"context"
	"errors"
	"sync"

	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/log"
)

// Status is the connectivity state.
type Status int

const (
	Online Status = iota
	Blocked
)

func (s Status) String() string {
	if s == Blocked {
		return "blocked"
	}
	return "online"
}

// ErrRetryInProgress is returned when a retry is requested while another runs.
var ErrRetryInProgress = errors.New("retry already in progress")

// ErrNoRetry is returned by Retry when no retry function is registered.
var ErrNoRetry = errors.New("no retry function registered")

// errOffline is recorded as the cause of an explicit Offline signal.
var errOffline = errors.New("network is offline")

// RetryFunc performs a forced refresh. On success it is expected to call
// RecordSuccess.
type RetryFunc func(ctx context.Context) error

// Monitor is safe for concurrent use.
type Monitor struct {
	mu       sync.Mutex
	status   Status
	cause    error
	retry    RetryFunc
	retrying bool
	subs     []func(Status)
}

// NewMonitor returns a Monitor in the Online state.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// SetRetry registers the function Retry runs.
func (m *Monitor) SetRetry(fn RetryFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retry = fn
}

// Subscribe registers fn to be called with the new status on every change.
func (m *Monitor) Subscribe(fn func(Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// Status returns the current state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Blocked reports whether the UI should be blocked.
func (m *Monitor) Blocked() bool { return m.Status() == Blocked }

// Cause returns the error that caused the current block, or nil when online.
func (m *Monitor) Cause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}

// Retrying reports whether a retry is running.
func (m *Monitor) Retrying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retrying
}

// ReportFailure blocks when err is a network or timeout failure. Server and
// validation errors leave the state alone. It reports whether err blocked.
func (m *Monitor) ReportFailure(err error) bool {
	if err == nil || !gateway.IsConnectivity(err) {
		return false
	}
	m.block(err)
	return true
}

// Offline blocks because the host reported the network as down.
func (m *Monitor) Offline() {
	m.block(errOffline)
}

// Online reacts to the network coming back. It never unblocks by itself; when
// blocked it runs a retry, whose successful refresh unblocks.
func (m *Monitor) Online(ctx context.Context) error {
	if !m.Blocked() {
		return nil
	}
	return m.Retry(ctx)
}

// Retry runs the registered retry function. Overlapping calls are dropped
// with ErrRetryInProgress.
func (m *Monitor) Retry(ctx context.Context) error {
	m.mu.Lock()
	if m.retry == nil {
		m.mu.Unlock()
		return ErrNoRetry
	}
	if m.retrying {
		m.mu.Unlock()
		return ErrRetryInProgress
	}
	m.retrying = true
	fn := m.retry
	m.mu.Unlock()

	err := fn(ctx)

	m.mu.Lock()
	m.retrying = false
	m.mu.Unlock()
	if err != nil {
		log.InfoLog.Printf("connectivity: retry failed: %v", err)
	}
	return err
}

// RecordSuccess clears the block after a successful round trip.
func (m *Monitor) RecordSuccess() {
	m.set(Online, nil)
}

func (m *Monitor) block(cause error) {
	m.set(Blocked, cause)
}

func (m *Monitor) set(s Status, cause error) {
	m.mu.Lock()
	changed := m.status != s
	m.status = s
	m.cause = cause
	subs := append([]func(Status)(nil), m.subs...)
	m.mu.Unlock()

	if !changed {
		return
	}
	if s == Blocked {
		log.WarningLog.Printf("connectivity: blocked: %v", cause)
	} else {
		log.InfoLog.Printf("connectivity: back online")
	}
	for _, fn := range subs {
		fn(s)
	}
}
