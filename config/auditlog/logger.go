package auditlog

import "time"

// QueryFilter specifies criteria for querying activity events.
type QueryFilter struct {
	Source string
	TaskID int64
	Kinds  []EventKind
	Limit  int
	Before time.Time
	After  time.Time
}

// Logger is the interface for emitting and querying activity events.
type Logger interface {
	Emit(event Event)
	Query(filter QueryFilter) ([]Event, error)
	Close() error
}

// EventOption is a functional option for configuring optional Event fields.
type EventOption func(*Event)

// WithTask sets the TaskID field on the event.
func WithTask(id int64) EventOption {
	return func(e *Event) { e.TaskID = id }
}

// WithCount sets how many tasks a batch touched.
func WithCount(n int) EventOption {
	return func(e *Event) { e.Count = n }
}

// WithSource sets the Source field on the event.
func WithSource(source string) EventOption {
	return func(e *Event) { e.Source = source }
}

// WithDetail sets the Detail field on the event (JSON-encoded extra data).
func WithDetail(detail string) EventOption {
	return func(e *Event) { e.Detail = detail }
}

// WithLevel sets the Level field on the event (info, warn, error).
func WithLevel(level string) EventOption {
	return func(e *Event) { e.Level = level }
}

// NewEvent builds an Event of kind with msg and the given options applied.
func NewEvent(kind EventKind, msg string, opts ...EventOption) Event {
	e := Event{Kind: kind, Message: msg}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// nopLogger is a no-op Logger used when no state database is configured.
type nopLogger struct{}

// NopLogger returns a Logger that discards all events.
func NopLogger() Logger {
	return &nopLogger{}
}

func (n *nopLogger) Emit(_ Event) {}

func (n *nopLogger) Query(_ QueryFilter) ([]Event, error) {
	return nil, nil
}

func (n *nopLogger) Close() error {
	return nil
}
