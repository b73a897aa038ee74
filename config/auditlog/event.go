// Package auditlog records an activity trail of task mutations and failures.
package auditlog

import "time"

// EventKind identifies the type of activity event.
type EventKind string

// String returns the string representation of the EventKind.
func (k EventKind) String() string {
	return string(k)
}

// Single-task mutations.
const (
	EventTaskCreated   EventKind = "task_created"
	EventTaskRenamed   EventKind = "task_renamed"
	EventTaskCompleted EventKind = "task_completed"
	EventTaskReopened  EventKind = "task_reopened"
	EventTaskPriority  EventKind = "task_priority"
	EventTaskDeleted   EventKind = "task_deleted"
)

// Batch mutations.
const (
	EventBatchDeleted   EventKind = "batch_deleted"
	EventBatchCompleted EventKind = "batch_completed"
	EventBatchPriority  EventKind = "batch_priority"
)

// Operational events.
const (
	EventExported       EventKind = "exported"
	EventImported       EventKind = "imported"
	EventRejected       EventKind = "rejected"
	EventMutationFailed EventKind = "mutation_failed"
	EventRefreshFailed  EventKind = "refresh_failed"
)

// Event is a single activity entry.
type Event struct {
	ID        int64
	Kind      EventKind
	Timestamp time.Time
	// Source is the surface that performed the action: tui or cli.
	Source  string
	TaskID  int64
	Count   int // tasks affected by a batch
	Message string
	Detail  string // JSON-encoded extra data
	Level   string // info, warn, error
}
