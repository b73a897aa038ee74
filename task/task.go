// Package task defines the task record served by the REST API and the
// helpers shared by the client cache, the exporters and the development server.
package task

import (
	"strings"
	"time"
)

// Priority is the urgency bucket of a task.
type Priority string

const (
	PriorityAlta  Priority = "Alta"
	PriorityMedia Priority = "Media"
	PriorityBaja  Priority = "Baja"
)

// DefaultPriority is assigned when a task is created without a valid priority.
const DefaultPriority = PriorityMedia

// Priorities lists the valid priorities from most to least urgent.
var Priorities = []Priority{PriorityAlta, PriorityMedia, PriorityBaja}

// ParsePriority matches s case-insensitively against the valid priorities.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(strings.TrimSpace(s), string(p)) {
			return p, true
		}
	}
	return "", false
}

// PriorityOrDefault returns the parsed priority or DefaultPriority.
func PriorityOrDefault(s string) Priority {
	if p, ok := ParsePriority(s); ok {
		return p
	}
	return DefaultPriority
}

// Weight orders priorities for sorting: Baja=1, Media=2, Alta=3. Unknown values weigh 0.
func (p Priority) Weight() int {
	switch p {
	case PriorityBaja:
		return 1
	case PriorityMedia:
		return 2
	case PriorityAlta:
		return 3
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Weight() > 0
}

// Task is a single entry of the task list.
type Task struct {
	ID          int64     `json:"id"`
	Description string    `json:"descripcion"`
	Completed   bool      `json:"completada"`
	Priority    Priority  `json:"prioridad"`
	CreatedAt   Timestamp `json:"fechaCreacion"`
}

// Pending reports whether the task is still open.
func (t Task) Pending() bool { return !t.Completed }

// NormalizeDescription trims and case-folds a description for uniqueness checks.
func NormalizeDescription(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SameDescription reports whether a and b collide under the uniqueness rule.
func SameDescription(a, b string) bool {
	return NormalizeDescription(a) == NormalizeDescription(b)
}

// FindDuplicate returns the first task in tasks, other than excludeID, whose
// description collides with desc.
func FindDuplicate(tasks []Task, desc string, excludeID int64) (Task, bool) {
	norm := NormalizeDescription(desc)
	for _, t := range tasks {
		if t.ID == excludeID {
			continue
		}
		if NormalizeDescription(t.Description) == norm {
			return t, true
		}
	}
	return Task{}, false
}

// CreatedTime returns the creation time as a time.Time.
func (t Task) CreatedTime() time.Time { return t.CreatedAt.Time }
