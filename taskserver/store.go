// Package taskserver is the development REST server for the task API. It
// serves the routes the gateway consumes from a SQLite or Postgres store.
package taskserver

import (
	"context"
	"errors"

	"github.com/kastheco/tareas/task"
)

var (
	// ErrNotFound is returned when no task has the requested id.
	ErrNotFound = errors.New("task not found")
	// ErrDuplicate is returned when a description collides case-insensitively
	// with another task.
	ErrDuplicate = errors.New("task description already exists")
)

// Patch carries the fields of a partial update. Nil fields are left alone.
type Patch struct {
	Description *string
	Completed   *bool
	Priority    *task.Priority
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Description == nil && p.Completed == nil && p.Priority == nil
}

// Store is the persistence contract behind the HTTP handler.
type Store interface {
	// List returns every task ordered by sortKey/order (see ListOrder).
	List(ctx context.Context, sortKey, order string) ([]task.Task, error)
	Get(ctx context.Context, id int64) (task.Task, error)
	// Create inserts t and returns it with its assigned id. A zero CreatedAt
	// is stamped with the store clock.
	Create(ctx context.Context, t task.Task) (task.Task, error)
	Update(ctx context.Context, id int64, patch Patch) (task.Task, error)
	Delete(ctx context.Context, id int64) error
	// Batch operations return the number of rows affected. Unknown ids are skipped.
	BatchDelete(ctx context.Context, ids []int64) (int, error)
	BatchComplete(ctx context.Context, ids []int64, completed bool) (int, error)
	BatchPriority(ctx context.Context, ids []int64, priority task.Priority) (int, error)
	Ping(ctx context.Context) error
	Close() error
}
