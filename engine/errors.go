package engine

import (
	"errors"
	"fmt"

	"github.com/kastheco/tareas/task"
)

var (
	// ErrEmptyDescription rejects a blank description.
	ErrEmptyDescription = errors.New("description cannot be empty")
	// ErrDuplicate rejects a description that already exists in the cache.
	ErrDuplicate = errors.New("a task with that description already exists")
	// ErrInvalidPriority rejects a priority outside Alta, Media, Baja.
	ErrInvalidPriority = errors.New("priority must be Alta, Media or Baja")
	// ErrNothingSelected is returned by batch commands with an empty selection.
	ErrNothingSelected = errors.New("no tasks selected")
	// ErrCancelled is returned when the user dismissed a confirm or edit prompt.
	ErrCancelled = errors.New("cancelled")
	// ErrNotFound is returned when the task is not in the cache.
	ErrNotFound = errors.New("task not found")
)

// ValidationError is a request rejected locally, before any network call.
type ValidationError struct {
	Op  string
	Err error
	// Conflict is the existing task when Err is ErrDuplicate.
	Conflict *task.Task
}

func (e *ValidationError) Error() string {
	if e.Conflict != nil {
		return fmt.Sprintf("%s: %v: %q", e.Op, e.Err, e.Conflict.Description)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Message is the text shown to the user for a validation failure.
func (e *ValidationError) Message() string {
	switch {
	case errors.Is(e.Err, ErrDuplicate) && e.Conflict != nil:
		return fmt.Sprintf("A task named %q already exists.", e.Conflict.Description)
	case errors.Is(e.Err, ErrDuplicate):
		return "A task with that description already exists."
	case errors.Is(e.Err, ErrEmptyDescription):
		return "The description cannot be empty."
	case errors.Is(e.Err, ErrInvalidPriority):
		return "Invalid priority. Use Alta, Media or Baja."
	case errors.Is(e.Err, ErrNothingSelected):
		return "Select at least one task first."
	case errors.Is(e.Err, ErrNotFound):
		return "That task no longer exists."
	}
	return e.Err.Error()
}
