package broker

import "errors"

var (
	// ErrNoPrompt is returned when answering a queue with nothing visible.
	ErrNoPrompt = errors.New("no prompt is open")
	// ErrStalePrompt is returned when answering a prompt that is no longer
	// the visible one.
	ErrStalePrompt = errors.New("prompt is no longer open")
	// ErrEmpty rejects a blank edit.
	ErrEmpty = errors.New("description cannot be empty")
)
