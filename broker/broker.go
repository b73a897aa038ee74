// Package broker serializes modal prompts. Confirmations and edit prompts
// each have their own single-slot FIFO queue; callers receive a Future that
// resolves exactly once, with the cancel value when the prompt is closed.
package broker

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/kastheco/tareas/internal/clock"
)

// ConfirmRequest describes a yes/no prompt.
type ConfirmRequest struct {
	// Seq identifies the request. It is assigned by RequestConfirm and must
	// be passed back when answering.
	Seq         uint64
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	// Danger marks destructive actions.
	Danger bool
	// Timeout auto-cancels the prompt once shown. Zero means never.
	Timeout time.Duration
}

// EditRequest asks for a new task description.
type EditRequest struct {
	// Seq is assigned by RequestEdit, like ConfirmRequest.Seq.
	Seq         uint64
	TaskID      int64
	InitialText string
}

// EditResult is the outcome of an edit prompt. OK is false when cancelled.
type EditResult struct {
	Text string
	OK   bool
}

// Queue names one of the two prompt queues.
type Queue int

const (
	QueueConfirm Queue = iota
	QueueEdit
)

// Validator checks a submitted edit. A non-nil error keeps the prompt open.
type Validator func(req EditRequest, text string) error

// Option configures a Broker.
type Option func(*Broker)

// WithClock sets the clock used for confirm timeouts.
func WithClock(c clock.Clock) Option {
	return func(b *Broker) { b.clock = c }
}

// WithValidator sets the edit validator.
func WithValidator(v Validator) Option {
	return func(b *Broker) { b.validate = v }
}

// WithOnInvalid is called with the validation error of a rejected edit.
func WithOnInvalid(fn func(EditRequest, error)) Option {
	return func(b *Broker) { b.onInvalid = fn }
}

// WithOnChange is called after every transition of either queue.
func WithOnChange(fn func(Queue)) Option {
	return func(b *Broker) { b.onChange = fn }
}

// Broker owns the confirm and edit queues.
type Broker struct {
	clock     clock.Clock
	validate  Validator
	onInvalid func(EditRequest, error)
	onChange  func(Queue)

	seq     atomic.Uint64
	confirm *queue[ConfirmRequest, bool]
	edit    *queue[EditRequest, EditResult]
}

// New returns a Broker.
func New(opts ...Option) *Broker {
	b := &Broker{}
	for _, opt := range opts {
		opt(b)
	}
	if b.clock == nil {
		b.clock = clock.Real()
	}
	b.confirm = newQueue[ConfirmRequest, bool](b.clock, false, func() { b.changed(QueueConfirm) })
	b.edit = newQueue[EditRequest, EditResult](b.clock, EditResult{}, func() { b.changed(QueueEdit) })
	return b
}

func (b *Broker) changed(q Queue) {
	if b.onChange != nil {
		b.onChange(q)
	}
}

// SetValidator replaces the edit validator.
func (b *Broker) SetValidator(v Validator) { b.validate = v }

// RequestConfirm queues a confirmation. Empty button labels get defaults.
func (b *Broker) RequestConfirm(req ConfirmRequest) *Future[bool] {
	if req.ConfirmText == "" {
		req.ConfirmText = "Confirm"
	}
	if req.CancelText == "" {
		req.CancelText = "Cancel"
	}
	req.Seq = b.seq.Add(1)
	return b.confirm.enqueue(req, req.Timeout)
}

// RequestEdit queues an edit prompt for taskID prefilled with text.
func (b *Broker) RequestEdit(taskID int64, text string) *Future[EditResult] {
	return b.edit.enqueue(EditRequest{Seq: b.seq.Add(1), TaskID: taskID, InitialText: text}, 0)
}

// CurrentConfirm returns the visible confirmation.
func (b *Broker) CurrentConfirm() (ConfirmRequest, bool) { return b.confirm.head() }

// CurrentEdit returns the visible edit prompt.
func (b *Broker) CurrentEdit() (EditRequest, bool) { return b.edit.head() }

// ConfirmState returns the confirm queue's state and how many requests wait behind the visible one.
func (b *Broker) ConfirmState() (State, int) { return b.confirm.status() }

// EditState is ConfirmState for the edit queue.
func (b *Broker) EditState() (State, int) { return b.edit.status() }

// Confirm answers confirmation seq with yes. It does nothing unless seq is
// the visible confirmation.
func (b *Broker) Confirm(seq uint64) bool { return b.answerConfirm(seq, true) }

// CancelConfirm answers confirmation seq with no.
func (b *Broker) CancelConfirm(seq uint64) bool { return b.answerConfirm(seq, false) }

func (b *Broker) answerConfirm(seq uint64, yes bool) bool {
	return b.confirm.answer(func(r ConfirmRequest) bool { return r.Seq == seq }, yes)
}

// SubmitEdit validates text and, when valid, resolves edit seq with the
// trimmed text. On failure the prompt stays open and the error is returned
// and passed to the OnInvalid hook. ErrStalePrompt means seq is no longer
// the visible edit.
func (b *Broker) SubmitEdit(seq uint64, text string) error {
	req, ok := b.edit.head()
	if !ok {
		return ErrNoPrompt
	}
	if req.Seq != seq {
		return ErrStalePrompt
	}
	trimmed := strings.TrimSpace(text)
	err := b.check(req, trimmed)
	if err != nil {
		if b.onInvalid != nil {
			b.onInvalid(req, err)
		}
		return err
	}
	if !b.edit.answer(func(r EditRequest) bool { return r.Seq == seq }, EditResult{Text: trimmed, OK: true}) {
		return ErrStalePrompt
	}
	return nil
}

func (b *Broker) check(req EditRequest, trimmed string) error {
	if trimmed == "" {
		return ErrEmpty
	}
	if b.validate != nil {
		return b.validate(req, trimmed)
	}
	return nil
}

// CancelEdit resolves edit seq as cancelled.
func (b *Broker) CancelEdit(seq uint64) bool {
	return b.edit.answer(func(r EditRequest) bool { return r.Seq == seq }, EditResult{})
}

// CancelCurrent cancels whichever prompts are visible.
func (b *Broker) CancelCurrent() {
	b.confirm.resolve(false)
	b.edit.resolve(EditResult{})
}

// HandleConfirmKey maps a key name to an answer for confirmation seq. It
// reports whether the key was consumed; keys aimed at a confirmation that is
// no longer visible are not.
func (b *Broker) HandleConfirmKey(seq uint64, key string) bool {
	switch key {
	case "esc", "n", "N":
		return b.CancelConfirm(seq)
	case "enter", "ctrl+enter", "y", "Y":
		return b.Confirm(seq)
	}
	return false
}

// Close cancels every visible and pending prompt. Requests made afterwards
// resolve immediately with the cancel value.
func (b *Broker) Close() {
	b.confirm.close()
	b.edit.close()
}
