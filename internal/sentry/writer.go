package sentry

import (
	"io"
	"strings"
	"sync"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

// Level is the severity a Writer forwards its lines at.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// repeatWindow is how long an identical error line is sent only once. A dead
// API makes every refresh log the same failure.
const repeatWindow = time.Minute

// Writer tees log lines to an inner writer and forwards them to Sentry.
// Errors become events; warnings and info become breadcrumbs, so an error
// event carries the trail of refreshes and mutations that preceded it.
type Writer struct {
	inner io.Writer
	level Level
	now   func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

// NewWriter creates a Writer that tees to inner and forwards to Sentry.
func NewWriter(inner io.Writer, level Level) *Writer {
	return &Writer{inner: inner, level: level, now: time.Now, sent: map[string]time.Time{}}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	if !enabled {
		return n, err
	}

	msg := stripLogPrefix(strings.TrimSpace(string(p)))
	if msg == "" {
		return n, err
	}

	switch w.level {
	case LevelError:
		if w.firstInWindow(msg) {
			gosentry.CaptureMessage(msg)
		}
	case LevelWarning:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{Level: gosentry.LevelWarning, Category: "log", Message: msg})
	case LevelInfo:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{Level: gosentry.LevelInfo, Category: "log", Message: msg})
	}
	return n, err
}

// firstInWindow reports whether msg has not been sent within repeatWindow and
// records it as sent.
func (w *Writer) firstInWindow(msg string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	for k, at := range w.sent {
		if now.Sub(at) >= repeatWindow {
			delete(w.sent, k)
		}
	}
	if _, dup := w.sent[msg]; dup {
		return false
	}
	w.sent[msg] = now
	return true
}

// stripLogPrefix drops the "LEVEL: date time file:line: " header written by
// the standard logger so identical messages group into one Sentry issue.
func stripLogPrefix(line string) string {
	idx := strings.Index(line, ".go:")
	if idx < 0 {
		return line
	}
	rest := line[idx+len(".go:"):]
	if colon := strings.Index(rest, ": "); colon >= 0 {
		return strings.TrimSpace(rest[colon+2:])
	}
	return line
}
