package sentry

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWriter_DisabledPassthrough(t *testing.T) {
	enabled = false
	var buf bytes.Buffer
	w := NewWriter(&buf, LevelError)

	msg := []byte("ERROR:2026/10/16 10:00:00 engine.go:120: list: request took too long\n")
	n, err := w.Write(msg)

	assert.NoError(t, err)
	assert.Equal(t, len(msg), n)
	assert.Equal(t, string(msg), buf.String())
}

func TestWriter_FirstInWindow(t *testing.T) {
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	w := NewWriter(&bytes.Buffer{}, LevelError)
	w.now = func() time.Time { return now }

	assert.True(t, w.firstInWindow("list: connection refused"))
	assert.False(t, w.firstInWindow("list: connection refused"))
	assert.True(t, w.firstInWindow("create: 500 boom"))

	now = now.Add(repeatWindow)
	assert.True(t, w.firstInWindow("list: connection refused"))
	assert.Len(t, w.sent, 1)
}

func TestStripLogPrefix(t *testing.T) {
	line := "ERROR:2026/10/16 10:00:00 engine.go:120: refresh failed: timeout"
	assert.Equal(t, "refresh failed: timeout", stripLogPrefix(line))
	assert.Equal(t, "plain message", stripLogPrefix("plain message"))
}
