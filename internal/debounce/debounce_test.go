package debounce

import (
	"testing"
	"time"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestDebouncer_LaterTriggerCancelsEarlier(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	d := New(c, 0)

	var got []string
	d.Trigger(func() { got = append(got, "a") })
	c.Advance(100 * time.Millisecond)
	d.Trigger(func() { got = append(got, "ab") })
	c.Advance(100 * time.Millisecond)
	assert.Empty(t, got, "window restarts on every trigger")
	assert.True(t, d.Pending())

	c.Advance(60 * time.Millisecond)
	assert.Equal(t, []string{"ab"}, got)
	assert.False(t, d.Pending())
}

func TestDebouncer_Cancel(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	d := New(c, 50*time.Millisecond)

	fired := false
	d.Trigger(func() { fired = true })
	assert.True(t, d.Cancel())
	assert.False(t, d.Cancel())
	c.Advance(time.Second)
	assert.False(t, fired)
}
