package connectivity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProber_SignalsTransitions(t *testing.T) {
	m := NewMonitor()
	var pingErr error
	var retries int
	m.SetRetry(func(context.Context) error {
		retries++
		m.RecordSuccess()
		return nil
	})

	p := NewProber(func(context.Context) error { return pingErr }, m, 0)
	ctx := context.Background()

	p.Check(ctx)
	assert.False(t, m.Blocked())

	pingErr = netErr
	p.Check(ctx)
	assert.True(t, m.Blocked())
	p.Check(ctx)
	assert.Zero(t, retries)

	pingErr = nil
	p.Check(ctx)
	assert.Equal(t, 1, retries)
	assert.False(t, m.Blocked())
}

func TestProber_ServerErrorCountsAsReachable(t *testing.T) {
	m := NewMonitor()
	p := NewProber(func(context.Context) error { return serverErr }, m, 0)
	p.Check(context.Background())
	assert.False(t, m.Blocked())
}
