package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/broker"
)

func TestBridge_CoalescesEngineChanges(t *testing.T) {
	b := newBridge()
	b.push(engineChangedMsg{})
	b.push(engineChangedMsg{})
	b.push(promptChangedMsg{queue: broker.QueueEdit})
	b.push(engineChangedMsg{})

	msgs := b.drain()
	require.Len(t, msgs, 3)
	assert.Equal(t, engineChangedMsg{}, msgs[0])
	assert.Equal(t, promptChangedMsg{queue: broker.QueueEdit}, msgs[1])
	assert.Equal(t, engineChangedMsg{}, msgs[2])
	assert.Empty(t, b.drain())
}

func TestBridge_WaitDeliversQueuedMessages(t *testing.T) {
	b := newBridge()
	defer b.close()

	got := make(chan any, 1)
	go func() { got <- b.wait()() }()

	b.push(engineChangedMsg{})
	select {
	case msg := <-got:
		require.IsType(t, bridgeMsg{}, msg)
		assert.Len(t, msg.(bridgeMsg).msgs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("wait never returned")
	}
}

func TestBridge_PushNeverBlocks(t *testing.T) {
	b := newBridge()
	done := make(chan struct{})
	go func() {
		for range 1000 {
			b.push(promptChangedMsg{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("push blocked without a reader")
	}
	assert.Len(t, b.drain(), 1000)
}

func TestBridge_CloseReleasesWait(t *testing.T) {
	b := newBridge()
	got := make(chan any, 1)
	go func() { got <- b.wait()() }()

	b.close()
	b.close()
	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("wait not released by close")
	}
}
