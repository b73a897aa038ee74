package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/notify"
)

func newTestToastManager() *ToastManager {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	tm := NewToastManager(&s)
	tm.SetSize(120, 40)
	return tm
}

func shown(id, msg string, kind notify.Kind) notify.Event {
	return notify.Event{Type: notify.EventShown, Notification: notify.Notification{ID: id, Message: msg, Kind: kind}}
}

// settleToasts ticks until nothing animates, failing after a generous bound.
func settleToasts(t *testing.T, tm *ToastManager) int {
	t.Helper()
	for i := 1; i <= 200; i++ {
		tm.Tick()
		if !tm.Animating() {
			return i
		}
	}
	t.Fatal("toasts never settled")
	return 0
}

func TestToastManager_SlidesInFromTheRight(t *testing.T) {
	tm := newTestToastManager()
	tm.Apply(shown("n-1", "Task created.", notify.KindSuccess))

	startX, y := tm.GetPosition()
	assert.Equal(t, 1, y)
	assert.Greater(t, startX, 120-MinToastWidth-4, "starts off to the right")

	ticks := settleToasts(t, tm)
	assert.Greater(t, ticks, 1, "the slide takes more than one frame")

	x, _ := tm.GetPosition()
	assert.Equal(t, 120-MinToastWidth-4, x)
	assert.Contains(t, ansi.Strip(tm.View()), "✓ Task created.")
}

func TestToastManager_RemovedSlidesOutThenDrops(t *testing.T) {
	tm := newTestToastManager()
	tm.Apply(shown("n-1", "bye", notify.KindInfo))
	settleToasts(t, tm)

	tm.Apply(notify.Event{Type: notify.EventRemoved, Notification: notify.Notification{ID: "n-1"}, Reason: notify.ReasonExpired})
	assert.True(t, tm.HasActiveToasts(), "still visible while sliding out")
	settleToasts(t, tm)
	assert.False(t, tm.HasActiveToasts())
	assert.Empty(t, tm.View())
}

func TestToastManager_ReplacedUpdatesInPlace(t *testing.T) {
	tm := newTestToastManager()
	tm.Apply(shown("sync", "Syncing…", notify.KindInfo))
	tm.Apply(notify.Event{Type: notify.EventReplaced, Notification: notify.Notification{
		ID: "sync", Message: "Could not reach the server.", Kind: notify.KindError, Title: "Sync",
	}})

	out := ansi.Strip(tm.View())
	assert.Contains(t, out, "✗ Could not reach the server.")
	assert.Contains(t, out, "Sync")
	assert.NotContains(t, out, "Syncing")
}

func TestToastManager_ShownTwiceKeepsOneToast(t *testing.T) {
	tm := newTestToastManager()
	tm.Apply(shown("n-1", "one", notify.KindInfo))
	tm.Apply(shown("n-1", "one again", notify.KindInfo))
	assert.Equal(t, 1, strings.Count(ansi.Strip(tm.View()), "╭"))
}

func TestToastManager_PausedShowsMarker(t *testing.T) {
	tm := newTestToastManager()
	ev := shown("n-1", "hold on", notify.KindInfo)
	ev.Notification.Paused = true
	tm.Apply(ev)
	assert.Contains(t, ansi.Strip(tm.View()), "⏸ hold on")
}

func TestToastManager_LoadingUntilResolved(t *testing.T) {
	tm := newTestToastManager()
	id := tm.Loading("Exporting…")
	require.NotEmpty(t, id)

	for range 50 {
		tm.Tick()
	}
	assert.True(t, tm.Animating(), "loading toasts keep the spinner ticking")
	assert.Contains(t, ansi.Strip(tm.View()), "Exporting…")

	tm.Resolve(id)
	settleToasts(t, tm)
	assert.False(t, tm.HasActiveToasts())
}

func TestCalcToastWidth(t *testing.T) {
	assert.Equal(t, MinToastWidth, calcToastWidth("", "hi"))
	assert.Equal(t, MaxToastWidth, calcToastWidth("", strings.Repeat("x", 200)))
	assert.Equal(t, 2+1+40+4, calcToastWidth(strings.Repeat("t", 40), "short"))
}
