package taskserver

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/log"
)

func TestMain(m *testing.M) {
	log.Initialize(false)
	defer log.Close()
	os.Exit(m.Run())
}

var epoch = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// newTestStore creates an in-memory SQLStore on a fake clock. It registers a
// cleanup function to close the store when the test completes.
func newTestStore(t *testing.T) (*SQLStore, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(epoch)
	store, err := NewSQLiteStore(":memory:", WithClock(fake))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, fake
}
