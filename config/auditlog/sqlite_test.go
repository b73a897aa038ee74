package auditlog_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/config/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLogger_EmitAndQuery(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.NewEvent(auditlog.EventTaskCreated, "Buy milk",
		auditlog.WithTask(7), auditlog.WithSource("tui")))

	events, err := logger.Query(auditlog.QueryFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, auditlog.EventTaskCreated, events[0].Kind)
	assert.Equal(t, int64(7), events[0].TaskID)
	assert.Equal(t, "tui", events[0].Source)
	assert.Equal(t, "info", events[0].Level)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestSQLiteLogger_QueryFilterByTask(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskCompleted, TaskID: 1})
	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskCompleted, TaskID: 2})

	events, err := logger.Query(auditlog.QueryFilter{TaskID: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSQLiteLogger_QueryFilterByKindAndSource(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskDeleted, Source: "cli"})
	logger.Emit(auditlog.Event{Kind: auditlog.EventMutationFailed, Source: "cli"})
	logger.Emit(auditlog.Event{Kind: auditlog.EventMutationFailed, Source: "tui"})

	events, err := logger.Query(auditlog.QueryFilter{
		Source: "cli",
		Kinds:  []auditlog.EventKind{auditlog.EventMutationFailed},
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, auditlog.EventMutationFailed, events[0].Kind)
}

func TestSQLiteLogger_QueryOrderDesc(t *testing.T) {
	logger, err := auditlog.NewSQLiteLogger(":memory:")
	require.NoError(t, err)
	defer logger.Close()

	ts := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskCreated, Message: "first", Timestamp: ts})
	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskDeleted, Message: "second", Timestamp: ts.Add(500 * time.Millisecond)})
	logger.Emit(auditlog.Event{Kind: auditlog.EventTaskDeleted, Message: "third", Timestamp: ts.Add(2 * time.Second)})

	events, err := logger.Query(auditlog.QueryFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, []string{"third", "second", "first"}, []string{events[0].Message, events[1].Message, events[2].Message})

	events, err = logger.Query(auditlog.QueryFilter{After: ts, Before: ts.Add(time.Second)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "second", events[0].Message)
}

func TestSQLiteLogger_SharedDB(t *testing.T) {
	// The activity log shares the client state database with the kv store.
	dbPath := filepath.Join(t.TempDir(), "state.db")

	store, err := kvstore.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	logger, err := auditlog.NewSQLiteLogger(dbPath)
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, store.Set(kvstore.KeyTheme, "dark"))
	logger.Emit(auditlog.Event{Kind: auditlog.EventExported, Message: "csv"})
	events, err := logger.Query(auditlog.QueryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
