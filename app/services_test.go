package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/config/kvstore"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/taskserver"
)

// recordingNotifier collects engine messages the way the CLI prints them.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recordingNotifier) Post(msg string, _ notify.Kind, _ time.Duration, _ ...notify.Option) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return ""
}

func TestOpenServices_SQLiteState(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StateDB = filepath.Join(t.TempDir(), "nested", "state.db")
	cfg.DefaultPageSize = 20

	svc, err := OpenServices(cfg, Interactive())
	require.NoError(t, err)
	assert.NotNil(t, svc.Center)
	assert.NotNil(t, svc.Broker)
	assert.Equal(t, 20, svc.Engine.State().PageSize)
	require.NoError(t, svc.Prefs.SavePageSize(50))
	svc.Close()

	svc, err = OpenServices(cfg)
	require.NoError(t, err)
	defer svc.Close()
	assert.Nil(t, svc.Center, "non-interactive services have no toasts")
	assert.Nil(t, svc.Broker)
	assert.Equal(t, 50, svc.Engine.State().PageSize, "page size restored from the state db")
}

func TestOpenServices_NonInteractiveDeletesWithoutPrompt(t *testing.T) {
	store, err := taskserver.OpenStore("")
	require.NoError(t, err)
	srv, err := taskserver.Start(store, "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Stop()

	ctx := context.Background()
	created, err := store.Create(ctx, task.Task{Description: "Comprar pan", Priority: task.PriorityAlta})
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.APIURL = srv.APIURL()
	notifier := &recordingNotifier{}
	audit, err := auditlog.NewSQLiteLogger(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)

	svc, err := OpenServices(cfg,
		WithStore(kvstore.NewMemoryStore()),
		WithAudit(audit),
		WithNotifier(notifier),
	)
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Engine.Refresh(ctx, false))
	require.NoError(t, svc.Engine.DeleteTask(ctx, created.ID))

	notifier.mu.Lock()
	assert.NotEmpty(t, notifier.msgs)
	notifier.mu.Unlock()

	events, err := audit.Query(auditlog.QueryFilter{Kinds: []auditlog.EventKind{auditlog.EventTaskDeleted}})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, SourceCLI, events[0].Source)
}

func TestServices_HooksReceiveChanges(t *testing.T) {
	cfg := config.DefaultConfig()
	svc, err := OpenServices(cfg, Interactive(),
		WithStore(kvstore.NewMemoryStore()), WithAudit(auditlog.NopLogger()))
	require.NoError(t, err)
	defer svc.Close()

	changes := 0
	svc.OnChange(func() { changes++ })
	svc.Engine.SetSearchNow("pan")
	assert.Positive(t, changes)

	var queues []any
	svc.OnPrompt(func(q broker.Queue) { queues = append(queues, q) })
	fut := svc.Broker.RequestEdit(1, "x")
	cur, _ := svc.Broker.CurrentEdit()
	svc.Broker.CancelEdit(cur.Seq)
	_, _ = fut.Wait(context.Background())
	assert.NotEmpty(t, queues)
}
