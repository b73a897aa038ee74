package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/taskserver"
)

func TestMain(m *testing.M) {
	log.Initialize(false)
	defer log.Close()
	os.Exit(m.Run())
}

type cliEnv struct {
	store taskserver.Store
	cfg   *config.Config
}

// newCLIEnv starts an in-memory task server seeded with descs and returns a
// config pointing at it with a private state database.
func newCLIEnv(t *testing.T, descs ...string) *cliEnv {
	t.Helper()
	store, err := taskserver.OpenStore("")
	require.NoError(t, err)
	srv, err := taskserver.Start(store, "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	for i, d := range descs {
		p := task.Priorities[i%len(task.Priorities)]
		_, err := store.Create(context.Background(), task.Task{Description: d, Priority: p})
		require.NoError(t, err)
	}

	cfg := config.DefaultConfig()
	cfg.APIURL = srv.APIURL()
	cfg.StateDB = filepath.Join(t.TempDir(), "state.db")
	return &cliEnv{store: store, cfg: cfg}
}

// run executes args against a root carrying the task commands and returns
// stdout and stderr.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := &cobra.Command{Use: "tareas", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(NewTaskCommands(func() *config.Config { return e.cfg })...)

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliEnv) tasks(t *testing.T) []task.Task {
	t.Helper()
	tasks, err := e.store.List(context.Background(), "", "")
	require.NoError(t, err)
	return tasks
}

func (e *cliEnv) find(t *testing.T, desc string) task.Task {
	t.Helper()
	for _, tk := range e.tasks(t) {
		if tk.Description == desc {
			return tk
		}
	}
	t.Fatalf("task %q not found", desc)
	return task.Task{}
}

func TestList_Table(t *testing.T) {
	env := newCLIEnv(t, "comprar pan", "llamar a Ana")

	out, _, err := env.run(t, "list")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "descripcion")
	assert.Contains(t, out, "comprar pan")
	assert.Contains(t, out, "llamar a Ana")
	assert.Contains(t, out, "○")
}

func TestList_EmptyAndSearch(t *testing.T) {
	env := newCLIEnv(t, "comprar pan", "llamar a Ana")

	out, _, err := env.run(t, "list", "--search", "PAN")
	require.NoError(t, err)
	assert.Contains(t, out, "comprar pan")
	assert.NotContains(t, out, "llamar a Ana")

	out, _, err = env.run(t, "list", "--search", "nada")
	require.NoError(t, err)
	assert.Equal(t, "No hay tareas.\n", out)
}

func TestList_JSONSortedByPriority(t *testing.T) {
	env := newCLIEnv(t, "alta", "media", "baja")

	out, _, err := env.run(t, "list", "--format", "json", "--sort", "prioridad", "--order", "desc")
	require.NoError(t, err)

	var got []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, task.PriorityAlta, got[0].Priority)
	assert.Equal(t, task.PriorityBaja, got[2].Priority)
}

func TestList_RejectsUnknownSortKey(t *testing.T) {
	env := newCLIEnv(t, "uno")
	_, _, err := env.run(t, "list", "--sort", "color")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sort key")
}

func TestAdd_CreatesTask(t *testing.T) {
	env := newCLIEnv(t)

	_, stderr, err := env.run(t, "add", "regar", "las", "plantas", "--priority", "alta")
	require.NoError(t, err)
	assert.Contains(t, stderr, "✓")

	got := env.find(t, "regar las plantas")
	assert.Equal(t, task.PriorityAlta, got.Priority)
	assert.False(t, got.Completed)
}

func TestAdd_DuplicateFails(t *testing.T) {
	env := newCLIEnv(t, "regar las plantas")

	_, stderr, err := env.run(t, "add", "Regar las plantas ")
	require.Error(t, err)
	assert.Contains(t, stderr, "✗")
	assert.Len(t, env.tasks(t), 1)
}

func TestAdd_InvalidPriority(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "add", "algo", "--priority", "urgente")
	require.Error(t, err)
	assert.Empty(t, env.tasks(t))
}

func TestDone_SingleAndBatch(t *testing.T) {
	env := newCLIEnv(t, "uno", "dos", "tres")
	uno, dos, tres := env.find(t, "uno"), env.find(t, "dos"), env.find(t, "tres")

	_, _, err := env.run(t, "done", "#"+itoa(uno.ID))
	require.NoError(t, err)
	assert.True(t, env.find(t, "uno").Completed)

	_, _, err = env.run(t, "done", itoa(dos.ID), itoa(tres.ID))
	require.NoError(t, err)
	assert.True(t, env.find(t, "dos").Completed)
	assert.True(t, env.find(t, "tres").Completed)

	_, _, err = env.run(t, "done", "--undo", itoa(uno.ID))
	require.NoError(t, err)
	assert.False(t, env.find(t, "uno").Completed)
}

func TestDone_InvalidID(t *testing.T) {
	env := newCLIEnv(t, "uno")
	_, _, err := env.run(t, "done", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid task id")
}

func TestRename(t *testing.T) {
	env := newCLIEnv(t, "uno", "dos")
	uno := env.find(t, "uno")

	_, _, err := env.run(t, "rename", itoa(uno.ID), "uno", "bis")
	require.NoError(t, err)
	assert.Equal(t, "uno bis", env.find(t, "uno bis").Description)

	_, _, err = env.run(t, "rename", itoa(uno.ID), "DOS")
	require.Error(t, err)
	assert.Equal(t, uno.ID, env.find(t, "uno bis").ID)
}

func TestPriority_Batch(t *testing.T) {
	env := newCLIEnv(t, "uno", "dos")
	uno, dos := env.find(t, "uno"), env.find(t, "dos")

	_, _, err := env.run(t, "priority", "Baja", itoa(uno.ID), itoa(dos.ID))
	require.NoError(t, err)
	assert.Equal(t, task.PriorityBaja, env.find(t, "uno").Priority)
	assert.Equal(t, task.PriorityBaja, env.find(t, "dos").Priority)
}

func TestRm_WithoutTerminalNeedsYes(t *testing.T) {
	env := newCLIEnv(t, "uno", "dos", "tres")
	uno, dos := env.find(t, "uno"), env.find(t, "dos")

	_, _, err := env.run(t, "rm", itoa(uno.ID))
	require.Error(t, err)
	assert.Len(t, env.tasks(t), 3)

	_, _, err = env.run(t, "rm", "--yes", itoa(uno.ID), itoa(dos.ID))
	require.NoError(t, err)
	remaining := env.tasks(t)
	require.Len(t, remaining, 1)
	assert.Equal(t, "tres", remaining[0].Description)
}

func TestExport_ToFileAndStdout(t *testing.T) {
	env := newCLIEnv(t, "uno", "dos")
	t.Chdir(t.TempDir())

	_, stderr, err := env.run(t, "export", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Exported to tareas-")

	matches, err := filepath.Glob("tareas-*.csv")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "uno")

	out, _, err := env.run(t, "export", "--format", "json", "--server", "-o", "-")
	require.NoError(t, err)
	var got []task.Task
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 2)
}

func TestExport_ServerRejectsMarkdown(t *testing.T) {
	env := newCLIEnv(t, "uno")
	_, _, err := env.run(t, "export", "--server", "--format", "md", "-o", "-")
	require.Error(t, err)
}

func TestHistory_RecordsCLIActivity(t *testing.T) {
	env := newCLIEnv(t, "uno")

	out, _, err := env.run(t, "history")
	require.NoError(t, err)
	assert.Equal(t, "Sin actividad.\n", out)

	_, _, err = env.run(t, "done", itoa(env.find(t, "uno").ID))
	require.NoError(t, err)

	out, _, err = env.run(t, "history", "--source", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "task_completed")
	assert.Contains(t, out, "cli")
}

func TestList_MarkdownWithoutTerminalIsPlain(t *testing.T) {
	env := newCLIEnv(t, "uno")

	out, _, err := env.run(t, "list", "-f", "md")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "| | ID |"))
	assert.Contains(t, out, "| [ ] |")
}

func TestWriteTable_Truncates(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	writeTable(&buf, []task.Task{{
		ID:          7,
		Description: strings.Repeat("x", 90),
		Priority:    task.PriorityAlta,
		Completed:   true,
		CreatedAt:   task.NewTimestamp(now.Add(-2 * time.Hour)),
	}}, now)

	out := buf.String()
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "…")
	assert.Contains(t, out, "2 hours ago")
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestImport_CreatesAndSkips(t *testing.T) {
	env := newCLIEnv(t, "uno")
	path := filepath.Join(t.TempDir(), "lista.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"descripcion": "UNO", "prioridad": "Alta"},
		{"title": "dos", "priority": "high", "completed": true}
	]`), 0o644))

	out, _, err := env.run(t, "import", path)
	require.NoError(t, err)
	assert.Equal(t, "Imported 1, skipped 1\n", out)

	dos := env.find(t, "dos")
	assert.Equal(t, task.PriorityAlta, dos.Priority)
	assert.True(t, dos.Completed)

	out, _, err = env.run(t, "history", "--source", "cli")
	require.NoError(t, err)
	assert.Contains(t, out, "imported")
}

func TestImport_MissingFile(t *testing.T) {
	env := newCLIEnv(t)
	_, _, err := env.run(t, "import", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
