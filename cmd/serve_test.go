package cmd

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/taskserver"
)

func TestStartServer_ImportsLegacyFile(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "tareas.json")
	require.NoError(t, os.WriteFile(legacy, []byte(`[
		{"id": 1, "descripcion": "comprar pan", "prioridad": "Alta", "completada": false, "fechaCreacion": "2024-05-01T10:00:00.000Z"},
		{"id": 2, "descripcion": "  ", "prioridad": "Media", "completada": false, "fechaCreacion": "2024-05-01T10:00:00.000Z"}
	]`), 0o644))

	var out bytes.Buffer
	srv, err := startServer(context.Background(), ServeOptions{
		Addr:   "127.0.0.1:0",
		DSN:    filepath.Join(dir, "tareas.db"),
		Import: legacy,
	}, &out)
	require.NoError(t, err)
	defer srv.Stop()

	assert.Contains(t, out.String(), "Imported 1 tasks")
	tasks, err := srv.Store().List(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "comprar pan", tasks[0].Description)
}

func TestStartServer_RequiresTokenWithSecret(t *testing.T) {
	var out bytes.Buffer
	srv, err := startServer(context.Background(), ServeOptions{
		Addr:   "127.0.0.1:0",
		Secret: "s3cret",
		Prefix: taskserver.DefaultPrefix,
	}, &out)
	require.NoError(t, err)
	defer srv.Stop()

	resp, err := http.Get(srv.APIURL() + "/tasks")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := executeToken("s3cret", "tests", time.Hour, clock.Real())
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.APIURL()+"/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestExecuteServe_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var out bytes.Buffer
	go func() {
		done <- executeServe(ctx, ServeOptions{Addr: "127.0.0.1:0"}, &out)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
}

func TestExecuteServe_BadAddress(t *testing.T) {
	err := executeServe(context.Background(), ServeOptions{Addr: "not-an-address"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "listen"))
}

func TestExecuteToken(t *testing.T) {
	_, err := executeToken("", "x", time.Hour, clock.Real())
	require.Error(t, err)

	fake := clock.NewFake(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC))
	tok, err := executeToken("s3cret", "cli", time.Hour, fake)
	require.NoError(t, err)

	subject, err := taskserver.NewAuthenticator([]byte("s3cret"), fake).Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "cli", subject)

	fake.Advance(2 * time.Hour)
	_, err = taskserver.NewAuthenticator([]byte("s3cret"), fake).Verify(tok)
	assert.Error(t, err)
}
