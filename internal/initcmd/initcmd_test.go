package initcmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/internal/initcmd/wizard"
	"github.com/kastheco/tareas/taskserver"
)

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	assert.False(t, opts.Clean)
}

// TestWritePhase verifies the post-wizard write path: TOML config is written
// and can be loaded back correctly. Does not run the interactive wizard.
func TestWritePhase(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("TAREAS_CONFIG_DIR", configDir)

	existing := &config.TOMLConfig{Export: config.TOMLExport{TimeLayout: "2006-01-02"}}
	state := &wizard.State{
		APIURL:          "http://tasks.lan:8080/api",
		Token:           "tok",
		PageSize:        20,
		ListTimeout:     "4",
		MutationTimeout: "10",
		Telemetry:       true,
	}

	path, err := Write(state, existing)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, "config.toml"), path)
	assert.FileExists(t, path)

	cfg := config.LoadConfig()
	assert.Equal(t, "http://tasks.lan:8080/api", cfg.APIURL)
	assert.Equal(t, "tok", cfg.AuthToken)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 4000, cfg.ListTimeoutMs)
	assert.Equal(t, "2006-01-02", cfg.ExportTimeLayout)
}

func TestCheckAPI(t *testing.T) {
	store, err := taskserver.OpenStore("")
	require.NoError(t, err)
	srv, err := taskserver.Start(store, "127.0.0.1:0")
	require.NoError(t, err)
	defer srv.Stop()

	ctx := context.Background()
	assert.NoError(t, CheckAPI(ctx, &wizard.State{APIURL: srv.APIURL()}))
	assert.Error(t, CheckAPI(ctx, &wizard.State{APIURL: srv.URL() + "/missing"}))
}
