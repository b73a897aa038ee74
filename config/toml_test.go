package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTOMLConfig(t *testing.T) {
	t.Run("parses every section", func(t *testing.T) {
		tmpDir := t.TempDir()
		tomlPath := filepath.Join(tmpDir, "config.toml")

		content := `
[api]
url = "http://tasks.lan:8080/api"
token = "secret"
list_timeout_ms = 2500
mutation_timeout_ms = 9000
probe_interval_ms = 30000

[ui]
default_page_size = 20
notification_throttle_ms = 1000

[export]
time_layout = "2006-01-02 15:04"

[state]
db = "/var/lib/tareas/state.db"

[telemetry]
enabled = false
`
		require.NoError(t, os.WriteFile(tomlPath, []byte(content), 0o644))

		tc, err := LoadTOMLConfigFrom(tomlPath)
		require.NoError(t, err)

		config := DefaultConfig()
		tc.ApplyTo(config)
		assert.Equal(t, "http://tasks.lan:8080/api", config.APIURL)
		assert.Equal(t, "secret", config.AuthToken)
		assert.Equal(t, 2500, config.ListTimeoutMs)
		assert.Equal(t, 9000, config.MutationTimeoutMs)
		assert.Equal(t, 30000, config.ProbeIntervalMs)
		assert.Equal(t, 20, config.DefaultPageSize)
		assert.Equal(t, 1000, config.NotificationThrottleMs)
		assert.Equal(t, "2006-01-02 15:04", config.ExportTimeLayout)
		assert.Equal(t, "/var/lib/tareas/state.db", config.StateDB)
		assert.False(t, config.IsTelemetryEnabled())
	})

	t.Run("empty file changes nothing", func(t *testing.T) {
		tomlPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(tomlPath, nil, 0o644))

		tc, err := LoadTOMLConfigFrom(tomlPath)
		require.NoError(t, err)
		config := DefaultConfig()
		tc.ApplyTo(config)
		assert.Equal(t, DefaultConfig(), config)
	})

	t.Run("returns error on missing file", func(t *testing.T) {
		_, err := LoadTOMLConfigFrom("/nonexistent/config.toml")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing file in config dir is not an error", func(t *testing.T) {
		t.Setenv(configDirEnv, t.TempDir())
		tc, err := LoadTOMLConfig()
		assert.NoError(t, err)
		assert.Nil(t, tc)
	})

	t.Run("returns error on invalid TOML", func(t *testing.T) {
		tmpDir := t.TempDir()
		tomlPath := filepath.Join(tmpDir, "config.toml")
		err := os.WriteFile(tomlPath, []byte("[invalid toml\n"), 0o644)
		require.NoError(t, err)

		_, err = LoadTOMLConfigFrom(tomlPath)
		assert.Error(t, err)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		tomlPath := filepath.Join(t.TempDir(), "config.toml")
		require.NoError(t, os.WriteFile(tomlPath, []byte("[api]\nulr = \"typo\"\n"), 0o644))

		_, err := LoadTOMLConfigFrom(tomlPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api.ulr")
	})
}

func TestSaveTOMLConfig(t *testing.T) {
	t.Run("round-trips through save and load", func(t *testing.T) {
		tmpDir := t.TempDir()
		tomlPath := filepath.Join(tmpDir, "config.toml")

		off := false
		original := &TOMLConfig{
			API:       TOMLAPI{URL: "http://x/api", ListTimeoutMs: 1234},
			UI:        TOMLUI{DefaultPageSize: 50},
			Telemetry: TOMLTelemetry{Enabled: &off},
		}

		err := SaveTOMLConfigTo(original, tomlPath)
		require.NoError(t, err)

		loaded, err := LoadTOMLConfigFrom(tomlPath)
		require.NoError(t, err)

		assert.Equal(t, original.API, loaded.API)
		assert.Equal(t, 50, loaded.UI.DefaultPageSize)
		require.NotNil(t, loaded.Telemetry.Enabled)
		assert.False(t, *loaded.Telemetry.Enabled)
	})

	t.Run("saves into the config dir", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cfg")
		t.Setenv(configDirEnv, dir)

		require.NoError(t, SaveTOMLConfig(&TOMLConfig{Export: TOMLExport{TimeLayout: "15:04"}}))
		tc, err := LoadTOMLConfig()
		require.NoError(t, err)
		require.NotNil(t, tc)
		assert.Equal(t, "15:04", tc.Export.TimeLayout)
	})
}
