package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const TOMLConfigFileName = "config.toml"

// TOMLConfig is the hand-edited overlay. Only keys present in the file
// override config.json.
type TOMLConfig struct {
	API       TOMLAPI       `toml:"api"`
	UI        TOMLUI        `toml:"ui"`
	Export    TOMLExport    `toml:"export"`
	State     TOMLState     `toml:"state"`
	Telemetry TOMLTelemetry `toml:"telemetry"`
}

type TOMLAPI struct {
	URL               string `toml:"url,omitempty"`
	Token             string `toml:"token,omitempty"`
	ListTimeoutMs     int    `toml:"list_timeout_ms,omitempty"`
	MutationTimeoutMs int    `toml:"mutation_timeout_ms,omitempty"`
	ProbeIntervalMs   int    `toml:"probe_interval_ms,omitempty"`
}

type TOMLUI struct {
	DefaultPageSize        int `toml:"default_page_size,omitempty"`
	NotificationThrottleMs int `toml:"notification_throttle_ms,omitempty"`
}

type TOMLExport struct {
	TimeLayout string `toml:"time_layout,omitempty"`
}

type TOMLState struct {
	DB string `toml:"db,omitempty"`
}

type TOMLTelemetry struct {
	Enabled *bool `toml:"enabled,omitempty"`
}

// ApplyTo copies every set field of t onto c.
func (t *TOMLConfig) ApplyTo(c *Config) {
	if t.API.URL != "" {
		c.APIURL = t.API.URL
	}
	if t.API.Token != "" {
		c.AuthToken = t.API.Token
	}
	if t.API.ListTimeoutMs > 0 {
		c.ListTimeoutMs = t.API.ListTimeoutMs
	}
	if t.API.MutationTimeoutMs > 0 {
		c.MutationTimeoutMs = t.API.MutationTimeoutMs
	}
	if t.API.ProbeIntervalMs > 0 {
		c.ProbeIntervalMs = t.API.ProbeIntervalMs
	}
	if t.UI.DefaultPageSize > 0 {
		c.DefaultPageSize = t.UI.DefaultPageSize
	}
	if t.UI.NotificationThrottleMs > 0 {
		c.NotificationThrottleMs = t.UI.NotificationThrottleMs
	}
	if t.Export.TimeLayout != "" {
		c.ExportTimeLayout = t.Export.TimeLayout
	}
	if t.State.DB != "" {
		c.StateDB = t.State.DB
	}
	if t.Telemetry.Enabled != nil {
		c.TelemetryEnabled = t.Telemetry.Enabled
	}
}

// LoadTOMLConfig loads config.toml from the config directory. It returns
// (nil, nil) when the file does not exist.
func LoadTOMLConfig() (*TOMLConfig, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	tc, err := LoadTOMLConfigFrom(filepath.Join(dir, TOMLConfigFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return tc, err
}

// LoadTOMLConfigFrom parses the TOML file at path. Unknown keys are rejected
// so typos surface instead of being silently ignored.
func LoadTOMLConfigFrom(path string) (*TOMLConfig, error) {
	var tc TOMLConfig
	meta, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return &tc, nil
}

// SaveTOMLConfig writes tc to config.toml in the config directory.
func SaveTOMLConfig(tc *TOMLConfig) error {
	dir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOMLConfigTo(tc, filepath.Join(dir, TOMLConfigFileName))
}

// SaveTOMLConfigTo writes tc to path.
func SaveTOMLConfigTo(tc *TOMLConfig, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tc); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
