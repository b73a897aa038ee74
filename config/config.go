package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kastheco/tareas/log"
)

const (
	ConfigFileName = "config.json"
	StateFileName  = "state.db"

	defaultAPIURL                 = "http://localhost:8080/api"
	defaultListTimeoutMs          = 6000
	defaultMutationTimeoutMs      = 8000
	defaultPageSize               = 10
	defaultNotificationThrottleMs = 4000
	defaultProbeIntervalMs        = 15000
	defaultExportTimeLayout       = "02/01/2006 15:04"
)

// configDirEnv overrides the configuration directory. Tests and portable
// installs use it.
const configDirEnv = "TAREAS_CONFIG_DIR"

// GetConfigDir returns the path to the application's configuration directory.
// Uses XDG-compliant ~/.config/tareas/ unless TAREAS_CONFIG_DIR is set.
func GetConfigDir() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "tareas"), nil
}

// Config represents the application configuration
type Config struct {
	// APIURL is the root of the task API; task routes live under APIURL/tasks.
	APIURL string `json:"api_url"`
	// ListTimeoutMs bounds list, export and ping requests.
	ListTimeoutMs int `json:"list_timeout_ms"`
	// MutationTimeoutMs bounds create, update and delete requests.
	MutationTimeoutMs int `json:"mutation_timeout_ms"`
	// DefaultPageSize is used until the user picks a page size in the UI.
	DefaultPageSize int `json:"default_page_size"`
	// NotificationThrottleMs suppresses identical info/error toasts within the window.
	NotificationThrottleMs int `json:"notification_throttle_ms"`
	// StateDB is the SQLite file holding preferences, pending notifications
	// and the activity trail. Empty means <config dir>/state.db.
	StateDB string `json:"state_db,omitempty"`
	// AuthToken is sent as a bearer token when set.
	AuthToken string `json:"auth_token,omitempty"`
	// ExportTimeLayout is the Go time layout used for fechaCreacion in exports.
	ExportTimeLayout string `json:"export_time_layout"`
	// TelemetryEnabled controls whether crash reporting via Sentry is active.
	// Defaults to true when not set.
	TelemetryEnabled *bool `json:"telemetry_enabled,omitempty"`
	// ProbeIntervalMs is how often the reachability prober dials the API.
	ProbeIntervalMs int `json:"probe_interval_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL:                 defaultAPIURL,
		ListTimeoutMs:          defaultListTimeoutMs,
		MutationTimeoutMs:      defaultMutationTimeoutMs,
		DefaultPageSize:        defaultPageSize,
		NotificationThrottleMs: defaultNotificationThrottleMs,
		ExportTimeLayout:       defaultExportTimeLayout,
		ProbeIntervalMs:        defaultProbeIntervalMs,
	}
}

// IsTelemetryEnabled returns whether Sentry telemetry is enabled.
// Defaults to true when the field is not set.
func (c *Config) IsTelemetryEnabled() bool {
	if c.TelemetryEnabled == nil {
		return true
	}
	return *c.TelemetryEnabled
}

func millis(ms, fallback int) time.Duration {
	if ms <= 0 {
		ms = fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func (c *Config) ListTimeout() time.Duration {
	return millis(c.ListTimeoutMs, defaultListTimeoutMs)
}

func (c *Config) MutationTimeout() time.Duration {
	return millis(c.MutationTimeoutMs, defaultMutationTimeoutMs)
}

func (c *Config) NotificationThrottle() time.Duration {
	return millis(c.NotificationThrottleMs, defaultNotificationThrottleMs)
}

func (c *Config) ProbeInterval() time.Duration {
	return millis(c.ProbeIntervalMs, defaultProbeIntervalMs)
}

// TimeLayout returns the export time layout, falling back to day/month/year.
func (c *Config) TimeLayout() string {
	if c.ExportTimeLayout == "" {
		return defaultExportTimeLayout
	}
	return c.ExportTimeLayout
}

// StatePath resolves the state database path.
func (c *Config) StatePath() (string, error) {
	if c.StateDB != "" {
		return c.StateDB, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateFileName), nil
}

// LoadConfig reads config.json, creating it with defaults when missing, and
// overlays config.toml on top. Failures are logged and fall back to defaults.
func LoadConfig() *Config {
	configDir, err := GetConfigDir()
	if err != nil {
		log.ErrorLog.Printf("failed to get config directory: %v", err)
		return DefaultConfig()
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create and save default config if file doesn't exist
			defaultCfg := DefaultConfig()
			if saveErr := saveConfig(defaultCfg); saveErr != nil {
				log.WarningLog.Printf("failed to save default config: %v", saveErr)
			}
			return overlayTOML(defaultCfg)
		}

		log.WarningLog.Printf("failed to get config file: %v", err)
		return DefaultConfig()
	}

	// Fields absent from the file keep their defaults.
	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		log.ErrorLog.Printf("failed to parse config file: %v", err)
		return DefaultConfig()
	}

	return overlayTOML(config)
}

// overlayTOML applies config.toml when present; TOML wins for the fields it sets.
func overlayTOML(config *Config) *Config {
	tomlResult, tomlErr := LoadTOMLConfig()
	if tomlErr != nil {
		log.WarningLog.Printf("failed to load TOML config: %v", tomlErr)
		return config
	}
	if tomlResult != nil {
		tomlResult.ApplyTo(config)
	}
	return config
}

// saveConfig saves the configuration to disk
func saveConfig(config *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0644)
}

// SaveConfig exports the saveConfig function for use by other packages
func SaveConfig(config *Config) error {
	return saveConfig(config)
}
