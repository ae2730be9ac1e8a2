// Package config loads the pool core daemon's YAML configuration file,
// the ambient concern spec.md §1 names as an external collaborator
// ("configuration parsing") accessed only through a documented
// interface. Absence of a config file is not an error: Load falls back
// to Default.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConnectorConfig configures the miner-facing TCP listener (C6).
type ConnectorConfig struct {
	// ListenAddr is host:port for the miner-facing socket. Defaults to
	// ":3333" per spec.md §6.
	ListenAddr string `yaml:"listen_addr"`

	// ControlSocket is the path to the local control-channel socket.
	ControlSocket string `yaml:"control_socket"`

	// BindRetries and BindRetryDelaySeconds implement spec.md §6's
	// retry-on-bind policy (25 attempts, 5s apart, give up after ~2 minutes).
	BindRetries           int `yaml:"bind_retries"`
	BindRetryDelaySeconds int `yaml:"bind_retry_delay_seconds"`
}

// StoreConfig configures the in-memory accounting store's optional
// hydration source (C11).
type StoreConfig struct {
	// HydrateDBPath is an optional path to a SQLite snapshot replayed at
	// startup through the store's insertion API. Empty means skip
	// hydration entirely — this core owns no persisted state of its own
	// (spec.md §6).
	HydrateDBPath string `yaml:"hydrate_db_path"`
}

// StatsFeedConfig configures the admin WebSocket stats broadcaster (C12).
type StatsFeedConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the pool core daemon's full configuration.
type Config struct {
	LogLevel  string `yaml:"log_level"`
	DataDir   string `yaml:"data_dir"`

	Connector ConnectorConfig `yaml:"connector"`
	Store     StoreConfig     `yaml:"store"`
	StatsFeed StatsFeedConfig `yaml:"stats_feed"`
}

// Default returns a Config with the same defaults spec.md §6 documents:
// listen on all interfaces at port 3333, 25 bind retries 5s apart.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  "./data",
		Connector: ConnectorConfig{
			ListenAddr:            ":3333",
			ControlSocket:         "./data/control.sock",
			BindRetries:           25,
			BindRetryDelaySeconds: 5,
		},
		Store: StoreConfig{
			HydrateDBPath: "",
		},
		StatsFeed: StatsFeedConfig{
			Enabled:    false,
			ListenAddr: ":3334",
		},
	}
}

// Load reads a YAML config file at path, overlaying it onto Default. A
// missing file is not an error — the daemon runs on defaults alone, per
// spec.md's "configuration parsing" Non-goal.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
