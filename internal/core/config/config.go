// Package config handles configuration loading and validation for countdown.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hay-kot/countdown/internal/core/styles"
	"github.com/hay-kot/countdown/internal/core/timer"
)

// Backend selects where timers and history are persisted.
type Backend string

const (
	BackendSQLite Backend = "sqlite"
	BackendFile   Backend = "file"
)

// IsValid reports whether b names a supported backend.
func (b Backend) IsValid() bool {
	switch b {
	case BackendSQLite, BackendFile:
		return true
	default:
		return false
	}
}

// Config holds the application configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	History  HistoryConfig  `yaml:"history"`
	Database DatabaseConfig `yaml:"database"`
	Display  DisplayConfig  `yaml:"display"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// StorageConfig names the two logical collections and the backend holding them.
type StorageConfig struct {
	Backend    Backend `yaml:"backend"`
	TimersKey  string  `yaml:"timers_key"`
	HistoryKey string  `yaml:"history_key"`
	Namespace  string  `yaml:"namespace"` // optional key prefix
}

// HistoryConfig controls how completions are recorded.
type HistoryConfig struct {
	TimeFormat string `yaml:"time_format"` // Go time layout
}

// DisplayConfig controls terminal output.
type DisplayConfig struct {
	Theme    string `yaml:"theme"`     // built-in palette name
	BarWidth int    `yaml:"bar_width"` // progress bar cells
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			TimersKey:  timer.DefaultTimersKey,
			HistoryKey: timer.DefaultHistoryKey,
		},
		History: HistoryConfig{
			TimeFormat: timer.DefaultTimeFormat,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
		Display: DisplayConfig{
			Theme:    styles.DefaultTheme,
			BarWidth: 20,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.TimersKey == "" {
		c.Storage.TimersKey = defaults.Storage.TimersKey
	}
	if c.Storage.HistoryKey == "" {
		c.Storage.HistoryKey = defaults.Storage.HistoryKey
	}
	if c.History.TimeFormat == "" {
		c.History.TimeFormat = defaults.History.TimeFormat
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
	if c.Display.Theme == "" {
		c.Display.Theme = defaults.Display.Theme
	}
	if c.Display.BarWidth == 0 {
		c.Display.BarWidth = defaults.Display.BarWidth
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if !c.Storage.Backend.IsValid() {
		return fmt.Errorf("storage.backend %q is not one of sqlite, file", c.Storage.Backend)
	}

	if c.Storage.TimersKey == c.Storage.HistoryKey {
		return fmt.Errorf("storage.timers_key and storage.history_key must differ (both %q)", c.Storage.TimersKey)
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}

	if _, ok := styles.GetPalette(c.Display.Theme); !ok {
		return fmt.Errorf("display.theme %q is not one of %s", c.Display.Theme, strings.Join(styles.ThemeNames(), ", "))
	}

	return nil
}

// Keys returns the storage keys for the timer store.
func (c *Config) Keys() timer.Keys {
	return timer.Keys{
		Timers:  c.Storage.TimersKey,
		History: c.Storage.HistoryKey,
	}
}

// DatabaseFile returns the path to the SQLite database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "countdown.db")
}

// StoreDir returns the directory used by the file backend.
func (c *Config) StoreDir() string {
	return filepath.Join(c.DataDir, "store")
}
