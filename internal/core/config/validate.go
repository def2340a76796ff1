package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/hay-kot/countdown/internal/core/timer"
)

// ValidateDeep performs comprehensive validation of the configuration including
// key naming, the history time layout, and file accessibility. The configPath
// argument specifies the config file location to validate (empty string skips
// config file check). This calls Validate() first for basic structural
// validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateKeys(),
		c.validateTimeFormat(),
	)
}

// validateFileAccess checks the config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	var errs criterio.FieldErrorsBuilder

	if err := validateConfigFile(configPath); err != nil {
		errs = errs.Append("config_file", err)
	}
	if err := isDirectoryOrNotExist(c.DataDir); err != nil {
		errs = errs.Append("data_dir", err)
	}

	return errs.ToError()
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", configPath)
	}
	return nil
}

func isDirectoryOrNotExist(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// validateKeys rejects keys the file backend cannot map to a file name and
// keys that collide with corrupt-data backups.
func (c *Config) validateKeys() error {
	var errs criterio.FieldErrorsBuilder

	keys := map[string]string{
		"storage.timers_key":  c.Storage.TimersKey,
		"storage.history_key": c.Storage.HistoryKey,
	}
	for _, field := range []string{"storage.timers_key", "storage.history_key"} {
		key := keys[field]
		if strings.ContainsAny(key, `/\`) {
			errs = errs.Append(field, fmt.Errorf("key %q cannot contain path separators", key))
		}
		if strings.Contains(key, timer.BackupMarker) {
			errs = errs.Append(field, fmt.Errorf("key %q is reserved for corrupt-data backups", key))
		}
	}

	if strings.ContainsAny(c.Storage.Namespace, `/\`) {
		errs = errs.Append("storage.namespace", fmt.Errorf("namespace %q cannot contain path separators", c.Storage.Namespace))
	}

	return errs.ToError()
}

// validateTimeFormat checks that the layout actually formats a time value.
func (c *Config) validateTimeFormat() error {
	ref := time.Date(1999, 11, 28, 7, 33, 44, 0, time.UTC)
	if ref.Format(c.History.TimeFormat) == c.History.TimeFormat {
		return criterio.NewFieldErrors("history.time_format",
			fmt.Errorf("layout %q contains no time directives", c.History.TimeFormat))
	}
	return nil
}
