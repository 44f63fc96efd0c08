// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	StoragePath  string
	BudgetsPath  string
	PollInterval time.Duration
	SettleDelay  time.Duration
	PruneMaxAge  time.Duration
}

// Default values
const (
	defaultPollInterval = 2 * time.Second
	defaultSettleDelay  = 300 * time.Millisecond
	defaultPruneMaxAge  = 90 * 24 * time.Hour
)

// Load reads configuration from .env files and environment variables.
// Nothing here is required: every value has a working default.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StoragePath:  getEnvString("OPENCODE_STORAGE_PATH", getDefaultStoragePath()),
		BudgetsPath:  getEnvString("OPENCODE_USAGE_BUDGETS", getDefaultBudgetsPath()),
		PollInterval: getEnvDuration("OPENCODE_USAGE_POLL_INTERVAL", defaultPollInterval),
		SettleDelay:  getEnvDuration("OPENCODE_USAGE_SETTLE_DELAY", defaultSettleDelay),
		PruneMaxAge:  getEnvDuration("OPENCODE_USAGE_PRUNE_MAX_AGE", defaultPruneMaxAge),
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "opencode", "usage-tui", ".env"),
			filepath.Join(home, ".config", "opencode", ".env"),
		)
	}

	return paths
}

// getDefaultStoragePath returns the default opencode storage root.
func getDefaultStoragePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "opencode", "storage")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "storage"
	}
	return filepath.Join(home, ".local", "share", "opencode", "storage")
}

// getDefaultBudgetsPath returns the default budgets/limits config file path.
func getDefaultBudgetsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "budgets.yaml"
	}
	return filepath.Join(home, ".config", "opencode", "usage-tui", "budgets.yaml")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
