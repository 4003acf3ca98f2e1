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
	// StorePath is the path to Cursor's state.vscdb. Empty means the
	// platform default under the user config directory.
	StorePath string

	// APIBaseURL is the base URL of the Cursor API.
	APIBaseURL string

	// DashboardURL is opened by the "open dashboard" action.
	DashboardURL string

	// RefreshInterval is how often usage data is refetched.
	RefreshInterval time.Duration

	// SpendAlertDollars triggers a desktop notification when today's
	// spend first crosses this amount. Zero disables the alert.
	SpendAlertDollars float64
}

// Default values
const (
	defaultAPIBaseURL      = "https://cursor.com"
	defaultDashboardURL    = "https://cursor.com/dashboard?tab=usage"
	defaultRefreshInterval = 60 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StorePath:         getEnvString("CURSOR_DB_PATH", ""),
		APIBaseURL:        getEnvString("CURSOR_API_BASE_URL", defaultAPIBaseURL),
		DashboardURL:      getEnvString("DASHBOARD_URL", defaultDashboardURL),
		RefreshInterval:   getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		SpendAlertDollars: getEnvFloat("SPEND_ALERT_DOLLARS", 0),
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory locations
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "cursor-usage-tui", ".env"),
			filepath.Join(home, ".cursor-usage", ".env"),
		)
	}

	return paths
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

// getEnvFloat retrieves a float environment variable or returns the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
