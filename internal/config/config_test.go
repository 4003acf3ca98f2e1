package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, defaultAPIBaseURL)
	}
	if cfg.DashboardURL != defaultDashboardURL {
		t.Errorf("DashboardURL = %q, want %q", cfg.DashboardURL, defaultDashboardURL)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.SpendAlertDollars != 0 {
		t.Errorf("SpendAlertDollars = %v, want 0", cfg.SpendAlertDollars)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CURSOR_DB_PATH", "/tmp/state.vscdb")
	t.Setenv("CURSOR_API_BASE_URL", "http://localhost:9999")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("SPEND_ALERT_DOLLARS", "25.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.StorePath != "/tmp/state.vscdb" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.APIBaseURL != "http://localhost:9999" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.SpendAlertDollars != 25.5 {
		t.Errorf("SpendAlertDollars = %v", cfg.SpendAlertDollars)
	}
}

func TestGetEnvDurationBareSeconds(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "90")

	if got := getEnvDuration("REFRESH_INTERVAL", time.Minute); got != 90*time.Second {
		t.Errorf("getEnvDuration = %v, want 90s", got)
	}
}

func TestGetEnvDurationInvalid(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "soon")

	if got := getEnvDuration("REFRESH_INTERVAL", time.Minute); got != time.Minute {
		t.Errorf("getEnvDuration = %v, want fallback 1m", got)
	}
}
