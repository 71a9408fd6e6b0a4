package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setHome(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("HOME", dir)
	// Keep env overrides out of the way.
	for _, key := range []string{
		"STRUAI_API_KEY", "STRUAI_BASE_URL", "STRUAI_PAGE_CACHE",
		"STRUAI_LOG_FILE", "STRUAI_LOG_LEVEL", "STRUAI_TIMEOUT",
		"STRUAI_MAX_RETRIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setHome(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoadFromFile(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	yaml := `api_key: file-key
base_url: https://api.example.com
timeout_seconds: 120
max_retries: 0
page_cache_dir: /tmp/pages
log_level: debug
`
	if err := os.WriteFile(filepath.Join(home, ".struai.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIKey != "file-key" {
		t.Errorf("APIKey = %q, want file-key", cfg.APIKey)
	}
	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 120*time.Second {
		t.Errorf("Timeout = %v, want 120s", cfg.Timeout)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0 (explicit zero from file)", cfg.MaxRetries)
	}
	if cfg.PageCacheDir != "/tmp/pages" {
		t.Errorf("PageCacheDir = %q", cfg.PageCacheDir)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	yaml := "api_key: file-key\ntimeout_seconds: 120\n"
	if err := os.WriteFile(filepath.Join(home, ".struai.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STRUAI_API_KEY", "env-key")
	t.Setenv("STRUAI_TIMEOUT", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.APIKey)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	setHome(t, t.TempDir())

	t.Setenv("STRUAI_TIMEOUT", "not-a-number")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid STRUAI_TIMEOUT")
	}
	t.Setenv("STRUAI_TIMEOUT", "")

	t.Setenv("STRUAI_MAX_RETRIES", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative STRUAI_MAX_RETRIES")
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := t.TempDir()
	setHome(t, home)

	if err := os.WriteFile(filepath.Join(home, ".struai.yaml"), []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
