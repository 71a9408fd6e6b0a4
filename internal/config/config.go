// Package config loads CLI configuration from the environment and an
// optional ~/.struai.yaml file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// API connection
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int

	// Local page-raster cache used by crop
	PageCacheDir string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig mirrors the optional ~/.struai.yaml. Environment variables
// win over file values.
type fileConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	TimeoutSecs  int    `yaml:"timeout_seconds"`
	MaxRetries   *int   `yaml:"max_retries"`
	PageCacheDir string `yaml:"page_cache_dir"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads configuration from ~/.struai.yaml, then overlays environment
// variables. A missing config file is not an error; a malformed one is.
func Load() (Config, error) {
	cfg := Config{
		Timeout:    60 * time.Second,
		MaxRetries: 2,
		LogLevel:   slog.LevelInfo,
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".struai.yaml")
		if data, err := os.ReadFile(path); err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
			cfg.applyFile(fc)
		}
	}

	cfg.APIKey = getEnv("STRUAI_API_KEY", cfg.APIKey)
	cfg.BaseURL = getEnv("STRUAI_BASE_URL", cfg.BaseURL)
	cfg.PageCacheDir = getEnv("STRUAI_PAGE_CACHE", cfg.PageCacheDir)
	cfg.LogFile = getEnv("STRUAI_LOG_FILE", cfg.LogFile)
	if v := os.Getenv("STRUAI_LOG_LEVEL"); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv("STRUAI_TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return Config{}, fmt.Errorf("invalid STRUAI_TIMEOUT %q", v)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("STRUAI_MAX_RETRIES"); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil || retries < 0 {
			return Config{}, fmt.Errorf("invalid STRUAI_MAX_RETRIES %q", v)
		}
		cfg.MaxRetries = retries
	}

	return cfg, nil
}

func (c *Config) applyFile(fc fileConfig) {
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.TimeoutSecs > 0 {
		c.Timeout = time.Duration(fc.TimeoutSecs) * time.Second
	}
	if fc.MaxRetries != nil && *fc.MaxRetries >= 0 {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.PageCacheDir != "" {
		c.PageCacheDir = fc.PageCacheDir
	}
	if fc.LogFile != "" {
		c.LogFile = fc.LogFile
	}
	if fc.LogLevel != "" {
		c.LogLevel = parseLogLevel(fc.LogLevel)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
