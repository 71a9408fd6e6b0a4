package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestDualOutputLogger(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("ingest queued", "job_id", "j-1")
	logger.Debug("suppressed below level")

	if !strings.Contains(stderr.String(), "ingest queued") {
		t.Errorf("stderr output missing message: %q", stderr.String())
	}
	if strings.Contains(stderr.String(), "suppressed") {
		t.Error("debug record should be filtered at info level")
	}

	var record map[string]any
	if err := json.Unmarshal(file.Bytes(), &record); err != nil {
		t.Fatalf("file output is not JSON: %v", err)
	}
	if record["msg"] != "ingest queued" {
		t.Errorf("file msg = %v", record["msg"])
	}
	if record["job_id"] != "j-1" {
		t.Errorf("file job_id = %v", record["job_id"])
	}
	if record["app"] != "struai" {
		t.Errorf("file app tag = %v, want struai", record["app"])
	}
}

func TestSetupLoggerStderrOnly(t *testing.T) {
	logger, cleanup := SetupLogger("", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected a logger")
	}
	if err := cleanup(); err != nil {
		t.Errorf("cleanup: %v", err)
	}
}
