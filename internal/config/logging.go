package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger builds the CLI logger: human-readable text on stderr plus,
// when logFile is set, a JSON stream suitable for ingestion. Every record
// is tagged with the app name so struai lines stay filterable in shared
// log files. The returned cleanup closes the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}
	stderrHandler := slog.NewTextHandler(os.Stderr, opts)

	if logFile == "" {
		return tagged(slog.New(stderrHandler)), func() error { return nil }
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return tagged(slog.New(stderrHandler)), func() error { return nil }
	}

	fileHandler := slog.NewJSONHandler(file, opts)
	logger := tagged(slog.New(slogmulti.Fanout(stderrHandler, fileHandler)))

	return logger, file.Close
}

// SetupLoggerWithWriters builds the same dual-output logger over custom
// writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	stderrHandler := slog.NewTextHandler(stderr, opts)
	fileHandler := slog.NewJSONHandler(file, opts)
	return tagged(slog.New(slogmulti.Fanout(stderrHandler, fileHandler)))
}

func tagged(l *slog.Logger) *slog.Logger {
	return l.With(slog.String("app", "struai"))
}
