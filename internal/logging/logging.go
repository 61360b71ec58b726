/*
Package logging configures structured logging for relver.

Diagnostics go to stderr (text format); stdout is reserved for the
version string itself so the tool stays usable in command substitution.
When a log directory is configured, records are additionally written to
a rotated JSON log file via lumberjack, which is useful when the tool
runs inside CI where stderr scrolls away.
*/
package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	// LogDir is the directory for log files. If empty, file logging is disabled.
	LogDir string
	// Verbose enables DEBUG-level logging. Default is INFO.
	Verbose bool
}

// Setup creates a logger that writes to stderr and optionally to a rotated
// log file. Returns the logger and a cleanup function to close the file.
func Setup(cfg Config) (logger *slog.Logger, cleanup func()) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	stderrHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	if cfg.LogDir == "" {
		return slog.New(stderrHandler), func() {}
	}

	if err := os.MkdirAll(cfg.LogDir, 0o750); err != nil { //nolint:gosec // log directory
		// Fall back to stderr-only if we can't create the directory.
		slog.New(stderrHandler).Warn("failed to create log directory, file logging disabled",
			"dir", cfg.LogDir,
			"error", err,
		)
		return slog.New(stderrHandler), func() {}
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "relver.log"),
		MaxSize:    5, // MB per file
		MaxBackups: 2,
		MaxAge:     14, // days to retain
		Compress:   true,
	}

	fileHandler := slog.NewJSONHandler(lj, &slog.HandlerOptions{
		Level: level,
	})

	multi := &multiHandler{
		handlers: []slog.Handler{stderrHandler, fileHandler},
	}

	cleanup = func() {
		_ = lj.Close()
	}

	return slog.New(multi), cleanup
}

// multiHandler fans out log records to multiple slog.Handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}
