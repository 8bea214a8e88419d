// Package logger configures the slog diagnostics stream shared by all commands.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a level name to slog.Level. The empty string and
// "notset" mean the level was not chosen explicitly.
func ParseLevel(level string) (slog.Level, bool, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "notset":
		return slog.LevelWarn, false, nil
	case "debug":
		return slog.LevelDebug, true, nil
	case "info":
		return slog.LevelInfo, true, nil
	case "warn", "warning":
		return slog.LevelWarn, true, nil
	case "error", "critical":
		return slog.LevelError, true, nil
	default:
		return slog.LevelWarn, false, fmt.Errorf("unknown log level %q", level)
	}
}

// ResolveLevel applies the command-line precedence: --veryverbose, then
// --verbose, then an explicit --loglevel, then the fallback.
func ResolveLevel(level string, verbose, veryVerbose bool, fallback slog.Level) (slog.Level, error) {
	parsed, explicit, err := ParseLevel(level)
	if err != nil {
		return fallback, err
	}
	switch {
	case veryVerbose:
		return slog.LevelDebug, nil
	case verbose:
		return slog.LevelInfo, nil
	case explicit:
		return parsed, nil
	default:
		return fallback, nil
	}
}

// New returns a text logger writing to w (stderr when nil).
func New(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Discard is a logger that drops everything; handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
