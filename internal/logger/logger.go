package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a JSON logger writing to w at the named level.
// Unknown levels fall back to info.
func New(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	}))
}

// NewDefault builds a JSON logger on stdout
func NewDefault(level string) *slog.Logger {
	return New(os.Stdout, level)
}

// ParseLevel maps debug, info, warn and error onto slog levels
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
