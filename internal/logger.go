package internal

import (
	"io"
	"log/slog"
	"strings"
)

// ServiceName tags every log record.
const ServiceName = "equipcheck"

// ParseLogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NewLogger writes human-readable text in development and JSON elsewhere.
// Debug-level loggers also record the source position.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	lvl := ParseLogLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug && env != "development",
	}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if env == "development" {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", ServiceName)
}
