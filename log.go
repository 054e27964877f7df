package fskit

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the structured logger described by cfg, writing to
// stderr. A nil cfg yields an info-level text logger.
func NewLogger(cfg *Config) *slog.Logger {
	return newLogger(os.Stderr, cfg)
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	level, format := "info", "text"
	if cfg != nil {
		level, format = cfg.LogLevel, cfg.LogFormat
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
