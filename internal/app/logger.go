package app

import (
	"io"
	"log/slog"
)

// NewLogger returns a configured slog.Logger based on configuration.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}
