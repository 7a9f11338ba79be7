// Package logging builds the structured loggers used by the commands.
package logging

import (
	"io"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/azybler/chrouter/pkg/config"
)

// Level maps a config level name to a slog level. Unknown names map to Info.
func Level(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a logger writing to w in the configured format.
func New(cfg config.Logging, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
