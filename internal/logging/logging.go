// Package logging configures slog and carries per-request loggers.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps debug, info, warn or error to a slog level.
// An empty name returns def.
func ParseLevel(name string, def slog.Level) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return def, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return def, fmt.Errorf("unknown log level %q", name)
}

// Setup installs the default logger. Dev mode writes text at debug level,
// otherwise JSON at info; a non-empty level overrides the default.
func Setup(w io.Writer, devMode bool, level string) error {
	def := slog.LevelInfo
	if devMode {
		def = slog.LevelDebug
	}
	lvl, err := ParseLevel(level, def)
	if err != nil {
		return err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if devMode {
		h = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(h).With("service", "fluent-comments"))
	return nil
}
