package app

import (
	"fmt"
	"io"
	"log/slog"
)

// newLogger builds the App's own slog.Logger writing to outW. It never
// touches the global logger, so several Apps can log side by side. An empty
// level means info and an empty format means text.
func newLogger(level, format string, outW io.Writer) (*slog.Logger, error) {
	lvl := slog.LevelInfo
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("invalid log level '%s': %w", level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(outW, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(outW, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format '%s': must be 'text' or 'json'", format)
	}
}
