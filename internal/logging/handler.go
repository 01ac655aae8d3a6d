package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Supported log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// NewHandler returns a text or JSON handler writing to w.
func NewHandler(w io.Writer, level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected %s or %s)", format, FormatText, FormatJSON)
	}
}

// New builds a logger from level and format names.
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	h, err := NewHandler(w, lvl, format)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}
