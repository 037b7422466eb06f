// Package logging backs export.Logger with log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/goliatone/go-visual-export/export"
)

// Config selects the slog handler.
type Config struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

// New builds a slog logger and installs it as the default.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

// SlogLogger adapts a slog logger to export.Logger.
type SlogLogger struct {
	Logger *slog.Logger
}

var _ export.Logger = SlogLogger{}

// NewSlogLogger wraps logger, falling back to slog.Default.
func NewSlogLogger(logger *slog.Logger) SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return SlogLogger{Logger: logger}
}

// With returns a logger carrying extra attributes.
func (l SlogLogger) With(args ...any) SlogLogger {
	return SlogLogger{Logger: l.logger().With(args...)}
}

func (l SlogLogger) Debugf(format string, args ...any) {
	l.logger().Debug(fmt.Sprintf(format, args...))
}

func (l SlogLogger) Infof(format string, args ...any) {
	l.logger().Info(fmt.Sprintf(format, args...))
}

func (l SlogLogger) Errorf(format string, args ...any) {
	l.logger().Error(fmt.Sprintf(format, args...))
}

func (l SlogLogger) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
