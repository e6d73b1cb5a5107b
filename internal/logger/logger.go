// Package logger builds the slog logger used by a run: text to stderr plus a
// size-rotated log file.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// File is the log file path; empty disables file logging
	File string

	// Level is one of debug, info, warn (warning), error
	Level string

	// JSON switches the console output to JSON
	JSON bool

	// Console receives the console output, os.Stderr when nil
	Console io.Writer
}

// Logger wraps a *slog.Logger with the rotating file it writes to.
type Logger struct {
	*slog.Logger

	file *lumberjack.Logger
}

// New creates a logger from opts.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	l := &Logger{}
	out := console

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}

		out = io.MultiWriter(console, l.file)
	}

	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	if opts.JSON {
		l.Logger = slog.New(slog.NewJSONHandler(out, handlerOpts))
	} else {
		l.Logger = slog.New(slog.NewTextHandler(out, handlerOpts))
	}

	return l, nil
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	return l.file.Close()
}

// ParseLevel maps a level name to a slog level, defaulting to info.
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
