// Package flog configures the application-wide structured logger.
//
// Console output is split by level: NOTICE and below go to stdout (colored
// via tint when attached to a terminal), WARN and above go to stderr. When a
// logfile is configured, every level is additionally written to a rotating
// file so a long-running mirror keeps a full audit trail.
//
// The synchronization core does not use this package directly; it emits
// events through an explicit sink (see treesync.EventSink) so tests can
// capture them without process-wide logging state.
package flog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LevelNotice sits between INFO and WARN. It is used for the per-entry
// Create/Copy/Remove operations so they can be surfaced without enabling
// full debug tracing.
const LevelNotice = slog.Level(2)

// Options controls logger initialization.
type Options struct {
	Level   slog.Level
	LogFile string // optional rotating logfile; empty disables file output
	NoColor bool
}

var defaultLogger *slog.Logger

func init() {
	// Sensible default until Init is called (e.g. in tests of other packages).
	defaultLogger = slog.New(newConsoleHandler(os.Stdout, os.Stderr, slog.LevelInfo, true))
}

// Init configures the global logger from the given options.
func Init(opts Options) {
	noColor := opts.NoColor || !isatty.IsTerminal(os.Stdout.Fd())
	handlers := []slog.Handler{
		newConsoleHandler(os.Stdout, os.Stderr, opts.Level, noColor),
	}

	if opts.LogFile != "" {
		fileHandler := slog.NewTextHandler(&lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    10, // MiB
			MaxBackups: 3,
			MaxAge:     28, // days
		}, &slog.HandlerOptions{
			Level:       slog.LevelDebug, // the file always gets everything
			ReplaceAttr: replaceLevelNames,
		})
		handlers = append(handlers, fileHandler)
	}

	defaultLogger = slog.New(&multiHandler{handlers: handlers})
}

// Logger returns the configured *slog.Logger for components that take an
// explicit logger instead of calling the package-level functions.
func Logger() *slog.Logger {
	return defaultLogger
}

// SetOutput redirects all log output to w, primarily for testing.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       slog.LevelDebug,
		ReplaceAttr: replaceLevelNames,
	}))
}

// LevelFromString maps a user-supplied level name to a slog.Level.
// Unknown names fall back to INFO.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "notice":
		return LevelNotice
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// replaceLevelNames renders the custom NOTICE level with its own name
// instead of slog's default "INFO+2".
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelNotice {
			a.Value = slog.StringValue("NOTICE")
		}
	}
	return a
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Notice logs an operational message (file copied, entry removed, ...).
func Notice(msg string, args ...any) {
	defaultLogger.Log(context.Background(), LevelNotice, msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}
