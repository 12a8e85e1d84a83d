package flog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// consoleHandler is a slog.Handler that writes log records to different
// handlers based on the record's level: NOTICE and below go to stdout,
// WARN and above go to stderr.
type consoleHandler struct {
	stdoutHandler slog.Handler
	stderrHandler slog.Handler
}

func newConsoleHandler(stdout, stderr io.Writer, level slog.Level, noColor bool) *consoleHandler {
	return &consoleHandler{
		stdoutHandler: tint.NewHandler(stdout, &tint.Options{
			Level:       level,
			TimeFormat:  time.DateTime,
			NoColor:     noColor,
			ReplaceAttr: replaceLevelNames,
		}),
		stderrHandler: tint.NewHandler(stderr, &tint.Options{
			Level:       slog.LevelWarn,
			TimeFormat:  time.DateTime,
			NoColor:     noColor,
			ReplaceAttr: replaceLevelNames,
		}),
	}
}

// Enabled checks if the level is enabled for either of the underlying handlers.
func (h *consoleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.stdoutHandler.Enabled(ctx, level) || h.stderrHandler.Enabled(ctx, level)
}

// Handle dispatches the record to the appropriate handler.
func (h *consoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		return h.stderrHandler.Handle(ctx, r)
	}
	return h.stdoutHandler.Handle(ctx, r)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		stdoutHandler: h.stdoutHandler.WithAttrs(attrs),
		stderrHandler: h.stderrHandler.WithAttrs(attrs),
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	return &consoleHandler{
		stdoutHandler: h.stdoutHandler.WithGroup(name),
		stderrHandler: h.stderrHandler.WithGroup(name),
	}
}

// multiHandler fans a record out to every handler that has its level enabled.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, r.Level) {
			if err := hh.Handle(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		hs[i] = hh.WithAttrs(attrs)
	}
	return &multiHandler{handlers: hs}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		hs[i] = hh.WithGroup(name)
	}
	return &multiHandler{handlers: hs}
}
