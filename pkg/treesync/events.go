package treesync

import (
	"context"
	"log/slog"

	"github.com/Martian-0007/folder-syncer/pkg/flog"
)

// EventSink receives the discrete, leveled events emitted by the
// synchronizer. The core has no opinion on their destination or rendering;
// production wires a SlogSink, tests wire a recorder.
type EventSink interface {
	// Create reports a replica object that was newly created.
	Create(path string)
	// Copy reports content or link data written from src to dst.
	Copy(src, dst string)
	// Remove reports a replica object that was deleted.
	Remove(path string)
	// Warning reports a guarded no-op or a policy-driven skip.
	Warning(reason string, args ...any)
	// Error reports an entry-level failure that was skipped.
	Error(reason string, args ...any)
	// Debug reports trace-level detail (comparisons, translations).
	Debug(msg string, args ...any)
}

// SlogSink renders events onto a *slog.Logger. Create/Copy/Remove are
// logged at NOTICE so normal operation stays quiet at INFO while still
// leaving a full operation trail at the notice level and in the logfile.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink wraps the given logger as an EventSink.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Create(path string) {
	s.log.Log(context.Background(), flog.LevelNotice, "CREATE", "path", path)
}

func (s *SlogSink) Copy(src, dst string) {
	s.log.Log(context.Background(), flog.LevelNotice, "COPY", "from", src, "to", dst)
}

func (s *SlogSink) Remove(path string) {
	s.log.Log(context.Background(), flog.LevelNotice, "REMOVE", "path", path)
}

func (s *SlogSink) Warning(reason string, args ...any) {
	s.log.Warn(reason, args...)
}

func (s *SlogSink) Error(reason string, args ...any) {
	s.log.Error(reason, args...)
}

func (s *SlogSink) Debug(msg string, args ...any) {
	s.log.Debug(msg, args...)
}

// NoopSink discards every event. Useful for callers that only want the
// metrics summary.
type NoopSink struct{}

func (NoopSink) Create(path string)                 {}
func (NoopSink) Copy(src, dst string)               {}
func (NoopSink) Remove(path string)                 {}
func (NoopSink) Warning(reason string, args ...any) {}
func (NoopSink) Error(reason string, args ...any)   {}
func (NoopSink) Debug(msg string, args ...any)      {}

// Statically assert that our types implement the interface.
var _ EventSink = (*SlogSink)(nil)
var _ EventSink = NoopSink{}
