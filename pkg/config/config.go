// Package config holds the immutable per-run configuration of the
// synchronizer. A SyncConfig is built once at startup, validated, and then
// treated as read-only by every component.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Martian-0007/folder-syncer/pkg/util"
)

// DanglingPolicy decides what happens to symlinks whose target does not
// exist on disk.
type DanglingPolicy int

const (
	// DropDangling skips dangling symlinks entirely; no replica link is
	// created and a stale replica copy is removed. This is the default.
	DropDangling DanglingPolicy = iota
	// KeepDangling replicates dangling symlinks with their raw target
	// unchanged, deliberately creating an identical dangling link.
	KeepDangling
)

var danglingPolicyNames = map[DanglingPolicy]string{
	DropDangling: "drop-dangling",
	KeepDangling: "keep-dangling",
}

var danglingPolicyValues = util.InvertMap(danglingPolicyNames)

func (p DanglingPolicy) String() string {
	if s, ok := danglingPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("DanglingPolicy(%d)", int(p))
}

// DanglingPolicyFromString parses a policy name as given on the command line.
func DanglingPolicyFromString(s string) (DanglingPolicy, error) {
	if p, ok := danglingPolicyValues[s]; ok {
		return p, nil
	}
	return DropDangling, fmt.Errorf("unknown dangling-symlink policy %q (want 'keep-dangling' or 'drop-dangling')", s)
}

// UnknownPolicy decides what happens to directory entries whose kind cannot
// be classified (sockets, devices, fifos, ...).
type UnknownPolicy int

const (
	// AttemptCopy tries a full content copy of the unknown entry, with one
	// forced-removal retry when the destination name is already occupied.
	// This is the default.
	AttemptCopy UnknownPolicy = iota
	// SkipUnknown logs a warning and leaves no replica object.
	SkipUnknown
)

var unknownPolicyNames = map[UnknownPolicy]string{
	AttemptCopy: "attempt-copy",
	SkipUnknown: "skip",
}

var unknownPolicyValues = util.InvertMap(unknownPolicyNames)

func (p UnknownPolicy) String() string {
	if s, ok := unknownPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("UnknownPolicy(%d)", int(p))
}

// UnknownPolicyFromString parses a policy name as given on the command line.
func UnknownPolicyFromString(s string) (UnknownPolicy, error) {
	if p, ok := unknownPolicyValues[s]; ok {
		return p, nil
	}
	return AttemptCopy, fmt.Errorf("unknown unknown-entry policy %q (want 'attempt-copy' or 'skip')", s)
}

// SyncConfig is the immutable per-run configuration.
type SyncConfig struct {
	// Source and Replica are the paths as given by the user.
	Source  string
	Replica string

	// SourceAbs and ReplicaAbs are the canonical absolute roots used for
	// every containment and cycle check.
	SourceAbs  string
	ReplicaAbs string

	Interval time.Duration
	Count    int

	Dangling DanglingPolicy
	Unknown  UnknownPolicy

	LogFile  string
	LogLevel string
}

// New builds a SyncConfig from user input, expanding and canonicalizing the
// two roots. The source is canonicalized through filepath.EvalSymlinks; the
// replica may not exist yet, in which case its cleaned absolute path is used.
func New(source, replica string, interval time.Duration, count int) (*SyncConfig, error) {
	if count < 1 {
		return nil, fmt.Errorf("sync count must be at least 1, got %d", count)
	}
	if interval < 0 {
		return nil, fmt.Errorf("sync interval must not be negative, got %s", interval)
	}

	sourceAbs, err := canonicalize(source, true)
	if err != nil {
		return nil, fmt.Errorf("invalid source path %q: %w", source, err)
	}
	replicaAbs, err := canonicalize(replica, false)
	if err != nil {
		return nil, fmt.Errorf("invalid replica path %q: %w", replica, err)
	}

	return &SyncConfig{
		Source:     source,
		Replica:    replica,
		SourceAbs:  sourceAbs,
		ReplicaAbs: replicaAbs,
		Interval:   interval,
		Count:      count,
	}, nil
}

// canonicalize expands, absolutizes and (when the path exists) fully
// resolves a root path. mustResolve requires the path to exist.
func canonicalize(path string, mustResolve bool) (string, error) {
	expanded, err := util.ExpandPath(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if mustResolve {
			return "", err
		}
		// The replica may legitimately not exist before the first pass.
		return abs, nil
	}
	return resolved, nil
}
