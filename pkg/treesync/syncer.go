// Package treesync makes a replica directory tree an exact mirror of a
// source directory tree, copying only what changed and removing what no
// longer exists in the source, while handling symbolic links, directory
// junctions, and unclassifiable entry kinds.
//
// A pass is single-threaded and synchronous: directories are walked with an
// explicit work stack, one level at a time. Entry-level failures are
// reported through the EventSink and skipped; only the preflight
// preconditions are fatal.
package treesync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/Martian-0007/folder-syncer/pkg/config"
	"github.com/Martian-0007/folder-syncer/pkg/pool"
	"github.com/Martian-0007/folder-syncer/pkg/preflight"
	"github.com/Martian-0007/folder-syncer/pkg/util"
)

// ioBufferSize is the chunk size for file comparison and copying.
const ioBufferSize = 256 * 1024

// folderPair is one unit of traversal work: mirror the entries of src into dst.
type folderPair struct {
	src string
	dst string
}

// Synchronizer performs full mirror passes from the configured source root
// to the replica root. It is not safe for concurrent use; a pass owns the
// replica tree exclusively.
type Synchronizer struct {
	cfg        *config.SyncConfig
	events     EventSink
	metrics    Metrics
	translator *Translator
	comparator *Comparator
	bufs       *pool.FixedBufferPool
}

// New creates a Synchronizer for the given run configuration.
func New(cfg *config.SyncConfig, events EventSink, metrics Metrics) *Synchronizer {
	bufs := pool.NewFixedBuffer(ioBufferSize)
	translator := NewTranslator(cfg.SourceAbs, cfg.Dangling)
	return &Synchronizer{
		cfg:        cfg,
		events:     events,
		metrics:    metrics,
		translator: translator,
		comparator: NewComparator(translator, bufs),
		bufs:       bufs,
	}
}

// Run performs one full synchronization pass. It returns an error only for
// the fatal preconditions; everything else is reported through the event
// sink and skipped. Cancellation is honored before the pass starts; an
// in-flight pass runs to completion (there is no partial-pass checkpoint,
// a resumed run starts a fresh comparison from the root).
func (s *Synchronizer) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Re-checked every pass: the source can vanish between passes.
	if err := preflight.CheckSourceDirectory(s.cfg.SourceAbs); err != nil {
		return err
	}

	// Explicit work stack instead of call recursion: junction targets are
	// user-controlled, so traversal depth must not be bounded by the stack.
	stack := []folderPair{{src: s.cfg.SourceAbs, dst: s.cfg.ReplicaAbs}}
	var visited []folderPair

	for len(stack) > 0 {
		pair := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		stack = append(stack, s.syncOneLevel(pair)...)
		visited = append(visited, pair)
	}

	// Bottom-up metadata propagation: all content below every visited
	// directory is in place now, and reverse processing order stamps
	// children before their parents.
	for i := len(visited) - 1; i >= 0; i-- {
		s.copyDirMetadata(visited[i].src, visited[i].dst)
	}
	return nil
}

// syncOneLevel mirrors a single directory level and returns the child pairs
// to descend into (subdirectories and non-cyclic junctions).
func (s *Synchronizer) syncOneLevel(p folderPair) []folderPair {
	if err := s.ensureDirectory(p); err != nil {
		s.events.Error("failed to prepare replica directory", "path", p.dst, "error", err)
		s.metrics.AddEntriesSkipped(1)
		return nil
	}

	srcEntries, err := listDir(p.src)
	if err != nil {
		s.events.Error("failed to list source directory", "path", p.src, "error", err)
		s.metrics.AddEntriesSkipped(1)
		return nil
	}
	dstEntries, err := listDir(p.dst)
	if err != nil {
		s.events.Error("failed to list replica directory", "path", p.dst, "error", err)
		return nil
	}

	// Removal pass, always before additions: delete every replica entry
	// whose name is absent from the source listing.
	srcNames := mapset.NewThreadUnsafeSet[string]()
	for _, e := range srcEntries {
		srcNames.Add(e.Name)
	}
	dstPresent := make(map[string]struct{}, len(dstEntries))
	for _, d := range dstEntries {
		if !srcNames.Contains(d.Name) {
			s.removeReplica(d.Path)
			continue
		}
		dstPresent[d.Name] = struct{}{}
	}

	// Sync pass: skip equivalent entries, dispatch the rest by kind.
	var children []folderPair
	for _, e := range srcEntries {
		s.metrics.AddEntriesProcessed(1)
		dstPath := filepath.Join(p.dst, e.Name)
		_, present := dstPresent[e.Name]

		if present && s.comparator.IsSame(e, dstPath) {
			s.events.Debug("entry already replicated", "path", e.Path)
			s.metrics.AddEntriesUpToDate(1)
			continue
		}

		switch e.Kind {
		case KindDirectory:
			// Preparation of the child pair deletes any non-directory
			// occupying the name and creates the replica directory.
			children = append(children, folderPair{src: e.Path, dst: dstPath})
		case KindJunction:
			if child := s.handleJunction(e, dstPath); child != nil {
				children = append(children, *child)
			}
		case KindSymlink:
			s.handleSymlink(e, dstPath, present)
		case KindRegularFile:
			s.handleFile(e, dstPath, present)
		default:
			s.handleUnknown(e, dstPath)
		}
	}
	return children
}

// ensureDirectory makes p.dst a real directory: created when missing,
// replaced when a stray file, a link, or a broken link occupies the name.
func (s *Synchronizer) ensureDirectory(p folderPair) error {
	info, err := os.Lstat(p.dst)
	if err == nil {
		if info.Mode()&os.ModeSymlink == 0 && info.IsDir() {
			return nil // already a real directory
		}
		s.removeReplica(p.dst)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to lstat replica directory %s: %w", p.dst, err)
	}

	perm := util.UserWritableDirPerms
	if srcInfo, err := os.Stat(p.src); err == nil {
		perm = util.WithUserWritePermission(srcInfo.Mode().Perm())
	}
	if err := os.MkdirAll(p.dst, perm); err != nil {
		return fmt.Errorf("failed to create replica directory %s: %w", p.dst, err)
	}
	s.events.Create(p.dst)
	s.metrics.AddDirsCreated(1)
	return nil
}

// handleJunction resolves the junction's canonical target once and returns
// the pair to recurse into, or nil when the junction is broken or points
// back into the tree being synchronized.
func (s *Synchronizer) handleJunction(e DirectoryEntry, dstPath string) *folderPair {
	canonical, err := filepath.EvalSymlinks(e.Path)
	if err != nil {
		s.events.Warning("junction target does not exist, skipping", "path", e.Path, "error", err)
		s.removeStale(dstPath)
		return nil
	}

	if pathContains(canonical, s.cfg.SourceAbs) {
		// The target is the source root or one of its ancestors: recursing
		// would mirror the tree into itself without terminating.
		s.events.Warning("junction points back into the synchronized tree, skipping", "path", e.Path, "target", canonical)
		s.removeStale(dstPath)
		return nil
	}

	s.events.Debug("recursing into junction", "path", e.Path, "target", canonical)
	return &folderPair{src: canonical, dst: dstPath}
}

// handleSymlink creates the replica link with the translated target, or
// removes a stale replica copy when the translation yields no valid target.
func (s *Synchronizer) handleSymlink(e DirectoryEntry, dstPath string, stale bool) {
	raw := e.RawTarget
	if raw == "" {
		var err error
		if raw, err = os.Readlink(e.Path); err != nil {
			s.events.Error("failed to read symlink, skipping", "path", e.Path, "error", err)
			s.metrics.AddEntriesSkipped(1)
			return
		}
	}

	target, ok := s.translator.Translate(raw, filepath.Dir(e.Path))
	if !ok {
		// The link may have become dangling between passes, so a stale
		// replica copy has to go even though nothing new is created.
		s.events.Warning("symlink is dangling and policy is drop-dangling, skipping", "path", e.Path, "target", raw)
		s.removeStale(dstPath)
		return
	}

	if stale {
		s.removeReplica(dstPath)
	}

	// os.Symlink picks the file/directory link flavor itself on platforms
	// that distinguish the two, by inspecting the target.
	if err := os.Symlink(target, dstPath); err != nil {
		s.events.Error("failed to create symlink, skipping", "path", dstPath, "target", target, "error", err)
		s.metrics.AddEntriesSkipped(1)
		return
	}
	if err := copyLinkMetadata(e.Path, dstPath); err != nil {
		s.events.Debug("could not copy symlink metadata", "path", dstPath, "error", err)
	}
	s.events.Copy(e.Path, dstPath)
	s.metrics.AddSymlinksCreated(1)
}

// handleFile copies a regular file's contents and metadata.
func (s *Synchronizer) handleFile(e DirectoryEntry, dstPath string, stale bool) {
	if stale {
		s.removeReplica(dstPath)
	}

	if err := s.copyFile(e.Path, dstPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.events.Error("source file vanished before copy, skipping", "path", e.Path)
		} else {
			s.events.Error("failed to copy file, skipping", "path", e.Path, "error", err)
		}
		s.metrics.AddEntriesSkipped(1)
		return
	}
	s.events.Copy(e.Path, dstPath)
	s.metrics.AddFilesCopied(1)
}

// handleUnknown applies the unknown-entry policy: skip with a warning, or
// attempt a content copy with one forced-removal retry on a name collision.
func (s *Synchronizer) handleUnknown(e DirectoryEntry, dstPath string) {
	if s.cfg.Unknown == config.SkipUnknown {
		s.events.Warning("unknown entry kind, skipping", "path", e.Path)
		s.removeStale(dstPath)
		s.metrics.AddEntriesSkipped(1)
		return
	}

	s.events.Warning("unknown entry kind, attempting copy", "path", e.Path)
	err := s.copyUnknown(e.Path, dstPath, true)
	if errors.Is(err, fs.ErrExist) {
		// Name collision with a leftover from a previous pass or an
		// external actor: remove the occupant once and retry.
		s.removeReplica(dstPath)
		err = s.copyUnknown(e.Path, dstPath, false)
	}
	if err != nil {
		s.events.Error("failed to copy unknown entry, skipping", "path", e.Path, "error", err)
		s.metrics.AddEntriesSkipped(1)
		return
	}
	s.events.Copy(e.Path, dstPath)
	s.metrics.AddFilesCopied(1)
}

// copyFile copies contents, permissions and timestamps of a regular file.
func (s *Synchronizer) copyFile(srcPath, dstPath string) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", srcPath, err)
	}

	// The caller has removed any stale occupant, so O_TRUNC only ever hits
	// a leftover regular file from a racing external writer.
	out, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, util.WithUserWritePermission(info.Mode().Perm()))
	if err != nil {
		return fmt.Errorf("failed to open replica file %s: %w", dstPath, err)
	}
	defer out.Close()

	// Explicitly set permissions in case the file already existed.
	if err := out.Chmod(util.WithUserWritePermission(info.Mode().Perm())); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", dstPath, err)
	}

	// Pre-allocate the file size to reduce fragmentation.
	if info.Size() > 0 {
		_ = out.Truncate(info.Size())
	}

	bufPtr := s.bufs.Get()
	defer s.bufs.Put(bufPtr)
	buf := (*bufPtr)[:cap(*bufPtr)]

	written, err := io.CopyBuffer(out, in, buf)
	if err != nil {
		return fmt.Errorf("failed to copy content from %s to %s: %w", srcPath, dstPath, err)
	}
	s.metrics.AddBytesWritten(written)

	// Close before Chtimes: flushing may update the modification time.
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close replica file %s: %w", dstPath, err)
	}
	if err := os.Chtimes(dstPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set timestamps on %s: %w", dstPath, err)
	}
	return nil
}

// copyUnknown copies whatever content the unknown entry yields when read.
// With exclusive set, creation fails with fs.ErrExist when the name is
// already occupied, which drives the caller's single retry.
func (s *Synchronizer) copyUnknown(srcPath, dstPath string, exclusive bool) error {
	in, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open source entry %s: %w", srcPath, err)
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE
	if exclusive {
		flags |= os.O_EXCL
	} else {
		flags |= os.O_TRUNC
	}
	out, err := os.OpenFile(dstPath, flags, util.UserWritableFilePerms)
	if err != nil {
		return fmt.Errorf("failed to create replica entry %s: %w", dstPath, err)
	}
	defer out.Close()

	bufPtr := s.bufs.Get()
	defer s.bufs.Put(bufPtr)
	buf := (*bufPtr)[:cap(*bufPtr)]

	written, err := io.CopyBuffer(out, in, buf)
	if err != nil {
		return fmt.Errorf("failed to copy content from %s to %s: %w", srcPath, dstPath, err)
	}
	s.metrics.AddBytesWritten(written)

	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close replica entry %s: %w", dstPath, err)
	}
	if info, err := os.Lstat(srcPath); err == nil {
		_ = os.Chtimes(dstPath, info.ModTime(), info.ModTime())
	}
	return nil
}

// removeReplica deletes a replica object: recursively for real directories,
// single-object otherwise (RemoveAll does not follow symlinks).
func (s *Synchronizer) removeReplica(path string) {
	if err := os.RemoveAll(path); err != nil {
		s.events.Error("failed to remove replica object", "path", path, "error", err)
		return
	}
	s.events.Remove(path)
	s.metrics.AddRemovals(1)
}

// removeStale removes the replica object only when something actually
// occupies the name, so no Remove event is emitted for a clean slot.
func (s *Synchronizer) removeStale(path string) {
	if _, err := os.Lstat(path); err != nil {
		return
	}
	s.removeReplica(path)
}

// copyDirMetadata stamps mode and modification time of the source directory
// onto the replica directory. Best effort: metadata drift on a directory is
// not worth failing an entry over.
func (s *Synchronizer) copyDirMetadata(srcPath, dstPath string) {
	info, err := os.Stat(srcPath)
	if err != nil {
		s.events.Debug("could not stat source directory for metadata", "path", srcPath, "error", err)
		return
	}
	if err := os.Chmod(dstPath, util.WithUserWritePermission(info.Mode().Perm())); err != nil {
		s.events.Debug("could not set replica directory permissions", "path", dstPath, "error", err)
	}
	if err := os.Chtimes(dstPath, info.ModTime(), info.ModTime()); err != nil {
		s.events.Debug("could not set replica directory times", "path", dstPath, "error", err)
	}
}
