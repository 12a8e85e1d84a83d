package treesync

import (
	"fmt"
	"os"
	"path/filepath"
)

// EntryKind classifies a listed filesystem object. Classification never
// follows symlinks: a symlink to a directory is a Symlink, not a Directory.
type EntryKind int

const (
	KindDirectory EntryKind = iota
	KindJunction
	KindSymlink
	KindRegularFile
	KindOther
)

var entryKindNames = map[EntryKind]string{
	KindDirectory:   "directory",
	KindJunction:    "junction",
	KindSymlink:     "symlink",
	KindRegularFile: "file",
	KindOther:       "other",
}

func (k EntryKind) String() string {
	if s, ok := entryKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// DirectoryEntry is one listed filesystem object. Entries are created fresh
// each time a directory is listed and discarded after the listing is
// consumed; they are never cached across passes.
type DirectoryEntry struct {
	// Name is the final path component.
	Name string
	// Path is the full path as listed.
	Path string
	// Kind is the classified entry kind.
	Kind EntryKind
	// RawTarget holds the unresolved link target text for symlinks.
	RawTarget string
}

// classifyEntry determines the kind of a single directory entry from its
// lstat metadata. Junctions (directory reparse points) are checked before
// symlinks because the platform may report them with overlapping mode bits.
func classifyEntry(path string, info os.FileInfo) DirectoryEntry {
	e := DirectoryEntry{
		Name: filepath.Base(path),
		Path: path,
	}

	mode := info.Mode()
	switch {
	case isJunction(path, info):
		e.Kind = KindJunction
	case mode&os.ModeSymlink != 0:
		e.Kind = KindSymlink
		// Best effort: a raw target we cannot read now is re-read (and the
		// failure handled) by the symlink handler.
		if target, err := os.Readlink(path); err == nil {
			e.RawTarget = target
		}
	case mode.IsDir():
		e.Kind = KindDirectory
	case mode.IsRegular():
		e.Kind = KindRegularFile
	default:
		// Named pipes, sockets, devices, and anything else lstat cannot
		// place in the taxonomy above.
		e.Kind = KindOther
	}
	return e
}

// listDir lists a directory and classifies every entry. The returned slice
// is in directory order, not sorted.
func listDir(dir string) ([]DirectoryEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list directory %s: %w", dir, err)
	}

	entries := make([]DirectoryEntry, 0, len(dirents))
	for _, d := range dirents {
		path := filepath.Join(dir, d.Name())
		info, err := d.Info()
		if err != nil {
			// The entry vanished between ReadDir and Info. Listing is not
			// the place to decide policy; return it as Other and let the
			// handler run into the (re-checked) error.
			entries = append(entries, DirectoryEntry{Name: d.Name(), Path: path, Kind: KindOther})
			continue
		}
		entries = append(entries, classifyEntry(path, info))
	}
	return entries, nil
}
