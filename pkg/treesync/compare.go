package treesync

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/Martian-0007/folder-syncer/pkg/pool"
)

// Comparator decides whether a source entry and an already-present replica
// entry are equivalent, so no write is needed. Any read error on either
// side yields "not same": rewriting an entry we could not inspect is always
// safe, skipping one we could not inspect is not.
type Comparator struct {
	translator *Translator
	bufs       *pool.FixedBufferPool
}

// NewComparator creates a comparator sharing the pass's translator and
// buffer pool.
func NewComparator(translator *Translator, bufs *pool.FixedBufferPool) *Comparator {
	return &Comparator{
		translator: translator,
		bufs:       bufs,
	}
}

// IsSame reports whether the replica object at dstPath is equivalent to the
// source entry.
func (c *Comparator) IsSame(e DirectoryEntry, dstPath string) bool {
	switch e.Kind {
	case KindDirectory:
		// Directories are never compared as opaque objects; their contents
		// are compared entry by entry while recursing.
		return false
	case KindSymlink:
		return c.sameSymlink(e, dstPath)
	case KindRegularFile:
		return c.sameFileContents(e.Path, dstPath)
	default:
		// Junctions and unknown kinds are always re-dispatched; the
		// handler decides whether a rewrite is actually necessary.
		return false
	}
}

// sameSymlink compares the replica's raw link target against the expected
// (translated) target of the source link.
func (c *Comparator) sameSymlink(e DirectoryEntry, dstPath string) bool {
	dstTarget, err := os.Readlink(dstPath)
	if err != nil {
		// The replica name exists but is not a readable symlink.
		return false
	}

	raw := e.RawTarget
	if raw == "" {
		if raw, err = os.Readlink(e.Path); err != nil {
			return false
		}
	}

	expected, ok := c.translator.Translate(raw, filepath.Dir(e.Path))
	return ok && dstTarget == expected
}

// sameFileContents performs a full byte-for-byte comparison of the two
// files. Size is checked first to skip the content read when it cannot
// match.
func (c *Comparator) sameFileContents(srcPath, dstPath string) bool {
	dstInfo, err := os.Lstat(dstPath)
	if err != nil || !dstInfo.Mode().IsRegular() {
		return false
	}
	srcInfo, err := os.Stat(srcPath)
	if err != nil || srcInfo.Size() != dstInfo.Size() {
		return false
	}

	srcFile, err := os.Open(srcPath)
	if err != nil {
		return false
	}
	defer srcFile.Close()

	dstFile, err := os.Open(dstPath)
	if err != nil {
		return false
	}
	defer dstFile.Close()

	srcBufPtr := c.bufs.Get()
	defer c.bufs.Put(srcBufPtr)
	dstBufPtr := c.bufs.Get()
	defer c.bufs.Put(dstBufPtr)
	srcBuf := (*srcBufPtr)[:cap(*srcBufPtr)]
	dstBuf := (*dstBufPtr)[:cap(*dstBufPtr)]

	for {
		n1, err1 := io.ReadFull(srcFile, srcBuf)
		n2, err2 := io.ReadFull(dstFile, dstBuf)
		if n1 != n2 || !bytes.Equal(srcBuf[:n1], dstBuf[:n2]) {
			return false
		}

		srcDone := errors.Is(err1, io.EOF) || errors.Is(err1, io.ErrUnexpectedEOF)
		dstDone := errors.Is(err2, io.EOF) || errors.Is(err2, io.ErrUnexpectedEOF)
		if err1 != nil && !srcDone {
			return false
		}
		if err2 != nil && !dstDone {
			return false
		}
		if srcDone || dstDone {
			return srcDone && dstDone
		}
	}
}
