//go:build unix

package treesync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/Martian-0007/folder-syncer/pkg/config"
)

func TestRunSkipsFifoWithSkipPolicy(t *testing.T) {
	tmp := canonicalTempDir(t)
	src := filepath.Join(tmp, "src")
	dst := filepath.Join(tmp, "replica")

	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, unix.Mkfifo(filepath.Join(src, "pipe"), 0o644))
	// Stale replica object under the same name must still be cleaned up.
	writeFile(t, filepath.Join(dst, "pipe"), "stale")

	cfg := newTestConfig(t, src, dst)
	cfg.Unknown = config.SkipUnknown
	sink := runPass(t, cfg)

	_, err := os.Lstat(filepath.Join(dst, "pipe"))
	assert.True(t, os.IsNotExist(err), "skip policy must leave no replica object")
	assert.NotEmpty(t, sink.warnings)
	assert.Empty(t, sink.errors)
}

func TestListDirClassifiesFifoAsOther(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, unix.Mkfifo(filepath.Join(root, "pipe"), 0o644))

	entries, err := listDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, KindOther, entries[0].Kind)
}

func TestCopyLinkMetadataSetsLinkTimes(t *testing.T) {
	root := canonicalTempDir(t)
	writeFile(t, filepath.Join(root, "target.txt"), "x")

	srcLink := filepath.Join(root, "src-link")
	dstLink := filepath.Join(root, "dst-link")
	require.NoError(t, os.Symlink("target.txt", srcLink))
	require.NoError(t, os.Symlink("target.txt", dstLink))

	past := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tv := []unix.Timeval{unix.NsecToTimeval(past.UnixNano()), unix.NsecToTimeval(past.UnixNano())}
	require.NoError(t, unix.Lutimes(srcLink, tv))

	require.NoError(t, copyLinkMetadata(srcLink, dstLink))

	info, err := os.Lstat(dstLink)
	require.NoError(t, err)
	assert.WithinDuration(t, past, info.ModTime(), time.Second)

	times, perms := SymlinkMetadataSupport()
	assert.True(t, times)
	assert.False(t, perms)
}
