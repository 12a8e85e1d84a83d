package treesync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirClassifiesEntries(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))
	writeFile(t, filepath.Join(root, "file.txt"), "content")
	require.NoError(t, os.Symlink("file.txt", filepath.Join(root, "link")))

	entries, err := listDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	byName := make(map[string]DirectoryEntry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}

	assert.Equal(t, KindDirectory, byName["subdir"].Kind)
	assert.Equal(t, KindRegularFile, byName["file.txt"].Kind)
	assert.Equal(t, KindSymlink, byName["link"].Kind)
	assert.Equal(t, "file.txt", byName["link"].RawTarget)
	assert.Equal(t, filepath.Join(root, "link"), byName["link"].Path)
}

func TestListDirClassifiesSymlinkToDirectoryAsSymlink(t *testing.T) {
	root := canonicalTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0o755))
	require.NoError(t, os.Symlink("subdir", filepath.Join(root, "dirlink")))

	entries, err := listDir(root)
	require.NoError(t, err)

	for _, e := range entries {
		if e.Name == "dirlink" {
			assert.Equal(t, KindSymlink, e.Kind)
			return
		}
	}
	t.Fatal("dirlink not listed")
}

func TestListDirFailsOnMissingDirectory(t *testing.T) {
	_, err := listDir(filepath.Join(canonicalTempDir(t), "missing"))
	assert.Error(t, err)
}

func TestEntryKindString(t *testing.T) {
	assert.Equal(t, "directory", KindDirectory.String())
	assert.Equal(t, "junction", KindJunction.String())
	assert.Equal(t, "symlink", KindSymlink.String())
	assert.Equal(t, "file", KindRegularFile.String())
	assert.Equal(t, "other", KindOther.String())
	assert.Equal(t, "EntryKind(99)", EntryKind(99).String())
}
