package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithUserWritePermission(t *testing.T) {
	assert.Equal(t, os.FileMode(0644), WithUserWritePermission(0444))
	assert.Equal(t, os.FileMode(0755), WithUserWritePermission(0755))
	assert.Equal(t, os.FileMode(0200), WithUserWritePermission(0))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/some/dir")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "some/dir"), got)

	got, err = ExpandPath("/absolute/path")
	require.NoError(t, err)
	assert.Equal(t, "/absolute/path", got)
}

func TestInvertMap(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2}
	inv := InvertMap(m)
	assert.Equal(t, map[int]string{1: "a", 2: "b"}, inv)
}

func TestByteCountIEC(t *testing.T) {
	assert.Equal(t, "512 B", ByteCountIEC(512))
	assert.Equal(t, "1.0 KiB", ByteCountIEC(1024))
	assert.Equal(t, "2.5 MiB", ByteCountIEC(2621440))
}
