//go:build !windows

package treesync

import "os"

// isJunction reports whether the entry is a directory junction. Junctions
// (mount-point reparse points) only exist on Windows filesystems.
func isJunction(path string, info os.FileInfo) bool {
	return false
}
