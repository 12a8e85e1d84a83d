//go:build windows

package treesync

// copyLinkMetadata is a no-op on Windows: CreateSymbolicLink stamps the
// link's own timestamps at creation and altering them afterwards would
// require reopening the reparse point with backup semantics.
func copyLinkMetadata(srcPath, dstPath string) error {
	return nil
}

// SymlinkMetadataSupport reports which pieces of symlink metadata this
// platform can alter without following the link.
func SymlinkMetadataSupport() (times, perms bool) {
	return false, false
}
