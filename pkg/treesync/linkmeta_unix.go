//go:build unix

package treesync

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// copyLinkMetadata copies the source link's timestamps onto the replica
// link without following either link. Permission bits of symlinks cannot be
// altered on this platform (there is no lchmod), which matches the upstream
// behavior of leaving link modes alone.
func copyLinkMetadata(srcPath, dstPath string) error {
	info, err := os.Lstat(srcPath)
	if err != nil {
		return fmt.Errorf("failed to lstat source link %s: %w", srcPath, err)
	}

	mtime := info.ModTime()
	tv := []unix.Timeval{
		unix.NsecToTimeval(mtime.UnixNano()), // atime: source atime is not tracked portably, mirror mtime
		unix.NsecToTimeval(mtime.UnixNano()),
	}
	if err := unix.Lutimes(dstPath, tv); err != nil {
		return fmt.Errorf("failed to set link times on %s: %w", dstPath, err)
	}
	return nil
}

// SymlinkMetadataSupport reports which pieces of symlink metadata this
// platform can alter without following the link. Callers may warn once at
// startup about the unsupported pieces.
func SymlinkMetadataSupport() (times, perms bool) {
	return true, false
}
