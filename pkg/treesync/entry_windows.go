//go:build windows

package treesync

import (
	"os"

	"golang.org/x/sys/windows"
)

// isJunction reports whether the entry is a directory junction (an
// IO_REPARSE_TAG_MOUNT_POINT reparse point). The tag is read from the find
// data instead of opening the reparse point, so the junction target is
// never followed here.
func isJunction(path string, info os.FileInfo) bool {
	if info.Mode()&(os.ModeSymlink|os.ModeIrregular|os.ModeDir) == 0 {
		return false
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}

	var fd windows.Win32finddata
	h, err := windows.FindFirstFile(p, &fd)
	if err != nil {
		return false
	}
	windows.FindClose(h)

	// Reserved0 holds the reparse tag when the reparse attribute is set.
	return fd.FileAttributes&windows.FILE_ATTRIBUTE_REPARSE_POINT != 0 &&
		fd.Reserved0 == windows.IO_REPARSE_TAG_MOUNT_POINT
}
