// Package preflight provides validation checks that run before any sync
// pass begins. A preflight failure is fatal for the whole run; everything
// that can go wrong later is handled per entry inside the synchronizer.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CheckSourceDirectory validates that the source path exists and is a
// directory. This is re-checked at the start of every pass because the
// source can disappear between passes.
func CheckSourceDirectory(srcPath string) error {
	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source directory %s does not exist", srcPath)
		}
		return fmt.Errorf("cannot stat source directory %s: %w", srcPath, err)
	}

	if !srcInfo.IsDir() {
		return fmt.Errorf("source path %s is not a directory", srcPath)
	}

	return nil
}

// CheckNotNested rejects source/replica pairs where one canonical root lies
// inside (or is equal to) the other. Mirroring a tree into itself or into
// one of its ancestors would loop forever copying its own output.
func CheckNotNested(sourceAbs, replicaAbs string) error {
	if sourceAbs == replicaAbs {
		return fmt.Errorf("source and replica are the same directory: %s", sourceAbs)
	}
	if isWithin(sourceAbs, replicaAbs) {
		return fmt.Errorf("replica %s is nested inside source %s", replicaAbs, sourceAbs)
	}
	if isWithin(replicaAbs, sourceAbs) {
		return fmt.Errorf("source %s is nested inside replica %s", sourceAbs, replicaAbs)
	}
	return nil
}

// isWithin reports whether child lies strictly inside root. Uses path
// arithmetic, not string prefixes, so sibling names like /src and
// /src-backup do not collide.
func isWithin(root, child string) bool {
	rel, err := filepath.Rel(root, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
