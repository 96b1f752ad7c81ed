// Package docroot maps request targets onto the filesystem.
package docroot

import (
	"path/filepath"
	"strings"
)

// Resolve joins target onto root. It never fails and does not substitute
// the default document; callers pass an already-rewritten target.
// The result is cleaned, so ".." segments may climb out of root; see Contains.
func Resolve(root, target string) string {
	return filepath.Join(root, filepath.FromSlash(target))
}

// Contains reports whether path lies at or below root.
func Contains(root, path string) bool {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
