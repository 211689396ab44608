package utils

import (
	"path/filepath"
	"strings"
)

// RelativePath returns path relative to root with forward slashes.
func RelativePath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Extension returns the lower-cased extension including the dot. Leading
// dots do not start an extension, so ".env" and "..env" have none while
// ".env.local" has ".local".
func Extension(name string) string {
	base := filepath.Base(name)
	if !strings.Contains(strings.TrimLeft(base, "."), ".") {
		return ""
	}
	return strings.ToLower(filepath.Ext(base))
}
