package fileutil

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// FindFileCaseInsensitiveFS searches dir in fsys for a file whose name
// matches filename ignoring case, and returns its slash-separated path.
//
// Example:
//
//	p, err := FindFileCaseInsensitiveFS(fsys, "samples", "FIB.YAML")
//	// finds "samples/fib.yaml"
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return path.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
}

// HasExtension reports whether name ends in one of exts, ignoring case.
// Each ext includes the dot, e.g. ".yaml".
func HasExtension(name string, exts ...string) bool {
	ext := path.Ext(name)
	for _, want := range exts {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
