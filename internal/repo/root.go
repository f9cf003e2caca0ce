package repo

import (
	"os"
	"path/filepath"
)

// DefaultRootMarkers identify the top of a project when no workspace
// directory is configured.
var DefaultRootMarkers = []string{".git", IgnoreFileName}

// FindRoot walks up from start until a directory holding one of markers is
// found. When nothing matches, the absolute start directory is returned.
func FindRoot(start string, markers ...string) (string, error) {
	if len(markers) == 0 {
		markers = DefaultRootMarkers
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}
	dir := abs
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		dir = parent
	}
}

// Canonical resolves symlinks through the nearest existing ancestor so that
// paths which do not exist yet still resolve consistently.
func Canonical(path string) string {
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	var rest []string
	dir := path
	for {
		parent := filepath.Dir(dir)
		rest = append([]string{filepath.Base(dir)}, rest...)
		if parent == dir {
			return path
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		dir = parent
	}
}
