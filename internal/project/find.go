package project

import (
	"os"
	"path/filepath"
)

// IsProject reports whether dir contains a bundles.json at its root.
func IsProject(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, BundlesFile))
	return err == nil && info.Mode().IsRegular()
}

// FindRoot walks up from startDir looking for a project directory.
// Returns "" if none is found.
func FindRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		dir = startDir
	}
	for {
		if IsProject(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
