// Package project resolves the project root owning a file on disk.
package project

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolver maps an env file path to the project root that owns it.
// Resolution must be deterministic: the same path always yields the same
// root, so env_file records keep a stable ProjectPath.
type Resolver interface {
	Resolve(path string) (string, error)
}

// rootMarkers are checked in order at each directory level. The first hit
// wins, nearest ancestor first.
var rootMarkers = []string{
	".git",
	"go.mod",
	"package.json",
	"pyproject.toml",
	".hg",
}

// MarkerResolver walks up from the file's directory looking for a project
// marker. The search stops one level above the user's home directory.
// If nothing matches, the file's own directory is the project root.
type MarkerResolver struct{}

func (MarkerResolver) Resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("project: invalid path %q: %w", path, err)
	}

	start := filepath.Dir(abs)
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	dir := start
	for {
		if homeDir != "" && dir == filepath.Dir(homeDir) {
			break
		}

		for _, marker := range rootMarkers {
			_, statErr := os.Stat(filepath.Join(dir, marker))
			if statErr == nil {
				return dir, nil
			}
			if !os.IsNotExist(statErr) {
				return "", fmt.Errorf("project: checking %s in %s: %w", marker, dir, statErr)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return start, nil
}
