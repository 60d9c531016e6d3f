//go:build !windows

package symlink

import (
	"os"
	"path/filepath"
)

func createSymlink(linkPath, target string) error {
	rel, err := filepath.Rel(filepath.Dir(linkPath), target)
	if err != nil {
		rel = target
	}
	return os.Symlink(rel, linkPath)
}
