//go:build windows

package symlink

import (
	"os"
	"path/filepath"
)

// createSymlink links with an absolute target. Directory symlinks need
// Developer Mode or elevation; callers fall back to copying when denied.
func createSymlink(linkPath, target string) error {
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	return os.Symlink(abs, linkPath)
}
