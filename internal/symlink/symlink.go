// Package symlink creates and inspects the directory links that point
// agent skill directories at the canonical install.
package symlink

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Manager handles link operations
type Manager struct{}

// New creates a new link manager
func New() *Manager {
	return &Manager{}
}

// Info describes what currently occupies a path
type Info struct {
	Path      string
	Target    string // resolved link target, absolute
	Exists    bool
	IsSymlink bool
	IsBroken  bool
}

// Link creates a directory link at linkPath pointing to target. Parent
// directories of linkPath are created. On unix the stored target is
// relative to the link's directory.
func (m *Manager) Link(linkPath, target string) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return err
	}
	return createSymlink(linkPath, target)
}

// Clear removes whatever occupies path: a link (never its target), a file
// or a whole directory. A missing path is not an error.
func (m *Manager) Clear(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSymlink != 0 || !info.IsDir() {
		return os.Remove(path)
	}
	return os.RemoveAll(path)
}

// Info returns information about path without following a final link
func (m *Manager) Info(path string) (*Info, error) {
	info := &Info{Path: path}

	linfo, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return info, nil
	}
	if err != nil {
		return nil, err
	}

	info.Exists = true
	info.IsSymlink = linfo.Mode()&os.ModeSymlink != 0
	if !info.IsSymlink {
		return info, nil
	}

	target, err := os.Readlink(path)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	info.Target = filepath.Clean(target)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		info.IsBroken = true
	}
	return info, nil
}

// PointsTo reports whether path is a link resolving to target
func (m *Manager) PointsTo(path, target string) (bool, error) {
	info, err := m.Info(path)
	if err != nil {
		return false, err
	}
	if !info.Exists || !info.IsSymlink {
		return false, nil
	}

	absTarget, err := filepath.Abs(info.Target)
	if err != nil {
		return false, err
	}
	absExpected, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}
	return absTarget == absExpected, nil
}

// SamePath reports whether a and b name the same directory once links
// in either are resolved. Paths that do not exist compare lexically.
func SamePath(a, b string) (bool, error) {
	ra, err := resolve(a)
	if err != nil {
		return false, err
	}
	rb, err := resolve(b)
	if err != nil {
		return false, err
	}
	return ra == rb, nil
}

// resolve evaluates links in the longest existing prefix of path
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", path)
	}

	rest := ""
	dir := abs
	for {
		if real, err := filepath.EvalSymlinks(dir); err == nil {
			return filepath.Join(real, rest), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs, nil
		}
		rest = filepath.Join(filepath.Base(dir), rest)
		dir = parent
	}
}
