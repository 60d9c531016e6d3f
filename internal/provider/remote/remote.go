// Package remote implements providers for sources that must be downloaded
// before they can be scanned: git repositories and archive URLs. Both
// materialize the source into a temporary checkout and then apply the
// local scanning rules to it.
package remote

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/discovery"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/provider"
	"github.com/samhoang/skillkit/internal/skill"
)

func init() {
	provider.Register(skill.KindGitHub, gitFactory)
	provider.Register(skill.KindGitLab, gitFactory)
	provider.Register(skill.KindDirect, archiveFactory)
}

func gitFactory(opts provider.Options) provider.Provider {
	g := NewGit(opts.Ref)
	if opts.Scan != nil {
		g.SetScanPolicy(*opts.Scan)
	}
	return g
}

func archiveFactory(opts provider.Options) provider.Provider {
	a := NewArchive()
	if opts.Scan != nil {
		a.SetScanPolicy(*opts.Scan)
	}
	return a
}

// Error reports a failed download step
type Error struct {
	Op     string // operation
	Source string // url
	Err    error  // underlying error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return "remote: " + e.Op + " " + e.Source + ": " + e.Err.Error()
	}
	return "remote: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// materializer writes the source at url into dir
type materializer func(ctx context.Context, url, dir string) error

// checkouts holds the temporary trees shared by the remote providers.
// Skills discovered from a checkout keep their OriginPath inside it until
// Close.
type checkouts struct {
	mu    sync.Mutex
	dirs  []string
	scan  discovery.Config
	fetch materializer
}

func newCheckouts(fetch materializer) *checkouts {
	scan := discovery.DefaultConfig()
	// visibility is filtered by the resolver
	scan.AllowInternal = true
	return &checkouts{scan: scan, fetch: fetch}
}

// SetScanPolicy replaces the depth and ignore list used to scan checkouts
func (c *checkouts) SetScanPolicy(p provider.ScanPolicy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scan.MaxDepth = p.MaxDepth
	c.scan.Ignore = p.Ignore
}

func (c *checkouts) Discover(ctx context.Context, url, subpath string) ([]skill.Skill, error) {
	dir, err := os.MkdirTemp("", "skillkit-checkout-*")
	if err != nil {
		return nil, &Error{Op: "checkout", Source: url, Err: err}
	}
	c.mu.Lock()
	c.dirs = append(c.dirs, dir)
	c.mu.Unlock()

	root := filepath.Join(dir, "src")
	if err := c.fetch(ctx, url, root); err != nil {
		return nil, err
	}

	base, err := safeJoin(root, subpath)
	if err != nil {
		return nil, &Error{Op: "checkout", Source: url, Err: err}
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		return nil, &Error{Op: "checkout", Source: url, Err: errors.Errorf("subpath %q not found", subpath)}
	}

	c.mu.Lock()
	scan := c.scan
	c.mu.Unlock()

	logger.G(ctx).WithField("url", url).WithField("path", base).Debug("scanning checkout")
	return discovery.ScanLocal(ctx, base, scan), nil
}

// Fetch copies the package directory of a skill discovered by this provider
func (c *checkouts) Fetch(ctx context.Context, s skill.Skill, destDir string) error {
	if s.OriginPath == "" {
		return errors.Errorf("skill %s has no checkout", s.Name)
	}
	if err := copyDir(filepath.Dir(s.OriginPath), destDir); err != nil {
		return errors.Wrapf(err, "failed to fetch skill %s", s.Name)
	}
	return nil
}

func (c *checkouts) Hash(ctx context.Context, s skill.Skill) (string, error) {
	return skill.ContentHash(s.RawContent), nil
}

// Close removes every temporary checkout
func (c *checkouts) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	for _, dir := range c.dirs {
		if err := os.RemoveAll(dir); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.dirs = nil
	return firstErr
}

// safeJoin joins rel below root and rejects paths escaping it
func safeJoin(root, rel string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(rel))
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", errors.Errorf("path %q escapes %s", rel, root)
	}
	return target, nil
}

func copyDir(src, dst string) error {
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		switch {
		case entry.Name() == ".git":
			continue
		case entry.IsDir():
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		case entry.Type().IsRegular():
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
