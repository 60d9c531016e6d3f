// Package installer places a skill into the canonical store and replicates
// it into agent directories.
package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/provider"
	"github.com/samhoang/skillkit/internal/skill"
	"github.com/samhoang/skillkit/internal/symlink"
)

// Linker creates directory links and clears existing entries
type Linker interface {
	Link(linkPath, target string) error
	Clear(path string) error
	PointsTo(path, target string) (bool, error)
}

// Method records how a target received the skill
type Method string

const (
	MethodSymlink Method = "symlink"
	MethodCopy    Method = "copy"
	MethodSkipped Method = "skipped"
)

// TargetResult is the outcome for one target directory
type TargetResult struct {
	Dir    string
	Path   string
	Method Method
}

// Result is the outcome of an install
type Result struct {
	Path          string // canonical skill directory
	SymlinkFailed bool   // at least one target fell back to a copy
	Targets       []TargetResult
}

// Installer places skills on disk. It holds no per-call state, so installs
// of different skills may run concurrently.
type Installer struct {
	linker   Linker
	provider provider.Provider
	log      *logrus.Entry
}

// Option configures an Installer
type Option func(*Installer)

// WithLinker replaces the symlink manager
func WithLinker(l Linker) Option {
	return func(i *Installer) {
		i.linker = l
	}
}

// WithProvider sets the provider that materializes skills without a
// local package
func WithProvider(p provider.Provider) Option {
	return func(i *Installer) {
		i.provider = p
	}
}

// WithLogger sets the logger, overriding the one carried by the context
func WithLogger(l *logrus.Entry) Option {
	return func(i *Installer) {
		i.log = l
	}
}

// New creates an installer
func New(opts ...Option) *Installer {
	i := &Installer{linker: symlink.New()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Installer) logger(ctx context.Context) *logrus.Entry {
	if i.log != nil {
		return i.log
	}
	return logger.G(ctx)
}

// Install writes s to cfg.CanonicalDir/<name>/ and replicates it into each
// target directory in order. The document is written verbatim, after any
// package assets, so repeated installs leave identical bytes behind.
func (i *Installer) Install(ctx context.Context, s skill.Skill, cfg Config) (*Result, error) {
	if err := ValidateName(s.Name); err != nil {
		return nil, skerr.NewIOError(s.Name, "validate", cfg.CanonicalDir, err)
	}

	canonicalDir, err := filepath.Abs(cfg.CanonicalDir)
	if err != nil {
		return nil, skerr.NewIOError(s.Name, "resolve", cfg.CanonicalDir, err)
	}
	canonical := filepath.Join(canonicalDir, s.Name)
	log := i.logger(ctx).WithField("skill", s.Name)

	if err := i.writeCanonical(ctx, s, canonical); err != nil {
		return nil, err
	}
	log.WithField("path", canonical).Debug("wrote canonical skill")

	result := &Result{Path: canonical}
	for _, dir := range cfg.TargetDirs {
		tr, fellBack, err := i.placeTarget(ctx, s.Name, canonicalDir, canonical, dir, cfg)
		if err != nil {
			return result, err
		}
		if fellBack {
			result.SymlinkFailed = true
		}
		result.Targets = append(result.Targets, *tr)
	}
	return result, nil
}

func (i *Installer) writeCanonical(ctx context.Context, s skill.Skill, canonical string) error {
	if err := os.MkdirAll(canonical, dirMode); err != nil {
		return skerr.NewIOError(s.Name, "create", canonical, err)
	}

	switch {
	case s.Assets != nil:
		if s.OriginPath != "" {
			// reinstalling from the canonical store itself
			if same, _ := symlink.SamePath(filepath.Dir(s.OriginPath), canonical); same {
				break
			}
		}
		if err := copyFS(s.Assets, canonical); err != nil {
			return skerr.NewIOError(s.Name, "copy", canonical, err)
		}
	case i.provider != nil:
		if err := i.provider.Fetch(ctx, s, canonical); err != nil {
			return skerr.NewIOError(s.Name, "fetch", canonical, err)
		}
	}

	doc := filepath.Join(canonical, skill.DocumentName)
	if err := os.WriteFile(doc, s.RawContent, fileMode); err != nil {
		return skerr.NewIOError(s.Name, "write", doc, err)
	}
	return nil
}

func (i *Installer) placeTarget(ctx context.Context, name, canonicalDir, canonical, dir string, cfg Config) (*TargetResult, bool, error) {
	log := i.logger(ctx).WithField("skill", name).WithField("target", dir)

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, false, skerr.NewIOError(name, "resolve", dir, err)
	}
	path := filepath.Join(dir, name)
	tr := &TargetResult{Dir: dir, Path: path}

	if err := os.MkdirAll(dir, dirMode); err != nil {
		return nil, false, skerr.NewIOError(name, "create", dir, err)
	}

	if same, err := symlink.SamePath(dir, canonicalDir); err == nil && same {
		log.Debug("target is the canonical directory, skipping")
		tr.Method = MethodSkipped
		return tr, false, nil
	}

	if err := i.linker.Clear(path); err != nil {
		return nil, false, skerr.NewIOError(name, "remove", path, err)
	}

	if cfg.Mode != ModeCopy {
		linkErr := i.linker.Link(path, canonical)
		if linkErr == nil {
			tr.Method = MethodSymlink
			return tr, false, nil
		}
		if !cfg.FallbackToCopy {
			return nil, false, skerr.NewIOError(name, "symlink", path, linkErr)
		}
		log.WithError(linkErr).Warn("symlink failed, copying instead")
		// a failed link may leave a partial entry behind
		if err := i.linker.Clear(path); err != nil {
			return nil, false, skerr.NewIOError(name, "remove", path, err)
		}
		if err := copyDir(canonical, path); err != nil {
			return nil, false, skerr.NewIOError(name, "copy", path, err)
		}
		tr.Method = MethodCopy
		return tr, true, nil
	}

	if err := copyDir(canonical, path); err != nil {
		return nil, false, skerr.NewIOError(name, "copy", path, err)
	}
	tr.Method = MethodCopy
	return tr, false, nil
}

// Uninstall removes the canonical directory of name and its entry in every
// target directory. A target entry is only removed when it is a link to the
// canonical directory or a copy of its document; anything else was not
// placed there by Install and is left alone. Missing paths are ignored.
func (i *Installer) Uninstall(ctx context.Context, name string, cfg Config) error {
	if err := ValidateName(name); err != nil {
		return skerr.NewIOError(name, "validate", cfg.CanonicalDir, err)
	}
	log := i.logger(ctx).WithField("skill", name)

	canonical := filepath.Join(cfg.CanonicalDir, name)
	for _, dir := range cfg.TargetDirs {
		if same, err := symlink.SamePath(dir, cfg.CanonicalDir); err == nil && same {
			continue
		}
		path := filepath.Join(dir, name)
		owned, err := i.installedAt(path, canonical)
		if err != nil {
			return skerr.NewIOError(name, "inspect", path, err)
		}
		if !owned {
			if _, err := os.Lstat(path); err == nil {
				log.WithField("target", path).Warn("leaving entry that was not installed from the canonical store")
			}
			continue
		}
		if err := i.linker.Clear(path); err != nil {
			return skerr.NewIOError(name, "remove", path, err)
		}
	}

	if err := os.RemoveAll(canonical); err != nil {
		return skerr.NewIOError(name, "remove", canonical, err)
	}
	log.Debug("uninstalled skill")
	return nil
}

// installedAt reports whether path holds what Install placed there for
// canonical: a link to it, or a directory whose document matches it.
func (i *Installer) installedAt(path, canonical string) (bool, error) {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if ok, err := i.linker.PointsTo(path, canonical); err != nil || ok {
			return ok, err
		}
		same, err := symlink.SamePath(path, canonical)
		if err != nil {
			return false, err
		}
		return same, nil
	}
	if !info.IsDir() {
		return false, nil
	}

	copied, err := os.ReadFile(filepath.Join(path, skill.DocumentName))
	if err != nil {
		return false, nil
	}
	original, err := os.ReadFile(filepath.Join(canonical, skill.DocumentName))
	if err != nil {
		return false, nil
	}
	return skill.ContentHash(copied) == skill.ContentHash(original), nil
}

// ValidateName rejects names that would escape the directory they are
// joined to
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.New("empty skill name")
	case name == "." || name == "..":
		return errors.Errorf("invalid skill name %q", name)
	case strings.ContainsAny(name, `/\`):
		return errors.Errorf("skill name %q contains a path separator", name)
	case strings.Contains(name, ".."):
		return errors.Errorf("skill name %q contains ..", name)
	}
	return nil
}
