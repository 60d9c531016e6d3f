package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/frontmatter"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/skill"
)

// PriorityDirs are searched, in order, below a local base path
var PriorityDirs = []string{
	"skills",
	".agents/skills",
	".claude/skills",
	".config/opencode/skills",
}

// priorityDepth lets a priority directory hold skill/<name>/SKILL.md even
// when recursion is disabled
const priorityDepth = 2

var errInternalSkipped = errors.New("internal skill not allowed")

// ScanLocal discovers skills below base. Every existing priority directory
// is scanned and its results appended; when that yields nothing the base
// path itself is scanned recursively up to cfg.MaxDepth. Unreadable or
// malformed documents are logged and skipped.
func ScanLocal(ctx context.Context, base string, cfg Config) []skill.Skill {
	var skills []skill.Skill

	for _, dir := range PriorityDirs {
		searchPath := filepath.Join(base, filepath.FromSlash(dir))
		info, err := os.Stat(searchPath)
		if err != nil || !info.IsDir() {
			continue
		}
		depth := cfg.MaxDepth
		if depth < priorityDepth {
			depth = priorityDepth
		}
		// skill package names inside a priority directory are never ignored
		skills = append(skills, scanDir(ctx, searchPath, depth, nil, cfg)...)
	}

	if len(skills) == 0 && cfg.MaxDepth > 0 {
		logger.G(ctx).WithField("path", base).Debug("no skills in priority directories, scanning recursively")
		skills = append(skills, scanDir(ctx, base, cfg.MaxDepth, cfg.Ignore, cfg)...)
	}

	return skills
}

// scanDir walks root for SKILL.md files no deeper than maxDepth path
// components below root. A root that is a link is followed; reported paths
// stay under root as given.
func scanDir(ctx context.Context, root string, maxDepth int, ignore []string, cfg Config) []skill.Skill {
	log := logger.G(ctx)
	var skills []skill.Skill

	walkRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		log.WithField("path", root).WithError(err).Debug("skipping unresolvable directory")
		return nil
	}

	_ = filepath.WalkDir(walkRoot, func(walked string, d fs.DirEntry, err error) error {
		if err != nil {
			log.WithField("path", walked).WithError(err).Debug("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if walked == walkRoot {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, walked)
		if err != nil {
			return nil
		}
		path := filepath.Join(root, rel)
		rel = filepath.ToSlash(rel)
		depth := strings.Count(rel, "/") + 1

		if ignored(rel, ignore) {
			log.WithField("path", path).Debug("skipping ignored path")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		docPath := path
		switch {
		case d.Type()&fs.ModeSymlink != 0 && d.Name() != skill.DocumentName:
			// a linked skill directory, as left behind by an install
			if depth >= maxDepth {
				return nil
			}
			docPath = filepath.Join(path, skill.DocumentName)
			if info, err := os.Stat(docPath); err != nil || !info.Mode().IsRegular() {
				return nil
			}
		case d.Name() != skill.DocumentName:
			return nil
		}

		s, err := parseFile(docPath, root, cfg)
		if err != nil {
			entry := log.WithField("path", docPath).WithError(err)
			if errors.Is(err, errInternalSkipped) {
				entry.Debug("skipping internal skill")
			} else {
				entry.Warn("skipping skill document")
			}
			return nil
		}
		skills = append(skills, *s)
		return nil
	})

	return skills
}

func ignored(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// parseFile reads one document. A document in its own subdirectory of
// root carries that directory as its asset tree.
func parseFile(path, root string, cfg Config) (*skill.Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	s, err := frontmatter.ParseSkill(content, path)
	if err != nil {
		return nil, err
	}

	if s.Metadata.Internal && !cfg.AllowInternal {
		return nil, errInternalSkipped
	}

	if dir := filepath.Dir(path); dir != filepath.Clean(root) {
		s.Assets = os.DirFS(dir)
	}
	return s, nil
}
