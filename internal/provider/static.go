package provider

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/skill"
)

// Static answers every request with a fixed set of skills. It performs no
// network access.
type Static struct {
	Skills     []skill.Skill
	FolderHash string // returned by Hash; empty means hash the document

	Requests []Request // recorded Discover calls
}

// Request records one Discover call
type Request struct {
	URL     string
	Subpath string
}

// NewStatic creates a provider returning skills
func NewStatic(skills ...skill.Skill) *Static {
	return &Static{Skills: skills}
}

// WithHash sets the hash returned for every skill
func (p *Static) WithHash(hash string) *Static {
	p.FolderHash = hash
	return p
}

func (p *Static) Discover(ctx context.Context, url, subpath string) ([]skill.Skill, error) {
	p.Requests = append(p.Requests, Request{URL: url, Subpath: subpath})
	out := make([]skill.Skill, len(p.Skills))
	copy(out, p.Skills)
	return out, nil
}

func (p *Static) Fetch(ctx context.Context, s skill.Skill, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", destDir)
	}
	return os.WriteFile(filepath.Join(destDir, skill.DocumentName), s.RawContent, 0644)
}

func (p *Static) Hash(ctx context.Context, s skill.Skill) (string, error) {
	if p.FolderHash != "" {
		return p.FolderHash, nil
	}
	return skill.ContentHash(s.RawContent), nil
}
