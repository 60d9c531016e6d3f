// Package discovery turns a source descriptor into the list of skills it
// offers.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/embedded"
	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/logger"
	"github.com/samhoang/skillkit/internal/provider"
	"github.com/samhoang/skillkit/internal/skill"
)

// Resolver discovers skills under a fixed policy
type Resolver struct {
	cfg      Config
	provider provider.Provider
	bundle   fs.FS
}

// Option configures a Resolver
type Option func(*Resolver)

// WithProvider sets the provider used for remote source kinds
func WithProvider(p provider.Provider) Option {
	return func(r *Resolver) {
		r.provider = p
	}
}

// WithBundle replaces the compiled-in skill bundle
func WithBundle(bundle fs.FS) Option {
	return func(r *Resolver) {
		r.bundle = bundle
	}
}

// New creates a resolver for cfg
func New(cfg Config, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.bundle == nil {
		r.bundle = embedded.FS()
	}
	return r
}

// Discover is shorthand for New(cfg, WithProvider(p)).Discover(ctx, src).
// p may be nil.
func Discover(ctx context.Context, src skill.Source, cfg Config, p provider.Provider) ([]skill.Skill, error) {
	return New(cfg, WithProvider(p)).Discover(ctx, src)
}

// Discover lists the skills src offers, in discovery order. Filtering
// outcomes are empty results, never errors: an internal skill hidden by
// policy or a name filter matching nothing both return an empty slice.
func (r *Resolver) Discover(ctx context.Context, src skill.Source) ([]skill.Skill, error) {
	var (
		skills []skill.Skill
		err    error
	)
	src.Kind = src.Kind.Normalize()

	switch {
	case src.Kind.IsEmbedded():
		skills, err = r.discoverEmbedded()
	case src.Kind == skill.KindLocal:
		skills, err = r.discoverLocal(ctx, src)
	case src.Kind.RequiresProvider():
		skills, err = r.discoverRemote(ctx, src)
	default:
		return nil, skerr.NewSourceError(string(src.Kind), skill.KindNames())
	}
	if err != nil {
		return nil, err
	}

	return FilterByName(skills, src.SkillFilter), nil
}

func (r *Resolver) discoverEmbedded() ([]skill.Skill, error) {
	all, err := embedded.Load(r.bundle)
	if err != nil {
		return nil, err
	}
	return r.filterInternal(all), nil
}

func (r *Resolver) discoverLocal(ctx context.Context, src skill.Source) ([]skill.Skill, error) {
	base, err := expandPath(src.URL)
	if err != nil {
		return nil, err
	}
	if src.Subpath != "" {
		base = filepath.Join(base, filepath.FromSlash(src.Subpath))
	}

	info, err := os.Stat(base)
	if err != nil {
		return nil, skerr.NewIOError("", "stat", base, err)
	}
	if !info.IsDir() {
		return nil, skerr.NewIOError("", "scan", base, errors.New("not a directory"))
	}

	return ScanLocal(ctx, base, r.cfg), nil
}

func (r *Resolver) discoverRemote(ctx context.Context, src skill.Source) ([]skill.Skill, error) {
	log := logger.G(ctx).WithField("source", src.Kind.String())

	if r.provider == nil {
		if r.cfg.RequireProvider {
			return nil, errors.Wrapf(skerr.ErrProviderRequired, "source %s", src.Kind)
		}
		log.Warn("no provider for remote source, nothing discovered")
		return nil, nil
	}
	if src.URL == "" {
		log.Warn("remote source has no url, nothing discovered")
		return nil, nil
	}

	skills, err := r.provider.Discover(ctx, src.URL, src.Subpath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover skills from %s", src.URL)
	}
	return r.filterInternal(skills), nil
}

func (r *Resolver) filterInternal(skills []skill.Skill) []skill.Skill {
	if r.cfg.AllowInternal {
		return skills
	}
	out := make([]skill.Skill, 0, len(skills))
	for _, s := range skills {
		if !s.Metadata.Internal {
			out = append(out, s)
		}
	}
	return out
}

// FilterByName keeps the skills named exactly name. An empty name keeps
// everything.
func FilterByName(skills []skill.Skill, name string) []skill.Skill {
	if name == "" {
		return skills
	}
	var out []skill.Skill
	for _, s := range skills {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

func expandPath(path string) (string, error) {
	if path == "" {
		path = "."
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(err, "failed to resolve home directory")
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
