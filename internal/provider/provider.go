// Package provider defines the capability discovery and install use for
// remote source kinds. The core never depends on a concrete transport: any
// value satisfying Provider works, including the fixed-response Static.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/samhoang/skillkit/internal/skill"
)

// Provider discovers, fetches and hashes skills for a remote source kind
type Provider interface {
	// Discover lists the skills found at url, optionally below subpath
	Discover(ctx context.Context, url, subpath string) ([]skill.Skill, error)

	// Fetch materializes the skill package into destDir
	Fetch(ctx context.Context, s skill.Skill, destDir string) error

	// Hash returns the content hash recorded in the lock file
	Hash(ctx context.Context, s skill.Skill) (string, error)
}

// Options configure a provider built for one discovery request
type Options struct {
	// Ref is the branch, tag or version requested by the source and may be
	// empty.
	Ref string

	// Scan overrides the local scanning policy providers apply to
	// downloaded trees. Nil keeps the provider's default.
	Scan *ScanPolicy
}

// ScanPolicy bounds the scan of a downloaded tree
type ScanPolicy struct {
	MaxDepth int
	Ignore   []string
}

// Option configures Options
type Option func(*Options)

// WithScanPolicy makes remote providers scan checkouts with maxDepth and
// ignore instead of their defaults
func WithScanPolicy(maxDepth int, ignore []string) Option {
	return func(o *Options) {
		o.Scan = &ScanPolicy{MaxDepth: maxDepth, Ignore: ignore}
	}
}

// Factory builds a provider for one discovery request
type Factory func(opts Options) Provider

var (
	mu        sync.RWMutex
	factories = make(map[skill.Kind]Factory)
)

// Register makes a provider factory available for kind
func Register(kind skill.Kind, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// ForSource returns a provider for the source kind, or nil when the kind is
// not provider-backed or nothing is registered for it.
func ForSource(src skill.Source, opts ...Option) Provider {
	if !src.Kind.RequiresProvider() {
		return nil
	}
	mu.RLock()
	f, ok := factories[src.Kind.Normalize()]
	mu.RUnlock()
	if !ok {
		return nil
	}

	o := Options{Ref: src.Ref}
	for _, opt := range opts {
		opt(&o)
	}
	return f(o)
}

// Kinds returns the kinds that have a registered provider
func Kinds() []skill.Kind {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]skill.Kind, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Close releases provider resources when the provider holds any
func Close(p Provider) error {
	if c, ok := p.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
