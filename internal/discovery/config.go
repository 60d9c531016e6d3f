package discovery

import "os"

// InternalSkillsEnv enables discovery of skills flagged internal when set to "1"
const InternalSkillsEnv = "INSTALL_INTERNAL_SKILLS"

// DefaultMaxDepth bounds recursive filesystem scans
const DefaultMaxDepth = 3

// Config is the process-wide discovery policy
type Config struct {
	// AllowInternal surfaces skills whose header marks them internal
	AllowInternal bool

	// MaxDepth bounds the recursive scan of a local base path. Zero
	// disables the recursive fallback.
	MaxDepth int

	// Ignore holds doublestar patterns, relative to the scanned root, for
	// directories and files the scan never enters
	Ignore []string

	// RequireProvider makes a provider-backed source without a provider an
	// error instead of an empty result
	RequireProvider bool
}

// DefaultIgnore lists directories never worth scanning for skills
func DefaultIgnore() []string {
	return []string{"**/.git", "**/node_modules", "**/vendor"}
}

// DefaultConfig returns the default policy with the internal-skills toggle
// read from the process environment.
func DefaultConfig() Config {
	return ConfigFromEnv(os.LookupEnv)
}

// ConfigFromEnv returns the default policy, reading the internal-skills
// toggle through lookup.
func ConfigFromEnv(lookup func(string) (string, bool)) Config {
	cfg := Config{
		MaxDepth: DefaultMaxDepth,
		Ignore:   DefaultIgnore(),
	}
	if v, ok := lookup(InternalSkillsEnv); ok && v == "1" {
		cfg.AllowInternal = true
	}
	return cfg
}
