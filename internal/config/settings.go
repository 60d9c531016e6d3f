package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/discovery"
	"github.com/samhoang/skillkit/internal/installer"
)

// Settings is the skillkit.toml file
type Settings struct {
	// Discovery
	AllowInternal   bool     `toml:"allow_internal"`
	MaxDepth        int      `toml:"max_depth"`
	Ignore          []string `toml:"ignore,omitempty"`
	RequireProvider bool     `toml:"require_provider"`

	// Install
	Mode           string   `toml:"mode"`
	FallbackToCopy bool     `toml:"fallback_to_copy"`
	DefaultAgents  []string `toml:"default_agents,omitempty"`

	LogLevel string `toml:"log_level"`
}

// DefaultSettings returns the settings used when no file exists
func DefaultSettings() *Settings {
	return &Settings{
		MaxDepth:       discovery.DefaultMaxDepth,
		Ignore:         discovery.DefaultIgnore(),
		Mode:           string(installer.ModeSymlink),
		FallbackToCopy: true,
		LogLevel:       "warn",
	}
}

// LoadSettings reads the settings file at path over the defaults, then
// applies the process environment. A missing file is not an error.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, errors.Wrapf(err, "failed to read %s", path)
	default:
		if err := toml.Unmarshal(data, s); err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}
	}

	s.ApplyEnv(os.LookupEnv)
	return s, nil
}

// ApplyEnv applies environment toggles read through lookup
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(discovery.InternalSkillsEnv); ok && v == "1" {
		s.AllowInternal = true
	}
}

// Save writes the settings file, creating its directory
func (s *Settings) Save(path string) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode settings")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	return os.WriteFile(path, data, 0644)
}

// DiscoveryConfig builds the discovery policy
func (s *Settings) DiscoveryConfig() discovery.Config {
	return discovery.Config{
		AllowInternal:   s.AllowInternal,
		MaxDepth:        s.MaxDepth,
		Ignore:          s.Ignore,
		RequireProvider: s.RequireProvider,
	}
}

// InstallConfig builds the placement policy for canonicalDir and targets
func (s *Settings) InstallConfig(canonicalDir string, targets []string) (installer.Config, error) {
	mode, err := installer.ParseMode(s.Mode)
	if err != nil {
		return installer.Config{}, err
	}
	return installer.Config{
		CanonicalDir:   canonicalDir,
		TargetDirs:     targets,
		Mode:           mode,
		FallbackToCopy: s.FallbackToCopy,
	}, nil
}
