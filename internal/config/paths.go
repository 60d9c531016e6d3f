package config

import (
	"os"
	"path/filepath"
)

// HomeEnv overrides the base directory for every scope
const HomeEnv = "SKILLKIT_HOME"

// Paths holds the resolved locations for one install scope
type Paths struct {
	BaseDir      string // $HOME for global installs, the working directory otherwise
	Global       bool
	CanonicalDir string // <base>/.agents/skills
	LockPath     string // <base>/.agents/.skill-lock.json
	SettingsPath string // <base>/.agents/skillkit.toml
}

// ResolvePaths resolves the paths for the global or project scope
func ResolvePaths(global bool) (*Paths, error) {
	base := os.Getenv(HomeEnv)
	if base == "" {
		var err error
		if global {
			base, err = os.UserHomeDir()
		} else {
			base, err = os.Getwd()
		}
		if err != nil {
			return nil, err
		}
	}
	return PathsFor(base, global), nil
}

// PathsFor lays out the paths below base
func PathsFor(base string, global bool) *Paths {
	agentsDir := filepath.Join(base, ".agents")
	return &Paths{
		BaseDir:      base,
		Global:       global,
		CanonicalDir: filepath.Join(agentsDir, "skills"),
		LockPath:     filepath.Join(agentsDir, ".skill-lock.json"),
		SettingsPath: filepath.Join(agentsDir, "skillkit.toml"),
	}
}

// SkillDir returns the canonical directory of a skill
func (p *Paths) SkillDir(name string) string {
	return filepath.Join(p.CanonicalDir, name)
}
