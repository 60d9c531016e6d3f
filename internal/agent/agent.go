// Package agent knows where each supported coding agent reads skills from.
package agent

import (
	"os"
	"path/filepath"
	"strings"

	skerr "github.com/samhoang/skillkit/internal/errors"
)

// Agent describes an agent and its skill directory conventions
type Agent struct {
	// Name is the identifier used in --agent flags
	Name string
	// DisplayName is shown in listings
	DisplayName string
	// ProjectDir is the skill directory relative to the project root. Empty
	// when the agent already reads the canonical .agents/skills.
	ProjectDir string
	// GlobalDir is the skill directory relative to the home directory. Empty
	// when the agent has no global skills directory.
	GlobalDir string
}

// agents is kept sorted by name
var agents = []Agent{
	{
		Name:        "claude",
		DisplayName: "Claude Code",
		ProjectDir:  ".claude/skills",
		GlobalDir:   ".claude/skills",
	},
	{
		Name:        "codex",
		DisplayName: "Codex",
		GlobalDir:   ".codex/skills",
	},
	{
		Name:        "cursor",
		DisplayName: "Cursor",
		ProjectDir:  ".cursor/skills",
		GlobalDir:   ".cursor/skills",
	},
	{
		Name:        "opencode",
		DisplayName: "OpenCode",
		GlobalDir:   ".config/opencode/skills",
	},
}

// All returns every supported agent
func All() []Agent {
	out := make([]Agent, len(agents))
	copy(out, agents)
	return out
}

// Names returns the supported agent names
func Names() []string {
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = a.Name
	}
	return names
}

// Lookup returns the agent named name, case-insensitively
func Lookup(name string) (Agent, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, a := range agents {
		if a.Name == key {
			return a, nil
		}
	}
	return Agent{}, skerr.NewAgentError(name, Names())
}

// Dir returns the agent's skill directory under base, or "" when the
// agent needs no link for that scope.
func (a Agent) Dir(base string, global bool) string {
	rel := a.ProjectDir
	if global {
		rel = a.GlobalDir
	}
	if rel == "" {
		return ""
	}
	return filepath.Join(base, filepath.FromSlash(rel))
}

// ParseAgents splits comma-separated values, trims them, drops empties and
// removes duplicates keeping the first occurrence.
func ParseAgents(values []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// ResolveTargetDirs maps agent names to link target directories under base.
// The first unknown name fails the whole call. Agents with no directory in
// the requested scope contribute nothing.
func ResolveTargetDirs(names []string, base string, global bool) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, name := range names {
		a, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		dir := a.Dir(base, global)
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// Detect returns the agents whose configuration directory exists under
// base, in table order
func Detect(base string, global bool) []Agent {
	var found []Agent
	for _, a := range agents {
		dir := a.Dir(base, global)
		if dir == "" {
			continue
		}
		parent := filepath.Dir(dir)
		if info, err := os.Stat(parent); err == nil && info.IsDir() {
			found = append(found, a)
		}
	}
	return found
}
