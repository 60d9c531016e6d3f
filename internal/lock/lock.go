// Package lock persists what is installed, where it came from and the hash
// of its document, in a JSON file shared with other skill tooling.
package lock

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/skill"
)

// Version is the schema version written by Save
const Version = "1.0"

// SkillLock is the in-memory lock file: one entry per skill name
type SkillLock struct {
	Version string           `json:"version"`
	Skills  map[string]Entry `json:"skills"`
}

// Entry is the provenance of one installed skill. The JSON names are
// shared with other tools reading the same file.
type Entry struct {
	Source      string    `json:"source" jsonschema:"description=Human-facing source label"`
	SourceType  string    `json:"sourceType" jsonschema:"description=Normalized source kind"`
	SourceURL   string    `json:"sourceUrl,omitempty"`
	SkillPath   string    `json:"skillPath" jsonschema:"description=Last canonical install directory"`
	Hash        string    `json:"skillFolderHash" jsonschema:"description=Lowercase hex SHA-256 of SKILL.md"`
	InstalledAt time.Time `json:"installedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// New returns an empty lock at the current version
func New() *SkillLock {
	return &SkillLock{Version: Version, Skills: make(map[string]Entry)}
}

// shape is one accepted on-disk layout
type shape interface {
	toLock(now time.Time) *SkillLock
}

// currentShape: {"version": "1.0" | 3, "skills": {"name": {...}}}
type currentShape struct {
	version string
	skills  map[string]Entry
}

func (s currentShape) toLock(time.Time) *SkillLock {
	l := &SkillLock{Version: s.version, Skills: s.skills}
	if l.Skills == nil {
		l.Skills = make(map[string]Entry)
	}
	return l
}

// legacyArrayShape: {"skills": [{"name", "path", "source_type"}]}, or the
// bare array
type legacyArrayShape struct {
	entries []legacyEntry
}

type legacyEntry struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	SourceType string `json:"source_type"`
	SourceURL  string `json:"source_url,omitempty"`
}

func (s legacyArrayShape) toLock(now time.Time) *SkillLock {
	l := New()
	for _, e := range s.entries {
		// an empty path marks an install that never completed
		if e.Path == "" || e.Name == "" {
			continue
		}
		kind := normalizeKind(e.SourceType)
		l.Skills[e.Name] = Entry{
			Source:      kind.Label(),
			SourceType:  kind.String(),
			SourceURL:   e.SourceURL,
			SkillPath:   e.Path,
			InstalledAt: now,
			UpdatedAt:   now,
		}
	}
	return l
}

// normalizeKind maps a recorded kind onto its canonical spelling. Kinds
// this build does not know are kept as written.
func normalizeKind(s string) skill.Kind {
	return skill.Kind(s).Normalize()
}

// decode resolves data to exactly one accepted shape
func decode(data []byte) (shape, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []legacyEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, errors.Wrap(err, "invalid legacy skills array")
		}
		return legacyArrayShape{entries: entries}, nil
	}

	var raw struct {
		Version json.RawMessage `json:"version"`
		Skills  json.RawMessage `json:"skills"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "not a JSON object")
	}

	skills := bytes.TrimSpace(raw.Skills)
	if len(skills) > 0 && skills[0] == '[' {
		var entries []legacyEntry
		if err := json.Unmarshal(skills, &entries); err != nil {
			return nil, errors.Wrap(err, "invalid legacy skills array")
		}
		return legacyArrayShape{entries: entries}, nil
	}

	version, err := decodeVersion(raw.Version)
	if err != nil {
		return nil, err
	}
	cur := currentShape{version: version}
	if len(skills) > 0 && !bytes.Equal(skills, []byte("null")) {
		if err := json.Unmarshal(skills, &cur.skills); err != nil {
			return nil, errors.Wrap(err, "invalid skills object")
		}
	}
	return cur, nil
}

// decodeVersion accepts a string or an integer version
func decodeVersion(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("missing version")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	return "", errors.Errorf("version %s is neither a string nor an integer", raw)
}
