// Package skill holds the value types shared by discovery, install and the
// lock store: the discovered Skill record and the Source it came from.
package skill

import (
	"io/fs"
	"strings"

	skerr "github.com/samhoang/skillkit/internal/errors"
)

// DocumentName is the conventional filename of a skill document
const DocumentName = "SKILL.md"

// Skill is a discovered unit of content
type Skill struct {
	Name        string
	Description string
	OriginPath  string // file the document was parsed from, empty for embedded/remote skills
	RawContent  []byte // written verbatim on install, never re-serialized
	Metadata    Metadata

	// Assets is a read-only view of the skill package directory. Nil when the
	// document has no package of its own.
	Assets fs.FS
}

// Metadata is the extension data carried in the document header
type Metadata struct {
	Internal bool
	Extra    map[string]any // unknown header keys, preserved as parsed
}

// Kind identifies where skills are discovered from
type Kind string

const (
	KindSelf   Kind = "self"
	KindLocal  Kind = "local"
	KindDirect Kind = "direct"
	KindGitHub Kind = "github"
	KindGitLab Kind = "gitlab"
)

// kindAliases maps every accepted spelling to its kind. "embedded" is the
// same source as "self", never a separate behavior.
var kindAliases = map[string]Kind{
	"self":     KindSelf,
	"embedded": KindSelf,
	"local":    KindLocal,
	"direct":   KindDirect,
	"github":   KindGitHub,
	"gitlab":   KindGitLab,
}

// KindNames returns the accepted source kind spellings in display order
func KindNames() []string {
	return []string{"github", "gitlab", "local", "direct", "self", "embedded"}
}

// ParseKind resolves a source kind name, case-insensitively
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", skerr.NewSourceError(s, KindNames())
}

// Normalize maps any accepted spelling, including the "embedded" alias,
// onto its canonical kind. Unknown kinds are returned unchanged.
func (k Kind) Normalize() Kind {
	if n, ok := kindAliases[strings.ToLower(strings.TrimSpace(string(k)))]; ok {
		return n
	}
	return k
}

// String returns the normalized lowercase label written to the lock file
func (k Kind) String() string {
	return string(k.Normalize())
}

// Label returns the human-facing label stored as the lock entry source
func (k Kind) Label() string {
	k = k.Normalize()
	switch k {
	case KindSelf:
		return "Self"
	case KindGitHub:
		return "Github"
	case KindGitLab:
		return "Gitlab"
	case KindLocal:
		return "Local"
	case KindDirect:
		return "Direct"
	}
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// IsEmbedded reports whether the kind reads the compiled-in bundle
func (k Kind) IsEmbedded() bool {
	return k.Normalize() == KindSelf
}

// RequiresProvider reports whether discovery for this kind is delegated to a provider
func (k Kind) RequiresProvider() bool {
	switch k.Normalize() {
	case KindDirect, KindGitHub, KindGitLab:
		return true
	}
	return false
}

// Source describes a discovery request
type Source struct {
	Kind        Kind
	URL         string
	Subpath     string
	Ref         string
	SkillFilter string
}
