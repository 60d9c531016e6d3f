package installer

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode selects how targets receive a skill
type Mode string

const (
	ModeSymlink Mode = "symlink"
	ModeCopy    Mode = "copy"
)

// ParseMode resolves a mode name; an empty name selects ModeSymlink
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSymlink:
		return ModeSymlink, nil
	case ModeCopy:
		return ModeCopy, nil
	}
	return "", errors.Errorf("unknown install mode %q (expected symlink or copy)", s)
}

// Config is the placement policy for one install call
type Config struct {
	CanonicalDir   string
	TargetDirs     []string
	Mode           Mode
	FallbackToCopy bool
}

// NewConfig returns a symlink-preferred config that falls back to copying
func NewConfig(canonicalDir string, targetDirs ...string) Config {
	return Config{
		CanonicalDir:   canonicalDir,
		TargetDirs:     targetDirs,
		Mode:           ModeSymlink,
		FallbackToCopy: true,
	}
}
