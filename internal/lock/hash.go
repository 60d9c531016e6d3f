package lock

import (
	"os"
	"path/filepath"

	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/skill"
)

// HashDocument hashes dir/SKILL.md. Auxiliary files never affect the
// hash. A missing document hashes as empty input.
func HashDocument(dir string) (string, error) {
	doc := filepath.Join(dir, skill.DocumentName)
	content, err := os.ReadFile(doc)
	if os.IsNotExist(err) {
		return skill.ContentHash(nil), nil
	}
	if err != nil {
		return "", skerr.NewIOError("", "read", doc, err)
	}
	return skill.ContentHash(content), nil
}

// Status is the verification outcome for one entry
type Status string

const (
	StatusOK      Status = "ok"
	StatusDrifted Status = "drifted"
	StatusMissing Status = "missing"
	// StatusUnhashed marks entries migrated from a legacy file, which
	// carry no hash until their next install
	StatusUnhashed Status = "unhashed"
)

// Verification compares an entry with what is on disk
type Verification struct {
	Name     string
	Path     string
	Status   Status
	Recorded string
	Current  string
}

// Verify checks every entry, sorted by name
func (s *Store) Verify() ([]Verification, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	out := make([]Verification, 0, len(entries))
	for _, e := range entries {
		v, err := verifyEntry(e)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func verifyEntry(e NamedEntry) (Verification, error) {
	v := Verification{Name: e.Name, Path: e.SkillPath, Recorded: e.Hash}

	if _, err := os.Stat(filepath.Join(e.SkillPath, skill.DocumentName)); os.IsNotExist(err) {
		v.Status = StatusMissing
		return v, nil
	}

	current, err := HashDocument(e.SkillPath)
	if err != nil {
		return v, err
	}
	v.Current = current

	switch {
	case e.Hash == "":
		v.Status = StatusUnhashed
	case e.Hash == current:
		v.Status = StatusOK
	default:
		v.Status = StatusDrifted
	}
	return v, nil
}
