// Package embedded carries the skills compiled into the binary.
package embedded

import (
	"embed"
	"io/fs"
	"path"
	"sort"

	"github.com/pkg/errors"

	"github.com/samhoang/skillkit/internal/frontmatter"
	"github.com/samhoang/skillkit/internal/skill"
)

//go:embed skills
var skillsFS embed.FS

// FS returns the bundle rooted at the skills directory. Each skill is a
// subdirectory holding a SKILL.md and any auxiliary files.
func FS() fs.FS {
	sub, err := fs.Sub(skillsFS, "skills")
	if err != nil {
		// the embed directive guarantees the directory
		panic(err)
	}
	return sub
}

// Skills parses every SKILL.md in the bundle. The documents are
// explicitly requested content, so a malformed one is an error rather
// than a skipped file.
func Skills() ([]skill.Skill, error) {
	return Load(FS())
}

// Load parses every SKILL.md found in bundle, in lexical path order.
func Load(bundle fs.FS) ([]skill.Skill, error) {
	var docs []string
	err := fs.WalkDir(bundle, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == skill.DocumentName {
			docs = append(docs, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read embedded skills")
	}
	sort.Strings(docs)

	skills := make([]skill.Skill, 0, len(docs))
	for _, doc := range docs {
		content, err := fs.ReadFile(bundle, doc)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read embedded skill %s", doc)
		}

		s, err := frontmatter.ParseSkill(content, "")
		if err != nil {
			return nil, errors.Wrapf(err, "embedded skill %s", doc)
		}

		if dir := path.Dir(doc); dir != "." {
			assets, err := fs.Sub(bundle, dir)
			if err != nil {
				return nil, errors.Wrapf(err, "embedded skill %s", doc)
			}
			s.Assets = assets
		}
		skills = append(skills, *s)
	}
	return skills, nil
}
