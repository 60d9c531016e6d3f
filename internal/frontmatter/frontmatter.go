// Package frontmatter splits a skill document into its YAML header and
// markdown body and turns the header into a skill record.
package frontmatter

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/skill"
)

const delimiter = "---"

var (
	errMissingDelimiter = errors.New("missing frontmatter delimiter")
	errUnterminated     = errors.New("unterminated frontmatter")
)

// Document is a parsed skill document
type Document struct {
	Fields map[string]any
	Body   string
}

// Parse splits content into header fields and body. The first line must be
// the delimiter and the header ends at the next delimiter line; anything
// else is a MalformedDocument error.
func Parse(content []byte) (*Document, error) {
	doc, err := parse(string(content))
	if err != nil {
		return nil, skerr.NewDocumentError("", err)
	}
	return doc, nil
}

func parse(content string) (*Document, error) {
	lines := strings.Split(content, "\n")
	if !isDelimiter(lines[0]) {
		return nil, errMissingDelimiter
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if isDelimiter(lines[i]) {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, errUnterminated
	}

	header := strings.Join(lines[1:end], "\n")
	return &Document{
		Fields: parseHeader(header),
		Body:   strings.Join(lines[end+1:], "\n"),
	}, nil
}

func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == delimiter
}

// parseHeader decodes the header as a YAML mapping. Headers that are not
// valid YAML (typically an unquoted description containing ": ") fall back
// to the line-oriented key: value reading.
func parseHeader(header string) map[string]any {
	fields := make(map[string]any)
	if err := yaml.Unmarshal([]byte(header), &fields); err == nil {
		return fields
	}
	return parseLines(header)
}

// parseLines reads "key: value" pairs. Indented lines below a key with an
// empty value become a nested mapping, one level deep.
func parseLines(header string) map[string]any {
	fields := make(map[string]any)
	var nested map[string]any

	for _, raw := range strings.Split(header, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		indented := line != strings.TrimLeft(line, " \t")
		if indented && nested != nil {
			nested[key] = scalar(value)
			continue
		}

		if value == "" {
			nested = make(map[string]any)
			fields[key] = nested
			continue
		}
		nested = nil
		fields[key] = scalar(value)
	}
	return fields
}

func scalar(v string) any {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			if s, err := strconv.Unquote(`"` + v[1:len(v)-1] + `"`); err == nil {
				return s
			}
			return v[1 : len(v)-1]
		}
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

// ParseSkill parses content into a skill record. origin is recorded on the
// skill and in errors; pass "" for embedded or remote documents.
func ParseSkill(content []byte, origin string) (*skill.Skill, error) {
	doc, err := parse(string(content))
	if err != nil {
		return nil, skerr.NewDocumentError(origin, err)
	}

	name := stringField(doc.Fields, "name")
	if name == "" {
		return nil, skerr.NewDocumentError(origin, skerr.ErrMissingName)
	}
	description := stringField(doc.Fields, "description")
	if description == "" {
		return nil, skerr.NewDocumentError(origin, skerr.ErrMissingDescription)
	}

	meta := skill.Metadata{
		Internal: internalFlag(doc.Fields),
		Extra:    make(map[string]any),
	}
	for k, v := range doc.Fields {
		switch k {
		case "name", "description", "internal":
			continue
		}
		meta.Extra[k] = v
	}

	return &skill.Skill{
		Name:        name,
		Description: description,
		OriginPath:  origin,
		RawContent:  content,
		Metadata:    meta,
	}, nil
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return strings.TrimSpace(s)
}

// internalFlag reads the top-level internal key, then metadata.internal.
func internalFlag(fields map[string]any) bool {
	if v, ok := fields["internal"].(bool); ok {
		return v
	}
	if m, ok := fields["metadata"].(map[string]any); ok {
		if v, ok := m["internal"].(bool); ok {
			return v
		}
	}
	return false
}
