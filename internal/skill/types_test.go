package skill

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skerr "github.com/samhoang/skillkit/internal/errors"
)

func TestParseKindEmbeddedAlias(t *testing.T) {
	self, err := ParseKind("self")
	require.NoError(t, err)
	embedded, err := ParseKind("embedded")
	require.NoError(t, err)

	assert.Equal(t, self, embedded)
	assert.True(t, embedded.IsEmbedded())
	assert.Equal(t, "self", embedded.String())
	assert.Equal(t, "Self", embedded.Label())
}

func TestKindNormalizesAlias(t *testing.T) {
	raw := Kind("embedded")
	assert.Equal(t, KindSelf, raw.Normalize())
	assert.True(t, raw.IsEmbedded())
	assert.Equal(t, "self", raw.String())
	assert.Equal(t, "Self", raw.Label())
	assert.False(t, raw.RequiresProvider())

	assert.Equal(t, KindGitHub, Kind("GitHub").Normalize())
	assert.True(t, Kind("GitHub").RequiresProvider())
	assert.Equal(t, Kind("svn"), Kind("svn").Normalize())
}

func TestParseKindUnknown(t *testing.T) {
	_, err := ParseKind("svn")
	require.Error(t, err)
	assert.True(t, errors.Is(err, skerr.ErrUnknownSource))
}

func TestKindRequiresProvider(t *testing.T) {
	assert.True(t, KindGitHub.RequiresProvider())
	assert.True(t, KindGitLab.RequiresProvider())
	assert.True(t, KindDirect.RequiresProvider())
	assert.False(t, KindLocal.RequiresProvider())
	assert.False(t, KindSelf.RequiresProvider())
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Source
	}{
		{"self", "self", Source{Kind: KindSelf}},
		{"embedded alias", "embedded", Source{Kind: KindSelf}},
		{"bare local", "local", Source{Kind: KindLocal, URL: "."}},
		{"local prefix", "local:/srv/skills", Source{Kind: KindLocal, URL: "/srv/skills"}},
		{"relative path", "./vendor/skills", Source{Kind: KindLocal, URL: "./vendor/skills"}},
		{"github prefix", "github:acme/skills/tools@v1", Source{Kind: KindGitHub, URL: "https://github.com/acme/skills", Subpath: "tools", Ref: "v1"}},
		{"gitlab prefix", "gitlab:acme/skills", Source{Kind: KindGitLab, URL: "https://gitlab.com/acme/skills"}},
		{"github url", "https://github.com/acme/skills", Source{Kind: KindGitHub, URL: "https://github.com/acme/skills"}},
		{"github tree url", "https://github.com/acme/skills/tree/main/pdf", Source{Kind: KindGitHub, URL: "https://github.com/acme/skills", Ref: "main", Subpath: "pdf"}},
		{"gitlab tree url", "https://gitlab.com/acme/skills/-/tree/dev/a/b", Source{Kind: KindGitLab, URL: "https://gitlab.com/acme/skills", Ref: "dev", Subpath: "a/b"}},
		{"archive url", "https://example.com/pkg.tar.gz", Source{Kind: KindDirect, URL: "https://example.com/pkg.tar.gz"}},
		{"direct prefix", "direct:https://example.com/pkg.zip", Source{Kind: KindDirect, URL: "https://example.com/pkg.zip"}},
		{"shorthand", "acme/skills@main", Source{Kind: KindGitHub, URL: "https://github.com/acme/skills", Ref: "main"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSource(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSourceRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "github", "svn:repo", "https://example.com/page", "not a source"} {
		_, err := ParseSource(in)
		assert.Truef(t, errors.Is(err, skerr.ErrUnknownSource), "input %q: %v", in, err)
	}
}

func TestContentHash(t *testing.T) {
	h1 := ContentHash([]byte("test content"))
	assert.Len(t, h1, 64)
	assert.Equal(t, h1, ContentHash([]byte("test content")))
	assert.NotEqual(t, h1, ContentHash([]byte("different content")))
	// sha256 of the empty input
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", ContentHash(nil))
}
