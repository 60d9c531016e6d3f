package remote

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoang/skillkit/internal/provider"
	"github.com/samhoang/skillkit/internal/skill"
)

const demoDoc = "---\nname: demo\ndescription: Demo skill\n---\n\n# Demo"

func archiveFiles() map[string]string {
	return map[string]string{
		"pkg-main/skills/demo/SKILL.md":       demoDoc,
		"pkg-main/skills/demo/scripts/run.sh": "#!/bin/sh\necho demo\n",
		"pkg-main/skills/hidden/SKILL.md":     "---\nname: hidden\ndescription: Hidden\ninternal: true\n---\n",
		"pkg-main/README.md":                  "readme",
	}
}

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func serve(t *testing.T, payloads map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := payloads[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func names(skills []skill.Skill) []string {
	var out []string
	for _, s := range skills {
		out = append(out, s.Name)
	}
	return out
}

func TestArchiveDiscoverAndFetch(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/pkg.tar.gz": buildTarGz(t, archiveFiles()),
		"/pkg.zip":    buildZip(t, archiveFiles()),
	})

	for _, path := range []string{"/pkg.tar.gz", "/pkg.zip"} {
		t.Run(path, func(t *testing.T) {
			ctx := context.Background()
			a := NewArchiveWithClient(srv.Client())
			defer a.Close()

			skills, err := a.Discover(ctx, srv.URL+path, "")
			require.NoError(t, err)
			// internal skills are left for the resolver to filter
			assert.ElementsMatch(t, []string{"demo", "hidden"}, names(skills))

			var demo skill.Skill
			for _, s := range skills {
				if s.Name == "demo" {
					demo = s
				}
			}
			assert.Equal(t, []byte(demoDoc), demo.RawContent)

			dest := filepath.Join(t.TempDir(), "demo")
			require.NoError(t, a.Fetch(ctx, demo, dest))
			assert.FileExists(t, filepath.Join(dest, skill.DocumentName))
			assert.FileExists(t, filepath.Join(dest, "scripts", "run.sh"))

			hash, err := a.Hash(ctx, demo)
			require.NoError(t, err)
			assert.Equal(t, skill.ContentHash([]byte(demoDoc)), hash)
		})
	}
}

func TestArchiveSubpath(t *testing.T) {
	srv := serve(t, map[string][]byte{"/pkg.tgz": buildTarGz(t, archiveFiles())})
	a := NewArchiveWithClient(srv.Client())
	defer a.Close()

	skills, err := a.Discover(context.Background(), srv.URL+"/pkg.tgz", "skills/demo")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, names(skills))

	_, err = a.Discover(context.Background(), srv.URL+"/pkg.tgz", "missing")
	require.Error(t, err)

	_, err = a.Discover(context.Background(), srv.URL+"/pkg.tgz", "../..")
	require.Error(t, err)
}

func TestArchiveHTTPError(t *testing.T) {
	srv := serve(t, nil)
	a := NewArchiveWithClient(srv.Client())
	defer a.Close()

	_, err := a.Discover(context.Background(), srv.URL+"/missing.zip", "")
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "http download", rerr.Op)
	assert.Contains(t, err.Error(), "status 404")
}

func TestArchiveRejectsTraversal(t *testing.T) {
	srv := serve(t, map[string][]byte{
		"/evil.tar.gz": buildTarGz(t, map[string]string{"../escape.txt": "x", "ok/SKILL.md": demoDoc}),
	})
	a := NewArchiveWithClient(srv.Client())
	defer a.Close()

	_, err := a.Discover(context.Background(), srv.URL+"/evil.tar.gz", "")
	require.Error(t, err)
}

func TestCloseRemovesCheckouts(t *testing.T) {
	srv := serve(t, map[string][]byte{"/pkg.zip": buildZip(t, archiveFiles())})
	a := NewArchiveWithClient(srv.Client())

	skills, err := a.Discover(context.Background(), srv.URL+"/pkg.zip", "")
	require.NoError(t, err)
	require.NotEmpty(t, skills)
	origin := skills[0].OriginPath
	assert.FileExists(t, origin)

	require.NoError(t, provider.Close(a))
	_, err = os.Stat(origin)
	assert.True(t, os.IsNotExist(err))
}

func TestCommonTopDir(t *testing.T) {
	assert.Equal(t, "pkg", commonTopDir([]string{"pkg/", "pkg/a/SKILL.md", "pkg/b"}))
	assert.Equal(t, "", commonTopDir([]string{"pkg/a", "README.md"}))
	assert.Equal(t, "", commonTopDir([]string{"a/x", "b/y"}))
}

func TestNormalizeGitURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://github.com/acme/skills", "https://github.com/acme/skills.git"},
		{"https://gitlab.com/acme/skills.git", "https://gitlab.com/acme/skills.git"},
		{"github.com/acme/skills", "https://github.com/acme/skills.git"},
		{"git@github.com:acme/skills.git", "git@github.com:acme/skills.git"},
		{"/srv/repos/skills", "/srv/repos/skills"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeGitURL(tt.in), tt.in)
	}
}

func TestGitDiscoverLocalRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	repo := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(repo, "skills", "demo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(repo, "skills", "demo", skill.DocumentName), []byte(demoDoc), 0644))

	run := func(args ...string) {
		cmd := exec.Command("git", append([]string{"-C", repo, "-c", "user.name=test", "-c", "user.email=test@example.com"}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("add", ".")
	run("commit", "-q", "-m", "init")

	g := NewGit("")
	defer g.Close()

	skills, err := g.Discover(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, names(skills))

	dest := filepath.Join(t.TempDir(), "demo")
	require.NoError(t, g.Fetch(context.Background(), skills[0], dest))
	content, err := os.ReadFile(filepath.Join(dest, skill.DocumentName))
	require.NoError(t, err)
	assert.Equal(t, demoDoc, string(content))
}

func TestGitCloneFailure(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g := NewGit("")
	defer g.Close()

	_, err := g.Discover(context.Background(), filepath.Join(t.TempDir(), "missing"), "")
	require.Error(t, err)
	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "git clone", rerr.Op)
}

func TestRegisteredFactories(t *testing.T) {
	assert.IsType(t, &Git{}, provider.ForSource(skill.Source{Kind: skill.KindGitHub, Ref: "v1"}))
	assert.IsType(t, &Git{}, provider.ForSource(skill.Source{Kind: skill.KindGitLab}))
	assert.IsType(t, &Archive{}, provider.ForSource(skill.Source{Kind: skill.KindDirect}))
	assert.Nil(t, provider.ForSource(skill.Source{Kind: skill.KindLocal}))
}

func TestScanPolicyFromFactory(t *testing.T) {
	nested := func(name string) string {
		return "---\nname: " + name + "\ndescription: " + name + " skill\n---\n"
	}
	srv := serve(t, map[string][]byte{"/pkg.tar.gz": buildTarGz(t, map[string]string{
		"pkg-main/lib/one/SKILL.md":        nested("one"),
		"pkg-main/a/b/c/d/deep/SKILL.md":   nested("deep"),
		"pkg-main/a/b/c/d/deep/ref/doc.md": "ref",
	})})
	url := srv.URL + "/pkg.tar.gz"
	src := skill.Source{Kind: skill.KindDirect, URL: url}

	discover := func(opts ...provider.Option) []string {
		p := provider.ForSource(src, opts...)
		require.NotNil(t, p)
		defer provider.Close(p)
		skills, err := p.Discover(context.Background(), url, "")
		require.NoError(t, err)
		return names(skills)
	}

	assert.Equal(t, []string{"one"}, discover())
	assert.ElementsMatch(t, []string{"one", "deep"}, discover(provider.WithScanPolicy(6, nil)))
	assert.Equal(t, []string{"deep"}, discover(provider.WithScanPolicy(6, []string{"**/lib"})))
}
