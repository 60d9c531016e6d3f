package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skerr "github.com/samhoang/skillkit/internal/errors"
	"github.com/samhoang/skillkit/internal/provider"
	"github.com/samhoang/skillkit/internal/skill"
	"github.com/samhoang/skillkit/internal/symlink"
)

const demoDoc = "---\nname: demo\ndescription: Demo skill\n---\n\n# Demo"

func demoSkill() skill.Skill {
	return skill.Skill{Name: "demo", Description: "Demo skill", RawContent: []byte(demoDoc)}
}

// failingLinker refuses every link, as on a system without symlink support
type failingLinker struct {
	*symlink.Manager
}

func (failingLinker) Link(string, string) error {
	return errors.New("operation not permitted")
}

func newFailingLinker() failingLinker {
	return failingLinker{Manager: symlink.New()}
}

func TestInstallSymlink(t *testing.T) {
	root := t.TempDir()
	c := filepath.Join(root, "c")
	tdir := filepath.Join(root, "t")

	res, err := New().Install(context.Background(), demoSkill(), NewConfig(c, tdir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(c, "demo"), res.Path)
	assert.False(t, res.SymlinkFailed)

	content, err := os.ReadFile(filepath.Join(c, "demo", skill.DocumentName))
	require.NoError(t, err)
	assert.Equal(t, demoDoc, string(content))

	ok, err := symlink.New().PointsTo(filepath.Join(tdir, "demo"), filepath.Join(c, "demo"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, res.Targets, 1)
	assert.Equal(t, MethodSymlink, res.Targets[0].Method)
}

func TestInstallIdempotent(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t"))
	inst := New()

	first, err := inst.Install(context.Background(), demoSkill(), cfg)
	require.NoError(t, err)
	second, err := inst.Install(context.Background(), demoSkill(), cfg)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path)
	content, err := os.ReadFile(filepath.Join(second.Path, skill.DocumentName))
	require.NoError(t, err)
	assert.Equal(t, demoDoc, string(content))
}

func TestInstallCopyMode(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t1"), filepath.Join(root, "t2"))
	cfg.Mode = ModeCopy

	s := demoSkill()
	s.Assets = fstest.MapFS{
		"SKILL.md":        {Data: []byte("stale copy")},
		"scripts/run.sh":  {Data: []byte("echo hi")},
		"references/a.md": {Data: []byte("ref")},
	}

	res, err := New().Install(context.Background(), s, cfg)
	require.NoError(t, err)
	assert.False(t, res.SymlinkFailed)

	for _, dir := range []string{"t1", "t2"} {
		target := filepath.Join(root, dir, "demo")
		info, err := os.Lstat(target)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Zero(t, info.Mode()&os.ModeSymlink)

		content, err := os.ReadFile(filepath.Join(target, skill.DocumentName))
		require.NoError(t, err)
		assert.Equal(t, demoDoc, string(content))
		assert.FileExists(t, filepath.Join(target, "scripts", "run.sh"))
		assert.FileExists(t, filepath.Join(target, "references", "a.md"))
	}
}

func TestInstallFallbackToCopy(t *testing.T) {
	root := t.TempDir()
	tdir := filepath.Join(root, "t")

	res, err := New(WithLinker(newFailingLinker())).Install(context.Background(), demoSkill(), NewConfig(filepath.Join(root, "c"), tdir))
	require.NoError(t, err)
	assert.True(t, res.SymlinkFailed)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, MethodCopy, res.Targets[0].Method)

	content, err := os.ReadFile(filepath.Join(tdir, "demo", skill.DocumentName))
	require.NoError(t, err)
	assert.Equal(t, demoDoc, string(content))
}

func TestInstallNoFallbackFails(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t"))
	cfg.FallbackToCopy = false

	_, err := New(WithLinker(newFailingLinker())).Install(context.Background(), demoSkill(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, skerr.ErrIOFailure))
	assert.Contains(t, err.Error(), "symlink")
	assert.Contains(t, err.Error(), "demo")
}

func TestInstallReplacesExistingEntries(t *testing.T) {
	root := t.TempDir()
	tdir := filepath.Join(root, "t")

	// a stale directory with an extra file
	require.NoError(t, os.MkdirAll(filepath.Join(tdir, "demo"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tdir, "demo", "old.txt"), []byte("old"), 0644))

	_, err := New().Install(context.Background(), demoSkill(), NewConfig(filepath.Join(root, "c"), tdir))
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(tdir, "demo", "old.txt"))

	// a plain file
	other := filepath.Join(root, "t2")
	require.NoError(t, os.MkdirAll(other, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(other, "demo"), []byte("file"), 0644))

	_, err = New().Install(context.Background(), demoSkill(), NewConfig(filepath.Join(root, "c"), other))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(other, "demo", skill.DocumentName))
}

func TestInstallSkipsCanonicalTarget(t *testing.T) {
	root := t.TempDir()
	c := filepath.Join(root, "c")

	res, err := New().Install(context.Background(), demoSkill(), NewConfig(c, c))
	require.NoError(t, err)
	require.Len(t, res.Targets, 1)
	assert.Equal(t, MethodSkipped, res.Targets[0].Method)
	assert.FileExists(t, filepath.Join(c, "demo", skill.DocumentName))
}

func TestInstallFromCanonicalStore(t *testing.T) {
	root := t.TempDir()
	c := filepath.Join(root, "c")
	dir := filepath.Join(c, "demo")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("keep"), 0644))

	s := demoSkill()
	s.OriginPath = filepath.Join(dir, skill.DocumentName)
	s.Assets = os.DirFS(dir)

	_, err := New().Install(context.Background(), s, NewConfig(c))
	require.NoError(t, err)

	notes, err := os.ReadFile(filepath.Join(dir, "notes.md"))
	require.NoError(t, err)
	assert.Equal(t, "keep", string(notes))
}

func TestInstallWithProvider(t *testing.T) {
	root := t.TempDir()
	p := provider.NewStatic(demoSkill())

	res, err := New(WithProvider(p)).Install(context.Background(), demoSkill(), NewConfig(filepath.Join(root, "c")))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(res.Path, skill.DocumentName))
}

func TestInstallRejectsInvalidNames(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"", "..", "../evil", "a/b", `a\b`, "x..y"} {
		s := demoSkill()
		s.Name = name
		_, err := New().Install(context.Background(), s, NewConfig(filepath.Join(root, "c")))
		assert.Truef(t, errors.Is(err, skerr.ErrIOFailure), "name %q: %v", name, err)
	}
}

func TestInstallConcurrentDifferentNames(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t"))
	inst := New()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for n := range errs {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s := demoSkill()
			s.Name = string(rune('a' + n))
			_, errs[n] = inst.Install(context.Background(), s, cfg)
		}(n)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestUninstall(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t"))
	inst := New()

	_, err := inst.Install(context.Background(), demoSkill(), cfg)
	require.NoError(t, err)

	require.NoError(t, inst.Uninstall(context.Background(), "demo", cfg))
	assert.NoDirExists(t, filepath.Join(root, "c", "demo"))
	_, err = os.Lstat(filepath.Join(root, "t", "demo"))
	assert.True(t, os.IsNotExist(err))

	// nothing left to remove
	require.NoError(t, inst.Uninstall(context.Background(), "demo", cfg))
}

func TestUninstallLeavesForeignEntries(t *testing.T) {
	root := t.TempDir()
	canonical := filepath.Join(root, "c")
	target := filepath.Join(root, "t")
	cfg := NewConfig(canonical, target)

	// written by hand, never installed
	notes := filepath.Join(target, "notes")
	require.NoError(t, os.MkdirAll(notes, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(notes, skill.DocumentName), []byte("---\nname: notes\ndescription: mine\n---\n"), 0644))

	require.NoError(t, New().Uninstall(context.Background(), "notes", cfg))
	assert.FileExists(t, filepath.Join(notes, skill.DocumentName))
}

func TestUninstallLeavesEditedCopyAndForeignLink(t *testing.T) {
	root := t.TempDir()
	canonical := filepath.Join(root, "c")
	copies := filepath.Join(root, "copies")
	links := filepath.Join(root, "links")
	inst := New()

	cfg := NewConfig(canonical, copies)
	cfg.Mode = ModeCopy
	_, err := inst.Install(context.Background(), demoSkill(), cfg)
	require.NoError(t, err)
	edited := filepath.Join(copies, "demo", skill.DocumentName)
	require.NoError(t, os.WriteFile(edited, []byte("changed"), 0644))

	elsewhere := filepath.Join(root, "elsewhere")
	require.NoError(t, os.MkdirAll(elsewhere, 0755))
	require.NoError(t, os.MkdirAll(links, 0755))
	if err := os.Symlink(elsewhere, filepath.Join(links, "demo")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	require.NoError(t, inst.Uninstall(context.Background(), "demo", NewConfig(canonical, copies, links)))
	assert.NoDirExists(t, filepath.Join(canonical, "demo"))
	assert.FileExists(t, edited)
	_, err = os.Lstat(filepath.Join(links, "demo"))
	assert.NoError(t, err)
	assert.DirExists(t, elsewhere)
}

func TestUninstallRemovesCopies(t *testing.T) {
	root := t.TempDir()
	cfg := NewConfig(filepath.Join(root, "c"), filepath.Join(root, "t"))
	cfg.Mode = ModeCopy
	inst := New()

	_, err := inst.Install(context.Background(), demoSkill(), cfg)
	require.NoError(t, err)
	require.NoError(t, inst.Uninstall(context.Background(), "demo", cfg))
	assert.NoDirExists(t, filepath.Join(root, "t", "demo"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSymlink, m)

	m, err = ParseMode("COPY")
	require.NoError(t, err)
	assert.Equal(t, ModeCopy, m)

	_, err = ParseMode("hardlink")
	assert.Error(t, err)
}
