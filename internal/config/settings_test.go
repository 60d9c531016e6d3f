package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoang/skillkit/internal/discovery"
	"github.com/samhoang/skillkit/internal/installer"
)

func TestLoadSettingsDefaults(t *testing.T) {
	t.Setenv(discovery.InternalSkillsEnv, "")

	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, discovery.DefaultMaxDepth, s.DiscoveryConfig().MaxDepth)
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Setenv(discovery.InternalSkillsEnv, "")
	path := filepath.Join(t.TempDir(), ".agents", "skillkit.toml")

	s := DefaultSettings()
	s.MaxDepth = 5
	s.Mode = "copy"
	s.DefaultAgents = []string{"claude", "cursor"}
	require.NoError(t, s.Save(path))

	loaded, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}

func TestLoadSettingsPartialFile(t *testing.T) {
	t.Setenv(discovery.InternalSkillsEnv, "")
	path := filepath.Join(t.TempDir(), "skillkit.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth = 1\n"), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 1, s.MaxDepth)
	assert.True(t, s.FallbackToCopy)
	assert.Equal(t, "symlink", s.Mode)
}

func TestLoadSettingsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skillkit.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth = [\n"), 0644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	s := DefaultSettings()
	s.ApplyEnv(func(k string) (string, bool) {
		return "1", k == discovery.InternalSkillsEnv
	})
	assert.True(t, s.AllowInternal)
	assert.True(t, s.DiscoveryConfig().AllowInternal)

	s = DefaultSettings()
	s.ApplyEnv(func(string) (string, bool) { return "yes", true })
	assert.False(t, s.AllowInternal)
}

func TestInstallConfig(t *testing.T) {
	s := DefaultSettings()
	cfg, err := s.InstallConfig("/c", []string{"/t"})
	require.NoError(t, err)
	assert.Equal(t, installer.Config{
		CanonicalDir:   "/c",
		TargetDirs:     []string{"/t"},
		Mode:           installer.ModeSymlink,
		FallbackToCopy: true,
	}, cfg)

	s.Mode = "hardlink"
	_, err = s.InstallConfig("/c", nil)
	assert.Error(t, err)
}
