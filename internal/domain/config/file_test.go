package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wpsteward/wpsteward/internal/domain/run"
	"github.com/wpsteward/wpsteward/internal/domain/step"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "wpsteward.toml", `
path = "/srv/www"
backup = false
commit_prefix = "site-a"
steps = ["core", "plugins"]
exclude_plugins = ["akismet"]
`)

	f, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/www", f.Path)
	require.NotNil(t, f.Backup)
	assert.False(t, *f.Backup)
	assert.Nil(t, f.Commit, "absent keys stay nil")
	assert.Equal(t, "site-a", f.CommitPrefix)
	assert.Equal(t, []string{"core", "plugins"}, f.Steps)
	assert.Equal(t, []string{"akismet"}, f.ExcludePlugins)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, IsUserError(err, ErrCodeConfigNotFound))
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.toml", "path = [unclosed")

	_, err := Load(path)
	assert.True(t, IsUserError(err, ErrCodeConfigParse))
}

func TestLoadOptional(t *testing.T) {
	f, err := LoadOptional(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestApply(t *testing.T) {
	backup := false
	f := File{
		Path:         "/srv/www",
		Backup:       &backup,
		CommitPrefix: "site-a",
		Steps:        []string{"themes"},
		RemovePaths:  []string{"{path}/tmp"},
	}

	cfg, err := f.Apply(run.DefaultConfig(""))
	require.NoError(t, err)

	assert.Equal(t, "/srv/www", cfg.Path)
	assert.False(t, cfg.BackupEnabled)
	assert.True(t, cfg.CommitEnabled, "absent keys keep their defaults")
	assert.Equal(t, "site-a", cfg.CommitPrefix)
	assert.Equal(t, []step.ID{step.IDThemes}, cfg.Steps)
	assert.Equal(t, []string{"{path}/tmp"}, cfg.RemovePaths)
}

func TestApply_UnknownStep(t *testing.T) {
	f := File{Steps: []string{"widgets"}}

	_, err := f.Apply(run.DefaultConfig("/srv/www"))
	require.Error(t, err)
	assert.True(t, IsUserError(err, ErrCodeStepUnknown))

	ue := GetUserError(err)
	require.NotNil(t, ue)
	assert.Contains(t, ue.Suggestion, "core")
}

func TestApply_RulesFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yml", `
steps:
  plugins:
    skip_markers:
      - "all quiet"
`)

	f := File{RulesFile: rulesPath}
	cfg, err := f.Apply(run.DefaultConfig("/srv/www"))
	require.NoError(t, err)

	require.Contains(t, cfg.Rules, step.IDPlugins)
	assert.Equal(t, []string{"all quiet"}, cfg.Rules[step.IDPlugins].SkipMarkers)
}

func TestApply_BadRulesFile(t *testing.T) {
	dir := t.TempDir()
	rulesPath := writeFile(t, dir, "rules.yml", "steps: [not, a, map]")

	f := File{RulesFile: rulesPath}
	_, err := f.Apply(run.DefaultConfig("/srv/www"))
	assert.True(t, IsUserError(err, ErrCodeRulesInvalid))
}

func TestParseSteps(t *testing.T) {
	ids, err := ParseSteps([]string{"core", "translations"})
	require.NoError(t, err)
	assert.Equal(t, []step.ID{step.IDCore, step.IDTranslations}, ids)

	_, err = ParseSteps([]string{"bogus"})
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	explicit := writeFile(t, dir, "custom.toml", `path = "/srv/www"`)

	f, found, err := Resolve(explicit)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/srv/www", f.Path)

	// Explicit paths must exist.
	_, _, err = Resolve(filepath.Join(dir, "missing.toml"))
	assert.True(t, IsUserError(err, ErrCodeConfigNotFound))
}

func TestResolve_DefaultMissing(t *testing.T) {
	t.Chdir(t.TempDir())

	f, found, err := Resolve("")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, File{}, f)
}

func TestUserError(t *testing.T) {
	base := NewUserError(ErrCodeConfigInvalid, "bad config")
	err := base.WithContext("wpsteward.toml").WithSuggestion("fix it").WithUnderlying(errors.New("boom"))

	assert.Equal(t, "bad config (at wpsteward.toml)", err.Error())
	assert.Contains(t, err.Format(), "[CONFIG_INVALID]")
	assert.Contains(t, err.Format(), "Suggestion: fix it")
	assert.EqualError(t, errors.Unwrap(err), "boom")
	assert.True(t, errors.Is(err, NewUserError(ErrCodeConfigInvalid, "other")))
}
