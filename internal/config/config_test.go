package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))

	require.Error(t, err)
}

func TestLoad_AppliesDefaultsOverPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pergament.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
content_path: `+dir+`
site:
  name: My Site
blog:
  per_page: 5
docs:
  enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "My Site", cfg.Site.Name)
	assert.Equal(t, 5, cfg.Blog.PerPage)
	assert.False(t, cfg.Docs.Enabled)
	assert.True(t, cfg.Blog.Enabled, "unset sections keep defaults")
	assert.Equal(t, "docs", cfg.Docs.URLPrefix)
	assert.Equal(t, "/", cfg.Prefix)
	assert.Equal(t, "atom", cfg.Blog.Feed.Type)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("PERGAMENT_TEST_SITE_URL", "https://env.example.com")
	dir := t.TempDir()
	path := filepath.Join(dir, "pergament.yaml")
	require.NoError(t, os.WriteFile(path, []byte("site:\n  url: ${PERGAMENT_TEST_SITE_URL}\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Site.URL)
}

func TestContentDirs_AreAbsolute(t *testing.T) {
	cfg := Default()
	cfg.ContentPath = "content"

	assert.True(t, filepath.IsAbs(cfg.DocsDir()))
	assert.Equal(t, "docs", filepath.Base(cfg.DocsDir()))
	assert.Equal(t, "blog", filepath.Base(cfg.BlogDir()))
	assert.Equal(t, "pages", filepath.Base(cfg.PagesDir()))
}

func TestClone_DoesNotShareSeoMap(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Site.SEO["title"] = "changed"
	clone.Prefix = "export"

	assert.NotEqual(t, "changed", cfg.Site.SEO["title"])
	assert.Equal(t, "/", cfg.Prefix)
}
