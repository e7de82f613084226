package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/metrics"
)

type captureRecorder struct {
	metrics.NoopRecorder
	outcomes []string
	files    int
}

func (c *captureRecorder) IncExportOutcome(outcome string) { c.outcomes = append(c.outcomes, outcome) }
func (c *captureRecorder) IncExportedFiles(n int)          { c.files += n }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ContentPath = t.TempDir()
	cfg.Site.Name = "Acme Docs"
	cfg.Site.URL = "https://acme.test"
	cfg.Blog.DefaultAuthors = []config.AuthorConfig{{Name: "Jane Doe"}}
	return cfg
}

func write(t *testing.T, root, rel, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func seedContent(t *testing.T, cfg *config.Config) {
	t.Helper()
	write(t, cfg.ContentPath, "docs/1-getting-started/1-introduction.md", "# Introduction\n\nWelcome.\n")
	write(t, cfg.ContentPath, "docs/1-getting-started/diagram.png", "png-bytes")
	write(t, cfg.ContentPath, "blog/2024-03-02-shipping/post.md", "---\ntitle: Shipping\ncategory: Releases\ntags: [Dev Ops]\n---\n\nOut now.\n")
	write(t, cfg.ContentPath, "blog/2024-03-02-shipping/cover.png", "png-bytes")
	write(t, cfg.ContentPath, "blog/2024-03-01-older/post.md", "---\ntitle: Older\n---\n\nBefore.\n")
	write(t, cfg.ContentPath, "pages/home.md", "# Welcome\n\nHello.\n")
	write(t, cfg.ContentPath, "pages/about.md", "# About\n\nUs.\n")
}

func runExport(t *testing.T, cfg *config.Config, opts Options, rec metrics.Recorder) (Summary, string) {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	exp, err := New(cfg, opts, rec)
	require.NoError(t, err)
	sum, err := exp.Run(context.Background())
	require.NoError(t, err)
	return sum, opts.OutputDir
}

func readFile(t *testing.T, out, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(b)
}

func TestRun_WritesFullSiteTree(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	sum, out := runExport(t, cfg, Options{}, nil)

	for _, rel := range []string{
		"index.html",
		"docs/index.html",
		"docs/getting-started/introduction/index.html",
		"docs/media/getting-started/diagram.png",
		"blog/index.html",
		"blog/page/1/index.html",
		"blog/shipping/index.html",
		"blog/older/index.html",
		"blog/category/releases/index.html",
		"blog/tag/dev-ops/index.html",
		"blog/author/jane-doe/index.html",
		"blog/media/shipping/cover.png",
		"blog/feed/index.xml",
		"about/index.html",
		"sitemap.xml",
		"robots.txt",
		"llms.txt",
	} {
		assert.FileExists(t, filepath.Join(out, filepath.FromSlash(rel)), rel)
	}

	assert.NotEmpty(t, sum.RunID)
	assert.Empty(t, sum.Warnings)
	assert.Greater(t, sum.Files, 10)
}

func TestRun_HomepagePageNotDuplicated(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	_, out := runExport(t, cfg, Options{}, nil)

	assert.Contains(t, readFile(t, out, "index.html"), "Hello.")
	assert.NoFileExists(t, filepath.Join(out, "home", "index.html"))
}

func TestRun_DocIndexRedirectsToFirstPage(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	_, out := runExport(t, cfg, Options{}, nil)

	assert.Contains(t, readFile(t, out, "docs/index.html"), "0;url=/docs/getting-started/introduction")
}

func TestRun_PaginationLinksRewrittenToStaticPaths(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Blog.PerPage = 1

	_, out := runExport(t, cfg, Options{}, nil)

	index := readFile(t, out, "blog/index.html")
	assert.Contains(t, index, `href="/blog/page/2/"`)
	assert.NotContains(t, index, "?page=")
	assert.FileExists(t, filepath.Join(out, "blog", "page", "2", "index.html"))
}

func TestRun_HomepageBlogIndex(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Homepage.Type = "blog-index"

	_, out := runExport(t, cfg, Options{}, nil)

	assert.Contains(t, readFile(t, out, "index.html"), "Shipping")
}

func TestRun_HomepageRedirect(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Homepage.Type = "redirect"
	cfg.Homepage.Source = "/docs"

	_, out := runExport(t, cfg, Options{}, nil)

	assert.Contains(t, readFile(t, out, "index.html"), "0;url=/docs")
}

func TestRun_DisabledSectionsSkipped(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Blog.Enabled = false
	cfg.Sitemap.Enabled = false
	cfg.LLMS.Enabled = false

	_, out := runExport(t, cfg, Options{}, nil)

	assert.NoFileExists(t, filepath.Join(out, "blog", "index.html"))
	assert.NoFileExists(t, filepath.Join(out, "sitemap.xml"))
	assert.NoFileExists(t, filepath.Join(out, "llms.txt"))
	assert.FileExists(t, filepath.Join(out, "robots.txt"))
}

func TestRun_RobotsReferencesSitemap(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	_, out := runExport(t, cfg, Options{}, nil)

	robots := readFile(t, out, "robots.txt")
	assert.Contains(t, robots, "User-agent: *")
	assert.Contains(t, robots, "Sitemap: https://acme.test/sitemap.xml")
}

func TestRun_RobotsCustomContent(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Robots.Content = "User-agent: *\nDisallow: /"

	_, out := runExport(t, cfg, Options{}, nil)

	assert.Equal(t, "User-agent: *\nDisallow: /", readFile(t, out, "robots.txt"))
}

func TestRun_LLMSDefaultContent(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Site.SEO["description"] = "Product documentation"

	_, out := runExport(t, cfg, Options{}, nil)

	llms := readFile(t, out, "llms.txt")
	assert.Contains(t, llms, "# Acme Docs")
	assert.Contains(t, llms, "> Product documentation")
	assert.Contains(t, llms, "https://acme.test/docs")
}

func TestRun_BrokenLinksBecomeWarningsNotErrors(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	write(t, cfg.ContentPath, "docs/1-getting-started/2-broken.md", "# Broken\n\nSee [missing](missing.md).\n")

	rec := &captureRecorder{}
	sum, out := runExport(t, cfg, Options{}, rec)

	assert.NotEmpty(t, sum.Warnings)
	assert.FileExists(t, filepath.Join(out, "docs", "getting-started", "broken", "index.html"))
	assert.Equal(t, []string{"warning"}, rec.outcomes)
}

func TestRun_RecordsMetricsOnSuccess(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	rec := &captureRecorder{}
	sum, _ := runExport(t, cfg, Options{}, rec)

	assert.Equal(t, []string{"success"}, rec.outcomes)
	assert.Equal(t, sum.Files, rec.files)
}

func TestRun_CleanRemovesStaleFiles(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	out := t.TempDir()
	write(t, out, "stale/index.html", "old")

	_, _ = runExport(t, cfg, Options{OutputDir: out, Clean: true}, nil)

	assert.NoFileExists(t, filepath.Join(out, "stale", "index.html"))
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestRun_WithoutCleanKeepsExistingFiles(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	out := t.TempDir()
	write(t, out, "stale/index.html", "old")

	_, _ = runExport(t, cfg, Options{OutputDir: out}, nil)

	assert.FileExists(t, filepath.Join(out, "stale", "index.html"))
}

func TestRun_PrefixOverrideDoesNotMutateCaller(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	_, out := runExport(t, cfg, Options{Prefix: "/handbook", BaseURL: "https://corp.example"}, nil)

	doc := readFile(t, out, "docs/getting-started/introduction/index.html")
	assert.Contains(t, doc, `href="/handbook/`)
	assert.Contains(t, readFile(t, out, "robots.txt"), "https://corp.example/handbook/sitemap.xml")

	assert.Equal(t, "/", cfg.Prefix)
	assert.Equal(t, "https://acme.test", cfg.Site.URL)
}

func TestRun_SitemapListsPostWithLastmod(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	_, out := runExport(t, cfg, Options{}, nil)

	sm := readFile(t, out, "sitemap.xml")
	assert.Contains(t, sm, "<loc>https://acme.test/blog/shipping</loc>")
	assert.Contains(t, sm, "<lastmod>2024-03-02</lastmod>")
}

func TestRun_CancelledContextFails(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	exp, err := New(cfg, Options{OutputDir: t.TempDir()}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = exp.Run(ctx)
	require.Error(t, err)
}

func TestRun_EmptyContentStillProducesCoreFiles(t *testing.T) {
	cfg := testConfig(t)

	sum, out := runExport(t, cfg, Options{}, nil)

	assert.NoFileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "sitemap.xml"))
	assert.FileExists(t, filepath.Join(out, "robots.txt"))
	assert.Empty(t, sum.Warnings)
	assert.Greater(t, sum.Duration, time.Duration(0))
}
