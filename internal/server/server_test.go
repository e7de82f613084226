package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pergament/internal/app"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/metrics"
	"git.home.luguber.info/inful/pergament/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ContentPath = t.TempDir()
	cfg.Site.Name = "Acme Docs"
	cfg.Site.URL = "https://acme.test"
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
	write(t, cfg.ContentPath, "blog/2024-03-02-shipping/post.md", "---\ntitle: Shipping\ncategory: Releases\ntags: [Dev Ops]\nauthor: Jane Doe\n---\n\nOut now.\n")
	write(t, cfg.ContentPath, "blog/2024-03-02-shipping/cover.png", "png-bytes")
	write(t, cfg.ContentPath, "pages/home.md", "# Welcome\n\nHello.\n")
	write(t, cfg.ContentPath, "pages/about.md", "# About\n\nUs.\n")
}

func testServer(t *testing.T, cfg *config.Config, opts Options) *httptest.Server {
	t.Helper()
	a, err := app.New(cfg)
	require.NoError(t, err)
	ts := httptest.NewServer(New(a, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_Homepage(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Hello.")
	assert.Contains(t, body, "<title>Home - Acme Docs</title>")
}

func TestServer_HomepageRedirectType(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Homepage.Type = "redirect"
	cfg.Homepage.Source = "/docs/"
	ts := testServer(t, cfg, Options{})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/docs/", resp.Header.Get("Location"))
}

func TestServer_DocIndexRedirectsToFirstPage(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(ts.URL + "/docs/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/docs/getting-started/introduction", resp.Header.Get("Location"))
}

func TestServer_DocPage(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/docs/getting-started/introduction")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Welcome.")
	assert.Contains(t, body, "Introduction")
}

func TestServer_DocPageNotFound(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, _ := get(t, ts, "/docs/getting-started/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_DocMedia(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/docs/media/getting-started/diagram.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", body)

	resp, _ = get(t, ts, "/docs/media/getting-started/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BlogRoutes(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	scenarios := map[string]string{
		"/blog/":                  "Shipping",
		"/blog/shipping":          "Out now.",
		"/blog/category/releases": "Releases",
		"/blog/tag/dev-ops":       "Shipping",
		"/blog/author/jane-doe":   "Jane Doe",
	}
	for path, want := range scenarios {
		resp, body := get(t, ts, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, body, want, path)
	}

	resp, _ := get(t, ts, "/blog/category/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BlogMedia(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/blog/media/shipping/cover.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", body)
}

func TestServer_Feed(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/blog/feed")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "atom")
	assert.Contains(t, body, "<feed")
}

func TestServer_SearchJSON(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/search?q=welcome")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

	var hits []content.SearchHit
	require.NoError(t, json.Unmarshal([]byte(body), &hits))
	require.Len(t, hits, 1)
	assert.Equal(t, "Introduction", hits[0].Title)
	assert.Equal(t, "doc", hits[0].Type)
}

func TestServer_EmptySearchReturnsSuggestions(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	_, body := get(t, ts, "/search")

	var hits []content.SearchHit
	require.NoError(t, json.Unmarshal([]byte(body), &hits))
	assert.NotEmpty(t, hits)
	assert.Equal(t, "Blog", hits[0].Title)
}

func TestServer_StandalonePage(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/about")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Us.")

	resp, _ = get(t, ts, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_TextEndpoints(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Sitemap: https://acme.test/sitemap.xml")

	resp, body = get(t, ts, "/sitemap.xml")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<urlset")

	resp, body = get(t, ts, "/llms.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "# Acme Docs")

	resp, body = get(t, ts, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestServer_DisabledSectionsNotRouted(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Blog.Enabled = false
	cfg.Search.Enabled = false
	ts := testServer(t, cfg, Options{})

	resp, _ := get(t, ts, "/blog/shipping")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, ts, "/search?q=welcome")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_MetricsEndpoint(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	ts := testServer(t, cfg, Options{Recorder: rec, Registry: reg})

	_, _ = get(t, ts, "/docs/getting-started/introduction")

	resp, body := get(t, ts, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "pergament_renders_total")
}

func TestServer_MetricsDisabledByConfig(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Server.Metrics.Enabled = false

	reg := prometheus.NewRegistry()
	ts := testServer(t, cfg, Options{Registry: reg})

	resp, _ := get(t, ts, "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_BasePrefixMounting(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)
	cfg.Prefix = "/handbook"
	ts := testServer(t, cfg, Options{})

	resp, body := get(t, ts, "/handbook/docs/getting-started/introduction")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/handbook/`)

	resp, _ = get(t, ts, "/docs/getting-started/introduction")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_RenderCacheServesAndInvalidates(t *testing.T) {
	cfg := testConfig(t)
	seedContent(t, cfg)

	cache, err := state.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	ts := testServer(t, cfg, Options{Cache: cache})

	_, body := get(t, ts, "/docs/getting-started/introduction")
	assert.Contains(t, body, "Welcome.")

	// Cached copy while content is unchanged.
	_, body = get(t, ts, "/docs/getting-started/introduction")
	assert.Contains(t, body, "Welcome.")

	// Changing the content changes the fingerprint and bypasses the cache.
	write(t, cfg.ContentPath, "docs/1-getting-started/1-introduction.md", "# Introduction\n\nRevised and much longer body.\n")

	_, body = get(t, ts, "/docs/getting-started/introduction")
	assert.Contains(t, body, "Revised and much longer body.")
}
