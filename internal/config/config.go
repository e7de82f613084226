// Package config loads the immutable pergament.yaml configuration. The
// struct is constructed once per process and passed into every component;
// nothing reads configuration ambiently.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	ContentPath string         `yaml:"content_path"`
	Prefix      string         `yaml:"prefix"`
	Site        SiteConfig     `yaml:"site"`
	Homepage    HomepageConfig `yaml:"homepage"`
	Docs        DocsConfig     `yaml:"docs"`
	Blog        BlogConfig     `yaml:"blog"`
	Pages       PagesConfig    `yaml:"pages"`
	Search      ToggleConfig   `yaml:"search"`
	Sitemap     ToggleConfig   `yaml:"sitemap"`
	Robots      TextConfig     `yaml:"robots"`
	LLMS        TextConfig     `yaml:"llms"`
	Markdown    MarkdownConfig `yaml:"markdown"`
	Cache       CacheConfig    `yaml:"cache"`
	Server      ServerConfig   `yaml:"server"`
}

// SiteConfig holds global site settings. SEO carries the site-wide defaults
// that page front matter overrides via dot notation (seo.title etc.).
type SiteConfig struct {
	Name   string         `yaml:"name"`
	URL    string         `yaml:"url"`
	Locale string         `yaml:"locale"`
	SEO    map[string]any `yaml:"seo"`
}

// HomepageConfig selects what renders at the base URL.
// Type is one of "page", "doc-page", "blog-index", "redirect".
type HomepageConfig struct {
	Type   string `yaml:"type"`
	Source string `yaml:"source"`
}

type DocsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	URLPrefix string `yaml:"url_prefix"`
	Title     string `yaml:"title"`
}

type BlogConfig struct {
	Enabled        bool           `yaml:"enabled"`
	Path           string         `yaml:"path"`
	URLPrefix      string         `yaml:"url_prefix"`
	Title          string         `yaml:"title"`
	PerPage        int            `yaml:"per_page"`
	DefaultAuthors []AuthorConfig `yaml:"default_authors"`
	Feed           FeedConfig     `yaml:"feed"`
}

// AuthorConfig is a configured default author applied to posts that declare
// none of their own.
type AuthorConfig struct {
	Name   string `yaml:"name"`
	Email  string `yaml:"email"`
	URL    string `yaml:"url"`
	Avatar string `yaml:"avatar"`
}

type FeedConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Type        string `yaml:"type"` // "atom" or "rss"
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Limit       int    `yaml:"limit"`
}

type PagesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ToggleConfig is a bare enabled flag.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// TextConfig is an enabled flag plus optional literal content
// (robots.txt, llms.txt overrides).
type TextConfig struct {
	Enabled bool   `yaml:"enabled"`
	Content string `yaml:"content"`
}

type MarkdownConfig struct {
	Footnotes      bool   `yaml:"footnotes"`
	HighlightStyle string `yaml:"highlight_style"`
}

// CacheConfig controls the optional render cache. Invalidation is wholesale,
// keyed by a recursive fingerprint of the content directory.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Addr    string       `yaml:"addr"`
	Metrics ToggleConfig `yaml:"metrics"`
}

// Load reads configuration from the given file, loading .env first and
// expanding environment variables in the YAML before unmarshalling.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns a configuration with every default applied, suitable for
// running against a local content directory without a config file.
func Default() *Config {
	cfg := &Config{
		ContentPath: "content",
		Prefix:      "/",
		Site: SiteConfig{
			Name:   "Pergament",
			URL:    "http://localhost",
			Locale: "en",
		},
		Homepage: HomepageConfig{Type: "page", Source: "home"},
		Docs:     DocsConfig{Enabled: true, Path: "docs", URLPrefix: "docs", Title: "Documentation"},
		Blog: BlogConfig{
			Enabled:   true,
			Path:      "blog",
			URLPrefix: "blog",
			Title:     "Blog",
			PerPage:   12,
			Feed:      FeedConfig{Enabled: true, Type: "atom", Limit: 20},
		},
		Pages:   PagesConfig{Enabled: true, Path: "pages"},
		Search:  ToggleConfig{Enabled: true},
		Sitemap: ToggleConfig{Enabled: true},
		Robots:  TextConfig{Enabled: true},
		LLMS:    TextConfig{Enabled: true},
		Server:  ServerConfig{Addr: ":8080", Metrics: ToggleConfig{Enabled: true}},
	}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills zero values that yaml unmarshalling may have cleared.
func (c *Config) applyDefaults() {
	if c.ContentPath == "" {
		c.ContentPath = "content"
	}
	if c.Prefix == "" {
		c.Prefix = "/"
	}
	if c.Site.Name == "" {
		c.Site.Name = "Pergament"
	}
	if c.Site.SEO == nil {
		c.Site.SEO = map[string]any{
			"title":        c.Site.Name,
			"description":  "",
			"keywords":     "",
			"og_image":     "",
			"twitter_card": "summary_large_image",
			"robots":       "index, follow",
		}
	}
	if c.Homepage.Type == "" {
		c.Homepage.Type = "page"
	}
	if c.Homepage.Source == "" {
		c.Homepage.Source = "home"
	}
	if c.Docs.Path == "" {
		c.Docs.Path = "docs"
	}
	if c.Docs.URLPrefix == "" {
		c.Docs.URLPrefix = "docs"
	}
	if c.Docs.Title == "" {
		c.Docs.Title = "Documentation"
	}
	if c.Blog.Path == "" {
		c.Blog.Path = "blog"
	}
	if c.Blog.URLPrefix == "" {
		c.Blog.URLPrefix = "blog"
	}
	if c.Blog.Title == "" {
		c.Blog.Title = "Blog"
	}
	if c.Blog.PerPage <= 0 {
		c.Blog.PerPage = 12
	}
	if c.Blog.Feed.Type == "" {
		c.Blog.Feed.Type = "atom"
	}
	if c.Blog.Feed.Limit <= 0 {
		c.Blog.Feed.Limit = 20
	}
	if c.Pages.Path == "" {
		c.Pages.Path = "pages"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = ".pergament-cache.db"
	}
}

// DocsDir returns the absolute documentation content root.
func (c *Config) DocsDir() string {
	return c.contentDir(c.Docs.Path)
}

// BlogDir returns the absolute blog content root.
func (c *Config) BlogDir() string {
	return c.contentDir(c.Blog.Path)
}

// PagesDir returns the absolute pages content root.
func (c *Config) PagesDir() string {
	return c.contentDir(c.Pages.Path)
}

func (c *Config) contentDir(sub string) string {
	p := filepath.Join(c.ContentPath, sub)
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// Clone returns a deep-enough copy for export-time overrides (prefix,
// base URL) without mutating the caller's configuration.
func (c *Config) Clone() *Config {
	out := *c
	if c.Site.SEO != nil {
		seo := make(map[string]any, len(c.Site.SEO))
		for k, v := range c.Site.SEO {
			seo[k] = v
		}
		out.Site.SEO = seo
	}
	out.Blog.DefaultAuthors = append([]AuthorConfig(nil), c.Blog.DefaultAuthors...)
	return &out
}
