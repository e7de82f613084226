// Package app wires the content repositories and services from a loaded
// configuration. Construction is cheap; repositories hold no state beyond
// their dependencies and re-scan the filesystem per call.
package app

import (
	"strings"

	"git.home.luguber.info/inful/pergament/internal/blog"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/docs"
	"git.home.luguber.info/inful/pergament/internal/feed"
	"git.home.luguber.info/inful/pergament/internal/highlight"
	"git.home.luguber.info/inful/pergament/internal/markdown"
	"git.home.luguber.info/inful/pergament/internal/pages"
	"git.home.luguber.info/inful/pergament/internal/search"
	"git.home.luguber.info/inful/pergament/internal/seo"
	"git.home.luguber.info/inful/pergament/internal/sitemap"
	"git.home.luguber.info/inful/pergament/internal/urls"
	"git.home.luguber.info/inful/pergament/internal/view"
)

// App bundles every component built from one configuration.
type App struct {
	Cfg      *config.Config
	URLs     *urls.Generator
	Markdown *markdown.Renderer
	Docs     *docs.Repository
	Blog     *blog.Repository
	Pages    *pages.Repository
	Search   *search.Index
	SEO      *seo.Service
	Feed     *feed.Service
	Sitemap  *sitemap.Service
	View     *view.Renderer
}

// RobotsTxt returns the robots.txt body, honoring a configured override.
func (a *App) RobotsTxt() string {
	if a.Cfg.Robots.Content != "" {
		return a.Cfg.Robots.Content
	}
	lines := []string{"User-agent: *", "Allow: /"}
	if a.Cfg.Sitemap.Enabled {
		lines = append(lines, "", "Sitemap: "+a.URLs.URL("sitemap.xml"))
	}
	return strings.Join(lines, "\n")
}

// LLMSTxt returns the llms.txt body, honoring a configured override.
func (a *App) LLMSTxt() string {
	if a.Cfg.LLMS.Content != "" {
		return a.Cfg.LLMS.Content
	}
	lines := []string{"# " + a.Cfg.Site.Name}
	if desc, ok := a.Cfg.Site.SEO["description"].(string); ok && desc != "" {
		lines = append(lines, "", "> "+desc)
	}
	lines = append(lines, "", "## Documentation", "",
		"Documentation is available at "+a.URLs.URL(a.Cfg.Docs.URLPrefix))
	return strings.Join(lines, "\n")
}

// New builds the full component graph for cfg.
func New(cfg *config.Config) (*App, error) {
	gen := urls.New(cfg.Prefix, cfg.Site.URL)
	renderer := markdown.New(markdown.Options{
		Footnotes:  cfg.Markdown.Footnotes,
		DocsDir:    cfg.DocsDir(),
		BlogDir:    cfg.BlogDir(),
		PagesDir:   cfg.PagesDir(),
		DocsPrefix: cfg.Docs.URLPrefix,
		BlogPrefix: cfg.Blog.URLPrefix,
		PathFunc:   gen.Path,
	}, highlight.New(cfg.Markdown.HighlightStyle))

	d := docs.NewRepository(cfg, renderer, gen)
	b := blog.NewRepository(cfg, renderer, gen)
	p := pages.NewRepository(cfg, renderer, gen)

	v, err := view.New(cfg, gen)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:      cfg,
		URLs:     gen,
		Markdown: renderer,
		Docs:     d,
		Blog:     b,
		Pages:    p,
		Search:   search.NewIndex(cfg, d, b, p, gen),
		SEO:      seo.NewService(cfg),
		Feed:     feed.NewService(cfg, b, gen),
		Sitemap:  sitemap.NewService(cfg, d, b, gen),
		View:     v,
	}, nil
}
