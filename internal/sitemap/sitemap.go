// Package sitemap renders sitemap.xml over every discoverable URL.
package sitemap

import (
	"fmt"
	"html"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/blog"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/docs"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

// Service walks the content repositories and emits one <url> per page.
type Service struct {
	cfg  *config.Config
	docs *docs.Repository
	blog *blog.Repository
	urls *urls.Generator
}

func NewService(cfg *config.Config, d *docs.Repository, b *blog.Repository, gen *urls.Generator) *Service {
	return &Service{cfg: cfg, docs: d, blog: b, urls: gen}
}

type entry struct {
	loc      string
	lastmod  string
	priority string
}

// Generate renders the sitemap. Priorities descend from the homepage (1.0)
// through doc pages (0.8), the blog index (0.7), posts (0.6), categories
// (0.5) and tags (0.4). Posts carry their date as lastmod.
func (s *Service) Generate() (string, error) {
	entries := []entry{{loc: s.urls.URL(), priority: "1.0"}}

	if s.cfg.Docs.Enabled {
		chapters, err := s.docs.Chapters()
		if err != nil {
			return "", err
		}
		for _, ch := range chapters {
			for _, p := range ch.Pages {
				entries = append(entries, entry{
					loc:      s.urls.URL(s.cfg.Docs.URLPrefix, ch.Slug, p.Slug),
					priority: "0.8",
				})
			}
		}
	}

	if s.cfg.Blog.Enabled {
		prefix := s.cfg.Blog.URLPrefix
		entries = append(entries, entry{loc: s.urls.URL(prefix), priority: "0.7"})

		posts, err := s.blog.Posts()
		if err != nil {
			return "", err
		}
		for _, p := range posts {
			entries = append(entries, entry{
				loc:      s.urls.URL(prefix, p.Slug),
				lastmod:  p.Date.Format("2006-01-02"),
				priority: "0.6",
			})
		}

		categories, err := s.blog.Categories()
		if err != nil {
			return "", err
		}
		for _, c := range categories {
			entries = append(entries, entry{
				loc:      s.urls.URL(prefix, "category", content.Slugify(c)),
				priority: "0.5",
			})
		}

		tags, err := s.blog.Tags()
		if err != nil {
			return "", err
		}
		for _, t := range tags {
			entries = append(entries, entry{
				loc:      s.urls.URL(prefix, "tag", content.Slugify(t)),
				priority: "0.4",
			})
		}
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, e := range entries {
		b.WriteString("  <url>\n")
		fmt.Fprintf(&b, "    <loc>%s</loc>\n", html.EscapeString(e.loc))
		if e.lastmod != "" {
			fmt.Fprintf(&b, "    <lastmod>%s</lastmod>\n", e.lastmod)
		}
		if e.priority != "" {
			fmt.Fprintf(&b, "    <priority>%s</priority>\n", e.priority)
		}
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>")
	return b.String(), nil
}
