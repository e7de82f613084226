// Package pages serves standalone Markdown files living directly in the
// pages content root. No chapters, no dates: slug is the filename stem.
package pages

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/frontmatter"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/markdown"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

// Repository answers standalone page queries.
type Repository struct {
	cfg      *config.Config
	renderer *markdown.Renderer
	urls     *urls.Generator
}

func NewRepository(cfg *config.Config, renderer *markdown.Renderer, gen *urls.Generator) *Repository {
	return &Repository{cfg: cfg, renderer: renderer, urls: gen}
}

// Page reads one page by slug. Nil with nil error means not found. Layout is
// taken verbatim from front matter; empty means the default layout.
func (r *Repository) Page(slug string) (*content.Page, error) {
	filePath := filepath.Join(r.cfg.PagesDir(), slug+".md")

	raw, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read page file: %w", err)
	}

	doc := frontmatter.Parse(string(raw))
	return &content.Page{
		Title:   frontmatter.StringValue(doc.Attributes, "title", content.TitleFromSlug(slug)),
		Excerpt: frontmatter.StringValue(doc.Attributes, "excerpt", ""),
		Slug:    slug,
		Content: doc.Body,
		Layout:  frontmatter.StringValue(doc.Attributes, "layout", ""),
		Meta:    doc.Attributes,
	}, nil
}

// RenderedPage is a fully rendered standalone page.
type RenderedPage struct {
	Title      string
	Excerpt    string
	Slug       string
	HTML       string
	Headings   []content.DocHeading
	Layout     string
	Meta       map[string]any
	LinkErrors []string
}

// Rendered renders one page. Nil result means not found.
func (r *Repository) Rendered(slug string) (*RenderedPage, error) {
	page, err := r.Page(slug)
	if err != nil || page == nil {
		return nil, err
	}

	html := r.renderer.ToHTML(page.Content)
	html = markdown.StripFirstH1(html)

	sourceFile := filepath.Join(r.cfg.PagesDir(), slug+".md")
	html, linkErrors := r.renderer.ResolveContentLinks(html, sourceFile)
	for _, le := range linkErrors {
		slog.Warn("content link problem", logfields.Slug(slug), slog.String("detail", le))
	}

	return &RenderedPage{
		Title:      page.Title,
		Excerpt:    page.Excerpt,
		Slug:       page.Slug,
		HTML:       html,
		Headings:   markdown.ExtractHeadings(html),
		Layout:     page.Layout,
		Meta:       page.Meta,
		LinkErrors: linkErrors,
	}, nil
}

// Slugs lists every page slug in directory scan order.
func (r *Repository) Slugs() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.PagesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read pages directory: %w", err)
	}

	slugs := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".md"))
	}
	return slugs, nil
}

// SlugsSorted lists every page slug in alphabetical order, for suggestion
// lists and the static exporter.
func (r *Repository) SlugsSorted() ([]string, error) {
	slugs, err := r.Slugs()
	if err != nil {
		return nil, err
	}
	sort.Strings(slugs)
	return slugs, nil
}
