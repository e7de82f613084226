// Package search fans a query out across the enabled content repositories
// and concatenates their hits. There is no ranking and no deduplication;
// results come back in repository order (docs, then blog, then pages).
package search

import (
	"git.home.luguber.info/inful/pergament/internal/blog"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/docs"
	"git.home.luguber.info/inful/pergament/internal/pages"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

const maxSuggestions = 10

// Index searches across all enabled repositories.
type Index struct {
	cfg   *config.Config
	docs  *docs.Repository
	blog  *blog.Repository
	pages *pages.Repository
	urls  *urls.Generator
}

func NewIndex(cfg *config.Config, d *docs.Repository, b *blog.Repository, p *pages.Repository, gen *urls.Generator) *Index {
	return &Index{cfg: cfg, docs: d, blog: b, pages: p, urls: gen}
}

// Search concatenates each enabled repository's hits.
func (x *Index) Search(query string) ([]content.SearchHit, error) {
	hits := []content.SearchHit{}

	if x.cfg.Docs.Enabled {
		docHits, err := x.docs.Search(query)
		if err != nil {
			return nil, err
		}
		hits = append(hits, docHits...)
	}

	if x.cfg.Blog.Enabled {
		blogHits, err := x.blog.Search(query)
		if err != nil {
			return nil, err
		}
		hits = append(hits, blogHits...)
	}

	return hits, nil
}

// Suggestions builds the default list shown before the user has typed
// anything: the blog index, then each doc chapter's first page, then
// standalone pages alphabetically. Capped at ten entries; whatever category
// hits the cap first is truncated, so docs crowd out pages and the blog
// entry crowds out both.
func (x *Index) Suggestions() ([]content.SearchHit, error) {
	hits := []content.SearchHit{}

	if x.cfg.Blog.Enabled {
		hits = append(hits, content.SearchHit{
			Title:   x.cfg.Blog.Title,
			Excerpt: "",
			URL:     x.urls.Path(x.cfg.Blog.URLPrefix),
			Type:    "post",
		})
	}

	if x.cfg.Docs.Enabled {
		chapters, err := x.docs.Chapters()
		if err != nil {
			return nil, err
		}
		for _, ch := range chapters {
			if len(hits) >= maxSuggestions {
				return hits, nil
			}
			if len(ch.Pages) == 0 {
				continue
			}
			first := ch.Pages[0]
			hits = append(hits, content.SearchHit{
				Title:   ch.Title,
				Excerpt: first.Excerpt,
				URL:     x.urls.Path(x.cfg.Docs.URLPrefix, ch.Slug, first.Slug),
				Type:    "doc",
			})
		}
	}

	if x.cfg.Pages.Enabled {
		slugs, err := x.pages.SlugsSorted()
		if err != nil {
			return nil, err
		}
		for _, slug := range slugs {
			if len(hits) >= maxSuggestions {
				return hits, nil
			}
			page, err := x.pages.Page(slug)
			if err != nil {
				return nil, err
			}
			if page == nil {
				continue
			}
			hits = append(hits, content.SearchHit{
				Title:   page.Title,
				Excerpt: page.Excerpt,
				URL:     x.urls.Path(page.Slug),
				Type:    "page",
			})
		}
	}

	return hits, nil
}
