package docs

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/markdown"
)

// RenderedDoc is a fully rendered documentation page ready for presentation.
type RenderedDoc struct {
	Title      string
	Excerpt    string
	Slug       string
	HTML       string
	Headings   []content.DocHeading
	Meta       map[string]any
	Previous   *content.PageRef
	Next       *content.PageRef
	LinkErrors []string
}

var mediaSrcRe = regexp.MustCompile(`(?i)(<(?:img|source)\s[^>]*?)src="([^"]*?)"([^>]*?>)`)

// Render renders one page: Markdown pipeline, first-h1 strip, media path
// rewriting (with themed variants), cross-document link resolution, heading
// extraction and previous/next computation. Nil result means not found.
func (r *Repository) Render(chapterSlug, pageSlug string) (*RenderedDoc, error) {
	page, err := r.Page(chapterSlug, pageSlug)
	if err != nil || page == nil {
		return nil, err
	}

	html := r.renderer.ToHTML(page.Content)
	html = markdown.StripFirstH1(html)
	html = r.fixMediaPaths(html, chapterSlug)

	linkErrors := []string{}
	if sourceFile, ferr := r.findSourceFile(chapterSlug, pageSlug); ferr == nil && sourceFile != "" {
		html, linkErrors = r.renderer.ResolveContentLinks(html, sourceFile)
		for _, le := range linkErrors {
			slog.Warn("content link problem", logfields.Chapter(chapterSlug), logfields.Page(pageSlug), slog.String("detail", le))
		}
	}

	prev, next, err := r.adjacentPages(chapterSlug, pageSlug)
	if err != nil {
		return nil, err
	}

	return &RenderedDoc{
		Title:      page.Title,
		Excerpt:    page.Excerpt,
		Slug:       page.Slug,
		HTML:       html,
		Headings:   markdown.ExtractHeadings(html),
		Meta:       page.Meta,
		Previous:   prev,
		Next:       next,
		LinkErrors: linkErrors,
	}, nil
}

func (r *Repository) findSourceFile(chapterSlug, pageSlug string) (string, error) {
	chapterDir, err := r.findChapterDir(chapterSlug)
	if err != nil || chapterDir == "" {
		return "", err
	}
	return r.findPageFile(chapterDir, pageSlug)
}

// fixMediaPaths rewrites relative img/source src attributes to the docs
// media route. Absolute and rooted srcs pass through. When a themed
// dark/light sibling exists the single img becomes a light/dark pair, each
// variant resolved independently.
func (r *Repository) fixMediaPaths(html, chapterSlug string) string {
	return mediaSrcRe.ReplaceAllStringFunc(html, func(match string) string {
		m := mediaSrcRe.FindStringSubmatch(match)
		before, src, after := m[1], m[2], m[3]

		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "/") {
			return match
		}

		tag := strings.ToLower(before[1:4])
		if tag == "img" {
			hasDark, hasLight := r.ThemedImageVariants(chapterSlug, src)
			if hasDark || hasLight {
				return r.themedImagePair(before, after, chapterSlug, src, hasDark, hasLight)
			}
		}

		newSrc := r.urls.Path(r.cfg.Docs.URLPrefix, "media", chapterSlug, src)
		return before + `src="` + newSrc + `"` + after
	})
}

func (r *Repository) themedImagePair(before, after, chapterSlug, src string, hasDark, hasLight bool) string {
	ext := strings.TrimPrefix(filepath.Ext(src), ".")
	name := strings.TrimSuffix(src, filepath.Ext(src))

	lightFile, darkFile := src, src
	if hasLight {
		lightFile = name + ".light." + ext
	}
	if hasDark {
		darkFile = name + ".dark." + ext
	}

	lightSrc := r.urls.Path(r.cfg.Docs.URLPrefix, "media", chapterSlug, lightFile)
	darkSrc := r.urls.Path(r.cfg.Docs.URLPrefix, "media", chapterSlug, darkFile)

	lightTag := before + `src="` + lightSrc + `" class="pergament-img-light"` + after
	darkTag := before + `src="` + darkSrc + `" class="pergament-img-dark"` + after
	return lightTag + darkTag
}

// adjacentPages flattens all chapters' pages into one sequence in
// chapter-then-page order and takes the immediate neighbors.
func (r *Repository) adjacentPages(chapterSlug, pageSlug string) (prev, next *content.PageRef, err error) {
	chapters, err := r.Chapters()
	if err != nil {
		return nil, nil, err
	}

	type flatPage struct {
		title   string
		chapter string
		page    string
	}
	flat := []flatPage{}
	current := -1
	for _, ch := range chapters {
		for _, p := range ch.Pages {
			if ch.Slug == chapterSlug && p.Slug == pageSlug {
				current = len(flat)
			}
			flat = append(flat, flatPage{title: p.Title, chapter: ch.Slug, page: p.Slug})
		}
	}
	if current < 0 {
		return nil, nil, nil
	}

	if current > 0 {
		p := flat[current-1]
		prev = &content.PageRef{Title: p.title, URL: r.urls.Path(r.cfg.Docs.URLPrefix, p.chapter, p.page)}
	}
	if current < len(flat)-1 {
		p := flat[current+1]
		next = &content.PageRef{Title: p.title, URL: r.urls.Path(r.cfg.Docs.URLPrefix, p.chapter, p.page)}
	}
	return prev, next, nil
}

// NavChapter is the navigation view of a chapter: titles and slugs only.
type NavChapter struct {
	Title string     `json:"title"`
	Slug  string     `json:"slug"`
	Pages []NavEntry `json:"pages"`
}

// NavEntry is one page in the navigation tree.
type NavEntry struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// Navigation derives the chapter/page tree for sidebars.
func (r *Repository) Navigation() ([]NavChapter, error) {
	chapters, err := r.Chapters()
	if err != nil {
		return nil, err
	}
	nav := make([]NavChapter, 0, len(chapters))
	for _, ch := range chapters {
		entry := NavChapter{Title: ch.Title, Slug: ch.Slug, Pages: make([]NavEntry, 0, len(ch.Pages))}
		for _, p := range ch.Pages {
			entry.Pages = append(entry.Pages, NavEntry{Title: p.Title, Slug: p.Slug})
		}
		nav = append(nav, entry)
	}
	return nav, nil
}

// Search matches the query case-insensitively against title, excerpt and
// raw body of every page. An empty excerpt falls back to the leading 160
// characters of the body with Markdown punctuation stripped.
func (r *Repository) Search(query string) ([]content.SearchHit, error) {
	chapters, err := r.Chapters()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	hits := []content.SearchHit{}
	for _, ch := range chapters {
		for _, p := range ch.Pages {
			if !strings.Contains(strings.ToLower(p.Title), query) &&
				!strings.Contains(strings.ToLower(p.Excerpt), query) &&
				!strings.Contains(strings.ToLower(p.Content), query) {
				continue
			}
			excerpt := p.Excerpt
			if excerpt == "" {
				excerpt = content.Excerpt(p.Content, 160)
			}
			hits = append(hits, content.SearchHit{
				Title:   p.Title,
				Excerpt: excerpt,
				URL:     r.urls.Path(r.cfg.Docs.URLPrefix, ch.Slug, p.Slug),
				Type:    "doc",
			})
		}
	}
	return hits, nil
}
