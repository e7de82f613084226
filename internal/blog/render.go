package blog

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/markdown"
)

// RenderedPost is a fully rendered blog post ready for presentation.
type RenderedPost struct {
	Title      string
	Excerpt    string
	Slug       string
	HTML       string
	Headings   []content.DocHeading
	Date       time.Time
	Category   string
	Tags       []string
	Authors    []content.Author
	Meta       map[string]any
	Previous   *content.PageRef
	Next       *content.PageRef
	LinkErrors []string
}

var mediaSrcRe = regexp.MustCompile(`(?i)(<(?:img|source)\s[^>]*?)src="([^"]*?)"([^>]*?>)`)

// Render renders one post. Previous points at the more recent neighbor and
// Next at the older one, following the date-descending post order. Nil result
// means not found.
func (r *Repository) Render(slug string) (*RenderedPost, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}

	index := -1
	for i := range posts {
		if posts[i].Slug == slug {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, nil
	}
	post := posts[index]

	html := r.renderer.ToHTML(post.Content)
	html = markdown.StripFirstH1(html)
	html = r.fixMediaPaths(html, post.Slug)

	linkErrors := []string{}
	if dir, derr := r.findPostDir(slug); derr == nil && dir != "" {
		html, linkErrors = r.renderer.ResolveContentLinks(html, filepath.Join(dir, "post.md"))
		for _, le := range linkErrors {
			slog.Warn("content link problem", logfields.Slug(slug), slog.String("detail", le))
		}
	}

	var prev, next *content.PageRef
	if index > 0 {
		prev = &content.PageRef{
			Title: posts[index-1].Title,
			URL:   r.urls.Path(r.cfg.Blog.URLPrefix, posts[index-1].Slug),
		}
	}
	if index < len(posts)-1 {
		next = &content.PageRef{
			Title: posts[index+1].Title,
			URL:   r.urls.Path(r.cfg.Blog.URLPrefix, posts[index+1].Slug),
		}
	}

	return &RenderedPost{
		Title:      post.Title,
		Excerpt:    post.Excerpt,
		Slug:       post.Slug,
		HTML:       html,
		Headings:   markdown.ExtractHeadings(html),
		Date:       post.Date,
		Category:   post.Category,
		Tags:       post.Tags,
		Authors:    post.Authors,
		Meta:       post.Meta,
		Previous:   prev,
		Next:       next,
		LinkErrors: linkErrors,
	}, nil
}

// fixMediaPaths rewrites relative img/source srcs to the blog media route.
// Absolute and rooted srcs pass through.
func (r *Repository) fixMediaPaths(html, postSlug string) string {
	return mediaSrcRe.ReplaceAllStringFunc(html, func(match string) string {
		m := mediaSrcRe.FindStringSubmatch(match)
		before, src, after := m[1], m[2], m[3]

		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "/") {
			return match
		}

		newSrc := r.urls.Path(r.cfg.Blog.URLPrefix, "media", postSlug, src)
		return before + `src="` + newSrc + `"` + after
	})
}
