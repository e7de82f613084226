// Package blog reads YYYY-MM-DD-{slug} post directories from the blog content
// root. Each directory holds a post.md file plus any media the post embeds.
// Posts are re-read from disk on every query; content is edited out-of-band
// and freshness wins over caching here.
package blog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/frontmatter"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/markdown"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

var postDirRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-.+`)

// Repository scans the blog directory and answers post queries.
type Repository struct {
	cfg      *config.Config
	renderer *markdown.Renderer
	urls     *urls.Generator

	// now is swappable so the date-fallback path is testable.
	now func() time.Time
}

func NewRepository(cfg *config.Config, renderer *markdown.Renderer, gen *urls.Generator) *Repository {
	return &Repository{cfg: cfg, renderer: renderer, urls: gen, now: time.Now}
}

// Posts returns all posts sorted by date descending. Ties keep directory
// scan order (the sort is stable). Directories without a valid date prefix
// or without a post.md file are skipped.
func (r *Repository) Posts() ([]content.BlogPost, error) {
	blogDir := r.cfg.BlogDir()

	entries, err := os.ReadDir(blogDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []content.BlogPost{}, nil
		}
		return nil, fmt.Errorf("read blog directory: %w", err)
	}

	posts := []content.BlogPost{}
	for _, e := range entries {
		if !e.IsDir() || !postDirRe.MatchString(e.Name()) {
			continue
		}
		post, ok, err := r.parsePostDir(filepath.Join(blogDir, e.Name()), e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			posts = append(posts, post)
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Date.After(posts[j].Date)
	})
	return posts, nil
}

// Post looks up one post by slug. Nil with nil error means not found.
func (r *Repository) Post(slug string) (*content.BlogPost, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i], nil
		}
	}
	return nil, nil
}

// Pagination is one window over the date-sorted post list.
type Pagination struct {
	Posts       []content.BlogPost
	CurrentPage int
	LastPage    int
	Total       int
}

// Paginate slices the post list into pages of perPage. The requested page is
// clamped to [1, LastPage]; LastPage is at least 1 even with zero posts.
// A perPage of zero or less falls back to the configured page size.
func (r *Repository) Paginate(page, perPage int) (Pagination, error) {
	if perPage <= 0 {
		perPage = r.cfg.Blog.PerPage
	}
	posts, err := r.Posts()
	if err != nil {
		return Pagination{}, err
	}

	total := len(posts)
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	if page < 1 {
		page = 1
	}
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	return Pagination{
		Posts:       posts[start:end],
		CurrentPage: page,
		LastPage:    lastPage,
		Total:       total,
	}, nil
}

// Categories returns the unique post categories, case preserved, sorted.
func (r *Repository) Categories() ([]string, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}
	return uniqueSorted(posts, func(p content.BlogPost) []string {
		if p.Category == "" {
			return nil
		}
		return []string{p.Category}
	}), nil
}

// Tags returns the unique tags across all posts, case preserved, sorted.
func (r *Repository) Tags() ([]string, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}
	return uniqueSorted(posts, func(p content.BlogPost) []string { return p.Tags }), nil
}

// Authors returns the unique authors across all posts, deduplicated by slug
// and sorted by name.
func (r *Repository) Authors() ([]content.Author, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	authors := []content.Author{}
	for _, p := range posts {
		for _, a := range p.Authors {
			if seen[a.Slug()] {
				continue
			}
			seen[a.Slug()] = true
			authors = append(authors, a)
		}
	}
	sort.SliceStable(authors, func(i, j int) bool { return authors[i].Name < authors[j].Name })
	return authors, nil
}

// PostsByCategory filters by category with slug-normalized comparison, so
// "Laravel" matches "laravel".
func (r *Repository) PostsByCategory(category string) ([]content.BlogPost, error) {
	want := content.Slugify(category)
	return r.filterPosts(func(p content.BlogPost) bool {
		return p.Category != "" && content.Slugify(p.Category) == want
	})
}

// PostsByTag filters by tag with slug-normalized comparison.
func (r *Repository) PostsByTag(tag string) ([]content.BlogPost, error) {
	want := content.Slugify(tag)
	return r.filterPosts(func(p content.BlogPost) bool {
		for _, t := range p.Tags {
			if content.Slugify(t) == want {
				return true
			}
		}
		return false
	})
}

// PostsByAuthor filters by the author's slug.
func (r *Repository) PostsByAuthor(authorSlug string) ([]content.BlogPost, error) {
	return r.filterPosts(func(p content.BlogPost) bool {
		for _, a := range p.Authors {
			if a.Slug() == authorSlug {
				return true
			}
		}
		return false
	})
}

// Search matches the query case-insensitively against title, excerpt and raw
// body of every post.
func (r *Repository) Search(query string) ([]content.SearchHit, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}

	hits := []content.SearchHit{}
	for _, p := range posts {
		if !matchesQuery(query, p.Title, p.Excerpt, p.Content) {
			continue
		}
		excerpt := p.Excerpt
		if excerpt == "" {
			excerpt = content.Excerpt(p.Content, 160)
		}
		hits = append(hits, content.SearchHit{
			Title:   p.Title,
			Excerpt: excerpt,
			URL:     r.urls.Path(r.cfg.Blog.URLPrefix, p.Slug),
			Type:    "post",
		})
	}
	return hits, nil
}

// ResolveMediaPath maps a post slug plus filename to the file on disk.
// False when the post directory or the file is absent.
func (r *Repository) ResolveMediaPath(postSlug, filename string) (string, bool) {
	dir, err := r.findPostDir(postSlug)
	if err != nil || dir == "" {
		return "", false
	}
	p := filepath.Join(dir, filename)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

func (r *Repository) filterPosts(keep func(content.BlogPost) bool) ([]content.BlogPost, error) {
	posts, err := r.Posts()
	if err != nil {
		return nil, err
	}
	out := []content.BlogPost{}
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Repository) parsePostDir(dirPath, dirName string) (content.BlogPost, bool, error) {
	raw, err := os.ReadFile(filepath.Join(dirPath, "post.md"))
	if err != nil {
		if os.IsNotExist(err) {
			return content.BlogPost{}, false, nil
		}
		return content.BlogPost{}, false, fmt.Errorf("read post file: %w", err)
	}

	doc := frontmatter.Parse(string(raw))
	slug := content.StripDatePrefix(dirName)

	return content.BlogPost{
		Title:    frontmatter.StringValue(doc.Attributes, "title", content.TitleFromSlug(slug)),
		Excerpt:  frontmatter.StringValue(doc.Attributes, "excerpt", ""),
		Slug:     slug,
		Content:  doc.Body,
		Date:     r.extractDate(dirName),
		Category: frontmatter.StringValue(doc.Attributes, "category", ""),
		Tags:     frontmatter.StringList(doc.Attributes, "tags"),
		Authors:  r.resolveAuthors(doc.Attributes),
		Meta:     doc.Attributes,
	}, true, nil
}

var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// extractDate parses the directory-name date prefix. A malformed prefix falls
// back to the current time instead of failing the scan; that is lenient on
// purpose but worth a warning, since it silently hides a misnamed directory.
func (r *Repository) extractDate(dirName string) time.Time {
	if m := datePrefixRe.FindStringSubmatch(dirName); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t
		}
	}
	slog.Warn("post directory has no parseable date prefix, using current time", logfields.File(dirName))
	return r.now()
}

// resolveAuthors applies the precedence rule: post front matter (author or
// authors, string / list of strings / list of maps) entirely overrides the
// configured defaults; with neither present the list is empty.
func (r *Repository) resolveAuthors(attrs map[string]any) []content.Author {
	raw, ok := attrs["authors"]
	if !ok {
		raw, ok = attrs["author"]
	}
	if ok && raw != nil {
		return authorsFromValue(raw)
	}

	authors := make([]content.Author, 0, len(r.cfg.Blog.DefaultAuthors))
	for _, a := range r.cfg.Blog.DefaultAuthors {
		authors = append(authors, content.Author{Name: a.Name, Email: a.Email, URL: a.URL, Avatar: a.Avatar})
	}
	return authors
}

func authorsFromValue(raw any) []content.Author {
	var items []any
	switch v := raw.(type) {
	case string:
		items = []any{v}
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		return []content.Author{}
	}

	authors := make([]content.Author, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			authors = append(authors, content.Author{Name: v})
		case map[string]any:
			a := content.Author{Name: "Unknown"}
			if name, ok := v["name"].(string); ok {
				a.Name = name
			}
			a.Email, _ = v["email"].(string)
			a.URL, _ = v["url"].(string)
			a.Avatar, _ = v["avatar"].(string)
			authors = append(authors, a)
		}
	}
	return authors
}

func (r *Repository) findPostDir(slug string) (string, error) {
	blogDir := r.cfg.BlogDir()
	entries, err := os.ReadDir(blogDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read blog directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() && content.StripDatePrefix(e.Name()) == slug {
			return filepath.Join(blogDir, e.Name()), nil
		}
	}
	return "", nil
}

func matchesQuery(query string, fields ...string) bool {
	query = strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func uniqueSorted(posts []content.BlogPost, extract func(content.BlogPost) []string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, p := range posts {
		for _, v := range extract(p) {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
