// Package view renders the built-in HTML presentation. The templates are
// deliberately minimal; theming is expected to happen outside the binary.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"git.home.luguber.info/inful/pergament/internal/blog"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/docs"
	"git.home.luguber.info/inful/pergament/internal/pages"
	"git.home.luguber.info/inful/pergament/internal/seo"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	cfg *config.Config
	tpl map[string]*template.Template
}

// pageTemplates maps a render method to its content template.
var pageTemplates = []string{
	"doc.html",
	"blog_index.html",
	"blog_post.html",
	"blog_list.html",
	"page.html",
}

// New parses the embedded templates against the layout. The URL generator is
// captured in template funcs so links honor the configured prefix.
func New(cfg *config.Config, gen *urls.Generator) (*Renderer, error) {
	funcs := template.FuncMap{
		"raw":      func(s string) template.HTML { return template.HTML(s) },
		"path":     gen.Path,
		"url":      gen.URL,
		"docURL":   func(chapter, page string) string { return gen.Path(cfg.Docs.URLPrefix, chapter, page) },
		"blogURL":  func(segments ...string) string { return gen.Path(append([]string{cfg.Blog.URLPrefix}, segments...)...) },
		"siteName": func() string { return cfg.Site.Name },
		"locale":   func() string { return cfg.Site.Locale },
		"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
		"pageNums": pageNums,
		"slugify":  content.Slugify,
	}

	tpls := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		tpls[name] = t
	}
	return &Renderer{cfg: cfg, tpl: tpls}, nil
}

func pageNums(last int) []int {
	nums := make([]int, 0, last)
	for i := 1; i <= last; i++ {
		nums = append(nums, i)
	}
	return nums
}

// DocPageData feeds the documentation page template.
type DocPageData struct {
	SEO            seo.Meta
	Page           *docs.RenderedDoc
	Navigation     []docs.NavChapter
	CurrentChapter string
	CurrentPage    string
}

// BlogIndexData feeds the paginated blog index template.
type BlogIndexData struct {
	SEO         seo.Meta
	Title       string
	Posts       []content.BlogPost
	CurrentPage int
	LastPage    int
	Total       int
	Categories  []string
	Tags        []string
}

// BlogPostData feeds the single-post template.
type BlogPostData struct {
	SEO  seo.Meta
	Post *blog.RenderedPost
}

// BlogListData feeds the category, tag and author listing template.
// Kind is "category", "tag" or "author" and only affects the heading.
type BlogListData struct {
	SEO     seo.Meta
	Kind    string
	Heading string
	Posts   []content.BlogPost
}

// PageData feeds the standalone-page template.
type PageData struct {
	SEO        seo.Meta
	Page       *pages.RenderedPage
	Layout     string
	IsHomepage bool
}

func (r *Renderer) DocPage(w io.Writer, data DocPageData) error {
	return r.tpl["doc.html"].Execute(w, data)
}

func (r *Renderer) BlogIndex(w io.Writer, data BlogIndexData) error {
	return r.tpl["blog_index.html"].Execute(w, data)
}

func (r *Renderer) BlogPost(w io.Writer, data BlogPostData) error {
	return r.tpl["blog_post.html"].Execute(w, data)
}

func (r *Renderer) BlogList(w io.Writer, data BlogListData) error {
	return r.tpl["blog_list.html"].Execute(w, data)
}

func (r *Renderer) Page(w io.Writer, data PageData) error {
	return r.tpl["page.html"].Execute(w, data)
}

// Redirect returns a meta-refresh document pointing at target.
func Redirect(target string) string {
	return `<!DOCTYPE html><html><head><meta http-equiv="refresh" content="0;url=` +
		template.HTMLEscapeString(target) + `"></head><body></body></html>`
}
