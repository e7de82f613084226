// Package export renders the whole site into a static file tree. Every page
// render is independent; warnings (broken links, unreadable entries) are
// collected and reported without failing the run.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/pergament/internal/app"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/metrics"
	"git.home.luguber.info/inful/pergament/internal/view"
)

// Options controls one export run. Prefix and BaseURL override the
// configured values for this run only; empty means keep the configured value.
type Options struct {
	OutputDir string
	Clean     bool
	Prefix    string
	BaseURL   string
}

// Summary reports what an export run produced.
type Summary struct {
	RunID    string
	Files    int
	Warnings []string
	Duration time.Duration
}

// Exporter walks every resolvable URL and writes the rendered result.
type Exporter struct {
	app  *app.App
	opts Options
	rec  metrics.Recorder

	files    int
	warnings []string
}

// New builds an exporter from base. Overrides are applied to a copy; the
// caller's configuration is never mutated.
func New(base *config.Config, opts Options, rec metrics.Recorder) (*Exporter, error) {
	cfg := base.Clone()
	if opts.Prefix != "" {
		cfg.Prefix = opts.Prefix
	}
	if opts.BaseURL != "" {
		cfg.Site.URL = opts.BaseURL
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Exporter{app: a, opts: opts, rec: rec}, nil
}

// Run performs a full export. Page-level failures become warnings in the
// summary; only filesystem-level failures on the output root are fatal.
func (e *Exporter) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	e.files = 0
	e.warnings = nil

	out := strings.TrimRight(e.opts.OutputDir, "/")
	slog.Info("static export starting", logfields.RunID(runID), logfields.Path(out))

	if e.opts.Clean {
		if err := os.RemoveAll(out); err != nil {
			e.rec.IncExportOutcome("failed")
			return Summary{RunID: runID}, fmt.Errorf("clean output directory: %w", err)
		}
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		e.rec.IncExportOutcome("failed")
		return Summary{RunID: runID}, fmt.Errorf("create output directory: %w", err)
	}

	cfg := e.app.Cfg

	e.exportHomepage(out)

	if cfg.Docs.Enabled {
		e.exportDocIndex(out)
		e.exportDocPages(out)
		e.copyDocMedia(out)
	}
	if cfg.Blog.Enabled {
		e.exportBlogIndex(out)
		e.exportBlogPosts(out)
		e.exportCategoryPages(out)
		e.exportTagPages(out)
		e.exportAuthorPages(out)
		e.copyBlogMedia(out)
		if cfg.Blog.Feed.Enabled {
			e.exportFeed(out)
		}
	}
	if cfg.Pages.Enabled {
		e.exportPages(out)
	}
	if cfg.Sitemap.Enabled {
		e.exportSitemap(out)
	}
	if cfg.Robots.Enabled {
		e.exportRobots(out)
	}
	if cfg.LLMS.Enabled {
		e.exportLLMS(out)
	}

	if err := ctx.Err(); err != nil {
		e.rec.IncExportOutcome("failed")
		return Summary{RunID: runID}, err
	}

	dur := time.Since(start)
	e.rec.ObserveExportDuration(dur)
	e.rec.IncExportedFiles(e.files)
	outcome := "success"
	if len(e.warnings) > 0 {
		outcome = "warning"
	}
	e.rec.IncExportOutcome(outcome)

	slog.Info("static export finished",
		logfields.RunID(runID),
		logfields.Count(e.files),
		slog.Int("warnings", len(e.warnings)),
		logfields.DurationMS(float64(dur.Milliseconds())))

	return Summary{RunID: runID, Files: e.files, Warnings: e.warnings, Duration: dur}, nil
}

func (e *Exporter) warnf(format string, args ...any) {
	e.warnings = append(e.warnings, fmt.Sprintf(format, args...))
}

func (e *Exporter) collectLinkErrors(kind string, errs []string) {
	if len(errs) == 0 {
		return
	}
	e.warnings = append(e.warnings, errs...)
	e.rec.IncLinkErrors(kind, len(errs))
}

func (e *Exporter) exportHomepage(out string) {
	hp := e.app.Cfg.Homepage

	var html string
	var err error
	switch hp.Type {
	case "page":
		html, err = e.renderHomepagePage(hp.Source)
	case "doc-page":
		html, err = e.renderHomepageDocPage(hp.Source)
	case "blog-index":
		html, err = e.renderHomepageBlogIndex()
	case "redirect":
		html = view.Redirect(hp.Source)
	default:
		return
	}
	if err != nil {
		e.warnf("Homepage: %v", err)
		return
	}
	if html == "" {
		return
	}
	if err := e.writeFile(filepath.Join(out, "index.html"), postProcessHTML(html)); err != nil {
		e.warnf("Homepage: %v", err)
	}
}

func (e *Exporter) renderHomepagePage(slug string) (string, error) {
	page, err := e.app.Pages.Rendered(slug)
	if err != nil || page == nil {
		return "", err
	}
	e.collectLinkErrors("page", page.LinkErrors)

	var buf bytes.Buffer
	err = e.app.View.Page(&buf, view.PageData{
		SEO:        e.app.SEO.Resolve(page.Meta, page.Title),
		Page:       page,
		Layout:     page.Layout,
		IsHomepage: true,
	})
	return buf.String(), err
}

func (e *Exporter) renderHomepageDocPage(source string) (string, error) {
	chapter, page, ok := strings.Cut(source, "/")
	if !ok {
		var err error
		chapter, page, ok, err = e.app.Docs.FirstPage()
		if err != nil || !ok {
			return "", err
		}
	}

	rendered, err := e.app.Docs.Render(chapter, page)
	if err != nil || rendered == nil {
		return "", err
	}
	e.collectLinkErrors("doc", rendered.LinkErrors)

	nav, err := e.app.Docs.Navigation()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = e.app.View.DocPage(&buf, view.DocPageData{
		SEO:            e.app.SEO.Resolve(rendered.Meta, rendered.Title),
		Page:           rendered,
		Navigation:     nav,
		CurrentChapter: chapter,
		CurrentPage:    page,
	})
	return buf.String(), err
}

func (e *Exporter) renderHomepageBlogIndex() (string, error) {
	paginated, err := e.app.Blog.Paginate(1, 0)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = e.app.View.BlogIndex(&buf, view.BlogIndexData{
		SEO:         e.app.SEO.Resolve(nil, e.app.Cfg.Blog.Title),
		Title:       e.app.Cfg.Blog.Title,
		Posts:       paginated.Posts,
		CurrentPage: paginated.CurrentPage,
		LastPage:    paginated.LastPage,
		Total:       paginated.Total,
	})
	return buf.String(), err
}

func (e *Exporter) exportDocIndex(out string) {
	chapter, page, ok, err := e.app.Docs.FirstPage()
	if err != nil {
		e.warnf("Doc index: %v", err)
		return
	}
	if !ok {
		return
	}

	target := e.app.URLs.Path(e.app.Cfg.Docs.URLPrefix, chapter, page)
	path := filepath.Join(out, e.app.Cfg.Docs.URLPrefix, "index.html")
	if err := e.writeFile(path, view.Redirect(target)); err != nil {
		e.warnf("Doc index: %v", err)
	}
}

func (e *Exporter) exportDocPages(out string) {
	chapters, err := e.app.Docs.Chapters()
	if err != nil {
		e.warnf("Doc pages: %v", err)
		return
	}
	nav, err := e.app.Docs.Navigation()
	if err != nil {
		e.warnf("Doc pages: %v", err)
		return
	}

	for _, chapter := range chapters {
		for _, page := range chapter.Pages {
			start := time.Now()
			rendered, err := e.app.Docs.Render(chapter.Slug, page.Slug)
			if err != nil {
				e.warnf("Doc page %s/%s: %v", chapter.Slug, page.Slug, err)
				continue
			}
			if rendered == nil {
				continue
			}
			e.rec.ObserveRenderDuration("doc", time.Since(start))
			e.rec.IncRender("doc")
			e.collectLinkErrors("doc", rendered.LinkErrors)

			var buf bytes.Buffer
			err = e.app.View.DocPage(&buf, view.DocPageData{
				SEO:            e.app.SEO.Resolve(rendered.Meta, rendered.Title),
				Page:           rendered,
				Navigation:     nav,
				CurrentChapter: chapter.Slug,
				CurrentPage:    page.Slug,
			})
			if err != nil {
				e.warnf("Doc page %s/%s: %v", chapter.Slug, page.Slug, err)
				continue
			}

			path := filepath.Join(out, e.app.Cfg.Docs.URLPrefix, chapter.Slug, page.Slug, "index.html")
			if err := e.writeFile(path, postProcessHTML(buf.String())); err != nil {
				e.warnf("Doc page %s/%s: %v", chapter.Slug, page.Slug, err)
			}
		}
	}
}

func (e *Exporter) exportBlogIndex(out string) {
	first, err := e.app.Blog.Paginate(1, 0)
	if err != nil {
		e.warnf("Blog index: %v", err)
		return
	}
	categories, err := e.app.Blog.Categories()
	if err != nil {
		e.warnf("Blog index: %v", err)
		return
	}
	tags, err := e.app.Blog.Tags()
	if err != nil {
		e.warnf("Blog index: %v", err)
		return
	}

	prefix := e.app.Cfg.Blog.URLPrefix
	for page := 1; page <= first.LastPage; page++ {
		paginated, err := e.app.Blog.Paginate(page, 0)
		if err != nil {
			e.warnf("Blog index page %d: %v", page, err)
			continue
		}

		var buf bytes.Buffer
		err = e.app.View.BlogIndex(&buf, view.BlogIndexData{
			SEO:         e.app.SEO.Resolve(nil, e.app.Cfg.Blog.Title),
			Title:       e.app.Cfg.Blog.Title,
			Posts:       paginated.Posts,
			CurrentPage: paginated.CurrentPage,
			LastPage:    paginated.LastPage,
			Total:       paginated.Total,
			Categories:  categories,
			Tags:        tags,
		})
		if err != nil {
			e.warnf("Blog index page %d: %v", page, err)
			continue
		}

		html := postProcessHTML(buf.String())
		if page == 1 {
			if err := e.writeFile(filepath.Join(out, prefix, "index.html"), html); err != nil {
				e.warnf("Blog index page %d: %v", page, err)
			}
		}
		if err := e.writeFile(filepath.Join(out, prefix, "page", strconv.Itoa(page), "index.html"), html); err != nil {
			e.warnf("Blog index page %d: %v", page, err)
		}
	}
}

func (e *Exporter) exportBlogPosts(out string) {
	posts, err := e.app.Blog.Posts()
	if err != nil {
		e.warnf("Blog posts: %v", err)
		return
	}

	for _, post := range posts {
		start := time.Now()
		rendered, err := e.app.Blog.Render(post.Slug)
		if err != nil {
			e.warnf("Blog post %s: %v", post.Slug, err)
			continue
		}
		if rendered == nil {
			continue
		}
		e.rec.ObserveRenderDuration("post", time.Since(start))
		e.rec.IncRender("post")
		e.collectLinkErrors("post", rendered.LinkErrors)

		var buf bytes.Buffer
		err = e.app.View.BlogPost(&buf, view.BlogPostData{
			SEO:  e.app.SEO.Resolve(rendered.Meta, rendered.Title),
			Post: rendered,
		})
		if err != nil {
			e.warnf("Blog post %s: %v", post.Slug, err)
			continue
		}

		path := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, post.Slug, "index.html")
		if err := e.writeFile(path, postProcessHTML(buf.String())); err != nil {
			e.warnf("Blog post %s: %v", post.Slug, err)
		}
	}
}

func (e *Exporter) exportCategoryPages(out string) {
	categories, err := e.app.Blog.Categories()
	if err != nil {
		e.warnf("Categories: %v", err)
		return
	}

	for _, category := range categories {
		posts, err := e.app.Blog.PostsByCategory(category)
		if err != nil {
			e.warnf("Category %s: %v", category, err)
			continue
		}
		slug := content.Slugify(category)
		title := content.TitleFromSlug(slug)
		path := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, "category", slug, "index.html")
		e.writeBlogList(path, "category", title, posts)
	}
}

func (e *Exporter) exportTagPages(out string) {
	tags, err := e.app.Blog.Tags()
	if err != nil {
		e.warnf("Tags: %v", err)
		return
	}

	for _, tag := range tags {
		posts, err := e.app.Blog.PostsByTag(tag)
		if err != nil {
			e.warnf("Tag %s: %v", tag, err)
			continue
		}
		slug := content.Slugify(tag)
		title := content.TitleFromSlug(slug)
		path := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, "tag", slug, "index.html")
		e.writeBlogList(path, "tag", title, posts)
	}
}

func (e *Exporter) exportAuthorPages(out string) {
	authors, err := e.app.Blog.Authors()
	if err != nil {
		e.warnf("Authors: %v", err)
		return
	}

	for _, author := range authors {
		posts, err := e.app.Blog.PostsByAuthor(author.Slug())
		if err != nil {
			e.warnf("Author %s: %v", author.Name, err)
			continue
		}
		path := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, "author", author.Slug(), "index.html")
		e.writeBlogList(path, "author", author.Name, posts)
	}
}

func (e *Exporter) writeBlogList(path, kind, heading string, posts []content.BlogPost) {
	var buf bytes.Buffer
	err := e.app.View.BlogList(&buf, view.BlogListData{
		SEO:     e.app.SEO.Resolve(nil, heading),
		Kind:    kind,
		Heading: heading,
		Posts:   posts,
	})
	if err != nil {
		e.warnf("%s %s: %v", kind, heading, err)
		return
	}
	if err := e.writeFile(path, postProcessHTML(buf.String())); err != nil {
		e.warnf("%s %s: %v", kind, heading, err)
	}
}

func (e *Exporter) exportPages(out string) {
	var homepageSlug string
	if e.app.Cfg.Homepage.Type == "page" {
		homepageSlug = e.app.Cfg.Homepage.Source
	}

	slugs, err := e.app.Pages.Slugs()
	if err != nil {
		e.warnf("Pages: %v", err)
		return
	}

	for _, slug := range slugs {
		if slug == homepageSlug {
			continue
		}
		start := time.Now()
		page, err := e.app.Pages.Rendered(slug)
		if err != nil {
			e.warnf("Page %s: %v", slug, err)
			continue
		}
		if page == nil {
			continue
		}
		e.rec.ObserveRenderDuration("page", time.Since(start))
		e.rec.IncRender("page")
		e.collectLinkErrors("page", page.LinkErrors)

		var buf bytes.Buffer
		err = e.app.View.Page(&buf, view.PageData{
			SEO:    e.app.SEO.Resolve(page.Meta, page.Title),
			Page:   page,
			Layout: page.Layout,
		})
		if err != nil {
			e.warnf("Page %s: %v", slug, err)
			continue
		}

		if err := e.writeFile(filepath.Join(out, slug, "index.html"), postProcessHTML(buf.String())); err != nil {
			e.warnf("Page %s: %v", slug, err)
		}
	}
}

func (e *Exporter) exportFeed(out string) {
	feedXML, err := e.app.Feed.Generate()
	if err != nil {
		e.warnf("Feed: %v", err)
		return
	}
	path := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, "feed", "index.xml")
	if err := e.writeFile(path, feedXML); err != nil {
		e.warnf("Feed: %v", err)
	}
}

func (e *Exporter) exportSitemap(out string) {
	xml, err := e.app.Sitemap.Generate()
	if err != nil {
		e.warnf("Sitemap: %v", err)
		return
	}
	if err := e.writeFile(filepath.Join(out, "sitemap.xml"), xml); err != nil {
		e.warnf("Sitemap: %v", err)
	}
}

func (e *Exporter) exportRobots(out string) {
	if err := e.writeFile(filepath.Join(out, "robots.txt"), e.app.RobotsTxt()); err != nil {
		e.warnf("Robots: %v", err)
	}
}

func (e *Exporter) exportLLMS(out string) {
	if err := e.writeFile(filepath.Join(out, "llms.txt"), e.app.LLMSTxt()); err != nil {
		e.warnf("LLMs: %v", err)
	}
}

func (e *Exporter) copyDocMedia(out string) {
	chapters, err := e.app.Docs.Chapters()
	if err != nil {
		return
	}

	root := e.app.Cfg.DocsDir()
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	for _, chapter := range chapters {
		var chapterDir string
		for _, entry := range entries {
			if entry.IsDir() && content.StripNumberPrefix(entry.Name()) == chapter.Slug {
				chapterDir = filepath.Join(root, entry.Name())
				break
			}
		}
		if chapterDir == "" {
			continue
		}

		files, err := os.ReadDir(chapterDir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || strings.HasSuffix(f.Name(), ".md") {
				continue
			}
			src := filepath.Join(chapterDir, f.Name())
			dst := filepath.Join(out, e.app.Cfg.Docs.URLPrefix, "media", chapter.Slug, f.Name())
			if err := e.copyFile(src, dst); err != nil {
				e.warnf("Doc media %s/%s: %v", chapter.Slug, f.Name(), err)
			}
		}
	}
}

func (e *Exporter) copyBlogMedia(out string) {
	posts, err := e.app.Blog.Posts()
	if err != nil {
		return
	}

	root := e.app.Cfg.BlogDir()
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	for _, post := range posts {
		var postDir string
		for _, entry := range entries {
			if entry.IsDir() && content.StripDatePrefix(entry.Name()) == post.Slug {
				postDir = filepath.Join(root, entry.Name())
				break
			}
		}
		if postDir == "" {
			continue
		}

		files, err := os.ReadDir(postDir)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || f.Name() == "post.md" {
				continue
			}
			src := filepath.Join(postDir, f.Name())
			dst := filepath.Join(out, e.app.Cfg.Blog.URLPrefix, "media", post.Slug, f.Name())
			if err := e.copyFile(src, dst); err != nil {
				e.warnf("Blog media %s/%s: %v", post.Slug, f.Name(), err)
			}
		}
	}
}

// paginationHrefRe matches query-string pagination links emitted by the
// blog index template so they can become static /page/N/ paths.
var paginationHrefRe = regexp.MustCompile(`(href=["'])([^"']*?)\?page=(\d+)(["'])`)

func postProcessHTML(html string) string {
	return paginationHrefRe.ReplaceAllStringFunc(html, func(match string) string {
		m := paginationHrefRe.FindStringSubmatch(match)
		base := strings.TrimRight(m[2], "/")
		return m[1] + base + "/page/" + m[3] + "/" + m[4]
	})
}

func (e *Exporter) writeFile(path, body string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return err
	}
	e.files++
	return nil
}

func (e *Exporter) copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	e.files++
	return nil
}
