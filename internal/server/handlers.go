package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/logfields"
	"git.home.luguber.info/inful/pergament/internal/state"
	"git.home.luguber.info/inful/pergament/internal/view"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	hp := s.app.Cfg.Homepage
	switch hp.Type {
	case "page":
		s.servePage(w, r, hp.Source, true)
	case "doc-page":
		chapter, page, ok := strings.Cut(hp.Source, "/")
		if !ok {
			var err error
			chapter, page, ok, err = s.app.Docs.FirstPage()
			if err != nil {
				s.internalError(w, err)
				return
			}
			if !ok {
				http.NotFound(w, r)
				return
			}
		}
		s.serveDocPage(w, r, chapter, page)
	case "blog-index":
		s.handleBlogIndex(w, r)
	case "redirect":
		http.Redirect(w, r, hp.Source, http.StatusFound)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDocIndex(w http.ResponseWriter, r *http.Request) {
	chapter, page, ok, err := s.app.Docs.FirstPage()
	if err != nil {
		s.internalError(w, err)
		return
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, s.app.URLs.Path(s.app.Cfg.Docs.URLPrefix, chapter, page), http.StatusFound)
}

func (s *Server) handleDocPage(w http.ResponseWriter, r *http.Request) {
	s.serveDocPage(w, r, r.PathValue("chapter"), r.PathValue("page"))
}

func (s *Server) serveDocPage(w http.ResponseWriter, r *http.Request, chapter, page string) {
	s.serveCachedHTML(w, r, "doc", "doc:"+chapter+"/"+page, func() (string, error) {
		rendered, err := s.app.Docs.Render(chapter, page)
		if err != nil || rendered == nil {
			return "", err
		}
		s.rec.IncLinkErrors("doc", len(rendered.LinkErrors))

		nav, err := s.app.Docs.Navigation()
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		err = s.app.View.DocPage(&buf, view.DocPageData{
			SEO:            s.app.SEO.Resolve(rendered.Meta, rendered.Title),
			Page:           rendered,
			Navigation:     nav,
			CurrentChapter: chapter,
			CurrentPage:    page,
		})
		return buf.String(), err
	})
}

func (s *Server) handleDocMedia(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("chapter") + "/" + r.PathValue("file")
	path, ok := s.app.Docs.ResolveMediaPath(rel)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handleBlogIndex(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	s.serveCachedHTML(w, r, "post", "blog-index:"+strconv.Itoa(page), func() (string, error) {
		paginated, err := s.app.Blog.Paginate(page, 0)
		if err != nil {
			return "", err
		}
		categories, err := s.app.Blog.Categories()
		if err != nil {
			return "", err
		}
		tags, err := s.app.Blog.Tags()
		if err != nil {
			return "", err
		}

		var buf bytes.Buffer
		err = s.app.View.BlogIndex(&buf, view.BlogIndexData{
			SEO:         s.app.SEO.Resolve(nil, s.app.Cfg.Blog.Title),
			Title:       s.app.Cfg.Blog.Title,
			Posts:       paginated.Posts,
			CurrentPage: paginated.CurrentPage,
			LastPage:    paginated.LastPage,
			Total:       paginated.Total,
			Categories:  categories,
			Tags:        tags,
		})
		return buf.String(), err
	})
}

func (s *Server) handleBlogPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	s.serveCachedHTML(w, r, "post", "post:"+slug, func() (string, error) {
		rendered, err := s.app.Blog.Render(slug)
		if err != nil || rendered == nil {
			return "", err
		}
		s.rec.IncLinkErrors("post", len(rendered.LinkErrors))

		var buf bytes.Buffer
		err = s.app.View.BlogPost(&buf, view.BlogPostData{
			SEO:  s.app.SEO.Resolve(rendered.Meta, rendered.Title),
			Post: rendered,
		})
		return buf.String(), err
	})
}

func (s *Server) handleBlogCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	posts, err := s.app.Blog.PostsByCategory(slug)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.serveBlogList(w, r, "category", content.TitleFromSlug(slug), posts)
}

func (s *Server) handleBlogTag(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	posts, err := s.app.Blog.PostsByTag(slug)
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.serveBlogList(w, r, "tag", content.TitleFromSlug(slug), posts)
}

func (s *Server) handleBlogAuthor(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	posts, err := s.app.Blog.PostsByAuthor(slug)
	if err != nil {
		s.internalError(w, err)
		return
	}

	heading := content.TitleFromSlug(slug)
	for _, post := range posts {
		for _, author := range post.Authors {
			if author.Slug() == slug {
				heading = author.Name
			}
		}
	}
	s.serveBlogList(w, r, "author", heading, posts)
}

func (s *Server) serveBlogList(w http.ResponseWriter, r *http.Request, kind, heading string, posts []content.BlogPost) {
	if len(posts) == 0 {
		http.NotFound(w, r)
		return
	}

	var buf bytes.Buffer
	err := s.app.View.BlogList(&buf, view.BlogListData{
		SEO:     s.app.SEO.Resolve(nil, heading),
		Kind:    kind,
		Heading: heading,
		Posts:   posts,
	})
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeHTML(w, buf.String())
}

func (s *Server) handleBlogMedia(w http.ResponseWriter, r *http.Request) {
	path, ok := s.app.Blog.ResolveMediaPath(r.PathValue("slug"), r.PathValue("file"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, r.PathValue("slug"), false)
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, slug string, isHomepage bool) {
	s.serveCachedHTML(w, r, "page", "page:"+slug, func() (string, error) {
		page, err := s.app.Pages.Rendered(slug)
		if err != nil || page == nil {
			return "", err
		}
		s.rec.IncLinkErrors("page", len(page.LinkErrors))

		var buf bytes.Buffer
		err = s.app.View.Page(&buf, view.PageData{
			SEO:        s.app.SEO.Resolve(page.Meta, page.Title),
			Page:       page,
			Layout:     page.Layout,
			IsHomepage: isHomepage,
		})
		return buf.String(), err
	})
}

// handleSearch is a JSON endpoint: results for ?q=, suggestions otherwise.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	var (
		hits []content.SearchHit
		err  error
	)
	if query == "" {
		hits, err = s.app.Search.Suggestions()
	} else {
		s.rec.IncSearchQuery()
		hits, err = s.app.Search.Search(query)
	}
	if err != nil {
		s.internalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(hits); err != nil {
		slog.Error("encode search response", logfields.Error(err), logfields.Query(query))
	}
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	body, err := s.app.Feed.Generate()
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", s.app.Feed.ContentType())
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	body, err := s.app.Sitemap.Generate()
	if err != nil {
		s.internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleRobots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.app.RobotsTxt()))
}

func (s *Server) handleLLMS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(s.app.LLMSTxt()))
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// serveCachedHTML renders through the optional cache. An empty body with a
// nil error from render means not found.
func (s *Server) serveCachedHTML(w http.ResponseWriter, r *http.Request, kind, key string, render func() (string, error)) {
	if s.cache != nil {
		if html, ok := s.cacheGet(r.Context(), key); ok {
			s.writeHTML(w, html)
			return
		}
	}

	start := time.Now()
	html, err := render()
	if err != nil {
		s.internalError(w, err)
		return
	}
	if html == "" {
		http.NotFound(w, r)
		return
	}
	s.rec.ObserveRenderDuration(kind, time.Since(start))
	s.rec.IncRender(kind)

	if s.cache != nil {
		s.cachePut(r.Context(), key, html)
	}
	s.writeHTML(w, html)
}

func (s *Server) cacheGet(ctx context.Context, key string) (string, bool) {
	fp, err := state.Fingerprint(s.app.Cfg.ContentPath)
	if err != nil {
		return "", false
	}
	html, ok, err := s.cache.Get(ctx, fp, key)
	if err != nil {
		slog.Warn("render cache read failed", logfields.Error(err))
		return "", false
	}
	return html, ok
}

func (s *Server) cachePut(ctx context.Context, key, html string) {
	fp, err := state.Fingerprint(s.app.Cfg.ContentPath)
	if err != nil {
		return
	}
	if err := s.cache.Put(ctx, fp, key, html); err != nil {
		slog.Warn("render cache write failed", logfields.Error(err))
		return
	}
	if _, err := s.cache.Purge(ctx, fp); err != nil {
		slog.Warn("render cache purge failed", logfields.Error(err))
	}
}

func (s *Server) writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	slog.Error("request failed", logfields.Error(err))
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
