// Package feed renders the blog's Atom and RSS 2.0 feeds as XML strings.
package feed

import (
	"fmt"
	"html"
	"strings"
	"time"

	"git.home.luguber.info/inful/pergament/internal/blog"
	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/content"
	"git.home.luguber.info/inful/pergament/internal/urls"
)

// Service builds syndication feeds over the most recent posts.
type Service struct {
	cfg  *config.Config
	blog *blog.Repository
	urls *urls.Generator

	now func() time.Time
}

func NewService(cfg *config.Config, b *blog.Repository, gen *urls.Generator) *Service {
	return &Service{cfg: cfg, blog: b, urls: gen, now: time.Now}
}

// Generate renders the feed in the configured format. Anything other than
// "rss" means Atom.
func (s *Service) Generate() (string, error) {
	if s.cfg.Blog.Feed.Type == "rss" {
		return s.RSS()
	}
	return s.Atom()
}

// ContentType returns the MIME type matching the configured feed format.
func (s *Service) ContentType() string {
	if s.cfg.Blog.Feed.Type == "rss" {
		return "application/rss+xml; charset=utf-8"
	}
	return "application/atom+xml; charset=utf-8"
}

// Atom renders an Atom feed over the most recent posts, capped at the
// configured limit.
func (s *Service) Atom() (string, error) {
	posts, err := s.recentPosts()
	if err != nil {
		return "", err
	}

	prefix := s.cfg.Blog.URLPrefix
	updated := s.now()
	if len(posts) > 0 {
		updated = posts[0].Date
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	fmt.Fprintf(&b, "  <title>%s</title>\n", esc(s.feedTitle()))
	fmt.Fprintf(&b, "  <subtitle>%s</subtitle>\n", esc(s.cfg.Blog.Feed.Description))
	fmt.Fprintf(&b, "  <link href=\"%s\" rel=\"self\" type=\"application/atom+xml\"/>\n", esc(s.urls.URL(prefix, "feed")))
	fmt.Fprintf(&b, "  <link href=\"%s\" rel=\"alternate\" type=\"text/html\"/>\n", esc(s.urls.URL(prefix)))
	fmt.Fprintf(&b, "  <id>%s</id>\n", esc(s.urls.URL(prefix)))
	fmt.Fprintf(&b, "  <updated>%s</updated>\n", updated.Format(time.RFC3339))

	for _, post := range posts {
		postURL := s.urls.URL(prefix, post.Slug)
		b.WriteString("  <entry>\n")
		fmt.Fprintf(&b, "    <title>%s</title>\n", esc(post.Title))
		fmt.Fprintf(&b, "    <link href=\"%s\" rel=\"alternate\" type=\"text/html\"/>\n", esc(postURL))
		fmt.Fprintf(&b, "    <id>%s</id>\n", esc(postURL))
		fmt.Fprintf(&b, "    <published>%s</published>\n", post.Date.Format(time.RFC3339))
		fmt.Fprintf(&b, "    <updated>%s</updated>\n", post.Date.Format(time.RFC3339))
		fmt.Fprintf(&b, "    <summary>%s</summary>\n", esc(post.Excerpt))
		for _, author := range post.Authors {
			b.WriteString("    <author>\n")
			fmt.Fprintf(&b, "      <name>%s</name>\n", esc(author.Name))
			if author.Email != "" {
				fmt.Fprintf(&b, "      <email>%s</email>\n", esc(author.Email))
			}
			b.WriteString("    </author>\n")
		}
		if post.Category != "" {
			fmt.Fprintf(&b, "    <category term=\"%s\"/>\n", esc(post.Category))
		}
		b.WriteString("  </entry>\n")
	}

	b.WriteString("</feed>")
	return b.String(), nil
}

// RSS renders an RSS 2.0 feed over the most recent posts.
func (s *Service) RSS() (string, error) {
	posts, err := s.recentPosts()
	if err != nil {
		return "", err
	}

	prefix := s.cfg.Blog.URLPrefix

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">` + "\n")
	b.WriteString("  <channel>\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", esc(s.feedTitle()))
	fmt.Fprintf(&b, "    <link>%s</link>\n", esc(s.urls.URL(prefix)))
	fmt.Fprintf(&b, "    <description>%s</description>\n", esc(s.cfg.Blog.Feed.Description))
	fmt.Fprintf(&b, "    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\"/>\n", esc(s.urls.URL(prefix, "feed")))
	if len(posts) > 0 {
		fmt.Fprintf(&b, "    <lastBuildDate>%s</lastBuildDate>\n", posts[0].Date.Format(time.RFC1123Z))
	}

	for _, post := range posts {
		postURL := s.urls.URL(prefix, post.Slug)
		b.WriteString("    <item>\n")
		fmt.Fprintf(&b, "      <title>%s</title>\n", esc(post.Title))
		fmt.Fprintf(&b, "      <link>%s</link>\n", esc(postURL))
		fmt.Fprintf(&b, "      <guid isPermaLink=\"true\">%s</guid>\n", esc(postURL))
		fmt.Fprintf(&b, "      <pubDate>%s</pubDate>\n", post.Date.Format(time.RFC1123Z))
		fmt.Fprintf(&b, "      <description>%s</description>\n", esc(post.Excerpt))
		for _, author := range post.Authors {
			line := author.Name
			if author.Email != "" {
				line = author.Email + " (" + author.Name + ")"
			}
			fmt.Fprintf(&b, "      <author>%s</author>\n", esc(line))
		}
		if post.Category != "" {
			fmt.Fprintf(&b, "      <category>%s</category>\n", esc(post.Category))
		}
		b.WriteString("    </item>\n")
	}

	b.WriteString("  </channel>\n")
	b.WriteString("</rss>")
	return b.String(), nil
}

func (s *Service) recentPosts() ([]content.BlogPost, error) {
	posts, err := s.blog.Posts()
	if err != nil {
		return nil, err
	}
	limit := s.cfg.Blog.Feed.Limit
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (s *Service) feedTitle() string {
	if s.cfg.Blog.Feed.Title != "" {
		return s.cfg.Blog.Feed.Title
	}
	if s.cfg.Site.Name != "" {
		return s.cfg.Site.Name
	}
	return "Blog"
}

func esc(text string) string {
	return html.EscapeString(text)
}
