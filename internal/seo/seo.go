// Package seo merges site-wide SEO defaults with per-page front-matter
// overrides. Pages override via flat dot-notated keys (seo.title,
// seo.og_image) that the front-matter parser keeps unexpanded.
package seo

import (
	"strings"

	"git.home.luguber.info/inful/pergament/internal/config"
	"git.home.luguber.info/inful/pergament/internal/frontmatter"
)

// Meta is the resolved metadata for one page's head section.
type Meta struct {
	Title       string
	Description string
	Keywords    string
	OGImage     string
	TwitterCard string
	Robots      string
	Canonical   string // empty unless the page sets seo.canonical
	OGType      string // empty unless the page sets seo.og_type
}

// Service resolves SEO metadata against the configured site defaults.
type Service struct {
	cfg *config.Config
}

func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Resolve merges the page's seo.* front-matter keys over the site defaults.
// An empty pageTitle means the page has none. The title precedence is:
// explicit seo.title override, then "{pageTitle} - {siteName}", then the
// merged default title, then the site name.
func (s *Service) Resolve(pageMeta map[string]any, pageTitle string) Meta {
	overrides := map[string]any{}
	for key, value := range pageMeta {
		if strings.HasPrefix(key, "seo.") {
			overrides[strings.TrimPrefix(key, "seo.")] = value
		}
	}

	merged := frontmatter.MergeDotNotation(s.cfg.Site.SEO, overrides)

	title := stringAt(merged, "title")
	if title == "" {
		title = pageTitle
	}
	if title == "" {
		title = s.cfg.Site.Name
	}
	if _, overridden := overrides["title"]; pageTitle != "" && !overridden {
		title = pageTitle
		if s.cfg.Site.Name != "" {
			title += " - " + s.cfg.Site.Name
		}
	}

	twitterCard := stringAt(merged, "twitter_card")
	if twitterCard == "" {
		twitterCard = "summary_large_image"
	}
	robots := stringAt(merged, "robots")
	if robots == "" {
		robots = "index, follow"
	}

	return Meta{
		Title:       title,
		Description: stringAt(merged, "description"),
		Keywords:    stringAt(merged, "keywords"),
		OGImage:     stringAt(merged, "og_image"),
		TwitterCard: twitterCard,
		Robots:      robots,
		Canonical:   frontmatter.StringValue(pageMeta, "seo.canonical", ""),
		OGType:      frontmatter.StringValue(pageMeta, "seo.og_type", ""),
	}
}

func stringAt(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
