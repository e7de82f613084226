// Package urls builds site-relative paths and absolute URLs from the
// configured base prefix. All canonical URLs (docs pages, blog posts,
// media, feeds) are produced here so the prefix logic lives in one place.
package urls

import "strings"

// Generator composes paths under a normalized base prefix.
type Generator struct {
	prefix  string // normalized, no surrounding slashes; empty means root
	siteURL string // no trailing slash
}

// New constructs a Generator. prefix may be "/", "docs" or a nested path;
// siteURL is the absolute origin used by URL().
func New(prefix, siteURL string) *Generator {
	return &Generator{
		prefix:  strings.Trim(prefix, "/"),
		siteURL: strings.TrimRight(siteURL, "/"),
	}
}

// BasePrefix returns the normalized base prefix without surrounding slashes.
// Empty when the site is mounted at the root.
func (g *Generator) BasePrefix() string {
	return g.prefix
}

// Path joins segments under the base prefix into a site-relative path.
// Empty segments are skipped.
func (g *Generator) Path(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			parts = append(parts, s)
		}
	}
	joined := strings.Join(parts, "/")

	if g.prefix == "" {
		return "/" + joined
	}
	if joined == "" {
		return "/" + g.prefix
	}
	return "/" + g.prefix + "/" + joined
}

// URL returns the absolute URL for the given segments.
func (g *Generator) URL(segments ...string) string {
	return g.siteURL + g.Path(segments...)
}
