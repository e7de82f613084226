// Package content defines the entities shared by the documentation, blog and
// pages repositories, plus the naming helpers that turn directory/file
// conventions into slugs and titles.
//
// Entities are plain values constructed fresh from the filesystem on every
// repository query; nothing here carries identity or mutable state.
package content

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Author describes a blog post author resolved from front matter or the
// configured defaults.
type Author struct {
	Name   string
	Email  string
	URL    string
	Avatar string
}

// Slug returns the URL-safe identifier derived from the author name.
func (a Author) Slug() string {
	return Slugify(a.Name)
}

// DocPage is one Markdown file inside a numbered chapter directory.
type DocPage struct {
	Title   string
	Excerpt string
	Slug    string
	Content string         // raw Markdown body, front matter removed
	Meta    map[string]any // full front-matter map, dotted keys kept flat
}

// DocChapter is one numbered subdirectory of the docs root.
type DocChapter struct {
	Title string
	Slug  string
	Pages []DocPage
}

// BlogPost is one YYYY-MM-DD-{slug} directory containing a post.md file.
type BlogPost struct {
	Title    string
	Excerpt  string
	Slug     string
	Content  string
	Date     time.Time
	Category string // empty when the post has none
	Tags     []string
	Authors  []Author
	Meta     map[string]any
}

// Page is one Markdown file directly in the pages directory.
type Page struct {
	Title   string
	Excerpt string
	Slug    string
	Content string
	Layout  string // verbatim from front matter; empty means default layout
	Meta    map[string]any
}

// DocHeading is an h2/h3 extracted from rendered HTML, ephemeral per render.
type DocHeading struct {
	Text  string
	Slug  string
	Level int
}

// PageRef points at a neighboring document for previous/next navigation.
type PageRef struct {
	Title string
	URL   string
}

// SearchHit is one entry in a search or suggestion result list.
// Type is "doc", "post" or "page".
type SearchHit struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	URL     string `json:"url"`
	Type    string `json:"type"`
}

var (
	numberPrefixRe = regexp.MustCompile(`^\d+-`)
	datePrefixRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9]+`)
)

// StripNumberPrefix removes a leading `\d+-` ordering prefix from a directory
// or file name. Idempotent: stripping twice equals stripping once.
func StripNumberPrefix(name string) string {
	return numberPrefixRe.ReplaceAllString(name, "")
}

// StripDatePrefix removes a leading `YYYY-MM-DD-` prefix from a blog post
// directory name.
func StripDatePrefix(name string) string {
	return datePrefixRe.ReplaceAllString(name, "")
}

var titleCaser = cases.Title(language.English)

// TitleFromSlug derives a default human title from a slug: dashes become
// spaces, words are title-cased.
func TitleFromSlug(slug string) string {
	return titleCaser.String(strings.ReplaceAll(slug, "-", " "))
}

// Slugify turns arbitrary text into a kebab-case identifier. Runs of
// non-alphanumeric characters collapse to a single dash.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugInvalidRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
