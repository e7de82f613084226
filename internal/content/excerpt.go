package content

import (
	"regexp"
	"strings"
)

var (
	markdownPunctRe = regexp.MustCompile("[#*_`\\[\\]()!>~|]+")
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

// Excerpt derives a plain-text excerpt from a raw Markdown body: Markdown
// punctuation stripped, whitespace collapsed, truncated to limit characters.
func Excerpt(body string, limit int) string {
	s := markdownPunctRe.ReplaceAllString(body, "")
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + "..."
}
