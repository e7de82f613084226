package markdown

import (
	"regexp"
	"strconv"

	"git.home.luguber.info/inful/pergament/internal/content"
)

var (
	plainHeadingRe = regexp.MustCompile(`(?s)<h([23])>(.*?)</h[23]>`)
	idHeadingRe    = regexp.MustCompile(`(?s)<h([23])\s+id="([^"]*)"[^>]*>(.*?)</h[23]>`)
	firstH1Re      = regexp.MustCompile(`(?s)<h1>.*?</h1>`)
	nestedTagRe    = regexp.MustCompile(`<[^>]*>`)
)

// addHeadingIDs injects slug-based ids onto every h2 and h3. Headings that
// slugify identically share the anchor; deduplication would change anchor
// URLs for existing content, so the collision is left as documented behavior.
func addHeadingIDs(htmlIn string) string {
	return plainHeadingRe.ReplaceAllStringFunc(htmlIn, func(match string) string {
		m := plainHeadingRe.FindStringSubmatch(match)
		level := m[1]
		inner := m[2]
		slug := content.Slugify(stripTags(inner))
		return `<h` + level + ` id="` + slug + `">` + inner + `</h` + level + `>`
	})
}

// StripFirstH1 removes only the first h1 element; documents without one are
// returned unchanged.
func StripFirstH1(htmlIn string) string {
	loc := firstH1Re.FindStringIndex(htmlIn)
	if loc == nil {
		return htmlIn
	}
	return htmlIn[:loc[0]] + htmlIn[loc[1]:]
}

// ExtractHeadings scans rendered HTML for h2/h3 elements with injected ids,
// for table-of-contents rendering. Nested tags are stripped from the text.
func ExtractHeadings(htmlIn string) []content.DocHeading {
	headings := []content.DocHeading{}
	for _, m := range idHeadingRe.FindAllStringSubmatch(htmlIn, -1) {
		level, _ := strconv.Atoi(m[1])
		headings = append(headings, content.DocHeading{
			Text:  stripTags(m[3]),
			Slug:  m[2],
			Level: level,
		})
	}
	return headings
}

func stripTags(s string) string {
	return nestedTagRe.ReplaceAllString(s, "")
}
