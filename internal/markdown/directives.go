package markdown

import (
	"regexp"
	"strings"
)

var blockDirectiveRe = regexp.MustCompile(`(?s)<p>:::([\w-]+)</p>(.*?)<p>:::</p>`)

// transformBlockDirectives maps the `:::name ... :::` convention onto styled
// container divs. Pairing is non-greedy, first match wins.
func transformBlockDirectives(htmlIn string) string {
	return blockDirectiveRe.ReplaceAllStringFunc(htmlIn, func(match string) string {
		m := blockDirectiveRe.FindStringSubmatch(match)
		name := m[1]
		inner := strings.TrimSpace(m[2])
		return `<div class="pergament-block pergament-block-` + escapeHTML(name) + `">` + inner + `</div>`
	})
}
