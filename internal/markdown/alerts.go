package markdown

import (
	"regexp"
	"strings"
)

var alertRe = regexp.MustCompile(`(?s)<blockquote>\s*<p>\[!(NOTE|TIP|IMPORTANT|WARNING|CAUTION)\]\s*(</p>)?(.*?)</blockquote>`)

// transformAlerts converts GitHub-style alert blockquotes into styled divs.
// The marker may be a paragraph of its own or the first line of one; the
// remaining blockquote content is preserved as the alert body.
func transformAlerts(htmlIn string) string {
	return alertRe.ReplaceAllStringFunc(htmlIn, func(match string) string {
		m := alertRe.FindStringSubmatch(match)
		kind := strings.ToLower(m[1])
		title := strings.ToUpper(kind[:1]) + kind[1:]

		body := strings.TrimSpace(m[3])
		if m[2] == "" && body != "" {
			// Marker shared a paragraph with the first body line; restore
			// the opening tag the marker consumed.
			body = "<p>" + body
		}

		var sb strings.Builder
		sb.WriteString(`<div class="pergament-alert pergament-alert-` + kind + `" role="alert">`)
		sb.WriteString(`<p class="pergament-alert-title"><span class="pergament-alert-icon pergament-alert-icon-` + kind + `"></span>` + title + `</p>`)
		if body != "" {
			sb.WriteString(body)
		}
		sb.WriteString(`</div>`)
		return sb.String()
	})
}
