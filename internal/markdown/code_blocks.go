package markdown

import (
	"html"
	"regexp"
	"strings"
)

var (
	codeBlockRe  = regexp.MustCompile(`(?s)<pre><code(?:\s+class="language-(\w+)")?>(.*?)</code></pre>`)
	unsafeHrefRe = regexp.MustCompile(`(?i)href="\s*(?:javascript|vbscript|data):[^"]*"`)
)

// highlightCodeBlocks rewrites every fenced code block the converter emitted.
// The escaped body is decoded and handed to the highlighter; empty, "text"
// and "plaintext" languages, and any highlighter failure, fall back to the
// HTML-escaped code verbatim. A highlighting failure never reaches the caller.
func highlightCodeBlocks(htmlIn string, highlighter Highlighter) string {
	return codeBlockRe.ReplaceAllStringFunc(htmlIn, func(match string) string {
		m := codeBlockRe.FindStringSubmatch(match)
		language := m[1]
		code := html.UnescapeString(m[2])

		rendered := ""
		switch {
		case language == "" || language == "text" || language == "plaintext" || highlighter == nil:
			rendered = escapeHTML(code)
		default:
			out, err := highlighter.Highlight(code, language)
			if err != nil {
				rendered = escapeHTML(code)
			} else {
				rendered = out
			}
		}

		langAttr := ""
		if language != "" {
			langAttr = ` data-language="` + escapeHTML(language) + `"`
		}
		return `<pre class="pergament-code-block"` + langAttr + `><code>` + rendered + `</code></pre>`
	})
}

// neutralizeUnsafeLinks blanks href attributes using script-capable schemes.
// Raw inline HTML passes through the converter, so the unsafe-link guarantee
// has to be enforced on its output.
func neutralizeUnsafeLinks(htmlIn string) string {
	if !strings.Contains(strings.ToLower(htmlIn), "script:") && !strings.Contains(strings.ToLower(htmlIn), "data:") {
		return htmlIn
	}
	return unsafeHrefRe.ReplaceAllString(htmlIn, `href="#"`)
}
