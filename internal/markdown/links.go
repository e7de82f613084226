package markdown

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/pergament/internal/content"
)

var contentLinkRe = regexp.MustCompile(`(?is)<a\s+([^>]*?)href="([^"]*\.md(?:#[^"]*)?)"([^>]*?)>(.*?)</a>`)

// ResolveContentLinks rewrites anchors pointing at `.md` files to their
// canonical site-relative URLs. Each link has one of three terminal
// outcomes: rewritten, dropped to its label with a recorded warning, or
// passed through untouched (absolute URLs). The function never fails; it
// returns best-effort HTML plus human-readable warnings for the caller.
func (r *Renderer) ResolveContentLinks(htmlIn, sourceFilePath string) (string, []string) {
	sourceDir := filepath.Dir(sourceFilePath)
	linkErrors := []string{}

	out := contentLinkRe.ReplaceAllStringFunc(htmlIn, func(match string) string {
		m := contentLinkRe.FindStringSubmatch(match)
		beforeHref, href, afterHref, linkText := m[1], m[2], m[3], m[4]

		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			return match
		}

		fragment := ""
		if i := strings.Index(href, "#"); i >= 0 {
			href, fragment = href[:i], href[i:]
		}

		resolved := normalizePath(sourceDir + "/" + href)

		if _, err := os.Stat(resolved); err != nil {
			linkErrors = append(linkErrors, "Broken link to '"+m[2]+"' in "+filepath.Base(sourceFilePath))
			return linkText
		}

		url := r.resolveFileToURL(resolved)
		if url == "" {
			linkErrors = append(linkErrors, "Cannot resolve URL for '"+m[2]+"' in "+filepath.Base(sourceFilePath))
			return linkText
		}

		return `<a ` + beforeHref + `href="` + url + fragment + `"` + afterHref + `>` + linkText + `</a>`
	})

	return out, linkErrors
}

// resolveFileToURL maps a resolved content file onto its canonical URL, or
// returns "" when the file lies outside all three content roots.
func (r *Renderer) resolveFileToURL(filePath string) string {
	filePath = filepath.ToSlash(filePath)

	if rel, ok := relativeTo(filePath, r.opts.DocsDir); ok {
		parts := strings.Split(rel, "/")
		if len(parts) == 2 {
			chapterSlug := content.StripNumberPrefix(parts[0])
			pageSlug := content.StripNumberPrefix(strings.TrimSuffix(parts[1], filepath.Ext(parts[1])))
			return r.opts.PathFunc(r.opts.DocsPrefix, chapterSlug, pageSlug)
		}
	}

	if rel, ok := relativeTo(filePath, r.opts.BlogDir); ok {
		parts := strings.Split(rel, "/")
		if len(parts) == 2 && parts[1] == "post.md" {
			return r.opts.PathFunc(r.opts.BlogPrefix, content.StripDatePrefix(parts[0]))
		}
	}

	if rel, ok := relativeTo(filePath, r.opts.PagesDir); ok {
		base := filepath.Base(rel)
		return r.opts.PathFunc(strings.TrimSuffix(base, filepath.Ext(base)))
	}

	return ""
}

func relativeTo(filePath, root string) (string, bool) {
	if root == "" {
		return "", false
	}
	root = strings.TrimRight(filepath.ToSlash(root), "/") + "/"
	if !strings.HasPrefix(filePath, root) {
		return "", false
	}
	return filePath[len(root):], true
}

// normalizePath resolves `.` and `..` segments lexically; no symlink
// resolution, matching how authors reason about relative links.
func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	parts := []string{}
	for _, segment := range strings.Split(p, "/") {
		switch segment {
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		case ".", "":
		default:
			parts = append(parts, segment)
		}
	}
	prefix := ""
	if strings.HasPrefix(p, "/") {
		prefix = "/"
	}
	return prefix + strings.Join(parts, "/")
}
