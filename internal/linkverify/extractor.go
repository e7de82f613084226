// Package linkverify checks the internal link graph of an exported site.
// It parses each generated HTML file, collects links and asset references,
// and reports the ones that point at nothing in the output tree.
package linkverify

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// Link is one extracted reference from an HTML document.
type Link struct {
	URL        string // the raw href/src value
	Text       string // link text or alt text
	Tag        string // a, img, link, script, source
	Attribute  string // href or src
	IsInternal bool
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath, baseURL string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("open html file: %w", err)
	}
	defer file.Close()

	return ExtractLinksFromReader(file, baseURL)
}

// ExtractLinksFromReader extracts all links from an HTML stream.
func ExtractLinksFromReader(r io.Reader, baseURL string) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if l, ok := elementLink(n, base); ok {
				links = append(links, l)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func elementLink(n *html.Node, base *url.URL) (Link, bool) {
	switch n.Data {
	case "a":
		if href := getAttr(n, "href"); href != "" {
			return Link{URL: href, Text: nodeText(n), Tag: "a", Attribute: "href", IsInternal: isInternal(href, base)}, true
		}
	case "img":
		if src := getAttr(n, "src"); src != "" {
			return Link{URL: src, Text: getAttr(n, "alt"), Tag: "img", Attribute: "src", IsInternal: isInternal(src, base)}, true
		}
	case "link":
		if href := getAttr(n, "href"); href != "" {
			return Link{URL: href, Text: getAttr(n, "rel"), Tag: "link", Attribute: "href", IsInternal: isInternal(href, base)}, true
		}
	case "script", "source", "video", "audio":
		if src := getAttr(n, "src"); src != "" {
			return Link{URL: src, Tag: n.Data, Attribute: "src", IsInternal: isInternal(src, base)}, true
		}
	}
	return Link{}, false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var text strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text.WriteString(nodeText(c))
	}
	return strings.TrimSpace(text.String())
}

func isInternal(linkURL string, base *url.URL) bool {
	if strings.HasPrefix(linkURL, "mailto:") ||
		strings.HasPrefix(linkURL, "tel:") ||
		strings.HasPrefix(linkURL, "#") {
		return true
	}

	u, err := url.Parse(linkURL)
	if err != nil {
		return false
	}
	if u.Scheme == "" || u.Host == "" {
		return true
	}
	return base != nil && u.Host == base.Host
}

// shouldVerify filters out references that never correspond to a file check:
// fragments, special protocols and empty URLs.
func shouldVerify(l Link) bool {
	if l.URL == "" || strings.HasPrefix(l.URL, "#") {
		return false
	}
	for _, prefix := range []string{"mailto:", "tel:", "javascript:", "data:"} {
		if strings.HasPrefix(l.URL, prefix) {
			return false
		}
	}
	return true
}
