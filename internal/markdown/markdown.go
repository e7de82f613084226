// Package markdown implements the Markdown-to-HTML transform chain: goldmark
// conversion followed by regex post-processing for syntax highlighting,
// heading anchors, block directives and alert blockquotes.
//
// The pipeline is an explicit ordered list of string transforms. Ordering is
// a hard contract: each stage pattern-matches on markup the previous stage
// generated (highlighting rewraps converter output, heading ids must exist
// before extraction, directives and alerts match converter paragraphs).
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Highlighter is the external syntax-highlighting collaborator. It may fail
// for unknown languages; the renderer falls back to escaped plain text.
type Highlighter interface {
	Highlight(code, language string) (string, error)
}

// Options configures a Renderer.
type Options struct {
	Footnotes bool // enable the [^1] footnote extension

	// Content roots for cross-document link resolution, absolute paths.
	DocsDir  string
	BlogDir  string
	PagesDir string

	// URL prefixes (combined with the base prefix by PathFunc).
	DocsPrefix string
	BlogPrefix string

	// PathFunc builds a site-relative path from segments; wired to
	// urls.Generator.Path. Required for link resolution.
	PathFunc func(segments ...string) string
}

type stage struct {
	name  string
	apply func(string) string
}

// Renderer converts Markdown to HTML and post-processes the result.
type Renderer struct {
	md     goldmark.Markdown
	stages []stage
	opts   Options
}

// New constructs a Renderer. The stage order is fixed; see the package
// comment for why it must not change.
func New(opts Options, highlighter Highlighter) *Renderer {
	gmOpts := []goldmark.Option{
		// Raw inline HTML passes through; dangerous link schemes are
		// neutralized by the convert stage below.
		goldmark.WithRendererOptions(html.WithUnsafe()),
	}
	if opts.Footnotes {
		gmOpts = append(gmOpts, goldmark.WithExtensions(extension.Footnote))
	}

	r := &Renderer{
		md:   goldmark.New(gmOpts...),
		opts: opts,
	}
	r.stages = []stage{
		{"em_dash", emDashPass},
		{"convert", r.convert},
		{"highlight_code_blocks", func(h string) string { return highlightCodeBlocks(h, highlighter) }},
		{"heading_ids", addHeadingIDs},
		{"block_directives", transformBlockDirectives},
		{"alerts", transformAlerts},
	}
	return r
}

// ToHTML runs the full transform chain over a Markdown body.
func (r *Renderer) ToHTML(markdown string) string {
	out := markdown
	for _, s := range r.stages {
		out = s.apply(out)
	}
	return out
}

// StageNames exposes the pipeline order for tests asserting the contract.
func (r *Renderer) StageNames() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.name
	}
	return names
}

// emDashPass replaces ` -- ` with an em dash. Naive token substitution, not
// quote- or code-aware; a known limitation.
func emDashPass(markdown string) string {
	return strings.ReplaceAll(markdown, " -- ", " — ")
}

func (r *Renderer) convert(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		// goldmark only errors on writer failure, which bytes.Buffer
		// never produces. Degrade to escaped source just in case.
		return "<pre>" + escapeHTML(markdown) + "</pre>"
	}
	return neutralizeUnsafeLinks(buf.String())
}

func escapeHTML(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
