// Package highlight wraps chroma behind the narrow collaborator contract the
// renderer needs: code plus language name in, HTML out, error for languages
// chroma does not know. The renderer owns the escape fallback.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter renders code to HTML for a named language.
type Highlighter struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

// New constructs a Highlighter using the given chroma style name (empty
// selects the fallback style). Output carries classes only, no inline
// styles, and no surrounding <pre>: the renderer wraps the result itself.
func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Highlighter{
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		style: style,
	}
}

// Highlight renders code in the given language. It returns an error when the
// language is unknown or tokenisation fails; callers are expected to fall
// back to escaped plain text.
func (h *Highlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		return "", fmt.Errorf("unknown language %q", language)
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenise %q: %w", language, err)
	}

	var sb strings.Builder
	if err := h.formatter.Format(&sb, h.style, iterator); err != nil {
		return "", fmt.Errorf("format %q: %w", language, err)
	}
	return sb.String(), nil
}
