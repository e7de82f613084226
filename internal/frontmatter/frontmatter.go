// Package frontmatter splits Markdown documents into a metadata map and a
// body, parsing a deliberately small YAML dialect.
//
// The parser never fails: malformed or unterminated front matter degrades to
// "no metadata" with the original text as body. Content authors edit these
// files by hand, so a typo in the header must not take down page rendering.
package frontmatter

import (
	"regexp"
	"strconv"
	"strings"
)

// Document is the result of splitting a raw Markdown file.
type Document struct {
	Attributes map[string]any
	Body       string
}

var (
	delimiterRe  = regexp.MustCompile(`(?m)^---\s*$`)
	keyValueRe   = regexp.MustCompile(`^(\S[\w.]*)\s*:\s*(.*)$`)
	listItemRe   = regexp.MustCompile(`^\s*-\s+(.+)$`)
	inlineListRe = regexp.MustCompile(`^\[(.+)\]$`)
	quotedRe     = regexp.MustCompile(`^["'](.+)["']$`)
)

// Parse splits raw text into front-matter attributes and a body.
//
// Contract:
//   - No leading `---` (after left-trim): empty attributes, trimmed text as body.
//   - `---` present but unterminated: fail open, empty attributes, full text as body.
//   - Keys may contain dots; they are preserved literally, never nested.
func Parse(raw string) Document {
	raw = strings.TrimLeft(raw, " \t\r\n")

	if !strings.HasPrefix(raw, "---") {
		return Document{Attributes: map[string]any{}, Body: raw}
	}

	parts := splitDelimited(raw, 3)
	if len(parts) < 3 {
		return Document{Attributes: map[string]any{}, Body: raw}
	}

	return Document{
		Attributes: parseYAML(strings.TrimSpace(parts[1])),
		Body:       strings.TrimLeft(parts[2], " \t\r\n"),
	}
}

// splitDelimited splits text on lines consisting solely of `---`, returning at
// most max parts (the last part keeps any remaining delimiters).
func splitDelimited(text string, max int) []string {
	var parts []string
	rest := text
	for len(parts) < max-1 {
		loc := delimiterRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		parts = append(parts, rest[:loc[0]])
		rest = rest[loc[1]:]
		// Skip the newline that terminated the delimiter line.
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, "\r\n"), "\n")
	}
	return append(parts, rest)
}

// parseYAML handles the subset of YAML that front matter actually uses:
// scalar lines, indented `- ` lists under a bare key, inline bracket lists,
// comments and blank lines.
func parseYAML(yaml string) map[string]any {
	result := map[string]any{}
	currentKey := ""
	collectingList := false

	for _, line := range strings.Split(yaml, "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if m := keyValueRe.FindStringSubmatch(trimmed); m != nil {
			key := m[1]
			value := strings.TrimSpace(m[2])
			currentKey = key
			collectingList = false

			switch {
			case value == "":
				result[key] = []any{}
				collectingList = true
			case inlineListRe.MatchString(value):
				inner := inlineListRe.FindStringSubmatch(value)[1]
				items := []any{}
				for _, item := range strings.Split(inner, ",") {
					items = append(items, strings.Trim(strings.TrimSpace(item), `'"`))
				}
				result[key] = items
			default:
				result[key] = castScalar(value)
			}
			continue
		}

		if collectingList && currentKey != "" {
			if m := listItemRe.FindStringSubmatch(trimmed); m != nil {
				list, _ := result[currentKey].([]any)
				result[currentKey] = append(list, castScalar(strings.TrimSpace(m[1])))
			}
		}
	}

	return result
}

// castScalar applies the value-casting precedence: quoted strings stay
// verbatim, then booleans, null, integers, floats, and finally raw strings.
func castScalar(value string) any {
	if m := quotedRe.FindStringSubmatch(value); m != nil {
		return m[1]
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}

	if !strings.Contains(value, ".") {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return value
}

// MergeDotNotation expands each dot-notated override key into a nested map
// path (seo.title becomes {seo: {title: ...}}) and deep-merges the result
// over defaults. Overrides win at leaf level; untouched sibling keys survive.
func MergeDotNotation(defaults, overrides map[string]any) map[string]any {
	expanded := map[string]any{}
	for key, value := range overrides {
		setPath(expanded, strings.Split(key, "."), value)
	}
	return deepMerge(defaults, expanded)
}

func setPath(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setPath(child, path[1:], value)
}

func deepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = deepMerge(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}
