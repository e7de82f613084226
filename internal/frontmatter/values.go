package frontmatter

import "fmt"

// Front-matter values are dynamically shaped: a key may hold a string, a
// list, or a map depending on author intent. These accessors keep the type
// switching in one place so consumption sites (author resolution, tag lists)
// stay exhaustive and explicit.

// StringValue returns the attribute as a string, or fallback when the key is
// absent. Non-string scalars are formatted.
func StringValue(attrs map[string]any, key, fallback string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case bool, int, float64:
		return fmt.Sprintf("%v", s)
	default:
		return fallback
	}
}

// StringList returns the attribute as a list of strings. A bare string scalar
// becomes a one-element list; list items that are not strings are skipped.
func StringList(attrs map[string]any, key string) []string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return nil
	}
	switch items := v.(type) {
	case string:
		return []string{items}
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return items
	default:
		return nil
	}
}
