package expand

import (
	"fmt"
	"strings"
)

// substitute fills `{key}` placeholders in s from values. `{{` and `}}`
// produce literal braces. A placeholder naming an unknown key is kept as
// written so that unrelated brace syntax in arguments survives expansion.
func substitute(s string, values map[string]string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			b.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			b.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			key := s[i+1 : i+1+end]
			if v, ok := values[key]; ok {
				b.WriteString(v)
			} else {
				b.WriteString(s[i : i+2+end])
			}
			i += end + 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// substituteValue applies substitute to every string reachable from v,
// descending into maps and slices. Other leaves are returned unchanged.
func substituteValue(v any, values map[string]string) any {
	switch t := v.(type) {
	case string:
		return substitute(t, values)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = substituteValue(item, values)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = substituteValue(item, values)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = substitute(item, values)
		}
		return out
	default:
		return v
	}
}

// render turns a variable value into the text placed into a template.
func render(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
