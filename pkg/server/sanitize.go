package server

import "strings"

// maxSanitizeDepth bounds recursion into nested update payloads. Values
// nested deeper than this are dropped.
const maxSanitizeDepth = 8

var priorityLevels = map[string]bool{
	"low":    true,
	"medium": true,
	"high":   true,
}

// sanitizer cleans untrusted update payloads before they reach the update
// callback: keys are reduced to [A-Za-z0-9_], strings are truncated, nesting
// is depth-capped, and priority values are coerced to a known level.
type sanitizer struct {
	maxStringLen int
}

func (z sanitizer) Map(m map[string]any) map[string]any {
	return z.mapAt(m, 0)
}

func (z sanitizer) mapAt(m map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(m))
	if depth >= maxSanitizeDepth {
		return out
	}
	for k, v := range m {
		key := cleanKey(k)
		if key == "" {
			continue
		}
		val, ok := z.valueAt(v, depth)
		if !ok {
			continue
		}
		if key == "priority" {
			val = coercePriority(val)
		}
		out[key] = val
	}
	return out
}

func (z sanitizer) valueAt(v any, depth int) (any, bool) {
	switch t := v.(type) {
	case string:
		if len(t) > z.maxStringLen {
			return t[:z.maxStringLen], true
		}
		return t, true
	case map[string]any:
		if depth+1 >= maxSanitizeDepth {
			return nil, false
		}
		return z.mapAt(t, depth+1), true
	case []any:
		if depth+1 >= maxSanitizeDepth {
			return nil, false
		}
		out := make([]any, 0, len(t))
		for _, el := range t {
			val, ok := z.valueAt(el, depth+1)
			if !ok {
				continue
			}
			out = append(out, val)
		}
		return out, true
	case nil, bool, float64, int, int64:
		return t, true
	default:
		// Unknown types do not survive JSON decoding; drop anything else.
		return nil, false
	}
}

// cleanKey strips every rune outside [A-Za-z0-9_].
func cleanKey(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return -1
		}
	}, k)
}

// coercePriority forces priority values onto a known level. Anything
// unrecognized becomes "medium".
func coercePriority(v any) any {
	s, ok := v.(string)
	if !ok || !priorityLevels[strings.ToLower(s)] {
		return "medium"
	}
	return strings.ToLower(s)
}
