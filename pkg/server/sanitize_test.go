package server

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitize_Keys(t *testing.T) {
	z := sanitizer{maxStringLen: 100}

	got := z.Map(map[string]any{
		"plain_key":    "a",
		"spaced key":   "b",
		"semi;colon":   "c",
		"<script>":     "dropped entirely",
		"mixed_OK_9":   "d",
		"!!!":          "empty after cleaning",
		"dot.notation": "e",
	})

	want := map[string]any{
		"plain_key":   "a",
		"spacedkey":   "b",
		"semicolon":   "c",
		"script":      "dropped entirely",
		"mixed_OK_9":  "d",
		"dotnotation": "e",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Map = %v, want %v", got, want)
	}
}

func TestSanitize_TruncatesStrings(t *testing.T) {
	z := sanitizer{maxStringLen: 10}

	got := z.Map(map[string]any{"text": strings.Repeat("x", 50)})
	if s := got["text"].(string); len(s) != 10 {
		t.Errorf("len = %d, want 10", len(s))
	}
}

func TestSanitize_NestedValues(t *testing.T) {
	z := sanitizer{maxStringLen: 100}

	got := z.Map(map[string]any{
		"meta": map[string]any{
			"bad key": "v",
			"tags":    []any{"a", "b"},
		},
		"count": float64(3),
		"done":  true,
		"none":  nil,
	})

	meta := got["meta"].(map[string]any)
	if meta["badkey"] != "v" {
		t.Errorf("nested key not cleaned: %v", meta)
	}
	if tags := meta["tags"].([]any); len(tags) != 2 {
		t.Errorf("tags = %v", tags)
	}
	if got["count"] != float64(3) || got["done"] != true {
		t.Errorf("scalars altered: %v", got)
	}
}

func TestSanitize_DepthCap(t *testing.T) {
	z := sanitizer{maxStringLen: 100}

	deep := map[string]any{}
	cur := deep
	for i := 0; i < maxSanitizeDepth+4; i++ {
		next := map[string]any{}
		cur["child"] = next
		cur = next
	}
	cur["leaf"] = "v"

	got := z.Map(deep)
	depth := 0
	for m := got; m != nil; depth++ {
		child, ok := m["child"].(map[string]any)
		if !ok {
			break
		}
		m = child
	}
	if depth > maxSanitizeDepth {
		t.Errorf("depth = %d, want at most %d", depth, maxSanitizeDepth)
	}
}

func TestSanitize_Priority(t *testing.T) {
	z := sanitizer{maxStringLen: 100}

	tests := []struct {
		in   any
		want any
	}{
		{"low", "low"},
		{"HIGH", "high"},
		{"urgent", "medium"},
		{"", "medium"},
		{float64(5), "medium"},
	}
	for _, tt := range tests {
		got := z.Map(map[string]any{"priority": tt.in})
		if got["priority"] != tt.want {
			t.Errorf("priority %v = %v, want %v", tt.in, got["priority"], tt.want)
		}
	}
}
