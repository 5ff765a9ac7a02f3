package schema

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`{
		"title": "Tasks",
		"components": [{"type": "list", "id": "todos"}],
		"polling": {"enabled": true, "interval": "10s"}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Title != "Tasks" || len(s.Components) != 1 {
		t.Errorf("schema = %+v", s)
	}
	if got := s.PollInterval(); got != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", got)
	}
}

func TestParse_IntervalAsSeconds(t *testing.T) {
	s, err := Parse([]byte(`{
		"title": "T",
		"components": [{"type": "stat", "id": "s1"}],
		"polling": {"enabled": true, "interval": 3}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := s.PollInterval(); got != 3*time.Second {
		t.Errorf("PollInterval = %v, want 3s", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"bad json", `{`},
		{"bad interval", `{"title":"T","components":[{"type":"a","id":"x"}],"polling":{"enabled":true,"interval":"soon"}}`},
		{"duplicate ids", `{"title":"T","components":[{"type":"a","id":"x"},{"type":"b","id":"x"}]}`},
		{"empty type", `{"title":"T","components":[{"type":"","id":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.json)); err == nil {
				t.Error("Parse accepted invalid schema")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.json")
	content := `{"title": "Ops", "components": [{"type": "table", "id": "hosts"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if s.Title != "Ops" {
		t.Errorf("Title = %q", s.Title)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadFile accepted a missing file")
	}
}

func TestPollingRoundTrip(t *testing.T) {
	in := Polling{Enabled: true, Interval: 7 * time.Second}
	data, err := in.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var out Polling
	if err := out.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
