package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"name": "demo"}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "demo" {
		t.Errorf("Name = %q, want demo", cfg.Name)
	}
	if cfg.Host != DefaultHost || cfg.BasePort != DefaultBasePort {
		t.Errorf("defaults not applied: host %q port %d", cfg.Host, cfg.BasePort)
	}
	ttl, err := cfg.SessionTTL()
	if err != nil || ttl != time.Hour {
		t.Errorf("SessionTTL = %v, %v; want 1h", ttl, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "E101") {
		t.Fatalf("Load error = %v, want E101", err)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{not json`)

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "E102") {
		t.Fatalf("Load error = %v, want E102", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"valid", `{"basePort": 9000, "sessions": {"ttl": "2h"}}`, ""},
		{"bad port", `{"basePort": 70000}`, "E103"},
		{"bad ttl", `{"sessions": {"ttl": "soon"}}`, "E104"},
		{"negative ttl", `{"sessions": {"ttl": "-5m"}}`, "E103"},
		{"gateway without url", `{"gateway": {"enabled": true}}`, "E501"},
		{"gateway with url", `{"gateway": {"enabled": true, "url": "http://gw:8443"}}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.json)
			cfg, err := Load(dir)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want %s", err, tt.wantErr)
			}
		})
	}
}

func TestPaths_RelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `{"resources": {"stylesDir": "ui/css"}}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got, want := cfg.StylesPath(), filepath.Join(dir, "ui/css"); got != want {
		t.Errorf("StylesPath = %q, want %q", got, want)
	}
	if cfg.SchemaPath() != "" {
		t.Errorf("SchemaPath = %q, want empty", cfg.SchemaPath())
	}
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `{}`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot: %v", err)
	}
	// Resolve symlinks so the comparison survives macOS /tmp vs /private/tmp.
	wantResolved, _ := filepath.EvalSymlinks(root)
	gotResolved, _ := filepath.EvalSymlinks(got)
	if gotResolved != wantResolved {
		t.Errorf("FindProjectRoot = %q, want %q", got, root)
	}
}
