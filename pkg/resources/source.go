package resources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by a Source when the named resource does not
// exist. Callers use errors.Is to distinguish a missing file from a
// backend failure.
var ErrNotFound = errors.New("resources: not found")

// Source provides read access to a set of named resource files
// (stylesheets, scripts). Implementations must be safe for concurrent use.
type Source interface {
	// Open returns the contents of the named resource.
	// Returns an error wrapping ErrNotFound if the resource is missing.
	Open(ctx context.Context, name string) ([]byte, error)

	// Exists reports whether the named resource is present.
	Exists(ctx context.Context, name string) bool
}

// DirSource serves resources from a local directory.
type DirSource struct {
	dir string
}

// NewDirSource creates a Source backed by the given directory.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Open reads the named file from the directory. Names that attempt to
// escape the directory are rejected as not found.
func (d *DirSource) Open(ctx context.Context, name string) ([]byte, error) {
	rel, ok := cleanResourceName(name)
	if !ok {
		return nil, fmt.Errorf("resources: %q: %w", name, ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(d.dir, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("resources: %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("resources: read %q: %w", name, err)
	}
	return data, nil
}

// Exists reports whether the named file is present in the directory.
func (d *DirSource) Exists(ctx context.Context, name string) bool {
	rel, ok := cleanResourceName(name)
	if !ok {
		return false
	}
	info, err := os.Stat(filepath.Join(d.dir, filepath.FromSlash(rel)))
	return err == nil && !info.IsDir()
}

// cleanResourceName sanitizes a resource name for filesystem lookup.
// It rejects traversal and absolute-path tricks so resource serving
// cannot escape the configured directory.
func cleanResourceName(name string) (string, bool) {
	if name == "" {
		return "", false
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(name, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators and absolute paths.
	if strings.Contains(name, "\\") || strings.HasPrefix(name, "/") {
		return "", false
	}

	// Reject dot-segments before cleaning to avoid "cleaning away"
	// traversal attempts and changing the meaning of the request.
	for _, seg := range strings.Split(name, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(name)
	if clean == "." || clean == "" || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}
