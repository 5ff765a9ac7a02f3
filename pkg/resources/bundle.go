package resources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/schema"
)

// BundleScripts concatenates, in order, all framework files and every
// component file whose load rule matches the schema. Each file is
// prefixed with a marker comment identifying its origin.
//
// A missing individual file is skipped with a warning: a partial bundle
// is preferred over total failure, so BundleScripts never returns an
// error for missing files.
func (r *Resolver) BundleScripts(ctx context.Context, s *schema.Schema) string {
	if r.cfg.Scripts == nil {
		return ""
	}

	var sb strings.Builder
	for _, name := range r.scriptFiles(s) {
		data, err := r.cfg.Scripts.Open(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				r.log.Warn("bundle file missing, skipping", "name", name)
			} else {
				r.log.Warn("bundle file unreadable, skipping", "name", name, "err", err)
			}
			continue
		}
		fmt.Fprintf(&sb, "/* ==== %s ==== */\n", name)
		sb.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// Style returns the named stylesheet's contents.
func (r *Resolver) Style(ctx context.Context, name string) ([]byte, error) {
	if r.cfg.Styles == nil {
		return nil, fmt.Errorf("resources: no style source: %w", ErrNotFound)
	}
	return r.cfg.Styles.Open(ctx, name)
}

// Script returns the named script's contents.
func (r *Resolver) Script(ctx context.Context, name string) ([]byte, error) {
	if r.cfg.Scripts == nil {
		return nil, fmt.Errorf("resources: no script source: %w", ErrNotFound)
	}
	return r.cfg.Scripts.Open(ctx, name)
}

// BaseStyleName returns the configured always-included stylesheet name.
func (r *Resolver) BaseStyleName() string {
	return r.cfg.BaseStyle
}

// Bundling reports whether script bundling is enabled.
func (r *Resolver) Bundling() bool {
	return r.cfg.BundleScripts
}
