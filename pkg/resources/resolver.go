// Package resources decides which presentation resources (style and
// script files) a dashboard schema needs, and serves them either as
// discrete files or as one bundled payload.
//
// Resolution is a pure function of the schema and the resolver's
// registries: the same schema always yields the same Bundle. Theme
// selection, component load rules, and accent keywords are explicit
// ordered registries, not string-sniffing scattered through the code.
package resources

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/agentdeck/agentdeck/pkg/schema"
)

// URL paths the session server mounts resource routes on.
const (
	StylePathPrefix  = "/assets/css/"
	ScriptPathPrefix = "/assets/js/"
	BundleScriptPath = ScriptPathPrefix + "bundle.js"
)

// Bundle is the resolved resource set for one schema. It is derived, not
// persisted; recompute or cache it per schema as convenient.
type Bundle struct {
	// Styles are ordered stylesheet URL paths: base style first, then the
	// winning theme (if any).
	Styles []string

	// Scripts are ordered script URL paths. With bundling enabled this is
	// exactly one entry, the bundle endpoint.
	Scripts []string

	// InlineStyle is a schema-derived CSS fragment (accent custom
	// properties plus per-component style fragments).
	InlineStyle string

	// Preloads holds one preload hint per style resource.
	Preloads []string
}

// Theme is a candidate stylesheet with match conditions. A theme matches
// when its title substring is found in the schema title, or when the
// schema contains its component type. A theme with no conditions always
// matches (a low-priority catch-all).
type Theme struct {
	Name          string
	File          string
	Priority      int
	TitleContains string
	ComponentType string
}

func (t Theme) matches(s *schema.Schema) bool {
	if t.TitleContains == "" && t.ComponentType == "" {
		return true
	}
	if t.TitleContains != "" && strings.Contains(strings.ToLower(s.Title), strings.ToLower(t.TitleContains)) {
		return true
	}
	if t.ComponentType != "" && s.HasComponent(t.ComponentType) {
		return true
	}
	return false
}

// ComponentRule maps a component type tag to the script files it needs.
// Match defaults to "the schema contains this type". Adding a component
// type is a registry insertion, not a change to resolver logic.
type ComponentRule struct {
	Type  string
	Files []string
	Match func(*schema.Schema) bool
}

func (r ComponentRule) applies(s *schema.Schema) bool {
	if r.Match != nil {
		return r.Match(s)
	}
	return s.HasComponent(r.Type)
}

// Accent maps a title keyword to CSS custom-property overrides.
type Accent struct {
	Keyword string
	Vars    map[string]string
}

// Config configures a Resolver.
type Config struct {
	// Styles is the stylesheet source. Nil disables style resolution.
	Styles Source

	// Scripts is the script source. Nil disables script resolution.
	Scripts Source

	// BaseStyle is the always-included stylesheet name (default "base.css").
	BaseStyle string

	// FrameworkFiles are scripts included ahead of any component files
	// (default "runtime.js", "api.js").
	FrameworkFiles []string

	// BundleScripts collapses all script references into the single
	// bundle endpoint.
	BundleScripts bool

	// Logger is used for degraded-resource warnings. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Validation is the result of checking a schema's resources against the
// configured sources.
type Validation struct {
	Valid   bool
	Missing []string
}

// Resolver resolves schemas to resource bundles. Register themes,
// component rules, and accents before serving; the registries are not
// synchronized for mutation after that.
type Resolver struct {
	cfg     Config
	themes  []Theme
	rules   []ComponentRule
	accents []Accent
	log     *slog.Logger
}

// NewResolver creates a Resolver with the default component rules for
// the built-in "list", "table", and "stat" types.
func NewResolver(cfg Config) *Resolver {
	if cfg.BaseStyle == "" {
		cfg.BaseStyle = "base.css"
	}
	if cfg.FrameworkFiles == nil {
		cfg.FrameworkFiles = []string{"runtime.js", "api.js"}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	r := &Resolver{
		cfg: cfg,
		log: log.With("component", "resources"),
	}
	for _, typ := range []string{"list", "table", "stat"} {
		r.rules = append(r.rules, ComponentRule{Type: typ, Files: []string{typ + ".js"}})
	}
	return r
}

// RegisterTheme appends a candidate theme. Declaration order breaks
// priority ties.
func (r *Resolver) RegisterTheme(t Theme) {
	r.themes = append(r.themes, t)
}

// RegisterComponent appends (or replaces, matching on Type) a component
// load rule.
func (r *Resolver) RegisterComponent(rule ComponentRule) {
	for i := range r.rules {
		if r.rules[i].Type == rule.Type {
			r.rules[i] = rule
			return
		}
	}
	r.rules = append(r.rules, rule)
}

// RegisterAccent appends a title-keyword accent.
func (r *Resolver) RegisterAccent(a Accent) {
	r.accents = append(r.accents, a)
}

// Resolve computes the resource bundle for a schema. The result is
// deterministic: ordered registries, no map iteration.
func (r *Resolver) Resolve(s *schema.Schema) *Bundle {
	b := &Bundle{}

	if r.cfg.Styles != nil {
		b.Styles = append(b.Styles, StylePathPrefix+r.cfg.BaseStyle)
		if theme, ok := r.selectTheme(s); ok {
			b.Styles = append(b.Styles, StylePathPrefix+theme.File)
		}
	}

	if r.cfg.Scripts != nil {
		if r.cfg.BundleScripts {
			b.Scripts = []string{BundleScriptPath}
		} else {
			for _, f := range r.scriptFiles(s) {
				b.Scripts = append(b.Scripts, ScriptPathPrefix+f)
			}
		}
	}

	b.InlineStyle = r.inlineStyle(s)
	b.Preloads = append(b.Preloads, b.Styles...)

	return b
}

// ActiveThemes returns the names of themes matching the schema, winner
// first, then the remaining matches in declaration order. Used by the
// health endpoint.
func (r *Resolver) ActiveThemes(s *schema.Schema) []string {
	winner := r.themeIndex(s)
	if winner == -1 {
		return nil
	}
	names := []string{r.themes[winner].Name}
	for i, t := range r.themes {
		if i != winner && t.matches(s) {
			names = append(names, t.Name)
		}
	}
	return names
}

// selectTheme picks the highest-priority matching theme; declaration
// order breaks ties.
func (r *Resolver) selectTheme(s *schema.Schema) (Theme, bool) {
	i := r.themeIndex(s)
	if i == -1 {
		return Theme{}, false
	}
	return r.themes[i], true
}

func (r *Resolver) themeIndex(s *schema.Schema) int {
	best := -1
	for i, t := range r.themes {
		if !t.matches(s) {
			continue
		}
		if best == -1 || t.Priority > r.themes[best].Priority {
			best = i
		}
	}
	return best
}

// scriptFiles returns framework files followed by the files of every
// matching component rule, in registration order, without duplicates.
func (r *Resolver) scriptFiles(s *schema.Schema) []string {
	var files []string
	seen := make(map[string]struct{})
	add := func(f string) {
		if _, ok := seen[f]; ok {
			return
		}
		seen[f] = struct{}{}
		files = append(files, f)
	}

	for _, f := range r.cfg.FrameworkFiles {
		add(f)
	}
	for _, rule := range r.rules {
		if !rule.applies(s) {
			continue
		}
		for _, f := range rule.Files {
			add(f)
		}
	}
	return files
}

// inlineStyle derives CSS custom-property overrides from title keyword
// accents plus any per-component "style" config fragments.
func (r *Resolver) inlineStyle(s *schema.Schema) string {
	var sb strings.Builder

	title := strings.ToLower(s.Title)
	for _, a := range r.accents {
		if !strings.Contains(title, strings.ToLower(a.Keyword)) {
			continue
		}
		sb.WriteString(":root{")
		keys := make([]string, 0, len(a.Vars))
		for k := range a.Vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, "%s:%s;", k, a.Vars[k])
		}
		sb.WriteString("}\n")
	}

	for _, c := range s.Components {
		frag, ok := c.Config["style"].(string)
		if !ok || frag == "" {
			continue
		}
		fmt.Fprintf(&sb, "#%s{%s}\n", c.ID, frag)
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

// Validate checks that every resolved style and script reference maps to
// an existing resource. Missing resources are logged as warnings, never
// fatal: the resource routes degrade to diagnostics at request time.
func (r *Resolver) Validate(ctx context.Context, s *schema.Schema) Validation {
	var missing []string

	if r.cfg.Styles != nil {
		styleNames := []string{r.cfg.BaseStyle}
		if theme, ok := r.selectTheme(s); ok {
			styleNames = append(styleNames, theme.File)
		}
		for _, name := range styleNames {
			if !r.cfg.Styles.Exists(ctx, name) {
				missing = append(missing, name)
				r.log.Warn("style resource missing", "name", name)
			}
		}
	}

	if r.cfg.Scripts != nil {
		for _, name := range r.scriptFiles(s) {
			if !r.cfg.Scripts.Exists(ctx, name) {
				missing = append(missing, name)
				r.log.Warn("script resource missing", "name", name)
			}
		}
	}

	return Validation{Valid: len(missing) == 0, Missing: missing}
}
