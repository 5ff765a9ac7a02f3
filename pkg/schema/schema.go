// Package schema defines the declarative dashboard description consumed
// by the resource resolver, the document renderer, and the session server.
//
// A Schema is immutable for the lifetime of a session: a new dashboard
// requires a new session. Components are identified by a type tag (which
// drives resource loading and container rendering) and a unique id.
package schema

import (
	"fmt"
	"time"
)

// Schema describes one dashboard: its components, the actions a user may
// trigger, and how the client polls for data.
type Schema struct {
	// Title is shown as the document title and drives theme selection.
	Title string `json:"title"`

	// Description is optional explanatory text.
	Description string `json:"description,omitempty"`

	// Components is the ordered list of dashboard widgets.
	Components []Component `json:"components"`

	// Actions are the named operations the dashboard exposes.
	Actions []Action `json:"actions,omitempty"`

	// Polling configures client-side data refresh.
	Polling Polling `json:"polling"`
}

// Component is one widget descriptor. The runtime renders an empty
// container per component; population is the client component runtime's job.
type Component struct {
	// Type is the component type tag, e.g. "list", "table", "stat".
	Type string `json:"type"`

	// ID is the container element id. Unique within a schema.
	ID string `json:"id"`

	// Config is free-form component configuration, passed through to the
	// client untouched (apart from an optional "style" fragment picked up
	// by the resolver).
	Config map[string]any `json:"config,omitempty"`
}

// Action describes a user-triggerable operation.
type Action struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Trigger string `json:"trigger,omitempty"`
	Confirm string `json:"confirm,omitempty"`
}

// Polling configures the client's data refresh loop.
type Polling struct {
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval,omitempty"`
}

// DefaultPollInterval is used when polling is enabled without an interval.
const DefaultPollInterval = 5 * time.Second

// Validate checks structural invariants: every component has a non-empty
// type and a non-empty id, and ids are unique within the schema.
func (s *Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Components))
	for i, c := range s.Components {
		if c.Type == "" {
			return fmt.Errorf("schema: component %d has empty type", i)
		}
		if c.ID == "" {
			return fmt.Errorf("schema: component %d (%s) has empty id", i, c.Type)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("schema: duplicate component id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// HasComponent reports whether any component carries the given type tag.
func (s *Schema) HasComponent(typ string) bool {
	for _, c := range s.Components {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// ComponentTypes returns the component type tags in declaration order,
// without duplicates.
func (s *Schema) ComponentTypes() []string {
	var types []string
	seen := make(map[string]struct{}, len(s.Components))
	for _, c := range s.Components {
		if _, ok := seen[c.Type]; ok {
			continue
		}
		seen[c.Type] = struct{}{}
		types = append(types, c.Type)
	}
	return types
}

// PollInterval returns the effective polling interval, applying the
// default when polling is enabled but no interval is configured.
func (s *Schema) PollInterval() time.Duration {
	if !s.Polling.Enabled {
		return 0
	}
	if s.Polling.Interval <= 0 {
		return DefaultPollInterval
	}
	return s.Polling.Interval
}
