package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Parse decodes and validates a schema from JSON.
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a schema file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(data)
}

// pollingWire is the on-disk shape of Polling. Intervals are written as Go
// duration strings ("5s") or as a number of seconds.
type pollingWire struct {
	Enabled  bool `json:"enabled"`
	Interval any  `json:"interval,omitempty"`
}

func (p *Polling) UnmarshalJSON(data []byte) error {
	var w pollingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Enabled = w.Enabled
	switch v := w.Interval.(type) {
	case nil:
		p.Interval = 0
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("schema: polling interval %q: %w", v, err)
		}
		p.Interval = d
	case float64:
		p.Interval = time.Duration(v * float64(time.Second))
	default:
		return fmt.Errorf("schema: polling interval has unsupported type %T", w.Interval)
	}
	return nil
}

func (p Polling) MarshalJSON() ([]byte, error) {
	w := pollingWire{Enabled: p.Enabled}
	if p.Interval > 0 {
		w.Interval = p.Interval.String()
	}
	return json.Marshal(w)
}
