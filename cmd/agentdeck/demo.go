package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentdeck/agentdeck/pkg/schema"
)

// demoSchema is the dashboard served when no schema file is configured.
func demoSchema() *schema.Schema {
	return &schema.Schema{
		Title:       "Task Dashboard",
		Description: "A demo task list served by AgentDeck.",
		Components: []schema.Component{
			{Type: "list", ID: "todos", Config: map[string]any{"emptyText": "Nothing to do"}},
			{Type: "stat", ID: "open-count", Config: map[string]any{"label": "Open tasks"}},
		},
		Actions: []schema.Action{
			{ID: "add_todo", Label: "Add", Trigger: "submit"},
			{ID: "complete_todo", Label: "Done", Trigger: "click"},
			{ID: "remove_todo", Label: "Remove", Trigger: "click", Confirm: "Remove this task?"},
		},
		Polling: schema.Polling{Enabled: true, Interval: 5 * time.Second},
	}
}

type demoItem struct {
	ID       int    `json:"id"`
	Text     string `json:"text"`
	Priority string `json:"priority"`
	Done     bool   `json:"done"`
}

// demoStore is the in-memory backend behind the demo dashboard.
type demoStore struct {
	mu     sync.Mutex
	items  []demoItem
	nextID int
}

func newDemoStore() *demoStore {
	return &demoStore{
		items: []demoItem{
			{ID: 1, Text: "buy milk", Priority: "medium"},
			{ID: 2, Text: "water the plants", Priority: "low"},
		},
		nextID: 3,
	}
}

// Data returns the current items plus an open-task count for the stat
// component.
func (s *demoStore) Data(ctx context.Context, userID string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	open := 0
	for _, it := range s.items {
		if !it.Done {
			open++
		}
	}
	items := make([]demoItem, len(s.items))
	copy(items, s.items)
	return map[string]any{
		"todos":      items,
		"open-count": open,
	}, nil
}

// Update applies a dashboard action.
func (s *demoStore) Update(ctx context.Context, action string, data map[string]any, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch action {
	case "add_todo":
		text, _ := data["text"].(string)
		if text == "" {
			return fmt.Errorf("add_todo: text is required")
		}
		priority, _ := data["priority"].(string)
		if priority == "" {
			priority = "medium"
		}
		s.items = append(s.items, demoItem{ID: s.nextID, Text: text, Priority: priority})
		s.nextID++
		return nil
	case "complete_todo":
		return s.mark(data, true)
	case "reopen_todo":
		return s.mark(data, false)
	case "remove_todo":
		id, ok := itemID(data)
		if !ok {
			return fmt.Errorf("remove_todo: id is required")
		}
		for i, it := range s.items {
			if it.ID == id {
				s.items = append(s.items[:i], s.items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("remove_todo: no item %d", id)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (s *demoStore) mark(data map[string]any, done bool) error {
	id, ok := itemID(data)
	if !ok {
		return fmt.Errorf("id is required")
	}
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Done = done
			return nil
		}
	}
	return fmt.Errorf("no item %d", id)
}

// itemID reads the item id from a sanitized payload. JSON numbers arrive
// as float64.
func itemID(data map[string]any) (int, bool) {
	switch v := data["id"].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
