package dashboard

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// PreferenceStore keeps per-viewer widget configuration such as the chosen
// visualization or table sort. Values are keyed by page and widget.
type PreferenceStore interface {
	WidgetConfig(ctx context.Context, viewer ViewerContext, page Page) (map[string]map[string]any, error)
	SaveWidgetConfig(ctx context.Context, viewer ViewerContext, page Page, widgetID string, config map[string]any) error
	ClearPage(ctx context.Context, viewer ViewerContext, page Page) error
}

// InMemoryPreferenceStore provides a concurrency-safe default store.
type InMemoryPreferenceStore struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any
}

// NewInMemoryPreferenceStore creates an empty preference store.
func NewInMemoryPreferenceStore() *InMemoryPreferenceStore {
	return &InMemoryPreferenceStore{
		data: make(map[string]map[string]map[string]any),
	}
}

// WidgetConfig returns copies of the stored configuration for every widget of
// page. Anonymous viewers get an empty map.
func (s *InMemoryPreferenceStore) WidgetConfig(_ context.Context, viewer ViewerContext, page Page) (map[string]map[string]any, error) {
	out := map[string]map[string]any{}
	if viewer.UserID == "" {
		return out, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, cfg := range s.data[s.key(viewer, page)] {
		out[id] = maps.Clone(cfg)
	}
	return out, nil
}

// SaveWidgetConfig merges config into the stored configuration of widgetID.
// A nil value deletes the key.
func (s *InMemoryPreferenceStore) SaveWidgetConfig(_ context.Context, viewer ViewerContext, page Page, widgetID string, config map[string]any) error {
	if viewer.UserID == "" {
		return fmt.Errorf("preference store requires viewer user id")
	}
	if widgetID == "" {
		return fmt.Errorf("preference store requires widget id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(viewer, page)
	widgets, ok := s.data[key]
	if !ok {
		widgets = map[string]map[string]any{}
		s.data[key] = widgets
	}
	current, ok := widgets[widgetID]
	if !ok {
		current = map[string]any{}
		widgets[widgetID] = current
	}
	for k, v := range config {
		if v == nil {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	return nil
}

// ClearPage drops every stored configuration of page.
func (s *InMemoryPreferenceStore) ClearPage(_ context.Context, viewer ViewerContext, page Page) error {
	if viewer.UserID == "" {
		return nil
	}
	s.mu.Lock()
	delete(s.data, s.key(viewer, page))
	s.mu.Unlock()
	return nil
}

func (s *InMemoryPreferenceStore) key(viewer ViewerContext, page Page) string {
	return viewer.UserID + "::" + string(page)
}
