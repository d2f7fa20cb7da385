package state

import "errors"

var (
	// ErrLastWidget rejects removing the only remaining widget.
	ErrLastWidget = errors.New("state: at least one widget must remain selected")
	// ErrUnknownWidget rejects ids outside the catalog.
	ErrUnknownWidget = errors.New("state: unknown widget")
)

// ToggleWidget adds id when absent and removes it when present. Removing the
// last remaining widget fails with ErrLastWidget and leaves the list as is.
func ToggleWidget(widgets []string, id string) ([]string, bool, error) {
	out := make([]string, 0, len(widgets)+1)
	found := false
	for _, w := range widgets {
		if w == id {
			found = true
			continue
		}
		out = append(out, w)
	}
	if !found {
		return append(out, id), true, nil
	}
	if len(out) == 0 {
		return append([]string(nil), widgets...), false, ErrLastWidget
	}
	return out, false, nil
}

// UniqueWidgets drops blanks and duplicates while keeping order.
func UniqueWidgets(widgets []string) []string {
	seen := make(map[string]struct{}, len(widgets))
	out := make([]string, 0, len(widgets))
	for _, w := range widgets {
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func containsWidget(widgets []string, id string) bool {
	for _, w := range widgets {
		if w == id {
			return true
		}
	}
	return false
}
