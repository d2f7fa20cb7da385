package dashboard

import (
	"sort"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

// visualOrder lists widget ids by their grid position at breakpoint, top to
// bottom then left to right.
func visualOrder(layouts state.Layouts, breakpoint string) []string {
	items := append([]state.LayoutItem(nil), layouts[breakpoint]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Y != items[j].Y {
			return items[i].Y < items[j].Y
		}
		return items[i].X < items[j].X
	})
	order := make([]string, 0, len(items))
	for _, item := range items {
		order = append(order, item.I)
	}
	return order
}

// applyOrderOverride reorders widgets to follow order. Widgets missing from
// order keep their relative position at the end.
func applyOrderOverride(widgets []WidgetInstance, order []string) []WidgetInstance {
	if len(order) == 0 {
		return widgets
	}
	index := make(map[string]WidgetInstance, len(widgets))
	for _, w := range widgets {
		index[w.ID] = w
	}
	result := make([]WidgetInstance, 0, len(widgets))
	seen := make(map[string]struct{}, len(order))
	for _, id := range order {
		if w, ok := index[id]; ok {
			if _, dup := seen[id]; dup {
				continue
			}
			result = append(result, w)
			seen[id] = struct{}{}
		}
	}
	for _, w := range widgets {
		if _, ok := seen[w.ID]; !ok {
			result = append(result, w)
		}
	}
	return result
}
