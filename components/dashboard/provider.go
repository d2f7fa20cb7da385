package dashboard

import "context"

// Provider fetches data required to render a widget instance.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch implements Provider.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Instance   WidgetInstance
	Viewer     ViewerContext
	Filters    DataFilters
	Translator TranslationService
}

// WidgetData is an opaque payload passed to templates. Every built-in
// provider sets "table" so the widget can be exported.
type WidgetData map[string]any

// Table returns the tabular form of the widget data, if any.
func (d WidgetData) Table() (Table, bool) {
	t, ok := d["table"].(Table)
	return t, ok
}
