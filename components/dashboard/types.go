package dashboard

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

// Page identifies a dashboard screen. Each page owns its own persisted state.
type Page string

const (
	PagePerformance Page = "performance"
	PageCharts      Page = "charts"
)

// Pages lists every dashboard screen.
var Pages = []Page{PagePerformance, PageCharts}

// Valid reports whether p is a known page.
func (p Page) Valid() bool {
	return p == PagePerformance || p == PageCharts
}

// ParsePage resolves a page name case-insensitively.
func ParsePage(value string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", ErrUnknownPage
	}
	return p, nil
}

// Widget kinds.
const (
	KindMetric = "metric"
	KindChart  = "chart"
	KindTable  = "table"
	KindMap    = "map"
)

// Authorizer determines if a viewer can see a widget.
type Authorizer interface {
	CanViewWidget(ctx context.Context, viewer ViewerContext, def WidgetDefinition) bool
}

// ProviderRegistry stores widget definitions and providers discoverable via
// hooks or manifests.
type ProviderRegistry interface {
	RegisterDefinition(def WidgetDefinition) error
	RegisterProvider(code string, provider Provider) error
	Definition(code string) (WidgetDefinition, bool)
	Provider(code string) (Provider, bool)
	Definitions() []WidgetDefinition
}

// RefreshHook notifies transports (SSE/WebSocket) about dashboard changes.
type RefreshHook interface {
	WidgetUpdated(ctx context.Context, event WidgetEvent) error
}

// WidgetDefinition describes a catalog widget.
type WidgetDefinition struct {
	Code                 string            `json:"code" yaml:"code"`
	Name                 string            `json:"name" yaml:"name"`
	NameLocalized        map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description          string            `json:"description,omitempty" yaml:"description,omitempty"`
	DescriptionLocalized map[string]string `json:"description_localized,omitempty" yaml:"description_localized,omitempty"`
	// Kind is one of metric, chart, table, or map.
	Kind string `json:"kind" yaml:"kind"`
	// Category gates access: viewers without it cannot see or act on the widget.
	Category             string         `json:"category,omitempty" yaml:"category,omitempty"`
	Pages                []Page         `json:"pages" yaml:"pages"`
	Wide                 bool           `json:"wide,omitempty" yaml:"wide,omitempty"`
	Height               int            `json:"height" yaml:"height"`
	Visualizations       []string       `json:"visualizations,omitempty" yaml:"visualizations,omitempty"`
	DefaultVisualization string         `json:"default_visualization,omitempty" yaml:"default_visualization,omitempty"`
	Schema               map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	// Config seeds every instance's configuration.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Clone returns a copy that shares no maps or slices with def.
func (def WidgetDefinition) Clone() WidgetDefinition {
	out := def
	out.NameLocalized = maps.Clone(def.NameLocalized)
	out.DescriptionLocalized = maps.Clone(def.DescriptionLocalized)
	out.Pages = slices.Clone(def.Pages)
	out.Visualizations = slices.Clone(def.Visualizations)
	out.Schema = cloneTree(def.Schema)
	out.Config = cloneTree(def.Config)
	return out
}

func cloneTree(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneTree(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return slices.Clone(val)
	case []int:
		return slices.Clone(val)
	case []float64:
		return slices.Clone(val)
	default:
		return v
	}
}

// OnPage reports whether the widget belongs to page.
func (def WidgetDefinition) OnPage(page Page) bool {
	for _, p := range def.Pages {
		if p == page {
			return true
		}
	}
	return false
}

// Size is the layout footprint of the widget.
func (def WidgetDefinition) Size() state.WidgetSize {
	return state.WidgetSize{Wide: def.Wide, Height: def.Height}
}

// WidgetInstance is a catalog widget resolved for a viewer on a page.
type WidgetInstance struct {
	ID            string         `json:"id"`
	DefinitionID  string         `json:"definition_id"`
	Page          Page           `json:"page"`
	Name          string         `json:"name"`
	Kind          string         `json:"kind"`
	Category      string         `json:"category,omitempty"`
	Visualization string         `json:"visualization,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// ViewerContext captures the signed-in user and locale needed to render a page.
type ViewerContext struct {
	UserID     string   `json:"user_id"`
	Name       string   `json:"name,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Locale     string   `json:"locale,omitempty"`
}

// HasCategoryAccess reports whether the viewer may see category. An empty
// category is public.
func (v ViewerContext) HasCategoryAccess(category string) bool {
	if category == "" {
		return true
	}
	for _, c := range v.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// CatalogEntry is one row of the add-widget menu.
type CatalogEntry struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Kind        string `json:"kind"`
	Active      bool   `json:"active"`
}

// PageLayout is a page resolved for a viewer.
type PageLayout struct {
	Page    Page             `json:"page"`
	Widgets []WidgetInstance `json:"widgets"`
	Layouts state.Layouts    `json:"layouts,omitempty"`
	Filters any              `json:"filters"`
	Catalog []CatalogEntry   `json:"catalog"`
	Loading bool             `json:"is_loading"`
	// Quality is the outcome of the last simulated data check on the
	// performance page.
	Quality filters.DataQuality `json:"data_quality,omitempty"`
}

// WidgetEvent describes changes that transports might care about.
type WidgetEvent struct {
	Page     Page           `json:"page"`
	WidgetID string         `json:"widget_id,omitempty"`
	Reason   string         `json:"reason"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// Event reasons.
const (
	ReasonToggle        = "toggle"
	ReasonVisualization = "visualization"
	ReasonFilters       = "filters"
	ReasonLayout        = "layout"
	ReasonReset         = "reset"
	ReasonRefresh       = "refresh"
	ReasonState         = "state"
)
