package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// WidgetInput identifies a widget of a page for a viewer.
type WidgetInput struct {
	Viewer   dashboard.ViewerContext
	Page     dashboard.Page
	WidgetID string
}

type widgetService interface {
	ResolveWidget(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID string) (dashboard.WidgetInstance, error)
}

// WidgetQuery fetches a single widget with its data.
type WidgetQuery struct {
	service widgetService
}

// NewWidgetQuery builds the query.
func NewWidgetQuery(service widgetService) *WidgetQuery {
	return &WidgetQuery{service: service}
}

var _ gocommand.Querier[WidgetInput, dashboard.WidgetInstance] = (*WidgetQuery)(nil)

// Query resolves an individual widget for the viewer.
func (q *WidgetQuery) Query(ctx context.Context, input WidgetInput) (dashboard.WidgetInstance, error) {
	return q.service.ResolveWidget(ctx, input.Viewer, input.Page, input.WidgetID)
}
