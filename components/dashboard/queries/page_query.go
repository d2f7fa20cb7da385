package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// PageInput identifies a page request for a viewer.
type PageInput struct {
	Viewer dashboard.ViewerContext
	Page   dashboard.Page
}

type pageService interface {
	ConfigurePage(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page) (dashboard.PageLayout, error)
}

// PageQuery executes read-only page resolution.
type PageQuery struct {
	service pageService
}

// NewPageQuery builds the query.
func NewPageQuery(service pageService) *PageQuery {
	return &PageQuery{service: service}
}

var _ gocommand.Querier[PageInput, dashboard.PageLayout] = (*PageQuery)(nil)

// Query resolves the page for the viewer.
func (q *PageQuery) Query(ctx context.Context, input PageInput) (dashboard.PageLayout, error) {
	return q.service.ConfigurePage(ctx, input.Viewer, input.Page)
}
