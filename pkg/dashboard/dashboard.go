package dashboard

import (
	"context"

	core "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// App bundles the service with the session, notices, and broadcast hook.
type App = core.App

// BootstrapOptions re-export for convenience.
type BootstrapOptions = core.BootstrapOptions

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// ViewerContext describes the signed-in user a page is resolved for.
type ViewerContext = core.ViewerContext

// Page names a dashboard page.
type Page = core.Page

// RetailSource serves the datasets behind the widget catalog.
type RetailSource = core.RetailSource

const (
	PagePerformance = core.PagePerformance
	PageCharts      = core.PageCharts
)

// Bootstrap proxies to the internal constructor.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*App, error) {
	return core.Bootstrap(ctx, opts)
}

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}
