package retail

import (
	"context"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// MetricClient fetches headline sales numbers from a retail data service.
type MetricClient interface {
	FetchMetric(ctx context.Context, query dashboard.MetricQuery) (dashboard.MetricReport, error)
}

// SeriesClient fetches chart datasets.
type SeriesClient interface {
	FetchSeries(ctx context.Context, query dashboard.SeriesQuery) (dashboard.SeriesReport, error)
}

// SKUClient fetches product rows.
type SKUClient interface {
	FetchSKUs(ctx context.Context, query dashboard.SKUQuery) ([]dashboard.SKURow, error)
}

// HeatmapClient fetches geographic sales points.
type HeatmapClient interface {
	FetchHeatmap(ctx context.Context, query dashboard.HeatmapQuery) ([]dashboard.HeatPoint, error)
}

// Client is a convenience union for services that implement every retail call.
type Client interface {
	MetricClient
	SeriesClient
	SKUClient
	HeatmapClient
}
