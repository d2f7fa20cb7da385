package retail

import (
	"context"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// NewMetricRepository adapts a retail client into a dashboard repository.
func NewMetricRepository(client MetricClient) dashboard.MetricRepository {
	return &metricRepository{client: client}
}

type metricRepository struct {
	client MetricClient
}

func (r *metricRepository) FetchMetric(ctx context.Context, query dashboard.MetricQuery) (dashboard.MetricReport, error) {
	return r.client.FetchMetric(ctx, query)
}

// NewSeriesRepository adapts the client for chart widgets.
func NewSeriesRepository(client SeriesClient) dashboard.SeriesRepository {
	return &seriesRepository{client: client}
}

type seriesRepository struct {
	client SeriesClient
}

func (r *seriesRepository) FetchSeries(ctx context.Context, query dashboard.SeriesQuery) (dashboard.SeriesReport, error) {
	return r.client.FetchSeries(ctx, query)
}

// NewSKURepository adapts the client for table widgets.
func NewSKURepository(client SKUClient) dashboard.SKURepository {
	return &skuRepository{client: client}
}

type skuRepository struct {
	client SKUClient
}

func (r *skuRepository) FetchSKUs(ctx context.Context, query dashboard.SKUQuery) ([]dashboard.SKURow, error) {
	return r.client.FetchSKUs(ctx, query)
}

// NewHeatmapRepository adapts the client for the zone heatmap.
func NewHeatmapRepository(client HeatmapClient) dashboard.HeatmapRepository {
	return &heatmapRepository{client: client}
}

type heatmapRepository struct {
	client HeatmapClient
}

func (r *heatmapRepository) FetchHeatmap(ctx context.Context, query dashboard.HeatmapQuery) ([]dashboard.HeatPoint, error) {
	return r.client.FetchHeatmap(ctx, query)
}

// Source combines the four repositories into a dashboard.RetailSource.
type Source struct {
	dashboard.MetricRepository
	dashboard.SeriesRepository
	dashboard.SKURepository
	dashboard.HeatmapRepository
}

var _ dashboard.RetailSource = Source{}

// NewSource adapts a full client into the source the providers read from.
func NewSource(client Client) Source {
	return Source{
		MetricRepository:  NewMetricRepository(client),
		SeriesRepository:  NewSeriesRepository(client),
		SKURepository:     NewSKURepository(client),
		HeatmapRepository: NewHeatmapRepository(client),
	}
}
