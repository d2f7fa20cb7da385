package dashboard

import (
	"context"
	"testing"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoMetrics(t *testing.T) {
	src := DemoRetailSource{}
	report, err := src.FetchMetric(context.Background(), MetricQuery{Metric: MetricSalesValue})
	require.NoError(t, err)
	assert.Equal(t, 2300000.0, report.Value)
	require.NotNil(t, report.Change)
	assert.Equal(t, 5.2, *report.Change)

	*report.Change = 99
	again, err := src.FetchMetric(context.Background(), MetricQuery{Metric: MetricSalesValue})
	require.NoError(t, err)
	assert.Equal(t, 5.2, *again.Change, "reports do not share change pointers")

	customers, err := src.FetchMetric(context.Background(), MetricQuery{Metric: MetricCustomerCount})
	require.NoError(t, err)
	assert.Nil(t, customers.Change)

	_, err = src.FetchMetric(context.Background(), MetricQuery{Metric: "margin"})
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDemoSeriesFilters(t *testing.T) {
	src := DemoRetailSource{}
	ctx := context.Background()

	all, err := src.FetchSeries(ctx, SeriesQuery{Series: SeriesSalesByZone})
	require.NoError(t, err)
	assert.Len(t, all.Series, 5)
	assert.Len(t, all.Labels, 6)
	assert.True(t, all.Currency)

	north, err := src.FetchSeries(ctx, SeriesQuery{
		Series:  SeriesSalesByZone,
		Filters: DataFilters{Zones: []filters.LocationZone{filters.ZoneNorth}},
	})
	require.NoError(t, err)
	require.Len(t, north.Series, 1)
	assert.Equal(t, "North Riyadh", north.Series[0].Name)

	stores, err := src.FetchSeries(ctx, SeriesQuery{
		Series:  SeriesSalesByStoreType,
		Filters: DataFilters{StoreTypes: []filters.StoreType{filters.StoreHypermarket, filters.StoreConvenience}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hypermarket", "Convenience"}, stores.Labels)

	everything, err := src.FetchSeries(ctx, SeriesQuery{
		Series:  SeriesSalesDistribution,
		Filters: DataFilters{Zones: []filters.LocationZone{filters.ZoneAll}},
	})
	require.NoError(t, err)
	assert.Len(t, everything.Labels, 5)

	comparison, err := src.FetchSeries(ctx, SeriesQuery{Series: SeriesZoneComparison})
	require.NoError(t, err)
	assert.Equal(t, 7900000.0, comparison.Series[0].Points[0].Value)

	_, err = src.FetchSeries(ctx, SeriesQuery{Series: "weather"})
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDemoSKUs(t *testing.T) {
	src := DemoRetailSource{}
	rows, err := src.FetchSKUs(context.Background(), SKUQuery{Set: SKUSetDetailed, Limit: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "COLA-330ML", rows[0].SKU)

	rows[0].SKU = "changed"
	again, err := src.FetchSKUs(context.Background(), SKUQuery{Set: SKUSetDetailed})
	require.NoError(t, err)
	assert.Len(t, again, 10)
	assert.Equal(t, "COLA-330ML", again[0].SKU)

	_, err = src.FetchSKUs(context.Background(), SKUQuery{Set: "slow-movers"})
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDemoSourceHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := DemoRetailSource{}

	_, err := src.FetchMetric(ctx, MetricQuery{Metric: MetricSalesValue})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = src.FetchHeatmap(ctx, HeatmapQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}
