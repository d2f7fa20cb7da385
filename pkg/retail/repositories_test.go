package retail

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

func TestSourceDelegatesToClient(t *testing.T) {
	source := NewSource(NewMockClient(MockOptions{Latency: -1}))
	ctx := context.Background()

	metric, err := source.FetchMetric(ctx, dashboard.MetricQuery{Metric: dashboard.MetricSalesValue})
	require.NoError(t, err)
	assert.Equal(t, dashboard.UnitCurrency, metric.Unit)

	series, err := source.FetchSeries(ctx, dashboard.SeriesQuery{Series: dashboard.SeriesSalesByZone})
	require.NoError(t, err)
	assert.NotEmpty(t, series.Series)

	rows, err := source.FetchSKUs(ctx, dashboard.SKUQuery{Set: dashboard.SKUSetTop, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	points, err := source.FetchHeatmap(ctx, dashboard.HeatmapQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, points)
}

func TestMockClientLatency(t *testing.T) {
	client := NewMockClient(MockOptions{Latency: 20 * time.Millisecond})
	start := time.Now()
	_, err := client.FetchMetric(context.Background(), dashboard.MetricQuery{Metric: dashboard.MetricStoreCount})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMockClientCancellation(t *testing.T) {
	client := NewMockClient(MockOptions{Latency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.FetchSKUs(ctx, dashboard.SKUQuery{Set: dashboard.SKUSetTop})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch did not observe cancellation")
	}
}

func TestMockClientUnknownDataset(t *testing.T) {
	client := NewMockClient(MockOptions{Latency: -1})
	_, err := client.FetchMetric(context.Background(), dashboard.MetricQuery{Metric: "margin"})
	assert.ErrorIs(t, err, dashboard.ErrUnknownDataset)
}
