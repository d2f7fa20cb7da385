package retail

import (
	"context"
	"time"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// DefaultLatency is the simulated round trip of the mock client.
const DefaultLatency = 300 * time.Millisecond

// MockOptions configures the mock client.
type MockOptions struct {
	// Data serves the responses; it defaults to the demo dataset.
	Data dashboard.RetailSource
	// Latency delays every call. Zero uses DefaultLatency, a negative value
	// disables the delay.
	Latency time.Duration
}

// MockClient implements Client over fixtures with a fixed simulated latency.
// Every call returns early with the context error when ctx is cancelled.
type MockClient struct {
	data    dashboard.RetailSource
	latency time.Duration
}

var _ Client = (*MockClient)(nil)

// NewMockClient builds a mock retail client.
func NewMockClient(opts MockOptions) *MockClient {
	data := opts.Data
	if data == nil {
		data = dashboard.DemoRetailSource{}
	}
	latency := opts.Latency
	switch {
	case latency == 0:
		latency = DefaultLatency
	case latency < 0:
		latency = 0
	}
	return &MockClient{data: data, latency: latency}
}

func (c *MockClient) FetchMetric(ctx context.Context, query dashboard.MetricQuery) (dashboard.MetricReport, error) {
	if err := c.wait(ctx); err != nil {
		return dashboard.MetricReport{}, err
	}
	return c.data.FetchMetric(ctx, query)
}

func (c *MockClient) FetchSeries(ctx context.Context, query dashboard.SeriesQuery) (dashboard.SeriesReport, error) {
	if err := c.wait(ctx); err != nil {
		return dashboard.SeriesReport{}, err
	}
	return c.data.FetchSeries(ctx, query)
}

func (c *MockClient) FetchSKUs(ctx context.Context, query dashboard.SKUQuery) ([]dashboard.SKURow, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.data.FetchSKUs(ctx, query)
}

func (c *MockClient) FetchHeatmap(ctx context.Context, query dashboard.HeatmapQuery) ([]dashboard.HeatPoint, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.data.FetchHeatmap(ctx, query)
}

func (c *MockClient) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
