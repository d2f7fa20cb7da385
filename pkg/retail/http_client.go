package retail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
)

// HTTPConfig configures the HTTP retail client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to a remote retail data service via REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for a live retail data API.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("retail: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

// FetchMetric calls the remote metrics endpoint.
func (c *HTTPClient) FetchMetric(ctx context.Context, query dashboard.MetricQuery) (dashboard.MetricReport, error) {
	req := datasetRequest{Name: query.Metric, Filters: toFilterPayload(query.Filters)}
	var resp metricResponse
	if err := c.do(ctx, http.MethodPost, "/metrics/query", req, &resp); err != nil {
		return dashboard.MetricReport{}, err
	}
	return dashboard.MetricReport{Metric: resp.Metric, Value: resp.Value, Change: resp.Change, Unit: resp.Unit}, nil
}

// FetchSeries calls the remote series endpoint.
func (c *HTTPClient) FetchSeries(ctx context.Context, query dashboard.SeriesQuery) (dashboard.SeriesReport, error) {
	req := datasetRequest{Name: query.Series, Filters: toFilterPayload(query.Filters)}
	var resp seriesResponse
	if err := c.do(ctx, http.MethodPost, "/series/query", req, &resp); err != nil {
		return dashboard.SeriesReport{}, err
	}
	return dashboard.SeriesReport{Labels: resp.Labels, Series: resp.Series, Currency: resp.Currency}, nil
}

// FetchSKUs calls the remote SKU endpoint.
func (c *HTTPClient) FetchSKUs(ctx context.Context, query dashboard.SKUQuery) ([]dashboard.SKURow, error) {
	req := datasetRequest{Name: query.Set, Limit: query.Limit, Filters: toFilterPayload(query.Filters)}
	var resp skuResponse
	if err := c.do(ctx, http.MethodPost, "/skus/query", req, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

// FetchHeatmap calls the remote heatmap endpoint.
func (c *HTTPClient) FetchHeatmap(ctx context.Context, query dashboard.HeatmapQuery) ([]dashboard.HeatPoint, error) {
	req := datasetRequest{Name: query.Region, Filters: toFilterPayload(query.Filters)}
	var resp heatmapResponse
	if err := c.do(ctx, http.MethodPost, "/heatmap/query", req, &resp); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("retail: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("retail: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("retail: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("retail: %s: %w", path, dashboard.ErrUnknownDataset)
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("retail: remote error %d: %s", resp.StatusCode, buf.String())
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("retail: decode response: %w", err)
	}
	return nil
}

type filterPayload struct {
	StoreTypes []filters.StoreType    `json:"store_types,omitempty"`
	Zones      []filters.LocationZone `json:"zones,omitempty"`
	Brand      filters.Brand          `json:"brand,omitempty"`
	Period     filters.TimePeriod     `json:"period,omitempty"`
	From       *time.Time             `json:"from,omitempty"`
	To         *time.Time             `json:"to,omitempty"`
}

func toFilterPayload(f dashboard.DataFilters) filterPayload {
	out := filterPayload{
		StoreTypes: f.StoreTypes,
		Zones:      f.Zones,
		Brand:      f.Brand,
		Period:     f.Period,
	}
	if !f.From.IsZero() {
		from := f.From
		out.From = &from
	}
	if !f.To.IsZero() {
		to := f.To
		out.To = &to
	}
	return out
}

type datasetRequest struct {
	Name    string        `json:"name"`
	Limit   int           `json:"limit,omitempty"`
	Filters filterPayload `json:"filters"`
}

type metricResponse struct {
	Metric string   `json:"metric"`
	Value  float64  `json:"value"`
	Change *float64 `json:"change"`
	Unit   string   `json:"unit"`
}

type seriesResponse struct {
	Labels   []string                `json:"labels"`
	Series   []dashboard.ChartSeries `json:"series"`
	Currency bool                    `json:"currency"`
}

type skuResponse struct {
	Rows []dashboard.SKURow `json:"rows"`
}

type heatmapResponse struct {
	Points []dashboard.HeatPoint `json:"points"`
}
