package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/internal/config"
)

func fileRuntime(t *testing.T) *runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Storage = config.Storage{Driver: config.StorageFile, Path: t.TempDir()}
	return &runtime{cfg: cfg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestScaffoldWritesManifestAndStub(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "widgets.yaml")
	stub := filepath.Join(dir, "brand_provider.go")
	var out bytes.Buffer

	cmd := &scaffoldCmd{
		Code:           "sales-by-brand-chart",
		Name:           "Sales by Brand",
		Kind:           "chart",
		Page:           []string{"performance", "charts"},
		Height:         4,
		Visualization:  []string{"pie", "bar"},
		ManifestPath:   manifest,
		ProviderOut:    stub,
		ProviderModule: "example.com/retail",
		out:            &out,
	}
	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, out.String(), "sales-by-brand-chart")

	doc, err := dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	def := doc.Widgets[0].Definition
	assert.Equal(t, []dashboard.Page{dashboard.PagePerformance, dashboard.PageCharts}, def.Pages)
	assert.Equal(t, "pie", def.DefaultVisualization)
	assert.Equal(t, "example.com/retail.NewSalesByBrandChartProvider", doc.Widgets[0].Provider.Entry)

	raw, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "type SalesByBrandChartProvider struct")

	err = cmd.Run(context.Background())
	assert.ErrorContains(t, err, "already defines")

	cmd.Overwrite = true
	cmd.Name = "Brand Sales"
	require.NoError(t, cmd.Run(context.Background()))
	doc, err = dashboard.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	assert.Equal(t, "Brand Sales", doc.Widgets[0].Definition.Name)
}

func TestScaffoldRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cmd := &scaffoldCmd{Code: "SalesChart", Name: "x", ManifestPath: filepath.Join(dir, "m.yaml"), SkipProvider: true, out: io.Discard}
	assert.ErrorContains(t, cmd.Run(context.Background()), "kebab case")

	cmd = &scaffoldCmd{Code: "sales-chart", Name: "x", Page: []string{"settings"}, ManifestPath: filepath.Join(dir, "m.yaml"), SkipProvider: true, out: io.Discard}
	assert.ErrorIs(t, cmd.Run(context.Background()), dashboard.ErrUnknownPage)
}

func TestFilterUpdate(t *testing.T) {
	cmd := &stateFilterCmd{Zone: []string{"North Riyadh"}, Period: "Weekly"}
	update, err := cmd.update(dashboard.PagePerformance)
	require.NoError(t, err)
	require.NotNil(t, update.Performance)
	assert.Equal(t, []filters.LocationZone{filters.ZoneNorth}, update.Performance.LocationZones)
	assert.Equal(t, filters.Weekly, *update.Performance.TimePeriod)

	update, err = cmd.update(dashboard.PageCharts)
	require.NoError(t, err)
	require.NotNil(t, update.Charts)
	assert.Equal(t, filters.ZoneNorth, *update.Charts.SelectedZone)

	_, err = (&stateFilterCmd{Zone: []string{"North Riyadh", "East Riyadh"}}).update(dashboard.PageCharts)
	assert.Error(t, err)
	_, err = (&stateFilterCmd{Brand: "Pepsi"}).update(dashboard.PagePerformance)
	assert.Error(t, err)
	_, err = (&stateFilterCmd{Period: "Yearly"}).update(dashboard.PagePerformance)
	assert.ErrorIs(t, err, filters.ErrUnknownValue)
}

func TestStateCommandsPersistAcrossRuns(t *testing.T) {
	rt := fileRuntime(t)
	ctx := context.Background()

	require.NoError(t, (&widgetsToggleCmd{Page: "performance", ID: "top-skus-table"}).Run(ctx, rt))

	var out bytes.Buffer
	require.NoError(t, (&stateShowCmd{Page: "performance", out: &out}).Run(ctx, rt))
	var shown struct {
		Page  string `json:"page"`
		State struct {
			UserWidgets []string `json:"userWidgets"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, "performance", shown.Page)
	assert.Contains(t, shown.State.UserWidgets, "top-skus-table")

	require.NoError(t, (&stateResetCmd{Page: "performance"}).Run(ctx, rt))
	out.Reset()
	require.NoError(t, (&stateShowCmd{Page: "performance", out: &out}).Run(ctx, rt))
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.NotContains(t, shown.State.UserWidgets, "top-skus-table")
}

func TestOpenBackendDrivers(t *testing.T) {
	cfg := config.Default()
	backend, closer, err := openBackend(cfg)
	require.NoError(t, err)
	assert.NotNil(t, backend)
	require.NoError(t, closer())

	cfg.Storage = config.Storage{Driver: config.StorageSQLite, Path: filepath.Join(t.TempDir(), "state.db")}
	backend, closer, err = openBackend(cfg)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, closer())
}

func TestProviderTypeName(t *testing.T) {
	assert.Equal(t, "TopSkusTableProvider", providerTypeName("top-skus-table"))
	assert.Equal(t, "ZoneProvider", providerTypeName("zone-provider"))
}
