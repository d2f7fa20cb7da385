package dashboard

import (
	"context"
	"testing"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func providerContext(id, name, visualization string, cfg map[string]any) WidgetContext {
	return WidgetContext{
		Instance: WidgetInstance{
			ID:            id,
			DefinitionID:  id,
			Name:          name,
			Visualization: visualization,
			Configuration: cfg,
		},
		Viewer: ViewerContext{UserID: "1", Locale: "en"},
	}
}

func TestDefaultProvidersCoverCatalog(t *testing.T) {
	providers := DefaultProviders(DemoRetailSource{})
	for _, def := range DefaultWidgetDefinitions() {
		provider, ok := providers[def.Code]
		require.Truef(t, ok, "%s has no provider", def.Code)

		data, err := provider.Fetch(context.Background(), providerContext(def.Code, def.Name, def.DefaultVisualization, def.Config))
		require.NoErrorf(t, err, "%s fetch", def.Code)
		_, ok = data.Table()
		assert.Truef(t, ok, "%s should be exportable", def.Code)
	}
}

func TestMetricProviderFormatsValue(t *testing.T) {
	provider := NewMetricProvider(DemoRetailSource{}, MetricSalesValue, nil)
	data, err := provider.Fetch(context.Background(), providerContext("sales-value-metric", "Sales Value", "", nil))
	require.NoError(t, err)

	assert.Equal(t, "SAR 2,300,000", data["formatted"])
	assert.Equal(t, "5.2%", data["change_formatted"])
	assert.Equal(t, "up", data["trend"])
	assert.Nil(t, data["chart_html"])

	customers := NewMetricProvider(DemoRetailSource{}, MetricCustomerCount, nil)
	data, err = customers.Fetch(context.Background(), providerContext("customer-count-metric", "Customer Count", "", nil))
	require.NoError(t, err)
	assert.Equal(t, "flat", data["trend"])
	_, hasChange := data["change"]
	assert.False(t, hasChange)
}

func TestMetricProviderRendersGaugeForPercent(t *testing.T) {
	provider := NewMetricProvider(DemoRetailSource{}, MetricOutOfStock, NewEChartsProvider(StyleBar))
	data, err := provider.Fetch(context.Background(), providerContext("out-of-stock-metric", "Out of Stock", "", nil))
	require.NoError(t, err)
	assert.Equal(t, "down", data["trend"])
	assert.Equal(t, "8.5%", data["formatted"])
	assert.Equal(t, string(StyleGauge), data["chart_type"])
	assert.Contains(t, html(data), "gauge")
}

func TestSeriesChartProviderUsesVisualization(t *testing.T) {
	provider := NewSeriesChartProvider(DemoRetailSource{}, SeriesSalesByZone, NewEChartsProvider(StyleBar), SalesStyles, VisualizationStackedBar)

	data, err := provider.Fetch(context.Background(), providerContext("sales-chart", "Sales Value Chart", VisualizationAreaChart, nil))
	require.NoError(t, err)
	assert.Equal(t, VisualizationAreaChart, data["visualization"])
	assert.Equal(t, string(StyleArea), data["chart_type"])

	data, err = provider.Fetch(context.Background(), providerContext("sales-chart", "Sales Value Chart", "", nil))
	require.NoError(t, err)
	assert.Equal(t, VisualizationStackedBar, data["visualization"])

	table, ok := data.Table()
	require.True(t, ok)
	assert.Equal(t, "Label", table.Columns[0].Label)
	assert.Equal(t, FormatCurrency, table.Columns[1].Format)
	assert.Len(t, table.Rows, 6)
}

func TestSeriesChartProviderTableVisualizationSkipsChart(t *testing.T) {
	provider := NewSeriesChartProvider(DemoRetailSource{}, SeriesSalesByStoreType, NewEChartsProvider(StyleBar), PerformanceStyles, VisualizationBar)
	data, err := provider.Fetch(context.Background(), providerContext("sales-by-store-chart", "Sales by Store Type", VisualizationTable, nil))
	require.NoError(t, err)
	assert.Nil(t, data["chart_html"])
	assert.NotEmpty(t, data["rows"])
}

func TestSeriesChartProviderEmptySelection(t *testing.T) {
	provider := NewSeriesChartProvider(DemoRetailSource{}, SeriesSalesByStoreType, NewEChartsProvider(StyleBar), PerformanceStyles, VisualizationBar)
	meta := providerContext("sales-by-store-chart", "Sales by Store Type", VisualizationBar, nil)
	meta.Filters = DataFilters{StoreTypes: []filters.StoreType{filters.StoreGrocery}}

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	assert.Equal(t, true, data["empty"])
	assert.Nil(t, data["chart_html"])
}

func TestSKUTableProviderSearchAndSort(t *testing.T) {
	provider := NewSKUTableProvider(DemoRetailSource{}, SKUSetDetailed, 0)
	data, err := provider.Fetch(context.Background(), providerContext("detailed-skus-table", "Detailed SKUs Analysis", "", map[string]any{
		"search":   "500ml",
		"sort_by":  "volume",
		"sort_dir": "desc",
	}))
	require.NoError(t, err)

	table, ok := data.Table()
	require.True(t, ok)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, "WATER-500ML", table.Rows[0][0])
	assert.Equal(t, 10, data["total"])
	assert.Equal(t, true, data["searchable"])
	assert.Equal(t, "Units Sold", table.Columns[3].Label)

	rows := data["rows"].([][]string)
	assert.Equal(t, "SAR 98,000", rows[0][2])
	assert.Equal(t, "12.2%", rows[0][4])
}

func TestSKUTableProviderLimit(t *testing.T) {
	provider := NewSKUTableProvider(DemoRetailSource{}, SKUSetTop, 2)
	data, err := provider.Fetch(context.Background(), providerContext("top-skus-table", "Top SKUs", "", nil))
	require.NoError(t, err)
	table, _ := data.Table()
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "Volume", table.Columns[3].Label)
	assert.Equal(t, false, data["searchable"])
}

func TestHeatmapProvider(t *testing.T) {
	provider := NewHeatmapProvider(DemoRetailSource{}, NewEChartsProvider(StyleBar))
	data, err := provider.Fetch(context.Background(), providerContext("riyadh-sales-heatmap", "Riyadh Sales Heatmap", "", nil))
	require.NoError(t, err)
	assert.Equal(t, 2500000.0, data["peak"])
	assert.Equal(t, string(StyleScatter), data["chart_type"])
	table, ok := data.Table()
	require.True(t, ok)
	assert.Len(t, table.Rows, 24)
}

func TestProviderColumnLabelsTranslate(t *testing.T) {
	provider := NewSKUTableProvider(DemoRetailSource{}, SKUSetTop, 1)
	meta := providerContext("top-skus-table", "Top SKUs", "", nil)
	meta.Viewer.Locale = "ar"
	meta.Translator = mapTranslator{"columns.sku": "رمز المنتج"}

	data, err := provider.Fetch(context.Background(), meta)
	require.NoError(t, err)
	table, _ := data.Table()
	assert.Equal(t, "رمز المنتج", table.Columns[0].Label)
	assert.Equal(t, "Product Name", table.Columns[1].Label)
}

func TestProviderErrorsPropagate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for code, provider := range DefaultProviders(DemoRetailSource{}) {
		_, err := provider.Fetch(ctx, providerContext(code, code, "", nil))
		assert.ErrorIsf(t, err, context.Canceled, code)
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "1,250", formatValue("en", 1250, FormatNumber))
	assert.Equal(t, "4.5", formatValue("en", 4.5, FormatNumber))
	assert.Equal(t, "SAR 4", formatValue("en", 4.2, FormatCurrency))
	assert.Equal(t, "1.2%", formatChange("en", -1.2))
	assert.Equal(t, "-", formatCell("en", nil, FormatNumber))
	assert.Equal(t, "COLA", formatCell("en", "COLA", FormatText))
	assert.NotEqual(t, formatValue("en", 1250, FormatNumber), formatValue("ar", 1250, FormatNumber))
}
