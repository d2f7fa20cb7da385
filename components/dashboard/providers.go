package dashboard

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Visualization choices.
const (
	VisualizationBar        = "bar"
	VisualizationLine       = "line"
	VisualizationPie        = "pie"
	VisualizationStep       = "step"
	VisualizationTable      = "table"
	VisualizationStackedBar = "stackedBar"
	VisualizationGroupedBar = "groupedBar"
	VisualizationAreaChart  = "areaChart"
	VisualizationSpline     = "spline"
	VisualizationColumn     = "column"
)

// PerformanceStyles maps performance page visualizations to chart styles.
// "table" has no chart and renders the data table only.
var PerformanceStyles = map[string]ChartStyle{
	VisualizationBar:  StyleBar,
	VisualizationLine: StyleSmoothLine,
	VisualizationPie:  StylePie,
	VisualizationStep: StyleLine,
}

// SalesStyles maps sales chart types to chart styles.
var SalesStyles = map[string]ChartStyle{
	VisualizationStackedBar: StyleStackedBar,
	VisualizationGroupedBar: StyleBar,
	VisualizationAreaChart:  StyleArea,
}

// PriceStyles maps price chart types to chart styles.
var PriceStyles = map[string]ChartStyle{
	VisualizationLine:   StyleLine,
	VisualizationSpline: StyleSmoothLine,
	VisualizationColumn: StyleBar,
}

// DefaultProviders wires every catalog widget to source.
func DefaultProviders(source RetailSource, chartOpts ...EChartsProviderOption) map[string]Provider {
	renderer := NewEChartsProvider(StyleBar, chartOpts...)
	return map[string]Provider{
		"sales-value-metric":       NewMetricProvider(source, MetricSalesValue, nil),
		"sales-volume-metric":      NewMetricProvider(source, MetricSalesVolume, nil),
		"customer-count-metric":    NewMetricProvider(source, MetricCustomerCount, nil),
		"store-count-metric":       NewMetricProvider(source, MetricStoreCount, nil),
		"out-of-stock-metric":      NewMetricProvider(source, MetricOutOfStock, renderer),
		"price-trend-chart":        NewSeriesChartProvider(source, SeriesPriceTrend, renderer, PerformanceStyles, VisualizationStep),
		"customer-trend-chart":     NewSeriesChartProvider(source, SeriesCustomerTrend, renderer, PerformanceStyles, VisualizationLine),
		"sales-by-store-chart":     NewSeriesChartProvider(source, SeriesSalesByStoreType, renderer, PerformanceStyles, VisualizationBar),
		"sales-distribution-chart": NewSeriesChartProvider(source, SeriesSalesDistribution, renderer, PerformanceStyles, VisualizationPie),
		"top-skus-table":           NewSKUTableProvider(source, SKUSetTop, 5),
		"detailed-skus-table":      NewSKUTableProvider(source, SKUSetDetailed, 0),
		"riyadh-sales-heatmap":     NewHeatmapProvider(source, renderer),
		"sales-chart":              NewSeriesChartProvider(source, SeriesSalesByZone, renderer, SalesStyles, VisualizationStackedBar),
		"price-chart":              NewSeriesChartProvider(source, SeriesPriceByZone, renderer, PriceStyles, VisualizationLine),
		"zone-comparison":          NewSeriesChartProvider(source, SeriesZoneComparison, renderer, map[string]ChartStyle{VisualizationBar: StyleBar}, VisualizationBar),
	}
}

// MetricProvider renders a headline number with its change.
type MetricProvider struct {
	repo   MetricRepository
	metric string
	gauge  *EChartsProvider
}

// NewMetricProvider builds a metric card provider. A non-nil gauge renderer
// adds a gauge chart to percent metrics.
func NewMetricProvider(repo MetricRepository, metric string, gauge *EChartsProvider) *MetricProvider {
	return &MetricProvider{repo: repo, metric: metric, gauge: gauge}
}

// Fetch implements Provider.
func (p *MetricProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	report, err := p.repo.FetchMetric(ctx, MetricQuery{Metric: p.metric, Filters: meta.Filters})
	if err != nil {
		return nil, err
	}
	locale := meta.Viewer.Locale
	format := formatForUnit(report.Unit)
	data := WidgetData{
		"title":     meta.Instance.Name,
		"metric":    report.Metric,
		"value":     report.Value,
		"formatted": formatValue(locale, report.Value, format),
		"unit":      report.Unit,
		"currency":  report.Unit == UnitCurrency,
		"trend":     "flat",
	}
	changeCell := any(nil)
	if report.Change != nil {
		data["change"] = *report.Change
		data["change_formatted"] = formatChange(locale, *report.Change)
		data["trend"] = trendOf(*report.Change)
		changeCell = *report.Change
	}
	data["table"] = Table{
		Columns: []Column{
			{Key: "metric", Label: columnLabel(ctx, meta, "metric", "Metric"), Format: FormatText},
			{Key: "value", Label: columnLabel(ctx, meta, "value", "Value"), Format: format},
			{Key: "change", Label: columnLabel(ctx, meta, "change", "Change (%)"), Format: FormatPercent},
		},
		Rows: [][]any{{meta.Instance.Name, report.Value, changeCell}},
	}
	if p.gauge != nil && report.Unit == UnitPercent {
		html, err := p.gauge.RenderSpec(ctx, meta, ChartSpec{
			Key:    meta.Instance.DefinitionID,
			Title:  meta.Instance.Name,
			Style:  StyleGauge,
			Series: []ChartSeries{{Name: meta.Instance.Name, Points: []ChartPoint{{Value: report.Value}}}},
		})
		if err != nil {
			return nil, err
		}
		data["chart_html"] = html
		data["chart_type"] = string(StyleGauge)
	}
	return data, nil
}

// SeriesChartProvider renders a series dataset in the instance's chosen
// visualization.
type SeriesChartProvider struct {
	repo     SeriesRepository
	series   string
	renderer *EChartsProvider
	styles   map[string]ChartStyle
	fallback string
}

// NewSeriesChartProvider builds a chart provider. styles maps each allowed
// visualization to a chart style; fallback is used when the instance has none.
func NewSeriesChartProvider(repo SeriesRepository, series string, renderer *EChartsProvider, styles map[string]ChartStyle, fallback string) *SeriesChartProvider {
	return &SeriesChartProvider{repo: repo, series: series, renderer: renderer, styles: styles, fallback: fallback}
}

// Fetch implements Provider.
func (p *SeriesChartProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	report, err := p.repo.FetchSeries(ctx, SeriesQuery{Series: p.series, Filters: meta.Filters})
	if err != nil {
		return nil, err
	}
	visualization := meta.Instance.Visualization
	if visualization == "" {
		visualization = p.fallback
	}
	table := seriesTable(report.Labels, report.Series)
	table.Columns[0].Label = columnLabel(ctx, meta, "label", "Label")
	if report.Currency {
		for i := 1; i < len(table.Columns); i++ {
			table.Columns[i].Format = FormatCurrency
		}
	}
	data := WidgetData{
		"title":         meta.Instance.Name,
		"visualization": visualization,
		"labels":        report.Labels,
		"series":        report.Series,
		"currency":      report.Currency,
		"table":         table,
		"rows":          displayRows(meta.Viewer.Locale, table),
	}
	if len(report.Series) == 0 {
		data["empty"] = true
		return data, nil
	}
	style, ok := p.styles[visualization]
	if !ok || p.renderer == nil {
		return data, nil
	}
	html, err := p.renderer.RenderSpec(ctx, meta, ChartSpec{
		Key:    meta.Instance.DefinitionID,
		Title:  meta.Instance.Name,
		Style:  style,
		Labels: report.Labels,
		Series: report.Series,
	})
	if err != nil {
		return nil, err
	}
	data["chart_html"] = html
	data["chart_type"] = string(style)
	return data, nil
}

// SKUTableProvider renders a product table. Instance configuration may carry
// "search", "sort_by", and "sort_dir".
type SKUTableProvider struct {
	repo  SKURepository
	set   string
	limit int
}

// NewSKUTableProvider builds a table provider for an SKU set.
func NewSKUTableProvider(repo SKURepository, set string, limit int) *SKUTableProvider {
	return &SKUTableProvider{repo: repo, set: set, limit: limit}
}

// Fetch implements Provider.
func (p *SKUTableProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	rows, err := p.repo.FetchSKUs(ctx, SKUQuery{Set: p.set, Limit: p.limit, Filters: meta.Filters})
	if err != nil {
		return nil, err
	}
	volumeLabel := "Volume"
	if p.set == SKUSetDetailed {
		volumeLabel = "Units Sold"
	}
	table := Table{
		Columns: []Column{
			{Key: "sku", Label: columnLabel(ctx, meta, "sku", "SKU"), Format: FormatText, Sortable: true},
			{Key: "name", Label: columnLabel(ctx, meta, "name", "Product Name"), Format: FormatText, Sortable: true},
			{Key: "sales", Label: columnLabel(ctx, meta, "sales", "Sales (SAR)"), Format: FormatCurrency, Sortable: true},
			{Key: "volume", Label: columnLabel(ctx, meta, "volume", volumeLabel), Format: FormatNumber, Sortable: true},
			{Key: "share", Label: columnLabel(ctx, meta, "share", "Market Share"), Format: FormatPercent, Sortable: true},
		},
		Rows: make([][]any, 0, len(rows)),
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []any{row.SKU, row.Name, row.Sales, row.Volume, row.Share})
	}
	cfg := meta.Instance.Configuration
	query := TableQuery{
		Search:    stringValue(cfg["search"], ""),
		SortBy:    stringValue(cfg["sort_by"], ""),
		Direction: SortDirection(stringValue(cfg["sort_dir"], "")),
	}
	view := table.Apply(query)
	return WidgetData{
		"title":      meta.Instance.Name,
		"table":      view,
		"rows":       displayRows(meta.Viewer.Locale, view),
		"total":      len(table.Rows),
		"searchable": p.set == SKUSetDetailed,
		"search":     query.Search,
		"sort_by":    query.SortBy,
		"sort_dir":   string(query.Direction),
	}, nil
}

// HeatmapProvider renders geographic sales points as a scatter chart.
type HeatmapProvider struct {
	repo     HeatmapRepository
	renderer *EChartsProvider
}

// NewHeatmapProvider builds a heatmap provider.
func NewHeatmapProvider(repo HeatmapRepository, renderer *EChartsProvider) *HeatmapProvider {
	return &HeatmapProvider{repo: repo, renderer: renderer}
}

// Fetch implements Provider.
func (p *HeatmapProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	points, err := p.repo.FetchHeatmap(ctx, HeatmapQuery{Region: "riyadh", Filters: meta.Filters})
	if err != nil {
		return nil, err
	}
	table := Table{
		Columns: []Column{
			{Key: "lng", Label: columnLabel(ctx, meta, "longitude", "Longitude"), Format: FormatNumber, Sortable: true},
			{Key: "lat", Label: columnLabel(ctx, meta, "latitude", "Latitude"), Format: FormatNumber, Sortable: true},
			{Key: "value", Label: columnLabel(ctx, meta, "sales", "Sales (SAR)"), Format: FormatCurrency, Sortable: true},
		},
		Rows: make([][]any, 0, len(points)),
	}
	chartPoints := make([]ChartPoint, 0, len(points))
	var peak float64
	for _, pt := range points {
		table.Rows = append(table.Rows, []any{pt.Lng, pt.Lat, pt.Value})
		chartPoints = append(chartPoints, ChartPoint{Value: pt.Value, Pair: []float64{pt.Lng, pt.Lat}})
		peak = math.Max(peak, pt.Value)
	}
	data := WidgetData{
		"title":  meta.Instance.Name,
		"points": points,
		"peak":   peak,
		"table":  table,
	}
	if p.renderer == nil || len(chartPoints) == 0 {
		return data, nil
	}
	html, err := p.renderer.RenderSpec(ctx, meta, ChartSpec{
		Key:    meta.Instance.DefinitionID,
		Title:  meta.Instance.Name,
		Style:  StyleScatter,
		Series: []ChartSeries{{Name: "Sales", Points: chartPoints}},
	})
	if err != nil {
		return nil, err
	}
	data["chart_html"] = html
	data["chart_type"] = string(StyleScatter)
	return data, nil
}

func columnLabel(ctx context.Context, meta WidgetContext, key, fallback string) string {
	return translateOrFallback(ctx, meta.Translator, "columns."+key, meta.Viewer.Locale, fallback, nil)
}

func formatForUnit(unit string) string {
	switch unit {
	case UnitCurrency:
		return FormatCurrency
	case UnitPercent:
		return FormatPercent
	default:
		return FormatNumber
	}
}

func trendOf(change float64) string {
	switch {
	case change > 0:
		return "up"
	case change < 0:
		return "down"
	default:
		return "flat"
	}
}

func localeTag(locale string) language.Tag {
	if tag, err := language.Parse(locale); err == nil {
		return tag
	}
	return language.English
}

// formatValue renders v for locale with grouping separators.
func formatValue(locale string, v float64, format string) string {
	p := message.NewPrinter(localeTag(locale))
	switch format {
	case FormatCurrency:
		return p.Sprintf("SAR %v", number.Decimal(v, number.MaxFractionDigits(0)))
	case FormatPercent:
		return p.Sprintf("%v%%", number.Decimal(v, number.MaxFractionDigits(1)))
	default:
		return p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(2)))
	}
}

// formatChange renders the magnitude of a change with one decimal.
func formatChange(locale string, change float64) string {
	p := message.NewPrinter(localeTag(locale))
	return p.Sprintf("%v%%", number.Decimal(math.Abs(change), number.MinFractionDigits(1), number.MaxFractionDigits(1)))
}

func displayRows(locale string, table Table) [][]string {
	out := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			format := FormatText
			if j < len(table.Columns) {
				format = table.Columns[j].Format
			}
			cells[j] = formatCell(locale, cell, format)
		}
		out[i] = cells
	}
	return out
}

func formatCell(locale string, cell any, format string) string {
	if cell == nil {
		return "-"
	}
	if f, ok := numeric(cell); ok && format != FormatText {
		return formatValue(locale, f, format)
	}
	return fmt.Sprint(cell)
}
