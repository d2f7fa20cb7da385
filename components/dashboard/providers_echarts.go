package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ettle/strcase"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "360px"

var sharedChartCache = NewChartCache(5 * time.Minute)

// ChartStyle is the rendered form of a chart.
type ChartStyle string

const (
	StyleBar        ChartStyle = "bar"
	StyleStackedBar ChartStyle = "stacked_bar"
	StyleLine       ChartStyle = "line"
	StyleSmoothLine ChartStyle = "smooth_line"
	StyleArea       ChartStyle = "area"
	StylePie        ChartStyle = "pie"
	StyleScatter    ChartStyle = "scatter"
	StyleGauge      ChartStyle = "gauge"
)

// ChartSpec is a fully resolved chart ready to render.
type ChartSpec struct {
	Key      string
	Title    string
	Subtitle string
	Style    ChartStyle
	Labels   []string
	Series   []ChartSeries
}

// ChartSeries represents a set of values plotted for a given legend entry.
type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// ChartPoint represents an individual value (optionally labeled). Pair holds
// x/y coordinates for scatter charts.
type ChartPoint struct {
	Label string    `json:"label,omitempty"`
	Value float64   `json:"value"`
	Pair  []float64 `json:"pair,omitempty"`
}

type chartRenderContext struct {
	Viewer ViewerContext
	Theme  string
}

// ThemeResolver selects a chart theme per viewer.
type ThemeResolver func(ViewerContext) string

// DirectionalTheme picks rtl for Arabic viewers and ltr otherwise.
func DirectionalTheme(ltr, rtl string) ThemeResolver {
	return func(viewer ViewerContext) string {
		if isRTL(viewer.Locale) {
			return rtl
		}
		return ltr
	}
}

// EChartsProvider renders server-side chart HTML through go-echarts.
type EChartsProvider struct {
	style         ChartStyle
	cache         RenderCache
	theme         string
	themeResolver ThemeResolver
	assetsHost    string
}

// EChartsProviderOption customizes provider behavior.
type EChartsProviderOption func(*EChartsProvider)

// WithChartCache injects a render cache.
func WithChartCache(cache RenderCache) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.cache = cache
	}
}

// WithChartTheme sets a static theme (defaults to Westeros).
func WithChartTheme(theme string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.theme = theme
	}
}

// WithChartThemeResolver resolves themes dynamically per viewer.
func WithChartThemeResolver(resolver ThemeResolver) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.themeResolver = resolver
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) EChartsProviderOption {
	return func(p *EChartsProvider) {
		p.assetsHost = host
	}
}

// NewEChartsProvider builds a renderer whose Fetch draws style from widget
// configuration.
func NewEChartsProvider(style ChartStyle, opts ...EChartsProviderOption) *EChartsProvider {
	p := &EChartsProvider{
		style: ChartStyle(strings.ToLower(string(style))),
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch converts widget configuration into go-echarts markup. It serves
// manifest widgets that carry their series in configuration.
func (p *EChartsProvider) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	cfg := meta.Instance.Configuration
	if cfg == nil {
		cfg = map[string]any{}
	}

	title := stringValue(cfg["title"], meta.Instance.Name)
	if title == "" {
		title = "Chart"
	}
	subtitle := stringValue(cfg["subtitle"], "")

	series := parseChartSeries(cfg["series"])
	if len(series) == 0 {
		return nil, fmt.Errorf("chart series is required")
	}
	labels := stringSliceValue(cfg["x_axis"])
	if len(labels) == 0 {
		labels = inferredAxisLabels(series)
	}

	style := p.style
	if override := stringValue(cfg["style"], ""); override != "" {
		style = ChartStyle(override)
	}

	spec := ChartSpec{
		Key:      meta.Instance.DefinitionID + ":" + contentHash(cfg),
		Title:    title,
		Subtitle: subtitle,
		Style:    style,
		Labels:   labels,
		Series:   series,
	}
	html, err := p.RenderSpec(ctx, meta, spec)
	if err != nil {
		return nil, err
	}
	data := WidgetData{
		"chart_html": html,
		"chart_type": string(style),
		"title":      spec.Title,
		"subtitle":   subtitle,
		"table":      seriesTable(labels, series),
	}
	if boolValue(cfg["dynamic"]) {
		data["dynamic"] = true
		if refresh := stringValue(cfg["refresh_endpoint"], ""); refresh != "" {
			data["refresh_endpoint"] = refresh
		}
	}
	return data, nil
}

// RenderSpec renders spec for the viewer, translating labels and legend
// names when a translator is present. Output is cached per spec content,
// theme, and locale.
func (p *EChartsProvider) RenderSpec(ctx context.Context, meta WidgetContext, spec ChartSpec) (string, error) {
	if len(spec.Series) == 0 {
		return "", fmt.Errorf("chart series is required")
	}
	spec.Labels = p.translateAxis(ctx, meta, spec.Labels)
	spec.Series = p.translateSeries(ctx, meta, spec.Series)

	renderCtx := chartRenderContext{
		Viewer: meta.Viewer,
		Theme:  p.resolveTheme(meta.Viewer),
	}
	renderFn := func() (string, error) {
		return p.render(spec, renderCtx)
	}
	if p.cache == nil {
		return renderFn()
	}
	key := strings.Join([]string{
		spec.Key,
		string(spec.Style),
		renderCtx.Theme,
		normalizeLocale(meta.Viewer.Locale),
		contentHash(spec),
	}, ":")
	return p.cache.GetOrRender(key, renderFn)
}

func (p *EChartsProvider) render(spec ChartSpec, ctx chartRenderContext) (string, error) {
	switch spec.Style {
	case StyleBar:
		return p.renderBarChart(spec, ctx, false)
	case StyleStackedBar:
		return p.renderBarChart(spec, ctx, true)
	case StyleLine:
		return p.renderLineChart(spec, ctx, opts.LineChart{Smooth: opts.Bool(false)}, false)
	case StyleSmoothLine:
		return p.renderLineChart(spec, ctx, opts.LineChart{Smooth: opts.Bool(true)}, false)
	case StyleArea:
		return p.renderLineChart(spec, ctx, opts.LineChart{Smooth: opts.Bool(true), Stack: "total"}, true)
	case StylePie:
		return p.renderPieChart(spec, ctx)
	case StyleScatter:
		return p.renderScatterChart(spec, ctx)
	case StyleGauge:
		return p.renderGaugeChart(spec, ctx)
	default:
		return "", fmt.Errorf("unsupported chart style: %s", spec.Style)
	}
}

func (p *EChartsProvider) renderBarChart(spec ChartSpec, ctx chartRenderContext, stacked bool) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(p.globalChartOptions(spec.Title, spec.Subtitle, ctx)...)
	bar.SetXAxis(spec.Labels)
	for _, s := range spec.Series {
		bar.AddSeries(s.Name, toBarData(s.Points))
	}
	if stacked {
		bar.SetSeriesOptions(charts.WithBarChartOpts(opts.BarChart{Stack: "total"}))
	}
	return renderChart(bar)
}

func (p *EChartsProvider) renderLineChart(spec ChartSpec, ctx chartRenderContext, lineOpts opts.LineChart, area bool) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(p.globalChartOptions(spec.Title, spec.Subtitle, ctx)...)
	line.SetXAxis(spec.Labels)
	for _, s := range spec.Series {
		line.AddSeries(s.Name, toLineData(s.Points))
	}
	seriesOpts := []charts.SeriesOpts{charts.WithLineChartOpts(lineOpts)}
	if area {
		seriesOpts = append(seriesOpts, charts.WithAreaStyleOpts(opts.AreaStyle{}))
	}
	line.SetSeriesOptions(seriesOpts...)
	return renderChart(line)
}

func (p *EChartsProvider) renderPieChart(spec ChartSpec, ctx chartRenderContext) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(p.globalChartOptions(spec.Title, spec.Subtitle, ctx)...)
	for _, s := range spec.Series {
		pie.AddSeries(s.Name, toPieData(s.Points))
	}
	return renderChart(pie)
}

func (p *EChartsProvider) renderScatterChart(spec ChartSpec, ctx chartRenderContext) (string, error) {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(p.globalChartOptions(spec.Title, spec.Subtitle, ctx)...)
	for _, s := range spec.Series {
		scatter.AddSeries(s.Name, toScatterData(s.Points))
	}
	return renderChart(scatter)
}

func (p *EChartsProvider) renderGaugeChart(spec ChartSpec, ctx chartRenderContext) (string, error) {
	gauge := charts.NewGauge()
	gauge.SetGlobalOptions(p.globalChartOptions(spec.Title, "", ctx)...)
	for _, s := range spec.Series {
		if len(s.Points) == 0 {
			continue
		}
		gauge.AddSeries(s.Name, []opts.GaugeData{
			{Name: s.Name, Value: s.Points[0].Value},
		})
	}
	return renderChart(gauge)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *EChartsProvider) globalChartOptions(title, subtitle string, ctx chartRenderContext) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  ctx.Theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if p.assetsHost != "" {
		initOpts.AssetsHost = p.assetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func (p *EChartsProvider) resolveTheme(viewer ViewerContext) string {
	if p.themeResolver != nil {
		if theme := p.themeResolver(viewer); theme != "" {
			return theme
		}
	}
	if p.theme != "" {
		return p.theme
	}
	return types.ThemeWesteros
}

func toBarData(points []ChartPoint) []opts.BarData {
	data := make([]opts.BarData, len(points))
	for i, point := range points {
		data[i] = opts.BarData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

func toLineData(points []ChartPoint) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, point := range points {
		data[i] = opts.LineData{
			Name:  point.Label,
			Value: point.Value,
		}
	}
	return data
}

func toPieData(points []ChartPoint) []opts.PieData {
	data := make([]opts.PieData, len(points))
	for i, point := range points {
		name := point.Label
		if name == "" {
			name = fmt.Sprintf("Slice %d", i+1)
		}
		data[i] = opts.PieData{
			Name:  name,
			Value: point.Value,
		}
	}
	return data
}

func toScatterData(points []ChartPoint) []opts.ScatterData {
	data := make([]opts.ScatterData, len(points))
	for i, point := range points {
		value := []float64{float64(i + 1), point.Value}
		if len(point.Pair) >= 2 {
			value = []float64{point.Pair[0], point.Pair[1], point.Value}
		}
		data[i] = opts.ScatterData{
			Name:  point.Label,
			Value: value,
		}
	}
	return data
}

func parseChartSeries(v any) []ChartSeries {
	var items []map[string]any
	switch val := v.(type) {
	case []map[string]any:
		items = val
	case []any:
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				items = append(items, m)
			}
		}
	default:
		return nil
	}
	out := make([]ChartSeries, 0, len(items))
	for _, item := range items {
		series := ChartSeries{
			Name:   stringValue(item["name"], "Series"),
			Points: parseChartPoints(item["data"]),
		}
		if len(series.Points) > 0 {
			out = append(out, series)
		}
	}
	return out
}

func parseChartPoints(v any) []ChartPoint {
	switch value := v.(type) {
	case []any:
		return convertAnyPoints(value)
	case []float64:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: val}
		}
		return points
	case []int:
		points := make([]ChartPoint, len(value))
		for i, val := range value {
			points[i] = ChartPoint{Value: float64(val)}
		}
		return points
	case []map[string]any:
		items := make([]any, len(value))
		for i, item := range value {
			items[i] = item
		}
		return convertAnyPoints(items)
	default:
		return nil
	}
}

func convertAnyPoints(items []any) []ChartPoint {
	points := make([]ChartPoint, 0, len(items))
	for _, item := range items {
		switch val := item.(type) {
		case float64, float32, int, int64, json.Number:
			points = append(points, ChartPoint{Value: float64Value(val)})
		case []float64:
			if len(val) >= 2 {
				points = append(points, ChartPoint{Pair: val[:2]})
			}
		case []any:
			if len(val) >= 2 {
				points = append(points, ChartPoint{
					Pair: []float64{float64Value(val[0]), float64Value(val[1])},
				})
			}
		case map[string]any:
			points = append(points, ChartPoint{
				Label: stringValue(val["name"], ""),
				Value: float64Value(val["value"]),
				Pair:  pairFromMap(val),
			})
		}
	}
	return points
}

func pairFromMap(m map[string]any) []float64 {
	x, xOK := m["x"]
	y, yOK := m["y"]
	if !xOK || !yOK {
		return nil
	}
	return []float64{float64Value(x), float64Value(y)}
}

func stringSliceValue(v any) []string {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringValue(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func float64Value(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return 0
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	case int:
		return val != 0
	case int64:
		return val != 0
	default:
		return false
	}
}

// labelKey maps a display label to its bundle key, e.g. "North Riyadh" to
// "labels.north_riyadh".
func labelKey(label string) string {
	return "labels." + strcase.ToSnake(label)
}

func (p *EChartsProvider) translateAxis(ctx context.Context, meta WidgetContext, labels []string) []string {
	if meta.Translator == nil || len(labels) == 0 {
		return labels
	}
	out := make([]string, len(labels))
	for i, label := range labels {
		out[i] = translateOrFallback(ctx, meta.Translator, labelKey(label), meta.Viewer.Locale, label, nil)
	}
	return out
}

func (p *EChartsProvider) translateSeries(ctx context.Context, meta WidgetContext, series []ChartSeries) []ChartSeries {
	if meta.Translator == nil {
		return series
	}
	out := make([]ChartSeries, len(series))
	for i, s := range series {
		out[i] = s
		if s.Name != "" {
			out[i].Name = translateOrFallback(ctx, meta.Translator, labelKey(s.Name), meta.Viewer.Locale, s.Name, nil)
		}
	}
	return out
}

func inferredAxisLabels(series []ChartSeries) []string {
	var candidate []string
	longest := 0
	for _, s := range series {
		if len(s.Points) > longest {
			longest = len(s.Points)
			candidate = make([]string, len(s.Points))
			for i, point := range s.Points {
				if point.Label != "" {
					candidate[i] = point.Label
				} else {
					candidate[i] = fmt.Sprintf("Item %d", i+1)
				}
			}
		}
	}
	return candidate
}

// bindConfigCharts gives chart definitions that carry their own series a
// go-echarts provider.
func (r *Registry) bindConfigCharts() error {
	for _, def := range r.Definitions() {
		if def.Kind != KindChart || len(def.Config) == 0 {
			continue
		}
		if _, ok := r.Provider(def.Code); ok {
			continue
		}
		style := ChartStyle(stringValue(def.Config["style"], string(StyleBar)))
		if err := r.RegisterProvider(def.Code, NewEChartsProvider(style)); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	RegisterWidgetHook(func(reg *Registry) error {
		return reg.bindConfigCharts()
	})
}
