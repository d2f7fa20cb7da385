package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEChartsBarProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil))
	ctx := sampleChartContext("weekly-sales", map[string]any{
		"title":  "Weekly Sales",
		"x_axis": []string{"W1", "W2", "W3"},
		"series": []map[string]any{
			{"name": "Sales", "data": []float64{10, 20, 30}},
		},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)

	assert.Equal(t, "bar", data["chart_type"])
	assert.Equal(t, "Weekly Sales", data["title"])
	assert.Contains(t, html(data), "echarts")

	table, ok := data.Table()
	require.True(t, ok)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, "Sales", table.Columns[1].Label)
	assert.Equal(t, []any{"W2", float64(20)}, table.Rows[1])
}

func TestEChartsLineProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleLine, WithChartCache(nil))
	ctx := sampleChartContext("footfall", map[string]any{
		"title":  "Footfall",
		"x_axis": []string{"Day 1", "Day 2", "Day 3"},
		"series": []map[string]any{
			{"name": "Visits", "data": []float64{100, 150, 120}},
		},
		"style": "area",
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "area", data["chart_type"], "configuration style overrides the default")
	assert.Contains(t, html(data), "areastyle")
}

func TestEChartsPieProvider(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StylePie, WithChartCache(nil))
	ctx := sampleChartContext("brand-share", map[string]any{
		"title": "Brand Share",
		"series": []map[string]any{
			{
				"name": "Brands",
				"data": []map[string]any{
					{"name": "Almarai", "value": 100},
					{"name": "Nadec", "value": 200},
				},
			},
		},
	})

	data, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	assert.Equal(t, "pie", data["chart_type"])
	assert.Contains(t, html(data), "almarai")
}

func TestEChartsProviderRendersEveryStyle(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil))
	spec := ChartSpec{
		Key:    "styles",
		Title:  "Styles",
		Labels: []string{"Jan", "Feb"},
		Series: []ChartSeries{
			{Name: "North", Points: []ChartPoint{{Value: 1}, {Value: 2}}},
			{Name: "South", Points: []ChartPoint{{Value: 3, Pair: []float64{46.7, 24.7}}, {Value: 4}}},
		},
	}
	for _, style := range []ChartStyle{StyleBar, StyleStackedBar, StyleLine, StyleSmoothLine, StyleArea, StylePie, StyleScatter, StyleGauge} {
		spec.Style = style
		out, err := provider.RenderSpec(context.Background(), WidgetContext{}, spec)
		require.NoErrorf(t, err, "style %s", style)
		assert.Containsf(t, strings.ToLower(out), "echarts", "style %s", style)
	}
	spec.Style = StyleStackedBar
	out, err := provider.RenderSpec(context.Background(), WidgetContext{}, spec)
	require.NoError(t, err)
	assert.Contains(t, out, "total")
}

func TestEChartsProviderInvalidType(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider("bubble")
	ctx := sampleChartContext("bubbles", map[string]any{
		"title": "Unsupported",
		"series": []map[string]any{
			{"name": "Series", "data": []float64{1}},
		},
	})

	_, err := provider.Fetch(context.Background(), ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

func TestEChartsProviderRequiresSeries(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar)
	_, err := provider.Fetch(context.Background(), sampleChartContext("empty", map[string]any{"title": "Empty"}))
	require.Error(t, err)
	_, err = provider.RenderSpec(context.Background(), WidgetContext{}, ChartSpec{Style: StyleBar})
	require.Error(t, err)
}

func TestEChartsProviderUsesCache(t *testing.T) {
	t.Parallel()
	cache := &countingCache{}
	provider := NewEChartsProvider(StyleBar, WithChartCache(cache))
	ctx := sampleChartContext("cached", map[string]any{
		"title":  "Cached",
		"series": []map[string]any{{"name": "Series", "data": []float64{1, 2}}},
	})

	_, err := provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)
	_, err = provider.Fetch(context.Background(), ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), cache.calls)
}

func TestEChartsProviderCacheKeySeparatesLocales(t *testing.T) {
	t.Parallel()
	cache := &keyCache{}
	provider := NewEChartsProvider(StyleBar, WithChartCache(cache))
	spec := ChartSpec{Key: "sales-chart", Style: StyleBar, Labels: []string{"Jan"}, Series: []ChartSeries{{Name: "North", Points: []ChartPoint{{Value: 1}}}}}

	_, err := provider.RenderSpec(context.Background(), WidgetContext{Viewer: ViewerContext{Locale: "en"}}, spec)
	require.NoError(t, err)
	_, err = provider.RenderSpec(context.Background(), WidgetContext{Viewer: ViewerContext{Locale: "ar"}}, spec)
	require.NoError(t, err)

	require.Len(t, cache.keys, 2)
	assert.NotEqual(t, cache.keys[0], cache.keys[1])
	assert.True(t, strings.HasPrefix(cache.keys[0], "sales-chart:bar:"))
}

func TestEChartsProviderThemeResolver(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar,
		WithChartCache(nil),
		WithChartThemeResolver(DirectionalTheme(string(types.ThemeWalden), string(types.ThemeChalk))),
	)
	cfg := map[string]any{
		"title":  "Theme",
		"series": []map[string]any{{"name": "Series", "data": []float64{5, 6}}},
	}

	ltr := sampleChartContext("themed", cfg)
	data, err := provider.Fetch(context.Background(), ltr)
	require.NoError(t, err)
	assert.Contains(t, html(data), "walden")

	rtl := sampleChartContext("themed", cfg)
	rtl.Viewer.Locale = "ar"
	data, err = provider.Fetch(context.Background(), rtl)
	require.NoError(t, err)
	assert.Contains(t, html(data), "chalk")
}

func TestEChartsProviderStaticTheme(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil), WithChartTheme(string(types.ThemeWonderland)))
	data, err := provider.Fetch(context.Background(), sampleChartContext("themed", map[string]any{
		"series": []map[string]any{{"name": "Series", "data": []float64{1}}},
	}))
	require.NoError(t, err)
	assert.Contains(t, html(data), "wonderland")
}

func TestEChartsProviderTranslatesLabels(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil))
	translator := mapTranslator{
		"labels.north_riyadh": "شمال الرياض",
		"labels.sales":        "المبيعات",
	}
	meta := WidgetContext{
		Viewer:     ViewerContext{Locale: "ar"},
		Translator: translator,
	}
	out, err := provider.RenderSpec(context.Background(), meta, ChartSpec{
		Key:    "zones",
		Style:  StyleBar,
		Labels: []string{"North Riyadh", "Unmapped Zone"},
		Series: []ChartSeries{{Name: "Sales", Points: []ChartPoint{{Value: 1}, {Value: 2}}}},
	})
	require.NoError(t, err)
	assert.Contains(t, out, "شمال الرياض")
	assert.Contains(t, out, "المبيعات")
	assert.Contains(t, out, "Unmapped Zone")
}

func TestEChartsProviderAssetsHost(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil), WithChartAssetsHost("https://cdn.example.com/echarts/"))
	data, err := provider.Fetch(context.Background(), sampleChartContext("assets", map[string]any{
		"series": []map[string]any{{"name": "S", "data": []float64{1}}},
	}))
	require.NoError(t, err)
	assert.Contains(t, html(data), "https://cdn.example.com/echarts/")
}

func TestEChartsProviderDynamicFlags(t *testing.T) {
	t.Parallel()
	provider := NewEChartsProvider(StyleLine, WithChartCache(nil))
	data, err := provider.Fetch(context.Background(), sampleChartContext("live", map[string]any{
		"series":           []map[string]any{{"name": "S", "data": []float64{1, 2}}},
		"dynamic":          "true",
		"refresh_endpoint": "/api/dashboard/performance/widgets/live",
	}))
	require.NoError(t, err)
	assert.Equal(t, true, data["dynamic"])
	assert.Equal(t, "/api/dashboard/performance/widgets/live", data["refresh_endpoint"])
}

func TestIsRTL(t *testing.T) {
	assert.True(t, isRTL("ar"))
	assert.True(t, isRTL("AR-sa"))
	assert.False(t, isRTL("en"))
	assert.False(t, isRTL("arn"))
	assert.False(t, isRTL(""))
}

func sampleChartContext(definition string, cfg map[string]any) WidgetContext {
	return WidgetContext{
		Instance: WidgetInstance{
			ID:            definition,
			DefinitionID:  definition,
			Configuration: cfg,
		},
		Viewer: ViewerContext{UserID: "tester", Locale: "en"},
	}
}

func html(data WidgetData) string {
	val, _ := data["chart_html"].(string)
	return strings.ToLower(val)
}

type mapTranslator map[string]string

func (m mapTranslator) Translate(_ context.Context, key, _ string, args map[string]any) (string, error) {
	if v, ok := m[key]; ok {
		for k, arg := range args {
			v = strings.ReplaceAll(v, "{{"+k+"}}", toString(arg))
		}
		return v, nil
	}
	return key, errors.New("missing translation")
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

type countingCache struct {
	calls int32
	value string
}

func (c *countingCache) GetOrRender(_ string, render func() (string, error)) (string, error) {
	if c.value != "" {
		return c.value, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	atomic.AddInt32(&c.calls, 1)
	c.value = html
	return html, nil
}

type keyCache struct {
	keys []string
}

func (c *keyCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	c.keys = append(c.keys, key)
	return render()
}

func BenchmarkEChartsBarChart(b *testing.B) {
	provider := NewEChartsProvider(StyleBar, WithChartCache(nil))
	ctx := sampleChartContext("bench", map[string]any{
		"title":  "Benchmark",
		"x_axis": []string{"A", "B", "C", "D", "E"},
		"series": []map[string]any{
			{"name": "S1", "data": []float64{10, 20, 30, 40, 50}},
			{"name": "S2", "data": []float64{11, 21, 31, 41, 51}},
		},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := provider.Fetch(context.Background(), ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEChartsBarChartCached(b *testing.B) {
	cache := NewChartCache(5 * time.Minute)
	provider := NewEChartsProvider(StyleBar, WithChartCache(cache))
	ctx := sampleChartContext("bench-cached", map[string]any{
		"title":  "Cached Benchmark",
		"x_axis": []string{"A", "B", "C", "D", "E"},
		"series": []map[string]any{
			{"name": "S1", "data": []float64{10, 20, 30, 40, 50}},
			{"name": "S2", "data": []float64{11, 21, 31, 41, 51}},
		},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := provider.Fetch(context.Background(), ctx); err != nil {
			b.Fatal(err)
		}
	}
}
