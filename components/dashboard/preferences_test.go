package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPreferenceStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-1", Locale: "en"}

	require.NoError(t, store.SaveWidgetConfig(ctx, viewer, PagePerformance, "price-trend-chart", map[string]any{"visualization": "bar"}))
	require.NoError(t, store.SaveWidgetConfig(ctx, viewer, PagePerformance, "top-skus-table", map[string]any{"search": "cola", "sort_by": "sales"}))
	require.NoError(t, store.SaveWidgetConfig(ctx, viewer, PagePerformance, "top-skus-table", map[string]any{"search": nil}))

	out, err := store.WidgetConfig(ctx, viewer, PagePerformance)
	require.NoError(t, err)
	assert.Equal(t, "bar", out["price-trend-chart"]["visualization"])
	assert.Equal(t, map[string]any{"sort_by": "sales"}, out["top-skus-table"])

	out["price-trend-chart"]["visualization"] = "pie"
	again, err := store.WidgetConfig(ctx, viewer, PagePerformance)
	require.NoError(t, err)
	assert.Equal(t, "bar", again["price-trend-chart"]["visualization"], "returned maps are copies")

	charts, err := store.WidgetConfig(ctx, viewer, PageCharts)
	require.NoError(t, err)
	assert.Empty(t, charts)
}

func TestInMemoryPreferenceStoreClearPage(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryPreferenceStore()
	viewer := ViewerContext{UserID: "user-1"}
	require.NoError(t, store.SaveWidgetConfig(ctx, viewer, PagePerformance, "a", map[string]any{"visualization": "line"}))
	require.NoError(t, store.SaveWidgetConfig(ctx, viewer, PageCharts, "b", map[string]any{"visualization": "line"}))

	require.NoError(t, store.ClearPage(ctx, viewer, PagePerformance))

	perf, _ := store.WidgetConfig(ctx, viewer, PagePerformance)
	charts, _ := store.WidgetConfig(ctx, viewer, PageCharts)
	assert.Empty(t, perf)
	assert.Len(t, charts, 1)
}

func TestInMemoryPreferenceStoreRequiresViewer(t *testing.T) {
	store := NewInMemoryPreferenceStore()
	err := store.SaveWidgetConfig(context.Background(), ViewerContext{}, PagePerformance, "a", map[string]any{"x": 1})
	assert.Error(t, err)
	err = store.SaveWidgetConfig(context.Background(), ViewerContext{UserID: "u"}, PagePerformance, "", map[string]any{"x": 1})
	assert.Error(t, err)

	out, err := store.WidgetConfig(context.Background(), ViewerContext{}, PagePerformance)
	require.NoError(t, err)
	assert.Empty(t, out)
}
