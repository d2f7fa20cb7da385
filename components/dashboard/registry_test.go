package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCatalogOrderAndPages(t *testing.T) {
	reg := NewRegistry()
	defs := reg.Definitions()
	require.NotEmpty(t, defs)
	assert.Equal(t, DefaultWidgetDefinitions()[0].Code, defs[0].Code)

	for _, def := range reg.DefinitionsForPage(PageCharts) {
		assert.True(t, def.OnPage(PageCharts), def.Code)
	}
	_, ok := reg.Sizer(PagePerformance).WidgetSize("sales-chart")
	assert.False(t, ok, "charts widgets are not sized for the performance grid")
}

func TestRegistryRedefinitionKeepsPositionAndProvider(t *testing.T) {
	reg := NewRegistry()
	first := reg.Definitions()[0]
	_, ok := reg.Provider(first.Code)
	require.False(t, ok, "built-in widgets wait for a data source")
	require.NoError(t, reg.RegisterProvider(first.Code, ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) {
		return WidgetData{}, nil
	})))

	renamed := first
	renamed.Name = "Renamed"
	require.NoError(t, reg.RegisterDefinition(renamed))

	defs := reg.Definitions()
	assert.Equal(t, "Renamed", defs[0].Name)
	assert.Len(t, defs, len(DefaultWidgetDefinitions()))
	_, ok = reg.Provider(first.Code)
	assert.True(t, ok, "redefinition keeps the bound provider")
	assert.Equal(t, "Renamed", reg.DisplayName(first.Code))
	assert.Equal(t, "ghost", reg.DisplayName("ghost"))
}

func TestRegistryRejectsBadEntries(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.RegisterDefinition(WidgetDefinition{Name: "No code"}), ErrMissingCode)

	stub := ProviderFunc(func(context.Context, WidgetContext) (WidgetData, error) { return WidgetData{}, nil })
	assert.ErrorIs(t, reg.RegisterProvider("ghost", stub), ErrUnregisteredWidget)
	assert.Error(t, reg.RegisterProvider("sales-chart", nil))

	require.NoError(t, reg.RegisterDefinition(WidgetDefinition{Code: "basket-size", Name: "Basket Size", Kind: KindMetric}))
	def, ok := reg.Definition("basket-size")
	require.True(t, ok)
	assert.Equal(t, 1, def.Height)
	_, ok = reg.Provider("basket-size")
	assert.False(t, ok)
	require.NoError(t, reg.RegisterProvider("basket-size", stub))
	_, ok = reg.Provider("basket-size")
	assert.True(t, ok)
}

func TestRegistryProviderMetadata(t *testing.T) {
	reg := NewRegistry()
	reg.recordProviderMetadata("sales-chart", ManifestProvider{Name: "Sales feed"})
	reg.recordProviderMetadata("ghost", ManifestProvider{Name: "Nobody"})

	meta, ok := reg.ProviderMetadata("sales-chart")
	require.True(t, ok)
	assert.Equal(t, "Sales feed", meta.Name)
	_, ok = reg.ProviderMetadata("ghost")
	assert.False(t, ok)
	_, ok = reg.ProviderMetadata("top-skus-table")
	assert.False(t, ok)
}

func TestCatalogsDoNotShareDefinitions(t *testing.T) {
	first := NewRegistry()
	def, ok := first.Definition("sales-chart")
	require.True(t, ok)

	def.NameLocalized["ar"] = "changed"
	def.Pages[0] = PagePerformance
	def.Visualizations[0] = "radar"
	props := def.Schema["properties"].(map[string]any)
	props["visualization"].(map[string]any)["enum"].([]string)[0] = "radar"

	perf, ok := first.Definition("sales-value-metric")
	require.True(t, ok)
	perf.Pages[0] = PageCharts

	fresh, ok := NewRegistry().Definition("sales-chart")
	require.True(t, ok)
	assert.Equal(t, "مخطط قيمة المبيعات", fresh.NameLocalized["ar"])
	assert.Equal(t, []Page{PageCharts}, fresh.Pages)
	assert.Equal(t, VisualizationStackedBar, fresh.Visualizations[0])
	enum := fresh.Schema["properties"].(map[string]any)["visualization"].(map[string]any)["enum"].([]string)
	assert.Equal(t, VisualizationStackedBar, enum[0])

	for _, d := range DefaultWidgetDefinitions() {
		if d.Code == "sales-value-metric" {
			assert.Equal(t, []Page{PagePerformance}, d.Pages)
		}
	}
}

func TestWidgetDefinitionClone(t *testing.T) {
	def := WidgetDefinition{
		Code:   "w",
		Config: map[string]any{"nested": map[string]any{"list": []any{"a", map[string]any{"k": 1}}}},
	}
	out := def.Clone()
	out.Config["nested"].(map[string]any)["list"].([]any)[1].(map[string]any)["k"] = 2
	assert.Equal(t, 1, def.Config["nested"].(map[string]any)["list"].([]any)[1].(map[string]any)["k"])
	assert.Nil(t, WidgetDefinition{}.Clone().Schema)
}
