package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"
)

// DefaultCategory is the product category the demo catalog reports on.
const DefaultCategory = "Beverages"

var performanceVisualizations = []string{
	VisualizationLine,
	VisualizationBar,
	VisualizationPie,
	VisualizationStep,
	VisualizationTable,
}

var performancePages = []Page{PagePerformance}

var defaultWidgetDefinitions = []WidgetDefinition{
	metricDefinition("sales-value-metric", "Sales Value", "قيمة المبيعات", "Total sales value for the selected period"),
	metricDefinition("sales-volume-metric", "Sales Volume", "حجم المبيعات", "Units sold in the selected period"),
	metricDefinition("customer-count-metric", "Customer Count", "عدد العملاء", "Distinct customers served"),
	metricDefinition("store-count-metric", "Store Count", "عدد المتاجر", "Stores reporting sales"),
	metricDefinition("out-of-stock-metric", "Out of Stock", "نفاد المخزون", "Share of SKUs out of stock"),
	chartDefinition("price-trend-chart", "Price Trend", "اتجاه الأسعار", "Average price over the last weeks", VisualizationStep),
	chartDefinition("customer-trend-chart", "Customer Trend", "اتجاه العملاء", "Customer count over the last weeks", VisualizationLine),
	chartDefinition("sales-by-store-chart", "Sales by Store Type", "المبيعات حسب نوع المتجر", "Sales split by store format", VisualizationBar),
	chartDefinition("sales-distribution-chart", "Sales Distribution", "توزيع المبيعات", "Sales split by Riyadh zone", VisualizationPie),
	{
		Code:          "top-skus-table",
		Name:          "Top SKUs",
		NameLocalized: map[string]string{"ar": "أفضل المنتجات"},
		Description:   "Best selling products",
		Kind:          KindTable,
		Category:      DefaultCategory,
		Pages:         performancePages,
		Wide:          true,
		Height:        2,
		Schema:        tableConfigSchema(),
	},
	{
		Code:          "riyadh-sales-heatmap",
		Name:          "Riyadh Sales Heatmap",
		NameLocalized: map[string]string{"ar": "خريطة مبيعات الرياض"},
		Description:   "Sales intensity across Riyadh",
		Kind:          KindMap,
		Category:      DefaultCategory,
		Pages:         performancePages,
		Height:        2,
	},
	{
		Code:                 "sales-chart",
		Name:                 "Sales Value Chart",
		NameLocalized:        map[string]string{"ar": "مخطط قيمة المبيعات"},
		Description:          "Monthly sales by zone",
		Kind:                 KindChart,
		Category:             DefaultCategory,
		Pages:                []Page{PageCharts},
		Height:               2,
		Visualizations:       []string{VisualizationStackedBar, VisualizationGroupedBar, VisualizationAreaChart},
		DefaultVisualization: VisualizationStackedBar,
		Schema:               visualizationSchema(VisualizationStackedBar, VisualizationGroupedBar, VisualizationAreaChart),
	},
	{
		Code:                 "price-chart",
		Name:                 "Average Price Chart",
		NameLocalized:        map[string]string{"ar": "مخطط متوسط السعر"},
		Description:          "Monthly average price by zone",
		Kind:                 KindChart,
		Category:             DefaultCategory,
		Pages:                []Page{PageCharts},
		Height:               2,
		Visualizations:       []string{VisualizationLine, VisualizationSpline, VisualizationColumn},
		DefaultVisualization: VisualizationLine,
		Schema:               visualizationSchema(VisualizationLine, VisualizationSpline, VisualizationColumn),
	},
	{
		Code:          "zone-comparison",
		Name:          "Zone Comparison",
		NameLocalized: map[string]string{"ar": "مقارنة المناطق"},
		Description:   "Half-year sales totals per zone",
		Kind:          KindChart,
		Category:      DefaultCategory,
		Pages:         []Page{PageCharts},
		Wide:          true,
		Height:        2,
	},
	{
		Code:                 "detailed-skus-table",
		Name:                 "Detailed SKUs Analysis",
		NameLocalized:        map[string]string{"ar": "تحليل تفصيلي للمنتجات"},
		Description:          "Advanced SKUs table with search, sorting, and CSV export",
		DescriptionLocalized: map[string]string{"ar": "جدول منتجات متقدم مع البحث والفرز والتصدير"},
		Kind:                 KindTable,
		Category:             DefaultCategory,
		Pages:                []Page{PagePerformance, PageCharts},
		Wide:                 true,
		Height:               2,
		Schema:               tableConfigSchema(),
	},
}

func metricDefinition(code, name, arName, description string) WidgetDefinition {
	return WidgetDefinition{
		Code:          code,
		Name:          name,
		NameLocalized: map[string]string{"ar": arName},
		Description:   description,
		Kind:          KindMetric,
		Category:      DefaultCategory,
		Pages:         performancePages,
		Height:        1,
	}
}

func chartDefinition(code, name, arName, description, visualization string) WidgetDefinition {
	return WidgetDefinition{
		Code:                 code,
		Name:                 name,
		NameLocalized:        map[string]string{"ar": arName},
		Description:          description,
		Kind:                 KindChart,
		Category:             DefaultCategory,
		Pages:                performancePages,
		Height:               2,
		Visualizations:       append([]string(nil), performanceVisualizations...),
		DefaultVisualization: visualization,
		Schema:               visualizationSchema(performanceVisualizations...),
	}
}

func visualizationSchema(choices ...string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"visualization": map[string]any{
				"type": "string",
				"enum": append([]string(nil), choices...),
			},
			"theme": themeSchema(),
		},
	}
}

func tableConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"search": map[string]any{"type": "string", "maxLength": 100},
			"sort_by": map[string]any{
				"type": "string",
				"enum": []string{"sku", "name", "sales", "volume", "share"},
			},
			"sort_dir": map[string]any{
				"type": "string",
				"enum": []string{string(SortAsc), string(SortDesc), string(SortNone)},
			},
		},
	}
}

func themeSchema() map[string]any {
	return map[string]any{
		"type": "string",
		"enum": []string{
			string(types.ThemeWesteros),
			string(types.ThemeWalden),
			string(types.ThemeWonderland),
			string(types.ThemeChalk),
		},
	}
}

// DefaultWidgetDefinitions returns a copy of the retail catalog.
func DefaultWidgetDefinitions() []WidgetDefinition {
	defs := make([]WidgetDefinition, len(defaultWidgetDefinitions))
	for i, def := range defaultWidgetDefinitions {
		defs[i] = def.Clone()
	}
	return defs
}
