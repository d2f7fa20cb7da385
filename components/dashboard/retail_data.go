package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
)

// Metric names served by a MetricRepository.
const (
	MetricSalesValue    = "sales_value"
	MetricSalesVolume   = "sales_volume"
	MetricCustomerCount = "customer_count"
	MetricStoreCount    = "store_count"
	MetricOutOfStock    = "out_of_stock"
)

// Series names served by a SeriesRepository.
const (
	SeriesPriceTrend        = "price_trend"
	SeriesCustomerTrend     = "customer_trend"
	SeriesSalesByStoreType  = "sales_by_store_type"
	SeriesSalesDistribution = "sales_distribution"
	SeriesSalesByZone       = "sales_by_zone"
	SeriesPriceByZone       = "price_by_zone"
	SeriesZoneComparison    = "zone_comparison"
)

// SKU sets served by an SKURepository.
const (
	SKUSetTop      = "top"
	SKUSetDetailed = "detailed"
)

// Metric units.
const (
	UnitCurrency = "currency"
	UnitPercent  = "percent"
	UnitCount    = "count"
)

// ErrUnknownDataset is returned for a metric, series, or SKU set the source
// does not serve.
var ErrUnknownDataset = fmt.Errorf("dashboard: unknown dataset")

// DataFilters narrows provider queries to the active dashboard filters.
type DataFilters struct {
	StoreTypes []filters.StoreType
	Zones      []filters.LocationZone
	Brand      filters.Brand
	Period     filters.TimePeriod
	From       time.Time
	To         time.Time
}

// MetricQuery selects one headline number.
type MetricQuery struct {
	Metric  string
	Filters DataFilters
}

// MetricReport is a headline number with its change against the previous
// period. Change is nil when no comparison is available.
type MetricReport struct {
	Metric string
	Value  float64
	Change *float64
	Unit   string
}

// SeriesQuery selects a chart dataset.
type SeriesQuery struct {
	Series  string
	Filters DataFilters
}

// SeriesReport is a labelled set of series sharing one axis.
type SeriesReport struct {
	Labels   []string
	Series   []ChartSeries
	Currency bool
}

// SKUQuery selects SKU rows.
type SKUQuery struct {
	Set     string
	Limit   int
	Filters DataFilters
}

// SKURow is one product line.
type SKURow struct {
	SKU    string  `json:"sku"`
	Name   string  `json:"name"`
	Sales  float64 `json:"sales"`
	Volume float64 `json:"volume"`
	Share  float64 `json:"share"`
}

// HeatmapQuery selects geographic sales points.
type HeatmapQuery struct {
	Region  string
	Filters DataFilters
}

// HeatPoint is a sales value at a coordinate.
type HeatPoint struct {
	Lng   float64 `json:"lng"`
	Lat   float64 `json:"lat"`
	Value float64 `json:"value"`
}

// MetricRepository loads headline numbers.
type MetricRepository interface {
	FetchMetric(ctx context.Context, query MetricQuery) (MetricReport, error)
}

// SeriesRepository loads chart datasets.
type SeriesRepository interface {
	FetchSeries(ctx context.Context, query SeriesQuery) (SeriesReport, error)
}

// SKURepository loads product tables.
type SKURepository interface {
	FetchSKUs(ctx context.Context, query SKUQuery) ([]SKURow, error)
}

// HeatmapRepository loads geographic sales points.
type HeatmapRepository interface {
	FetchHeatmap(ctx context.Context, query HeatmapQuery) ([]HeatPoint, error)
}

// RetailSource serves every dataset the catalog needs.
type RetailSource interface {
	MetricRepository
	SeriesRepository
	SKURepository
	HeatmapRepository
}

// DemoRetailSource serves fixed demo data. Store type and zone filters are
// applied where the dataset is broken down by them.
type DemoRetailSource struct{}

var _ RetailSource = DemoRetailSource{}

func change(v float64) *float64 { return &v }

var demoMetrics = map[string]MetricReport{
	MetricSalesValue:    {Metric: MetricSalesValue, Value: 2300000, Change: change(5.2), Unit: UnitCurrency},
	MetricSalesVolume:   {Metric: MetricSalesVolume, Value: 120000, Change: change(3.2), Unit: UnitCount},
	MetricCustomerCount: {Metric: MetricCustomerCount, Value: 12500, Unit: UnitCount},
	MetricStoreCount:    {Metric: MetricStoreCount, Value: 1250, Change: change(2.5), Unit: UnitCount},
	MetricOutOfStock:    {Metric: MetricOutOfStock, Value: 8.5, Change: change(-1.2), Unit: UnitPercent},
}

var demoWeeks = []string{"Week 1", "Week 2", "Week 3", "Week 4", "This Week"}

var demoMonths = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun"}

var demoZoneOrder = []filters.LocationZone{
	filters.ZoneNorth, filters.ZoneSouth, filters.ZoneEast, filters.ZoneWest, filters.ZoneCentral,
}

var demoZoneSales = map[filters.LocationZone][]float64{
	filters.ZoneNorth:   {1200000, 1300000, 1150000, 1400000, 1350000, 1500000},
	filters.ZoneSouth:   {980000, 1050000, 920000, 1120000, 1080000, 1200000},
	filters.ZoneEast:    {850000, 900000, 780000, 950000, 920000, 1000000},
	filters.ZoneWest:    {750000, 800000, 720000, 850000, 820000, 900000},
	filters.ZoneCentral: {920000, 950000, 880000, 1000000, 970000, 1100000},
}

var demoZonePrices = map[filters.LocationZone][]float64{
	filters.ZoneNorth:   {4.50, 4.75, 4.65, 4.90, 4.85, 5.10},
	filters.ZoneSouth:   {4.30, 4.55, 4.45, 4.70, 4.65, 4.90},
	filters.ZoneEast:    {4.20, 4.45, 4.35, 4.60, 4.55, 4.80},
	filters.ZoneWest:    {4.10, 4.35, 4.25, 4.50, 4.45, 4.70},
	filters.ZoneCentral: {4.60, 4.85, 4.75, 5.00, 4.95, 5.20},
}

var demoStoreTypeSales = []ChartPoint{
	{Label: string(filters.StoreHypermarket), Value: 1250000},
	{Label: string(filters.StoreSupermarket), Value: 850000},
	{Label: string(filters.StoreConvenience), Value: 450000},
}

var demoZoneDistribution = []ChartPoint{
	{Label: string(filters.ZoneNorth), Value: 850000},
	{Label: string(filters.ZoneSouth), Value: 650000},
	{Label: string(filters.ZoneEast), Value: 450000},
	{Label: string(filters.ZoneWest), Value: 350000},
	{Label: string(filters.ZoneCentral), Value: 250000},
}

var demoTopSKUs = []SKURow{
	{SKU: "SKU001", Name: "Product A", Sales: 1250000, Volume: 25000, Share: 15},
	{SKU: "SKU002", Name: "Product B", Sales: 980000, Volume: 19600, Share: 12},
	{SKU: "SKU003", Name: "Product C", Sales: 850000, Volume: 17000, Share: 10},
	{SKU: "SKU004", Name: "Product D", Sales: 720000, Volume: 14400, Share: 9},
	{SKU: "SKU005", Name: "Product E", Sales: 650000, Volume: 13000, Share: 8},
}

var demoDetailedSKUs = []SKURow{
	{SKU: "COLA-330ML", Name: "Cola 330ml", Sales: 125000, Volume: 45000, Share: 15.5},
	{SKU: "WATER-500ML", Name: "Water 500ml", Sales: 98000, Volume: 65000, Share: 12.2},
	{SKU: "JUICE-1L", Name: "Orange Juice 1L", Sales: 85000, Volume: 28000, Share: 10.5},
	{SKU: "ENERGY-250ML", Name: "Energy Drink 250ml", Sales: 75000, Volume: 32000, Share: 9.3},
	{SKU: "TEA-500ML", Name: "Iced Tea 500ml", Sales: 65000, Volume: 25000, Share: 8.1},
	{SKU: "SODA-355ML", Name: "Lemon Soda 355ml", Sales: 58000, Volume: 22000, Share: 7.2},
	{SKU: "COFFEE-250ML", Name: "Cold Brew Coffee 250ml", Sales: 52000, Volume: 19000, Share: 6.5},
	{SKU: "SPORTS-500ML", Name: "Sports Drink 500ml", Sales: 48000, Volume: 18000, Share: 6.0},
	{SKU: "MILK-1L", Name: "Fresh Milk 1L", Sales: 45000, Volume: 15000, Share: 5.6},
	{SKU: "YOGURT-200ML", Name: "Yogurt Drink 200ml", Sales: 42000, Volume: 20000, Share: 5.2},
}

var demoRiyadhPoints = []HeatPoint{
	{Lng: 46.6753, Lat: 24.7136, Value: 2500000},
	{Lng: 46.6833, Lat: 24.6500, Value: 2200000},
	{Lng: 46.7000, Lat: 24.6500, Value: 1800000},
	{Lng: 46.6500, Lat: 24.7000, Value: 1500000},
	{Lng: 46.7500, Lat: 24.7500, Value: 1200000},
	{Lng: 46.7800, Lat: 24.7800, Value: 900000},
	{Lng: 46.7200, Lat: 24.7200, Value: 1100000},
	{Lng: 46.6800, Lat: 24.7800, Value: 800000},
	{Lng: 46.8000, Lat: 24.6500, Value: 1300000},
	{Lng: 46.8500, Lat: 24.6800, Value: 950000},
	{Lng: 46.8200, Lat: 24.6200, Value: 850000},
	{Lng: 46.7800, Lat: 24.5800, Value: 750000},
	{Lng: 46.6500, Lat: 24.5800, Value: 1400000},
	{Lng: 46.6000, Lat: 24.6200, Value: 1000000},
	{Lng: 46.5500, Lat: 24.6500, Value: 850000},
	{Lng: 46.5000, Lat: 24.6800, Value: 700000},
	{Lng: 46.5800, Lat: 24.7500, Value: 1600000},
	{Lng: 46.5500, Lat: 24.7800, Value: 1200000},
	{Lng: 46.5200, Lat: 24.7200, Value: 950000},
	{Lng: 46.5000, Lat: 24.6500, Value: 800000},
	{Lng: 46.7200, Lat: 24.5800, Value: 1100000},
	{Lng: 46.6800, Lat: 24.6200, Value: 1300000},
	{Lng: 46.6500, Lat: 24.7800, Value: 900000},
	{Lng: 46.6200, Lat: 24.7200, Value: 750000},
}

// FetchMetric returns the demo headline number.
func (DemoRetailSource) FetchMetric(ctx context.Context, query MetricQuery) (MetricReport, error) {
	if err := ctx.Err(); err != nil {
		return MetricReport{}, err
	}
	report, ok := demoMetrics[query.Metric]
	if !ok {
		return MetricReport{}, fmt.Errorf("%w: metric %q", ErrUnknownDataset, query.Metric)
	}
	if report.Change != nil {
		report.Change = change(*report.Change)
	}
	return report, nil
}

// FetchSeries returns the demo dataset.
func (DemoRetailSource) FetchSeries(ctx context.Context, query SeriesQuery) (SeriesReport, error) {
	if err := ctx.Err(); err != nil {
		return SeriesReport{}, err
	}
	f := query.Filters
	switch query.Series {
	case SeriesPriceTrend:
		return singleSeries("Average Price", demoWeeks, []float64{4.50, 4.75, 4.65, 4.90, 5.10}, true), nil
	case SeriesCustomerTrend:
		return singleSeries("Customers", demoWeeks, []float64{24500, 22800, 27300, 28900, 31250}, false), nil
	case SeriesSalesByStoreType:
		points := make([]ChartPoint, 0, len(demoStoreTypeSales))
		for _, p := range demoStoreTypeSales {
			if filters.Matches(f.StoreTypes, filters.StoreType(p.Label)) {
				points = append(points, p)
			}
		}
		return pointsReport("Sales", points), nil
	case SeriesSalesDistribution:
		points := make([]ChartPoint, 0, len(demoZoneDistribution))
		for _, p := range demoZoneDistribution {
			if filters.Matches(f.Zones, filters.LocationZone(p.Label)) {
				points = append(points, p)
			}
		}
		return pointsReport("Sales", points), nil
	case SeriesSalesByZone:
		return zoneSeries(f.Zones, demoZoneSales, true), nil
	case SeriesPriceByZone:
		return zoneSeries(f.Zones, demoZonePrices, true), nil
	case SeriesZoneComparison:
		points := make([]ChartPoint, 0, len(demoZoneOrder))
		for _, zone := range demoZoneOrder {
			var total float64
			for _, v := range demoZoneSales[zone] {
				total += v
			}
			points = append(points, ChartPoint{Label: string(zone), Value: total})
		}
		report := pointsReport("Total Sales", points)
		report.Currency = true
		return report, nil
	default:
		return SeriesReport{}, fmt.Errorf("%w: series %q", ErrUnknownDataset, query.Series)
	}
}

// FetchSKUs returns the demo SKU rows, truncated to Limit when set.
func (DemoRetailSource) FetchSKUs(ctx context.Context, query SKUQuery) ([]SKURow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rows []SKURow
	switch query.Set {
	case SKUSetTop, "":
		rows = demoTopSKUs
	case SKUSetDetailed:
		rows = demoDetailedSKUs
	default:
		return nil, fmt.Errorf("%w: sku set %q", ErrUnknownDataset, query.Set)
	}
	if query.Limit > 0 && query.Limit < len(rows) {
		rows = rows[:query.Limit]
	}
	return append([]SKURow(nil), rows...), nil
}

// FetchHeatmap returns the Riyadh sales points.
func (DemoRetailSource) FetchHeatmap(ctx context.Context, _ HeatmapQuery) ([]HeatPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]HeatPoint(nil), demoRiyadhPoints...), nil
}

func singleSeries(name string, labels []string, values []float64, currency bool) SeriesReport {
	points := make([]ChartPoint, len(values))
	for i, v := range values {
		points[i] = ChartPoint{Label: labels[i], Value: v}
	}
	return SeriesReport{
		Labels:   append([]string(nil), labels...),
		Series:   []ChartSeries{{Name: name, Points: points}},
		Currency: currency,
	}
}

func pointsReport(name string, points []ChartPoint) SeriesReport {
	if len(points) == 0 {
		return SeriesReport{}
	}
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	return SeriesReport{Labels: labels, Series: []ChartSeries{{Name: name, Points: points}}}
}

func zoneSeries(selection []filters.LocationZone, values map[filters.LocationZone][]float64, currency bool) SeriesReport {
	report := SeriesReport{Labels: append([]string(nil), demoMonths...), Currency: currency}
	for _, zone := range demoZoneOrder {
		if !filters.Matches(selection, zone) {
			continue
		}
		points := make([]ChartPoint, len(demoMonths))
		for i, month := range demoMonths {
			points[i] = ChartPoint{Label: month, Value: values[zone][i]}
		}
		report.Series = append(report.Series, ChartSeries{Name: string(zone), Points: points})
	}
	return report
}
