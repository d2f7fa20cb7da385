package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

const (
	ChartsKey     = "highcharts-performance-state"
	ChartsVersion = 1
	// DefaultSettleDelay is the simulated chart reload after a filter change.
	DefaultSettleDelay = 500 * time.Millisecond
)

// ErrInvalidChartType rejects visualization values outside the allowed set.
var ErrInvalidChartType = errors.New("state: invalid chart type")

// DefaultChartWidgets are shown on a fresh charts page.
var DefaultChartWidgets = []string{"sales-chart", "price-chart"}

// SalesChartType is the visualization of the sales chart.
type SalesChartType string

const (
	SalesStackedBar SalesChartType = "stackedBar"
	SalesGroupedBar SalesChartType = "groupedBar"
	SalesAreaChart  SalesChartType = "areaChart"
)

// Valid reports whether t is a known sales visualization.
func (t SalesChartType) Valid() bool {
	switch t {
	case SalesStackedBar, SalesGroupedBar, SalesAreaChart:
		return true
	}
	return false
}

// PriceChartType is the visualization of the price chart.
type PriceChartType string

const (
	PriceLine   PriceChartType = "line"
	PriceSpline PriceChartType = "spline"
	PriceColumn PriceChartType = "column"
)

// Valid reports whether t is a known price visualization.
func (t PriceChartType) Valid() bool {
	switch t {
	case PriceLine, PriceSpline, PriceColumn:
		return true
	}
	return false
}

// CustomDateRange is the charts page custom window and its picker state.
type CustomDateRange struct {
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	IsOpen bool      `json:"isOpen"`
}

// ChartFilters are the persisted charts page filters.
type ChartFilters struct {
	SelectedZone       filters.LocationZone `json:"selectedZone"`
	SelectedBrand      filters.Brand        `json:"selectedBrand"`
	SelectedTimePeriod filters.TimePeriod   `json:"selectedTimePeriod"`
	CustomDateRange    CustomDateRange      `json:"customDateRange"`
}

// ChartTypes holds the chosen visualization per chart.
type ChartTypes struct {
	Sales SalesChartType `json:"sales"`
	Price PriceChartType `json:"price"`
}

// ChartsState is the persisted charts dashboard.
type ChartsState struct {
	Filters    ChartFilters `json:"filters"`
	ChartTypes ChartTypes   `json:"chartTypes"`
	Widgets    []string     `json:"widgets"`
	IsLoading  bool         `json:"isLoading"`
	Version    int          `json:"version"`
}

// DefaultChartsState returns a fresh charts state with a 30 day custom range
// ending at now.
func DefaultChartsState(now time.Time) ChartsState {
	now = now.UTC()
	return ChartsState{
		Filters: ChartFilters{
			SelectedZone:       filters.ZoneAll,
			SelectedBrand:      filters.BrandAll,
			SelectedTimePeriod: filters.Monthly,
			CustomDateRange: CustomDateRange{
				From: now.AddDate(0, 0, -30),
				To:   now,
			},
		},
		ChartTypes: ChartTypes{Sales: SalesStackedBar, Price: PriceLine},
		Widgets:    append([]string(nil), DefaultChartWidgets...),
		Version:    ChartsVersion,
	}
}

// Clone deep-copies the state.
func (s ChartsState) Clone() ChartsState {
	s.Widgets = append([]string(nil), s.Widgets...)
	return s
}

// merge applies patch over r. Zero bounds in patch keep the current ones.
func (r CustomDateRange) merge(patch CustomDateRange) CustomDateRange {
	out := CustomDateRange{From: r.From, To: r.To, IsOpen: patch.IsOpen}
	if !patch.From.IsZero() {
		out.From = patch.From.UTC()
	}
	if !patch.To.IsZero() {
		out.To = patch.To.UTC()
	}
	return out
}

func checkChartFilters(zone filters.LocationZone, brand filters.Brand, period filters.TimePeriod) error {
	if !zone.Valid() {
		return fmt.Errorf("%w: location zone %q", filters.ErrUnknownValue, zone)
	}
	if !brand.Valid() {
		return fmt.Errorf("%w: brand %q", filters.ErrUnknownValue, brand)
	}
	if !period.Valid() {
		return fmt.Errorf("%w: time period %q", filters.ErrUnknownValue, period)
	}
	return nil
}

func rehydrateCharts(s *ChartsState) error {
	if !s.ChartTypes.Sales.Valid() || !s.ChartTypes.Price.Valid() {
		return fmt.Errorf("%w: %q/%q", ErrInvalidChartType, s.ChartTypes.Sales, s.ChartTypes.Price)
	}
	if !s.Filters.SelectedTimePeriod.Valid() {
		return fmt.Errorf("state: invalid time period %q", s.Filters.SelectedTimePeriod)
	}
	if s.Filters.SelectedZone == "" {
		s.Filters.SelectedZone = filters.ZoneAll
	}
	if s.Filters.SelectedBrand == "" {
		s.Filters.SelectedBrand = filters.BrandAll
	}
	if err := checkChartFilters(s.Filters.SelectedZone, s.Filters.SelectedBrand, s.Filters.SelectedTimePeriod); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	s.Filters.CustomDateRange.From = s.Filters.CustomDateRange.From.UTC()
	s.Filters.CustomDateRange.To = s.Filters.CustomDateRange.To.UTC()
	s.Widgets = UniqueWidgets(s.Widgets)
	if len(s.Widgets) == 0 {
		s.Widgets = append([]string(nil), DefaultChartWidgets...)
	}
	// a reload never resumes a simulated fetch
	s.IsLoading = false
	return nil
}

// ChartFilterPatch is a partial filter update; nil fields are unchanged.
type ChartFilterPatch struct {
	SelectedZone       *filters.LocationZone `json:"selectedZone,omitempty"`
	SelectedBrand      *filters.Brand        `json:"selectedBrand,omitempty"`
	SelectedTimePeriod *filters.TimePeriod   `json:"selectedTimePeriod,omitempty"`
	CustomDateRange    *CustomDateRange      `json:"customDateRange,omitempty"`
}

// ChartTypesPatch is a partial visualization update.
type ChartTypesPatch struct {
	Sales *SalesChartType `json:"sales,omitempty"`
	Price *PriceChartType `json:"price,omitempty"`
}

func (patch ChartFilterPatch) check() error {
	zone, brand, period := filters.LocationZone(filters.All), filters.Brand(filters.All), filters.Weekly
	if patch.SelectedZone != nil {
		zone = *patch.SelectedZone
	}
	if patch.SelectedBrand != nil {
		brand = *patch.SelectedBrand
	}
	if patch.SelectedTimePeriod != nil {
		period = *patch.SelectedTimePeriod
	}
	return checkChartFilters(zone, brand, period)
}

// ChartsStore is the persisted charts page state. Filter changes start a
// simulated reload whose timer is owned by the store.
type ChartsStore struct {
	store  *persist.Store[ChartsState]
	opts   Options
	settle time.Duration

	mu     sync.Mutex
	timer  persist.Timer
	seq    uint64
	closed bool
}

// NewChartsStore wires the charts state to its backend.
func NewChartsStore(opts Options) (*ChartsStore, error) {
	opts = opts.normalize()
	clock := opts.Clock
	store, err := persist.NewStore(persist.Options[ChartsState]{
		Key:       ChartsKey,
		Version:   ChartsVersion,
		Default:   func() ChartsState { return DefaultChartsState(clock.Now()) },
		Rehydrate: rehydrateCharts,
		Clone:     ChartsState.Clone,
		Debounce:  opts.Debounce,
		Backend:   opts.Backend,
		Clock:     opts.Clock,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &ChartsStore{store: store, opts: opts, settle: DefaultSettleDelay}, nil
}

// Load reads persisted state on first use.
func (c *ChartsStore) Load(ctx context.Context) ChartsState { return c.store.Load(ctx) }

// State returns the current state.
func (c *ChartsStore) State() ChartsState { return c.store.State() }

// Degraded reports whether persistence is failing.
func (c *ChartsStore) Degraded() bool { return c.store.Degraded() }

// UpdateFilters merges the set fields of patch and starts a reload that
// settles after DefaultSettleDelay with an update notice.
func (c *ChartsStore) UpdateFilters(ctx context.Context, patch ChartFilterPatch) (ChartsState, error) {
	if err := patch.check(); err != nil {
		c.opts.Logger.Error("rejected chart filter update", "error", err)
		return c.store.State(), err
	}
	out, err := c.store.Update(func(s *ChartsState) error {
		if patch.CustomDateRange != nil {
			window := s.Filters.CustomDateRange.merge(*patch.CustomDateRange)
			if err := filters.ValidateCustomRange(window.From, window.To, filters.MaxCustomRangeDays); err != nil {
				return err
			}
			s.Filters.CustomDateRange = window
		}
		if patch.SelectedZone != nil {
			s.Filters.SelectedZone = *patch.SelectedZone
		}
		if patch.SelectedBrand != nil {
			s.Filters.SelectedBrand = *patch.SelectedBrand
		}
		if patch.SelectedTimePeriod != nil {
			s.Filters.SelectedTimePeriod = *patch.SelectedTimePeriod
		}
		s.IsLoading = true
		return nil
	})
	if err != nil {
		c.opts.Logger.Error("rejected chart filter update", "error", err)
		return out, err
	}
	message := fmt.Sprintf("Updated %s view for %s", out.Filters.SelectedTimePeriod, zoneLabel(out.Filters.SelectedZone))
	bg := context.WithoutCancel(ctx)
	c.scheduleSettle(func() {
		notify.Success(bg, c.opts.Notifier, "", message)
	})
	return out, nil
}

func zoneLabel(zone filters.LocationZone) string {
	if string(zone) == filters.All {
		return "all zones"
	}
	return string(zone)
}

// SetCustomRange validates and applies a custom window, switching the
// period to Custom and closing the picker.
func (c *ChartsStore) SetCustomRange(ctx context.Context, from, to time.Time) (ChartsState, error) {
	if err := filters.ValidateCustomRange(from, to, filters.MaxCustomRangeDays); err != nil {
		switch {
		case errors.Is(err, filters.ErrRangeInverted):
			notify.Error(ctx, c.opts.Notifier, "Invalid date range", "Start date cannot be after end date")
		case errors.Is(err, filters.ErrRangeTooLong):
			notify.Error(ctx, c.opts.Notifier, "Invalid date range",
				fmt.Sprintf("Date range cannot exceed %d days", filters.MaxCustomRangeDays))
		}
		c.opts.Logger.Error("rejected custom range", "error", err)
		return c.store.State(), err
	}
	out, err := c.store.Update(func(s *ChartsState) error {
		s.Filters.SelectedTimePeriod = filters.Custom
		s.Filters.CustomDateRange = CustomDateRange{From: from.UTC(), To: to.UTC()}
		return nil
	})
	if err != nil {
		return out, err
	}
	notify.Success(ctx, c.opts.Notifier, "", fmt.Sprintf("Applied custom date range (%d days, %s granularity)",
		filters.Days(from, to), filters.Granularity(from, to)))
	return out, nil
}

// SetPickerOpen toggles the custom range picker without touching the range.
func (c *ChartsStore) SetPickerOpen(open bool) ChartsState {
	out, _ := c.store.Update(func(s *ChartsState) error {
		s.Filters.CustomDateRange.IsOpen = open
		return nil
	})
	return out
}

// UpdateChartTypes switches visualizations. Unknown values are rejected
// with ErrInvalidChartType and the previous state is kept.
func (c *ChartsStore) UpdateChartTypes(ctx context.Context, patch ChartTypesPatch) (ChartsState, error) {
	var err error
	switch {
	case patch.Sales != nil && !patch.Sales.Valid():
		err = fmt.Errorf("%w: sales %q", ErrInvalidChartType, *patch.Sales)
	case patch.Price != nil && !patch.Price.Valid():
		err = fmt.Errorf("%w: price %q", ErrInvalidChartType, *patch.Price)
	}
	if err != nil {
		c.opts.Logger.Error("chart type update rejected", "error", err)
		notify.Error(ctx, c.opts.Notifier, "Error", "Failed to update chart visualization")
		return c.store.State(), err
	}
	return c.store.Update(func(s *ChartsState) error {
		if patch.Sales != nil {
			s.ChartTypes.Sales = *patch.Sales
		}
		if patch.Price != nil {
			s.ChartTypes.Price = *patch.Price
		}
		return nil
	})
}

// UpdateWidgets replaces the widget list.
func (c *ChartsStore) UpdateWidgets(widgets []string) (ChartsState, error) {
	widgets = UniqueWidgets(widgets)
	if len(widgets) == 0 {
		return c.store.State(), ErrLastWidget
	}
	return c.store.Update(func(s *ChartsState) error {
		s.Widgets = widgets
		return nil
	})
}

// HasWidget reports whether id is on the charts page.
func (c *ChartsStore) HasWidget(id string) bool {
	return containsWidget(c.store.State().Widgets, id)
}

// ToggleWidget adds or removes a widget; the last one cannot be removed.
func (c *ChartsStore) ToggleWidget(ctx context.Context, id string) (ChartsState, error) {
	if id == "" {
		return c.store.State(), ErrUnknownWidget
	}
	if c.opts.Sizer != nil {
		if _, ok := c.opts.Sizer.WidgetSize(id); !ok {
			return c.store.State(), fmt.Errorf("%w: %s", ErrUnknownWidget, id)
		}
	}
	var added bool
	out, err := c.store.Update(func(s *ChartsState) error {
		next, add, err := ToggleWidget(s.Widgets, id)
		if err != nil {
			return err
		}
		added = add
		s.Widgets = next
		return nil
	})
	if err != nil {
		notify.Error(ctx, c.opts.Notifier, "Cannot remove widget", "You must keep at least one widget on the dashboard")
		return out, err
	}
	verb := "Removed"
	if added {
		verb = "Added"
	}
	notify.Success(ctx, c.opts.Notifier, "", fmt.Sprintf("%s %s widget", verb, c.opts.Names(id)))
	return out, nil
}

// SetLoading sets the loading flag directly.
func (c *ChartsStore) SetLoading(loading bool) ChartsState {
	out, _ := c.store.Update(func(s *ChartsState) error {
		s.IsLoading = loading
		return nil
	})
	return out
}

// ResetFilters restores default filters and keeps widgets and chart types.
func (c *ChartsStore) ResetFilters(ctx context.Context) ChartsState {
	def := DefaultChartsState(c.opts.Clock.Now())
	out, _ := c.store.Update(func(s *ChartsState) error {
		s.Filters = def.Filters
		return nil
	})
	notify.Info(ctx, c.opts.Notifier, "", "Filters reset to default values")
	return out
}

// Reset restores the default state and clears stored state.
func (c *ChartsStore) Reset(ctx context.Context) (ChartsState, error) {
	c.cancelSettle()
	out, err := c.store.Reset(ctx)
	notify.Info(ctx, c.opts.Notifier, "Dashboard Reset", "Dashboard has been reset to default settings")
	return out, err
}

// Flush writes pending changes now.
func (c *ChartsStore) Flush(ctx context.Context) error { return c.store.Flush(ctx) }

// Subscribe streams state changes.
func (c *ChartsStore) Subscribe() (<-chan ChartsState, func()) { return c.store.Subscribe() }

// Close cancels the pending reload and stops persistence.
func (c *ChartsStore) Close() {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.store.Close()
}

func (c *ChartsStore) scheduleSettle(done func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.seq++
	seq := c.seq
	c.timer = c.opts.Clock.AfterFunc(c.settle, func() {
		c.mu.Lock()
		if c.closed || seq != c.seq {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()
		c.SetLoading(false)
		done()
	})
}

func (c *ChartsStore) cancelSettle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
