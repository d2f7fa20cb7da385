package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/insights"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
	"github.com/goliatone/go-retail-dashboard/pkg/activity"
)

var (
	ErrUnknownPage          = errors.New("dashboard: unknown page")
	ErrUnknownWidget        = state.ErrUnknownWidget
	ErrNoCategoryAccess     = errors.New("dashboard: no access")
	ErrInvalidVisualization = errors.New("dashboard: invalid visualization")
	ErrNotExportable        = errors.New("dashboard: widget has no exportable data")
	ErrLayoutsUnsupported   = errors.New("dashboard: page has no editable layout")

	errMissingPageState = errors.New("dashboard: page state not configured")
	errMissingInsights  = errors.New("dashboard: insights panel not configured")
	errMissingLocale    = errors.New("dashboard: locale state not configured")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface or explicit holder so applications can swap implementations.
type Options struct {
	Providers       ProviderRegistry
	Authorizer      Authorizer
	PreferenceStore PreferenceStore
	ConfigValidator ConfigValidator
	RefreshHook     RefreshHook
	Telemetry       Telemetry
	Translator      TranslationService
	Notifier        notify.Notifier
	Logger          *slog.Logger

	Performance *state.PerformanceStore
	Charts      *state.ChartsStore
	Filters     *filters.Holder
	Insights    *insights.Panel
	Locale      *locale.State
	Clock       func() time.Time

	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
}

// Service orchestrates the retail dashboard pages on top of their persisted
// state.
type Service struct {
	opts     Options
	activity *activity.Emitter
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Authorizer == nil {
		opts.Authorizer = CategoryAuthorizer{}
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Providers == nil {
		opts.Providers = NewRegistry()
	}
	if opts.ConfigValidator == nil {
		opts.ConfigValidator = NewJSONSchemaValidator()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	if opts.PreferenceStore == nil {
		opts.PreferenceStore = NewInMemoryPreferenceStore()
	}
	opts.Notifier = notify.Normalize(opts.Notifier)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		opts:     opts,
		activity: activity.NewEmitter(opts.ActivityHooks, opts.ActivityConfig),
	}
}

// Registry exposes the provider registry.
func (s *Service) Registry() ProviderRegistry { return s.opts.Providers }

// Performance exposes the performance page state.
func (s *Service) Performance() *state.PerformanceStore { return s.opts.Performance }

// Charts exposes the charts page state.
func (s *Service) Charts() *state.ChartsStore { return s.opts.Charts }

// Filters exposes the data filter holder.
func (s *Service) Filters() *filters.Holder { return s.opts.Filters }

// Insights exposes the AI panel.
func (s *Service) Insights() *insights.Panel { return s.opts.Insights }

// Locale exposes the locale holder.
func (s *Service) Locale() *locale.State { return s.opts.Locale }

// ConfigurePage resolves the persisted widget list of page into widget
// instances with provider data, layouts, filters, and the add-widget catalog.
func (s *Service) ConfigurePage(ctx context.Context, viewer ViewerContext, page Page) (PageLayout, error) {
	if !page.Valid() {
		return PageLayout{}, ErrUnknownPage
	}
	view, err := s.pageView(ctx, page)
	if err != nil {
		return PageLayout{}, err
	}
	prefs, err := s.opts.PreferenceStore.WidgetConfig(ctx, viewer, page)
	if err != nil {
		return PageLayout{}, err
	}
	layout := PageLayout{
		Page:    page,
		Widgets: make([]WidgetInstance, 0, len(view.widgets)),
		Layouts: view.layouts,
		Filters: view.filters,
		Loading: view.loading,
		Quality: view.quality,
	}
	for _, id := range view.widgets {
		inst, ok := s.instanceFor(ctx, viewer, page, id, view, prefs)
		if !ok {
			continue
		}
		layout.Widgets = append(layout.Widgets, s.attachProviderData(ctx, viewer, view, inst))
	}
	if len(layout.Layouts) == 0 {
		layout.Layouts = state.GenerateLayouts(view.widgets, pageSizer(s.opts.Providers, page))
	}
	for _, def := range definitionsForPage(s.opts.Providers, page) {
		if !s.opts.Authorizer.CanViewWidget(ctx, viewer, def) {
			continue
		}
		layout.Catalog = append(layout.Catalog, CatalogEntry{
			Code:        def.Code,
			Name:        def.NameForLocale(viewer.Locale),
			Description: def.DescriptionForLocale(viewer.Locale),
			Kind:        def.Kind,
			Active:      containsString(view.widgets, def.Code),
		})
	}
	s.recordTelemetry(ctx, "dashboard.page.resolve", map[string]any{
		"viewer":  viewer.UserID,
		"page":    string(page),
		"widgets": len(layout.Widgets),
	})
	return layout, nil
}

// ResolveWidget resolves a single widget of page for the viewer.
func (s *Service) ResolveWidget(ctx context.Context, viewer ViewerContext, page Page, widgetID string) (WidgetInstance, error) {
	def, err := s.authorizedDefinition(ctx, viewer, page, widgetID)
	if err != nil {
		return WidgetInstance{}, err
	}
	view, err := s.pageView(ctx, page)
	if err != nil {
		return WidgetInstance{}, err
	}
	prefs, err := s.opts.PreferenceStore.WidgetConfig(ctx, viewer, page)
	if err != nil {
		return WidgetInstance{}, err
	}
	inst := s.newInstance(viewer, page, def, view, prefs)
	return s.attachProviderData(ctx, viewer, view, inst), nil
}

// ToggleWidget adds or removes a widget from page and returns the new list.
// Removing the last widget fails with state.ErrLastWidget.
func (s *Service) ToggleWidget(ctx context.Context, viewer ViewerContext, page Page, widgetID string) ([]string, error) {
	var (
		widgets []string
		err     error
	)
	switch page {
	case PagePerformance:
		if s.opts.Performance == nil {
			return nil, errMissingPageState
		}
		var st state.PerformanceState
		st, err = s.opts.Performance.ToggleWidget(ctx, widgetID)
		widgets = st.UserWidgets
	case PageCharts:
		if s.opts.Charts == nil {
			return nil, errMissingPageState
		}
		var st state.ChartsState
		st, err = s.opts.Charts.ToggleWidget(ctx, widgetID)
		widgets = st.Widgets
	default:
		return nil, ErrUnknownPage
	}
	if err != nil {
		return widgets, err
	}
	active := containsString(widgets, widgetID)
	s.emitActivity(ctx, viewer, activity.VerbWidgetToggle, widgetID, map[string]any{
		"page":   string(page),
		"active": active,
	})
	s.recordTelemetry(ctx, "dashboard.widget.toggle", map[string]any{
		"page":      string(page),
		"widget_id": widgetID,
		"active":    active,
	})
	return widgets, s.NotifyWidgetUpdated(ctx, WidgetEvent{
		Page:     page,
		WidgetID: widgetID,
		Reason:   ReasonToggle,
		Payload:  map[string]any{"active": active, "widgets": widgets},
	})
}

// ChangeVisualization switches how a chart widget renders. Values outside the
// widget's schema are logged and rejected; the prior choice is kept.
func (s *Service) ChangeVisualization(ctx context.Context, viewer ViewerContext, page Page, widgetID, visualization string) error {
	def, err := s.authorizedDefinition(ctx, viewer, page, widgetID)
	if err != nil {
		return err
	}
	if err := s.validateVisualization(def, visualization); err != nil {
		s.opts.Logger.Error("rejected visualization change", "widget", widgetID, "visualization", visualization, "error", err)
		return err
	}
	switch {
	case page == PageCharts && (widgetID == "sales-chart" || widgetID == "price-chart"):
		if s.opts.Charts == nil {
			return errMissingPageState
		}
		patch := state.ChartTypesPatch{}
		if widgetID == "sales-chart" {
			v := state.SalesChartType(visualization)
			patch.Sales = &v
		} else {
			v := state.PriceChartType(visualization)
			patch.Price = &v
		}
		if _, err := s.opts.Charts.UpdateChartTypes(ctx, patch); err != nil {
			return err
		}
	default:
		if err := s.opts.PreferenceStore.SaveWidgetConfig(ctx, viewer, page, widgetID, map[string]any{"visualization": visualization}); err != nil {
			return err
		}
	}
	title := def.NameForLocale(viewer.Locale)
	notify.Info(ctx, s.opts.Notifier, "", s.translate(ctx, viewer, "notices.visualization_changed",
		fmt.Sprintf("Changed %s visualization to %s", title, visualization),
		map[string]any{"title": title, "type": visualization}))
	s.emitActivity(ctx, viewer, activity.VerbVisualizationChange, widgetID, map[string]any{
		"page":          string(page),
		"visualization": visualization,
	})
	s.recordTelemetry(ctx, "dashboard.widget.visualization", map[string]any{
		"widget_id":     widgetID,
		"visualization": visualization,
	})
	return s.NotifyWidgetUpdated(ctx, WidgetEvent{
		Page:     page,
		WidgetID: widgetID,
		Reason:   ReasonVisualization,
		Payload:  map[string]any{"visualization": visualization},
	})
}

// ConfigureWidget merges schema-validated configuration (table search and
// sort, chart theme) into the viewer's preferences for the widget.
func (s *Service) ConfigureWidget(ctx context.Context, viewer ViewerContext, page Page, widgetID string, config map[string]any) error {
	def, err := s.authorizedDefinition(ctx, viewer, page, widgetID)
	if err != nil {
		return err
	}
	if err := s.opts.ConfigValidator.Validate(def, config); err != nil {
		s.opts.Logger.Error("rejected widget configuration", "widget", widgetID, "error", err)
		return err
	}
	if err := s.opts.PreferenceStore.SaveWidgetConfig(ctx, viewer, page, widgetID, config); err != nil {
		return err
	}
	return s.NotifyWidgetUpdated(ctx, WidgetEvent{
		Page:     page,
		WidgetID: widgetID,
		Reason:   ReasonState,
		Payload:  map[string]any{"configuration": maps.Clone(config)},
	})
}

// ExportCSV writes the widget's data table to w as CSV.
func (s *Service) ExportCSV(ctx context.Context, viewer ViewerContext, page Page, widgetID string, w io.Writer) error {
	inst, err := s.ResolveWidget(ctx, viewer, page, widgetID)
	if err != nil {
		return err
	}
	notify.Success(ctx, s.opts.Notifier, "", s.translate(ctx, viewer, "notices.downloading_csv",
		fmt.Sprintf("Downloading %s as CSV", inst.Name), map[string]any{"title": inst.Name}))
	data, _ := inst.Metadata["data"].(WidgetData)
	table, ok := data.Table()
	if !ok {
		if msg, failed := inst.Metadata["error"].(string); failed {
			return fmt.Errorf("dashboard: export %s: %s", widgetID, msg)
		}
		return ErrNotExportable
	}
	if err := table.WriteCSV(w); err != nil {
		return fmt.Errorf("dashboard: export %s: %w", widgetID, err)
	}
	notify.Success(ctx, s.opts.Notifier, "", s.translate(ctx, viewer, "notices.csv_exported", "CSV exported successfully", nil))
	s.emitActivity(ctx, viewer, activity.VerbWidgetExport, widgetID, map[string]any{
		"page": string(page),
		"rows": len(table.Rows),
	})
	s.recordTelemetry(ctx, "dashboard.widget.export", map[string]any{
		"widget_id": widgetID,
		"rows":      len(table.Rows),
	})
	return nil
}

// OpenInsights opens the AI panel for a widget.
func (s *Service) OpenInsights(ctx context.Context, viewer ViewerContext, page Page, widgetID string) (insights.Snapshot, error) {
	if s.opts.Insights == nil {
		return insights.Snapshot{}, errMissingInsights
	}
	inst, err := s.ResolveWidget(ctx, viewer, page, widgetID)
	if err != nil {
		return insights.Snapshot{}, err
	}
	category := inst.Category
	if category == "" {
		category = "Default"
	}
	snap, err := s.opts.Insights.Open(insights.WidgetRef{
		ID:       inst.ID,
		Title:    inst.Name,
		Type:     "widget",
		Category: category,
		Data:     inst.Metadata["data"],
	})
	if err != nil {
		return snap, err
	}
	notify.Success(ctx, s.opts.Notifier, "", s.translate(ctx, viewer, "notices.insights_opened",
		fmt.Sprintf("Success: AI insights opened for %s", inst.Name), map[string]any{"title": inst.Name}))
	s.emitActivity(ctx, viewer, activity.VerbInsightsOpen, widgetID, map[string]any{"page": string(page)})
	s.recordTelemetry(ctx, "dashboard.insights.open", map[string]any{"widget_id": widgetID})
	return snap, nil
}

// FilterUpdate carries a filter patch for one page.
type FilterUpdate struct {
	Performance *state.FilterPatch      `json:"performance,omitempty"`
	Charts      *state.ChartFilterPatch `json:"charts,omitempty"`
}

// UpdateFilters applies the page's patch. Performance filters are mirrored
// into the data filter holder, which starts a simulated refresh.
func (s *Service) UpdateFilters(ctx context.Context, viewer ViewerContext, page Page, update FilterUpdate) error {
	var payload any
	switch page {
	case PagePerformance:
		if s.opts.Performance == nil {
			return errMissingPageState
		}
		if update.Performance == nil {
			return nil
		}
		st, err := s.opts.Performance.UpdateFilters(*update.Performance)
		if err != nil {
			return err
		}
		if err := s.syncHolder(ctx, st.Filters); err != nil {
			return err
		}
		payload = st.Filters
	case PageCharts:
		if s.opts.Charts == nil {
			return errMissingPageState
		}
		if update.Charts == nil {
			return nil
		}
		st, err := s.opts.Charts.UpdateFilters(ctx, *update.Charts)
		if err != nil {
			return err
		}
		payload = st.Filters
	default:
		return ErrUnknownPage
	}
	s.emitActivity(ctx, viewer, activity.VerbFiltersUpdate, string(page), map[string]any{"page": string(page)})
	s.recordTelemetry(ctx, "dashboard.filters.update", map[string]any{"page": string(page)})
	return s.NotifyWidgetUpdated(ctx, WidgetEvent{
		Page:    page,
		Reason:  ReasonFilters,
		Payload: map[string]any{"filters": payload},
	})
}

func (s *Service) syncHolder(ctx context.Context, current state.PerformanceFilters) error {
	holder := s.opts.Filters
	if holder == nil {
		return nil
	}
	sel := filters.Selection{
		StoreTypes:    current.StoreTypes,
		LocationZones: current.LocationZones,
		Period:        current.TimePeriod,
	}
	if from, to := current.DateRange.From, current.DateRange.To; from != nil && to != nil {
		sel.Window = &filters.Range{Start: *from, End: *to}
	}
	return holder.Apply(ctx, sel)
}

// UpdateLayouts merges a per-breakpoint layout patch into the performance page.
func (s *Service) UpdateLayouts(ctx context.Context, viewer ViewerContext, page Page, layouts state.Layouts) (state.Layouts, error) {
	if page != PagePerformance {
		if !page.Valid() {
			return nil, ErrUnknownPage
		}
		return nil, ErrLayoutsUnsupported
	}
	if s.opts.Performance == nil {
		return nil, errMissingPageState
	}
	st, err := s.opts.Performance.MergeLayouts(layouts)
	if err != nil {
		return nil, err
	}
	s.emitActivity(ctx, viewer, activity.VerbLayoutUpdate, string(page), map[string]any{"breakpoints": len(layouts)})
	s.recordTelemetry(ctx, "dashboard.layout.update", map[string]any{"page": string(page)})
	return st.Layouts, s.NotifyWidgetUpdated(ctx, WidgetEvent{
		Page:   page,
		Reason: ReasonLayout,
	})
}

// ResetPage restores the default state of page and forgets the viewer's
// widget preferences.
func (s *Service) ResetPage(ctx context.Context, viewer ViewerContext, page Page) error {
	var err error
	switch page {
	case PagePerformance:
		if s.opts.Performance == nil {
			return errMissingPageState
		}
		_, err = s.opts.Performance.Reset(ctx)
	case PageCharts:
		if s.opts.Charts == nil {
			return errMissingPageState
		}
		_, err = s.opts.Charts.Reset(ctx)
	default:
		return ErrUnknownPage
	}
	if err != nil {
		s.opts.Logger.Error("reset page storage", "page", page, "error", err)
	}
	if err := s.opts.PreferenceStore.ClearPage(ctx, viewer, page); err != nil {
		return err
	}
	s.emitActivity(ctx, viewer, activity.VerbPageReset, string(page), nil)
	s.recordTelemetry(ctx, "dashboard.page.reset", map[string]any{"page": string(page)})
	return s.NotifyWidgetUpdated(ctx, WidgetEvent{Page: page, Reason: ReasonReset})
}

// RefreshData reloads the retail figures behind page without changing any
// filter. Performance data goes through the filter holder; the charts page
// runs its own settle cycle.
func (s *Service) RefreshData(ctx context.Context, viewer ViewerContext, page Page) error {
	switch page {
	case PagePerformance:
		if s.opts.Filters == nil {
			return errMissingPageState
		}
		s.opts.Filters.Refresh(ctx)
	case PageCharts:
		if s.opts.Charts == nil {
			return errMissingPageState
		}
		if _, err := s.opts.Charts.UpdateFilters(ctx, state.ChartFilterPatch{}); err != nil {
			return err
		}
	default:
		return ErrUnknownPage
	}
	s.emitActivity(ctx, viewer, activity.VerbDataRefresh, string(page), nil)
	return s.NotifyWidgetUpdated(ctx, WidgetEvent{Page: page, Reason: ReasonRefresh})
}

// SetLocale switches the active language.
func (s *Service) SetLocale(ctx context.Context, viewer ViewerContext, code string) (locale.Snapshot, error) {
	if s.opts.Locale == nil {
		return locale.Snapshot{}, errMissingLocale
	}
	snap, err := s.opts.Locale.SetLocale(ctx, code)
	if err != nil {
		return snap, err
	}
	s.emitActivity(ctx, viewer, activity.VerbLocaleChange, string(snap.Language), map[string]any{
		"direction": string(snap.Direction),
	})
	return snap, nil
}

// NotifyWidgetUpdated exposes refresh hook invocation for commands/transports.
func (s *Service) NotifyWidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if err := s.opts.RefreshHook.WidgetUpdated(ctx, event); err != nil {
		return err
	}
	s.recordTelemetry(ctx, "dashboard.widget.event", map[string]any{
		"page":      string(event.Page),
		"widget_id": event.WidgetID,
		"reason":    event.Reason,
	})
	return nil
}

// Shutdown flushes pending state and stops every timer owned by the
// dashboard.
func (s *Service) Shutdown(ctx context.Context) error {
	var err error
	if s.opts.Performance != nil {
		err = errors.Join(err, s.opts.Performance.Flush(ctx))
		s.opts.Performance.Close()
	}
	if s.opts.Charts != nil {
		err = errors.Join(err, s.opts.Charts.Flush(ctx))
		s.opts.Charts.Close()
	}
	if s.opts.Filters != nil {
		s.opts.Filters.Close()
	}
	if s.opts.Insights != nil {
		s.opts.Insights.Shutdown()
	}
	return err
}

// pageView is the persisted state of a page reduced to what rendering needs.
type pageView struct {
	widgets    []string
	layouts    state.Layouts
	filters    any
	data       DataFilters
	loading    bool
	quality    filters.DataQuality
	chartTypes state.ChartTypes
}

func (s *Service) pageView(ctx context.Context, page Page) (pageView, error) {
	now := s.opts.Clock()
	switch page {
	case PagePerformance:
		if s.opts.Performance == nil {
			return pageView{}, errMissingPageState
		}
		st := s.opts.Performance.Load(ctx)
		view := pageView{
			widgets: st.UserWidgets,
			layouts: st.Layouts,
			filters: st.Filters,
			data: DataFilters{
				StoreTypes: st.Filters.StoreTypes,
				Zones:      st.Filters.LocationZones,
				Brand:      filters.BrandAll,
				Period:     st.Filters.TimePeriod,
			},
		}
		if window, ok := filters.RangeForPeriod(st.Filters.TimePeriod, now); ok {
			view.data.From, view.data.To = window.Start, window.End
		} else if st.Filters.DateRange.From != nil && st.Filters.DateRange.To != nil {
			view.data.From, view.data.To = *st.Filters.DateRange.From, *st.Filters.DateRange.To
		}
		if s.opts.Filters != nil {
			snap := s.opts.Filters.Snapshot()
			view.loading, view.quality = snap.Loading, snap.Quality
		}
		return view, nil
	case PageCharts:
		if s.opts.Charts == nil {
			return pageView{}, errMissingPageState
		}
		st := s.opts.Charts.Load(ctx)
		view := pageView{
			widgets:    st.Widgets,
			filters:    st.Filters,
			loading:    st.IsLoading,
			chartTypes: st.ChartTypes,
			data: DataFilters{
				Zones:  []filters.LocationZone{st.Filters.SelectedZone},
				Brand:  st.Filters.SelectedBrand,
				Period: st.Filters.SelectedTimePeriod,
			},
		}
		if st.Filters.SelectedTimePeriod == filters.Custom {
			view.data.From, view.data.To = st.Filters.CustomDateRange.From, st.Filters.CustomDateRange.To
		} else if window, ok := filters.RangeForPeriod(st.Filters.SelectedTimePeriod, now); ok {
			view.data.From, view.data.To = window.Start, window.End
		}
		return view, nil
	default:
		return pageView{}, ErrUnknownPage
	}
}

func (s *Service) instanceFor(ctx context.Context, viewer ViewerContext, page Page, id string, view pageView, prefs map[string]map[string]any) (WidgetInstance, bool) {
	def, ok := s.opts.Providers.Definition(id)
	if !ok || !def.OnPage(page) {
		return WidgetInstance{}, false
	}
	if !s.opts.Authorizer.CanViewWidget(ctx, viewer, def) {
		return WidgetInstance{}, false
	}
	return s.newInstance(viewer, page, def, view, prefs), true
}

func (s *Service) newInstance(viewer ViewerContext, page Page, def WidgetDefinition, view pageView, prefs map[string]map[string]any) WidgetInstance {
	config := maps.Clone(def.Config)
	if config == nil {
		config = map[string]any{}
	}
	maps.Copy(config, prefs[def.Code])
	return WidgetInstance{
		ID:            def.Code,
		DefinitionID:  def.Code,
		Page:          page,
		Name:          def.NameForLocale(viewer.Locale),
		Kind:          def.Kind,
		Category:      def.Category,
		Visualization: visualizationFor(page, def, view.chartTypes, config),
		Configuration: config,
		Metadata:      map[string]any{"wide": def.Wide, "height": def.Height},
	}
}

func visualizationFor(page Page, def WidgetDefinition, types state.ChartTypes, config map[string]any) string {
	if page == PageCharts {
		switch def.Code {
		case "sales-chart":
			return string(types.Sales)
		case "price-chart":
			return string(types.Price)
		}
	}
	if v, ok := config["visualization"].(string); ok && v != "" {
		return v
	}
	return def.DefaultVisualization
}

func (s *Service) attachProviderData(ctx context.Context, viewer ViewerContext, view pageView, inst WidgetInstance) WidgetInstance {
	provider, ok := s.opts.Providers.Provider(inst.DefinitionID)
	if !ok || provider == nil {
		return inst
	}
	data, err := provider.Fetch(ctx, WidgetContext{
		Instance:   inst,
		Viewer:     viewer,
		Filters:    view.data,
		Translator: s.opts.Translator,
	})
	if err != nil {
		s.opts.Logger.Warn("widget provider failed", "widget", inst.DefinitionID, "error", err)
		s.recordTelemetry(ctx, "dashboard.widget.provider_error", map[string]any{
			"definition_id": inst.DefinitionID,
			"error":         err.Error(),
		})
		inst.Metadata["error"] = err.Error()
		return inst
	}
	inst.Metadata["data"] = data
	return inst
}

// authorizedDefinition resolves a widget of page the viewer may act on. A
// viewer without the widget's category gets an error notice.
func (s *Service) authorizedDefinition(ctx context.Context, viewer ViewerContext, page Page, widgetID string) (WidgetDefinition, error) {
	if !page.Valid() {
		return WidgetDefinition{}, ErrUnknownPage
	}
	def, ok := s.opts.Providers.Definition(widgetID)
	if !ok || !def.OnPage(page) {
		return WidgetDefinition{}, fmt.Errorf("%w: %s", ErrUnknownWidget, widgetID)
	}
	if !s.opts.Authorizer.CanViewWidget(ctx, viewer, def) {
		notify.Error(ctx, s.opts.Notifier, "", s.translate(ctx, viewer, "notices.no_access", "Error: no access", nil))
		return WidgetDefinition{}, ErrNoCategoryAccess
	}
	return def, nil
}

func (s *Service) validateVisualization(def WidgetDefinition, visualization string) error {
	if len(def.Visualizations) == 0 {
		return fmt.Errorf("%w: %s has no visualizations", ErrInvalidVisualization, def.Code)
	}
	if err := s.opts.ConfigValidator.Validate(def, map[string]any{"visualization": visualization}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVisualization, err)
	}
	if !containsString(def.Visualizations, visualization) {
		return fmt.Errorf("%w: %q", ErrInvalidVisualization, visualization)
	}
	return nil
}

func (s *Service) translate(ctx context.Context, viewer ViewerContext, key, fallback string, args map[string]any) string {
	return translateOrFallback(ctx, s.opts.Translator, key, viewer.Locale, fallback, args)
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

func (s *Service) emitActivity(ctx context.Context, viewer ViewerContext, verb, objectID string, metadata map[string]any) {
	if !s.activity.Enabled() {
		return
	}
	meta, _ := ActivityFromContext(ctx)
	if meta.UserID == "" {
		meta.UserID = viewer.UserID
	}
	if meta.ActorID == "" {
		meta.ActorID = meta.UserID
	}
	objectType, definition := "dashboard_widget", objectID
	switch verb {
	case activity.VerbFiltersUpdate, activity.VerbLayoutUpdate, activity.VerbPageReset:
		objectType = "dashboard_page"
	case activity.VerbLocaleChange:
		objectType = "locale"
	case activity.VerbLogin, activity.VerbLogout:
		objectType = "session"
	}
	if objectType != "dashboard_widget" {
		definition = ""
	}
	err := s.activity.Emit(ctx, activity.Event{
		Verb:           verb,
		ActorID:        meta.ActorID,
		UserID:         meta.UserID,
		TenantID:       meta.TenantID,
		ObjectType:     objectType,
		ObjectID:       objectID,
		DefinitionCode: definition,
		Metadata:       metadata,
		OccurredAt:     s.opts.Clock().UTC(),
	})
	if err != nil {
		s.opts.Logger.Warn("activity emit failed", "verb", verb, "error", err)
	}
}

func definitionsForPage(reg ProviderRegistry, page Page) []WidgetDefinition {
	if r, ok := reg.(*Registry); ok {
		return r.DefinitionsForPage(page)
	}
	var out []WidgetDefinition
	for _, def := range reg.Definitions() {
		if def.OnPage(page) {
			out = append(out, def)
		}
	}
	return out
}

// pageSizer restricts sizing to the widgets of page, so ids from another
// page's catalog are unknown.
func pageSizer(reg ProviderRegistry, page Page) state.Sizer {
	return state.SizerFunc(func(code string) (state.WidgetSize, bool) {
		def, ok := reg.Definition(code)
		if !ok || !def.OnPage(page) {
			return state.WidgetSize{}, false
		}
		return def.Size(), true
	})
}

// CategoryAuthorizer shows a widget only to viewers holding its category.
type CategoryAuthorizer struct{}

// CanViewWidget implements Authorizer.
func (CategoryAuthorizer) CanViewWidget(_ context.Context, viewer ViewerContext, def WidgetDefinition) bool {
	return viewer.HasCategoryAccess(def.Category)
}

type noopRefreshHook struct{}

func (noopRefreshHook) WidgetUpdated(context.Context, WidgetEvent) error {
	return nil
}
