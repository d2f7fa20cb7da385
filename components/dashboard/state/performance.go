package state

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

const (
	PerformanceKey     = "performance-dashboard-state"
	PerformanceVersion = 1
)

// DefaultPerformanceWidgets are shown on a fresh performance page.
var DefaultPerformanceWidgets = []string{"sales-by-store-chart", "sales-distribution-chart"}

// DateRange is an optional custom window. Nil bounds are unset.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

func (r DateRange) clone() DateRange {
	out := DateRange{}
	if r.From != nil {
		from := *r.From
		out.From = &from
	}
	if r.To != nil {
		to := *r.To
		out.To = &to
	}
	return out
}

// PerformanceFilters are the persisted performance page filters.
type PerformanceFilters struct {
	StoreTypes    []filters.StoreType    `json:"storeTypes"`
	LocationZones []filters.LocationZone `json:"locationZones"`
	TimePeriod    filters.TimePeriod     `json:"timePeriod"`
	DateRange     DateRange              `json:"dateRange"`
}

// PerformanceState is the persisted performance dashboard.
type PerformanceState struct {
	UserWidgets []string           `json:"userWidgets"`
	Layouts     Layouts            `json:"layouts"`
	Filters     PerformanceFilters `json:"filters"`
	Version     int                `json:"version"`
}

// DefaultPerformanceState returns the state of a fresh dashboard.
func DefaultPerformanceState() PerformanceState {
	return PerformanceState{
		UserWidgets: append([]string(nil), DefaultPerformanceWidgets...),
		Layouts:     Layouts{},
		Filters: PerformanceFilters{
			StoreTypes:    []filters.StoreType{filters.StoreAll},
			LocationZones: []filters.LocationZone{filters.ZoneAll},
			TimePeriod:    filters.Weekly,
		},
		Version: PerformanceVersion,
	}
}

// Clone deep-copies the state.
func (s PerformanceState) Clone() PerformanceState {
	s.UserWidgets = append([]string(nil), s.UserWidgets...)
	s.Layouts = s.Layouts.Clone()
	s.Filters.StoreTypes = append([]filters.StoreType(nil), s.Filters.StoreTypes...)
	s.Filters.LocationZones = append([]filters.LocationZone(nil), s.Filters.LocationZones...)
	s.Filters.DateRange = s.Filters.DateRange.clone()
	return s
}

func rehydratePerformance(s *PerformanceState) error {
	if !s.Filters.TimePeriod.Valid() {
		return fmt.Errorf("state: invalid time period %q", s.Filters.TimePeriod)
	}
	if err := filters.CheckStoreTypes(s.Filters.StoreTypes); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	if err := filters.CheckLocationZones(s.Filters.LocationZones); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	s.UserWidgets = UniqueWidgets(s.UserWidgets)
	if len(s.UserWidgets) == 0 {
		s.UserWidgets = append([]string(nil), DefaultPerformanceWidgets...)
	}
	if s.Layouts == nil {
		s.Layouts = Layouts{}
	}
	s.Filters.StoreTypes = filters.Normalize(s.Filters.StoreTypes)
	s.Filters.LocationZones = filters.Normalize(s.Filters.LocationZones)
	if s.Filters.DateRange.From != nil {
		from := s.Filters.DateRange.From.UTC()
		s.Filters.DateRange.From = &from
	}
	if s.Filters.DateRange.To != nil {
		to := s.Filters.DateRange.To.UTC()
		s.Filters.DateRange.To = &to
	}
	return nil
}

// FilterPatch is a partial filter update; nil fields are left unchanged.
type FilterPatch struct {
	StoreTypes    []filters.StoreType    `json:"storeTypes,omitempty"`
	LocationZones []filters.LocationZone `json:"locationZones,omitempty"`
	TimePeriod    *filters.TimePeriod    `json:"timePeriod,omitempty"`
	DateRange     *DateRange             `json:"dateRange,omitempty"`
}

// PerformanceStore is the persisted performance page state.
type PerformanceStore struct {
	store *persist.Store[PerformanceState]
	opts  Options
}

func (patch FilterPatch) check() error {
	if err := filters.CheckStoreTypes(patch.StoreTypes); err != nil {
		return err
	}
	if err := filters.CheckLocationZones(patch.LocationZones); err != nil {
		return err
	}
	if patch.TimePeriod != nil && !patch.TimePeriod.Valid() {
		return fmt.Errorf("%w: time period %q", filters.ErrUnknownValue, *patch.TimePeriod)
	}
	return nil
}

// NewPerformanceStore wires the performance state to its backend.
func NewPerformanceStore(opts Options) (*PerformanceStore, error) {
	opts = opts.normalize()
	store, err := persist.NewStore(persist.Options[PerformanceState]{
		Key:       PerformanceKey,
		Version:   PerformanceVersion,
		Default:   DefaultPerformanceState,
		Rehydrate: rehydratePerformance,
		Clone:     PerformanceState.Clone,
		Debounce:  opts.Debounce,
		Backend:   opts.Backend,
		Clock:     opts.Clock,
		Logger:    opts.Logger,
	})
	if err != nil {
		return nil, err
	}
	return &PerformanceStore{store: store, opts: opts}, nil
}

// Load reads persisted state on first use.
func (p *PerformanceStore) Load(ctx context.Context) PerformanceState { return p.store.Load(ctx) }

// State returns the current state.
func (p *PerformanceStore) State() PerformanceState { return p.store.State() }

// Loaded reports whether the initial read happened.
func (p *PerformanceStore) Loaded() bool { return p.store.Loaded() }

// Degraded reports whether persistence is failing.
func (p *PerformanceStore) Degraded() bool { return p.store.Degraded() }

// UpdateUserWidgets replaces the widget list and regenerates layouts.
func (p *PerformanceStore) UpdateUserWidgets(widgets []string) (PerformanceState, error) {
	widgets = UniqueWidgets(widgets)
	if len(widgets) == 0 {
		return p.store.State(), ErrLastWidget
	}
	return p.store.Update(func(s *PerformanceState) error {
		s.UserWidgets = widgets
		p.regenerate(s)
		return nil
	})
}

// UpdateLayouts replaces every breakpoint layout.
func (p *PerformanceStore) UpdateLayouts(layouts Layouts) PerformanceState {
	out, _ := p.store.Update(func(s *PerformanceState) error {
		s.Layouts = layouts.Clone()
		if s.Layouts == nil {
			s.Layouts = Layouts{}
		}
		return nil
	})
	return out
}

// MergeLayouts overlays the given breakpoints, keeping the others.
func (p *PerformanceStore) MergeLayouts(patch Layouts) (PerformanceState, error) {
	return p.store.Update(func(s *PerformanceState) error {
		merged, err := s.Layouts.Merge(patch)
		if err != nil {
			return fmt.Errorf("state: merge layouts: %w", err)
		}
		s.Layouts = merged
		return nil
	})
}

// UpdateFilters shallow-merges the set fields of patch.
func (p *PerformanceStore) UpdateFilters(patch FilterPatch) (PerformanceState, error) {
	if err := patch.check(); err != nil {
		p.opts.Logger.Error("rejected filter update", "error", err)
		return p.store.State(), err
	}
	if patch.DateRange != nil && patch.DateRange.From != nil && patch.DateRange.To != nil {
		if err := filters.ValidateCustomRange(*patch.DateRange.From, *patch.DateRange.To, 0); err != nil {
			p.opts.Logger.Error("rejected filter update", "error", err)
			return p.store.State(), err
		}
	}
	return p.store.Update(func(s *PerformanceState) error {
		if patch.StoreTypes != nil {
			s.Filters.StoreTypes = filters.Normalize(patch.StoreTypes)
		}
		if patch.LocationZones != nil {
			s.Filters.LocationZones = filters.Normalize(patch.LocationZones)
		}
		if patch.TimePeriod != nil {
			s.Filters.TimePeriod = *patch.TimePeriod
		}
		if patch.DateRange != nil {
			s.Filters.DateRange = patch.DateRange.clone()
		}
		return nil
	})
}

// SelectStoreType applies the single-select rule for store types.
func (p *PerformanceStore) SelectStoreType(value filters.StoreType) (PerformanceState, error) {
	return p.UpdateFilters(FilterPatch{StoreTypes: filters.Select(value)})
}

// SelectLocationZone applies the single-select rule for zones.
func (p *PerformanceStore) SelectLocationZone(value filters.LocationZone) (PerformanceState, error) {
	return p.UpdateFilters(FilterPatch{LocationZones: filters.Select(value)})
}

// ToggleWidget adds or removes a widget. Removing the last one is refused
// with ErrLastWidget and an error notice.
func (p *PerformanceStore) ToggleWidget(ctx context.Context, id string) (PerformanceState, error) {
	if id == "" {
		return p.store.State(), ErrUnknownWidget
	}
	if p.opts.Sizer != nil {
		if _, ok := p.opts.Sizer.WidgetSize(id); !ok {
			return p.store.State(), fmt.Errorf("%w: %s", ErrUnknownWidget, id)
		}
	}
	var added bool
	out, err := p.store.Update(func(s *PerformanceState) error {
		next, add, err := ToggleWidget(s.UserWidgets, id)
		if err != nil {
			return err
		}
		added = add
		s.UserWidgets = next
		p.regenerate(s)
		return nil
	})
	if err != nil {
		notify.Error(ctx, p.opts.Notifier, "Cannot remove widget", "You must keep at least one widget on the dashboard")
		return out, err
	}
	if added {
		notify.Success(ctx, p.opts.Notifier, "", fmt.Sprintf("Added %s widget", p.opts.Names(id)))
	} else {
		notify.Success(ctx, p.opts.Notifier, "", fmt.Sprintf("Removed %s widget", p.opts.Names(id)))
	}
	return out, nil
}

// RegenerateLayouts rebuilds layouts from the current widget list.
func (p *PerformanceStore) RegenerateLayouts() PerformanceState {
	out, _ := p.store.Update(func(s *PerformanceState) error {
		p.regenerate(s)
		return nil
	})
	return out
}

func (p *PerformanceStore) regenerate(s *PerformanceState) {
	if p.opts.Sizer == nil || len(s.UserWidgets) == 0 {
		return
	}
	s.Layouts = GenerateLayouts(s.UserWidgets, p.opts.Sizer)
}

// Reset restores the default dashboard and clears stored state.
func (p *PerformanceStore) Reset(ctx context.Context) (PerformanceState, error) {
	out, err := p.store.Reset(ctx)
	notify.Info(ctx, p.opts.Notifier, "Dashboard Reset", "Dashboard has been reset to default settings")
	return out, err
}

// Flush writes pending changes now.
func (p *PerformanceStore) Flush(ctx context.Context) error { return p.store.Flush(ctx) }

// Subscribe streams state changes.
func (p *PerformanceStore) Subscribe() (<-chan PerformanceState, func()) { return p.store.Subscribe() }

// Close stops persistence.
func (p *PerformanceStore) Close() { p.store.Close() }
