package filters

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

const (
	// DefaultRefreshDelay is the simulated latency of a filtered data refresh.
	DefaultRefreshDelay = 800 * time.Millisecond
	// DefaultPrimeDelay is the simulated latency of the first data load.
	DefaultPrimeDelay = time.Second
)

// Snapshot is the read model exposed by a Holder.
type Snapshot struct {
	StoreTypes    []StoreType    `json:"storeTypes"`
	LocationZones []LocationZone `json:"locationZones"`
	TimePeriod    TimePeriod     `json:"timePeriod"`
	DateRange     Range          `json:"dateRange"`
	Loading       bool           `json:"isLoading"`
	Quality       DataQuality    `json:"dataQuality"`
}

func (s Snapshot) clone() Snapshot {
	s.StoreTypes = append([]StoreType(nil), s.StoreTypes...)
	s.LocationZones = append([]LocationZone(nil), s.LocationZones...)
	return s
}

// HolderOptions configures a Holder.
type HolderOptions struct {
	Clock        persist.Clock
	Notifier     notify.Notifier
	Logger       *slog.Logger
	RefreshDelay time.Duration
	PrimeDelay   time.Duration
	// Random returns a value in [0,1) for the simulated quality check.
	Random func() float64
}

// Holder owns the cross-cutting data filters. Every setter starts a
// simulated refresh; pending refresh timers belong to the holder and are
// cancelled by Close or superseded by a newer refresh.
type Holder struct {
	opts HolderOptions

	mu     sync.Mutex
	snap   Snapshot
	timer  persist.Timer
	seq    uint64
	closed bool

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	next  int
}

// NewHolder builds a holder with the default Weekly window.
func NewHolder(opts HolderOptions) *Holder {
	if opts.Clock == nil {
		opts.Clock = persist.RealClock()
	}
	opts.Notifier = notify.Normalize(opts.Notifier)
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RefreshDelay <= 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}
	if opts.PrimeDelay <= 0 {
		opts.PrimeDelay = DefaultPrimeDelay
	}
	if opts.Random == nil {
		opts.Random = rand.Float64
	}
	window, _ := RangeForPeriod(Weekly, opts.Clock.Now())
	return &Holder{
		opts: opts,
		snap: Snapshot{
			StoreTypes:    []StoreType{StoreAll},
			LocationZones: []LocationZone{ZoneAll},
			TimePeriod:    Weekly,
			DateRange:     window,
			Quality:       QualityGood,
		},
		subs: map[int]chan Snapshot{},
	}
}

// Snapshot returns the current filters.
func (h *Holder) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snap.clone()
}

// Selection is a full filter choice. Window is the custom range; it is used
// only when Period has no preset window.
type Selection struct {
	StoreTypes    []StoreType
	LocationZones []LocationZone
	Period        TimePeriod
	Window        *Range
}

// Apply replaces every filter with sel and starts a single refresh. A Custom
// selection without a Window keeps the current range.
func (h *Holder) Apply(ctx context.Context, sel Selection) error {
	if err := CheckStoreTypes(sel.StoreTypes); err != nil {
		return err
	}
	if err := CheckLocationZones(sel.LocationZones); err != nil {
		return err
	}
	if _, err := ParseTimePeriod(string(sel.Period)); err != nil {
		return err
	}
	if sel.Window != nil {
		if err := ValidateCustomRange(sel.Window.Start, sel.Window.End, 0); err != nil {
			return err
		}
	}
	now := h.opts.Clock.Now()
	h.mutate(func(s *Snapshot) {
		s.StoreTypes = Normalize(sel.StoreTypes)
		s.LocationZones = Normalize(sel.LocationZones)
		s.TimePeriod = sel.Period
		if window, ok := RangeForPeriod(sel.Period, now); ok {
			s.DateRange = window
		} else if sel.Window != nil {
			s.DateRange = *sel.Window
		}
	})
	h.Refresh(ctx)
	return nil
}

// Refresh marks data as loading, runs the simulated quality check and
// clears the loading flag after the refresh delay.
func (h *Holder) Refresh(ctx context.Context) {
	quality := qualityFor(h.opts.Random())
	if !h.start(func(s *Snapshot) {
		s.Loading = true
		s.Quality = quality
	}, h.opts.RefreshDelay, nil) {
		return
	}
	notify.Info(ctx, h.opts.Notifier, "", "Updating data based on your filter selection")
	h.opts.Logger.Debug("filters refreshed", "quality", quality)
}

// Prime simulates the initial data load after sign in.
func (h *Holder) Prime(ctx context.Context) {
	h.start(func(s *Snapshot) { s.Loading = true }, h.opts.PrimeDelay, func() {
		notify.Success(ctx, h.opts.Notifier, "", "Data loaded successfully")
	})
}

// Close cancels pending refresh timers and subscriber channels.
func (h *Holder) Close() {
	h.mu.Lock()
	h.closed = true
	h.seq++
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.mu.Unlock()

	h.subMu.Lock()
	defer h.subMu.Unlock()
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// Subscribe streams snapshots after every change.
func (h *Holder) Subscribe() (<-chan Snapshot, func()) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	id := h.next
	h.next++
	ch := make(chan Snapshot, 4)
	h.subs[id] = ch
	return ch, func() {
		h.subMu.Lock()
		defer h.subMu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
}

func (h *Holder) mutate(fn func(*Snapshot)) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	fn(&h.snap)
	out := h.snap.clone()
	h.mu.Unlock()
	h.publish(out)
}

func (h *Holder) start(fn func(*Snapshot), delay time.Duration, done func()) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	fn(&h.snap)
	if h.timer != nil {
		h.timer.Stop()
	}
	h.seq++
	seq := h.seq
	h.timer = h.opts.Clock.AfterFunc(delay, func() { h.finish(seq, done) })
	out := h.snap.clone()
	h.mu.Unlock()
	h.publish(out)
	return true
}

func (h *Holder) finish(seq uint64, done func()) {
	h.mu.Lock()
	if h.closed || seq != h.seq {
		h.mu.Unlock()
		return
	}
	h.snap.Loading = false
	h.timer = nil
	out := h.snap.clone()
	h.mu.Unlock()
	h.publish(out)
	if done != nil {
		done()
	}
}

func (h *Holder) publish(s Snapshot) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- s.clone():
		default:
		}
	}
}

func qualityFor(r float64) DataQuality {
	switch {
	case r < 0.1:
		return QualityError
	case r < 0.3:
		return QualityWarning
	default:
		return QualityGood
	}
}
