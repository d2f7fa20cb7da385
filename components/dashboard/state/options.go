package state

import (
	"log/slog"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

// Options carries the collaborators shared by the dashboard state stores.
type Options struct {
	Backend  persist.Backend
	Clock    persist.Clock
	Logger   *slog.Logger
	Notifier notify.Notifier
	Debounce time.Duration
	// Sizer resolves widget footprints for layout generation.
	Sizer Sizer
	// Names resolves display names used in notices.
	Names func(id string) string
}

func (o Options) normalize() Options {
	if o.Backend == nil {
		o.Backend = persist.NewMemoryBackend()
	}
	if o.Clock == nil {
		o.Clock = persist.RealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	o.Notifier = notify.Normalize(o.Notifier)
	if o.Names == nil {
		o.Names = func(id string) string { return id }
	}
	return o
}
