package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/insights"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/session"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
	"github.com/goliatone/go-retail-dashboard/pkg/activity"
)

// BootstrapOptions configures Bootstrap. Zero values fall back to in-memory
// storage, the real clock, the demo retail data, and the embedded bundles.
type BootstrapOptions struct {
	Backend  persist.Backend
	Clock    persist.Clock
	Logger   *slog.Logger
	Notifier notify.Notifier
	Debounce time.Duration

	Registry     *Registry
	Source       RetailSource
	ChartOptions []EChartsProviderOption

	Translator      *locale.Translator
	DefaultLocale   locale.Language
	Credentials     session.Credentials
	Authorizer      Authorizer
	PreferenceStore PreferenceStore
	RefreshHooks    []RefreshHook
	Telemetry       Telemetry

	FilterRefreshDelay time.Duration
	InsightsReplyDelay time.Duration
	// QualitySample feeds the simulated data quality check. Defaults to
	// math/rand.
	QualitySample func() float64

	ActivityHooks  activity.Hooks
	ActivityConfig activity.Config
}

// App bundles the dashboard service with the holders transports need.
type App struct {
	Service   *Service
	Registry  *Registry
	Session   *session.Manager
	Notices   *notify.Center
	Locale    *locale.State
	Broadcast *BroadcastHook
}

// Bootstrap wires the registry, persisted page state, filters, insights
// panel, and locale into a ready Service. Page state is loaded before
// returning.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*App, error) {
	if opts.Backend == nil {
		opts.Backend = persist.NewMemoryBackend()
	}
	if opts.Clock == nil {
		opts.Clock = persist.RealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	notices := notify.NewCenter(notify.CenterOptions{Logger: opts.Logger, Now: opts.Clock.Now})
	notifier := notify.Notifier(notices)
	if opts.Notifier != nil {
		notifier = fanout{notices, opts.Notifier}
	}

	registry := opts.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	if opts.Source != nil || len(opts.ChartOptions) > 0 {
		source := opts.Source
		if source == nil {
			source = DemoRetailSource{}
		}
		if err := registerProviders(registry, DefaultProviders(source, opts.ChartOptions...)); err != nil {
			return nil, err
		}
	}

	translator := opts.Translator
	if translator == nil {
		translator = locale.NewTranslator(locale.TranslatorOptions{Logger: opts.Logger})
	}
	localeState := locale.NewState(locale.Options{
		Translator: translator,
		Notifier:   notifier,
		Backend:    opts.Backend,
		Logger:     opts.Logger,
		Initial:    opts.DefaultLocale,
	})
	localeState.Restore(ctx)

	performance, err := state.NewPerformanceStore(state.Options{
		Backend:  opts.Backend,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Notifier: notifier,
		Debounce: opts.Debounce,
		Sizer:    registry.Sizer(PagePerformance),
		Names:    registry.DisplayName,
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard: performance state: %w", err)
	}
	charts, err := state.NewChartsStore(state.Options{
		Backend:  opts.Backend,
		Clock:    opts.Clock,
		Logger:   opts.Logger,
		Notifier: notifier,
		Debounce: opts.Debounce,
		Sizer:    registry.Sizer(PageCharts),
		Names:    registry.DisplayName,
	})
	if err != nil {
		performance.Close()
		return nil, fmt.Errorf("dashboard: charts state: %w", err)
	}
	performance.Load(ctx)
	charts.Load(ctx)

	holder := filters.NewHolder(filters.HolderOptions{
		Clock:        opts.Clock,
		Notifier:     notifier,
		Logger:       opts.Logger,
		RefreshDelay: opts.FilterRefreshDelay,
		Random:       opts.QualitySample,
	})

	panel := insights.NewPanel(insights.Options{
		Clock:      opts.Clock,
		Logger:     opts.Logger,
		ReplyDelay: opts.InsightsReplyDelay,
	})

	broadcast := NewBroadcastHook()
	hooks := append(RefreshHooks{broadcast}, opts.RefreshHooks...)

	service := NewService(Options{
		Providers:       registry,
		Authorizer:      opts.Authorizer,
		PreferenceStore: opts.PreferenceStore,
		RefreshHook:     hooks,
		Telemetry:       opts.Telemetry,
		Translator:      translator,
		Notifier:        notifier,
		Logger:          opts.Logger,
		Performance:     performance,
		Charts:          charts,
		Filters:         holder,
		Insights:        panel,
		Locale:          localeState,
		Clock:           opts.Clock.Now,
		ActivityHooks:   opts.ActivityHooks,
		ActivityConfig:  opts.ActivityConfig,
	})

	app := &App{
		Service:  service,
		Registry: registry,
		Session: session.NewManager(session.Options{
			Backend:     opts.Backend,
			Notifier:    notifier,
			Logger:      opts.Logger,
			Credentials: opts.Credentials,
		}),
		Notices:   notices,
		Locale:    localeState,
		Broadcast: broadcast,
	}
	if _, ok := app.Session.Restore(ctx); ok {
		holder.Prime(ctx)
	}
	return app, nil
}

// Login signs the demo user in and starts the initial data load. It returns
// the path to redirect to.
func (a *App) Login(ctx context.Context, email, password string) (session.User, string, error) {
	user, next, err := a.Session.Login(ctx, email, password)
	if err != nil {
		return user, next, err
	}
	if holder := a.Service.Filters(); holder != nil {
		holder.Prime(ctx)
	}
	a.Service.emitActivity(ctx, ViewerFromUser(user, ""), activity.VerbLogin, user.ID, nil)
	return user, next, nil
}

// Logout signs the user out and closes the insights panel.
func (a *App) Logout(ctx context.Context) string {
	viewer, _ := a.Viewer()
	if panel := a.Service.Insights(); panel != nil {
		panel.Close()
	}
	next := a.Session.Logout(ctx)
	if viewer.UserID != "" {
		a.Service.emitActivity(ctx, viewer, activity.VerbLogout, viewer.UserID, nil)
	}
	return next
}

// Shutdown flushes page state and stops the app's timers.
func (a *App) Shutdown(ctx context.Context) error {
	if a == nil || a.Service == nil {
		return nil
	}
	err := a.Service.Shutdown(ctx)
	if a.Broadcast != nil {
		a.Broadcast.Close()
	}
	return err
}

// Viewer builds the viewer context of the signed-in user in the active
// locale.
func (a *App) Viewer() (ViewerContext, error) {
	user, ok := a.Session.Current()
	if !ok {
		return ViewerContext{}, session.ErrNotAuthenticated
	}
	return ViewerFromUser(user, string(a.Locale.Snapshot().Language)), nil
}

// ViewerFromUser adapts a session user.
func ViewerFromUser(user session.User, lang string) ViewerContext {
	return ViewerContext{
		UserID:     user.ID,
		Name:       user.Name,
		Categories: append([]string(nil), user.Categories...),
		Locale:     lang,
	}
}

func registerProviders(reg *Registry, providers map[string]Provider) error {
	var err error
	for code, provider := range providers {
		if _, ok := reg.Definition(code); !ok {
			continue
		}
		err = errors.Join(err, reg.RegisterProvider(code, provider))
	}
	return err
}

type fanout []notify.Notifier

func (f fanout) Notify(ctx context.Context, notice notify.Notice) {
	for _, n := range f {
		n.Notify(ctx, notice)
	}
}
