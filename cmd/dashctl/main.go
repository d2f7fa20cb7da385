package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/session"
	"github.com/goliatone/go-retail-dashboard/internal/config"
	"github.com/goliatone/go-retail-dashboard/internal/logger"
	"github.com/goliatone/go-retail-dashboard/pkg/retail"
)

type cli struct {
	Config   string `short:"c" type:"path" env:"DASHBOARD_CONFIG" help:"YAML configuration file."`
	LogLevel string `name:"log-level" help:"Override the configured log level (debug, info, warn, error)."`
	Storage  string `help:"Override the storage driver (memory, file, sqlite)."`
	Path     string `name:"storage-path" type:"path" help:"Override the storage path."`

	Serve   serveCmd   `cmd:"" help:"Serve the dashboard over HTTP."`
	State   stateCmd   `cmd:"" help:"Inspect or change persisted dashboard state."`
	Widgets widgetsCmd `cmd:"" help:"Change the widgets shown on a page."`
	Catalog catalogCmd `cmd:"" help:"Manage widget catalog manifests."`
}

// runtime carries what every command shares.
type runtime struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	var root cli
	kctx := kong.Parse(&root,
		kong.Name("dashctl"),
		kong.Description("Retail sales dashboard server and state tooling."),
		kong.UsageOnError(),
	)
	rt, err := root.runtime()
	kctx.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, rt.logger)

	kctx.BindTo(ctx, (*context.Context)(nil))
	kctx.Bind(rt)
	kctx.FatalIfErrorf(kctx.Run())
}

func (c *cli) runtime() (*runtime, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	if c.Storage != "" {
		cfg.Storage.Driver = c.Storage
	}
	if c.Path != "" {
		cfg.Storage.Path = c.Path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)
	return &runtime{cfg: cfg, logger: log}, nil
}

// openBackend returns the configured storage and a closer for it.
func openBackend(cfg *config.Config) (persist.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Storage.Driver {
	case config.StorageFile:
		backend, err := persist.NewFileBackend(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, noop, nil
	case config.StorageSQLite:
		backend, err := persist.OpenSQLiteBackend(cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend.Close, nil
	default:
		return persist.NewMemoryBackend(), noop, nil
	}
}

// openApp bootstraps the dashboard against the configured storage. The
// returned closer flushes state and releases the backend.
func (rt *runtime) openApp(ctx context.Context) (*dashboard.App, func(), error) {
	cfg := rt.cfg
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return nil, nil, err
	}

	registry := dashboard.NewRegistry()
	if cfg.Manifest != "" {
		var loaded []string
		load := commands.NewLoadManifestsCommand(registry, nil)
		if err := load.Execute(ctx, commands.LoadManifestsInput{Paths: []string{cfg.Manifest}, Loaded: &loaded}); err != nil {
			_ = closeBackend()
			return nil, nil, err
		}
		rt.logger.Info("manifest loaded", "path", cfg.Manifest, "widgets", len(loaded))
	}

	var chartOpts []dashboard.EChartsProviderOption
	if cfg.AssetsHost != "" {
		chartOpts = append(chartOpts, dashboard.WithChartAssetsHost(cfg.AssetsHost))
	}

	lang, err := locale.Parse(cfg.DefaultLocale)
	if err != nil {
		_ = closeBackend()
		return nil, nil, err
	}

	app, err := dashboard.Bootstrap(ctx, dashboard.BootstrapOptions{
		Backend:       backend,
		Logger:        rt.logger,
		Debounce:      cfg.Debounce,
		Registry:      registry,
		Source:        retail.NewSource(retail.NewMockClient(retail.MockOptions{})),
		ChartOptions:  chartOpts,
		Translator:    newTranslator(cfg, rt.logger),
		DefaultLocale: lang,
		Credentials:   session.Credentials{Email: cfg.Credentials.Email, Password: cfg.Credentials.Password},
	})
	if err != nil {
		_ = closeBackend()
		return nil, nil, err
	}
	closer := func() {
		if err := app.Shutdown(context.WithoutCancel(ctx)); err != nil {
			rt.logger.Error("flush dashboard state", "error", err)
		}
		if err := closeBackend(); err != nil {
			rt.logger.Error("close storage", "error", err)
		}
	}
	return app, closer, nil
}

func newTranslator(cfg *config.Config, log *slog.Logger) *locale.Translator {
	opts := locale.TranslatorOptions{Logger: log}
	switch {
	case cfg.LocalesURL != "":
		opts.Loader = locale.HTTPLoader{BaseURL: cfg.LocalesURL, Pattern: locale.DefaultPattern}
	case cfg.LocalesDir != "":
		opts.Loader = locale.FSLoader{FS: os.DirFS(cfg.LocalesDir), Pattern: "{{lng}}/{{ns}}.json"}
	}
	return locale.NewTranslator(opts)
}

// viewer returns the signed-in viewer, falling back to the demo user so
// state commands work before anyone has logged in through the UI.
func viewer(app *dashboard.App) dashboard.ViewerContext {
	if v, err := app.Viewer(); err == nil {
		return v
	}
	return dashboard.ViewerFromUser(session.DemoUser(), string(app.Locale.Snapshot().Language))
}

func parsePage(value string) (dashboard.Page, error) {
	page, err := dashboard.ParsePage(value)
	if err != nil {
		return "", fmt.Errorf("dashctl: %w: %q", err, value)
	}
	return page, nil
}
