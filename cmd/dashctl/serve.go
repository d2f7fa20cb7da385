package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/gorouter"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/httpapi"
)

type serveCmd struct {
	Listen string `help:"Listen address; overrides the configured one."`
}

func (cmd *serveCmd) Run(ctx context.Context, rt *runtime) error {
	listen := rt.cfg.Listen
	if cmd.Listen != "" {
		listen = cmd.Listen
	}

	app, closeApp, err := rt.openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp()

	renderer, err := dashboard.NewTemplateRenderer(rt.cfg.TemplatesDir)
	if err != nil {
		return err
	}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  app.Service,
		Renderer: renderer,
	})

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: controller,
		API:        httpapi.NewHandlers(app, nil, rt.logger),
		Broadcast:  app.Broadcast,
	}); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		rt.logger.Info("dashboard listening", "addr", listen)
		errc <- server.Serve(listen)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	rt.logger.Info("dashboard stopped")
	return nil
}
