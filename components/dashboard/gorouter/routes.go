package gorouter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/insights"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/queries"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/session"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
	"github.com/goliatone/go-retail-dashboard/internal/errs"
)

// ViewerResolver converts a router.Context into a dashboard.ViewerContext.
type ViewerResolver func(router.Context) (dashboard.ViewerContext, error)

// Config wires go-router with the dashboard controller, commands, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Controller     *dashboard.Controller
	API            *httpapi.Handlers
	Broadcast      *dashboard.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Login         string
	Logout        string
	HTML          string
	Layout        string
	Filters       string
	Layouts       string
	Reset         string
	Refresh       string
	Toggle        string
	Visualization string
	Configure     string
	Export        string
	Insights      string
	Locale        string
	Notices       string
	WebSocket     string
}

// Register mounts dashboard routes (HTML, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	resolver := cfg.ViewerResolver
	if resolver == nil {
		if cfg.API == nil || cfg.API.Session == nil {
			return errors.New("gorouter: a viewer resolver or session service is required")
		}
		resolver = sessionViewer(cfg.API.Session)
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		viewer, err := resolver(ctx)
		if err != nil {
			ctx.SetHeader("Location", session.LoginPath)
			return ctx.JSON(http.StatusSeeOther, map[string]string{"redirect": session.LoginPath})
		}
		page, err := dashboard.ParsePage(ctx.Param("page"))
		if err != nil {
			return respondError(ctx, err)
		}
		var buf bytes.Buffer
		if err := cfg.Controller.RenderTemplate(ctx.Context(), viewer, page, &buf); err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send(buf.Bytes())
	}))

	group.Get(routes.Layout, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		payload, err := cfg.Controller.LayoutPayload(ctx.Context(), viewer, page)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	if cfg.API != nil {
		registerSession(group, cfg.API, routes)
		registerAPI(group, cfg.API, resolver, routes)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

type pageHandler func(router.Context, dashboard.ViewerContext, dashboard.Page) error

func withPage(resolver ViewerResolver, next pageHandler) router.HandlerFunc {
	return router.WrapHandler(func(ctx router.Context) error {
		viewer, err := resolver(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		page, err := dashboard.ParsePage(ctx.Param("page"))
		if err != nil {
			return respondError(ctx, err)
		}
		return next(ctx, viewer, page)
	})
}

func registerSession[T any](r router.Router[T], api *httpapi.Handlers, routes RouteConfig) {
	r.Post(routes.Login, router.WrapHandler(func(ctx router.Context) error {
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		user, next, err := api.Session.Login(ctx.Context(), payload.Email, payload.Password)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"user": user, "redirect": next})
	}))

	r.Post(routes.Logout, router.WrapHandler(func(ctx router.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"redirect": api.Session.Logout(ctx.Context())})
	}))
}

func registerAPI[T any](r router.Router[T], api *httpapi.Handlers, resolver ViewerResolver, routes RouteConfig) {
	r.Post(routes.Toggle, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var widgets []string
		err := api.Toggle.Execute(ctx.Context(), commands.ToggleWidgetInput{
			Actor:    actor(viewer),
			Viewer:   viewer,
			Page:     page,
			WidgetID: ctx.Param("widget"),
			Widgets:  &widgets,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]any{"widgets": widgets})
	}))

	r.Put(routes.Visualization, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var payload struct {
			Visualization string `json:"visualization"`
		}
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		err := api.Visualization.Execute(ctx.Context(), commands.ChangeVisualizationInput{
			Actor:         actor(viewer),
			Viewer:        viewer,
			Page:          page,
			WidgetID:      ctx.Param("widget"),
			Visualization: payload.Visualization,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Put(routes.Configure, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var payload map[string]any
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		err := api.Configure.Execute(ctx.Context(), commands.ConfigureWidgetInput{
			Actor:         actor(viewer),
			Viewer:        viewer,
			Page:          page,
			WidgetID:      ctx.Param("widget"),
			Configuration: payload,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "updated"})
	}))

	r.Get(routes.Export, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		widgetID := ctx.Param("widget")
		var buf bytes.Buffer
		err := api.Export.Execute(ctx.Context(), commands.ExportCSVInput{
			Actor:    actor(viewer),
			Viewer:   viewer,
			Page:     page,
			WidgetID: widgetID,
			Writer:   &buf,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		ctx.SetHeader("Content-Type", "text/csv; charset=utf-8")
		ctx.SetHeader("Content-Disposition", fmt.Sprintf("attachment; filename=%q", widgetID+".csv"))
		return ctx.Send(buf.Bytes())
	}))

	r.Post(routes.Insights, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var snap insights.Snapshot
		err := api.Insights.Execute(ctx.Context(), commands.OpenInsightsInput{
			Actor:    actor(viewer),
			Viewer:   viewer,
			Page:     page,
			WidgetID: ctx.Param("widget"),
			Snapshot: &snap,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Patch(routes.Filters, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var payload dashboard.FilterUpdate
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		err := api.Filters.Execute(ctx.Context(), commands.UpdateFiltersInput{
			Actor:  actor(viewer),
			Viewer: viewer,
			Page:   page,
			Update: payload,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
	}))

	r.Put(routes.Layouts, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		var payload state.Layouts
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		err := api.Layouts.Execute(ctx.Context(), commands.UpdateLayoutsInput{
			Actor:   actor(viewer),
			Viewer:  viewer,
			Page:    page,
			Layouts: payload,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "saved"})
	}))

	r.Post(routes.Reset, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		if err := api.Reset.Execute(ctx.Context(), commands.ResetPageInput{Actor: actor(viewer), Viewer: viewer, Page: page}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]string{"status": "reset"})
	}))

	r.Post(routes.Refresh, withPage(resolver, func(ctx router.Context, viewer dashboard.ViewerContext, page dashboard.Page) error {
		if err := api.Refresh.Execute(ctx.Context(), commands.RefreshDataInput{Actor: actor(viewer), Viewer: viewer, Page: page}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "loading"})
	}))

	r.Put(routes.Locale, router.WrapHandler(func(ctx router.Context) error {
		viewer, err := resolver(ctx)
		if err != nil {
			return respondError(ctx, err)
		}
		var payload struct {
			Locale string `json:"locale"`
		}
		if err := decode(ctx, &payload); err != nil {
			return respondError(ctx, err)
		}
		var snap locale.Snapshot
		err = api.Locale.Execute(ctx.Context(), commands.SetLocaleInput{
			Actor:    actor(viewer),
			Viewer:   viewer,
			Locale:   payload.Locale,
			Snapshot: &snap,
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, snap)
	}))

	r.Get(routes.Notices, router.WrapHandler(func(ctx router.Context) error {
		if _, err := resolver(ctx); err != nil {
			return respondError(ctx, err)
		}
		limit := 0
		if raw := ctx.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return respondError(ctx, errs.NewValidationError("limit must be a positive number"))
			}
			limit = n
		}
		notices, err := api.Notices.Query(ctx.Context(), queries.NoticesInput{Limit: limit})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, notices)
	}))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func sessionViewer(svc httpapi.SessionService) ViewerResolver {
	return func(router.Context) (dashboard.ViewerContext, error) {
		return svc.Viewer()
	}
}

func actor(viewer dashboard.ViewerContext) commands.Actor {
	return commands.Actor{ActorID: viewer.UserID, UserID: viewer.UserID}
}

func decode(ctx router.Context, dst any) error {
	if err := json.Unmarshal(ctx.Body(), dst); err != nil {
		return errs.NewValidationError(fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

func respondError(ctx router.Context, err error) error {
	status, code, message := errs.Status(httpapi.Classify(err))
	return ctx.JSON(status, errs.ErrorResponse{Code: code, Message: message})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	set := func(field *string, value string) {
		if *field == "" {
			*field = value
		}
	}
	set(&routes.Login, "/login")
	set(&routes.Logout, "/logout")
	set(&routes.HTML, "/dashboard/:page")
	set(&routes.Layout, "/dashboard/:page/_layout")
	set(&routes.Filters, "/dashboard/:page/filters")
	set(&routes.Layouts, "/dashboard/:page/layouts")
	set(&routes.Reset, "/dashboard/:page/reset")
	set(&routes.Refresh, "/dashboard/:page/refresh")
	set(&routes.Toggle, "/dashboard/:page/widgets/:widget/toggle")
	set(&routes.Visualization, "/dashboard/:page/widgets/:widget/visualization")
	set(&routes.Configure, "/dashboard/:page/widgets/:widget/config")
	set(&routes.Export, "/dashboard/:page/widgets/:widget/export")
	set(&routes.Insights, "/dashboard/:page/widgets/:widget/insights")
	set(&routes.Locale, "/locale")
	set(&routes.Notices, "/notices")
	set(&routes.WebSocket, "/ws")
	return routes
}
