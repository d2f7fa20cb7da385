package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/commands"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/filters"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/insights"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/queries"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/session"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
	"github.com/goliatone/go-retail-dashboard/internal/errs"
)

// SessionService signs users in and out and reports the active viewer.
type SessionService interface {
	Login(ctx context.Context, email, password string) (session.User, string, error)
	Logout(ctx context.Context) string
	Viewer() (dashboard.ViewerContext, error)
}

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Session SessionService
	Logger  *slog.Logger

	Page    gocommand.Querier[queries.PageInput, dashboard.PageLayout]
	Widget  gocommand.Querier[queries.WidgetInput, dashboard.WidgetInstance]
	Notices gocommand.Querier[queries.NoticesInput, []notify.Notice]

	Toggle        gocommand.Commander[commands.ToggleWidgetInput]
	Visualization gocommand.Commander[commands.ChangeVisualizationInput]
	Configure     gocommand.Commander[commands.ConfigureWidgetInput]
	Export        gocommand.Commander[commands.ExportCSVInput]
	Insights      gocommand.Commander[commands.OpenInsightsInput]
	Filters       gocommand.Commander[commands.UpdateFiltersInput]
	Layouts       gocommand.Commander[commands.UpdateLayoutsInput]
	Reset         gocommand.Commander[commands.ResetPageInput]
	Locale        gocommand.Commander[commands.SetLocaleInput]
	Refresh       gocommand.Commander[commands.RefreshDataInput]
}

// NewHandlers wires every command and query against the app.
func NewHandlers(app *dashboard.App, telemetry commands.Telemetry, logger *slog.Logger) *Handlers {
	svc := app.Service
	return &Handlers{
		Session:       app,
		Logger:        logger,
		Page:          queries.NewPageQuery(svc),
		Widget:        queries.NewWidgetQuery(svc),
		Notices:       queries.NewNoticesQuery(app.Notices),
		Toggle:        commands.NewToggleWidgetCommand(svc, telemetry),
		Visualization: commands.NewChangeVisualizationCommand(svc, telemetry),
		Configure:     commands.NewConfigureWidgetCommand(svc, telemetry),
		Export:        commands.NewExportCSVCommand(svc, telemetry),
		Insights:      commands.NewOpenInsightsCommand(svc, telemetry),
		Filters:       commands.NewUpdateFiltersCommand(svc, telemetry),
		Layouts:       commands.NewUpdateLayoutsCommand(svc, telemetry),
		Reset:         commands.NewResetPageCommand(svc, telemetry),
		Locale:        commands.NewSetLocaleCommand(svc, telemetry),
		Refresh:       commands.NewRefreshDataCommand(svc, telemetry),
	}
}

// Mount registers the JSON API on mux. Everything except login requires a
// session.
func (h *Handlers) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/login", h.HandleLogin)
	mux.Handle("POST /api/logout", h.RequireSession(http.HandlerFunc(h.HandleLogout)))
	mux.Handle("GET /api/pages/{page}", h.RequireSession(http.HandlerFunc(h.HandlePage)))
	mux.Handle("PATCH /api/pages/{page}/filters", h.RequireSession(http.HandlerFunc(h.HandleFilters)))
	mux.Handle("PUT /api/pages/{page}/layouts", h.RequireSession(http.HandlerFunc(h.HandleLayouts)))
	mux.Handle("POST /api/pages/{page}/reset", h.RequireSession(http.HandlerFunc(h.HandleReset)))
	mux.Handle("GET /api/pages/{page}/widgets/{widget}", h.RequireSession(http.HandlerFunc(h.HandleWidget)))
	mux.Handle("POST /api/pages/{page}/widgets/{widget}/toggle", h.RequireSession(http.HandlerFunc(h.HandleToggle)))
	mux.Handle("PUT /api/pages/{page}/widgets/{widget}/visualization", h.RequireSession(http.HandlerFunc(h.HandleVisualization)))
	mux.Handle("PUT /api/pages/{page}/widgets/{widget}/config", h.RequireSession(http.HandlerFunc(h.HandleConfigure)))
	mux.Handle("GET /api/pages/{page}/widgets/{widget}/export", h.RequireSession(http.HandlerFunc(h.HandleExport)))
	mux.Handle("POST /api/pages/{page}/widgets/{widget}/insights", h.RequireSession(http.HandlerFunc(h.HandleInsights)))
	mux.Handle("PUT /api/locale", h.RequireSession(http.HandlerFunc(h.HandleLocale)))
	mux.Handle("GET /api/notices", h.RequireSession(http.HandlerFunc(h.HandleNotices)))
	mux.Handle("POST /api/pages/{page}/refresh", h.RequireSession(http.HandlerFunc(h.HandleRefresh)))
}

type viewerKey struct{}

// RequireSession rejects requests without a signed-in user and stores the
// viewer on the request context.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Session == nil {
			h.fail(w, errs.NewUnauthorizedError("login required"))
			return
		}
		viewer, err := h.Session.Viewer()
		if err != nil {
			h.fail(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ViewerFrom returns the viewer stored by RequireSession.
func ViewerFrom(ctx context.Context) (dashboard.ViewerContext, bool) {
	viewer, ok := ctx.Value(viewerKey{}).(dashboard.ViewerContext)
	return viewer, ok
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type redirectResponse struct {
	User     *session.User `json:"user,omitempty"`
	Redirect string        `json:"redirect"`
}

func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if !h.decode(w, r, &payload) {
		return
	}
	if h.Session == nil {
		h.fail(w, errors.New("login requires a session service"))
		return
	}
	user, next, err := h.Session.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, redirectResponse{User: &user, Redirect: next})
}

func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, redirectResponse{Redirect: h.Session.Logout(r.Context())})
}

func (h *Handlers) HandlePage(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	layout, err := h.Page.Query(r.Context(), queries.PageInput{Viewer: viewer, Page: page})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, layout)
}

func (h *Handlers) HandleWidget(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	inst, err := h.Widget.Query(r.Context(), queries.WidgetInput{Viewer: viewer, Page: page, WidgetID: r.PathValue("widget")})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, inst)
}

func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var widgets []string
	err := h.Toggle.Execute(r.Context(), commands.ToggleWidgetInput{
		Actor:    actor(viewer),
		Viewer:   viewer,
		Page:     page,
		WidgetID: r.PathValue("widget"),
		Widgets:  &widgets,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, map[string]any{"widgets": widgets})
}

type visualizationRequest struct {
	Visualization string `json:"visualization"`
}

func (h *Handlers) HandleVisualization(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var payload visualizationRequest
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.Visualization.Execute(r.Context(), commands.ChangeVisualizationInput{
		Actor:         actor(viewer),
		Viewer:        viewer,
		Page:          page,
		WidgetID:      r.PathValue("widget"),
		Visualization: payload.Visualization,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleConfigure(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.Configure.Execute(r.Context(), commands.ConfigureWidgetInput{
		Actor:         actor(viewer),
		Viewer:        viewer,
		Page:          page,
		WidgetID:      r.PathValue("widget"),
		Configuration: payload,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleExport streams the widget table as a CSV attachment.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	widgetID := r.PathValue("widget")
	out := &lazyCSV{w: w, name: widgetID}
	err := h.Export.Execute(r.Context(), commands.ExportCSVInput{
		Actor:    actor(viewer),
		Viewer:   viewer,
		Page:     page,
		WidgetID: widgetID,
		Writer:   out,
	})
	if err != nil {
		if out.started {
			h.logger().Error("csv export interrupted", "widget", widgetID, "error", err)
			return
		}
		h.fail(w, err)
	}
}

func (h *Handlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var snap insights.Snapshot
	err := h.Insights.Execute(r.Context(), commands.OpenInsightsInput{
		Actor:    actor(viewer),
		Viewer:   viewer,
		Page:     page,
		WidgetID: r.PathValue("widget"),
		Snapshot: &snap,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, snap)
}

func (h *Handlers) HandleFilters(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var payload dashboard.FilterUpdate
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.Filters.Execute(r.Context(), commands.UpdateFiltersInput{
		Actor:  actor(viewer),
		Viewer: viewer,
		Page:   page,
		Update: payload,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleLayouts(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	var payload state.Layouts
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.Layouts.Execute(r.Context(), commands.UpdateLayoutsInput{
		Actor:   actor(viewer),
		Viewer:  viewer,
		Page:    page,
		Layouts: payload,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	if err := h.Reset.Execute(r.Context(), commands.ResetPageInput{Actor: actor(viewer), Viewer: viewer, Page: page}); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type localeRequest struct {
	Locale string `json:"locale"`
}

func (h *Handlers) HandleLocale(w http.ResponseWriter, r *http.Request) {
	viewer, _ := ViewerFrom(r.Context())
	var payload localeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	var snap locale.Snapshot
	err := h.Locale.Execute(r.Context(), commands.SetLocaleInput{
		Actor:    actor(viewer),
		Viewer:   viewer,
		Locale:   payload.Locale,
		Snapshot: &snap,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.write(w, http.StatusOK, snap)
}

func (h *Handlers) HandleNotices(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.fail(w, errs.NewValidationError("limit must be a positive number"))
			return
		}
		limit = n
	}
	notices, err := h.Notices.Query(r.Context(), queries.NoticesInput{Limit: limit})
	if err != nil {
		h.fail(w, err)
		return
	}
	if notices == nil {
		notices = []notify.Notice{}
	}
	h.write(w, http.StatusOK, notices)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	viewer, page, ok := h.pageRequest(w, r)
	if !ok {
		return
	}
	if err := h.Refresh.Execute(r.Context(), commands.RefreshDataInput{Actor: actor(viewer), Viewer: viewer, Page: page}); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) pageRequest(w http.ResponseWriter, r *http.Request) (dashboard.ViewerContext, dashboard.Page, bool) {
	viewer, _ := ViewerFrom(r.Context())
	page, err := dashboard.ParsePage(r.PathValue("page"))
	if err != nil {
		h.fail(w, err)
		return viewer, "", false
	}
	return viewer, page, true
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.fail(w, errs.NewValidationError(fmt.Sprintf("invalid request body: %v", err)))
		return false
	}
	return true
}

func (h *Handlers) write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger().Error("encode response", "error", err)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	errs.HandleError(h.logger(), w, Classify(err))
}

func (h *Handlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// Classify maps dashboard errors onto the HTTP error kinds.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrNotAuthenticated):
		return errs.NewUnauthorizedError("login required")
	case errors.Is(err, session.ErrInvalidCredentials):
		return errs.NewUnauthorizedError("invalid credentials")
	case errors.Is(err, dashboard.ErrNoCategoryAccess):
		return errs.NewForbiddenError("no access")
	case errors.Is(err, dashboard.ErrUnknownPage), errors.Is(err, dashboard.ErrUnknownWidget):
		return errs.NewNotFoundError(err.Error())
	case errors.Is(err, dashboard.ErrInvalidVisualization),
		errors.Is(err, dashboard.ErrInvalidConfiguration),
		errors.Is(err, dashboard.ErrNotExportable),
		errors.Is(err, dashboard.ErrLayoutsUnsupported),
		errors.Is(err, state.ErrLastWidget),
		errors.Is(err, filters.ErrUnknownValue),
		errors.Is(err, filters.ErrRangeInverted),
		errors.Is(err, filters.ErrRangeTooLong),
		errors.Is(err, locale.ErrUnsupportedLanguage):
		return errs.NewValidationError(err.Error())
	}
	return err
}

func actor(viewer dashboard.ViewerContext) commands.Actor {
	return commands.Actor{ActorID: viewer.UserID, UserID: viewer.UserID}
}

type lazyCSV struct {
	w       http.ResponseWriter
	name    string
	started bool
}

func (l *lazyCSV) Write(p []byte) (int, error) {
	if !l.started {
		l.started = true
		l.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		l.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", l.name+".csv"))
		l.w.WriteHeader(http.StatusOK)
	}
	return l.w.Write(p)
}
