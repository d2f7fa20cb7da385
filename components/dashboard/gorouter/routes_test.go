package gorouter

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	router "github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/httpapi"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
	"github.com/goliatone/go-retail-dashboard/internal/errs"
)

func TestRegisterValidatesConfig(t *testing.T) {
	assert.Error(t, Register(Config[struct{}]{}))
	assert.Error(t, Register(Config[struct{}]{Router: newMockRouter()}))
	assert.Error(t, Register(Config[struct{}]{
		Router:     newMockRouter(),
		Controller: dashboard.NewController(dashboard.ControllerOptions{}),
	}), "no way to resolve the viewer")
}

func TestHTMLRouteRequiresSession(t *testing.T) {
	mock, app, renderer := registerApp(t)

	ctx := newMockContext(map[string]string{"page": "performance"}, nil)
	require.NoError(t, mock.call(t, "GET:/dashboard/:page", ctx))
	assert.Equal(t, 303, ctx.status)
	assert.Equal(t, "/login", ctx.headers["Location"])
	assert.Zero(t, renderer.calls)

	_, _, err := app.Login(context.Background(), "demo@datacue.com", "password")
	require.NoError(t, err)

	ctx = newMockContext(map[string]string{"page": "performance"}, nil)
	require.NoError(t, mock.call(t, "GET:/dashboard/:page", ctx))
	assert.Equal(t, "text/html; charset=utf-8", ctx.headers["Content-Type"])
	assert.Equal(t, "ok", string(ctx.body))
	assert.Equal(t, []string{"performance.html"}, renderer.names)
}

func TestLoginAndToggleRoutes(t *testing.T) {
	mock, app, _ := registerApp(t)

	ctx := newMockContext(nil, []byte(`{"email":"demo@datacue.com","password":"password"}`))
	require.NoError(t, mock.call(t, "POST:/login", ctx))
	assert.Equal(t, 200, ctx.status)
	assert.True(t, app.Session.IsAuthenticated())

	ctx = newMockContext(map[string]string{"page": "performance", "widget": "top-skus-table"}, nil)
	require.NoError(t, mock.call(t, "POST:/dashboard/:page/widgets/:widget/toggle", ctx))
	assert.Equal(t, 200, ctx.status)
	var body map[string][]string
	require.NoError(t, json.Unmarshal(ctx.body, &body))
	assert.Contains(t, body["widgets"], "top-skus-table")

	ctx = newMockContext(map[string]string{"page": "performance", "widget": "nope"}, nil)
	require.NoError(t, mock.call(t, "POST:/dashboard/:page/widgets/:widget/toggle", ctx))
	assert.Equal(t, 404, ctx.status)

	ctx = newMockContext(nil, nil)
	require.NoError(t, mock.call(t, "POST:/logout", ctx))
	assert.False(t, app.Session.IsAuthenticated())
}

func TestAPIRoutesMapErrors(t *testing.T) {
	mock, app, _ := registerApp(t)

	ctx := newMockContext(map[string]string{"page": "charts"}, nil)
	require.NoError(t, mock.call(t, "GET:/dashboard/:page/_layout", ctx))
	assert.Equal(t, 401, ctx.status)

	_, _, err := app.Login(context.Background(), "demo@datacue.com", "password")
	require.NoError(t, err)

	ctx = newMockContext(map[string]string{"page": "charts", "widget": "sales-chart"}, []byte(`{"visualization":"radar"}`))
	require.NoError(t, mock.call(t, "PUT:/dashboard/:page/widgets/:widget/visualization", ctx))
	assert.Equal(t, 400, ctx.status)
	var failure errs.ErrorResponse
	require.NoError(t, json.Unmarshal(ctx.body, &failure))
	assert.Equal(t, "invalid_input", failure.Code)

	ctx = newMockContext(map[string]string{"page": "charts"}, []byte(`{`))
	require.NoError(t, mock.call(t, "PATCH:/dashboard/:page/filters", ctx))
	assert.Equal(t, 400, ctx.status)
}

func TestExportRoute(t *testing.T) {
	mock, app, _ := registerApp(t)
	_, _, err := app.Login(context.Background(), "demo@datacue.com", "password")
	require.NoError(t, err)

	ctx := newMockContext(map[string]string{"page": "performance", "widget": "detailed-skus-table"}, nil)
	require.NoError(t, mock.call(t, "GET:/dashboard/:page/widgets/:widget/export", ctx))
	assert.Equal(t, "text/csv; charset=utf-8", ctx.headers["Content-Type"])
	assert.Equal(t, `attachment; filename="detailed-skus-table.csv"`, ctx.headers["Content-Disposition"])
	assert.Contains(t, string(ctx.body), "SKU,Product Name")
}

func TestRefreshRoute(t *testing.T) {
	mock, app, _ := registerApp(t)
	_, _, err := app.Login(context.Background(), "demo@datacue.com", "password")
	require.NoError(t, err)

	ctx := newMockContext(map[string]string{"page": "charts"}, nil)
	require.NoError(t, mock.call(t, "POST:/dashboard/:page/refresh", ctx))
	assert.Equal(t, 202, ctx.status)
	assert.True(t, app.Service.Charts().State().IsLoading)
}

func TestWebSocketRegistered(t *testing.T) {
	mock, _, _ := registerApp(t)
	_, ok := mock.ws["/ws"]
	assert.True(t, ok)
}

func TestCustomRoutesAndBasePath(t *testing.T) {
	mock := newMockRouter()
	err := Register(Config[struct{}]{
		Router:         mock,
		Controller:     dashboard.NewController(dashboard.ControllerOptions{}),
		BasePath:       "/retail",
		Routes:         RouteConfig{HTML: "/home/:page"},
		ViewerResolver: func(router.Context) (dashboard.ViewerContext, error) { return dashboard.ViewerContext{}, nil },
	})
	require.NoError(t, err)
	assert.Contains(t, mock.routes, "GET:/retail/home/:page")
	assert.Contains(t, mock.routes, "GET:/retail/dashboard/:page/_layout")
	assert.NotContains(t, mock.routes, "POST:/retail/login", "session routes need the API handlers")
}

func registerApp(t *testing.T) (*mockRouter, *dashboard.App, *stubRenderer) {
	t.Helper()
	app, err := dashboard.Bootstrap(context.Background(), dashboard.BootstrapOptions{
		Clock:  persist.NewFakeClock(time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)),
		Source: dashboard.DemoRetailSource{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	renderer := &stubRenderer{}
	mock := newMockRouter()
	err = Register(Config[struct{}]{
		Router:     mock,
		Controller: dashboard.NewController(dashboard.ControllerOptions{Service: app.Service, Renderer: renderer}),
		API:        httpapi.NewHandlers(app, nil, nil),
		Broadcast:  app.Broadcast,
	})
	require.NoError(t, err)
	return mock, app, renderer
}

// --- Test helpers ---

type mockRouter struct {
	router.Router[struct{}]
	prefix string
	routes map[string]router.HandlerFunc
	ws     map[string]func(router.WebSocketContext) error
}

func newMockRouter() *mockRouter {
	return &mockRouter{
		routes: map[string]router.HandlerFunc{},
		ws:     map[string]func(router.WebSocketContext) error{},
	}
}

func (m *mockRouter) call(t *testing.T, key string, ctx *mockContext) error {
	t.Helper()
	h, ok := m.routes[key]
	require.True(t, ok, "route %s not registered", key)
	return h(ctx)
}

func (m *mockRouter) Group(prefix string) router.Router[struct{}] {
	return &mockRouter{
		prefix: m.prefix + prefix,
		routes: m.routes,
		ws:     m.ws,
	}
}

func (m *mockRouter) record(method, path string, handler router.HandlerFunc) {
	m.routes[method+":"+m.prefix+path] = handler
}

func (m *mockRouter) Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.GET), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.POST), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.PUT), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) Patch(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo {
	m.record(string(router.PATCH), path, handler)
	return mockRouteInfo{}
}

func (m *mockRouter) WebSocket(path string, cfg router.WebSocketConfig, handler func(router.WebSocketContext) error) router.RouteInfo {
	m.ws[m.prefix+path] = handler
	return mockRouteInfo{}
}

type mockRouteInfo struct {
	router.RouteInfo
}

func (mockRouteInfo) SetName(string) router.RouteInfo { return mockRouteInfo{} }

type mockContext struct {
	router.Context
	ctx     context.Context
	headers map[string]string
	request []byte
	body    []byte
	params  map[string]string
	query   map[string]string
	status  int
}

func newMockContext(params map[string]string, body []byte) *mockContext {
	if params == nil {
		params = map[string]string{}
	}
	return &mockContext{
		ctx:     context.Background(),
		headers: map[string]string{},
		request: body,
		params:  params,
		query:   map[string]string{},
	}
}

func (m *mockContext) Context() context.Context { return m.ctx }

func (m *mockContext) SetHeader(k, v string) router.Context {
	m.headers[k] = v
	return m
}

func (m *mockContext) Send(b []byte) error {
	m.body = append([]byte{}, b...)
	return nil
}

func (m *mockContext) JSON(code int, v any) error {
	m.status = code
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.body = data
	return nil
}

func (m *mockContext) Body() []byte { return m.request }

func (m *mockContext) Param(name string, defaultValue ...string) string {
	if v, ok := m.params[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *mockContext) Query(name string, defaultValue ...string) string {
	if v, ok := m.query[name]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

type stubRenderer struct {
	calls int
	names []string
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	s.names = append(s.names, name)
	if len(out) > 0 && out[0] != nil {
		_, _ = out[0].Write([]byte("ok"))
	}
	return "ok", nil
}
