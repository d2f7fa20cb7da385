package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPageResolver struct {
	layout PageLayout
	err    error
	pages  []Page
}

func (s *stubPageResolver) ConfigurePage(_ context.Context, _ ViewerContext, page Page) (PageLayout, error) {
	s.pages = append(s.pages, page)
	return s.layout, s.err
}

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	service := &stubPageResolver{
		layout: PageLayout{
			Page: PagePerformance,
			Widgets: []WidgetInstance{
				{ID: "sales-value-metric", DefinitionID: "sales-value-metric", Metadata: map[string]any{"data": WidgetData{"value": 42}}},
			},
		},
	}
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{
		Service:  service,
		Renderer: renderer,
	})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), ViewerContext{UserID: "user"}, PagePerformance, &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if renderer.lastTemplate != "performance.html" {
		t.Fatalf("expected performance template to render, got %s", renderer.lastTemplate)
	}
	if buf.Len() == 0 {
		t.Fatalf("expected rendered output")
	}
	assert.Equal(t, "ltr", renderer.lastPayload["dir"])
	assert.Equal(t, []Page{PagePerformance}, service.pages)
}

func TestControllerTemplateOverrideAndDirection(t *testing.T) {
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{
		Service:  &stubPageResolver{layout: PageLayout{Page: PageCharts}},
		Renderer: renderer,
		Template: "custom.html",
	})

	require.NoError(t, controller.RenderTemplate(context.Background(), ViewerContext{UserID: "u", Locale: "ar"}, PageCharts, io.Discard))
	assert.Equal(t, "custom.html", renderer.lastTemplate)
	assert.Equal(t, "rtl", renderer.lastPayload["dir"])
	assert.Equal(t, "charts", renderer.lastPayload["page"])
}

func TestControllerOrdersWidgetsByGridPosition(t *testing.T) {
	service := &stubPageResolver{
		layout: PageLayout{
			Page: PagePerformance,
			Widgets: []WidgetInstance{
				{ID: "a"}, {ID: "b"}, {ID: "c"},
			},
			Layouts: state.Layouts{
				state.BreakpointLarge: {
					{I: "a", X: 6, Y: 0},
					{I: "b", X: 0, Y: 2},
					{I: "c", X: 0, Y: 0},
				},
			},
		},
	}
	controller := NewController(ControllerOptions{Service: service})

	layout, err := controller.Render(context.Background(), ViewerContext{UserID: "u"}, PagePerformance)
	require.NoError(t, err)
	ids := make([]string, 0, len(layout.Widgets))
	for _, w := range layout.Widgets {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestControllerPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	controller := NewController(ControllerOptions{
		Service:  &stubPageResolver{err: boom},
		Renderer: &stubRenderer{},
	})
	err := controller.RenderTemplate(context.Background(), ViewerContext{}, PagePerformance, io.Discard)
	assert.ErrorIs(t, err, boom)

	err = NewController(ControllerOptions{}).RenderTemplate(context.Background(), ViewerContext{}, PagePerformance, io.Discard)
	assert.Error(t, err)
}

func TestApplyOrderOverrideKeepsUnlistedWidgets(t *testing.T) {
	widgets := []WidgetInstance{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := applyOrderOverride(widgets, []string{"c", "c", "missing"})
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "b", got[2].ID)
}

func TestEmbeddedTemplatesPresent(t *testing.T) {
	for _, name := range []string{
		"templates/layout.html",
		"templates/performance.html",
		"templates/charts.html",
		"templates/widgets/widget.html",
		"templates/widgets/metric.html",
		"templates/widgets/chart.html",
		"templates/widgets/table.html",
	} {
		_, err := fs.Stat(embeddedTemplates, name)
		assert.NoError(t, err, name)
	}
}
