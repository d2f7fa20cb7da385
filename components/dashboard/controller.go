package dashboard

import (
	"context"
	"errors"
	"io"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

// Renderer executes a named template with data, writing to out when given.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// PageResolver resolves a dashboard page for a viewer.
type PageResolver interface {
	ConfigurePage(ctx context.Context, viewer ViewerContext, page Page) (PageLayout, error)
}

// ControllerOptions configures the page controller.
type ControllerOptions struct {
	Service  PageResolver
	Renderer Renderer
	// Template overrides the page template; it defaults to "<page>.html".
	Template string
}

// Controller renders dashboard pages as HTML or JSON payloads.
type Controller struct {
	opts ControllerOptions
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	return &Controller{opts: opts}
}

// Render resolves the page with widgets in visual order.
func (c *Controller) Render(ctx context.Context, viewer ViewerContext, page Page) (PageLayout, error) {
	if c.opts.Service == nil {
		return PageLayout{Page: page}, nil
	}
	layout, err := c.opts.Service.ConfigurePage(ctx, viewer, page)
	if err != nil {
		return layout, err
	}
	layout.Widgets = applyOrderOverride(layout.Widgets, visualOrder(layout.Layouts, state.BreakpointLarge))
	return layout, nil
}

// LayoutPayload returns the template data of page.
func (c *Controller) LayoutPayload(ctx context.Context, viewer ViewerContext, page Page) (map[string]any, error) {
	layout, err := c.Render(ctx, viewer, page)
	if err != nil {
		return nil, err
	}
	dir := "ltr"
	if isRTL(viewer.Locale) {
		dir = "rtl"
	}
	return map[string]any{
		"page":       string(layout.Page),
		"viewer":     viewer,
		"locale":     viewer.Locale,
		"dir":        dir,
		"widgets":    layout.Widgets,
		"layouts":    layout.Layouts,
		"filters":    layout.Filters,
		"catalog":    layout.Catalog,
		"is_loading": layout.Loading,
	}, nil
}

// RenderTemplate renders page through the configured template renderer.
func (c *Controller) RenderTemplate(ctx context.Context, viewer ViewerContext, page Page, out io.Writer) error {
	if c.opts.Renderer == nil {
		return errors.New("dashboard: renderer not configured")
	}
	payload, err := c.LayoutPayload(ctx, viewer, page)
	if err != nil {
		return err
	}
	name := c.opts.Template
	if name == "" {
		name = string(page) + ".html"
	}
	_, err = c.opts.Renderer.Render(name, payload, out)
	return err
}
