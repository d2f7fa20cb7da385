package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// ToggleWidgetInput adds or removes a widget from a page.
type ToggleWidgetInput struct {
	Actor
	Viewer   dashboard.ViewerContext `json:"viewer"`
	Page     dashboard.Page          `json:"page"`
	WidgetID string                  `json:"widget_id"`

	// Widgets receives the resulting widget list.
	Widgets *[]string `json:"-"`
}

type toggleService interface {
	ToggleWidget(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID string) ([]string, error)
}

// ToggleWidgetCommand wraps Service.ToggleWidget so transports can flip
// widgets without linking directly against the service.
type ToggleWidgetCommand struct {
	service   toggleService
	telemetry Telemetry
}

// NewToggleWidgetCommand creates a command instance.
func NewToggleWidgetCommand(service toggleService, telemetry Telemetry) *ToggleWidgetCommand {
	return &ToggleWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleWidgetInput] = (*ToggleWidgetCommand)(nil)

// Execute delegates to the dashboard service.
func (c *ToggleWidgetCommand) Execute(ctx context.Context, msg ToggleWidgetInput) error {
	if c.service == nil {
		return errors.New("toggle command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("toggle command requires widget id")
	}
	widgets, err := c.service.ToggleWidget(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.WidgetID)
	if msg.Widgets != nil {
		*msg.Widgets = widgets
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.toggle", map[string]any{
		"page":      string(msg.Page),
		"widget_id": msg.WidgetID,
		"widgets":   len(widgets),
	})
	return nil
}
