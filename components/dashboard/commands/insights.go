package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/insights"
)

// OpenInsightsInput opens the AI panel for a widget.
type OpenInsightsInput struct {
	Actor
	Viewer   dashboard.ViewerContext `json:"viewer"`
	Page     dashboard.Page          `json:"page"`
	WidgetID string                  `json:"widget_id"`

	// Snapshot receives the opened panel.
	Snapshot *insights.Snapshot `json:"-"`
}

type insightsService interface {
	OpenInsights(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID string) (insights.Snapshot, error)
}

// OpenInsightsCommand wraps Service.OpenInsights.
type OpenInsightsCommand struct {
	service   insightsService
	telemetry Telemetry
}

// NewOpenInsightsCommand creates the command.
func NewOpenInsightsCommand(service insightsService, telemetry Telemetry) *OpenInsightsCommand {
	return &OpenInsightsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[OpenInsightsInput] = (*OpenInsightsCommand)(nil)

// Execute opens the panel.
func (c *OpenInsightsCommand) Execute(ctx context.Context, msg OpenInsightsInput) error {
	if c.service == nil {
		return errors.New("insights command requires service")
	}
	snap, err := c.service.OpenInsights(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.WidgetID)
	if err != nil {
		return err
	}
	if msg.Snapshot != nil {
		*msg.Snapshot = snap
	}
	c.telemetry.Record(ctx, "dashboard.command.insights", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
