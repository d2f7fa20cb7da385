package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// ChangeVisualizationInput switches how a chart widget renders.
type ChangeVisualizationInput struct {
	Actor
	Viewer        dashboard.ViewerContext `json:"viewer"`
	Page          dashboard.Page          `json:"page"`
	WidgetID      string                  `json:"widget_id"`
	Visualization string                  `json:"visualization"`
}

// ConfigureWidgetInput captures widget configuration payloads.
type ConfigureWidgetInput struct {
	Actor
	Viewer        dashboard.ViewerContext `json:"viewer"`
	Page          dashboard.Page          `json:"page"`
	WidgetID      string                  `json:"widget_id"`
	Configuration map[string]any          `json:"configuration"`
}

type updateService interface {
	ChangeVisualization(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID, visualization string) error
	ConfigureWidget(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID string, config map[string]any) error
}

// ChangeVisualizationCommand wraps Service.ChangeVisualization.
type ChangeVisualizationCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewChangeVisualizationCommand creates the command.
func NewChangeVisualizationCommand(service updateService, telemetry Telemetry) *ChangeVisualizationCommand {
	return &ChangeVisualizationCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ChangeVisualizationInput] = (*ChangeVisualizationCommand)(nil)

// Execute changes the visualization.
func (c *ChangeVisualizationCommand) Execute(ctx context.Context, msg ChangeVisualizationInput) error {
	if c.service == nil {
		return errors.New("visualization command requires service")
	}
	if msg.WidgetID == "" || msg.Visualization == "" {
		return errors.New("visualization command requires widget id and visualization")
	}
	if err := c.service.ChangeVisualization(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.WidgetID, msg.Visualization); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.visualization", map[string]any{
		"widget_id":     msg.WidgetID,
		"visualization": msg.Visualization,
	})
	return nil
}

// ConfigureWidgetCommand wraps Service.ConfigureWidget.
type ConfigureWidgetCommand struct {
	service   updateService
	telemetry Telemetry
}

// NewConfigureWidgetCommand creates the command.
func NewConfigureWidgetCommand(service updateService, telemetry Telemetry) *ConfigureWidgetCommand {
	return &ConfigureWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ConfigureWidgetInput] = (*ConfigureWidgetCommand)(nil)

// Execute updates widget configuration.
func (c *ConfigureWidgetCommand) Execute(ctx context.Context, msg ConfigureWidgetInput) error {
	if c.service == nil {
		return errors.New("configure command requires service")
	}
	if msg.WidgetID == "" {
		return errors.New("configure command requires widget id")
	}
	if err := c.service.ConfigureWidget(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.WidgetID, msg.Configuration); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.configure", map[string]any{
		"widget_id": msg.WidgetID,
		"keys":      len(msg.Configuration),
	})
	return nil
}
