package commands

import (
	"context"
	"errors"
	"io"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// ExportCSVInput writes a widget's table to Writer.
type ExportCSVInput struct {
	Actor
	Viewer   dashboard.ViewerContext `json:"viewer"`
	Page     dashboard.Page          `json:"page"`
	WidgetID string                  `json:"widget_id"`
	Writer   io.Writer               `json:"-"`
}

type exportService interface {
	ExportCSV(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, widgetID string, w io.Writer) error
}

// ExportCSVCommand wraps Service.ExportCSV.
type ExportCSVCommand struct {
	service   exportService
	telemetry Telemetry
}

// NewExportCSVCommand creates the command.
func NewExportCSVCommand(service exportService, telemetry Telemetry) *ExportCSVCommand {
	return &ExportCSVCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ExportCSVInput] = (*ExportCSVCommand)(nil)

// Execute streams the CSV.
func (c *ExportCSVCommand) Execute(ctx context.Context, msg ExportCSVInput) error {
	if c.service == nil {
		return errors.New("export command requires service")
	}
	if msg.Writer == nil {
		return errors.New("export command requires writer")
	}
	if err := c.service.ExportCSV(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.WidgetID, msg.Writer); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.export", map[string]any{"widget_id": msg.WidgetID})
	return nil
}
