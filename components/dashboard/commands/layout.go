package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/state"
)

// UpdateLayoutsInput carries grid positions per breakpoint.
type UpdateLayoutsInput struct {
	Actor
	Viewer  dashboard.ViewerContext `json:"viewer"`
	Page    dashboard.Page          `json:"page"`
	Layouts state.Layouts           `json:"layouts"`
}

type layoutService interface {
	UpdateLayouts(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, layouts state.Layouts) (state.Layouts, error)
}

// UpdateLayoutsCommand persists drag and resize results.
type UpdateLayoutsCommand struct {
	service   layoutService
	telemetry Telemetry
}

// NewUpdateLayoutsCommand creates the command.
func NewUpdateLayoutsCommand(service layoutService, telemetry Telemetry) *UpdateLayoutsCommand {
	return &UpdateLayoutsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateLayoutsInput] = (*UpdateLayoutsCommand)(nil)

// Execute merges the layouts into the page.
func (c *UpdateLayoutsCommand) Execute(ctx context.Context, msg UpdateLayoutsInput) error {
	if c.service == nil {
		return errors.New("layout command requires service")
	}
	if len(msg.Layouts) == 0 {
		return errors.New("layout command requires at least one breakpoint")
	}
	if _, err := c.service.UpdateLayouts(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.Layouts); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.layout", map[string]any{
		"page":        string(msg.Page),
		"breakpoints": len(msg.Layouts),
	})
	return nil
}
