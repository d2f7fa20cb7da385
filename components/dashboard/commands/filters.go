package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// UpdateFiltersInput applies a filter patch to one page.
type UpdateFiltersInput struct {
	Actor
	Viewer dashboard.ViewerContext `json:"viewer"`
	Page   dashboard.Page          `json:"page"`
	Update dashboard.FilterUpdate  `json:"filters"`
}

type filterService interface {
	UpdateFilters(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page, update dashboard.FilterUpdate) error
}

// UpdateFiltersCommand wraps Service.UpdateFilters.
type UpdateFiltersCommand struct {
	service   filterService
	telemetry Telemetry
}

// NewUpdateFiltersCommand creates the command.
func NewUpdateFiltersCommand(service filterService, telemetry Telemetry) *UpdateFiltersCommand {
	return &UpdateFiltersCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateFiltersInput] = (*UpdateFiltersCommand)(nil)

// Execute applies the patch.
func (c *UpdateFiltersCommand) Execute(ctx context.Context, msg UpdateFiltersInput) error {
	if c.service == nil {
		return errors.New("filters command requires service")
	}
	if msg.Update.Performance == nil && msg.Update.Charts == nil {
		return errors.New("filters command requires a patch")
	}
	if err := c.service.UpdateFilters(msg.Actor.context(ctx), msg.Viewer, msg.Page, msg.Update); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.filters", map[string]any{"page": string(msg.Page)})
	return nil
}
