package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// RefreshDataInput reloads the figures of one page.
type RefreshDataInput struct {
	Actor
	Viewer dashboard.ViewerContext `json:"viewer"`
	Page   dashboard.Page          `json:"page"`
}

type refreshService interface {
	RefreshData(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page) error
}

// RefreshDataCommand wraps Service.RefreshData.
type RefreshDataCommand struct {
	service   refreshService
	telemetry Telemetry
}

// NewRefreshDataCommand creates the command.
func NewRefreshDataCommand(service refreshService, telemetry Telemetry) *RefreshDataCommand {
	return &RefreshDataCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshDataInput] = (*RefreshDataCommand)(nil)

// Execute validates the page before touching the service.
func (c *RefreshDataCommand) Execute(ctx context.Context, msg RefreshDataInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	if !msg.Page.Valid() {
		return dashboard.ErrUnknownPage
	}
	if err := c.service.RefreshData(msg.Actor.context(ctx), msg.Viewer, msg.Page); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.refresh", map[string]any{"page": string(msg.Page)})
	return nil
}
