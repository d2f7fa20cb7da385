package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
)

// ResetPageInput restores the default state of a page.
type ResetPageInput struct {
	Actor
	Viewer dashboard.ViewerContext `json:"viewer"`
	Page   dashboard.Page          `json:"page"`
}

type resetService interface {
	ResetPage(ctx context.Context, viewer dashboard.ViewerContext, page dashboard.Page) error
}

// ResetPageCommand wraps Service.ResetPage.
type ResetPageCommand struct {
	service   resetService
	telemetry Telemetry
}

// NewResetPageCommand creates the command.
func NewResetPageCommand(service resetService, telemetry Telemetry) *ResetPageCommand {
	return &ResetPageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetPageInput] = (*ResetPageCommand)(nil)

// Execute resets the page.
func (c *ResetPageCommand) Execute(ctx context.Context, msg ResetPageInput) error {
	if c.service == nil {
		return errors.New("reset command requires service")
	}
	if err := c.service.ResetPage(msg.Actor.context(ctx), msg.Viewer, msg.Page); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.reset", map[string]any{"page": string(msg.Page)})
	return nil
}
