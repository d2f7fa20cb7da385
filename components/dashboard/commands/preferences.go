package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-retail-dashboard/components/dashboard"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/locale"
)

// SetLocaleInput switches the interface language.
type SetLocaleInput struct {
	Actor
	Viewer dashboard.ViewerContext `json:"viewer"`
	Locale string                  `json:"locale"`

	// Snapshot receives the resulting language and direction.
	Snapshot *locale.Snapshot `json:"-"`
}

type localeService interface {
	SetLocale(ctx context.Context, viewer dashboard.ViewerContext, code string) (locale.Snapshot, error)
}

// SetLocaleCommand persists the viewer's language preference.
type SetLocaleCommand struct {
	service   localeService
	telemetry Telemetry
}

// NewSetLocaleCommand creates the command.
func NewSetLocaleCommand(service localeService, telemetry Telemetry) *SetLocaleCommand {
	return &SetLocaleCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetLocaleInput] = (*SetLocaleCommand)(nil)

// Execute switches the language.
func (c *SetLocaleCommand) Execute(ctx context.Context, msg SetLocaleInput) error {
	if c.service == nil {
		return errors.New("locale command requires service")
	}
	if msg.Locale == "" {
		return errors.New("locale command requires locale")
	}
	snap, err := c.service.SetLocale(msg.Actor.context(ctx), msg.Viewer, msg.Locale)
	if err != nil {
		return err
	}
	if msg.Snapshot != nil {
		*msg.Snapshot = snap
	}
	c.telemetry.Record(ctx, "dashboard.command.locale", map[string]any{
		"language":  string(snap.Language),
		"direction": string(snap.Direction),
	})
	return nil
}
