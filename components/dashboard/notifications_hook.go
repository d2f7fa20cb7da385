package dashboard

import (
	"context"
	"errors"
)

// RefreshHooks fans a widget event out to several hooks, e.g. a broadcast hook
// plus an external notifications client.
type RefreshHooks []RefreshHook

// WidgetUpdated calls every hook and joins their errors.
func (h RefreshHooks) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	var err error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		err = errors.Join(err, hook.WidgetUpdated(ctx, event))
	}
	return err
}

// NotificationsClient defines the minimal interface needed from an external
// notifications service.
type NotificationsClient interface {
	PublishDashboardEvent(ctx context.Context, event WidgetEvent) error
}

// NotificationsHook forwards widget events to an external notifications client.
type NotificationsHook struct {
	Client NotificationsClient
	// Reasons limits forwarding to these event reasons when set.
	Reasons []string
}

// WidgetUpdated publishes events to the configured notifications client.
func (h *NotificationsHook) WidgetUpdated(ctx context.Context, event WidgetEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	if len(h.Reasons) > 0 && !containsString(h.Reasons, event.Reason) {
		return nil
	}
	return h.Client.PublishDashboardEvent(ctx, event)
}

func containsString(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
