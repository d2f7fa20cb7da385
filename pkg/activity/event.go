package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verbs emitted by the dashboard for user intents and state changes.
const (
	VerbWidgetToggle        = "dashboard.widget.toggle"
	VerbVisualizationChange = "dashboard.widget.visualization"
	VerbWidgetExport        = "dashboard.widget.export"
	VerbInsightsOpen        = "dashboard.insights.open"
	VerbFiltersUpdate       = "dashboard.filters.update"
	VerbLayoutUpdate        = "dashboard.layout.update"
	VerbPageReset           = "dashboard.page.reset"
	VerbLocaleChange        = "dashboard.locale.change"
	VerbDataRefresh         = "dashboard.data.refresh"
	VerbLogin               = "session.login"
	VerbLogout              = "session.logout"
)

// Event describes something a viewer did on the dashboard. IDs are plain
// strings so callers are not tied to a UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook receives normalized events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans an event out to every hook.
type Hooks []Hook

// Enabled reports whether any hook is registered.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes the event and forwards it. Events without a verb, object
// type, or object id are dropped. Hook errors are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, copies the metadata and stamps
// OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	out := event
	out.Verb = strings.TrimSpace(event.Verb)
	out.ActorID = strings.TrimSpace(event.ActorID)
	out.UserID = strings.TrimSpace(event.UserID)
	out.TenantID = strings.TrimSpace(event.TenantID)
	out.ObjectType = strings.TrimSpace(event.ObjectType)
	out.ObjectID = strings.TrimSpace(event.ObjectID)
	out.Channel = strings.TrimSpace(event.Channel)
	out.DefinitionCode = strings.TrimSpace(event.DefinitionCode)
	out.Metadata = CloneMetadata(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func (e Event) valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// CloneMetadata returns a shallow copy, or nil for an empty map.
func CloneMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
