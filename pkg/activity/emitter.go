package activity

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// DefaultChannel tags events that do not name one.
const DefaultChannel = "dashboard"

// Config controls emission.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter applies defaults and forwards events to hooks.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
}

// NewEmitter builds an emitter. It is disabled when cfg.Enabled is false or
// no non-nil hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	kept := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	return &Emitter{
		hooks:   kept,
		enabled: cfg.Enabled && len(kept) > 0,
		channel: channel,
	}
}

// Enabled reports whether Emit does anything.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit forwards event, filling the default channel.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}

// CaptureHook records events for assertions.
type CaptureHook struct {
	Events []Event
	Err    error
	mu     sync.Mutex
}

// Notify records event and returns Err.
func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, NormalizeEvent(event))
	return h.Err
}

// Snapshot returns a copy of the recorded events.
func (h *CaptureHook) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.Events...)
}

// LogHook writes events to a structured logger at debug level.
type LogHook struct {
	Logger *slog.Logger
}

// Notify logs event.
func (h LogHook) Notify(ctx context.Context, event Event) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "activity",
		"verb", event.Verb,
		"object_type", event.ObjectType,
		"object_id", event.ObjectID,
		"user_id", event.UserID,
		"channel", event.Channel,
	)
	return nil
}
