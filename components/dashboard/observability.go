package dashboard

import "context"

// Telemetry receives dashboard events such as page resolution and intents.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// ActivityContext identifies who performed an intent. Empty fields fall back
// to the viewer.
type ActivityContext struct {
	ActorID  string
	UserID   string
	TenantID string
}

type activityContextKey struct{}

// ContextWithActivity attaches the actor of the current request to ctx.
func ContextWithActivity(ctx context.Context, meta ActivityContext) context.Context {
	return context.WithValue(ctx, activityContextKey{}, meta)
}

// ActivityFromContext returns the actor stored by ContextWithActivity.
func ActivityFromContext(ctx context.Context) (ActivityContext, bool) {
	meta, ok := ctx.Value(activityContextKey{}).(ActivityContext)
	return meta, ok
}
