package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterDefaultsChannelAndEmits(t *testing.T) {
	capture := &CaptureHook{}
	em := NewEmitter(Hooks{capture}, Config{Enabled: true})
	require.True(t, em.Enabled())

	err := em.Emit(context.Background(), Event{
		Verb:       VerbWidgetToggle,
		ObjectType: "widget",
		ObjectID:   "sales-value-metric",
	})
	require.NoError(t, err)

	events := capture.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, DefaultChannel, events[0].Channel)
}

func TestEmitterDisabled(t *testing.T) {
	assert.False(t, NewEmitter(nil, Config{Enabled: true}).Enabled())
	assert.False(t, NewEmitter(Hooks{nil}, Config{Enabled: true}).Enabled())
	assert.False(t, NewEmitter(Hooks{&CaptureHook{}}, Config{}).Enabled())

	var em *Emitter
	assert.NoError(t, em.Emit(context.Background(), Event{Verb: "x"}))
}

func TestEmitterJoinsHookErrors(t *testing.T) {
	boom := errors.New("boom")
	em := NewEmitter(Hooks{&CaptureHook{Err: boom}, LogHook{}}, Config{Enabled: true, Channel: "charts"})
	err := em.Emit(context.Background(), Event{Verb: VerbPageReset, ObjectType: "page", ObjectID: "charts"})
	assert.ErrorIs(t, err, boom)
}
