package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksNotifyNormalizesAndSkipsInvalid(t *testing.T) {
	var got []Event
	hooks := Hooks{
		HookFunc(func(_ context.Context, evt Event) error {
			got = append(got, evt)
			return nil
		}),
	}

	require.NoError(t, hooks.Notify(context.Background(), Event{}))
	assert.Empty(t, got)

	require.NoError(t, hooks.Notify(context.Background(), Event{
		Verb:       " " + VerbFiltersUpdate + " ",
		ObjectType: " page ",
		ObjectID:   " performance ",
	}))
	require.Len(t, got, 1)
	assert.Equal(t, VerbFiltersUpdate, got[0].Verb)
	assert.Equal(t, "page", got[0].ObjectType)
	assert.Equal(t, "performance", got[0].ObjectID)
	assert.False(t, got[0].OccurredAt.IsZero())
}

func TestNormalizeEventClones(t *testing.T) {
	meta := map[string]any{"k": "v"}
	now := time.Now()

	n := NormalizeEvent(Event{
		Verb:           "verb",
		ObjectType:     "obj",
		ObjectID:       "id",
		Metadata:       meta,
		DefinitionCode: " sales-value ",
		OccurredAt:     now,
	})

	n.Metadata["k"] = "changed"
	assert.Equal(t, "v", meta["k"])

	assert.Equal(t, "sales-value", n.DefinitionCode)
	assert.True(t, n.OccurredAt.Equal(now))

	assert.Nil(t, NormalizeEvent(Event{}).Metadata)
}
