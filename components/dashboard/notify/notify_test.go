package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCenterKeepsMostRecent(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	center := NewCenter(CenterOptions{
		Capacity: 2,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return now },
	})
	ctx := context.Background()
	Info(ctx, center, "", "one")
	Warning(ctx, center, "", "two")
	Error(ctx, center, "Login failed", "three")

	recent := center.Recent(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Message)
	assert.Equal(t, LevelError, recent[1].Level)
	assert.NotEmpty(t, recent[1].ID)
	assert.Equal(t, now, recent[1].At)

	last, ok := center.Last()
	require.True(t, ok)
	assert.Equal(t, "Login failed", last.Title)
}

func TestCenterSubscribe(t *testing.T) {
	center := NewCenter(CenterOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	ch, cancel := center.Subscribe()
	Success(context.Background(), center, "Saved", "Dashboard saved")
	got := <-ch
	assert.Equal(t, LevelSuccess, got.Level)
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestNormalizeNil(t *testing.T) {
	assert.NotPanics(t, func() {
		Info(context.Background(), nil, "", "dropped")
	})
}
