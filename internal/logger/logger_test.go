package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerWritesSeverityAndData(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, slog.LevelInfo)).With("store", "performance-dashboard-state")

	log.Debug("hidden")
	log.Warn("failed to save state", "error", errors.New("disk full"))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "WARNING", event["severity"])
	assert.Equal(t, "failed to save state", event["message"])
	data := event["data"].(map[string]any)
	assert.Equal(t, "performance-dashboard-state", data["store"])
	assert.Equal(t, "disk full", data["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestContextLogger(t *testing.T) {
	ctx := context.Background()
	assert.Same(t, slog.Default(), FromContext(ctx))

	log, ctx := With(ctx, "user_id", "1")
	assert.Same(t, log, FromContext(ctx))
}
