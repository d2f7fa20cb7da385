package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backendsUnderTest(t *testing.T) map[string]Backend {
	t.Helper()
	fileBackend, err := NewFileBackend(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	sqliteBackend, err := OpenSQLiteBackend(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteBackend.Close() })
	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   fileBackend,
		"sqlite": sqliteBackend,
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := backend.Get(ctx, "performance-dashboard-state")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, backend.Set(ctx, "performance-dashboard-state", []byte(`{"version":1}`)))
			require.NoError(t, backend.Set(ctx, "performance-dashboard-state", []byte(`{"version":1,"a":2}`)))

			raw, ok, err := backend.Get(ctx, "performance-dashboard-state")
			require.NoError(t, err)
			require.True(t, ok)
			assert.JSONEq(t, `{"version":1,"a":2}`, string(raw))

			require.NoError(t, backend.Delete(ctx, "performance-dashboard-state"))
			require.NoError(t, backend.Delete(ctx, "performance-dashboard-state"))
			_, ok, err = backend.Get(ctx, "performance-dashboard-state")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestFileBackendEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	require.NoError(t, backend.Set(context.Background(), "../escape/key", []byte(`{}`)))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "..%2Fescape%2Fkey.json", entries[0].Name())
}

func TestSQLiteBackendReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	backend, err := OpenSQLiteBackend(path)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), "highcharts-performance-state", []byte(`{"version":1}`)))
	require.NoError(t, backend.Close())

	reopened, err := OpenSQLiteBackend(path)
	require.NoError(t, err)
	defer reopened.Close()
	raw, ok, err := reopened.Get(context.Background(), "highcharts-performance-state")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"version":1}`, string(raw))
}

func TestStoreOverFileBackend(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	clock := NewFakeClock(time.Now())
	store := newSampleStore(t, backend, clock)

	_, err = store.Update(func(s *sampleState) error {
		s.Widgets = []string{"only"}
		return nil
	})
	require.NoError(t, err)
	clock.Advance(DefaultDebounce)

	reloaded := newSampleStore(t, backend, clock).Load(context.Background())
	assert.Equal(t, []string{"only"}, reloaded.Widgets)
}
