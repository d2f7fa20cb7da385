package locale

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/notify"
	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

func TestParse(t *testing.T) {
	cases := map[string]Language{
		"en":    English,
		"EN":    English,
		"en-US": English,
		"AR":    Arabic,
		"ar-SA": Arabic,
	}
	for code, want := range cases {
		got, err := Parse(code)
		require.NoError(t, err, code)
		assert.Equal(t, want, got, code)
	}

	_, err := Parse("fr")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	_, err = Parse("")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, LTR, English.Direction())
	assert.Equal(t, RTL, Arabic.Direction())
	assert.Equal(t, "AR", Arabic.Code())
}

func TestParseBundleFlattensAndStripsComments(t *testing.T) {
	bundle, err := ParseBundle([]byte(`{
		// comment
		"common": {"info": "Info", "count": 3,},
		"top": "level"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Info", bundle["common.info"])
	assert.Equal(t, "3", bundle["common.count"])
	assert.Equal(t, "level", bundle["top"])
}

func TestEmbeddedBundles(t *testing.T) {
	tr := NewTranslator(TranslatorOptions{})
	ctx := context.Background()

	assert.Equal(t, "Info", tr.T(ctx, English, "common.info", nil))
	assert.Equal(t, "معلومات", tr.T(ctx, Arabic, "common.info", nil))
	assert.Equal(t, "Welcome back, Demo User", tr.T(ctx, English, "auth.welcome", map[string]any{"name": "Demo User"}))
}

func TestTranslateFallbacks(t *testing.T) {
	loader := FSLoader{FS: fstest.MapFS{
		"locales/en/common.json": {Data: []byte(`{"only":{"english":"English text"}}`)},
		"locales/ar/common.json": {Data: []byte(`{}`)},
	}}
	tr := NewTranslator(TranslatorOptions{Loader: loader})
	ctx := context.Background()

	got, err := tr.Translate(ctx, "only.english", "ar", nil)
	require.NoError(t, err)
	assert.Equal(t, "English text", got)

	got, err = tr.Translate(ctx, "missing.key", "ar", nil)
	assert.ErrorIs(t, err, ErrMissingTranslation)
	assert.Equal(t, "missing.key", got)
}

func TestTranslateFetchFailureFallsBackToKey(t *testing.T) {
	loader := LoaderFunc(func(context.Context, string, string) (map[string]string, error) {
		return nil, errors.New("offline")
	})
	tr := NewTranslator(TranslatorOptions{Loader: loader})
	got, err := tr.Translate(context.Background(), "common.info", "en", nil)
	assert.Error(t, err)
	assert.Equal(t, "common.info", got)
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/locales/ar/common.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"common":{"info":"معلومات"}}`))
	}))
	defer srv.Close()

	loader := HTTPLoader{BaseURL: srv.URL}
	bundle, err := loader.Load(context.Background(), "ar", "common")
	require.NoError(t, err)
	assert.Equal(t, "معلومات", bundle["common.info"])

	_, err = loader.Load(context.Background(), "fr", "common")
	assert.ErrorIs(t, err, ErrBundleNotFound)
}

func TestSetLocale(t *testing.T) {
	center := notify.NewCenter(notify.CenterOptions{})
	backend := persist.NewMemoryBackend()
	state := NewState(Options{Notifier: center, Backend: backend})
	ctx := context.Background()

	updates, cancel := state.Subscribe()
	defer cancel()

	snap, err := state.SetLocale(ctx, "AR")
	require.NoError(t, err)
	assert.Equal(t, Snapshot{Language: Arabic, Direction: RTL}, snap)
	assert.Equal(t, snap, <-updates)

	last, ok := center.Last()
	require.True(t, ok)
	assert.Equal(t, "معلومات: تم تغيير اللغة إلى العربية", last.Message)

	_, err = state.SetLocale(ctx, "de")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Equal(t, Arabic, state.Snapshot().Language)

	restored := NewState(Options{Backend: backend}).Restore(ctx)
	assert.Equal(t, Arabic, restored.Language)
}
