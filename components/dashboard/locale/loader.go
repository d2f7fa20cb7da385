package locale

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

// DefaultPattern is the bundle path template.
const DefaultPattern = "locales/{{lng}}/{{ns}}.json"

// DefaultNamespace is the namespace loaded when none is given.
const DefaultNamespace = "common"

// ErrBundleNotFound reports a missing translation bundle.
var ErrBundleNotFound = errors.New("locale: bundle not found")

//go:embed locales/*/*.json
var embeddedBundles embed.FS

// Loader fetches a flattened translation bundle for a language and namespace.
type Loader interface {
	Load(ctx context.Context, lng, ns string) (map[string]string, error)
}

// LoaderFunc adapts a function into a Loader.
type LoaderFunc func(ctx context.Context, lng, ns string) (map[string]string, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, lng, ns string) (map[string]string, error) {
	return f(ctx, lng, ns)
}

// BundlePath expands pattern for lng and ns.
func BundlePath(pattern, lng, ns string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return strings.NewReplacer("{{lng}}", lng, "{{ns}}", ns).Replace(pattern)
}

// FSLoader reads bundles from a file system.
type FSLoader struct {
	FS      fs.FS
	Pattern string
}

// EmbeddedLoader serves the bundles compiled into the binary.
func EmbeddedLoader() FSLoader {
	return FSLoader{FS: embeddedBundles, Pattern: DefaultPattern}
}

// Load reads and flattens one bundle.
func (l FSLoader) Load(ctx context.Context, lng, ns string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.FS == nil {
		return nil, fmt.Errorf("locale: loader has no file system")
	}
	path := BundlePath(l.Pattern, lng, ns)
	raw, err := fs.ReadFile(l.FS, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("locale: read %s: %w", path, err)
	}
	return ParseBundle(raw)
}

// HTTPLoader fetches bundles from a base URL.
type HTTPLoader struct {
	BaseURL string
	Pattern string
	Client  *http.Client
}

// Load fetches and flattens one bundle.
func (l HTTPLoader) Load(ctx context.Context, lng, ns string) (map[string]string, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	url := strings.TrimRight(l.BaseURL, "/") + "/" + BundlePath(l.Pattern, lng, ns)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("locale: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("locale: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("locale: fetch %s: status %d", url, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("locale: read %s: %w", url, err)
	}
	return ParseBundle(raw)
}

// ParseBundle decodes a JSON bundle that may carry comments and trailing
// commas, flattening nested objects to dotted keys.
func ParseBundle(raw []byte) (map[string]string, error) {
	var doc map[string]any
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return nil, fmt.Errorf("locale: parse bundle: %w", err)
	}
	out := map[string]string{}
	flatten("", doc, out)
	return out, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		case string:
			out[full] = v
		case nil:
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}
