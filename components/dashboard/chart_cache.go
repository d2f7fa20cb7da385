package dashboard

import (
	"container/list"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/goliatone/go-retail-dashboard/components/dashboard/persist"
)

// RenderCache memoizes rendered chart HTML keyed by spec digest.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// DefaultChartCacheSize bounds the number of rendered charts kept in memory.
const DefaultChartCacheSize = 256

// ChartCache keeps recently rendered charts. Entries expire after the TTL and
// the least recently used entry is evicted once the size limit is reached.
type ChartCache struct {
	ttl   time.Duration
	limit int
	clock persist.Clock

	mu    sync.Mutex
	order *list.List
	items map[string]*list.Element
}

type chartEntry struct {
	key     string
	html    string
	expires time.Time
}

// ChartCacheOption customizes a ChartCache.
type ChartCacheOption func(*ChartCache)

// WithChartCacheClock replaces the wall clock, mostly for tests.
func WithChartCacheClock(clock persist.Clock) ChartCacheOption {
	return func(c *ChartCache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithChartCacheLimit sets the maximum number of entries.
func WithChartCacheLimit(n int) ChartCacheOption {
	return func(c *ChartCache) {
		if n > 0 {
			c.limit = n
		}
	}
}

// NewChartCache returns a cache whose entries live for ttl. A non-positive
// ttl turns the cache into a pass-through.
func NewChartCache(ttl time.Duration, opts ...ChartCacheOption) *ChartCache {
	c := &ChartCache{
		ttl:   ttl,
		limit: DefaultChartCacheSize,
		clock: persist.RealClock(),
		order: list.New(),
		items: map[string]*list.Element{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrRender returns the cached HTML for key or calls render. Failed renders
// are not stored.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	if html, ok := c.lookup(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.store(key, html)
	return html, nil
}

// Len reports the number of stored entries, expired ones included.
func (c *ChartCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge empties the cache.
func (c *ChartCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = map[string]*list.Element{}
}

func (c *ChartCache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return "", false
	}
	entry := el.Value.(*chartEntry)
	if !c.clock.Now().Before(entry.expires) {
		c.order.Remove(el)
		delete(c.items, key)
		return "", false
	}
	c.order.MoveToFront(el)
	return entry.html, true
}

func (c *ChartCache) store(key, html string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	expires := c.clock.Now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		entry := el.Value.(*chartEntry)
		entry.html, entry.expires = html, expires
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&chartEntry{key: key, html: html, expires: expires})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*chartEntry).key)
	}
}

// contentHash is a short blake3 digest of v's JSON encoding.
func contentHash(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "invalid"
	}
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:16])
}
