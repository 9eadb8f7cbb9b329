package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// DefaultLayoutCacheEntries bounds the number of cached layouts.
const DefaultLayoutCacheEntries = 256

// LayoutCache memoizes generated mobile layouts keyed by the desktop arrangement.
type LayoutCache struct {
	ttl        time.Duration
	now        func() time.Time
	maxEntries int
	mu         sync.RWMutex
	entries    map[string]cachedLayout
}

type cachedLayout struct {
	widgets []Widget
	expires time.Time
}

// NewLayoutCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewLayoutCache(ttl time.Duration) *LayoutCache {
	return &LayoutCache{
		ttl:        ttl,
		now:        time.Now,
		maxEntries: DefaultLayoutCacheEntries,
		entries:    make(map[string]cachedLayout),
	}
}

// MobileLayout returns the cached mobile layout for widgets or generates and stores it.
func (c *LayoutCache) MobileLayout(widgets []Widget) []Widget {
	key, ok := desktopHash(widgets)
	if !ok {
		return GenerateMobileLayout(widgets)
	}
	if cached, ok := c.get(key); ok {
		return cached
	}
	out := GenerateMobileLayout(widgets)
	c.set(key, out)
	return CloneWidgets(out)
}

func (c *LayoutCache) get(key string) ([]Widget, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expires) {
		if ok {
			c.mu.Lock()
			delete(c.entries, key)
			c.mu.Unlock()
		}
		return nil, false
	}
	return CloneWidgets(entry.widgets), true
}

func (c *LayoutCache) set(key string, widgets []Widget) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	now := c.now()
	delete(c.entries, key)
	c.evictLocked(now)
	c.entries[key] = cachedLayout{
		widgets: CloneWidgets(widgets),
		expires: now.Add(c.ttl),
	}
	c.mu.Unlock()
}

// evictLocked drops expired entries and, when the cache is still full, the
// entry closest to expiry.
func (c *LayoutCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// desktopHash returns a deterministic hash of everything that influences the
// mobile output: ids, types, configs and desktop rects. It reports false when
// the arrangement cannot be encoded, in which case it must not be cached.
func desktopHash(widgets []Widget) (string, bool) {
	if len(widgets) == 0 {
		return "empty", true
	}
	type keyed struct {
		ID     string         `json:"id"`
		Type   string         `json:"type"`
		Config map[string]any `json:"config,omitempty"`
		Rect   LayoutRect     `json:"rect"`
	}
	list := make([]keyed, len(widgets))
	for i, w := range widgets {
		rect, _ := Migrate(w).Layout(BreakpointDesktop)
		list[i] = keyed{ID: w.ID, Type: w.Type, Config: w.Config, Rect: rect}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	b, err := json.Marshal(list)
	if err != nil {
		return "", false
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:]), true
}
