package embedding

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a process-local LRU of embeddings keyed on exact text.
// Entries are evicted least-recently-used once maxEntries is reached and expire after ttl regardless of use.
// It is safe for concurrent use.
type Cache struct {
	lru        *expirable.LRU[string, []float32]
	maxEntries int
	ttl        time.Duration
}

func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		lru:        expirable.NewLRU[string, []float32](maxEntries, nil, ttl),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (c *Cache) Get(text string) ([]float32, bool) {
	vec, ok := c.lru.Get(text)
	if !ok {
		return nil, false
	}
	return cloneVector(vec), true
}

func (c *Cache) Set(text string, vec []float32) {
	c.lru.Add(text, cloneVector(vec))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.lru.Purge()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}

func cloneVector(vec []float32) []float32 {
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
