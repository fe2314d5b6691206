package inference

import (
	"sync"

	metrics "github.com/tgifai/eternal/internal/pkg/prometheus"
)

const DefaultCacheSize = 2048

// Cache holds inference results keyed by receipt. Once the entry count
// exceeds the capacity the oldest committed receipt is evicted. Committing an
// existing receipt again updates it without moving it in the eviction order.
type Cache struct {
	capacity int
	items    map[string]Result
	order    []string
	mu       sync.Mutex
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		items:    make(map[string]Result, capacity),
		order:    make([]string, 0, capacity),
	}
}

func (c *Cache) Commit(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[r.ID]; exists {
		c.items[r.ID] = r
		return
	}

	c.items[r.ID] = r
	c.order = append(c.order, r.ID)
	for len(c.items) > c.capacity {
		oldest := c.order[0]
		c.order[0] = ""
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	metrics.InferenceCacheSize.Set(float64(len(c.items)))
}

func (c *Cache) Get(id string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.items[id]
	return r, ok
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
