// Package lookup provides the memoizing cache held by a caller for one batch
// run, e.g. Slack user id -> display name.
package lookup

// Cache has no eviction and is never invalidated; the last Put for a key wins.
// It is not safe for concurrent writers.
type Cache[K comparable, V any] struct {
	entries map[K]V
	misses  int
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]V)}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	v, ok := c.entries[key]
	return v, ok
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.entries[key] = value
}

// Resolve returns the cached value for key, calling load and storing its
// result on a miss.
func (c *Cache[K, V]) Resolve(key K, load func(K) V) V {
	if v, ok := c.entries[key]; ok {
		return v
	}
	c.misses++
	v := load(key)
	c.entries[key] = v
	return v
}

func (c *Cache[K, V]) Len() int { return len(c.entries) }

// Misses counts how many Resolve calls had to load.
func (c *Cache[K, V]) Misses() int { return c.misses }
