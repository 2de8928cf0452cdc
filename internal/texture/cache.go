package texture

import (
	"hash/fnv"
	"image"
	"sync"
)

// sourceCache keeps recently decoded source payloads so a chain's levels
// decode their shared source once. It is safe for concurrent use and holds
// at most limit images, evicting the oldest first.
type sourceCache struct {
	mu    sync.RWMutex
	items map[cacheKey]*image.NRGBA
	order []cacheKey
	limit int
}

type cacheKey struct {
	sum  uint64
	size int
}

func newSourceCache(limit int) *sourceCache {
	if limit < 1 {
		limit = 1
	}
	return &sourceCache{
		items: make(map[cacheKey]*image.NRGBA),
		limit: limit,
	}
}

func keyOf(data []byte) cacheKey {
	h := fnv.New64a()
	h.Write(data)
	return cacheKey{sum: h.Sum64(), size: len(data)}
}

// decode returns the decoded image for data, decoding it on a miss.
func (c *sourceCache) decode(data []byte) (*image.NRGBA, error) {
	key := keyOf(data)

	// Fast path: read lock
	c.mu.RLock()
	img, ok := c.items[key]
	c.mu.RUnlock()
	if ok {
		return img, nil
	}

	// Slow path: decode outside the lock
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing, nil
	}
	if len(c.order) >= c.limit {
		delete(c.items, c.order[0])
		c.order = c.order[1:]
	}
	c.items[key] = img
	c.order = append(c.order, key)
	return img, nil
}

// Len returns the number of cached images.
func (c *sourceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
