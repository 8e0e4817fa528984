package events

import (
	"context"
	"sync"

	"github.com/elliotchance/orderedmap/v3"
)

// SeenStore remembers recently delivered message ids so duplicate
// deliveries can be suppressed before processing.
type SeenStore interface {
	// MarkSeen records id and reports whether this is its first delivery.
	MarkSeen(ctx context.Context, id string) (bool, error)
}

// SeenCache is an in-process SeenStore with a fixed capacity. When full,
// the oldest id is evicted first.
type SeenCache struct {
	mu       sync.Mutex
	ids      *orderedmap.OrderedMap[string, struct{}]
	capacity int
}

// NewSeenCache creates a cache holding up to capacity ids.
func NewSeenCache(capacity int) *SeenCache {
	if capacity <= 0 {
		capacity = 1024
	}
	return &SeenCache{
		ids:      orderedmap.NewOrderedMap[string, struct{}](),
		capacity: capacity,
	}
}

func (c *SeenCache) MarkSeen(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.ids.Get(id); ok {
		return false, nil
	}
	for c.ids.Len() >= c.capacity {
		oldest := c.ids.Front()
		if oldest == nil {
			break
		}
		c.ids.Delete(oldest.Key)
	}
	c.ids.Set(id, struct{}{})
	return true, nil
}

// Len returns the number of remembered ids.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids.Len()
}
