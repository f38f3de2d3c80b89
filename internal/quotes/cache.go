package quotes

import (
	"sync"
	"time"
)

// memoCache is a TTL memoization keyed by string. Entries are replaced on
// write and dropped lazily on expired reads; there is no eviction policy.
type memoCache[V any] struct {
	m   sync.Map
	ttl time.Duration
	now func() time.Time
}

type memoEntry[V any] struct {
	val       V
	expiresAt time.Time
}

func newMemoCache[V any](ttl time.Duration) *memoCache[V] {
	return &memoCache[V]{ttl: ttl, now: time.Now}
}

func (c *memoCache[V]) get(key string) (V, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	entry := v.(memoEntry[V])
	if c.now().After(entry.expiresAt) {
		c.m.Delete(key)
		var zero V
		return zero, false
	}
	return entry.val, true
}

func (c *memoCache[V]) set(key string, val V) {
	c.m.Store(key, memoEntry[V]{val: val, expiresAt: c.now().Add(c.ttl)})
}
