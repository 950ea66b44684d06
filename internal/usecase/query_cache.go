package usecase

import (
	"sort"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"
)

// CacheRecord describes one cached query result
type CacheRecord struct {
	Key        string
	ComputedAt time.Time
	ExpiresAt  time.Time
}

type cached struct {
	value      any
	computedAt time.Time
}

// queryCache holds read-model results for a fixed TTL. Entries expire by time
// and are dropped wholesale when a sync changes the stored state.
type queryCache struct {
	cache *ttlcache.Cache[string, cached]
	clock clockwork.Clock
}

func newQueryCache(ttl time.Duration, clock clockwork.Clock) *queryCache {
	return &queryCache{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, cached](ttl),
			ttlcache.WithDisableTouchOnHit[string, cached](),
		),
		clock: clock,
	}
}

func (c *queryCache) get(key string) (any, bool) {
	item := c.cache.Get(key)
	if item == nil {
		return nil, false
	}
	return item.Value().value, true
}

func (c *queryCache) set(key string, value any) {
	c.cache.Set(key, cached{value: value, computedAt: c.clock.Now()}, ttlcache.DefaultTTL)
}

func (c *queryCache) invalidate() {
	c.cache.DeleteAll()
}

func (c *queryCache) records() []CacheRecord {
	items := c.cache.Items()
	out := make([]CacheRecord, 0, len(items))
	for key, item := range items {
		out = append(out, CacheRecord{
			Key:        key,
			ComputedAt: item.Value().computedAt,
			ExpiresAt:  item.ExpiresAt(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
