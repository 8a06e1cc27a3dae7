package oracle

import (
	"context"
	"sync"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/metrics"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

type pairKey struct {
	aLat, aLng, bLat, bLng float64
}

// normKey orders the pair so that (a,b) and (b,a) share one cache entry.
// Distances are treated as symmetric for the duration of a mission run.
func normKey(a, b model.GeoPoint) pairKey {
	if a.Lat > b.Lat || (a.Lat == b.Lat && a.Lng > b.Lng) {
		a, b = b, a
	}
	return pairKey{a.Lat, a.Lng, b.Lat, b.Lng}
}

type cacheEntry struct {
	km  float64
	dur time.Duration
}

// Cache memoizes oracle answers per coordinate pair. It is safe for concurrent
// use by parallel route optimizations within one mission run.
type Cache struct {
	inner    Oracle
	provider string

	mu sync.RWMutex
	m  map[pairKey]cacheEntry
}

// NewCache wraps inner with a per-pair memo. Typically one Cache per mission run.
func NewCache(inner Oracle) *Cache {
	return &Cache{inner: inner, provider: providerName(inner), m: map[pairKey]cacheEntry{}}
}

func (c *Cache) DistanceTime(ctx context.Context, a, b model.GeoPoint) (float64, time.Duration, error) {
	k := normKey(a, b)
	c.mu.RLock()
	e, ok := c.m[k]
	c.mu.RUnlock()
	if ok {
		metrics.OracleCalls.WithLabelValues(c.provider, "hit").Inc()
		return e.km, e.dur, nil
	}
	metrics.OracleCalls.WithLabelValues(c.provider, "miss").Inc()
	km, dur, err := c.inner.DistanceTime(ctx, a, b)
	if err != nil {
		return 0, 0, err
	}
	c.mu.Lock()
	c.m[k] = cacheEntry{km: km, dur: dur}
	c.mu.Unlock()
	return km, dur, nil
}

// Size reports the number of memoized pairs.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
