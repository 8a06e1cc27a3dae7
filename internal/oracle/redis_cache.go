package oracle

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/metrics"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// RedisCache shares oracle answers across processes and mission runs through
// Redis. Misses fall through to the inner oracle; Redis errors are treated as
// misses so an unavailable cache never fails a lookup.
type RedisCache struct {
	inner    Oracle
	provider string
	rdb      *redis.Client
	ttl      time.Duration
}

// NewRedisCache connects using a Redis URL (e.g. from REDIS_URL).
func NewRedisCache(inner Oracle, url string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("oracle: parse redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{inner: inner, provider: providerName(inner), rdb: redis.NewClient(opt), ttl: ttl}, nil
}

func (r *RedisCache) key(a, b model.GeoPoint) string {
	k := normKey(a, b)
	return fmt.Sprintf("dist:%.6f,%.6f|%.6f,%.6f", k.aLat, k.aLng, k.bLat, k.bLng)
}

func (r *RedisCache) DistanceTime(ctx context.Context, a, b model.GeoPoint) (float64, time.Duration, error) {
	key := r.key(a, b)
	if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var km float64
		var secs int64
		if _, err := fmt.Sscanf(val, "%f|%d", &km, &secs); err == nil {
			metrics.OracleCalls.WithLabelValues(r.provider, "hit").Inc()
			return km, time.Duration(secs) * time.Second, nil
		}
	}
	metrics.OracleCalls.WithLabelValues(r.provider, "miss").Inc()
	km, dur, err := r.inner.DistanceTime(ctx, a, b)
	if err != nil {
		return 0, 0, err
	}
	val := fmt.Sprintf("%f|%d", km, int64(dur/time.Second))
	_ = r.rdb.Set(ctx, key, val, r.ttl).Err()
	return km, dur, nil
}
