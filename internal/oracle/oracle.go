package oracle

import (
	"context"
	"math"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// Oracle answers travel queries between two coordinates. Implementations must
// be stateless from the engine's perspective: for one mission run the result
// for a pair is assumed stable, which is what makes caching sound.
type Oracle interface {
	// DistanceTime returns road distance in kilometers and estimated travel
	// duration between a and b.
	DistanceTime(ctx context.Context, a, b model.GeoPoint) (km float64, dur time.Duration, err error)
}

// providerName labels metrics with the concrete oracle behind any cache layers.
func providerName(o Oracle) string {
	switch v := o.(type) {
	case *Haversine:
		return "haversine"
	case *HTTPOracle:
		return "http"
	case *Cache:
		return providerName(v.inner)
	case *RedisCache:
		return providerName(v.inner)
	default:
		return "custom"
	}
}

// Haversine approximates road distance as great-circle distance scaled by a
// road factor, with duration derived from a nominal average speed.
type Haversine struct {
	RoadFactor float64 // straight-line to road-distance multiplier, e.g. 1.3
	SpeedKph   float64 // nominal average speed for duration estimates
}

// NewHaversine returns a Haversine oracle with defaults applied.
func NewHaversine() *Haversine {
	return &Haversine{RoadFactor: 1.3, SpeedKph: 80}
}

func (h *Haversine) DistanceTime(_ context.Context, a, b model.GeoPoint) (float64, time.Duration, error) {
	factor := h.RoadFactor
	if factor <= 0 {
		factor = 1
	}
	speed := h.SpeedKph
	if speed <= 0 {
		speed = 80
	}
	km := haversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * factor
	dur := time.Duration(km / speed * float64(time.Hour))
	return km, dur, nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
