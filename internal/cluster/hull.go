package cluster

import (
	"sort"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// ConvexHull computes the convex boundary of a zone's member locations using
// Andrew's monotone chain. Pure post-processing for reporting and map
// rendering; the clustering loop never reads it.
//
// Fewer than three distinct points return the points as-is.
func ConvexHull(pts []model.GeoPoint) []model.GeoPoint {
	uniq := make([]model.GeoPoint, 0, len(pts))
	seen := map[model.GeoPoint]struct{}{}
	for _, p := range pts {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			uniq = append(uniq, p)
		}
	}
	sort.Slice(uniq, func(i, j int) bool {
		if uniq[i].Lng != uniq[j].Lng {
			return uniq[i].Lng < uniq[j].Lng
		}
		return uniq[i].Lat < uniq[j].Lat
	})
	if len(uniq) < 3 {
		return uniq
	}

	var lower, upper []model.GeoPoint
	for _, p := range uniq {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(uniq) - 1; i >= 0; i-- {
		p := uniq[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// cross is the z-component of (b-a) x (c-a) in lng/lat plane coordinates.
func cross(a, b, c model.GeoPoint) float64 {
	return (b.Lng-a.Lng)*(c.Lat-a.Lat) - (b.Lat-a.Lat)*(c.Lng-a.Lng)
}
