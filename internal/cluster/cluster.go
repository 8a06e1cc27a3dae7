// Package cluster partitions a mission's orders into truck-sized zones.
// Two interchangeable strategies are provided: a centroid-based k-means and a
// connectivity-based agglomerative merge. Both guarantee every order lands in
// exactly one zone and zone demand is rebalanced against truck capacity.
package cluster

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

var (
	ErrNoOrders          = errors.New("cluster: no orders")
	ErrInvalidTruckCount = errors.New("cluster: invalid truck count")
	ErrUnknownStrategy   = errors.New("cluster: unknown strategy")
)

// Config tunes the clustering pass. Zero values select defaults.
type Config struct {
	Strategy      string  // model.ClusterCentroid or model.ClusterConnectivity
	MaxIterations int     // k-means iteration cap
	EpsilonKm     float64 // k-means convergence threshold on centroid movement
	Linkage       string  // "average" (default) or "single" for connectivity
	BalancePasses int     // rebalancing passes against truck capacity
}

// Cluster partitions orders into exactly truckCount zones. Truck capacities
// bound the rebalancing step: the i-th largest zone must fit the i-th largest
// truck. Zone order in the result is irrelevant to callers.
func Cluster(orders []model.Order, trucks []model.Truck, cfg Config) ([]model.Zone, error) {
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}
	k := len(trucks)
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d trucks", ErrInvalidTruckCount, k)
	}
	if distinct := distinctLocations(orders); k > distinct {
		return nil, fmt.Errorf("%w: %d trucks for %d distinct order locations", ErrInvalidTruckCount, k, distinct)
	}

	var assign []int
	var err error
	switch cfg.Strategy {
	case "", model.ClusterCentroid:
		assign, err = kmeansAssign(orders, k, cfg)
	case model.ClusterConnectivity:
		assign, err = agglomerativeAssign(orders, k, cfg)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
	if err != nil {
		return nil, err
	}

	assign = rebalance(orders, trucks, assign, k, cfg.BalancePasses)

	zones := make([]model.Zone, k)
	for z := range zones {
		zones[z].ID = fmt.Sprintf("zone-%d", z+1)
	}
	for i, z := range assign {
		o := orders[i]
		zones[z].OrderIDs = append(zones[z].OrderIDs, o.ID)
		zones[z].DemandV += o.VolumeM3
		zones[z].DemandW += o.WeightKg
	}
	for z := range zones {
		pts := memberPoints(orders, assign, z)
		zones[z].Centroid = centroid(pts)
		zones[z].Hull = ConvexHull(pts)
	}
	return zones, nil
}

func distinctLocations(orders []model.Order) int {
	seen := map[model.GeoPoint]struct{}{}
	for _, o := range orders {
		seen[o.Location] = struct{}{}
	}
	return len(seen)
}

func memberPoints(orders []model.Order, assign []int, z int) []model.GeoPoint {
	var pts []model.GeoPoint
	for i, a := range assign {
		if a == z {
			pts = append(pts, orders[i].Location)
		}
	}
	return pts
}

// centroid is the arithmetic mean of the member coordinates.
func centroid(pts []model.GeoPoint) model.GeoPoint {
	if len(pts) == 0 {
		return model.GeoPoint{}
	}
	var lat, lng float64
	for _, p := range pts {
		lat += p.Lat
		lng += p.Lng
	}
	n := float64(len(pts))
	return model.GeoPoint{Lat: lat / n, Lng: lng / n}
}

// geoKm is the great-circle distance used for all clustering geometry.
// Duplicated from the oracle package to keep the algorithm self-contained.
func geoKm(a, b model.GeoPoint) float64 {
	const R = 6371.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lng - a.Lng) * math.Pi / 180
	s := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
}

// capacityByRank matches the i-th largest zone demand to the i-th largest
// truck weight capacity, mirroring the orchestrator's greedy assignment.
func capacityByRank(trucks []model.Truck) []float64 {
	caps := make([]float64, len(trucks))
	for i, t := range trucks {
		caps[i] = t.CapWeightKg
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(caps)))
	return caps
}
