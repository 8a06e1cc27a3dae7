package cluster

import (
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// kmeansAssign runs Lloyd's algorithm with farthest-point seeding. Seeding is
// deterministic: the first centroid is the order farthest from the global
// mean, each further centroid maximizes the minimum distance to those already
// chosen. That avoids the degenerate local minima of random starts without
// needing restarts.
func kmeansAssign(orders []model.Order, k int, cfg Config) ([]int, error) {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}
	eps := cfg.EpsilonKm
	if eps <= 0 {
		eps = 0.01
	}

	centroids := seedFarthestPoint(orders, k)
	assign := make([]int, len(orders))
	demand := make([]float64, k)

	for iter := 0; iter < maxIter; iter++ {
		// Assignment step. Equidistant orders go to the zone carrying less
		// aggregate demand.
		for i := range demand {
			demand[i] = 0
		}
		for i, o := range orders {
			best := 0
			bestD := geoKm(o.Location, centroids[0])
			for c := 1; c < k; c++ {
				d := geoKm(o.Location, centroids[c])
				if d < bestD || (d == bestD && demand[c] < demand[best]) {
					best = c
					bestD = d
				}
			}
			assign[i] = best
			demand[best] += o.WeightKg
		}

		fixEmptyClusters(orders, assign, centroids, k)

		// Update step.
		moved := 0.0
		for c := 0; c < k; c++ {
			next := centroid(memberPoints(orders, assign, c))
			if d := geoKm(centroids[c], next); d > moved {
				moved = d
			}
			centroids[c] = next
		}
		if moved < eps {
			break
		}
	}
	return assign, nil
}

func seedFarthestPoint(orders []model.Order, k int) []model.GeoPoint {
	all := make([]model.GeoPoint, len(orders))
	for i, o := range orders {
		all[i] = o.Location
	}
	mean := centroid(all)

	centroids := make([]model.GeoPoint, 0, k)
	first := 0
	firstD := -1.0
	for i, p := range all {
		if d := geoKm(p, mean); d > firstD {
			first = i
			firstD = d
		}
	}
	centroids = append(centroids, all[first])

	for len(centroids) < k {
		best := -1
		bestD := -1.0
		for i, p := range all {
			minD := geoKm(p, centroids[0])
			for _, c := range centroids[1:] {
				if d := geoKm(p, c); d < minD {
					minD = d
				}
			}
			if minD > bestD {
				best = i
				bestD = minD
			}
		}
		centroids = append(centroids, all[best])
	}
	return centroids
}

// fixEmptyClusters reseeds any emptied cluster with the member farthest from
// the centroid of the most populated cluster, preserving the invariant that
// all k zones end up non-empty (k never exceeds distinct locations).
func fixEmptyClusters(orders []model.Order, assign []int, centroids []model.GeoPoint, k int) {
	counts := make([]int, k)
	for _, a := range assign {
		counts[a]++
	}
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		donor := 0
		for i := 1; i < k; i++ {
			if counts[i] > counts[donor] {
				donor = i
			}
		}
		far := -1
		farD := -1.0
		for i, a := range assign {
			if a != donor {
				continue
			}
			if d := geoKm(orders[i].Location, centroids[donor]); d > farD {
				far = i
				farD = d
			}
		}
		if far >= 0 {
			assign[far] = c
			centroids[c] = orders[far].Location
			counts[c]++
			counts[donor]--
		}
	}
}
