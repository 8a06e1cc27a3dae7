package cluster

import (
	"math"
	"sort"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// rebalance reassigns boundary orders away from zones whose demand exceeds
// the capacity of the truck they would be matched with. Raw geographic
// clustering knows nothing about load, so a dense area can overfill a zone;
// moving its outermost members to the nearest under-capacity zone restores
// the hard capacity invariant while disturbing geography the least.
func rebalance(orders []model.Order, trucks []model.Truck, assign []int, k, passes int) []int {
	if passes <= 0 {
		passes = 5
	}
	caps := capacityByRank(trucks)

	for pass := 0; pass < passes; pass++ {
		demands := make([]float64, k)
		for i, z := range assign {
			demands[z] += orders[i].WeightKg
		}
		capOf := matchCaps(demands, caps)

		moved := false
		for z := 0; z < k; z++ {
			if demands[z] <= capOf[z] {
				continue
			}
			cents := zoneCentroids(orders, assign, k)
			// Move boundary orders until the zone fits or no target remains.
			for demands[z] > capOf[z] {
				i := outermost(orders, assign, cents, z)
				if i < 0 {
					break
				}
				target := nearestWithHeadroom(orders[i], cents, demands, capOf, z)
				if target < 0 {
					break
				}
				assign[i] = target
				demands[z] -= orders[i].WeightKg
				demands[target] += orders[i].WeightKg
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return assign
}

// matchCaps pairs the i-th largest demand with the i-th largest capacity and
// returns the capacity each zone index is held to.
func matchCaps(demands, caps []float64) []float64 {
	idx := make([]int, len(demands))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return demands[idx[a]] > demands[idx[b]] })
	out := make([]float64, len(demands))
	for rank, z := range idx {
		if rank < len(caps) {
			out[z] = caps[rank]
		}
	}
	return out
}

func zoneCentroids(orders []model.Order, assign []int, k int) []model.GeoPoint {
	cents := make([]model.GeoPoint, k)
	for z := 0; z < k; z++ {
		cents[z] = centroid(memberPoints(orders, assign, z))
	}
	return cents
}

// outermost returns the member of zone z farthest from its centroid, or -1
// when the zone has a single member left (never emptied by rebalancing).
func outermost(orders []model.Order, assign []int, cents []model.GeoPoint, z int) int {
	best := -1
	bestD := -1.0
	count := 0
	for i, a := range assign {
		if a != z {
			continue
		}
		count++
		if d := geoKm(orders[i].Location, cents[z]); d > bestD {
			best = i
			bestD = d
		}
	}
	if count <= 1 {
		return -1
	}
	return best
}

func nearestWithHeadroom(o model.Order, cents []model.GeoPoint, demands, capOf []float64, exclude int) int {
	best := -1
	bestD := math.MaxFloat64
	for z := range cents {
		if z == exclude {
			continue
		}
		if demands[z]+o.WeightKg > capOf[z] {
			continue
		}
		if d := geoKm(o.Location, cents[z]); d < bestD {
			best = z
			bestD = d
		}
	}
	return best
}
