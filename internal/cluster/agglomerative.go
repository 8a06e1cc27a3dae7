package cluster

import (
	"math"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// agglomerativeAssign builds the dendrogram bottom-up: every order starts as
// its own group and the two closest groups merge until exactly k remain.
// Cutting at k is implicit in stopping the merge loop.
func agglomerativeAssign(orders []model.Order, k int, cfg Config) ([]int, error) {
	n := len(orders)
	groups := make([][]int, n)
	for i := range groups {
		groups[i] = []int{i}
	}

	single := cfg.Linkage == "single"

	for len(groups) > k {
		bestA, bestB := 0, 1
		bestD := math.MaxFloat64
		for a := 0; a < len(groups); a++ {
			for b := a + 1; b < len(groups); b++ {
				d := linkageDistance(orders, groups[a], groups[b], single)
				if d < bestD {
					bestA, bestB, bestD = a, b, d
				}
			}
		}
		groups[bestA] = append(groups[bestA], groups[bestB]...)
		groups = append(groups[:bestB], groups[bestB+1:]...)
	}

	assign := make([]int, n)
	for g, members := range groups {
		for _, i := range members {
			assign[i] = g
		}
	}
	return assign, nil
}

// linkageDistance is closest-pair for single linkage, mean pairwise distance
// for average linkage.
func linkageDistance(orders []model.Order, a, b []int, single bool) float64 {
	if single {
		min := math.MaxFloat64
		for _, i := range a {
			for _, j := range b {
				if d := geoKm(orders[i].Location, orders[j].Location); d < min {
					min = d
				}
			}
		}
		return min
	}
	sum := 0.0
	for _, i := range a {
		for _, j := range b {
			sum += geoKm(orders[i].Location, orders[j].Location)
		}
	}
	return sum / float64(len(a)*len(b))
}
