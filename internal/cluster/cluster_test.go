package cluster

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

func testOrder(id string, lat, lng, weight float64) model.Order {
	return model.Order{
		ID:       id,
		Location: model.GeoPoint{Lat: lat, Lng: lng},
		VolumeM3: 1,
		WeightKg: weight,
		Deadline: time.Now().Add(24 * time.Hour),
	}
}

func testTrucks(n int, capKg float64) []model.Truck {
	out := make([]model.Truck, n)
	for i := range out {
		out[i] = model.Truck{ID: fmt.Sprintf("t%d", i), CapVolumeM3: 50, CapWeightKg: capKg, SpeedKph: 80, ConsumptionL100: 25}
	}
	return out
}

// Two clearly separated groups of three must split into two zones of three,
// regardless of strategy.
func TestClusterTwoGroups(t *testing.T) {
	orders := []model.Order{
		testOrder("a1", 40.00, -3.00, 100),
		testOrder("a2", 40.01, -3.01, 100),
		testOrder("a3", 40.02, -3.00, 100),
		testOrder("b1", 41.50, -2.00, 100),
		testOrder("b2", 41.51, -2.01, 100),
		testOrder("b3", 41.52, -2.00, 100),
	}
	for _, strategy := range []string{model.ClusterCentroid, model.ClusterConnectivity} {
		t.Run(strategy, func(t *testing.T) {
			zones, err := Cluster(orders, testTrucks(2, 1000), Config{Strategy: strategy})
			require.NoError(t, err)
			require.Len(t, zones, 2)
			assert.Len(t, zones[0].OrderIDs, 3)
			assert.Len(t, zones[1].OrderIDs, 3)

			// groups must not mix
			byZone := map[string]string{}
			for _, z := range zones {
				for _, id := range z.OrderIDs {
					byZone[id] = z.ID
				}
			}
			assert.Equal(t, byZone["a1"], byZone["a2"])
			assert.Equal(t, byZone["a1"], byZone["a3"])
			assert.Equal(t, byZone["b1"], byZone["b2"])
			assert.Equal(t, byZone["b1"], byZone["b3"])
			assert.NotEqual(t, byZone["a1"], byZone["b1"])
		})
	}
}

// Every order lands in exactly one zone.
func TestClusterPartition(t *testing.T) {
	var orders []model.Order
	for i := 0; i < 25; i++ {
		orders = append(orders, testOrder(fmt.Sprintf("o%d", i), 40+float64(i%5)*0.3, -3+float64(i/5)*0.3, 50+float64(i)))
	}
	zones, err := Cluster(orders, testTrucks(4, 2000), Config{Strategy: model.ClusterCentroid})
	require.NoError(t, err)
	require.Len(t, zones, 4)

	seen := map[string]int{}
	for _, z := range zones {
		for _, id := range z.OrderIDs {
			seen[id]++
		}
		assert.NotEmpty(t, z.OrderIDs, "zone %s is empty", z.ID)
	}
	assert.Len(t, seen, len(orders))
	for id, n := range seen {
		assert.Equal(t, 1, n, "order %s assigned %d times", id, n)
	}
}

func TestClusterDemandTotals(t *testing.T) {
	orders := []model.Order{
		testOrder("o1", 40.0, -3.0, 100),
		testOrder("o2", 40.1, -3.1, 200),
		testOrder("o3", 41.0, -2.0, 300),
	}
	zones, err := Cluster(orders, testTrucks(2, 1000), Config{Strategy: model.ClusterCentroid})
	require.NoError(t, err)

	var totalW, totalV float64
	for _, z := range zones {
		totalW += z.DemandW
		totalV += z.DemandV
	}
	assert.InDelta(t, 600, totalW, 1e-9)
	assert.InDelta(t, 3, totalV, 1e-9)
}

func TestClusterDeterministic(t *testing.T) {
	var orders []model.Order
	for i := 0; i < 12; i++ {
		orders = append(orders, testOrder(fmt.Sprintf("o%d", i), 40+float64(i)*0.17, -3+float64(i%3)*0.4, 100))
	}
	trucks := testTrucks(3, 1000)
	a, err := Cluster(orders, trucks, Config{Strategy: model.ClusterCentroid})
	require.NoError(t, err)
	b, err := Cluster(orders, trucks, Config{Strategy: model.ClusterCentroid})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestClusterErrors(t *testing.T) {
	orders := []model.Order{testOrder("o1", 40, -3, 100)}

	_, err := Cluster(nil, testTrucks(2, 1000), Config{Strategy: model.ClusterCentroid})
	assert.ErrorIs(t, err, ErrNoOrders)

	_, err = Cluster(orders, nil, Config{Strategy: model.ClusterCentroid})
	assert.ErrorIs(t, err, ErrInvalidTruckCount)

	// more trucks than distinct locations
	_, err = Cluster(orders, testTrucks(2, 1000), Config{Strategy: model.ClusterCentroid})
	assert.ErrorIs(t, err, ErrInvalidTruckCount)

	_, err = Cluster(orders, testTrucks(1, 1000), Config{Strategy: "voronoi"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

// Rebalancing must pull an overloaded zone under a tighter cap when a
// neighbor has headroom.
func TestRebalanceMovesOverflow(t *testing.T) {
	// 4 heavy orders clumped together, 1 light order nearby
	orders := []model.Order{
		testOrder("h1", 40.00, -3.00, 400),
		testOrder("h2", 40.01, -3.00, 400),
		testOrder("h3", 40.00, -3.01, 400),
		testOrder("h4", 40.02, -3.02, 400),
		testOrder("l1", 40.20, -3.20, 50),
	}
	trucks := []model.Truck{
		{ID: "big", CapVolumeM3: 50, CapWeightKg: 1300, SpeedKph: 80, ConsumptionL100: 25},
		{ID: "small", CapVolumeM3: 50, CapWeightKg: 900, SpeedKph: 80, ConsumptionL100: 25},
	}
	zones, err := Cluster(orders, trucks, Config{Strategy: model.ClusterCentroid})
	require.NoError(t, err)
	require.Len(t, zones, 2)

	// largest demand must fit the largest capacity after rebalancing
	maxDemand := zones[0].DemandW
	if zones[1].DemandW > maxDemand {
		maxDemand = zones[1].DemandW
	}
	assert.LessOrEqual(t, maxDemand, 1300.0)
}

func TestConvexHull(t *testing.T) {
	pts := []model.GeoPoint{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 2},
		{Lat: 2, Lng: 2},
		{Lat: 2, Lng: 0},
		{Lat: 1, Lng: 1}, // interior
	}
	hull := ConvexHull(pts)
	assert.Len(t, hull, 4)
	for _, h := range hull {
		assert.NotEqual(t, model.GeoPoint{Lat: 1, Lng: 1}, h)
	}
}

func TestConvexHullDegenerate(t *testing.T) {
	two := []model.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}
	assert.Len(t, ConvexHull(two), 2)

	collinear := []model.GeoPoint{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}
	hull := ConvexHull(collinear)
	assert.LessOrEqual(t, len(hull), 2)
}
