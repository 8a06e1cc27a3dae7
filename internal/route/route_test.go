package route

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
)

var (
	testDepot  = model.GeoPoint{Lat: 40.4168, Lng: -3.7038}
	testDepart = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
)

func testTruck() model.Truck {
	return model.Truck{
		ID: "t1", CapVolumeM3: 20, CapWeightKg: 2000,
		SpeedKph: 80, ConsumptionL100: 25,
	}
}

// lineOrders places n stops on a line heading north from the depot, so the
// optimal visiting order is simply by index.
func lineOrders(n int) []model.Order {
	out := make([]model.Order, n)
	for i := range out {
		out[i] = model.Order{
			ID:       fmt.Sprintf("o%d", i+1),
			Location: model.GeoPoint{Lat: testDepot.Lat + float64(i+1)*0.05, Lng: testDepot.Lng},
			VolumeM3: 1, WeightKg: 100,
			ValueEUR: 250,
			Deadline: testDepart.Add(12 * time.Hour),
		}
	}
	return out
}

func testZone(orders []model.Order) model.Zone {
	z := model.Zone{ID: "zone-0"}
	for _, o := range orders {
		z.OrderIDs = append(z.OrderIDs, o.ID)
		z.DemandV += o.VolumeM3
		z.DemandW += o.WeightKg
	}
	return z
}

func optimize(t *testing.T, orders []model.Order, truck model.Truck, cfg Config) model.Route {
	t.Helper()
	r, err := Optimize(context.Background(), testZone(orders), orders, truck, testDepot, testDepart, oracle.NewHaversine(), cfg)
	require.NoError(t, err)
	return r
}

func TestOptimizeErrors(t *testing.T) {
	_, err := Optimize(context.Background(), model.Zone{}, nil, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{})
	assert.ErrorIs(t, err, ErrNoOrders)

	orders := lineOrders(3)
	_, err = Optimize(context.Background(), testZone(orders), orders, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{Strategy: "simulated_annealing"})
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestGreedySeedVisitsAll(t *testing.T) {
	orders := lineOrders(6)
	p, err := buildProblem(context.Background(), testZone(orders), orders, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{}.withDefaults(6))
	require.NoError(t, err)

	perm := p.greedySeed()
	require.Len(t, perm, 6)
	seen := map[int]bool{}
	for _, idx := range perm {
		assert.False(t, seen[idx])
		seen[idx] = true
	}
	// on a line the nearest-neighbor tour is the index order
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, perm)
}

func TestTwoOptNeverWorsens(t *testing.T) {
	orders := lineOrders(7)
	p, err := buildProblem(context.Background(), testZone(orders), orders, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{}.withDefaults(7))
	require.NoError(t, err)

	// deliberately crossed tour
	bad := []int{4, 1, 6, 2, 7, 3, 5}
	before := p.cost(p.simulate(bad))
	after := p.cost(p.simulate(p.twoOptPolish(bad)))
	assert.LessOrEqual(t, after, before)
}

func TestGeneticSeedDeterminism(t *testing.T) {
	orders := lineOrders(8)
	cfg := Config{Strategy: model.RouteGenetic, Seed: 42, TimeBudget: 2 * time.Second}

	a := optimize(t, orders, testTruck(), cfg)
	b := optimize(t, orders, testTruck(), cfg)
	require.Equal(t, len(a.Stops), len(b.Stops))
	for i := range a.Stops {
		assert.Equal(t, a.Stops[i].OrderID, b.Stops[i].OrderID)
	}
	assert.Equal(t, a.Metrics.DistanceKm, b.Metrics.DistanceKm)
}

func TestGeneticVisitsEveryOrderOnce(t *testing.T) {
	orders := lineOrders(9)
	r := optimize(t, orders, testTruck(), Config{Strategy: model.RouteGenetic, Seed: 7})

	require.Len(t, r.Stops, len(orders))
	seen := map[string]bool{}
	for _, s := range r.Stops {
		assert.False(t, seen[s.OrderID], "order %s visited twice", s.OrderID)
		seen[s.OrderID] = true
	}
	assert.Empty(t, r.Violations)
	assert.False(t, r.BestEffort)
}

func TestGeneticCumulativeLoad(t *testing.T) {
	orders := lineOrders(5)
	r := optimize(t, orders, testTruck(), Config{Strategy: model.RouteGenetic, Seed: 1})

	require.Len(t, r.Stops, 5)
	for i, s := range r.Stops {
		assert.InDelta(t, float64(i+1)*100, s.CumWeightKg, 1e-9)
		assert.InDelta(t, float64(i+1), s.CumVolumeM3, 1e-9)
	}
	assert.InDelta(t, 25.0, r.Metrics.UtilizationPct, 1e-9)
}

func TestGeneticOverloadedBestEffort(t *testing.T) {
	orders := lineOrders(5) // 500kg total
	truck := testTruck()
	truck.CapWeightKg = 300

	r := optimize(t, orders, truck, Config{Strategy: model.RouteGenetic, Seed: 1})
	assert.True(t, r.BestEffort)
	assert.NotEmpty(t, r.Violations)
	assert.Greater(t, r.Metrics.SearchCost, capacityPenalty)
}

// Elitism carries the incumbent into every generation, so the best cost
// observed after each scoring pass never increases.
func TestGeneticBestCostMonotone(t *testing.T) {
	orders := lineOrders(9)
	var trace []float64
	cfg := Config{
		Strategy:     model.RouteGenetic,
		Seed:         7,
		TimeBudget:   2 * time.Second,
		OnGeneration: func(_ int, best float64) { trace = append(trace, best) },
	}
	optimize(t, orders, testTruck(), cfg)

	require.NotEmpty(t, trace)
	for i := 1; i < len(trace); i++ {
		assert.LessOrEqual(t, trace[i], trace[i-1], "generation %d raised the incumbent cost", i)
	}
}

// Randomized inputs: whatever the order mix and truck size, cumulative stop
// loads must account for every delivery, and a route reported without
// capacity violations must stay within the truck's limits at every stop.
func TestGeneticRandomLoadsWithinCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for iter := 0; iter < 25; iter++ {
		n := 3 + rng.Intn(8)
		orders := make([]model.Order, n)
		var totW, totV float64
		for i := range orders {
			w := 20 + rng.Float64()*180
			v := 0.1 + rng.Float64()*1.4
			orders[i] = model.Order{
				ID: fmt.Sprintf("r%d-%d", iter, i),
				Location: model.GeoPoint{
					Lat: testDepot.Lat + (rng.Float64()-0.5)*0.8,
					Lng: testDepot.Lng + (rng.Float64()-0.5)*0.8,
				},
				WeightKg: w, VolumeM3: v, ValueEUR: 50,
				Deadline: testDepart.Add(24 * time.Hour),
			}
			totW += w
			totV += v
		}
		truck := model.Truck{
			ID: "rt", SpeedKph: 80, ConsumptionL100: 25,
			CapWeightKg: totW * (0.8 + rng.Float64()*0.6),
			CapVolumeM3: totV * (0.8 + rng.Float64()*0.6),
		}
		cfg := Config{Strategy: model.RouteGenetic, Seed: int64(iter) + 1, TimeBudget: 200 * time.Millisecond, MaxGenerations: 40}
		r := optimize(t, orders, truck, cfg)

		require.Len(t, r.Stops, n)
		assert.InDelta(t, totW, r.Stops[n-1].CumWeightKg, 1e-6)
		assert.InDelta(t, totV, r.Stops[n-1].CumVolumeM3, 1e-6)
		if len(r.Violations) == 0 {
			for _, s := range r.Stops {
				assert.LessOrEqual(t, s.CumWeightKg, truck.CapWeightKg)
				assert.LessOrEqual(t, s.CumVolumeM3, truck.CapVolumeM3)
			}
		} else {
			assert.True(t, r.BestEffort)
		}
	}
}

func TestGeneticEconomics(t *testing.T) {
	orders := lineOrders(4)
	truck := testTruck()
	truck.DriverRateEURHr = 20
	truck.FixedCostEUR = 50

	r := optimize(t, orders, truck, Config{Strategy: model.RouteGenetic, Seed: 3, FuelPriceEUR: 2.0})

	liters := r.Metrics.DistanceKm / 100 * truck.ConsumptionL100
	assert.InDelta(t, liters, r.Metrics.FuelLiters, 0.02)
	assert.InDelta(t, liters*2.0, r.Metrics.FuelCostEUR, 0.05)
	assert.InDelta(t, r.Metrics.FuelCostEUR+r.Metrics.DriverCostEUR+r.Metrics.FixedCostEUR, r.Metrics.TotalCostEUR, 0.05)
	assert.InDelta(t, 4*250, r.Metrics.RevenueEUR, 1e-9)
	assert.InDelta(t, r.Metrics.RevenueEUR-r.Metrics.TotalCostEUR, r.Metrics.NetProfitEUR, 0.05)
}

func TestExactFindsLineOptimum(t *testing.T) {
	orders := lineOrders(6)
	r := optimize(t, orders, testTruck(), Config{Strategy: model.RouteExact, TimeBudget: 5 * time.Second})

	assert.Equal(t, model.RouteConverged, r.Status)
	require.Len(t, r.Stops, 6)
	for i, s := range r.Stops {
		assert.Equal(t, fmt.Sprintf("o%d", i+1), s.OrderID)
	}
}

func TestExactNotWorseThanGenetic(t *testing.T) {
	// scattered instance, no deadline pressure
	orders := []model.Order{
		{ID: "a", Location: model.GeoPoint{Lat: 40.5, Lng: -3.6}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
		{ID: "b", Location: model.GeoPoint{Lat: 40.3, Lng: -3.9}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
		{ID: "c", Location: model.GeoPoint{Lat: 40.6, Lng: -3.8}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
		{ID: "d", Location: model.GeoPoint{Lat: 40.2, Lng: -3.5}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
		{ID: "e", Location: model.GeoPoint{Lat: 40.45, Lng: -3.4}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
	}
	exact := optimize(t, orders, testTruck(), Config{Strategy: model.RouteExact, TimeBudget: 5 * time.Second})
	genetic := optimize(t, orders, testTruck(), Config{Strategy: model.RouteGenetic, Seed: 11, TimeBudget: 2 * time.Second})

	require.Equal(t, model.RouteConverged, exact.Status)
	assert.LessOrEqual(t, exact.Metrics.DistanceKm, genetic.Metrics.DistanceKm+0.01)
}

func TestExactProvesDeadlineInfeasible(t *testing.T) {
	orders := lineOrders(4)
	// last order cannot be reached in time no matter the ordering
	orders[3].Deadline = testDepart.Add(time.Minute)

	zone := testZone(orders)
	r, err := Optimize(context.Background(), zone, orders, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{Strategy: model.RouteExact, TimeBudget: 5 * time.Second})
	require.ErrorIs(t, err, ErrProvenInfeasible)
	assert.Equal(t, model.RouteInfeasible, r.Status)
}

func TestExactProvesCapacityInfeasible(t *testing.T) {
	orders := lineOrders(4)
	truck := testTruck()
	truck.CapWeightKg = 100 // 400kg demand

	zone := testZone(orders)
	r, err := Optimize(context.Background(), zone, orders, truck, testDepot, testDepart, oracle.NewHaversine(), Config{Strategy: model.RouteExact, TimeBudget: 5 * time.Second})
	require.ErrorIs(t, err, ErrProvenInfeasible)
	assert.Equal(t, model.RouteInfeasible, r.Status)
}

func TestScheduleInsertsBreaks(t *testing.T) {
	// two far stops force >2h continuous driving
	orders := []model.Order{
		{ID: "far1", Location: model.GeoPoint{Lat: 42.5, Lng: -3.7}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
		{ID: "far2", Location: model.GeoPoint{Lat: 44.5, Lng: -3.7}, VolumeM3: 1, WeightKg: 100, Deadline: testDepart.Add(24 * time.Hour)},
	}
	p, err := buildProblem(context.Background(), testZone(orders), orders, testTruck(), testDepot, testDepart, oracle.NewHaversine(), Config{}.withDefaults(2))
	require.NoError(t, err)

	s := p.simulate([]int{1, 2})
	assert.Greater(t, s.totalHours, s.driveHours, "rest time must extend the schedule")
}
