package planner

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
)

var testDepart = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func testMission() model.Mission {
	depot := model.GeoPoint{Lat: 40.4168, Lng: -3.7038}
	orders := []model.Order{
		{ID: "a1", Location: model.GeoPoint{Lat: 40.50, Lng: -3.60}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
		{ID: "a2", Location: model.GeoPoint{Lat: 40.52, Lng: -3.61}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
		{ID: "a3", Location: model.GeoPoint{Lat: 40.51, Lng: -3.59}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
		{ID: "b1", Location: model.GeoPoint{Lat: 40.20, Lng: -3.90}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
		{ID: "b2", Location: model.GeoPoint{Lat: 40.21, Lng: -3.91}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
		{ID: "b3", Location: model.GeoPoint{Lat: 40.22, Lng: -3.89}, VolumeM3: 1, WeightKg: 100, ValueEUR: 200, Deadline: testDepart.Add(10 * time.Hour)},
	}
	trucks := []model.Truck{
		{ID: "t1", CapVolumeM3: 20, CapWeightKg: 1000, SpeedKph: 80, ConsumptionL100: 25},
		{ID: "t2", CapVolumeM3: 20, CapWeightKg: 1000, SpeedKph: 80, ConsumptionL100: 25},
	}
	return model.Mission{
		Depot:    depot,
		DepartAt: testDepart,
		Orders:   orders,
		Trucks:   trucks,
		Config: model.MissionConfig{
			ClusterStrategy:    model.ClusterCentroid,
			RouteStrategy:      model.RouteGenetic,
			TimeBudgetPerRoute: time.Second,
			Seed:               42,
			Weights:            model.CostWeights{Alpha: 1, Beta: 100, Gamma: 10},
		},
	}
}

func TestRunFullMission(t *testing.T) {
	pl := New(oracle.NewHaversine())
	res, err := pl.Run(context.Background(), testMission())
	require.NoError(t, err)

	assert.NotEmpty(t, res.MissionID)
	assert.True(t, res.Verdict.Feasible)
	require.Len(t, res.Zones, 2)
	require.Len(t, res.Routes, 2)

	// every order delivered exactly once across all routes
	seen := map[string]int{}
	for _, r := range res.Routes {
		assert.NotEqual(t, model.RouteFailed, r.Status)
		assert.NotEmpty(t, r.ID)
		for _, s := range r.Stops {
			seen[s.OrderID]++
		}
	}
	assert.Len(t, seen, 6)
	for id, n := range seen {
		assert.Equal(t, 1, n, "order %s delivered %d times", id, n)
	}

	assert.Equal(t, 2, res.Metrics.RoutesPlanned)
	assert.Zero(t, res.Metrics.RoutesFailed)
	assert.Greater(t, res.Metrics.TotalDistanceKm, 0.0)
	assert.InDelta(t, 1200, res.Metrics.TotalRevenueEUR, 1e-9)
}

func TestRunExactStrategy(t *testing.T) {
	m := testMission()
	m.Config.RouteStrategy = model.RouteExact
	m.Config.TimeBudgetPerRoute = 5 * time.Second

	pl := New(oracle.NewHaversine())
	res, err := pl.Run(context.Background(), m)
	require.NoError(t, err)
	for _, r := range res.Routes {
		assert.Equal(t, model.RouteConverged, r.Status)
	}
}

// An infeasible mission must fail before clustering: no zones, no routes.
func TestRunInfeasibleStopsEarly(t *testing.T) {
	m := testMission()
	m.Orders[0].WeightKg = 50000

	pl := New(oracle.NewHaversine())
	res, err := pl.Run(context.Background(), m)

	var infErr *InfeasibleError
	require.ErrorAs(t, err, &infErr)
	assert.False(t, res.Verdict.Feasible)
	assert.NotEmpty(t, infErr.Verdict.Violated())
	assert.Empty(t, res.Zones)
	assert.Empty(t, res.Routes)
}

// A request may omit the departure time. The defaulted clock must feed the
// deadline rule too, so deadlines already in the past still fail fast.
func TestRunDefaultDepartureGatesDeadlines(t *testing.T) {
	m := testMission()
	m.DepartAt = time.Time{}
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range m.Orders {
		m.Orders[i].Deadline = past
	}

	pl := New(oracle.NewHaversine())
	res, err := pl.Run(context.Background(), m)

	var infErr *InfeasibleError
	require.ErrorAs(t, err, &infErr)
	assert.False(t, res.Verdict.Feasible)
	assert.Empty(t, res.Zones)
	assert.Empty(t, res.Routes)
}

func TestRunInputErrors(t *testing.T) {
	pl := New(oracle.NewHaversine())

	m := testMission()
	m.Orders = nil
	_, err := pl.Run(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoOrders)

	m = testMission()
	m.Trucks = nil
	_, err = pl.Run(context.Background(), m)
	assert.ErrorIs(t, err, ErrNoTrucks)
}

func TestRunEmitsEvents(t *testing.T) {
	pl := New(oracle.NewHaversine())

	var mu sync.Mutex
	var types []string
	pl.Events = func(missionID, eventType string, data map[string]any) {
		mu.Lock()
		types = append(types, eventType)
		mu.Unlock()
	}

	_, err := pl.Run(context.Background(), testMission())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	counts := map[string]int{}
	for _, ty := range types {
		counts[ty]++
	}
	assert.Equal(t, 1, counts["mission.validated"])
	assert.Equal(t, 1, counts["mission.clustered"])
	assert.Equal(t, 2, counts["route.planned"])
	assert.Equal(t, 1, counts["mission.completed"])
}

func TestAssignZonesByCapacity(t *testing.T) {
	zones := []model.Zone{
		{ID: "zone-0", DemandW: 900},
		{ID: "zone-1", DemandW: 300},
	}
	trucks := []model.Truck{
		{ID: "small", CapWeightKg: 500},
		{ID: "big", CapWeightKg: 1200},
	}
	assign := assignZones(zones, trucks)
	assert.Equal(t, "big", trucks[assign[0]].ID)
	assert.Equal(t, "small", trucks[assign[1]].ID)
}

func TestMinTrucks(t *testing.T) {
	orders := make([]model.Order, 10)
	for i := range orders {
		orders[i] = model.Order{ID: fmt.Sprintf("o%d", i), WeightKg: 300, VolumeM3: 1}
	}
	// 3000kg total / 1000kg cap -> 3 trucks by weight
	assert.Equal(t, 3, MinTrucks(orders, model.Truck{CapWeightKg: 1000, CapVolumeM3: 100}))
	// volume binds: 10m3 / 2m3 -> 5 trucks
	assert.Equal(t, 5, MinTrucks(orders, model.Truck{CapWeightKg: 10000, CapVolumeM3: 2}))
	assert.Equal(t, 1, MinTrucks(nil, model.Truck{CapWeightKg: 10}))
}

func TestDeterministicMissionResults(t *testing.T) {
	pl := New(oracle.NewHaversine())
	a, err := pl.Run(context.Background(), testMission())
	require.NoError(t, err)
	b, err := pl.Run(context.Background(), testMission())
	require.NoError(t, err)

	require.Len(t, b.Routes, len(a.Routes))
	assert.Equal(t, a.Metrics.TotalDistanceKm, b.Metrics.TotalDistanceKm)
	assert.Equal(t, a.Metrics.TotalCostEUR, b.Metrics.TotalCostEUR)
}
