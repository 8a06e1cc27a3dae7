package rules

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
)

func TestAggregateCapacity(t *testing.T) {
	res := AggregateCapacity(Facts{TotalVolumeM3: 10, TotalWeightKg: 1000, FleetVolumeM3: 20, FleetWeightKg: 2000})
	assert.True(t, res.Passed)

	res = AggregateCapacity(Facts{TotalVolumeM3: 10, TotalWeightKg: 3000, FleetVolumeM3: 20, FleetWeightKg: 2000})
	assert.False(t, res.Passed)
	assert.Equal(t, model.SeverityHard, res.Severity)
}

func TestOrderFitsSomeTruck(t *testing.T) {
	res := OrderFitsSomeTruck(Facts{MaxOrderWeightKg: 500, MaxTruckWeightKg: 1000, MaxOrderVolumeM3: 2, MaxTruckVolumeM3: 10})
	assert.True(t, res.Passed)

	// aggregate capacity can pass while one oversized order still fails
	res = OrderFitsSomeTruck(Facts{MaxOrderWeightKg: 1200, MaxTruckWeightKg: 1000, MaxOrderVolumeM3: 2, MaxTruckVolumeM3: 10})
	assert.False(t, res.Passed)
}

func TestFleetRange(t *testing.T) {
	assert.True(t, FleetRange(Facts{FarthestRoundTripKm: 300, MaxRangeKm: 400}).Passed)
	assert.False(t, FleetRange(Facts{FarthestRoundTripKm: 500, MaxRangeKm: 400}).Passed)
	// no fuel budget configured means unlimited range
	assert.True(t, FleetRange(Facts{FarthestRoundTripKm: 5000, MaxRangeKm: 0}).Passed)
}

func TestDeadlineReachable(t *testing.T) {
	depart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	res := DeadlineReachable(Facts{
		TightestDeadline: depart.Add(3 * time.Hour),
		DirectTravel:     2 * time.Hour,
		DepartAt:         depart,
	})
	assert.True(t, res.Passed)

	// dispatch latency can push a reachable deadline out of reach
	res = DeadlineReachable(Facts{
		TightestDeadline: depart.Add(3 * time.Hour),
		DirectTravel:     2 * time.Hour,
		DispatchLatency:  90 * time.Minute,
		DepartAt:         depart,
	})
	assert.False(t, res.Passed)

	assert.True(t, DeadlineReachable(Facts{DepartAt: depart}).Passed)
}

func TestUtilizationHeadroom(t *testing.T) {
	assert.True(t, UtilizationHeadroom(Facts{TotalWeightKg: 800, FleetWeightKg: 1000}).Passed)
	assert.False(t, UtilizationHeadroom(Facts{TotalWeightKg: 950, FleetWeightKg: 1000}).Passed)
	// custom threshold
	assert.False(t, UtilizationHeadroom(Facts{TotalWeightKg: 800, FleetWeightKg: 1000, UtilizationWarn: 0.7}).Passed)
}

func TestTruckProfiles(t *testing.T) {
	ok := []model.Truck{{ID: "t1", SpeedKph: 80, ConsumptionL100: 25}}
	assert.True(t, TruckProfiles(Facts{Trucks: ok}).Passed)

	slow := []model.Truck{{ID: "t2", SpeedKph: 20, ConsumptionL100: 25}}
	res := TruckProfiles(Facts{Trucks: slow})
	assert.False(t, res.Passed)
	assert.Equal(t, model.SeverityWarn, res.Severity)

	thirsty := []model.Truck{{ID: "t3", SpeedKph: 80, ConsumptionL100: 80}}
	assert.False(t, TruckProfiles(Facts{Trucks: thirsty}).Passed)
}

func testMission() model.Mission {
	depart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return model.Mission{
		Depot:    model.GeoPoint{Lat: 40.4168, Lng: -3.7038},
		DepartAt: depart,
		Orders: []model.Order{
			{ID: "o1", Location: model.GeoPoint{Lat: 40.5, Lng: -3.6}, VolumeM3: 1, WeightKg: 200, Deadline: depart.Add(6 * time.Hour)},
			{ID: "o2", Location: model.GeoPoint{Lat: 40.3, Lng: -3.8}, VolumeM3: 2, WeightKg: 300, Deadline: depart.Add(8 * time.Hour)},
		},
		Trucks: []model.Truck{
			{ID: "t1", CapVolumeM3: 20, CapWeightKg: 1000, SpeedKph: 80, ConsumptionL100: 25},
		},
	}
}

func TestValidateFeasibleMission(t *testing.T) {
	v := NewValidator(oracle.NewHaversine())
	verdict, err := v.Validate(context.Background(), testMission())
	require.NoError(t, err)
	assert.True(t, verdict.Feasible)
	assert.Empty(t, verdict.Violated())
	// hard rules + warn rules all reported
	assert.Len(t, verdict.Results, 6)
}

func TestValidateOverloadedMission(t *testing.T) {
	m := testMission()
	m.Orders[0].WeightKg = 5000

	v := NewValidator(oracle.NewHaversine())
	verdict, err := v.Validate(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, verdict.Feasible)
	// both aggregate and single-order capacity fail
	assert.Len(t, verdict.Violated(), 2)
}

func TestValidateUnreachableDeadline(t *testing.T) {
	m := testMission()
	m.Orders[0].Deadline = m.DepartAt.Add(time.Minute)

	v := NewValidator(oracle.NewHaversine())
	verdict, err := v.Validate(context.Background(), m)
	require.NoError(t, err)
	assert.False(t, verdict.Feasible)
	require.Len(t, verdict.Violated(), 1)
	assert.Contains(t, verdict.Violated()[0], "deadline")
}

type failingOracle struct{}

func (failingOracle) DistanceTime(ctx context.Context, a, b model.GeoPoint) (float64, time.Duration, error) {
	return 0, 0, errors.New("provider down")
}

func TestValidateOracleError(t *testing.T) {
	v := NewValidator(failingOracle{})
	_, err := v.Validate(context.Background(), testMission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}
