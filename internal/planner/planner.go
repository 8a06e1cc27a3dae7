// Package planner orchestrates a full mission run: feasibility validation,
// zone clustering, zone-to-truck assignment and per-zone route optimization.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/cluster"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/route"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/rules"
)

var (
	ErrNoOrders = errors.New("planner: mission has no orders")
	ErrNoTrucks = errors.New("planner: mission has no trucks")
)

// InfeasibleError is returned when the hard feasibility rules reject a
// mission before any clustering or routing runs. The full verdict rides
// along so callers can report which rules failed.
type InfeasibleError struct {
	Verdict model.Verdict
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("planner: mission infeasible: %d hard rule(s) violated", len(e.Verdict.Violated()))
}

// Planner runs missions against a distance oracle. Safe for concurrent use;
// each Run carries its own state.
type Planner struct {
	oracle oracle.Oracle

	// Labor rules applied during schedule simulation. Zero values select the
	// route package defaults.
	MaxContinuousDriveHours float64
	ShortBreak              time.Duration

	// Events, when set, receives progress notifications keyed by mission id.
	// Called from multiple goroutines during route optimization.
	Events func(missionID, eventType string, data map[string]any)
}

func New(o oracle.Oracle) *Planner {
	return &Planner{oracle: o}
}

func (pl *Planner) emit(missionID, eventType string, data map[string]any) {
	if pl.Events != nil {
		pl.Events(missionID, eventType, data)
	}
}

// Run executes the full pipeline for one mission. The fail-fast contract
// holds: an infeasible mission returns before clustering, and the returned
// Result still carries the verdict so the caller can surface rule details.
func (pl *Planner) Run(ctx context.Context, m model.Mission) (model.Result, error) {
	if len(m.Orders) == 0 {
		return model.Result{}, ErrNoOrders
	}
	if len(m.Trucks) == 0 {
		return model.Result{}, ErrNoTrucks
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.DepartAt.IsZero() {
		// Validation and routing must read the same departure clock.
		m.DepartAt = time.Now().UTC()
	}

	// Every distance query in the run hits the same memoized oracle; zones
	// share depot legs and the validator pre-warms the farthest orders.
	orc := oracle.NewCache(pl.oracle)

	res := model.Result{MissionID: m.ID, PlannedAt: time.Now().UTC()}

	verdict, err := rules.NewValidator(orc).Validate(ctx, m)
	if err != nil {
		return res, fmt.Errorf("planner: validate: %w", err)
	}
	res.Verdict = verdict
	res.Warnings = verdict.Warnings()
	if !verdict.Feasible {
		pl.emit(m.ID, "mission.infeasible", map[string]any{"violated": verdict.Violated()})
		return res, &InfeasibleError{Verdict: verdict}
	}
	pl.emit(m.ID, "mission.validated", map[string]any{"warnings": len(res.Warnings)})

	zones, err := cluster.Cluster(m.Orders, m.Trucks, cluster.Config{Strategy: m.Config.ClusterStrategy})
	if err != nil {
		return res, fmt.Errorf("planner: cluster: %w", err)
	}
	res.Zones = zones
	pl.emit(m.ID, "mission.clustered", map[string]any{"zones": len(zones)})

	assign := assignZones(zones, m.Trucks)
	res.Routes = pl.optimizeAll(ctx, m, zones, assign, orc)
	res.Metrics = aggregate(res.Routes)
	pl.emit(m.ID, "mission.completed", map[string]any{
		"routesPlanned": res.Metrics.RoutesPlanned,
		"routesFailed":  res.Metrics.RoutesFailed,
		"totalCostEur":  res.Metrics.TotalCostEUR,
	})
	return res, nil
}

// assignZones pairs zones with trucks greedily: heaviest zone demand to the
// largest remaining weight capacity. Returns truck index per zone index.
func assignZones(zones []model.Zone, trucks []model.Truck) []int {
	zi := make([]int, len(zones))
	for i := range zi {
		zi[i] = i
	}
	sort.Slice(zi, func(a, b int) bool {
		if zones[zi[a]].DemandW != zones[zi[b]].DemandW {
			return zones[zi[a]].DemandW > zones[zi[b]].DemandW
		}
		return zi[a] < zi[b]
	})
	ti := make([]int, len(trucks))
	for i := range ti {
		ti[i] = i
	}
	sort.Slice(ti, func(a, b int) bool {
		if trucks[ti[a]].CapWeightKg != trucks[ti[b]].CapWeightKg {
			return trucks[ti[a]].CapWeightKg > trucks[ti[b]].CapWeightKg
		}
		return ti[a] < ti[b]
	})

	assign := make([]int, len(zones))
	for r, z := range zi {
		assign[z] = ti[r%len(ti)]
	}
	return assign
}

// optimizeAll runs route searches for all zones with bounded parallelism.
// A panic or error in one zone degrades that route to a failed placeholder
// instead of aborting the mission.
func (pl *Planner) optimizeAll(ctx context.Context, m model.Mission, zones []model.Zone, assign []int, orc oracle.Oracle) []model.Route {
	par := m.Config.MaxParallelRoutes
	if par <= 0 {
		par = 4
	}
	sem := make(chan struct{}, par)
	routes := make([]model.Route, len(zones))

	var wg sync.WaitGroup
	for i := range zones {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			routes[i] = pl.optimizeZone(ctx, m, zones[i], m.Trucks[assign[i]], orc)
			pl.emit(m.ID, "route.planned", map[string]any{
				"zoneId": zones[i].ID, "truckId": routes[i].TruckID, "status": routes[i].Status,
			})
		}(i)
	}
	wg.Wait()
	return routes
}

func (pl *Planner) optimizeZone(ctx context.Context, m model.Mission, z model.Zone, truck model.Truck, orc oracle.Oracle) (r model.Route) {
	defer func() {
		if rec := recover(); rec != nil {
			r = failedRoute(z, truck, fmt.Sprintf("panic: %v", rec))
		}
	}()

	orders := ordersByID(m.Orders, z.OrderIDs)
	departAt := m.DepartAt.Add(m.Config.DispatchLatency)

	cfg := route.Config{
		Strategy:                m.Config.RouteStrategy,
		TimeBudget:              m.Config.TimeBudgetPerRoute,
		Seed:                    m.Config.Seed,
		Weights:                 m.Config.Weights,
		FuelPriceEUR:            m.Config.FuelPriceEUR,
		MaxContinuousDriveHours: pl.MaxContinuousDriveHours,
		ShortBreak:              pl.ShortBreak,
	}
	r, err := route.Optimize(ctx, z, orders, truck, m.Depot, departAt, orc, cfg)
	if err != nil && !errors.Is(err, route.ErrProvenInfeasible) {
		return failedRoute(z, truck, err.Error())
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if errors.Is(err, route.ErrProvenInfeasible) {
		r.Error = err.Error()
	}
	return r
}

func failedRoute(z model.Zone, truck model.Truck, detail string) model.Route {
	return model.Route{
		ID:      uuid.NewString(),
		TruckID: truck.ID,
		ZoneID:  z.ID,
		Status:  model.RouteFailed,
		Error:   detail,
	}
}

func ordersByID(orders []model.Order, ids []string) []model.Order {
	byID := make(map[string]model.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	out := make([]model.Order, 0, len(ids))
	for _, id := range ids {
		if o, ok := byID[id]; ok {
			out = append(out, o)
		}
	}
	return out
}

// aggregate folds route metrics into mission totals. Failed routes count in
// RoutesFailed and contribute nothing else.
func aggregate(routes []model.Route) model.MissionMetrics {
	var mm model.MissionMetrics
	var utilSum float64
	var utilN int
	for _, r := range routes {
		if r.Status == model.RouteFailed {
			mm.RoutesFailed++
			continue
		}
		mm.RoutesPlanned++
		if r.BestEffort {
			mm.RoutesBestEffort++
		}
		mm.TotalDistanceKm += r.Metrics.DistanceKm
		mm.TotalTravelHours += r.Metrics.TravelHours
		mm.TotalCostEUR += r.Metrics.TotalCostEUR
		mm.TotalFuelLiters += r.Metrics.FuelLiters
		mm.TotalRevenueEUR += r.Metrics.RevenueEUR
		mm.TotalNetProfitEUR += r.Metrics.NetProfitEUR
		mm.DeadlineViolations += r.Metrics.DeadlineViolations
		utilSum += r.Metrics.UtilizationPct
		utilN++
	}
	if utilN > 0 {
		mm.FleetUtilizationPct = model.Round2(utilSum / float64(utilN))
	}
	mm.TotalDistanceKm = model.Round2(mm.TotalDistanceKm)
	mm.TotalTravelHours = model.Round2(mm.TotalTravelHours)
	mm.TotalCostEUR = model.Round2(mm.TotalCostEUR)
	mm.TotalFuelLiters = model.Round2(mm.TotalFuelLiters)
	mm.TotalRevenueEUR = model.Round2(mm.TotalRevenueEUR)
	mm.TotalNetProfitEUR = model.Round2(mm.TotalNetProfitEUR)
	return mm
}

// MinTrucks estimates the smallest homogeneous fleet of the given profile
// that can carry the demand, sizing by the binding dimension.
func MinTrucks(orders []model.Order, profile model.Truck) int {
	var w, v float64
	for _, o := range orders {
		w += o.WeightKg
		v += o.VolumeM3
	}
	n := 0
	if profile.CapWeightKg > 0 {
		n = int(math.Ceil(w / profile.CapWeightKg))
	}
	if profile.CapVolumeM3 > 0 {
		if m := int(math.Ceil(v / profile.CapVolumeM3)); m > n {
			n = m
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

