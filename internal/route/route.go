// Package route sequences the stops of one zone/truck pairing. Two
// interchangeable strategies honor the same contract and cost model: a
// genetic search over stop permutations and an exact branch-and-bound
// solver. Results are comparable across strategies on the same input.
package route

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
)

var (
	ErrUnknownStrategy = errors.New("route: unknown strategy")
	ErrNoOrders        = errors.New("route: zone has no orders")

	// ErrProvenInfeasible reports that the exact solver proved no stop
	// ordering satisfies the hard capacity and deadline constraints.
	ErrProvenInfeasible = errors.New("route: proven infeasible")
)

// Search states. Initialized and Searching are internal; every search leaves
// Searching through exactly one terminal state, recorded on the Route.
const (
	stateInitialized = iota
	stateSearching
	stateConverged
	stateBudgetExhausted
	stateInfeasible
)

// Config tunes one route search. Zero values select defaults.
type Config struct {
	Strategy   string // model.RouteGenetic or model.RouteExact
	TimeBudget time.Duration
	Seed       int64
	Weights    model.CostWeights

	// Economics
	FuelPriceEUR float64

	// Labor rules: a short rest after a stretch of continuous driving.
	MaxContinuousDriveHours float64
	ShortBreak              time.Duration

	// Genetic strategy knobs.
	PopulationSize  int
	MaxGenerations  int
	StagnationLimit int
	MutationProb    float64
	TournamentK     int
	EvalWorkers     int

	// OnGeneration, when set, observes the incumbent cost after each
	// generation is scored. Debug and test hook.
	OnGeneration func(gen int, bestCost float64)
}

func (c Config) withDefaults(n int) Config {
	if c.TimeBudget <= 0 {
		c.TimeBudget = 2 * time.Second
	}
	if c.Weights.Alpha == 0 && c.Weights.Beta == 0 && c.Weights.Gamma == 0 {
		c.Weights = model.CostWeights{Alpha: 1, Beta: 100, Gamma: 10}
	}
	if c.FuelPriceEUR <= 0 {
		c.FuelPriceEUR = 1.50
	}
	if c.MaxContinuousDriveHours <= 0 {
		c.MaxContinuousDriveHours = 2.0
	}
	if c.ShortBreak <= 0 {
		c.ShortBreak = 20 * time.Minute
	}
	if c.PopulationSize <= 0 {
		c.PopulationSize = 200
		if n < 10 {
			c.PopulationSize = 50
		}
	}
	if c.MaxGenerations <= 0 {
		c.MaxGenerations = 500
		if n < 10 {
			c.MaxGenerations = 100
		}
	}
	if c.StagnationLimit <= 0 {
		c.StagnationLimit = 40
	}
	if c.MutationProb <= 0 {
		c.MutationProb = 0.3
	}
	if c.TournamentK <= 0 {
		c.TournamentK = 3
	}
	if c.EvalWorkers <= 0 {
		c.EvalWorkers = 4
	}
	return c
}

// Optimize sequences the orders of one zone for one truck. The zone's orders
// must already be resolved from IDs by the caller. The returned route is
// immutable; re-running with the same seed and config on identical input
// reproduces it exactly.
func Optimize(ctx context.Context, zone model.Zone, orders []model.Order, truck model.Truck,
	depot model.GeoPoint, departAt time.Time, o oracle.Oracle, cfg Config) (model.Route, error) {
	if len(orders) == 0 {
		return model.Route{}, ErrNoOrders
	}
	cfg = cfg.withDefaults(len(orders))

	p, err := buildProblem(ctx, zone, orders, truck, depot, departAt, o, cfg)
	if err != nil {
		return model.Route{}, fmt.Errorf("optimize zone %s: %w", zone.ID, err)
	}

	switch cfg.Strategy {
	case "", model.RouteGenetic:
		return solveGenetic(ctx, p, cfg), nil
	case model.RouteExact:
		return solveExact(ctx, p, cfg)
	default:
		return model.Route{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, cfg.Strategy)
	}
}

// problem is the in-memory search space: a dense distance matrix over
// depot (index 0) and stops (1..n), plus everything the cost model needs.
// All oracle traffic happens once, here; the search loops never block.
type problem struct {
	zone     model.Zone
	orders   []model.Order
	truck    model.Truck
	departAt time.Time
	cfg      Config

	n  int       // stop count (excludes depot)
	km []float64 // (n+1)x(n+1) dense row-major distance buffer
}

func (p *problem) at(i, j int) float64 { return p.km[i*(p.n+1)+j] }

func buildProblem(ctx context.Context, zone model.Zone, orders []model.Order, truck model.Truck,
	depot model.GeoPoint, departAt time.Time, o oracle.Oracle, cfg Config) (*problem, error) {
	n := len(orders)
	locs := make([]model.GeoPoint, n+1)
	locs[0] = depot
	for i, ord := range orders {
		locs[i+1] = ord.Location
	}
	km := make([]float64, (n+1)*(n+1))
	for i := 0; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			d, _, err := o.DistanceTime(ctx, locs[i], locs[j])
			if err != nil {
				return nil, fmt.Errorf("distance %d->%d: %w", i, j, err)
			}
			km[i*(n+1)+j] = d
			km[j*(n+1)+i] = d
		}
	}
	return &problem{zone: zone, orders: orders, truck: truck, departAt: departAt, cfg: cfg, n: n, km: km}, nil
}
