package route

import (
	"context"
	"sort"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// solveExact runs a depth-first branch-and-bound over the stop graph with
// hard capacity and deadline constraints. Unlike the genetic strategy it can
// prove optimality and prove infeasibility: when the exhaustive (pruned)
// search finds no deadline-feasible tour, no tour exists.
//
// Determinism comes from fixed branching order (ascending edge weight, index
// tiebreak) and a soft time budget checked sparsely.
func solveExact(ctx context.Context, p *problem, cfg Config) (model.Route, error) {
	// Capacity is permutation-independent: an overloaded zone is proven
	// infeasible before any search runs.
	base := p.simulate(p.greedySeed())
	if base.overloadKg > 0 || base.overloadM3 > 0 {
		r := p.buildRoute(p.greedySeed(), model.RouteInfeasible)
		return r, ErrProvenInfeasible
	}

	e := &bnbEngine{
		p:        p,
		deadline: time.Now().Add(cfg.TimeBudget),
		ctx:      ctx,
	}
	e.prepare()

	// Seed the upper bound with the polished greedy tour when it is
	// deadline-feasible; a tight incumbent strengthens pruning massively.
	seedPerm := p.twoOptPolish(p.greedySeed())
	if s := p.simulate(seedPerm); s.feasible() {
		e.best = append([]int(nil), seedPerm...)
		e.bestDist = s.distanceKm
	}

	e.path = make([]int, 0, p.n)
	e.visited = make([]bool, p.n+1)
	e.search(0, 0, hoursState{clock: p.departAt})

	switch {
	case e.timedOut && e.best != nil:
		return p.buildRoute(e.best, model.RouteBudgetExhausted), nil
	case e.timedOut:
		// Budget gone with no feasible incumbent: hand back the polished
		// greedy tour with its violations annotated.
		return p.buildRoute(seedPerm, model.RouteBudgetExhausted), nil
	case e.best != nil:
		return p.buildRoute(e.best, model.RouteConverged), nil
	default:
		// Exhaustive search found no feasible completion: proof.
		r := p.buildRoute(seedPerm, model.RouteInfeasible)
		return r, ErrProvenInfeasible
	}
}

// hoursState carries the schedule simulation through the DFS.
type hoursState struct {
	clock   time.Time
	stretch float64 // continuous drive hours since the last rest
}

type bnbEngine struct {
	p        *problem
	ctx      context.Context
	deadline time.Time
	steps    int
	timedOut bool

	minEdge []float64 // admissible per-node entry cost for the lower bound
	order   [][]int   // per node: stops sorted by ascending edge weight

	path    []int
	visited []bool

	best     []int
	bestDist float64
}

func (e *bnbEngine) prepare() {
	p := e.p
	e.minEdge = make([]float64, p.n+1)
	e.order = make([][]int, p.n+1)
	for v := 0; v <= p.n; v++ {
		min := -1.0
		for u := 0; u <= p.n; u++ {
			if u == v {
				continue
			}
			if d := p.at(u, v); min < 0 || d < min {
				min = d
			}
		}
		e.minEdge[v] = min

		nbrs := make([]int, 0, p.n)
		for u := 1; u <= p.n; u++ {
			if u != v {
				nbrs = append(nbrs, u)
			}
		}
		sort.Slice(nbrs, func(a, b int) bool {
			da, db := p.at(v, nbrs[a]), p.at(v, nbrs[b])
			if da != db {
				return da < db
			}
			return nbrs[a] < nbrs[b]
		})
		e.order[v] = nbrs
	}
}

// budgetExceeded checks the wall clock sparsely; per-node checks would cost
// more than the bound computation itself.
func (e *bnbEngine) budgetExceeded() bool {
	e.steps++
	if e.steps&1023 != 0 {
		return false
	}
	if e.ctx.Err() != nil || time.Now().After(e.deadline) {
		e.timedOut = true
	}
	return e.timedOut
}

// lowerBound adds the cheapest possible entry edge for every unvisited stop
// plus the cheapest return to the depot. Admissible: every completion pays at
// least this much.
func (e *bnbEngine) lowerBound(distSoFar float64) float64 {
	lb := distSoFar
	for v := 1; v <= e.p.n; v++ {
		if !e.visited[v] {
			lb += e.minEdge[v]
		}
	}
	lb += e.minEdge[0]
	return lb
}

func (e *bnbEngine) search(last int, distSoFar float64, hs hoursState) {
	if e.timedOut || e.budgetExceeded() {
		return
	}
	p := e.p

	if len(e.path) == p.n {
		total := distSoFar + p.at(last, 0)
		if e.best == nil || total < e.bestDist-1e-9 {
			e.best = append(e.best[:0:0], e.path...)
			e.bestDist = total
		}
		return
	}

	if e.best != nil && e.lowerBound(distSoFar) >= e.bestDist-1e-9 {
		return
	}

	speed := p.truck.SpeedKph
	if speed <= 0 {
		speed = 80
	}
	for _, v := range e.order[last] {
		if e.visited[v] {
			continue
		}
		leg := p.at(last, v)
		legHrs := leg / speed
		next := hs
		if next.stretch+legHrs > p.cfg.MaxContinuousDriveHours {
			next.clock = next.clock.Add(p.cfg.ShortBreak)
			next.stretch = 0
		}
		next.clock = next.clock.Add(time.Duration(legHrs * float64(time.Hour)))
		next.stretch += legHrs

		// Deadline is a hard constraint here: arrivals only move later down
		// any completion of this prefix, so a late stop prunes the subtree.
		if dl := p.orders[v-1].Deadline; !dl.IsZero() && next.clock.After(dl) {
			continue
		}

		e.visited[v] = true
		e.path = append(e.path, v)
		e.search(v, distSoFar+leg, next)
		e.path = e.path[:len(e.path)-1]
		e.visited[v] = false

		if e.timedOut {
			return
		}
	}
}
