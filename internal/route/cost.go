package route

import (
	"fmt"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// capacityPenalty dominates every achievable weighted cost so an overloaded
// permutation always loses to any legal one, yet stays finite to preserve
// search diversity in the genetic population.
const capacityPenalty = 1e6

// schedule is the simulated execution of one permutation: distances, drive
// and rest time, per-stop arrivals, and lateness against deadlines.
type schedule struct {
	distanceKm   float64
	driveHours   float64
	totalHours   float64 // drive + rests
	latenessHrs  float64 // summed hours past deadlines
	lateStops    int
	arrivals     []time.Time // per stop, permutation order
	overloadKg   float64     // demand weight above truck capacity
	overloadM3   float64
}

func (s schedule) feasible() bool {
	return s.lateStops == 0 && s.overloadKg == 0 && s.overloadM3 == 0
}

// simulate walks perm (stop indices 1..n) from the depot and back, inserting
// a short rest after each stretch of continuous driving per the labor rules.
func (p *problem) simulate(perm []int) schedule {
	var s schedule
	s.arrivals = make([]time.Time, len(perm))

	var totalW, totalV float64
	for _, o := range p.orders {
		totalW += o.WeightKg
		totalV += o.VolumeM3
	}
	if totalW > p.truck.CapWeightKg {
		s.overloadKg = totalW - p.truck.CapWeightKg
	}
	if totalV > p.truck.CapVolumeM3 {
		s.overloadM3 = totalV - p.truck.CapVolumeM3
	}

	speed := p.truck.SpeedKph
	if speed <= 0 {
		speed = 80
	}
	maxStretch := p.cfg.MaxContinuousDriveHours
	restHrs := p.cfg.ShortBreak.Hours()

	clock := p.departAt
	stretch := 0.0
	prev := 0
	for i, stop := range perm {
		leg := p.at(prev, stop)
		legHrs := leg / speed
		if stretch+legHrs > maxStretch {
			clock = clock.Add(p.cfg.ShortBreak)
			s.totalHours += restHrs
			stretch = 0
		}
		clock = clock.Add(time.Duration(legHrs * float64(time.Hour)))
		s.distanceKm += leg
		s.driveHours += legHrs
		s.totalHours += legHrs
		stretch += legHrs
		s.arrivals[i] = clock

		if dl := p.orders[stop-1].Deadline; !dl.IsZero() && clock.After(dl) {
			s.latenessHrs += clock.Sub(dl).Hours()
			s.lateStops++
		}
		prev = stop
	}
	// Return leg to the depot counts toward distance and time, not deadlines.
	back := p.at(prev, 0)
	s.distanceKm += back
	s.driveHours += back / speed
	s.totalHours += back / speed
	return s
}

// cost is the shared objective both strategies minimize:
// alpha*distance + beta*lateness + gamma*unused-capacity, with a large but
// finite penalty for capacity overload.
func (p *problem) cost(s schedule) float64 {
	w := p.cfg.Weights
	c := w.Alpha*s.distanceKm + w.Beta*s.latenessHrs + w.Gamma*p.unusedCapacity()
	if s.overloadKg > 0 || s.overloadM3 > 0 {
		c += capacityPenalty + s.overloadKg + s.overloadM3
	}
	return c
}

// unusedCapacity is the idle fraction of the binding capacity dimension.
// Permutation-independent, but part of the comparable objective value.
func (p *problem) unusedCapacity() float64 {
	var totalW, totalV float64
	for _, o := range p.orders {
		totalW += o.WeightKg
		totalV += o.VolumeM3
	}
	frac := 0.0
	if p.truck.CapWeightKg > 0 {
		frac = 1 - totalW/p.truck.CapWeightKg
	}
	if p.truck.CapVolumeM3 > 0 {
		if f := 1 - totalV/p.truck.CapVolumeM3; f < frac {
			frac = f
		}
	}
	if frac < 0 {
		frac = 0
	}
	return frac
}

// buildRoute materializes a permutation into the immutable Route handed back
// to the orchestrator, including economics carried from the fleet model.
func (p *problem) buildRoute(perm []int, status string) model.Route {
	s := p.simulate(perm)

	var totalW, totalV, revenue float64
	for _, o := range p.orders {
		totalW += o.WeightKg
		totalV += o.VolumeM3
		revenue += o.ValueEUR
	}

	stops := make([]model.Stop, len(perm))
	var cumW, cumV float64
	var violations []string
	for i, idx := range perm {
		o := p.orders[idx-1]
		cumW += o.WeightKg
		cumV += o.VolumeM3
		stop := model.Stop{
			OrderID:     o.ID,
			Location:    o.Location,
			ETA:         s.arrivals[i],
			CumWeightKg: cumW,
			CumVolumeM3: cumV,
		}
		if !o.Deadline.IsZero() && s.arrivals[i].After(o.Deadline) {
			stop.LateBy = s.arrivals[i].Sub(o.Deadline).Hours()
			violations = append(violations, fmt.Sprintf("order %s arrives %.1fh past deadline", o.ID, stop.LateBy))
		}
		stops[i] = stop
	}
	if s.overloadKg > 0 {
		violations = append(violations, fmt.Sprintf("load exceeds capacity by %.1fkg", s.overloadKg))
	}
	if s.overloadM3 > 0 {
		violations = append(violations, fmt.Sprintf("load exceeds capacity by %.2fm3", s.overloadM3))
	}

	liters := s.distanceKm / 100 * p.truck.ConsumptionL100
	fuelCost := liters * p.cfg.FuelPriceEUR
	driverCost := s.driveHours * p.truck.DriverRateEURHr
	perKm := s.distanceKm * p.truck.CostPerKmEUR
	totalCost := fuelCost + driverCost + perKm + p.truck.FixedCostEUR

	util := 0.0
	if p.truck.CapWeightKg > 0 {
		util = totalW / p.truck.CapWeightKg * 100
	}

	return model.Route{
		TruckID:    p.truck.ID,
		ZoneID:     p.zone.ID,
		Status:     status,
		BestEffort: status == model.RouteBudgetExhausted || len(violations) > 0,
		Stops:      stops,
		Violations: violations,
		Metrics: model.RouteMetrics{
			DistanceKm:         model.Round2(s.distanceKm),
			TravelHours:        model.Round2(s.totalHours),
			DriveHours:         model.Round2(s.driveHours),
			FuelLiters:         model.Round2(liters),
			FuelCostEUR:        model.Round2(fuelCost),
			DriverCostEUR:      model.Round2(driverCost),
			FixedCostEUR:       model.Round2(p.truck.FixedCostEUR),
			TotalCostEUR:       model.Round2(totalCost),
			RevenueEUR:         model.Round2(revenue),
			NetProfitEUR:       model.Round2(revenue - totalCost),
			UtilizationPct:     model.Round2(util),
			DeadlineViolations: s.lateStops,
			SearchCost:         p.cost(s),
		},
	}
}


// greedySeed builds a nearest-neighbor tour from the depot; the deterministic
// starting point both strategies improve on.
func (p *problem) greedySeed() []int {
	unvisited := make(map[int]bool, p.n)
	for i := 1; i <= p.n; i++ {
		unvisited[i] = true
	}
	perm := make([]int, 0, p.n)
	cur := 0
	for len(unvisited) > 0 {
		best := -1
		bestD := 0.0
		for i := 1; i <= p.n; i++ {
			if !unvisited[i] {
				continue
			}
			d := p.at(cur, i)
			if best == -1 || d < bestD || (d == bestD && i < best) {
				best = i
				bestD = d
			}
		}
		perm = append(perm, best)
		delete(unvisited, best)
		cur = best
	}
	return perm
}

// twoOptPolish deterministically removes crossings until no improving
// reversal remains. Shared by the genetic final pass and the exact seeder.
func (p *problem) twoOptPolish(perm []int) []int {
	best := append([]int(nil), perm...)
	bestCost := p.cost(p.simulate(best))
	improved := true
	for improved {
		improved = false
		for i := 0; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				cand := append([]int(nil), best...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if c := p.cost(p.simulate(cand)); c+1e-9 < bestCost {
					best = cand
					bestCost = c
					improved = true
				}
			}
		}
	}
	return best
}
