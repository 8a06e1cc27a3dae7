// Package rules is the feasibility gate that runs before any search is
// allowed to spend compute. Each rule is an independent pure predicate over
// mission aggregates; the validator is a fixed pipeline, not a hierarchy.
package rules

import (
	"fmt"
	"time"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// Facts are the precomputed mission aggregates rules evaluate against.
type Facts struct {
	TotalVolumeM3 float64
	TotalWeightKg float64
	FleetVolumeM3 float64
	FleetWeightKg float64

	// Largest single-order demand, for the "fits some truck" check.
	MaxOrderVolumeM3 float64
	MaxOrderWeightKg float64
	MaxTruckVolumeM3 float64
	MaxTruckWeightKg float64

	// Farthest order round trip from the depot and the best range in the fleet.
	FarthestRoundTripKm float64
	MaxRangeKm          float64 // 0 means unlimited (no fuel budget configured)

	// Tightest deadline and the direct travel time to that order.
	TightestDeadline time.Time
	DirectTravel     time.Duration
	DepartAt         time.Time
	DispatchLatency  time.Duration

	UtilizationWarn float64
	Trucks          []model.Truck
}

// Rule evaluates one independent feasibility predicate.
type Rule func(f Facts) model.RuleResult

// HardRules are the rules whose failure makes a mission infeasible.
func HardRules() []Rule {
	return []Rule{
		AggregateCapacity,
		OrderFitsSomeTruck,
		FleetRange,
		DeadlineReachable,
	}
}

// WarnRules report soft conditions; they never fail a mission.
func WarnRules() []Rule {
	return []Rule{
		UtilizationHeadroom,
		TruckProfiles,
	}
}

// AggregateCapacity requires total fleet capacity to cover total demand in
// both volume and weight.
func AggregateCapacity(f Facts) model.RuleResult {
	ok := f.FleetVolumeM3 >= f.TotalVolumeM3 && f.FleetWeightKg >= f.TotalWeightKg
	detail := fmt.Sprintf("fleet capacity %.1fm3/%.1fkg vs demand %.1fm3/%.1fkg",
		f.FleetVolumeM3, f.FleetWeightKg, f.TotalVolumeM3, f.TotalWeightKg)
	if !ok {
		detail = "aggregate demand exceeds fleet capacity: " + detail
	}
	return model.RuleResult{Rule: "aggregate_capacity", Severity: model.SeverityHard, Passed: ok, Detail: detail}
}

// OrderFitsSomeTruck rejects missions with an order no single truck can carry.
func OrderFitsSomeTruck(f Facts) model.RuleResult {
	ok := f.MaxOrderVolumeM3 <= f.MaxTruckVolumeM3 && f.MaxOrderWeightKg <= f.MaxTruckWeightKg
	detail := fmt.Sprintf("largest order %.1fm3/%.1fkg, largest truck %.1fm3/%.1fkg",
		f.MaxOrderVolumeM3, f.MaxOrderWeightKg, f.MaxTruckVolumeM3, f.MaxTruckWeightKg)
	if !ok {
		detail = "an order exceeds the capacity of every truck: " + detail
	}
	return model.RuleResult{Rule: "order_fits_truck", Severity: model.SeverityHard, Passed: ok, Detail: detail}
}

// FleetRange requires at least one truck able to reach the farthest order and
// return on its fuel budget.
func FleetRange(f Facts) model.RuleResult {
	ok := f.MaxRangeKm <= 0 || f.MaxRangeKm >= f.FarthestRoundTripKm
	detail := fmt.Sprintf("farthest round trip %.1fkm, best range %.1fkm", f.FarthestRoundTripKm, f.MaxRangeKm)
	if f.MaxRangeKm <= 0 {
		detail = fmt.Sprintf("farthest round trip %.1fkm, no fuel budget configured", f.FarthestRoundTripKm)
	}
	if !ok {
		detail = "farthest order is out of fuel range: " + detail
	}
	return model.RuleResult{Rule: "fleet_range", Severity: model.SeverityHard, Passed: ok, Detail: detail}
}

// DeadlineReachable requires the tightest deadline to be reachable by direct
// travel plus the fixed dispatch latency.
func DeadlineReachable(f Facts) model.RuleResult {
	if f.TightestDeadline.IsZero() {
		return model.RuleResult{Rule: "deadline_reachable", Severity: model.SeverityHard, Passed: true, Detail: "no deadlines set"}
	}
	remaining := f.TightestDeadline.Sub(f.DepartAt)
	needed := f.DispatchLatency + f.DirectTravel
	ok := needed <= remaining
	detail := fmt.Sprintf("tightest deadline in %s, direct travel %s + dispatch %s",
		remaining.Round(time.Minute), f.DirectTravel.Round(time.Minute), f.DispatchLatency.Round(time.Minute))
	if !ok {
		detail = "tightest deadline unreachable even by direct dispatch: " + detail
	}
	return model.RuleResult{Rule: "deadline_reachable", Severity: model.SeverityHard, Passed: ok, Detail: detail}
}

// UtilizationHeadroom warns when average fleet utilization would exceed the
// configured threshold. High utilization leaves the search little slack.
func UtilizationHeadroom(f Facts) model.RuleResult {
	threshold := f.UtilizationWarn
	if threshold <= 0 {
		threshold = 0.9
	}
	util := 0.0
	if f.FleetWeightKg > 0 {
		util = f.TotalWeightKg / f.FleetWeightKg
	}
	ok := util <= threshold
	detail := fmt.Sprintf("projected fleet utilization %.0f%% (threshold %.0f%%)", util*100, threshold*100)
	return model.RuleResult{Rule: "utilization_headroom", Severity: model.SeverityWarn, Passed: ok, Detail: detail}
}

// TruckProfiles warns about implausible truck parameters, carried over from
// the fleet rule base: speed 30-120 km/h, consumption 5-50 L/100km.
func TruckProfiles(f Facts) model.RuleResult {
	for _, t := range f.Trucks {
		if t.SpeedKph < 30 || t.SpeedKph > 120 {
			return model.RuleResult{
				Rule: "truck_profile", Severity: model.SeverityWarn, Passed: false,
				Detail: fmt.Sprintf("truck %s speed %.0f km/h outside 30-120", t.ID, t.SpeedKph),
			}
		}
		if t.ConsumptionL100 > 0 && (t.ConsumptionL100 < 5 || t.ConsumptionL100 > 50) {
			return model.RuleResult{
				Rule: "truck_profile", Severity: model.SeverityWarn, Passed: false,
				Detail: fmt.Sprintf("truck %s consumption %.1f L/100km outside 5-50", t.ID, t.ConsumptionL100),
			}
		}
	}
	return model.RuleResult{Rule: "truck_profile", Severity: model.SeverityWarn, Passed: true, Detail: "truck profiles within expected ranges"}
}
