package rules

import (
	"context"
	"fmt"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
)

// Validator gathers mission facts through the distance oracle and runs the
// rule pipeline. Hard failures make the verdict infeasible; warnings ride
// along without failing it.
type Validator struct {
	Oracle oracle.Oracle
}

func NewValidator(o oracle.Oracle) *Validator {
	return &Validator{Oracle: o}
}

// Validate computes mission facts and evaluates every rule. The error return
// covers oracle failures only, never feasibility outcomes.
func (v *Validator) Validate(ctx context.Context, m model.Mission) (model.Verdict, error) {
	facts, err := v.gather(ctx, m)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("validate mission: %w", err)
	}

	verdict := model.Verdict{Feasible: true}
	for _, rule := range HardRules() {
		res := rule(facts)
		verdict.Results = append(verdict.Results, res)
		if !res.Passed {
			verdict.Feasible = false
		}
	}
	for _, rule := range WarnRules() {
		verdict.Results = append(verdict.Results, rule(facts))
	}
	return verdict, nil
}

func (v *Validator) gather(ctx context.Context, m model.Mission) (Facts, error) {
	f := Facts{
		DepartAt:        m.DepartAt,
		DispatchLatency: m.Config.DispatchLatency,
		UtilizationWarn: m.Config.UtilizationWarn,
		Trucks:          m.Trucks,
	}

	for _, t := range m.Trucks {
		f.FleetVolumeM3 += t.CapVolumeM3
		f.FleetWeightKg += t.CapWeightKg
		if t.CapVolumeM3 > f.MaxTruckVolumeM3 {
			f.MaxTruckVolumeM3 = t.CapVolumeM3
		}
		if t.CapWeightKg > f.MaxTruckWeightKg {
			f.MaxTruckWeightKg = t.CapWeightKg
		}
		if t.FuelBudgetL > 0 && t.ConsumptionL100 > 0 {
			rangeKm := t.FuelBudgetL / t.ConsumptionL100 * 100
			if rangeKm > f.MaxRangeKm {
				f.MaxRangeKm = rangeKm
			}
		}
	}

	var tightest *model.Order
	for i, o := range m.Orders {
		f.TotalVolumeM3 += o.VolumeM3
		f.TotalWeightKg += o.WeightKg
		if o.VolumeM3 > f.MaxOrderVolumeM3 {
			f.MaxOrderVolumeM3 = o.VolumeM3
		}
		if o.WeightKg > f.MaxOrderWeightKg {
			f.MaxOrderWeightKg = o.WeightKg
		}
		km, _, err := v.Oracle.DistanceTime(ctx, m.Depot, o.Location)
		if err != nil {
			return Facts{}, fmt.Errorf("distance to order %s: %w", o.ID, err)
		}
		if rt := 2 * km; rt > f.FarthestRoundTripKm {
			f.FarthestRoundTripKm = rt
		}
		if !o.Deadline.IsZero() && (tightest == nil || o.Deadline.Before(tightest.Deadline)) {
			tightest = &m.Orders[i]
		}
	}

	if tightest != nil {
		f.TightestDeadline = tightest.Deadline
		_, dur, err := v.Oracle.DistanceTime(ctx, m.Depot, tightest.Location)
		if err != nil {
			return Facts{}, fmt.Errorf("travel time to order %s: %w", tightest.ID, err)
		}
		f.DirectTravel = dur
	}
	return f, nil
}
