package model

import (
	"math"
	"time"
)

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Order is a single perishable-goods order. Immutable once ingested.
type Order struct {
	ID        string    `json:"id"`
	Product   string    `json:"product,omitempty"`
	Category  string    `json:"category,omitempty"`
	Location  GeoPoint  `json:"location"`
	VolumeM3  float64   `json:"volumeM3"`
	WeightKg  float64   `json:"weightKg"`
	ValueEUR  float64   `json:"valueEur,omitempty"`
	Deadline  time.Time `json:"deadline"`
	PlacedAt  time.Time `json:"placedAt,omitempty"`
	Reference string    `json:"reference,omitempty"`
}

// Truck describes one vehicle of the fleet. Immutable for a mission run.
type Truck struct {
	ID              string  `json:"id"`
	Name            string  `json:"name,omitempty"`
	CapVolumeM3     float64 `json:"capVolumeM3"`
	CapWeightKg     float64 `json:"capWeightKg"`
	SpeedKph        float64 `json:"speedKph"`
	ConsumptionL100 float64 `json:"consumptionLPer100Km"`
	FuelBudgetL     float64 `json:"fuelBudgetL,omitempty"`
	FixedCostEUR    float64 `json:"fixedCostEur,omitempty"`
	CostPerKmEUR    float64 `json:"costPerKmEur,omitempty"`
	DriverRateEURHr float64 `json:"driverRateEurPerHour,omitempty"`
}

// Clustering and routing strategy names accepted in mission configuration.
const (
	ClusterCentroid     = "centroid"
	ClusterConnectivity = "connectivity"

	RouteGenetic = "genetic"
	RouteExact   = "exact"
)

// CostWeights are the objective weights of the shared route cost function.
type CostWeights struct {
	Alpha float64 `json:"alpha" yaml:"alpha"` // per km driven
	Beta  float64 `json:"beta" yaml:"beta"`   // per hour of deadline lateness
	Gamma float64 `json:"gamma" yaml:"gamma"` // per fraction of unused capacity
}

// MissionConfig is the per-run optimization configuration.
type MissionConfig struct {
	ClusterStrategy    string        `json:"clusterStrategy"`
	RouteStrategy      string        `json:"routeStrategy"`
	TimeBudgetPerRoute time.Duration `json:"timeBudgetPerRoute"`
	Seed               int64         `json:"seed,omitempty"`
	Weights            CostWeights   `json:"weights"`
	UtilizationWarn    float64       `json:"utilizationWarn,omitempty"`
	DispatchLatency    time.Duration `json:"dispatchLatency,omitempty"`
	FuelPriceEUR       float64       `json:"fuelPriceEurPerLiter,omitempty"`
	MaxParallelRoutes  int           `json:"maxParallelRoutes,omitempty"`
}

// Mission aggregates one optimization run's input. No identity beyond the run.
type Mission struct {
	ID       string        `json:"id,omitempty"`
	Depot    GeoPoint      `json:"depot"`
	DepartAt time.Time     `json:"departAt"`
	Orders   []Order       `json:"orders"`
	Trucks   []Truck       `json:"trucks"`
	Config   MissionConfig `json:"config"`
}

// Zone is a geographic grouping of orders destined for one truck.
// Centroid and Hull are reporting artifacts, not optimization state.
type Zone struct {
	ID       string     `json:"id"`
	OrderIDs []string   `json:"orderIds"`
	Centroid GeoPoint   `json:"centroid"`
	Hull     []GeoPoint `json:"hull,omitempty"`
	DemandV  float64    `json:"demandVolumeM3"`
	DemandW  float64    `json:"demandWeightKg"`
}

// Stop is one delivery in a route with its schedule estimate.
type Stop struct {
	OrderID     string    `json:"orderId"`
	Location    GeoPoint  `json:"location"`
	ETA         time.Time `json:"eta"`
	CumVolumeM3 float64   `json:"cumVolumeM3"`
	CumWeightKg float64   `json:"cumWeightKg"`
	LateBy      float64   `json:"lateByHours,omitempty"` // hours past the order deadline
}

// Terminal states of a route search.
const (
	RouteConverged       = "converged"
	RouteBudgetExhausted = "budget_exhausted"
	RouteInfeasible      = "infeasible"
	RouteFailed          = "failed"
)

// RouteMetrics are the physical and economic totals of one route.
type RouteMetrics struct {
	DistanceKm         float64 `json:"distanceKm"`
	TravelHours        float64 `json:"travelHours"`
	DriveHours         float64 `json:"driveHours"`
	FuelLiters         float64 `json:"fuelLiters"`
	FuelCostEUR        float64 `json:"fuelCostEur"`
	DriverCostEUR      float64 `json:"driverCostEur"`
	FixedCostEUR       float64 `json:"fixedCostEur"`
	TotalCostEUR       float64 `json:"totalCostEur"`
	RevenueEUR         float64 `json:"revenueEur"`
	NetProfitEUR       float64 `json:"netProfitEur"`
	UtilizationPct     float64 `json:"utilizationPct"`
	DeadlineViolations int     `json:"deadlineViolations"`
	SearchCost         float64 `json:"searchCost"`
}

// Route is the ordered stop sequence for one truck. Immutable once returned.
type Route struct {
	ID         string       `json:"id"`
	TruckID    string       `json:"truckId"`
	ZoneID     string       `json:"zoneId"`
	Status     string       `json:"status"`
	BestEffort bool         `json:"bestEffort,omitempty"`
	Stops      []Stop       `json:"stops"`
	Violations []string     `json:"violations,omitempty"`
	Metrics    RouteMetrics `json:"metrics"`
	Error      string       `json:"error,omitempty"`
}

// Rule severities.
const (
	SeverityHard = "hard"
	SeverityWarn = "warning"
)

// RuleResult is the outcome of a single feasibility rule.
type RuleResult struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
}

// Verdict is the composite output of the feasibility validator.
type Verdict struct {
	Feasible bool         `json:"feasible"`
	Results  []RuleResult `json:"results"`
}

// Warnings returns the details of soft rules that did not pass.
func (v Verdict) Warnings() []string {
	var out []string
	for _, r := range v.Results {
		if !r.Passed && r.Severity == SeverityWarn {
			out = append(out, r.Detail)
		}
	}
	return out
}

// Violated returns the details of hard rules that did not pass.
func (v Verdict) Violated() []string {
	var out []string
	for _, r := range v.Results {
		if !r.Passed && r.Severity == SeverityHard {
			out = append(out, r.Detail)
		}
	}
	return out
}

// MissionMetrics aggregates route metrics over a completed mission.
type MissionMetrics struct {
	TotalDistanceKm     float64 `json:"totalDistanceKm"`
	TotalTravelHours    float64 `json:"totalTravelHours"`
	TotalCostEUR        float64 `json:"totalCostEur"`
	TotalFuelLiters     float64 `json:"totalFuelLiters"`
	TotalRevenueEUR     float64 `json:"totalRevenueEur"`
	TotalNetProfitEUR   float64 `json:"totalNetProfitEur"`
	FleetUtilizationPct float64 `json:"fleetUtilizationPct"`
	DeadlineViolations  int     `json:"deadlineViolations"`
	RoutesPlanned       int     `json:"routesPlanned"`
	RoutesBestEffort    int     `json:"routesBestEffort"`
	RoutesFailed        int     `json:"routesFailed"`
}

// Result is the full output of one mission run. Plain data for collaborators.
type Result struct {
	MissionID string         `json:"missionId"`
	Verdict   Verdict        `json:"verdict"`
	Zones     []Zone         `json:"zones"`
	Routes    []Route        `json:"routes"`
	Metrics   MissionMetrics `json:"metrics"`
	Warnings  []string       `json:"warnings,omitempty"`
	PlannedAt time.Time      `json:"plannedAt"`
}

// Round2 rounds monetary and metric values to two decimals for reporting.
// Every serialized figure goes through the same rounding.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
