package api

import (
	"fmt"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

func validateOrder(o model.Order) error {
	if o.WeightKg <= 0 {
		return fmt.Errorf("weightKg must be > 0")
	}
	if o.VolumeM3 <= 0 {
		return fmt.Errorf("volumeM3 must be > 0")
	}
	if o.Location.Lat < -90 || o.Location.Lat > 90 {
		return fmt.Errorf("lat out of range: %f", o.Location.Lat)
	}
	if o.Location.Lng < -180 || o.Location.Lng > 180 {
		return fmt.Errorf("lng out of range: %f", o.Location.Lng)
	}
	return nil
}

func validateTruck(t model.Truck) error {
	if t.CapWeightKg <= 0 {
		return fmt.Errorf("capWeightKg must be > 0")
	}
	if t.CapVolumeM3 <= 0 {
		return fmt.Errorf("capVolumeM3 must be > 0")
	}
	if t.SpeedKph < 0 {
		return fmt.Errorf("speedKph must be >= 0")
	}
	if t.ConsumptionL100 < 0 {
		return fmt.Errorf("consumptionLPer100Km must be >= 0")
	}
	return nil
}

func validateMission(m model.Mission) error {
	if len(m.Orders) == 0 {
		return fmt.Errorf("mission needs at least one order")
	}
	if len(m.Trucks) == 0 {
		return fmt.Errorf("mission needs at least one truck")
	}
	switch m.Config.ClusterStrategy {
	case model.ClusterCentroid, model.ClusterConnectivity:
	default:
		return fmt.Errorf("invalid clusterStrategy: %s", m.Config.ClusterStrategy)
	}
	switch m.Config.RouteStrategy {
	case model.RouteGenetic, model.RouteExact:
	default:
		return fmt.Errorf("invalid routeStrategy: %s", m.Config.RouteStrategy)
	}
	for i, o := range m.Orders {
		if err := validateOrder(o); err != nil {
			return fmt.Errorf("orders[%d]: %w", i, err)
		}
	}
	for i, t := range m.Trucks {
		if err := validateTruck(t); err != nil {
			return fmt.Errorf("trucks[%d]: %w", i, err)
		}
	}
	return nil
}
