package store

import (
	"context"
	"errors"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
	// Orders
	CreateOrders(ctx context.Context, orders []model.Order) (created, skipped int, err error)
	ListOrders(ctx context.Context, cursor string, limit int) (items []model.Order, nextCursor string, err error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	DeleteOrder(ctx context.Context, id string) error

	// Trucks
	CreateTrucks(ctx context.Context, trucks []model.Truck) (created int, err error)
	ListTrucks(ctx context.Context) ([]model.Truck, error)
	GetTruck(ctx context.Context, id string) (model.Truck, error)
	DeleteTruck(ctx context.Context, id string) error

	// Mission results
	SaveResult(ctx context.Context, res model.Result) error
	GetResult(ctx context.Context, missionID string) (model.Result, error)
	ListResults(ctx context.Context, cursor string, limit int) ([]model.Result, string, error)
}

var ErrNotFound = errors.New("not found")
