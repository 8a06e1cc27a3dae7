package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
	mu       sync.Mutex
	orders   map[string]model.Order
	orderIDs []string // insertion order, doubles as cursor space
	trucks   map[string]model.Truck
	truckIDs []string
	results  map[string]model.Result
	resIDs   []string
}

func NewMemory() *Memory {
	return &Memory{
		orders:  map[string]model.Order{},
		trucks:  map[string]model.Truck{},
		results: map[string]model.Result{},
	}
}

func (m *Memory) CreateOrders(ctx context.Context, orders []model.Order) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, skipped := 0, 0
	for _, o := range orders {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		if _, ok := m.orders[o.ID]; ok {
			skipped++
			continue
		}
		m.orders[o.ID] = o
		m.orderIDs = append(m.orderIDs, o.ID)
		created++
	}
	return created, skipped, nil
}

func (m *Memory) ListOrders(ctx context.Context, cursor string, limit int) ([]model.Order, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	start := 0
	if cursor != "" {
		for i, id := range m.orderIDs {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Order{}
	var next string
	for i := start; i < len(m.orderIDs) && len(out) < limit; i++ {
		out = append(out, m.orders[m.orderIDs[i]])
		next = m.orderIDs[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	for i, oid := range m.orderIDs {
		if oid == id {
			m.orderIDs = append(m.orderIDs[:i], m.orderIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) CreateTrucks(ctx context.Context, trucks []model.Truck) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := 0
	for _, t := range trucks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if _, ok := m.trucks[t.ID]; !ok {
			m.truckIDs = append(m.truckIDs, t.ID)
			created++
		}
		m.trucks[t.ID] = t
	}
	return created, nil
}

func (m *Memory) ListTrucks(ctx context.Context) ([]model.Truck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Truck, 0, len(m.truckIDs))
	for _, id := range m.truckIDs {
		out = append(out, m.trucks[id])
	}
	return out, nil
}

func (m *Memory) GetTruck(ctx context.Context, id string) (model.Truck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trucks[id]
	if !ok {
		return model.Truck{}, ErrNotFound
	}
	return t, nil
}

func (m *Memory) DeleteTruck(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trucks[id]; !ok {
		return ErrNotFound
	}
	delete(m.trucks, id)
	for i, tid := range m.truckIDs {
		if tid == id {
			m.truckIDs = append(m.truckIDs[:i], m.truckIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) SaveResult(ctx context.Context, res model.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.results[res.MissionID]; !ok {
		m.resIDs = append(m.resIDs, res.MissionID)
	}
	m.results[res.MissionID] = res
	return nil
}

func (m *Memory) GetResult(ctx context.Context, missionID string) (model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[missionID]
	if !ok {
		return model.Result{}, ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListResults(ctx context.Context, cursor string, limit int) ([]model.Result, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	// newest first
	ids := append([]string(nil), m.resIDs...)
	sort.Slice(ids, func(a, b int) bool {
		return m.results[ids[a]].PlannedAt.After(m.results[ids[b]].PlannedAt)
	})
	start := 0
	if cursor != "" {
		for i, id := range ids {
			if id == cursor {
				start = i + 1
				break
			}
		}
	}
	out := []model.Result{}
	var next string
	for i := start; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.results[ids[i]])
		next = ids[i]
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, nil
}
