package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			product TEXT,
			category TEXT,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			volume_m3 DOUBLE PRECISION NOT NULL,
			weight_kg DOUBLE PRECISION NOT NULL,
			value_eur DOUBLE PRECISION NOT NULL DEFAULT 0,
			deadline TIMESTAMPTZ,
			placed_at TIMESTAMPTZ,
			reference TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS trucks (
			id UUID PRIMARY KEY,
			name TEXT,
			cap_volume_m3 DOUBLE PRECISION NOT NULL,
			cap_weight_kg DOUBLE PRECISION NOT NULL,
			speed_kph DOUBLE PRECISION NOT NULL,
			consumption_l100 DOUBLE PRECISION NOT NULL,
			fuel_budget_l DOUBLE PRECISION,
			fixed_cost_eur DOUBLE PRECISION,
			cost_per_km_eur DOUBLE PRECISION,
			driver_rate_eur_hr DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS mission_results (
			mission_id UUID PRIMARY KEY,
			planned_at TIMESTAMPTZ NOT NULL,
			feasible BOOLEAN NOT NULL,
			payload JSONB NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := p.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("store: schema: %w", err)
		}
	}
	return nil
}

// CreateOrders inserts orders, skipping ids that already exist.
func (p *Postgres) CreateOrders(ctx context.Context, orders []model.Order) (int, int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	created, skipped := 0, 0
	for _, o := range orders {
		if o.ID == "" {
			o.ID = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO orders (id, product, category, lat, lng, volume_m3, weight_kg, value_eur, deadline, placed_at, reference)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) ON CONFLICT (id) DO NOTHING`,
			o.ID, nullIfEmpty(o.Product), nullIfEmpty(o.Category), o.Location.Lat, o.Location.Lng,
			o.VolumeM3, o.WeightKg, o.ValueEUR, nullIfZeroTime(o.Deadline), nullIfZeroTime(o.PlacedAt), nullIfEmpty(o.Reference))
		if err != nil {
			return 0, 0, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			skipped++
		} else {
			created++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}

const orderCols = `id::text, COALESCE(product,''), COALESCE(category,''), lat, lng, volume_m3, weight_kg, value_eur, deadline, placed_at, COALESCE(reference,'')`

func (p *Postgres) ListOrders(ctx context.Context, cursor string, limit int) ([]model.Order, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id::text > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT `+orderCols+` FROM orders ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Order{}
	var last string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, o)
		last = o.ID
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func (p *Postgres) GetOrder(ctx context.Context, id string) (model.Order, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, ErrNotFound
	}
	return o, err
}

func (p *Postgres) DeleteOrder(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(r rowScanner) (model.Order, error) {
	var o model.Order
	var deadline, placed sql.NullTime
	err := r.Scan(&o.ID, &o.Product, &o.Category, &o.Location.Lat, &o.Location.Lng,
		&o.VolumeM3, &o.WeightKg, &o.ValueEUR, &deadline, &placed, &o.Reference)
	if err != nil {
		return model.Order{}, err
	}
	o.Deadline = deadline.Time
	o.PlacedAt = placed.Time
	return o, nil
}

func (p *Postgres) CreateTrucks(ctx context.Context, trucks []model.Truck) (int, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()
	created := 0
	for _, t := range trucks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO trucks (id, name, cap_volume_m3, cap_weight_kg, speed_kph, consumption_l100, fuel_budget_l, fixed_cost_eur, cost_per_km_eur, driver_rate_eur_hr)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, cap_volume_m3=EXCLUDED.cap_volume_m3, cap_weight_kg=EXCLUDED.cap_weight_kg,
				speed_kph=EXCLUDED.speed_kph, consumption_l100=EXCLUDED.consumption_l100, fuel_budget_l=EXCLUDED.fuel_budget_l,
				fixed_cost_eur=EXCLUDED.fixed_cost_eur, cost_per_km_eur=EXCLUDED.cost_per_km_eur, driver_rate_eur_hr=EXCLUDED.driver_rate_eur_hr`,
			t.ID, nullIfEmpty(t.Name), t.CapVolumeM3, t.CapWeightKg, t.SpeedKph, t.ConsumptionL100,
			t.FuelBudgetL, t.FixedCostEUR, t.CostPerKmEUR, t.DriverRateEURHr)
		if err != nil {
			return 0, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return created, nil
}

const truckCols = `id::text, COALESCE(name,''), cap_volume_m3, cap_weight_kg, speed_kph, consumption_l100, COALESCE(fuel_budget_l,0), COALESCE(fixed_cost_eur,0), COALESCE(cost_per_km_eur,0), COALESCE(driver_rate_eur_hr,0)`

func (p *Postgres) ListTrucks(ctx context.Context) ([]model.Truck, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+truckCols+` FROM trucks ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Truck{}
	for rows.Next() {
		var t model.Truck
		if err := rows.Scan(&t.ID, &t.Name, &t.CapVolumeM3, &t.CapWeightKg, &t.SpeedKph, &t.ConsumptionL100,
			&t.FuelBudgetL, &t.FixedCostEUR, &t.CostPerKmEUR, &t.DriverRateEURHr); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (p *Postgres) GetTruck(ctx context.Context, id string) (model.Truck, error) {
	var t model.Truck
	err := p.db.QueryRowContext(ctx, `SELECT `+truckCols+` FROM trucks WHERE id=$1`, id).
		Scan(&t.ID, &t.Name, &t.CapVolumeM3, &t.CapWeightKg, &t.SpeedKph, &t.ConsumptionL100,
			&t.FuelBudgetL, &t.FixedCostEUR, &t.CostPerKmEUR, &t.DriverRateEURHr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Truck{}, ErrNotFound
	}
	return t, err
}

func (p *Postgres) DeleteTruck(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM trucks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveResult stores the full result document as JSONB keyed by mission id.
func (p *Postgres) SaveResult(ctx context.Context, res model.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `INSERT INTO mission_results (mission_id, planned_at, feasible, payload)
		VALUES ($1,$2,$3,$4) ON CONFLICT (mission_id) DO UPDATE SET planned_at=EXCLUDED.planned_at, feasible=EXCLUDED.feasible, payload=EXCLUDED.payload`,
		res.MissionID, res.PlannedAt, res.Verdict.Feasible, payload)
	return err
}

func (p *Postgres) GetResult(ctx context.Context, missionID string) (model.Result, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM mission_results WHERE mission_id=$1`, missionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Result{}, ErrNotFound
	}
	if err != nil {
		return model.Result{}, err
	}
	var res model.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return model.Result{}, err
	}
	return res, nil
}

func (p *Postgres) ListResults(ctx context.Context, cursor string, limit int) ([]model.Result, string, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx, `SELECT mission_id::text, payload FROM mission_results WHERE mission_id::text > $1 ORDER BY mission_id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx, `SELECT mission_id::text, payload FROM mission_results ORDER BY mission_id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Result{}
	var last string
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, "", err
		}
		var res model.Result
		if err := json.Unmarshal(payload, &res); err != nil {
			return nil, "", err
		}
		out = append(out, res)
		last = id
	}
	var next string
	if len(out) == limit {
		next = last
	}
	return out, next, rows.Err()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
