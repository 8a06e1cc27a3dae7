package api

import (
	"fmt"
	"strings"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/config"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/oracle"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/planner"
	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/store"
)

type Server struct {
	Store    store.Store
	Planner  *planner.Planner
	Broker   EventBroker
	Defaults model.MissionConfig
}

// NewServer wires the store, oracle, broker and planner from configuration.
// Without DATABASE_URL the in-memory store is used; without REDIS_URL the
// in-memory broker.
func NewServer(cfg config.Config) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("api: postgres: %w", err)
		}
		s = sp
	}

	orc, err := buildOracle(cfg)
	if err != nil {
		return nil, err
	}

	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}

	pl := planner.New(orc)
	pl.MaxContinuousDriveHours = cfg.Planner.MaxContinuousDriveHours
	pl.ShortBreak = cfg.Planner.ShortBreak.Std()
	pl.Events = func(missionID, eventType string, data map[string]any) {
		broker.Publish(missionID, Event{Type: eventType, Data: data})
	}

	return &Server{Store: s, Planner: pl, Broker: broker, Defaults: cfg.MissionDefaults()}, nil
}

func buildOracle(cfg config.Config) (oracle.Oracle, error) {
	var base oracle.Oracle
	switch cfg.Oracle.Provider {
	case "", "haversine":
		h := oracle.NewHaversine()
		if cfg.Oracle.RoadFactor > 0 {
			h.RoadFactor = cfg.Oracle.RoadFactor
		}
		if cfg.Oracle.SpeedKph > 0 {
			h.SpeedKph = cfg.Oracle.SpeedKph
		}
		base = h
	case "http":
		ho, err := oracle.NewHTTPOracle(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("api: oracle: %w", err)
		}
		base = ho
	default:
		return nil, fmt.Errorf("api: unknown oracle provider %q", cfg.Oracle.Provider)
	}
	if cfg.RedisURL != "" && cfg.Oracle.CacheTTL.Std() > 0 {
		if rc, err := oracle.NewRedisCache(base, cfg.RedisURL, cfg.Oracle.CacheTTL.Std()); err == nil {
			return rc, nil
		}
	}
	return base, nil
}
