// Package config loads service configuration from an optional YAML file with
// environment variable overrides. Environment wins over file, file over
// defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nadiflexx/Distribution-Platform-for-Perishable-Goods/internal/model"
)

// Duration decodes YAML values like "2s" or "20m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	return fmt.Errorf("config: cannot parse duration from %q", value.Value)
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full service configuration.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"databaseUrl"`
	RedisURL    string `yaml:"redisUrl"`

	Oracle  OracleConfig  `yaml:"oracle"`
	Planner PlannerConfig `yaml:"planner"`
}

// OracleConfig selects and tunes the distance oracle.
type OracleConfig struct {
	// Provider is "haversine" or "http".
	Provider   string  `yaml:"provider"`
	BaseURL    string  `yaml:"baseUrl"`
	APIKey     string  `yaml:"apiKey"`
	RateLimit  float64 `yaml:"rateLimitPerSec"`
	RoadFactor float64 `yaml:"roadFactor"`
	SpeedKph   float64 `yaml:"speedKph"`
	// CacheTTL enables the Redis-backed distance cache when RedisURL is set.
	CacheTTL Duration `yaml:"cacheTtl"`
}

// PlannerConfig holds mission defaults applied when a request omits them.
type PlannerConfig struct {
	ClusterStrategy    string            `yaml:"clusterStrategy"`
	RouteStrategy      string            `yaml:"routeStrategy"`
	TimeBudgetPerRoute Duration          `yaml:"timeBudgetPerRoute"`
	Weights            model.CostWeights `yaml:"weights"`
	UtilizationWarn    float64           `yaml:"utilizationWarn"`
	DispatchLatency    Duration          `yaml:"dispatchLatency"`
	FuelPriceEUR       float64           `yaml:"fuelPriceEurPerLiter"`
	MaxParallelRoutes  int               `yaml:"maxParallelRoutes"`

	MaxContinuousDriveHours float64  `yaml:"maxContinuousDriveHours"`
	ShortBreak              Duration `yaml:"shortBreak"`
}

func defaults() Config {
	return Config{
		Port: "8080",
		Oracle: OracleConfig{
			Provider:   "haversine",
			RoadFactor: 1.3,
			SpeedKph:   80,
			RateLimit:  10,
			CacheTTL:   Duration(time.Hour),
		},
		Planner: PlannerConfig{
			ClusterStrategy:         model.ClusterCentroid,
			RouteStrategy:           model.RouteGenetic,
			TimeBudgetPerRoute:      Duration(2 * time.Second),
			Weights:                 model.CostWeights{Alpha: 1, Beta: 100, Gamma: 10},
			UtilizationWarn:         0.9,
			FuelPriceEUR:            1.50,
			MaxParallelRoutes:       4,
			MaxContinuousDriveHours: 2.0,
			ShortBreak:              Duration(20 * time.Minute),
		},
	}
}

// Load reads path (skipped when empty or missing) and applies environment
// overrides on top.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("ORACLE_PROVIDER"); v != "" {
		cfg.Oracle.Provider = v
	}
	if v := os.Getenv("ORACLE_BASE_URL"); v != "" {
		cfg.Oracle.BaseURL = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("FUEL_PRICE_EUR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Planner.FuelPriceEUR = f
		}
	}
	if v := os.Getenv("ROUTE_TIME_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Planner.TimeBudgetPerRoute = Duration(d)
		}
	}
}

// MissionDefaults maps the planner defaults onto a mission config template.
func (c Config) MissionDefaults() model.MissionConfig {
	return model.MissionConfig{
		ClusterStrategy:    c.Planner.ClusterStrategy,
		RouteStrategy:      c.Planner.RouteStrategy,
		TimeBudgetPerRoute: c.Planner.TimeBudgetPerRoute.Std(),
		Weights:            c.Planner.Weights,
		UtilizationWarn:    c.Planner.UtilizationWarn,
		DispatchLatency:    c.Planner.DispatchLatency.Std(),
		FuelPriceEUR:       c.Planner.FuelPriceEUR,
		MaxParallelRoutes:  c.Planner.MaxParallelRoutes,
	}
}
