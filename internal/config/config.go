// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and PITCHCAST_ env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Storage drivers understood by the rating store wiring.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount sets the number of batch prediction workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxBatch caps the number of matches in one batch prediction.
	MaxBatch int `koanf:"max_batch"`

	// TrainQueueSize bounds the number of pending training jobs.
	TrainQueueSize int `koanf:"train_queue_size"`

	// DedupeSize bounds the number of remembered match keys.
	DedupeSize int `koanf:"dedupe_size"`

	// TrainCooldown is the minimum time between two effective training runs.
	TrainCooldown time.Duration `koanf:"train_cooldown"`

	// LeagueAvgGoals is the league scoring average used for goal expectancy.
	LeagueAvgGoals float64 `koanf:"league_avg_goals"`

	// MonteCarloIterations and MonteCarloSeed drive the scoreline simulation.
	// MonteCarloWorkers above 1 splits each simulation into per-chunk
	// PRNGs; 1 samples from a single seeded PRNG.
	MonteCarloIterations int   `koanf:"monte_carlo_iterations"`
	MonteCarloSeed       int64 `koanf:"monte_carlo_seed"`
	MonteCarloWorkers    int   `koanf:"monte_carlo_workers"`

	// MinSignalConfidence drops external signals below this confidence.
	MinSignalConfidence float64 `koanf:"min_signal_confidence"`

	// Storage selects and configures the rating persistence backend.
	StorageDriver string `koanf:"storage_driver"`
	StoragePath   string `koanf:"storage_path"`
	StorageDSN    string `koanf:"storage_dsn"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisKey      string `koanf:"redis_key"`

	// KellyFraction and KellyCap bound stake sizing.
	KellyFraction float64 `koanf:"kelly_fraction"`
	KellyCap      float64 `koanf:"kelly_cap"`

	// RateLimitRPS and RateLimitBurst throttle the prediction endpoints.
	// A non-positive RPS disables throttling.
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`

	// TrainSchedule is a cron spec (with seconds) for retraining from
	// HistoryPath. Both must be set for scheduled training to run.
	TrainSchedule string `koanf:"train_schedule"`
	HistoryPath   string `koanf:"history_path"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		WorkerCount:          runtime.NumCPU() * 2,
		MaxBatch:             256,
		TrainQueueSize:       64,
		DedupeSize:           200_000,
		TrainCooldown:        6 * time.Hour,
		LeagueAvgGoals:       1.35,
		MonteCarloIterations: 10_000,
		MonteCarloSeed:       42,
		MonteCarloWorkers:    1,
		MinSignalConfidence:  0,
		StorageDriver:        DriverMemory,
		StoragePath:          "ratings.json",
		RedisAddr:            "localhost:6379",
		RedisKey:             "pitchcast:ratings",
		KellyFraction:        0.25,
		KellyCap:             0.05,
		RateLimitRPS:         200,
		RateLimitBurst:       400,
		TrainSchedule:        "0 0 */6 * * *",
	}
}

// Validate reports configuration that the service cannot start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.StorageDriver {
	case DriverMemory, DriverFile, DriverSQLite, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}
	if c.LeagueAvgGoals <= 0 {
		return fmt.Errorf("%w: league_avg_goals must be positive", ErrInvalidConfig)
	}
	if c.MonteCarloIterations <= 0 {
		return fmt.Errorf("%w: monte_carlo_iterations must be positive", ErrInvalidConfig)
	}
	if c.MonteCarloWorkers < 1 {
		return fmt.Errorf("%w: monte_carlo_workers must be at least 1", ErrInvalidConfig)
	}
	if c.TrainCooldown < 0 {
		return fmt.Errorf("%w: train_cooldown must not be negative", ErrInvalidConfig)
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("%w: kelly_fraction must be in (0, 1]", ErrInvalidConfig)
	}
	if c.KellyCap <= 0 || c.KellyCap > 1 {
		return fmt.Errorf("%w: kelly_cap must be in (0, 1]", ErrInvalidConfig)
	}
	return nil
}
