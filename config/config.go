package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds the scheduler.* / threadPool.* / jobStore.* keys the original
// Quartz properties file recognizes, flattened into one env-driven struct.
type Config struct {
	Env string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	// InstanceName is the logical cluster name; every peer sharing a store
	// must agree on it. InstanceID identifies this process within the
	// cluster; "AUTO" derives one from hostname + a random UUID suffix.
	InstanceName string `env:"SCHEDULER_INSTANCE_NAME" envDefault:"QuartzGoScheduler" validate:"required"`
	InstanceID   string `env:"SCHEDULER_INSTANCE_ID" envDefault:"AUTO"`

	ThreadCount int `env:"THREAD_POOL_THREAD_COUNT" envDefault:"10" validate:"min=1,max=500"`

	JobStoreClustered           bool  `env:"JOB_STORE_IS_CLUSTERED" envDefault:"true"`
	JobStoreMisfireThresholdMs  int64 `env:"JOB_STORE_MISFIRE_THRESHOLD_MS" envDefault:"60000" validate:"min=1"`
	JobStoreClusterCheckinMs    int64 `env:"JOB_STORE_CLUSTER_CHECKIN_INTERVAL_MS" envDefault:"7500" validate:"min=100"`
	JobStoreDbRetryIntervalMs   int64 `env:"JOB_STORE_DB_RETRY_INTERVAL_MS" envDefault:"15000" validate:"min=100"`
	JobStoreAcquireBatchSize    int   `env:"JOB_STORE_ACQUIRE_BATCH_SIZE" envDefault:"1" validate:"min=1,max=1000"`
	JobStoreIdleWaitTimeMs      int64 `env:"JOB_STORE_IDLE_WAIT_TIME_MS" envDefault:"30000" validate:"min=100"`
	JobStoreBatchTimeWindowMs   int64 `env:"JOB_STORE_BATCH_TIME_WINDOW_MS" envDefault:"0" validate:"min=0"`

	LockHandlerMaxRetry      int   `env:"LOCK_HANDLER_MAX_RETRY" envDefault:"3" validate:"min=1,max=20"`
	LockHandlerRetryPeriodMs int64 `env:"LOCK_HANDLER_RETRY_PERIOD_MS" envDefault:"1000" validate:"min=1"`

	AdminPort   string `env:"ADMIN_PORT" envDefault:"8080" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts the LOG_LEVEL string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
