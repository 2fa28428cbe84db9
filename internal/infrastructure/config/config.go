package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
type Config struct {
	// Account seeding (optional - leave empty to start with an empty store)
	DatabaseURL      string `env:"DATABASE_URL"       envDefault:""`
	DatabaseMaxConns int    `env:"DATABASE_MAX_CONNS" envDefault:"5"`
	DatabaseMinConns int    `env:"DATABASE_MIN_CONNS" envDefault:"1"`
	MigrationsPath   string `env:"MIGRATIONS_PATH"    envDefault:""`

	// Redis (optional - leave empty to disable idempotency and redis notifications)
	RedisURL           string `env:"REDIS_URL"            envDefault:""`
	NotifyRedisChannel string `env:"NOTIFY_REDIS_CHANNEL" envDefault:"gotransfer:notifications"`

	// HTTP Server
	HTTPPort            string        `env:"HTTP_PORT"             envDefault:"8080"`
	HTTPReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     envDefault:"30s"`
	HTTPWriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    envDefault:"30s"`
	HTTPIdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     envDefault:"60s"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Logging
	LogLevel          string `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat         string `env:"LOG_FORMAT"            envDefault:"json"`
	LogFile           string `env:"LOG_FILE"              envDefault:""`
	LogFileMaxSizeMB  int    `env:"LOG_FILE_MAX_SIZE_MB"  envDefault:"100"`
	LogFileMaxBackups int    `env:"LOG_FILE_MAX_BACKUPS"  envDefault:"3"`
	LogFileMaxAgeDays int    `env:"LOG_FILE_MAX_AGE_DAYS" envDefault:"28"`

	// Transfers
	TransferLockTimeout time.Duration `env:"TRANSFER_LOCK_TIMEOUT" envDefault:"5s"`
	IdempotencyTTL      time.Duration `env:"IDEMPOTENCY_TTL"       envDefault:"24h"`

	// Notifications
	NotifyWorkers         int           `env:"NOTIFY_WORKERS"          envDefault:"4"`
	NotifyQueueSize       int           `env:"NOTIFY_QUEUE_SIZE"       envDefault:"1024"`
	NotifyMaxRetries      int           `env:"NOTIFY_MAX_RETRIES"      envDefault:"3"`
	NotifyRetryInterval   time.Duration `env:"NOTIFY_RETRY_INTERVAL"   envDefault:"50ms"`
	NotifyBreakerFailures uint32        `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	NotifyBreakerTimeout  time.Duration `env:"NOTIFY_BREAKER_TIMEOUT"  envDefault:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	err := env.Parse(cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
