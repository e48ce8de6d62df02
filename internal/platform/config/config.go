package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BusBackendInProcess = "inprocess"
	BusBackendRedis     = "redis"

	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"

	ProcessAPI    = "api"
	ProcessWorker = "worker"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"maestro"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresDSN   string `env:"POSTGRES_DSN"`
	RunMigrations bool   `env:"RUN_MIGRATIONS" envDefault:"true"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	BusBackend    string `env:"BUS_BACKEND" envDefault:"inprocess"`
	BusChannel    string `env:"BUS_CHANNEL_PREFIX" envDefault:"maestro.events"`

	RosterPath string `env:"ROSTER_PATH" envDefault:"config/roster.yaml"`

	ListingCacheTTL    time.Duration `env:"LISTING_CACHE_TTL" envDefault:"30s"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	OutboxPollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"1s"`
	OutboxBatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	TraceExporter string `env:"TRACE_EXPORTER" envDefault:"none"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	EnableOutboxRelay          bool `env:"ENABLE_OUTBOX_RELAY" envDefault:"true"`
	EnableDistributionConsumer bool `env:"ENABLE_DISTRIBUTION_CONSUMER" envDefault:"true"`
	EnableSwagger              bool `env:"ENABLE_SWAGGER" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.BusBackend = strings.ToLower(strings.TrimSpace(cfg.BusBackend))
	cfg.TraceExporter = strings.ToLower(strings.TrimSpace(cfg.TraceExporter))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// RelaysOutbox reports whether process should run the outbox relay. With a
// shared database and the redis bus only the worker relays; the api relays
// only when its events cannot reach it from another process.
func (c Config) RelaysOutbox(process string) bool {
	if !c.EnableOutboxRelay {
		return false
	}
	if process != ProcessAPI {
		return true
	}
	return strings.TrimSpace(c.PostgresDSN) == "" || c.BusBackend == BusBackendInProcess
}

func (c Config) Validate() error {
	switch c.BusBackend {
	case BusBackendInProcess:
	case BusBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("BUS_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unsupported BUS_BACKEND %q", c.BusBackend)
	}
	switch c.TraceExporter {
	case TraceExporterNone, TraceExporterStdout:
	case TraceExporterOTLP:
		if strings.TrimSpace(c.OTLPEndpoint) == "" {
			return errors.New("TRACE_EXPORTER=otlp requires OTEL_EXPORTER_OTLP_ENDPOINT")
		}
	default:
		return fmt.Errorf("unsupported TRACE_EXPORTER %q", c.TraceExporter)
	}
	if c.OutboxBatchSize <= 0 {
		return errors.New("OUTBOX_BATCH_SIZE must be positive")
	}
	return nil
}
