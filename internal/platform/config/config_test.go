package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServiceName != "maestro" || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.BusBackend != BusBackendInProcess || cfg.TraceExporter != TraceExporterNone {
		t.Fatalf("unexpected backends: %+v", cfg)
	}
	if cfg.ListingCacheTTL != 30*time.Second || cfg.OutboxPollInterval != time.Second {
		t.Fatalf("unexpected intervals: %+v", cfg)
	}
	if !cfg.EnableDistributionConsumer || !cfg.EnableOutboxRelay {
		t.Fatalf("workers must be enabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BUS_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LISTING_CACHE_TTL", "5s")
	t.Setenv("ENABLE_DISTRIBUTION_CONSUMER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.BusBackend != BusBackendRedis || cfg.ListingCacheTTL != 5*time.Second || cfg.EnableDistributionConsumer {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	t.Setenv("BUS_BACKEND", "redis")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "REDIS_ADDR") {
		t.Fatalf("expected missing redis addr error, got %v", err)
	}

	t.Setenv("BUS_BACKEND", "inprocess")
	t.Setenv("TRACE_EXPORTER", "jaeger")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unsupported exporter error")
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("OUTBOX_BATCH_SIZE", "many")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestRelaysOutboxPerProcess(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		process string
		want    bool
	}{
		{name: "worker relays", cfg: Config{EnableOutboxRelay: true, PostgresDSN: "postgres://db", BusBackend: BusBackendRedis}, process: ProcessWorker, want: true},
		{name: "api defers to worker on shared bus", cfg: Config{EnableOutboxRelay: true, PostgresDSN: "postgres://db", BusBackend: BusBackendRedis}, process: ProcessAPI, want: false},
		{name: "api relays in-process bus", cfg: Config{EnableOutboxRelay: true, PostgresDSN: "postgres://db", BusBackend: BusBackendInProcess}, process: ProcessAPI, want: true},
		{name: "api relays memory store", cfg: Config{EnableOutboxRelay: true, BusBackend: BusBackendRedis}, process: ProcessAPI, want: true},
		{name: "disabled", cfg: Config{PostgresDSN: "postgres://db", BusBackend: BusBackendRedis}, process: ProcessWorker, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.RelaysOutbox(tc.process); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
