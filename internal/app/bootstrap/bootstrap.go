package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	contentdistribution "maestro/contexts/content-governance/content-distribution"
	distributionmemory "maestro/contexts/content-governance/content-distribution/adapters/memory"
	distributionpostgres "maestro/contexts/content-governance/content-distribution/adapters/postgres"
	distributionredis "maestro/contexts/content-governance/content-distribution/adapters/redis"
	distributionports "maestro/contexts/content-governance/content-distribution/ports"
	proposallifecycle "maestro/contexts/content-governance/proposal-lifecycle"
	lifecyclepostgres "maestro/contexts/content-governance/proposal-lifecycle/adapters/postgres"
	lifecycleworkers "maestro/contexts/content-governance/proposal-lifecycle/application/workers"
	reviewerauthority "maestro/contexts/content-governance/reviewer-authority"
	reviewerentities "maestro/contexts/content-governance/reviewer-authority/domain/entities"
	"maestro/internal/platform/config"
	"maestro/internal/platform/db"
	"maestro/internal/platform/httpserver"
	"maestro/internal/platform/messaging"
	"maestro/internal/platform/observability"
	"maestro/internal/platform/redisclient"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const bootstrapModule = "internal/app/bootstrap"

// runtime holds everything both processes share: the three modules and the
// infrastructure handles that must be closed on shutdown.
type runtime struct {
	process         string
	cfg             config.Config
	logger          *slog.Logger
	postgres        *db.Postgres
	redis           *goredis.Client
	shutdownTracing func(context.Context) error
	modules         httpserver.Modules
}

type APIApp struct {
	runtime *runtime
	server  *httpserver.Server
}

type WorkerApp struct {
	runtime *runtime
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	rt, err := buildRuntime(ctx, config.ProcessAPI)
	if err != nil {
		return nil, err
	}
	server := httpserver.New(rt.modules, rt.logger, normalizeAddr(rt.cfg.HTTPPort), rt.cfg.EnableSwagger)
	return &APIApp{runtime: rt, server: server}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	rt, err := buildRuntime(ctx, config.ProcessWorker)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{runtime: rt}, nil
}

func buildRuntime(ctx context.Context, process string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.ServiceName).With("process", process)
	slog.SetDefault(logger)

	rt := &runtime{process: process, cfg: cfg, logger: logger}
	rt.shutdownTracing, err = observability.SetupTracing(ctx, observability.TracingConfig{
		ServiceName:  cfg.ServiceName + "-" + process,
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := rt.wire(ctx); err != nil {
		_ = rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) wire(ctx context.Context) error {
	cfg := rt.cfg
	reviewers, err := reviewerauthority.NewFileModule(ctx, cfg.RosterPath, rt.logger)
	if err != nil {
		return err
	}
	directory := reviewerDirectory{Directory: reviewers.Directory}

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rt.redis, err = redisclient.Connect(ctx, redisclient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return err
		}
	}
	bus := rt.bus()

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		rt.logger.Warn("no postgres dsn configured, using in-memory stores",
			"event", "bootstrap_in_memory_stores",
			"module", bootstrapModule,
			"layer", "platform",
		)
		rt.modules = sharedMemoryModules(cfg, reviewers, directory, bus, rt.logger)
		return nil
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.PostgresDSN); err != nil {
			return err
		}
	}
	rt.postgres, err = db.Connect(ctx, cfg.PostgresDSN, db.Options{Logger: rt.logger})
	if err != nil {
		return err
	}

	repo := lifecyclepostgres.NewRepository(rt.postgres.DB, rt.logger)
	proposals := proposallifecycle.NewModule(proposallifecycle.Dependencies{
		Proposals:      repo,
		Authority:      directory,
		Identities:     directory,
		Roster:         directory,
		Idempotency:    repo,
		Outbox:         repo,
		OutboxReader:   repo,
		Publisher:      bus,
		Clock:          lifecyclepostgres.SystemClock{},
		IDGen:          lifecyclepostgres.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		RelayBatchSize: cfg.OutboxBatchSize,
		Logger:         rt.logger,
	})

	// The reader serves straight from the proposal table, so the consumer only
	// has cached listings to drop.
	var (
		cache distributionports.ListingCache
		dedup distributionports.EventDedupStore
	)
	if rt.redis != nil {
		redisCache := distributionredis.NewCache(rt.redis, rt.logger)
		cache, dedup = redisCache, redisCache
	} else {
		local := distributionmemory.NewStore(nil)
		cache, dedup = local, local
	}
	distribution := contentdistribution.NewModule(contentdistribution.Dependencies{
		Source:     distributionpostgres.NewReader(rt.postgres.DB, rt.logger),
		Cache:      cache,
		Dedup:      dedup,
		Subscriber: bus,
		Clock:      lifecyclepostgres.SystemClock{},
		CacheTTL:   cfg.ListingCacheTTL,
		Logger:     rt.logger,
	})

	rt.modules = httpserver.Modules{
		Proposals:    proposals,
		Reviewers:    reviewers,
		Distribution: distribution,
	}
	return nil
}

func (rt *runtime) bus() eventBus {
	if rt.cfg.BusBackend == config.BusBackendRedis && rt.redis != nil {
		return messaging.NewRedisBus(rt.redis, rt.cfg.BusChannel, rt.logger)
	}
	return messaging.NewInProcessBus(rt.logger)
}

// sharedMemoryModules backs the distributor with the lifecycle store itself;
// the consumer only drops cached listings.
func sharedMemoryModules(
	cfg config.Config,
	reviewers reviewerauthority.Module,
	directory reviewerDirectory,
	bus eventBus,
	logger *slog.Logger,
) httpserver.Modules {
	proposals := proposallifecycle.NewInMemoryModule(nil, directory, bus, logger)
	local := distributionmemory.NewStore(nil)
	return httpserver.Modules{
		Proposals: proposals,
		Reviewers: reviewers,
		Distribution: contentdistribution.NewModule(contentdistribution.Dependencies{
			Source:     lifecycleSource{queries: proposals.Queries},
			Cache:      local,
			Dedup:      local,
			Subscriber: bus,
			Clock:      local,
			CacheTTL:   cfg.ListingCacheTTL,
			Logger:     logger,
		}),
	}
}

// inMemoryModules keeps a separate distribution projection fed only by
// relayed events, the same path the postgres deployment's events take.
func inMemoryModules(
	reviewers reviewerauthority.Module,
	directory reviewerDirectory,
	bus eventBus,
	logger *slog.Logger,
) httpserver.Modules {
	return httpserver.Modules{
		Proposals:    proposallifecycle.NewInMemoryModule(nil, directory, bus, logger),
		Reviewers:    reviewers,
		Distribution: contentdistribution.NewInMemoryModule(nil, bus, logger),
	}
}

// startBackground subscribes the distribution consumer before the relay starts
// publishing, so an in-process bus never publishes into an empty topic.
func (rt *runtime) startBackground(ctx context.Context, g *errgroup.Group) error {
	if rt.cfg.EnableDistributionConsumer {
		if err := rt.modules.Distribution.Consumer.Start(ctx); err != nil {
			return err
		}
	}
	if rt.cfg.RelaysOutbox(rt.process) {
		relay := rt.modules.Proposals.OutboxRelay
		g.Go(func() error {
			return runRelay(ctx, relay, rt.cfg.OutboxPollInterval, rt.logger)
		})
	}
	return nil
}

func (a *APIApp) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if err := a.runtime.startBackground(ctx, g); err != nil {
		return err
	}
	a.runtime.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", bootstrapModule,
		"layer", "platform",
		"outbox_relay", a.runtime.cfg.RelaysOutbox(config.ProcessAPI),
		"distribution_consumer", a.runtime.cfg.EnableDistributionConsumer,
	)
	g.Go(func() error {
		return a.server.Start(ctx)
	})
	return g.Wait()
}

func (a *APIApp) Close() error {
	return a.runtime.close()
}

func (w *WorkerApp) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if err := w.runtime.startBackground(ctx, g); err != nil {
		return err
	}
	w.runtime.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", bootstrapModule,
		"layer", "platform",
		"poll_interval", w.runtime.cfg.OutboxPollInterval.String(),
	)
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

func (w *WorkerApp) Close() error {
	return w.runtime.close()
}

// runRelay drains the outbox every interval until ctx ends. A failed batch is
// logged and retried on the next tick; its rows stay pending.
func runRelay(ctx context.Context, relay lifecycleworkers.OutboxRelay, interval time.Duration, logger *slog.Logger) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("outbox relay cycle failed",
				"event", "bootstrap_outbox_relay_cycle_failed",
				"module", bootstrapModule,
				"layer", "platform",
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (rt *runtime) close() error {
	var errs []error
	if rt.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, rt.shutdownTracing(ctx))
		cancel()
	}
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.postgres != nil {
		errs = append(errs, rt.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

// InMemoryApp runs every module against in-memory stores joined by an
// in-process bus. Approvals reach the distributor once RelayOnce has moved
// them off the outbox.
type InMemoryApp struct {
	Modules httpserver.Modules
	Bus     *messaging.InProcessBus
	Server  *httpserver.Server
}

func BuildInMemory(roster reviewerentities.Roster, logger *slog.Logger) (*InMemoryApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reviewers, err := reviewerauthority.NewInMemoryModule(roster, logger)
	if err != nil {
		return nil, err
	}
	bus := messaging.NewInProcessBus(logger)
	modules := inMemoryModules(reviewers, reviewerDirectory{Directory: reviewers.Directory}, bus, logger)
	return &InMemoryApp{
		Modules: modules,
		Bus:     bus,
		Server:  httpserver.New(modules, logger, ":0", false),
	}, nil
}

// Start subscribes the distribution consumer for the lifetime of ctx.
func (a *InMemoryApp) Start(ctx context.Context) error {
	return a.Modules.Distribution.Consumer.Start(ctx)
}

func (a *InMemoryApp) RelayOnce(ctx context.Context) (int, error) {
	return a.Modules.Proposals.OutboxRelay.RunOnce(ctx)
}
