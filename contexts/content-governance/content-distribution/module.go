package contentdistribution

import (
	"log/slog"
	"time"

	httpadapter "maestro/contexts/content-governance/content-distribution/adapters/http"
	"maestro/contexts/content-governance/content-distribution/adapters/memory"
	"maestro/contexts/content-governance/content-distribution/application/queries"
	"maestro/contexts/content-governance/content-distribution/application/workers"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	"maestro/contexts/content-governance/content-distribution/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Distributor queries.Distributor
	Consumer    workers.ProposalEventsConsumer
	Store       *memory.Store
}

// Dependencies wires the distributor. Projection is optional: when the source
// reads the proposal table directly there is nothing to maintain and the
// consumer only invalidates cached listings.
type Dependencies struct {
	Source        ports.ContentSource
	Projection    ports.ProjectionWriter
	Cache         ports.ListingCache
	Dedup         ports.EventDedupStore
	Subscriber    ports.EventSubscriber
	Clock         ports.Clock
	CacheTTL      time.Duration
	ConsumerGroup string
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	distributor := queries.Distributor{
		Source:   deps.Source,
		Cache:    deps.Cache,
		CacheTTL: deps.CacheTTL,
		Logger:   deps.Logger,
	}
	return Module{
		Handler:     httpadapter.Handler{Distributor: distributor},
		Distributor: distributor,
		Consumer: workers.ProposalEventsConsumer{
			Subscriber:    deps.Subscriber,
			Dedup:         deps.Dedup,
			Projection:    deps.Projection,
			Cache:         deps.Cache,
			Clock:         deps.Clock,
			ConsumerGroup: deps.ConsumerGroup,
			Logger:        deps.Logger,
		},
	}
}

// NewInMemoryModule serves from an event-fed projection. The consumer must be
// started against a subscriber before approvals become visible.
func NewInMemoryModule(seed []entities.PublishedContent, subscriber ports.EventSubscriber, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Source:     store,
		Projection: store,
		Cache:      store,
		Dedup:      store,
		Subscriber: subscriber,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
