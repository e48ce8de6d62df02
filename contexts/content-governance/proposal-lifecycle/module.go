package proposallifecycle

import (
	"log/slog"
	"time"

	httpadapter "maestro/contexts/content-governance/proposal-lifecycle/adapters/http"
	"maestro/contexts/content-governance/proposal-lifecycle/adapters/memory"
	"maestro/contexts/content-governance/proposal-lifecycle/application/commands"
	"maestro/contexts/content-governance/proposal-lifecycle/application/queries"
	"maestro/contexts/content-governance/proposal-lifecycle/application/workers"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Lifecycle   commands.LifecycleUseCase
	Queries     queries.ProposalQueries
	OutboxRelay workers.OutboxRelay
	Store       *memory.Store
}

// Dependencies wires the module. Authority, Identities and Roster are
// usually all served by the reviewer-authority module.
type Dependencies struct {
	Proposals      ports.ProposalRepository
	Authority      ports.AuthorityResolver
	Identities     ports.IdentityDirectory
	Roster         ports.RosterReader
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	OutboxReader   ports.OutboxRepository
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	RelayBatchSize int
	Logger         *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycle := commands.LifecycleUseCase{
		Proposals:      deps.Proposals,
		Authority:      deps.Authority,
		Identities:     deps.Identities,
		Idempotency:    deps.Idempotency,
		Outbox:         deps.Outbox,
		Clock:          deps.Clock,
		IDGen:          deps.IDGen,
		IdempotencyTTL: deps.IdempotencyTTL,
		Logger:         deps.Logger,
	}
	proposalQueries := queries.ProposalQueries{
		Proposals: deps.Proposals,
		Roster:    deps.Roster,
	}
	return Module{
		Handler: httpadapter.Handler{
			Lifecycle: lifecycle,
			Queries:   proposalQueries,
			Logger:    deps.Logger,
		},
		Lifecycle: lifecycle,
		Queries:   proposalQueries,
		OutboxRelay: workers.OutboxRelay{
			Outbox:    deps.OutboxReader,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.RelayBatchSize,
			Logger:    deps.Logger,
		},
	}
}

// AuthorityDirectory is what the in-memory module needs from the roster.
type AuthorityDirectory interface {
	ports.AuthorityResolver
	ports.IdentityDirectory
	ports.RosterReader
}

func NewInMemoryModule(
	seed []entities.Proposal,
	authority AuthorityDirectory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Proposals:      store,
		Authority:      authority,
		Identities:     authority,
		Roster:         authority,
		Idempotency:    store,
		Outbox:         store,
		OutboxReader:   store,
		Publisher:      publisher,
		Clock:          store,
		IDGen:          store,
		IdempotencyTTL: 24 * time.Hour,
		Logger:         logger,
	})
	module.Store = store
	return module
}
