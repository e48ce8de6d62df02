package ports

import (
	"context"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	eventsv1 "maestro/contracts/gen/events/v1"
)

// ProposalMutator receives the current record and returns the record to
// persist. It may be invoked more than once when the store retries after a
// concurrent update, so it must not have side effects.
type ProposalMutator func(current entities.Proposal) (entities.Proposal, error)

// LinkedProposalMutator is the two-record variant used when a management
// proposal decision must land on its original in the same write.
type LinkedProposalMutator func(primary entities.Proposal, linked entities.Proposal) (entities.Proposal, entities.Proposal, error)

type ProposalFilter struct {
	Status             entities.ProposalStatus
	TargetTier         int
	Category           entities.Category
	AuthorID           string
	OriginalProposalID string
}

// ProposalRepository is the single source of truth for proposals. Writes are
// durable before they return and are linearizable per proposal id through a
// revision check.
type ProposalRepository interface {
	CreateProposal(ctx context.Context, proposal entities.Proposal) error
	GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error)
	UpdateProposal(ctx context.Context, proposalID string, mutate ProposalMutator) (entities.Proposal, error)
	UpdateLinkedProposals(
		ctx context.Context,
		primaryID string,
		linkedID string,
		mutate LinkedProposalMutator,
	) (entities.Proposal, entities.Proposal, error)
	ListProposals(ctx context.Context, filter ProposalFilter) ([]entities.Proposal, error)
	DeleteProposal(ctx context.Context, proposalID string) error
}

// AuthorityResolver answers roster questions by email. Unknown emails are
// simply not reviewers.
type AuthorityResolver interface {
	IsRecognizedReviewer(email string) bool
	HasDecisiveAuthority(email string) bool
}

type Identity struct {
	ID    string
	Email string
}

// IdentityDirectory maps an actor id to its identity. found=false is a normal
// outcome for actors the directory does not know.
type IdentityDirectory interface {
	LookupIdentity(ctx context.Context, actorID string) (Identity, bool, error)
}

// RosterReader lists the reviewer ids used for tally percentages.
type RosterReader interface {
	ReviewerIDs() []string
}

type IdempotencyRecord struct {
	Key         string
	RequestHash string
	ProposalID  string
	ExpiresAt   time.Time
}

type IdempotencyStore interface {
	GetIdempotency(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutIdempotency(ctx context.Context, record IdempotencyRecord) error
}

type EventEnvelope = eventsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
