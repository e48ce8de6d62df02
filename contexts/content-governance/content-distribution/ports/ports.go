package ports

import (
	"context"
	"time"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
	eventsv1 "maestro/contracts/gen/events/v1"
)

// ContentSource reads published content. Implementations must only return
// proposals whose approval is already durable.
type ContentSource interface {
	ListPublished(ctx context.Context, tier int, category entities.Category) ([]entities.PublishedContent, error)
	GetPublished(ctx context.Context, proposalID string) (entities.PublishedContent, error)
}

// ProjectionWriter maintains a local copy of published content fed by
// proposal events. Writes carrying an older revision than the stored copy
// are ignored, so redelivered or reordered events cannot resurrect
// retracted content.
type ProjectionWriter interface {
	UpsertPublished(ctx context.Context, content entities.PublishedContent) (bool, error)
}

// ListingCache holds tier listings built from a ContentSource. It is only
// ever filled with what the source returned.
type ListingCache interface {
	GetListing(ctx context.Context, key string) ([]entities.ContentIndex, bool, error)
	SetListing(ctx context.Context, key string, items []entities.ContentIndex, ttl time.Duration) error
	InvalidateListing(ctx context.Context, keys ...string) error
}

type EventEnvelope = eventsv1.Envelope

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore reserves event ids before they are applied. ReleaseEvent
// drops a reservation whose processing failed so a redelivery is retried.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}

type Clock interface {
	Now() time.Time
}
