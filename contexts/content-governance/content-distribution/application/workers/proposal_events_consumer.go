package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "maestro/contexts/content-governance/content-distribution/application"
	"maestro/contexts/content-governance/content-distribution/application/queries"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	"maestro/contexts/content-governance/content-distribution/domain/services"
	"maestro/contexts/content-governance/content-distribution/ports"
	eventsv1 "maestro/contracts/gen/events/v1"
)

const (
	TopicProposalApproved        = eventsv1.ProposalApproved
	TopicProposalRetracted       = eventsv1.ProposalRetracted
	TopicProposalContentReplaced = eventsv1.ProposalContentReplaced

	defaultConsumerGroup = "content-distribution-proposal-cg"
	workerModule         = "content-governance/content-distribution"
)

// ProposalEventsConsumer keeps distribution state in step with proposal
// decisions: it refreshes the projection when one is wired and drops the
// affected tier listing from the cache.
type ProposalEventsConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Projection    ports.ProjectionWriter
	Cache         ports.ListingCache
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type proposalPayload struct {
	ProposalID    string          `json:"proposal_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	TargetTier    int             `json:"target_tier"`
	AuthorName    string          `json:"author_name"`
	Distributable bool            `json:"distributable"`
	Featured      bool            `json:"featured"`
	SortIndex     int             `json:"sort_index"`
	Revision      int64           `json:"revision"`
	ApprovedAt    string          `json:"approved_at"`
	OccurredAt    string          `json:"occurred_at"`
	Content       json.RawMessage `json:"content"`
}

func (c ProposalEventsConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultConsumerGroup
	}
	for _, topic := range []string{TopicProposalApproved, TopicProposalRetracted, TopicProposalContentReplaced} {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.Handle); err != nil {
			logger.Error("distribution consumer subscribe failed",
				"event", "distribution_consumer_subscribe_failed",
				"module", workerModule,
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("distribution consumer subscriptions active",
		"event", "distribution_consumer_started",
		"module", workerModule,
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

// Handle applies one proposal event. Replays of an already processed event
// id are skipped. When the projection write or the cache invalidation fails
// the reservation is released so a redelivery applies the event again.
func (c ProposalEventsConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Dedup != nil {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
		if err != nil {
			logger.Error("distribution event dedupe failed",
				"event", "distribution_event_dedupe_failed",
				"module", workerModule,
				"layer", "worker",
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if alreadyProcessed {
			logger.Debug("distribution event replay skipped",
				"event", "distribution_event_replayed",
				"module", workerModule,
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	content, err := decodePublished(event.Data)
	if err != nil {
		logger.Error("distribution event decode failed",
			"event", "distribution_event_decode_failed",
			"module", workerModule,
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"error", err.Error(),
		)
		return err
	}
	// Management proposals are approved too but are never distributed themselves.
	if !content.Category.Valid() {
		return nil
	}

	applied := false
	if c.Projection != nil {
		applied, err = c.Projection.UpsertPublished(ctx, content)
		if err != nil {
			logger.Error("distribution projection write failed",
				"event", "distribution_projection_write_failed",
				"module", workerModule,
				"layer", "worker",
				"event_id", event.EventID,
				"proposal_id", content.ProposalID,
				"error", err.Error(),
			)
			return c.release(ctx, event, err)
		}
	}
	if c.Cache != nil {
		key := queries.ListingKey(content.TargetTier, content.Category)
		if err := c.Cache.InvalidateListing(ctx, key); err != nil {
			logger.Error("distribution listing invalidation failed",
				"event", "distribution_listing_invalidation_failed",
				"module", workerModule,
				"layer", "worker",
				"event_id", event.EventID,
				"cache_key", key,
				"error", err.Error(),
			)
			return c.release(ctx, event, err)
		}
	}
	logger.Info("distribution event consumed",
		"event", "distribution_event_consumed",
		"module", workerModule,
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"proposal_id", content.ProposalID,
		"distributable", content.Distributable,
		"projection_applied", applied,
	)
	return nil
}

func (c ProposalEventsConsumer) release(ctx context.Context, event ports.EventEnvelope, cause error) error {
	if c.Dedup == nil {
		return cause
	}
	if err := c.Dedup.ReleaseEvent(ctx, event.EventID); err != nil {
		application.ResolveLogger(c.Logger).Error("distribution event release failed",
			"event", "distribution_event_release_failed",
			"module", workerModule,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return errors.Join(cause, err)
	}
	return cause
}

func decodePublished(data []byte) (entities.PublishedContent, error) {
	var payload proposalPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return entities.PublishedContent{}, err
	}
	blocks, err := services.DecodeBlocks(payload.Content)
	if err != nil {
		return entities.PublishedContent{}, err
	}
	return entities.PublishedContent{
		ProposalID:    strings.TrimSpace(payload.ProposalID),
		Title:         payload.Title,
		Description:   payload.Description,
		Category:      entities.NormalizeCategory(payload.Category),
		TargetTier:    payload.TargetTier,
		AuthorName:    payload.AuthorName,
		Featured:      payload.Featured,
		SortIndex:     payload.SortIndex,
		Distributable: payload.Distributable,
		ApprovedAt:    parseTime(payload.ApprovedAt),
		UpdatedAt:     parseTime(payload.OccurredAt),
		Revision:      payload.Revision,
		Blocks:        blocks,
	}, nil
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return parsed.UTC()
}

func (c ProposalEventsConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c ProposalEventsConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
