package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"maestro/contexts/content-governance/content-distribution/adapters/memory"
	"maestro/contexts/content-governance/content-distribution/application/queries"
	"maestro/contexts/content-governance/content-distribution/application/workers"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	"maestro/contexts/content-governance/content-distribution/ports"
)

type recordingSubscriber struct {
	topics   []string
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func (s *recordingSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if s.handlers == nil {
		s.handlers = make(map[string]func(context.Context, ports.EventEnvelope) error)
	}
	s.topics = append(s.topics, topic)
	s.handlers[topic] = handler
	return nil
}

func proposalEvent(t *testing.T, eventID string, eventType string, data map[string]any) ports.EventEnvelope {
	t.Helper()
	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return ports.EventEnvelope{
		EventID:      eventID,
		EventType:    eventType,
		OccurredAt:   time.Now().UTC(),
		PartitionKey: data["proposal_id"].(string),
		Data:         payload,
	}
}

func approvedData(revision int64, distributable bool, text string) map[string]any {
	return map[string]any{
		"proposal_id":   "p1",
		"title":         "Fibonacci",
		"category":      "theoretical",
		"target_tier":   1,
		"status":        "approved",
		"distributable": distributable,
		"revision":      revision,
		"approved_at":   "2026-03-01T09:00:00Z",
		"content": []map[string]any{
			{"id": "b0", "type": "text", "content": text, "order": 0},
		},
	}
}

func newConsumer(store *memory.Store, subscriber ports.EventSubscriber) workers.ProposalEventsConsumer {
	return workers.ProposalEventsConsumer{
		Subscriber: subscriber,
		Dedup:      store,
		Projection: store,
		Cache:      store,
		Clock:      store,
	}
}

func TestConsumerSubscribesToDecisionTopics(t *testing.T) {
	subscriber := &recordingSubscriber{}
	if err := newConsumer(memory.NewStore(nil), subscriber).Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(subscriber.topics) != 3 {
		t.Fatalf("expected three subscriptions, got %v", subscriber.topics)
	}
}

func TestConsumerPublishesEditsAndRetractions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	consumer := newConsumer(store, nil)
	distributor := queries.Distributor{Source: store, Cache: store}

	if err := consumer.Handle(ctx, proposalEvent(t, "e1", workers.TopicProposalApproved, approvedData(3, true, "v1"))); err != nil {
		t.Fatalf("approved: %v", err)
	}
	items, err := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected listed content, got %v %v", items, err)
	}

	if err := consumer.Handle(ctx, proposalEvent(t, "e2", workers.TopicProposalContentReplaced, approvedData(4, true, "v2 has more words"))); err != nil {
		t.Fatalf("content replaced: %v", err)
	}
	_, sections, err := distributor.GetIndex(ctx, "p1")
	if err != nil || len(sections) != 1 || sections[0].SectionTitle != "v2 has more words" {
		t.Fatalf("expected edited content, got %+v %v", sections, err)
	}

	if err := consumer.Handle(ctx, proposalEvent(t, "e3", workers.TopicProposalRetracted, approvedData(5, false, "v2 has more words"))); err != nil {
		t.Fatalf("retracted: %v", err)
	}
	items, _ = distributor.ListForTier(ctx, 1, entities.CategoryTheoretical)
	if len(items) != 0 {
		t.Fatalf("retracted content must not be listed: %+v", items)
	}
	if _, _, err := distributor.GetIndex(ctx, "p1"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected retracted index to be not found, got %v", err)
	}

	// A late redelivery of the approval with an older revision is ignored.
	if err := consumer.Handle(ctx, proposalEvent(t, "e0", workers.TopicProposalApproved, approvedData(2, true, "v0"))); err != nil {
		t.Fatalf("stale approved: %v", err)
	}
	if items, _ := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical); len(items) != 0 {
		t.Fatalf("stale event resurrected retracted content: %+v", items)
	}
}

func TestConsumerDedupesEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	consumer := newConsumer(store, nil)

	event := proposalEvent(t, "e1", workers.TopicProposalApproved, approvedData(3, true, "v1"))
	if err := consumer.Handle(ctx, event); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := consumer.Handle(ctx, event); err != nil {
		t.Fatalf("replay must be a no-op, got %v", err)
	}
	changed := proposalEvent(t, "e1", workers.TopicProposalApproved, approvedData(9, true, "different"))
	if err := consumer.Handle(ctx, changed); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict for reused event id, got %v", err)
	}
}

func TestConsumerIgnoresManagementApprovals(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	data := approvedData(2, false, "retract it")
	data["proposal_id"] = "m1"
	data["category"] = "delete_approved_content"
	if err := newConsumer(store, nil).Handle(ctx, proposalEvent(t, "e1", workers.TopicProposalApproved, data)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, err := store.GetPublished(ctx, "m1"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("management proposal must not be projected, got %v", err)
	}
}

type failingInvalidation struct {
	*memory.Store
	failures int
}

func (c *failingInvalidation) InvalidateListing(ctx context.Context, keys ...string) error {
	if c.failures > 0 {
		c.failures--
		return errors.New("cache unavailable")
	}
	return c.Store.InvalidateListing(ctx, keys...)
}

func TestConsumerRetriesEventAfterInvalidationFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(nil)
	cache := &failingInvalidation{Store: store, failures: 1}
	distributor := queries.Distributor{Source: store, Cache: store}
	consumer := newConsumer(store, nil)
	consumer.Cache = cache

	if err := consumer.Handle(ctx, proposalEvent(t, "e1", workers.TopicProposalApproved, approvedData(3, true, "v1"))); err != nil {
		t.Fatalf("approved: %v", err)
	}
	if items, _ := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical); len(items) != 1 {
		t.Fatalf("expected warm listing, got %+v", items)
	}

	retracted := proposalEvent(t, "e2", workers.TopicProposalRetracted, approvedData(4, false, "v1"))
	if err := consumer.Handle(ctx, retracted); err == nil {
		t.Fatalf("expected invalidation failure to surface")
	}
	if err := consumer.Handle(ctx, retracted); err != nil {
		t.Fatalf("redelivery must be applied, got %v", err)
	}
	if items, _ := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical); len(items) != 0 {
		t.Fatalf("redelivered retraction must clear the cached listing: %+v", items)
	}
}
