package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "maestro/contexts/content-governance/proposal-lifecycle/application"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
)

const relayModule = "content-governance/proposal-lifecycle"

// OutboxRelay moves proposal events from the outbox to the bus. The event
// type doubles as the topic.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce relays one batch in outbox order and returns how many rows were
// published. It stops at the first failure; the failed row and everything
// after it stay pending for the next cycle, which keeps per-proposal order.
func (r OutboxRelay) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		r.logFailure(logger, "proposal_outbox_list_failed", "", err)
		return 0, err
	}
	if len(pending) == 0 {
		logger.Debug("proposal outbox empty",
			"event", "proposal_outbox_relay_noop",
			"module", relayModule,
			"layer", "worker",
		)
		return 0, nil
	}

	published := 0
	for _, row := range pending {
		if err := r.relay(ctx, row); err != nil {
			r.logFailure(logger, "proposal_outbox_relay_failed", row.OutboxID, err)
			return published, err
		}
		published++
	}

	logger.Info("proposal outbox batch relayed",
		"event", "proposal_outbox_relay_completed",
		"module", relayModule,
		"layer", "worker",
		"published_count", published,
	)
	return published, nil
}

func (r OutboxRelay) relay(ctx context.Context, row ports.OutboxMessage) error {
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		return err
	}
	topic := envelope.EventType
	if topic == "" {
		topic = row.EventType
	}
	if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
		return err
	}
	return r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now())
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (r OutboxRelay) logFailure(logger *slog.Logger, event string, outboxID string, err error) {
	logger.Error("proposal outbox relay failed",
		"event", event,
		"module", relayModule,
		"layer", "worker",
		"outbox_id", outboxID,
		"error", err.Error(),
	)
}
