package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	eventsv1 "maestro/contracts/gen/events/v1"
)

// RedisBus publishes envelopes on redis pub/sub channels named
// "<prefix>.<topic>". Delivery is fan-out to every live subscriber; events
// published while nobody listens are lost.
type RedisBus struct {
	client goredis.UniversalClient
	prefix string
	logger *slog.Logger
}

func NewRedisBus(client goredis.UniversalClient, prefix string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "maestro.events"
	}
	return &RedisBus{client: client, prefix: prefix, logger: logger}
}

func (b *RedisBus) Channel(topic string) string {
	return b.prefix + "." + topic
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.Channel(topic), raw).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	sub := b.client.Subscribe(ctx, b.Channel(topic))
	// Receive confirms the subscription before Subscribe returns.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok || msg == nil {
					return
				}
				var event eventsv1.Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					b.logger.Warn("bad redis event payload",
						"event", "bus_decode_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"error", err.Error(),
					)
					continue
				}
				if err := handler(ctx, event); err != nil {
					b.logger.Error("consumer handler failed",
						"event", "bus_consume_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"event_id", event.EventID,
						"event_type", event.EventType,
						"error", err.Error(),
					)
				}
			}
		}
	}()
	return nil
}
