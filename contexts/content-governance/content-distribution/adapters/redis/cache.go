package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	"maestro/contexts/content-governance/content-distribution/ports"
)

const dedupKeyPrefix = "distribution:event:"

type cachedIndex struct {
	ProposalID               string    `json:"proposal_id"`
	Title                    string    `json:"title"`
	Description              string    `json:"description"`
	Category                 string    `json:"category"`
	TargetTier               int       `json:"target_tier"`
	AuthorName               string    `json:"author_name"`
	ApprovedAt               time.Time `json:"approved_at"`
	Featured                 bool      `json:"featured"`
	SortIndex                int       `json:"sort_index"`
	SectionCount             int       `json:"section_count"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
}

// Cache stores tier listings and consumed event ids in redis so every API
// and worker replica shares them.
type Cache struct {
	client goredis.UniversalClient
	logger *slog.Logger
}

func NewCache(client goredis.UniversalClient, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

func (c *Cache) GetListing(ctx context.Context, key string) ([]entities.ContentIndex, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var cached []cachedIndex
	if err := json.Unmarshal(raw, &cached); err != nil {
		// A payload this build cannot read is treated as a miss and rebuilt.
		c.logger.Warn("distribution listing cache entry unreadable",
			"event", "distribution_listing_cache_decode_failed",
			"module", "content-governance/content-distribution",
			"layer", "adapter",
			"cache_key", key,
			"error", err.Error(),
		)
		return nil, false, nil
	}
	items := make([]entities.ContentIndex, 0, len(cached))
	for _, item := range cached {
		items = append(items, entities.ContentIndex{
			ProposalID:               item.ProposalID,
			Title:                    item.Title,
			Description:              item.Description,
			Category:                 entities.Category(item.Category),
			TargetTier:               item.TargetTier,
			AuthorName:               item.AuthorName,
			ApprovedAt:               item.ApprovedAt.UTC(),
			Featured:                 item.Featured,
			SortIndex:                item.SortIndex,
			SectionCount:             item.SectionCount,
			EstimatedDurationMinutes: item.EstimatedDurationMinutes,
		})
	}
	return items, true, nil
}

func (c *Cache) SetListing(ctx context.Context, key string, items []entities.ContentIndex, ttl time.Duration) error {
	payload, err := encodeListing(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func (c *Cache) InvalidateListing(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// ReserveEvent claims an event id with SETNX. A second claim with the same
// payload hash reports a replay; a different hash is a conflict.
func (c *Cache) ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	key := dedupKeyPrefix + strings.TrimSpace(eventID)
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	payloadHash = strings.TrimSpace(payloadHash)
	claimed, err := c.client.SetNX(ctx, key, payloadHash, ttl).Result()
	if err != nil {
		return false, err
	}
	if claimed {
		return false, nil
	}
	existing, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		// Expired between the two calls; claim again.
		return false, c.client.Set(ctx, key, payloadHash, ttl).Err()
	}
	if err != nil {
		return false, err
	}
	if existing != payloadHash {
		return false, domainerrors.ErrEventConflict
	}
	return true, nil
}

func (c *Cache) ReleaseEvent(ctx context.Context, eventID string) error {
	return c.client.Del(ctx, dedupKeyPrefix+strings.TrimSpace(eventID)).Err()
}

func encodeListing(items []entities.ContentIndex) ([]byte, error) {
	cached := make([]cachedIndex, 0, len(items))
	for _, item := range items {
		cached = append(cached, cachedIndex{
			ProposalID:               item.ProposalID,
			Title:                    item.Title,
			Description:              item.Description,
			Category:                 string(item.Category),
			TargetTier:               item.TargetTier,
			AuthorName:               item.AuthorName,
			ApprovedAt:               item.ApprovedAt.UTC(),
			Featured:                 item.Featured,
			SortIndex:                item.SortIndex,
			SectionCount:             item.SectionCount,
			EstimatedDurationMinutes: item.EstimatedDurationMinutes,
		})
	}
	return json.Marshal(cached)
}

var (
	_ ports.ListingCache    = (*Cache)(nil)
	_ ports.EventDedupStore = (*Cache)(nil)
)
