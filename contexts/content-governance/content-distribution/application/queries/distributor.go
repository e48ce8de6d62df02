package queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "maestro/contexts/content-governance/content-distribution/application"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	"maestro/contexts/content-governance/content-distribution/domain/services"
	"maestro/contexts/content-governance/content-distribution/ports"
)

const (
	moduleName      = "content-governance/content-distribution"
	DefaultCacheTTL = 30 * time.Second
)

// Distributor answers tier listings and table-of-contents reads. It never
// writes proposals; the optional cache is read-through and only ever holds
// what the source returned.
type Distributor struct {
	Source   ports.ContentSource
	Cache    ports.ListingCache
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// ListingKey is the cache key for one tier/category listing.
func ListingKey(tier int, category entities.Category) string {
	return fmt.Sprintf("distribution:listing:%d:%s", tier, category)
}

// ListForTier returns approved, still distributable content for one tier and
// category in listing order.
func (d Distributor) ListForTier(ctx context.Context, tier int, category entities.Category) ([]entities.ContentIndex, error) {
	logger := application.ResolveLogger(d.Logger)
	category = entities.NormalizeCategory(string(category))
	if !entities.ValidTier(tier) {
		return nil, domainerrors.ErrInvalidTier
	}
	if !category.Valid() {
		return nil, domainerrors.ErrInvalidCategory
	}

	key := ListingKey(tier, category)
	if cached, ok := d.cached(ctx, logger, key); ok {
		return cached, nil
	}

	published, err := d.Source.ListPublished(ctx, tier, category)
	if err != nil {
		logger.Error("distribution listing failed",
			"event", "distribution_listing_failed",
			"module", moduleName,
			"layer", "application",
			"tier", tier,
			"category", string(category),
			"error", err.Error(),
		)
		return nil, err
	}
	items := make([]entities.ContentIndex, 0, len(published))
	for _, content := range published {
		// Sources filter already; the re-check keeps a lagging projection honest.
		if !content.Servable() || content.TargetTier != tier || content.Category != category {
			continue
		}
		items = append(items, services.BuildIndex(content))
	}
	services.SortListing(items)

	if d.Cache != nil {
		if err := d.Cache.SetListing(ctx, key, items, d.cacheTTL()); err != nil {
			logger.Warn("distribution listing cache write failed",
				"event", "distribution_listing_cache_write_failed",
				"module", moduleName,
				"layer", "application",
				"cache_key", key,
				"error", err.Error(),
			)
		}
	}
	logger.Debug("distribution listing built",
		"event", "distribution_listing_built",
		"module", moduleName,
		"layer", "application",
		"tier", tier,
		"category", string(category),
		"item_count", len(items),
	)
	return items, nil
}

// GetIndex derives the table of contents from the proposal's current
// content. Unknown, unapproved and retracted proposals are not found.
func (d Distributor) GetIndex(ctx context.Context, proposalID string) (entities.ContentIndex, []entities.ContentSection, error) {
	logger := application.ResolveLogger(d.Logger)
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return entities.ContentIndex{}, nil, domainerrors.ErrContentNotFound
	}
	content, err := d.Source.GetPublished(ctx, proposalID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			logger.Error("distribution index read failed",
				"event", "distribution_index_read_failed",
				"module", moduleName,
				"layer", "application",
				"proposal_id", proposalID,
				"error", err.Error(),
			)
		}
		return entities.ContentIndex{}, nil, err
	}
	if !content.Servable() {
		return entities.ContentIndex{}, nil, domainerrors.ErrContentNotFound
	}
	return services.BuildIndex(content), services.DeriveSections(content.Blocks), nil
}

func (d Distributor) cached(ctx context.Context, logger *slog.Logger, key string) ([]entities.ContentIndex, bool) {
	if d.Cache == nil {
		return nil, false
	}
	items, ok, err := d.Cache.GetListing(ctx, key)
	if err != nil {
		logger.Warn("distribution listing cache read failed",
			"event", "distribution_listing_cache_read_failed",
			"module", moduleName,
			"layer", "application",
			"cache_key", key,
			"error", err.Error(),
		)
		return nil, false
	}
	return items, ok
}

func (d Distributor) cacheTTL() time.Duration {
	if d.CacheTTL <= 0 {
		return DefaultCacheTTL
	}
	return d.CacheTTL
}
