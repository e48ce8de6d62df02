package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"maestro/contexts/content-governance/content-distribution/adapters/memory"
	"maestro/contexts/content-governance/content-distribution/application/queries"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
)

var approvedAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func published(id string, tier int, category entities.Category, offset time.Duration) entities.PublishedContent {
	return entities.PublishedContent{
		ProposalID:    id,
		Title:         "Title " + id,
		Category:      category,
		TargetTier:    tier,
		Distributable: true,
		ApprovedAt:    approvedAt.Add(offset),
		Revision:      3,
		Blocks: []entities.Block{
			{ID: id + "-b0", Type: "text", Text: "Intro"},
			{ID: id + "-b1", Type: "video", Order: 1},
		},
	}
}

func TestListForTierFiltersAndOrders(t *testing.T) {
	retracted := published("retracted", 1, entities.CategoryTheoretical, 0)
	retracted.Distributable = false
	store := memory.NewStore([]entities.PublishedContent{
		published("second", 1, entities.CategoryTheoretical, time.Minute),
		published("first", 1, entities.CategoryTheoretical, 0),
		published("other-tier", 2, entities.CategoryTheoretical, 0),
		published("practical", 1, entities.CategoryPractical, 0),
		retracted,
	})
	distributor := queries.Distributor{Source: store}

	items, err := distributor.ListForTier(context.Background(), 1, entities.CategoryTheoretical)
	if err != nil {
		t.Fatalf("list for tier: %v", err)
	}
	if len(items) != 2 || items[0].ProposalID != "first" || items[1].ProposalID != "second" {
		t.Fatalf("unexpected listing: %+v", items)
	}
	if items[0].SectionCount != 2 || items[0].EstimatedDurationMinutes != 6 {
		t.Fatalf("unexpected summary: %+v", items[0])
	}
}

func TestListForTierValidatesInput(t *testing.T) {
	distributor := queries.Distributor{Source: memory.NewStore(nil)}
	if _, err := distributor.ListForTier(context.Background(), 7, entities.CategoryTheoretical); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for tier 7, got %v", err)
	}
	if _, err := distributor.ListForTier(context.Background(), 1, "edit_approved_content"); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error for management category, got %v", err)
	}
	items, err := distributor.ListForTier(context.Background(), 6, "CHECKPOINT")
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty checkpoint listing, got %v %v", items, err)
	}
}

func TestListingCacheOnlyHoldsWhatTheSourceReturned(t *testing.T) {
	store := memory.NewStore(nil)
	distributor := queries.Distributor{Source: store, Cache: store, CacheTTL: time.Minute}
	ctx := context.Background()

	items, err := distributor.ListForTier(ctx, 3, entities.CategoryPractical)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty listing before approval, got %v %v", items, err)
	}
	if _, err := store.UpsertPublished(ctx, published("p1", 3, entities.CategoryPractical, 0)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// The cached empty listing stays until invalidated or expired.
	items, _ = distributor.ListForTier(ctx, 3, entities.CategoryPractical)
	if len(items) != 0 {
		t.Fatalf("expected cached empty listing, got %+v", items)
	}
	if err := store.InvalidateListing(ctx, queries.ListingKey(3, entities.CategoryPractical)); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	items, _ = distributor.ListForTier(ctx, 3, entities.CategoryPractical)
	if len(items) != 1 || items[0].ProposalID != "p1" {
		t.Fatalf("expected refreshed listing, got %+v", items)
	}
}

func TestListingCacheExpires(t *testing.T) {
	store := memory.NewStore(nil)
	now := approvedAt
	store.SetClock(func() time.Time { return now })
	distributor := queries.Distributor{Source: store, Cache: store, CacheTTL: 30 * time.Second}
	ctx := context.Background()

	if _, err := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := store.UpsertPublished(ctx, published("p1", 1, entities.CategoryTheoretical, 0)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	now = now.Add(31 * time.Second)
	items, _ := distributor.ListForTier(ctx, 1, entities.CategoryTheoretical)
	if len(items) != 1 {
		t.Fatalf("expected listing rebuilt after ttl, got %+v", items)
	}
}

func TestGetIndex(t *testing.T) {
	retracted := published("retracted", 1, entities.CategoryTheoretical, 0)
	retracted.Distributable = false
	store := memory.NewStore([]entities.PublishedContent{
		published("p1", 1, entities.CategoryTheoretical, 0),
		retracted,
	})
	distributor := queries.Distributor{Source: store}

	index, sections, err := distributor.GetIndex(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	if index.ProposalID != "p1" || len(sections) != 2 || sections[1].SectionType != entities.SectionTypeVideo {
		t.Fatalf("unexpected index: %+v %+v", index, sections)
	}
	for _, id := range []string{"retracted", "missing", ""} {
		if _, _, err := distributor.GetIndex(context.Background(), id); !errors.Is(err, domainerrors.ErrNotFound) {
			t.Fatalf("%q: expected not found, got %v", id, err)
		}
	}
}
