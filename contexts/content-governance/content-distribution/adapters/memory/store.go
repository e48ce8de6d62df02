package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	"maestro/contexts/content-governance/content-distribution/ports"
)

type listingEntry struct {
	items     []entities.ContentIndex
	expiresAt time.Time
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-process projection of published content plus the listing
// cache and event dedup table.
type Store struct {
	mu sync.RWMutex

	published map[string]entities.PublishedContent
	listings  map[string]listingEntry
	dedup     map[string]dedupRecord
	clock     func() time.Time
}

func NewStore(seed []entities.PublishedContent) *Store {
	published := make(map[string]entities.PublishedContent, len(seed))
	for _, content := range seed {
		published[strings.TrimSpace(content.ProposalID)] = cloneContent(content)
	}
	return &Store{
		published: published,
		listings:  make(map[string]listingEntry),
		dedup:     make(map[string]dedupRecord),
		clock:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for cache and dedup expiry.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

func (s *Store) ListPublished(_ context.Context, tier int, category entities.Category) ([]entities.PublishedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.PublishedContent, 0)
	for _, content := range s.published {
		if content.TargetTier != tier || content.Category != category || !content.Servable() {
			continue
		}
		items = append(items, cloneContent(content))
	}
	return items, nil
}

func (s *Store) GetPublished(_ context.Context, proposalID string) (entities.PublishedContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.published[strings.TrimSpace(proposalID)]
	if !ok {
		return entities.PublishedContent{}, domainerrors.ErrContentNotFound
	}
	return cloneContent(content), nil
}

func (s *Store) UpsertPublished(_ context.Context, content entities.PublishedContent) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(content.ProposalID)
	if existing, ok := s.published[id]; ok && existing.Revision > content.Revision {
		return false, nil
	}
	content.ProposalID = id
	s.published[id] = cloneContent(content)
	return true, nil
}

func (s *Store) GetListing(_ context.Context, key string) ([]entities.ContentIndex, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.listings[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.listings, key)
		return nil, false, nil
	}
	return append([]entities.ContentIndex(nil), entry.items...), true, nil
}

func (s *Store) SetListing(_ context.Context, key string, items []entities.ContentIndex, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[key] = listingEntry{
		items:     append([]entities.ContentIndex(nil), items...),
		expiresAt: s.clock().Add(ttl),
	}
	return nil
}

func (s *Store) InvalidateListing(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.listings, key)
	}
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(eventID)
	if existing, ok := s.dedup[key]; ok {
		if !existing.expiresAt.IsZero() && s.clock().After(existing.expiresAt) {
			delete(s.dedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrEventConflict
			}
			return true, nil
		}
	}
	s.dedup[key] = dedupRecord{payloadHash: strings.TrimSpace(payloadHash), expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock()
}

func cloneContent(content entities.PublishedContent) entities.PublishedContent {
	blocks := make([]entities.Block, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		copied := block
		if block.Metadata != nil {
			copied.Metadata = make(map[string]any, len(block.Metadata))
			for key, value := range block.Metadata {
				copied.Metadata[key] = value
			}
		}
		blocks = append(blocks, copied)
	}
	content.Blocks = blocks
	return content
}

var (
	_ ports.ContentSource    = (*Store)(nil)
	_ ports.ProjectionWriter = (*Store)(nil)
	_ ports.ListingCache     = (*Store)(nil)
	_ ports.EventDedupStore  = (*Store)(nil)
	_ ports.Clock            = (*Store)(nil)
)
