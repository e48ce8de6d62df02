package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"

	"github.com/google/uuid"
)

// MaxUpdateAttempts bounds the optimistic retry loop before an update gives
// up with a conflict.
const MaxUpdateAttempts = 5

type outboxRecord struct {
	message   ports.OutboxMessage
	sequence  int64
	published bool
}

// Store keeps proposals in process. Updates follow the same optimistic
// protocol as the postgres adapter: the mutator runs against a snapshot
// outside the lock and the result is committed only if the revision has not
// moved in the meantime.
type Store struct {
	mu sync.RWMutex

	proposals   map[string]entities.Proposal
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
	outboxSeq   int64

	clock func() time.Time
}

func NewStore(seed []entities.Proposal) *Store {
	proposals := make(map[string]entities.Proposal, len(seed))
	for _, proposal := range seed {
		proposals[proposal.ID] = proposal.Clone()
	}
	return &Store{
		proposals:   proposals,
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
		clock:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock pins the store clock, which the lifecycle use case also reads.
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clock != nil {
		s.clock = clock
	}
}

func (s *Store) CreateProposal(_ context.Context, proposal entities.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(proposal.ID)
	if id == "" {
		return domainerrors.ErrInvalidProposalInput
	}
	if _, exists := s.proposals[id]; exists {
		return domainerrors.ErrConflict
	}
	proposal.ID = id
	proposal.Revision = 1
	s.proposals[id] = proposal.Clone()
	return nil
}

func (s *Store) GetProposal(_ context.Context, proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[strings.TrimSpace(proposalID)]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal.Clone(), nil
}

func (s *Store) UpdateProposal(
	_ context.Context,
	proposalID string,
	mutate ports.ProposalMutator,
) (entities.Proposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	for attempt := 0; attempt < MaxUpdateAttempts; attempt++ {
		current, err := s.snapshot(proposalID)
		if err != nil {
			return entities.Proposal{}, err
		}
		next, err := mutate(current.Clone())
		if err != nil {
			return entities.Proposal{}, err
		}

		s.mu.Lock()
		stored, ok := s.proposals[proposalID]
		if !ok {
			s.mu.Unlock()
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		if stored.Revision != current.Revision {
			s.mu.Unlock()
			continue
		}
		next.ID = proposalID
		next.Revision = current.Revision + 1
		s.proposals[proposalID] = next.Clone()
		s.mu.Unlock()
		return next, nil
	}
	return entities.Proposal{}, domainerrors.ErrConflict
}

func (s *Store) UpdateLinkedProposals(
	_ context.Context,
	primaryID string,
	linkedID string,
	mutate ports.LinkedProposalMutator,
) (entities.Proposal, entities.Proposal, error) {
	primaryID = strings.TrimSpace(primaryID)
	linkedID = strings.TrimSpace(linkedID)
	if primaryID == linkedID {
		return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}
	for attempt := 0; attempt < MaxUpdateAttempts; attempt++ {
		primary, err := s.snapshot(primaryID)
		if err != nil {
			return entities.Proposal{}, entities.Proposal{}, err
		}
		linked, err := s.snapshot(linkedID)
		if err != nil {
			return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrOriginalNotFound
		}
		nextPrimary, nextLinked, err := mutate(primary.Clone(), linked.Clone())
		if err != nil {
			return entities.Proposal{}, entities.Proposal{}, err
		}

		s.mu.Lock()
		storedPrimary, okPrimary := s.proposals[primaryID]
		storedLinked, okLinked := s.proposals[linkedID]
		if !okPrimary || !okLinked {
			s.mu.Unlock()
			if !okPrimary {
				return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrProposalNotFound
			}
			return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrOriginalNotFound
		}
		if storedPrimary.Revision != primary.Revision || storedLinked.Revision != linked.Revision {
			s.mu.Unlock()
			continue
		}
		nextPrimary.ID = primaryID
		nextPrimary.Revision = primary.Revision + 1
		nextLinked.ID = linkedID
		nextLinked.Revision = linked.Revision + 1
		s.proposals[primaryID] = nextPrimary.Clone()
		s.proposals[linkedID] = nextLinked.Clone()
		s.mu.Unlock()
		return nextPrimary, nextLinked, nil
	}
	return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrConflict
}

func (s *Store) ListProposals(_ context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Proposal, 0)
	for _, proposal := range s.proposals {
		if !matches(proposal, filter) {
			continue
		}
		items = append(items, proposal.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) DeleteProposal(_ context.Context, proposalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposalID = strings.TrimSpace(proposalID)
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	if proposal.Status.Terminal() {
		return domainerrors.ErrTerminal
	}
	delete(s.proposals, proposalID)
	return nil
}

func (s *Store) snapshot(proposalID string) (entities.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proposal, ok := s.proposals[proposalID]
	if !ok {
		return entities.Proposal{}, domainerrors.ErrProposalNotFound
	}
	return proposal.Clone(), nil
}

func matches(proposal entities.Proposal, filter ports.ProposalFilter) bool {
	if filter.Status != "" && proposal.Status != filter.Status {
		return false
	}
	if filter.TargetTier != 0 && proposal.TargetTier != filter.TargetTier {
		return false
	}
	if filter.Category != "" && proposal.Category != filter.Category {
		return false
	}
	if filter.AuthorID != "" && proposal.AuthorID != filter.AuthorID {
		return false
	}
	if filter.OriginalProposalID != "" && proposal.OriginalProposalID != filter.OriginalProposalID {
		return false
	}
	return true
}

func (s *Store) GetIdempotency(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key = strings.TrimSpace(key)
	record, exists := s.idempotency[key]
	if !exists {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutIdempotency(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if existing, exists := s.idempotency[key]; exists {
		if existing.RequestHash != record.RequestHash || existing.ProposalID != record.ProposalID {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = ports.IdempotencyRecord{
		Key:         key,
		RequestHash: strings.TrimSpace(record.RequestHash),
		ProposalID:  strings.TrimSpace(record.ProposalID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.clock()
	}
	s.outboxSeq++
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
		sequence: s.outboxSeq,
	}
	return nil
}

// ListPendingOutbox returns unpublished rows in append order.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if !row.published {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].sequence < rows[j].sequence })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID = strings.TrimSpace(outboxID)
	row, ok := s.outbox[outboxID]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[outboxID] = row
	return nil
}

// PendingOutboxCount is a test helper.
func (s *Store) PendingOutboxCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, row := range s.outbox {
		if !row.published {
			count++
		}
	}
	return count
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
