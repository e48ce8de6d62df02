package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	maxUpdateAttempts = 5
)

var (
	tracer = otel.Tracer("maestro/content-governance/proposal-lifecycle/postgres")

	errStaleRevision = errors.New("stale proposal revision")
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateProposal(ctx context.Context, proposal entities.Proposal) (err error) {
	ctx, span := startSpan(ctx, "proposal_repository.create", proposal.ID)
	defer func() { endSpan(span, err) }()

	proposal.Revision = 1
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return r.logError("proposal_repo_create_marshal_failed", err, "proposal_id", proposal.ID)
	}
	votes := voteModelsFromEntity(proposal)
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(votes) > 0 {
			return tx.Create(&votes).Error
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("proposal_repo_create_failed", err, "proposal_id", row.ID)
	}
	return nil
}

func (r *Repository) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	proposal, err := loadProposal(ctx, r.db, proposalID, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Proposal{}, domainerrors.ErrProposalNotFound
		}
		return entities.Proposal{}, r.logError("proposal_repo_get_failed", err, "proposal_id", proposalID)
	}
	return proposal, nil
}

// UpdateProposal is a compare-and-swap loop on the revision column. The
// mutator runs against an unlocked read; the write only lands if nobody else
// bumped the revision in between.
func (r *Repository) UpdateProposal(
	ctx context.Context,
	proposalID string,
	mutate ports.ProposalMutator,
) (updated entities.Proposal, err error) {
	proposalID = strings.TrimSpace(proposalID)
	ctx, span := startSpan(ctx, "proposal_repository.update", proposalID)
	defer func() { endSpan(span, err) }()

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		span.SetAttributes(attribute.Int("proposal.update_attempt", attempt))
		current, err := r.GetProposal(ctx, proposalID)
		if err != nil {
			return entities.Proposal{}, err
		}
		next, err := mutate(current.Clone())
		if err != nil {
			return entities.Proposal{}, err
		}
		next.ID = proposalID
		next.Revision = current.Revision + 1

		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return writeProposal(tx, current.Revision, next)
		})
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, errStaleRevision):
			r.logger.Debug("proposal revision moved, retrying",
				"event", "proposal_repo_update_retry",
				"module", "content-governance/proposal-lifecycle",
				"layer", "adapter",
				"proposal_id", proposalID,
				"attempt", attempt,
			)
			continue
		case errors.Is(err, domainerrors.ErrProposalNotFound):
			return entities.Proposal{}, err
		default:
			return entities.Proposal{}, r.logError("proposal_repo_update_failed", err, "proposal_id", proposalID)
		}
	}
	return entities.Proposal{}, domainerrors.ErrConflict
}

// UpdateLinkedProposals locks both rows in id order so two decisions touching
// the same original cannot deadlock, then applies the mutator and writes both
// records in one transaction.
func (r *Repository) UpdateLinkedProposals(
	ctx context.Context,
	primaryID string,
	linkedID string,
	mutate ports.LinkedProposalMutator,
) (primary entities.Proposal, linked entities.Proposal, err error) {
	primaryID = strings.TrimSpace(primaryID)
	linkedID = strings.TrimSpace(linkedID)
	ctx, span := startSpan(ctx, "proposal_repository.update_linked", primaryID)
	span.SetAttributes(attribute.String("proposal.linked_id", linkedID))
	defer func() { endSpan(span, err) }()
	if primaryID == linkedID {
		return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			locked := make(map[string]entities.Proposal, 2)
			ids := []string{primaryID, linkedID}
			sort.Strings(ids)
			for _, id := range ids {
				proposal, err := loadProposal(ctx, tx, id, true)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						if id == primaryID {
							return domainerrors.ErrProposalNotFound
						}
						return domainerrors.ErrOriginalNotFound
					}
					return err
				}
				locked[id] = proposal
			}

			currentPrimary := locked[primaryID]
			currentLinked := locked[linkedID]
			nextPrimary, nextLinked, err := mutate(currentPrimary.Clone(), currentLinked.Clone())
			if err != nil {
				return err
			}
			nextPrimary.ID = primaryID
			nextPrimary.Revision = currentPrimary.Revision + 1
			nextLinked.ID = linkedID
			nextLinked.Revision = currentLinked.Revision + 1
			if err := writeProposal(tx, currentPrimary.Revision, nextPrimary); err != nil {
				return err
			}
			if err := writeProposal(tx, currentLinked.Revision, nextLinked); err != nil {
				return err
			}
			primary, linked = nextPrimary, nextLinked
			return nil
		})
		if errors.Is(err, errStaleRevision) {
			continue
		}
		if err != nil {
			if isDomainError(err) {
				return entities.Proposal{}, entities.Proposal{}, err
			}
			return entities.Proposal{}, entities.Proposal{}, r.logError("proposal_repo_update_linked_failed", err,
				"proposal_id", primaryID,
				"linked_proposal_id", linkedID,
			)
		}
		return primary, linked, nil
	}
	return entities.Proposal{}, entities.Proposal{}, domainerrors.ErrConflict
}

func (r *Repository) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	tx := r.db.WithContext(ctx).Model(&proposalModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.TargetTier != 0 {
		tx = tx.Where("target_tier = ?", filter.TargetTier)
	}
	if filter.Category != "" {
		tx = tx.Where("category = ?", string(filter.Category))
	}
	if strings.TrimSpace(filter.AuthorID) != "" {
		tx = tx.Where("author_id = ?", strings.TrimSpace(filter.AuthorID))
	}
	if strings.TrimSpace(filter.OriginalProposalID) != "" {
		tx = tx.Where("original_proposal_id = ?", strings.TrimSpace(filter.OriginalProposalID))
	}

	var rows []proposalModel
	if err := tx.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_failed", err)
	}
	if len(rows) == 0 {
		return []entities.Proposal{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var votes []voteModel
	if err := r.db.WithContext(ctx).Where("proposal_id IN ?", ids).Find(&votes).Error; err != nil {
		return nil, r.logError("proposal_repo_list_votes_failed", err)
	}
	votesByProposal := make(map[string][]voteModel, len(rows))
	for _, vote := range votes {
		votesByProposal[vote.ProposalID] = append(votesByProposal[vote.ProposalID], vote)
	}

	items := make([]entities.Proposal, 0, len(rows))
	for _, row := range rows {
		proposal, err := row.toEntity(votesByProposal[row.ID])
		if err != nil {
			return nil, r.logError("proposal_repo_list_decode_failed", err, "proposal_id", row.ID)
		}
		items = append(items, proposal)
	}
	return items, nil
}

// DeleteProposal removes a non-terminal proposal with its votes. The status is
// checked under a row lock so a concurrent decisive vote cannot slip in.
func (r *Repository) DeleteProposal(ctx context.Context, proposalID string) (err error) {
	proposalID = strings.TrimSpace(proposalID)
	ctx, span := startSpan(ctx, "proposal_repository.delete", proposalID)
	defer func() { endSpan(span, err) }()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		proposal, err := loadProposal(ctx, tx, proposalID, true)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrProposalNotFound
			}
			return err
		}
		if proposal.Status.Terminal() {
			return domainerrors.ErrTerminal
		}
		if err := tx.Where("proposal_id = ?", proposalID).Delete(&voteModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", proposalID).Delete(&proposalModel{}).Error
	})
	if err != nil && !isDomainError(err) {
		return r.logError("proposal_repo_delete_failed", err, "proposal_id", proposalID)
	}
	return err
}

func (r *Repository) GetIdempotency(ctx context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, r.logError("proposal_repo_get_idempotency_failed", err,
			"idempotency_key", strings.TrimSpace(key),
		)
	}
	if !row.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:         row.Key,
		RequestHash: row.RequestHash,
		ProposalID:  row.ProposalID,
		ExpiresAt:   row.ExpiresAt.UTC(),
	}, true, nil
}

func (r *Repository) PutIdempotency(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:         strings.TrimSpace(record.Key),
		RequestHash: strings.TrimSpace(record.RequestHash),
		ProposalID:  strings.TrimSpace(record.ProposalID),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("proposal_repo_put_idempotency_failed", create.Error, "idempotency_key", row.Key)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing idempotencyModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", row.Key).First(&existing).Error; err != nil {
		return r.logError("proposal_repo_load_idempotency_failed", err, "idempotency_key", row.Key)
	}
	if existing.RequestHash != row.RequestHash || existing.ProposalID != row.ProposalID {
		return domainerrors.ErrIdempotencyConflict
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("proposal_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("proposal_repo_append_outbox_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("proposal_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("proposal_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("proposal_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "content-governance/proposal-lifecycle",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("proposal repository operation failed", fields...)
	return err
}

func loadProposal(ctx context.Context, db *gorm.DB, proposalID string, forUpdate bool) (entities.Proposal, error) {
	query := db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row proposalModel
	if err := query.Where("id = ?", proposalID).First(&row).Error; err != nil {
		return entities.Proposal{}, err
	}
	var votes []voteModel
	if err := db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Order("reviewer_id ASC").
		Find(&votes).Error; err != nil {
		return entities.Proposal{}, err
	}
	return row.toEntity(votes)
}

// writeProposal replaces the proposal row and its vote rows, guarded by the
// revision the caller read.
func writeProposal(tx *gorm.DB, expectedRevision int64, proposal entities.Proposal) error {
	row, err := proposalModelFromEntity(proposal)
	if err != nil {
		return err
	}
	result := tx.Model(&proposalModel{}).
		Where("id = ? AND revision = ?", row.ID, expectedRevision).
		Updates(map[string]any{
			"title":                    row.Title,
			"description":              row.Description,
			"category":                 row.Category,
			"target_tier":              row.TargetTier,
			"author_name":              row.AuthorName,
			"author_level":             row.AuthorLevel,
			"status":                   row.Status,
			"content":                  row.Content,
			"featured":                 row.Featured,
			"sort_index":               row.SortIndex,
			"distributable":            row.Distributable,
			"retracted_at":             row.RetractedAt,
			"retracted_by_proposal_id": row.RetractedByProposalID,
			"last_edit_proposal_id":    row.LastEditProposalID,
			"decided_by_reviewer_id":   row.DecidedByReviewerID,
			"revision":                 row.Revision,
			"updated_at":               row.UpdatedAt,
			"submitted_at":             row.SubmittedAt,
			"approved_at":              row.ApprovedAt,
			"rejected_at":              row.RejectedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&proposalModel{}).Where("id = ?", row.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrProposalNotFound
		}
		return errStaleRevision
	}

	if err := tx.Where("proposal_id = ?", row.ID).Delete(&voteModel{}).Error; err != nil {
		return err
	}
	votes := voteModelsFromEntity(proposal)
	if len(votes) == 0 {
		return nil
	}
	return tx.Create(&votes).Error
}

func startSpan(ctx context.Context, name string, proposalID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("proposal.id", strings.TrimSpace(proposalID)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func isDomainError(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound) ||
		errors.Is(err, domainerrors.ErrUnauthorized) ||
		errors.Is(err, domainerrors.ErrInvalidState) ||
		errors.Is(err, domainerrors.ErrValidation) ||
		errors.Is(err, domainerrors.ErrConflict)
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ProposalRepository = (*Repository)(nil)
var _ ports.IdempotencyStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
