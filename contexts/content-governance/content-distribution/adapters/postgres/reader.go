package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
	domainerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	"maestro/contexts/content-governance/content-distribution/domain/services"
	"maestro/contexts/content-governance/content-distribution/ports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const statusApproved = "approved"

var tracer = otel.Tracer("maestro/content-governance/content-distribution/postgres")

// publishedRow is this module's read-only view of the proposal table. Only
// committed rows are visible, so nothing is served before its approval is
// durable.
type publishedRow struct {
	ID            string         `gorm:"column:id"`
	Title         string         `gorm:"column:title"`
	Description   string         `gorm:"column:description"`
	Category      string         `gorm:"column:category"`
	TargetTier    int            `gorm:"column:target_tier"`
	AuthorName    string         `gorm:"column:author_name"`
	Status        string         `gorm:"column:status"`
	Content       datatypes.JSON `gorm:"column:content"`
	Featured      bool           `gorm:"column:featured"`
	SortIndex     int            `gorm:"column:sort_index"`
	Distributable bool           `gorm:"column:distributable"`
	RetractedAt   *time.Time     `gorm:"column:retracted_at"`
	Revision      int64          `gorm:"column:revision"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
	ApprovedAt    *time.Time     `gorm:"column:approved_at"`
}

func (publishedRow) TableName() string {
	return "governance_proposals"
}

type Reader struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewReader(db *gorm.DB, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{db: db, logger: logger}
}

func (r *Reader) ListPublished(ctx context.Context, tier int, category entities.Category) (_ []entities.PublishedContent, err error) {
	ctx, span := tracer.Start(ctx, "distribution_reader.list", trace.WithAttributes(
		attribute.Int("distribution.tier", tier),
		attribute.String("distribution.category", string(category)),
	))
	defer func() { endSpan(span, err) }()

	var rows []publishedRow
	err = r.db.WithContext(ctx).
		Where("status = ? AND distributable = ? AND retracted_at IS NULL", statusApproved, true).
		Where("target_tier = ? AND category = ?", tier, string(category)).
		Order("approved_at ASC").
		Order("featured DESC").
		Order("sort_index ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("distribution_reader_list_failed", err)
	}
	items := make([]entities.PublishedContent, 0, len(rows))
	for _, row := range rows {
		content, err := row.toEntity()
		if err != nil {
			return nil, r.logError("distribution_reader_decode_failed", err)
		}
		items = append(items, content)
	}
	return items, nil
}

func (r *Reader) GetPublished(ctx context.Context, proposalID string) (_ entities.PublishedContent, err error) {
	ctx, span := tracer.Start(ctx, "distribution_reader.get", trace.WithAttributes(
		attribute.String("proposal.id", strings.TrimSpace(proposalID)),
	))
	defer func() { endSpan(span, err) }()

	var row publishedRow
	err = r.db.WithContext(ctx).
		Where("id = ? AND status = ?", strings.TrimSpace(proposalID), statusApproved).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.PublishedContent{}, domainerrors.ErrContentNotFound
	}
	if err != nil {
		return entities.PublishedContent{}, r.logError("distribution_reader_get_failed", err)
	}
	content, err := row.toEntity()
	if err != nil {
		return entities.PublishedContent{}, r.logError("distribution_reader_decode_failed", err)
	}
	return content, nil
}

func (row publishedRow) toEntity() (entities.PublishedContent, error) {
	blocks, err := services.DecodeBlocks(row.Content)
	if err != nil {
		return entities.PublishedContent{}, err
	}
	content := entities.PublishedContent{
		ProposalID:    row.ID,
		Title:         row.Title,
		Description:   row.Description,
		Category:      entities.NormalizeCategory(row.Category),
		TargetTier:    row.TargetTier,
		AuthorName:    row.AuthorName,
		Featured:      row.Featured,
		SortIndex:     row.SortIndex,
		Distributable: row.Distributable && row.RetractedAt == nil,
		UpdatedAt:     row.UpdatedAt.UTC(),
		Revision:      row.Revision,
		Blocks:        blocks,
	}
	if row.ApprovedAt != nil {
		content.ApprovedAt = row.ApprovedAt.UTC()
	}
	return content, nil
}

func (r *Reader) logError(event string, err error) error {
	r.logger.Error("distribution reader query failed",
		"event", event,
		"module", "content-governance/content-distribution",
		"layer", "adapter",
		"error", err.Error(),
	)
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

var _ ports.ContentSource = (*Reader)(nil)
