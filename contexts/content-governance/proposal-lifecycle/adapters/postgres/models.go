package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"

	"gorm.io/datatypes"
)

type proposalModel struct {
	ID                    string         `gorm:"column:id;primaryKey"`
	Title                 string         `gorm:"column:title"`
	Description           string         `gorm:"column:description"`
	Category              string         `gorm:"column:category"`
	TargetTier            int            `gorm:"column:target_tier"`
	AuthorID              string         `gorm:"column:author_id"`
	AuthorName            string         `gorm:"column:author_name"`
	AuthorLevel           int            `gorm:"column:author_level"`
	Status                string         `gorm:"column:status"`
	Content               datatypes.JSON `gorm:"column:content"`
	OriginalProposalID    *string        `gorm:"column:original_proposal_id"`
	Featured              bool           `gorm:"column:featured"`
	SortIndex             int            `gorm:"column:sort_index"`
	Distributable         bool           `gorm:"column:distributable"`
	RetractedAt           *time.Time     `gorm:"column:retracted_at"`
	RetractedByProposalID *string        `gorm:"column:retracted_by_proposal_id"`
	LastEditProposalID    *string        `gorm:"column:last_edit_proposal_id"`
	DecidedByReviewerID   *string        `gorm:"column:decided_by_reviewer_id"`
	Revision              int64          `gorm:"column:revision"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
	UpdatedAt             time.Time      `gorm:"column:updated_at"`
	SubmittedAt           *time.Time     `gorm:"column:submitted_at"`
	ApprovedAt            *time.Time     `gorm:"column:approved_at"`
	RejectedAt            *time.Time     `gorm:"column:rejected_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

// voteModel is keyed by (proposal_id, reviewer_id), so a reviewer holds at
// most one outstanding decision per proposal.
type voteModel struct {
	ProposalID string    `gorm:"column:proposal_id;primaryKey"`
	ReviewerID string    `gorm:"column:reviewer_id;primaryKey"`
	Decision   string    `gorm:"column:decision"`
	VotedAt    time.Time `gorm:"column:voted_at"`
}

func (voteModel) TableName() string {
	return "governance_proposal_votes"
}

type idempotencyModel struct {
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	ProposalID  string    `gorm:"column:proposal_id"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
}

func (idempotencyModel) TableName() string {
	return "governance_idempotency"
}

// outboxModel.Sequence is assigned by the database and gives append order.
type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id"`
	Sequence     int64      `gorm:"column:sequence;->"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func proposalModelFromEntity(proposal entities.Proposal) (proposalModel, error) {
	content, err := json.Marshal(entities.SortBlocks(proposal.Content))
	if err != nil {
		return proposalModel{}, err
	}
	row := proposalModel{
		ID:                    strings.TrimSpace(proposal.ID),
		Title:                 proposal.Title,
		Description:           proposal.Description,
		Category:              string(proposal.Category),
		TargetTier:            proposal.TargetTier,
		AuthorID:              proposal.AuthorID,
		AuthorName:            proposal.AuthorName,
		AuthorLevel:           proposal.AuthorLevel,
		Status:                string(proposal.Status),
		Content:               datatypes.JSON(content),
		OriginalProposalID:    optionalString(proposal.OriginalProposalID),
		Featured:              proposal.Featured,
		SortIndex:             proposal.SortIndex,
		Distributable:         proposal.Distributable,
		RetractedAt:           normalizeOptionalTime(proposal.RetractedAt),
		RetractedByProposalID: optionalString(proposal.RetractedByProposalID),
		LastEditProposalID:    optionalString(proposal.LastEditProposalID),
		DecidedByReviewerID:   optionalString(proposal.DecidedByReviewerID),
		Revision:              proposal.Revision,
		CreatedAt:             proposal.CreatedAt.UTC(),
		UpdatedAt:             proposal.UpdatedAt.UTC(),
		SubmittedAt:           normalizeOptionalTime(proposal.SubmittedAt),
		ApprovedAt:            normalizeOptionalTime(proposal.ApprovedAt),
		RejectedAt:            normalizeOptionalTime(proposal.RejectedAt),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row, nil
}

func (m proposalModel) toEntity(votes []voteModel) (entities.Proposal, error) {
	var content []entities.ContentBlock
	if len(m.Content) > 0 {
		if err := json.Unmarshal(m.Content, &content); err != nil {
			return entities.Proposal{}, err
		}
	}
	proposal := entities.Proposal{
		ID:                    m.ID,
		Title:                 m.Title,
		Description:           m.Description,
		Category:              entities.Category(m.Category),
		TargetTier:            m.TargetTier,
		AuthorID:              m.AuthorID,
		AuthorName:            m.AuthorName,
		AuthorLevel:           m.AuthorLevel,
		Status:                entities.ProposalStatus(m.Status),
		Content:               entities.SortBlocks(content),
		Votes:                 entities.NewVotes(),
		OriginalProposalID:    derefString(m.OriginalProposalID),
		Featured:              m.Featured,
		SortIndex:             m.SortIndex,
		Distributable:         m.Distributable,
		RetractedAt:           normalizeOptionalTime(m.RetractedAt),
		RetractedByProposalID: derefString(m.RetractedByProposalID),
		LastEditProposalID:    derefString(m.LastEditProposalID),
		DecidedByReviewerID:   derefString(m.DecidedByReviewerID),
		Revision:              m.Revision,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
		SubmittedAt:           normalizeOptionalTime(m.SubmittedAt),
		ApprovedAt:            normalizeOptionalTime(m.ApprovedAt),
		RejectedAt:            normalizeOptionalTime(m.RejectedAt),
	}
	for _, vote := range votes {
		switch entities.Decision(vote.Decision) {
		case entities.DecisionApprove:
			proposal.Votes.Approvals[vote.ReviewerID] = vote.VotedAt.UTC()
		case entities.DecisionReject:
			proposal.Votes.Rejections[vote.ReviewerID] = vote.VotedAt.UTC()
		}
	}
	return proposal, nil
}

func voteModelsFromEntity(proposal entities.Proposal) []voteModel {
	rows := make([]voteModel, 0, len(proposal.Votes.Approvals)+len(proposal.Votes.Rejections))
	for _, reviewerID := range proposal.Votes.ApprovalIDs() {
		rows = append(rows, voteModel{
			ProposalID: proposal.ID,
			ReviewerID: reviewerID,
			Decision:   string(entities.DecisionApprove),
			VotedAt:    proposal.Votes.Approvals[reviewerID].UTC(),
		})
	}
	for _, reviewerID := range proposal.Votes.RejectionIDs() {
		rows = append(rows, voteModel{
			ProposalID: proposal.ID,
			ReviewerID: reviewerID,
			Decision:   string(entities.DecisionReject),
			VotedAt:    proposal.Votes.Rejections[reviewerID].UTC(),
		})
	}
	return rows
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}
