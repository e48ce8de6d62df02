package commands

import (
	"context"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
)

type CreateDraftCommand struct {
	AuthorID       string
	AuthorName     string
	AuthorLevel    int
	Title          string
	Description    string
	Category       entities.Category
	TargetTier     int
	Content        []entities.ContentBlock
	Featured       bool
	SortIndex      int
	IdempotencyKey string
}

type CreateDraftResult struct {
	Proposal entities.Proposal
	Replayed bool
}

// UpdateDraftCommand carries optional fields; nil leaves the field untouched.
// Concurrent edits are last-write-wins.
type UpdateDraftCommand struct {
	ProposalID  string
	ActorID     string
	Title       *string
	Description *string
	Category    *entities.Category
	TargetTier  *int
	Content     *[]entities.ContentBlock
	Featured    *bool
	SortIndex   *int
}

// CreateDraft stores a new content proposal in draft. Drafts may be
// incomplete; completeness is enforced on submit.
func (uc LifecycleUseCase) CreateDraft(ctx context.Context, cmd CreateDraftCommand) (CreateDraftResult, error) {
	logger := uc.logger()
	authorID := strings.TrimSpace(cmd.AuthorID)
	logger.Info("proposal draft create started",
		"event", "proposal_draft_create_started",
		"module", moduleName,
		"layer", "application",
		"author_id", authorID,
		"category", string(cmd.Category),
		"target_tier", cmd.TargetTier,
	)
	if authorID == "" {
		uc.logFailure(logger, "proposal_draft_create_validation_failed", domainerrors.ErrInvalidProposalInput)
		return CreateDraftResult{}, domainerrors.ErrInvalidProposalInput
	}
	if !cmd.Category.IsContent() {
		uc.logFailure(logger, "proposal_draft_create_validation_failed", domainerrors.ErrInvalidCategory,
			"category", string(cmd.Category),
		)
		return CreateDraftResult{}, domainerrors.ErrInvalidCategory
	}
	if !entities.ValidTier(cmd.TargetTier) {
		uc.logFailure(logger, "proposal_draft_create_validation_failed", domainerrors.ErrInvalidTier,
			"target_tier", cmd.TargetTier,
		)
		return CreateDraftResult{}, domainerrors.ErrInvalidTier
	}
	content, err := normalizeBlocks(cmd.Content)
	if err != nil {
		uc.logFailure(logger, "proposal_draft_create_validation_failed", err, "author_id", authorID)
		return CreateDraftResult{}, err
	}

	now := uc.now()
	requestHash := hashRequest("create_draft", cmd)
	if existing, found, err := uc.replay(ctx, cmd.IdempotencyKey, requestHash, now); err != nil {
		uc.logFailure(logger, "proposal_draft_create_idempotency_failed", err, "author_id", authorID)
		return CreateDraftResult{}, err
	} else if found {
		logger.Info("proposal draft create replayed",
			"event", "proposal_draft_create_replayed",
			"module", moduleName,
			"layer", "application",
			"proposal_id", existing.ID,
			"author_id", authorID,
		)
		return CreateDraftResult{Proposal: existing, Replayed: true}, nil
	}

	proposalID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateDraftResult{}, err
	}
	proposal := entities.Proposal{
		ID:          proposalID,
		Title:       strings.TrimSpace(cmd.Title),
		Description: strings.TrimSpace(cmd.Description),
		Category:    cmd.Category,
		TargetTier:  cmd.TargetTier,
		AuthorID:    authorID,
		AuthorName:  strings.TrimSpace(cmd.AuthorName),
		AuthorLevel: cmd.AuthorLevel,
		Status:      entities.ProposalStatusDraft,
		Content:     content,
		Votes:       entities.NewVotes(),
		Featured:    cmd.Featured,
		SortIndex:   cmd.SortIndex,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.Proposals.CreateProposal(ctx, proposal); err != nil {
		logger.Error("proposal draft create failed",
			"event", "proposal_draft_create_failed",
			"module", moduleName,
			"layer", "application",
			"proposal_id", proposal.ID,
			"error", err.Error(),
		)
		return CreateDraftResult{}, err
	}
	if err := uc.remember(ctx, cmd.IdempotencyKey, requestHash, proposal.ID, now); err != nil {
		return CreateDraftResult{}, err
	}
	if err := uc.publishAll(ctx, now, pendingEvent{eventType: EventProposalCreated, proposal: proposal}); err != nil {
		return CreateDraftResult{}, err
	}

	logger.Info("proposal draft created",
		"event", "proposal_draft_created",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposal.ID,
		"author_id", proposal.AuthorID,
		"category", string(proposal.Category),
		"target_tier", proposal.TargetTier,
		"block_count", len(proposal.Content),
	)
	return CreateDraftResult{Proposal: proposal}, nil
}

// UpdateDraft edits a draft in place. Only the author may edit, and only
// while the proposal is still a draft.
func (uc LifecycleUseCase) UpdateDraft(ctx context.Context, cmd UpdateDraftCommand) (entities.Proposal, error) {
	logger := uc.logger()
	proposalID := strings.TrimSpace(cmd.ProposalID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if proposalID == "" || actorID == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}
	if cmd.TargetTier != nil && !entities.ValidTier(*cmd.TargetTier) {
		return entities.Proposal{}, domainerrors.ErrInvalidTier
	}
	if cmd.Category != nil && !cmd.Category.IsContent() {
		return entities.Proposal{}, domainerrors.ErrInvalidCategory
	}
	var content []entities.ContentBlock
	if cmd.Content != nil {
		normalized, err := normalizeBlocks(*cmd.Content)
		if err != nil {
			return entities.Proposal{}, err
		}
		content = normalized
	}

	now := uc.now()
	updated, err := uc.Proposals.UpdateProposal(ctx, proposalID, func(current entities.Proposal) (entities.Proposal, error) {
		if current.Status != entities.ProposalStatusDraft {
			return current, domainerrors.ErrNotDraft
		}
		if !current.IsAuthoredBy(actorID) {
			return current, domainerrors.ErrNotAuthor
		}
		if current.Category.IsManagement() && (cmd.Category != nil || cmd.TargetTier != nil) {
			// Management proposals inherit category and tier from their original.
			return current, domainerrors.ErrInvalidProposalInput
		}
		next := current.Clone()
		if cmd.Title != nil {
			next.Title = strings.TrimSpace(*cmd.Title)
		}
		if cmd.Description != nil {
			next.Description = strings.TrimSpace(*cmd.Description)
		}
		if cmd.Category != nil {
			next.Category = *cmd.Category
		}
		if cmd.TargetTier != nil {
			next.TargetTier = *cmd.TargetTier
		}
		if cmd.Content != nil {
			next.Content = entities.CloneBlocks(content)
		}
		if cmd.Featured != nil {
			next.Featured = *cmd.Featured
		}
		if cmd.SortIndex != nil {
			next.SortIndex = *cmd.SortIndex
		}
		next.UpdatedAt = now
		return next, nil
	})
	if err != nil {
		uc.logFailure(logger, "proposal_draft_update_failed", err,
			"proposal_id", proposalID,
			"actor_id", actorID,
		)
		return entities.Proposal{}, err
	}
	logger.Info("proposal draft updated",
		"event", "proposal_draft_updated",
		"module", moduleName,
		"layer", "application",
		"proposal_id", updated.ID,
		"actor_id", actorID,
		"revision", updated.Revision,
	)
	return updated, nil
}
