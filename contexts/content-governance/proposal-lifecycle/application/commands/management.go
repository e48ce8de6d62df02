package commands

import (
	"context"
	"errors"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/services"
)

// ManagementChangeCommand opens an edit or delete proposal against approved
// content. NewContent nil starts the draft from a snapshot of the original
// content.
type ManagementChangeCommand struct {
	OriginalProposalID string
	Kind               entities.ManagementKind
	ActorID            string
	ActorName          string
	ActorLevel         int
	Title              string
	Description        string
	NewContent         []entities.ContentBlock
	IdempotencyKey     string
}

// RequestManagementChange creates a new draft proposal that, once approved by
// a decisive reviewer, edits or retracts the original. The original is not
// touched until then.
func (uc LifecycleUseCase) RequestManagementChange(ctx context.Context, cmd ManagementChangeCommand) (CreateDraftResult, error) {
	logger := uc.logger()
	originalID := strings.TrimSpace(cmd.OriginalProposalID)
	actorID := strings.TrimSpace(cmd.ActorID)
	kind := entities.ManagementKind(strings.ToLower(strings.TrimSpace(string(cmd.Kind))))
	logger.Info("proposal management change started",
		"event", "proposal_management_change_started",
		"module", moduleName,
		"layer", "application",
		"original_proposal_id", originalID,
		"kind", string(kind),
		"actor_id", actorID,
	)
	category, ok := kind.Category()
	if !ok {
		return CreateDraftResult{}, domainerrors.ErrInvalidManagementKind
	}
	if originalID == "" || actorID == "" {
		return CreateDraftResult{}, domainerrors.ErrInvalidProposalInput
	}

	original, err := uc.Proposals.GetProposal(ctx, originalID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return CreateDraftResult{}, domainerrors.ErrOriginalNotFound
		}
		return CreateDraftResult{}, err
	}
	if err := services.CheckManageable(original); err != nil {
		uc.logFailure(logger, "proposal_management_change_invalid_state", err,
			"original_proposal_id", originalID,
			"status", string(original.Status),
		)
		return CreateDraftResult{}, err
	}

	content := entities.CloneBlocks(original.Content)
	if cmd.NewContent != nil {
		content, err = normalizeBlocks(cmd.NewContent)
		if err != nil {
			return CreateDraftResult{}, err
		}
	}

	now := uc.now()
	requestHash := hashRequest("management_change", cmd)
	if existing, found, err := uc.replay(ctx, cmd.IdempotencyKey, requestHash, now); err != nil {
		return CreateDraftResult{}, err
	} else if found {
		return CreateDraftResult{Proposal: existing, Replayed: true}, nil
	}

	proposalID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return CreateDraftResult{}, err
	}
	proposal := entities.Proposal{
		ID:                 proposalID,
		Title:              firstNonEmpty(cmd.Title, managementTitle(kind, original.Title)),
		Description:        firstNonEmpty(cmd.Description, original.Description),
		Category:           category,
		TargetTier:         original.TargetTier,
		AuthorID:           actorID,
		AuthorName:         strings.TrimSpace(cmd.ActorName),
		AuthorLevel:        cmd.ActorLevel,
		Status:             entities.ProposalStatusDraft,
		Content:            content,
		Votes:              entities.NewVotes(),
		OriginalProposalID: original.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.Proposals.CreateProposal(ctx, proposal); err != nil {
		return CreateDraftResult{}, err
	}
	if err := uc.remember(ctx, cmd.IdempotencyKey, requestHash, proposal.ID, now); err != nil {
		return CreateDraftResult{}, err
	}
	if err := uc.publishAll(ctx, now, pendingEvent{eventType: EventProposalCreated, proposal: proposal}); err != nil {
		return CreateDraftResult{}, err
	}

	logger.Info("proposal management change created",
		"event", "proposal_management_change_created",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposal.ID,
		"original_proposal_id", original.ID,
		"kind", string(kind),
		"actor_id", actorID,
	)
	return CreateDraftResult{Proposal: proposal}, nil
}

func managementTitle(kind entities.ManagementKind, originalTitle string) string {
	if kind == entities.ManagementKindDelete {
		return "Retract: " + originalTitle
	}
	return "Edit: " + originalTitle
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
