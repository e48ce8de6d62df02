package commands

import (
	"context"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/services"
)

type SubmitProposalCommand struct {
	ProposalID string
	ActorID    string
}

type DeleteProposalCommand struct {
	ProposalID string
	ActorID    string
}

// SubmitProposal moves the author's draft to pending. From here on only the
// vote sets change until a decisive vote ends the lifecycle.
func (uc LifecycleUseCase) SubmitProposal(ctx context.Context, cmd SubmitProposalCommand) (entities.Proposal, error) {
	logger := uc.logger()
	proposalID := strings.TrimSpace(cmd.ProposalID)
	actorID := strings.TrimSpace(cmd.ActorID)
	logger.Info("proposal submit started",
		"event", "proposal_submit_started",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"actor_id", actorID,
	)
	if proposalID == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}

	now := uc.now()
	submitted, err := uc.Proposals.UpdateProposal(ctx, proposalID, func(current entities.Proposal) (entities.Proposal, error) {
		return services.Submit(current, actorID, now)
	})
	if err != nil {
		uc.logFailure(logger, "proposal_submit_failed", err,
			"proposal_id", proposalID,
			"actor_id", actorID,
		)
		return entities.Proposal{}, err
	}
	if err := uc.publishAll(ctx, now, pendingEvent{eventType: EventProposalSubmitted, proposal: submitted}); err != nil {
		return entities.Proposal{}, err
	}
	logger.Info("proposal submitted",
		"event", "proposal_submitted",
		"module", moduleName,
		"layer", "application",
		"proposal_id", submitted.ID,
		"actor_id", actorID,
		"category", string(submitted.Category),
	)
	return submitted, nil
}

// DeleteProposal removes a draft or pending proposal. Approved and rejected
// proposals are kept for audit; retraction goes through a management proposal.
func (uc LifecycleUseCase) DeleteProposal(ctx context.Context, cmd DeleteProposalCommand) error {
	logger := uc.logger()
	proposalID := strings.TrimSpace(cmd.ProposalID)
	actorID := strings.TrimSpace(cmd.ActorID)
	if proposalID == "" {
		return domainerrors.ErrInvalidProposalInput
	}

	proposal, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	if proposal.Status.Terminal() {
		uc.logFailure(logger, "proposal_delete_rejected", domainerrors.ErrTerminal,
			"proposal_id", proposalID,
			"status", string(proposal.Status),
		)
		return domainerrors.ErrTerminal
	}
	if !proposal.IsAuthoredBy(actorID) {
		uc.logFailure(logger, "proposal_delete_rejected", domainerrors.ErrNotAuthor,
			"proposal_id", proposalID,
			"actor_id", actorID,
		)
		return domainerrors.ErrNotAuthor
	}
	// The store re-checks the terminal status under its own lock.
	if err := uc.Proposals.DeleteProposal(ctx, proposalID); err != nil {
		uc.logFailure(logger, "proposal_delete_failed", err, "proposal_id", proposalID)
		return err
	}

	now := uc.now()
	if err := uc.publishAll(ctx, now, pendingEvent{
		eventType: EventProposalDeleted,
		proposal:  proposal,
		extra:     map[string]any{"deleted_by": actorID},
	}); err != nil {
		return err
	}
	logger.Info("proposal deleted",
		"event", "proposal_deleted",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"actor_id", actorID,
		"status", string(proposal.Status),
	)
	return nil
}
