package commands

import (
	"context"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/services"
)

type CastVoteCommand struct {
	ProposalID string
	ReviewerID string
	Decision   entities.Decision
}

// CastVoteResult reports the stored proposal and whether this vote was the
// one that ended its lifecycle. Original is set when an approved management
// proposal was applied to its original; it stays nil when the original had
// already been retracted by the time of the decision.
type CastVoteResult struct {
	Proposal     entities.Proposal
	Transitioned bool
	Decisive     bool
	Original     *entities.Proposal
}

// CastVote records a reviewer decision. A decisive reviewer's vote moves the
// proposal to the matching terminal status regardless of the other votes;
// everyone else's vote is recorded for the tally only.
//
// The decision is applied inside the store's revision-checked update, so two
// concurrent decisive votes cannot both transition the proposal: the loser is
// re-evaluated against the terminal record and fails with an invalid-state
// error, leaving the votes untouched.
func (uc LifecycleUseCase) CastVote(ctx context.Context, cmd CastVoteCommand) (CastVoteResult, error) {
	logger := uc.logger()
	proposalID := strings.TrimSpace(cmd.ProposalID)
	reviewerID := strings.TrimSpace(cmd.ReviewerID)
	decision := entities.Decision(strings.ToLower(strings.TrimSpace(string(cmd.Decision))))
	logger.Info("proposal vote started",
		"event", "proposal_vote_started",
		"module", moduleName,
		"layer", "application",
		"proposal_id", proposalID,
		"reviewer_id", reviewerID,
		"decision", string(decision),
	)
	if proposalID == "" || reviewerID == "" {
		return CastVoteResult{}, domainerrors.ErrInvalidProposalInput
	}
	if !decision.Valid() {
		uc.logFailure(logger, "proposal_vote_validation_failed", domainerrors.ErrInvalidDecision,
			"proposal_id", proposalID,
			"reviewer_id", reviewerID,
		)
		return CastVoteResult{}, domainerrors.ErrInvalidDecision
	}

	current, err := uc.Proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if err := services.RequirePending(current); err != nil {
		uc.logFailure(logger, "proposal_vote_invalid_state", err,
			"proposal_id", proposalID,
			"reviewer_id", reviewerID,
			"status", string(current.Status),
		)
		return CastVoteResult{}, err
	}

	email, err := uc.lookupEmail(ctx, reviewerID)
	if err != nil {
		return CastVoteResult{}, err
	}
	if email == "" || uc.Authority == nil || !uc.Authority.IsRecognizedReviewer(email) {
		uc.logFailure(logger, "proposal_vote_unauthorized", domainerrors.ErrReviewerNotRecognized,
			"proposal_id", proposalID,
			"reviewer_id", reviewerID,
		)
		return CastVoteResult{}, domainerrors.ErrReviewerNotRecognized
	}
	decisive := uc.Authority.HasDecisiveAuthority(email)

	now := uc.now()
	var outcome services.VoteOutcome
	vote := func(proposal entities.Proposal) (entities.Proposal, error) {
		next, result, err := services.ApplyVote(proposal, reviewerID, decision, decisive, now)
		if err != nil {
			return proposal, err
		}
		outcome = result
		return next, nil
	}

	result := CastVoteResult{Decisive: decisive}
	appliesToOriginal := decisive &&
		decision == entities.DecisionApprove &&
		current.Category.IsManagement() &&
		strings.TrimSpace(current.OriginalProposalID) != ""

	if appliesToOriginal {
		stale := false
		proposal, original, err := uc.Proposals.UpdateLinkedProposals(ctx, proposalID, current.OriginalProposalID,
			func(management entities.Proposal, original entities.Proposal) (entities.Proposal, entities.Proposal, error) {
				next, err := vote(management)
				if err != nil {
					return management, original, err
				}
				// An earlier management decision may have retracted the
				// original. The approval still stands but has nothing to land on.
				stale = services.CheckManageable(original) != nil
				if stale {
					return next, original, nil
				}
				applied, err := services.ApplyManagement(next, original, now)
				if err != nil {
					return management, original, err
				}
				return next, applied, nil
			},
		)
		if err != nil {
			uc.logFailure(logger, "proposal_vote_failed", err,
				"proposal_id", proposalID,
				"reviewer_id", reviewerID,
				"original_proposal_id", current.OriginalProposalID,
			)
			return CastVoteResult{}, err
		}
		result.Proposal = proposal
		if stale {
			logger.Warn("management proposal approved against unmanageable original",
				"event", "proposal_management_target_stale",
				"module", moduleName,
				"layer", "application",
				"proposal_id", proposalID,
				"original_proposal_id", current.OriginalProposalID,
			)
		} else {
			result.Original = &original
		}
	} else {
		proposal, err := uc.Proposals.UpdateProposal(ctx, proposalID, vote)
		if err != nil {
			uc.logFailure(logger, "proposal_vote_failed", err,
				"proposal_id", proposalID,
				"reviewer_id", reviewerID,
			)
			return CastVoteResult{}, err
		}
		result.Proposal = proposal
	}
	result.Transitioned = outcome.Transitioned

	if err := uc.publishAll(ctx, now, voteEvents(result, reviewerID, decision, outcome)...); err != nil {
		return CastVoteResult{}, err
	}

	logger.Info("proposal vote recorded",
		"event", "proposal_vote_recorded",
		"module", moduleName,
		"layer", "application",
		"proposal_id", result.Proposal.ID,
		"reviewer_id", reviewerID,
		"decision", string(decision),
		"decisive", decisive,
		"vote_switched", outcome.HadPrevious && outcome.PreviousDecision != decision,
		"status", string(result.Proposal.Status),
	)
	if result.Transitioned {
		logger.Info("proposal decided",
			"event", "proposal_decided",
			"module", moduleName,
			"layer", "application",
			"proposal_id", result.Proposal.ID,
			"status", string(result.Proposal.Status),
			"decided_by", reviewerID,
		)
	}
	return result, nil
}

func voteEvents(
	result CastVoteResult,
	reviewerID string,
	decision entities.Decision,
	outcome services.VoteOutcome,
) []pendingEvent {
	voteExtra := map[string]any{
		"reviewer_id": reviewerID,
		"decision":    string(decision),
		"decisive":    result.Decisive,
	}
	if outcome.HadPrevious {
		voteExtra["previous_decision"] = string(outcome.PreviousDecision)
	}
	events := []pendingEvent{{
		eventType: EventProposalVoteRecorded,
		proposal:  result.Proposal,
		extra:     voteExtra,
	}}
	if !result.Transitioned {
		return events
	}

	decidedExtra := map[string]any{"decided_by": reviewerID}
	if result.Proposal.Status == entities.ProposalStatusApproved {
		events = append(events, pendingEvent{
			eventType: EventProposalApproved,
			proposal:  result.Proposal,
			extra:     decidedExtra,
		})
	} else {
		events = append(events, pendingEvent{
			eventType: EventProposalRejected,
			proposal:  result.Proposal,
			extra:     decidedExtra,
		})
	}

	if result.Original == nil {
		return events
	}
	managementExtra := map[string]any{
		"management_proposal_id": result.Proposal.ID,
		"decided_by":             reviewerID,
	}
	if kind, _ := result.Proposal.ManagementKind(); kind == entities.ManagementKindDelete {
		events = append(events, pendingEvent{
			eventType: EventProposalRetracted,
			proposal:  *result.Original,
			extra:     managementExtra,
		})
	} else {
		events = append(events, pendingEvent{
			eventType: EventProposalContentReplaced,
			proposal:  *result.Original,
			extra:     managementExtra,
		})
	}
	return events
}
