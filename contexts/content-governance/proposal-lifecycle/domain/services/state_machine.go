package services

import (
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
)

// VoteOutcome describes what ApplyVote did to a proposal.
type VoteOutcome struct {
	PreviousDecision entities.Decision
	HadPrevious      bool
	Transitioned     bool
}

// RequirePending returns the state error for any proposal that cannot take
// votes.
func RequirePending(proposal entities.Proposal) error {
	switch {
	case proposal.Status == entities.ProposalStatusPending:
		return nil
	case proposal.Status.Terminal():
		return domainerrors.ErrTerminal
	default:
		return domainerrors.ErrNotPending
	}
}

// ApplyVote records the decision and, for decisive reviewers, moves the
// proposal to the matching terminal status. Non-decisive votes never change
// status.
func ApplyVote(
	proposal entities.Proposal,
	reviewerID string,
	decision entities.Decision,
	decisive bool,
	now time.Time,
) (entities.Proposal, VoteOutcome, error) {
	if err := RequirePending(proposal); err != nil {
		return proposal, VoteOutcome{}, err
	}
	if !decision.Valid() {
		return proposal, VoteOutcome{}, domainerrors.ErrInvalidDecision
	}

	next := proposal.Clone()
	outcome := VoteOutcome{}
	outcome.PreviousDecision, outcome.HadPrevious = next.Votes.DecisionOf(reviewerID)
	next.Votes = next.Votes.Record(reviewerID, decision, now)
	next.UpdatedAt = now

	if !decisive {
		return next, outcome, nil
	}

	decidedAt := now
	next.DecidedByReviewerID = reviewerID
	if decision == entities.DecisionApprove {
		next.Status = entities.ProposalStatusApproved
		next.ApprovedAt = &decidedAt
		next.Distributable = next.Category.IsContent()
	} else {
		next.Status = entities.ProposalStatusRejected
		next.RejectedAt = &decidedAt
	}
	outcome.Transitioned = true
	return next, outcome, nil
}

// Submit moves a complete draft to pending.
func Submit(proposal entities.Proposal, actorID string, now time.Time) (entities.Proposal, error) {
	if proposal.Status != entities.ProposalStatusDraft {
		return proposal, domainerrors.ErrNotDraft
	}
	if !proposal.IsAuthoredBy(actorID) {
		return proposal, domainerrors.ErrNotAuthor
	}
	if len(proposal.MissingSubmitFields()) > 0 {
		return proposal, domainerrors.ErrMissingRequiredFields
	}
	next := proposal.Clone()
	submittedAt := now
	next.Status = entities.ProposalStatusPending
	next.SubmittedAt = &submittedAt
	next.UpdatedAt = now
	return next, nil
}

// CheckManageable verifies that original can still be the target of an edit
// or delete proposal.
func CheckManageable(original entities.Proposal) error {
	if original.Category.IsManagement() {
		return domainerrors.ErrOriginalIsManagement
	}
	if original.Status != entities.ProposalStatusApproved {
		return domainerrors.ErrOriginalNotApproved
	}
	if !original.Distributable || original.RetractedAt != nil {
		return domainerrors.ErrOriginalRetracted
	}
	return nil
}

// ApplyManagement lands an approved management proposal on its original:
// delete clears distribution eligibility and keeps the record, edit replaces
// the content and keeps id and eligibility.
func ApplyManagement(
	management entities.Proposal,
	original entities.Proposal,
	now time.Time,
) (entities.Proposal, error) {
	kind, ok := management.ManagementKind()
	if !ok {
		return original, domainerrors.ErrInvalidManagementKind
	}
	if err := CheckManageable(original); err != nil {
		return original, err
	}

	next := original.Clone()
	switch kind {
	case entities.ManagementKindDelete:
		retractedAt := now
		next.Distributable = false
		next.RetractedAt = &retractedAt
		next.RetractedByProposalID = management.ID
	case entities.ManagementKindEdit:
		next.Content = entities.SortBlocks(management.Content)
		next.LastEditProposalID = management.ID
	}
	next.UpdatedAt = now
	return next, nil
}
