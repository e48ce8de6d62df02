package services

import (
	"errors"
	"testing"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
)

var testNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func pendingProposal() entities.Proposal {
	return entities.Proposal{
		ID:          "p1",
		Title:       "Fibonacci Basics",
		Description: "Sequences",
		Category:    entities.CategoryTheoretical,
		TargetTier:  1,
		AuthorID:    "author-a",
		Status:      entities.ProposalStatusPending,
		Content:     []entities.ContentBlock{{ID: "b1", Type: entities.BlockTypeText, Order: 0}},
		Votes:       entities.NewVotes(),
	}
}

func TestApplyVoteNonDecisiveNeverChangesStatus(t *testing.T) {
	next, outcome, err := ApplyVote(pendingProposal(), "reviewer-r", entities.DecisionReject, false, testNow)
	if err != nil {
		t.Fatalf("apply vote: %v", err)
	}
	if next.Status != entities.ProposalStatusPending || outcome.Transitioned {
		t.Fatalf("non-decisive vote changed status to %s", next.Status)
	}
	if _, ok := next.Votes.Rejections["reviewer-r"]; !ok {
		t.Fatalf("expected rejection recorded")
	}
}

func TestApplyVoteDecisiveTransitions(t *testing.T) {
	approved, outcome, err := ApplyVote(pendingProposal(), "reviewer-d", entities.DecisionApprove, true, testNow)
	if err != nil {
		t.Fatalf("apply decisive approve: %v", err)
	}
	if approved.Status != entities.ProposalStatusApproved || !outcome.Transitioned {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if approved.ApprovedAt == nil || !approved.ApprovedAt.Equal(testNow) || !approved.Distributable {
		t.Fatalf("expected approval stamp and distribution eligibility: %+v", approved)
	}

	rejected, _, err := ApplyVote(pendingProposal(), "reviewer-d", entities.DecisionReject, true, testNow)
	if err != nil {
		t.Fatalf("apply decisive reject: %v", err)
	}
	if rejected.Status != entities.ProposalStatusRejected || rejected.RejectedAt == nil || rejected.Distributable {
		t.Fatalf("expected rejected without eligibility: %+v", rejected)
	}
}

func TestApplyVoteAfterTerminalFailsAndLeavesVotes(t *testing.T) {
	approved, _, err := ApplyVote(pendingProposal(), "reviewer-d", entities.DecisionApprove, true, testNow)
	if err != nil {
		t.Fatalf("apply decisive approve: %v", err)
	}
	next, _, err := ApplyVote(approved, "reviewer-d", entities.DecisionReject, true, testNow)
	if !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	if decision, _ := next.Votes.DecisionOf("reviewer-d"); decision != entities.DecisionApprove {
		t.Fatalf("votes changed after terminal: %+v", next.Votes)
	}
}

func TestApplyVoteOnDraftFails(t *testing.T) {
	draft := pendingProposal()
	draft.Status = entities.ProposalStatusDraft
	if _, _, err := ApplyVote(draft, "reviewer-d", entities.DecisionApprove, true, testNow); !errors.Is(err, domainerrors.ErrNotPending) {
		t.Fatalf("expected not pending, got %v", err)
	}
}

func TestSubmitChecksStateThenAuthorThenFields(t *testing.T) {
	pending := pendingProposal()
	if _, err := Submit(pending, "author-a", testNow); !errors.Is(err, domainerrors.ErrInvalidState) {
		t.Fatalf("expected invalid state for pending, got %v", err)
	}

	draft := pendingProposal()
	draft.Status = entities.ProposalStatusDraft
	if _, err := Submit(draft, "someone-else", testNow); !errors.Is(err, domainerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	incomplete := draft
	incomplete.Content = nil
	if _, err := Submit(incomplete, "author-a", testNow); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	submitted, err := Submit(draft, "author-a", testNow)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != entities.ProposalStatusPending || submitted.SubmittedAt == nil {
		t.Fatalf("expected pending with submit stamp: %+v", submitted)
	}
}

func TestApplyManagementDeleteAndEdit(t *testing.T) {
	original, _, err := ApplyVote(pendingProposal(), "reviewer-d", entities.DecisionApprove, true, testNow)
	if err != nil {
		t.Fatalf("approve original: %v", err)
	}

	retract := entities.Proposal{ID: "m1", Category: entities.CategoryDeleteApprovedContent}
	retracted, err := ApplyManagement(retract, original, testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("apply delete: %v", err)
	}
	if retracted.Distributable || retracted.RetractedAt == nil || retracted.RetractedByProposalID != "m1" {
		t.Fatalf("expected retraction: %+v", retracted)
	}
	if retracted.Status != entities.ProposalStatusApproved || retracted.ID != original.ID {
		t.Fatalf("retraction must keep the record: %+v", retracted)
	}
	if _, err := ApplyManagement(retract, retracted, testNow); !errors.Is(err, domainerrors.ErrOriginalRetracted) {
		t.Fatalf("expected retracted original to be unmanageable, got %v", err)
	}

	edit := entities.Proposal{
		ID:       "m2",
		Category: entities.CategoryEditApprovedContent,
		Content: []entities.ContentBlock{
			{ID: "n2", Type: entities.BlockTypeCode, Order: 2},
			{ID: "n1", Type: entities.BlockTypeText, Order: 1},
		},
	}
	edited, err := ApplyManagement(edit, original, testNow.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("apply edit: %v", err)
	}
	if !edited.Distributable || edited.ID != original.ID || edited.TargetTier != original.TargetTier {
		t.Fatalf("edit must keep id and eligibility: %+v", edited)
	}
	if len(edited.Content) != 2 || edited.Content[0].ID != "n1" || edited.LastEditProposalID != "m2" {
		t.Fatalf("unexpected edited content: %+v", edited.Content)
	}
	if !edited.UpdatedAt.Equal(testNow.Add(2 * time.Hour)) {
		t.Fatalf("expected fresh updated_at, got %s", edited.UpdatedAt)
	}
}
