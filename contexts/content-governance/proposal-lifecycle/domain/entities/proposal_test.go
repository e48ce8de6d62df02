package entities

import (
	"testing"
	"time"
)

func TestVotesRecordKeepsReviewerInOneSet(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	votes := NewVotes().Record("reviewer-1", DecisionApprove, at)
	votes = votes.Record("reviewer-1", DecisionReject, at.Add(time.Minute))

	if _, ok := votes.Approvals["reviewer-1"]; ok {
		t.Fatalf("reviewer must leave approvals after switching")
	}
	if decision, ok := votes.DecisionOf("reviewer-1"); !ok || decision != DecisionReject {
		t.Fatalf("expected reject, got %q (%v)", decision, ok)
	}

	again := votes.Record("reviewer-1", DecisionReject, at.Add(2*time.Minute))
	if len(again.Rejections) != 1 || len(again.Approvals) != 0 {
		t.Fatalf("re-vote must not duplicate: %+v", again)
	}
	if len(votes.Rejections) != 1 {
		t.Fatalf("record must not mutate the receiver")
	}
}

func TestVoteTallyCountsRosterOnly(t *testing.T) {
	at := time.Now().UTC()
	proposal := Proposal{
		ID:     "p1",
		Status: ProposalStatusPending,
		Votes: NewVotes().
			Record("r1", DecisionApprove, at).
			Record("r2", DecisionReject, at).
			Record("former", DecisionApprove, at),
	}
	tally := NewVoteTally(proposal, []string{"r1", "r2", "r3"})
	if tally.Approvals != 1 || tally.Rejections != 1 || tally.Pending != 1 {
		t.Fatalf("unexpected counts: %+v", tally)
	}
	if tally.ApprovedPct != 33.33 || tally.PendingPct != 33.33 {
		t.Fatalf("unexpected percentages: %+v", tally)
	}
	if tally.Unanimous {
		t.Fatalf("tally must not be unanimous")
	}

	empty := NewVoteTally(proposal, nil)
	if empty.RosterSize != 0 || empty.Unanimous || empty.ApprovedPct != 0 {
		t.Fatalf("empty roster tally must be zero: %+v", empty)
	}
}

func TestMissingSubmitFields(t *testing.T) {
	proposal := Proposal{Title: "Fibonacci Basics"}
	missing := proposal.MissingSubmitFields()
	if len(missing) != 2 || missing[0] != "description" || missing[1] != "content" {
		t.Fatalf("unexpected missing fields: %v", missing)
	}
}
