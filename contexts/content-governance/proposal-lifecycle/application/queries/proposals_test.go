package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/adapters/memory"
	"maestro/contexts/content-governance/proposal-lifecycle/application/queries"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
)

type fixedRoster []string

func (r fixedRoster) ReviewerIDs() []string { return r }

func TestGetTallyIsDerivedFromRoster(t *testing.T) {
	now := time.Now().UTC()
	store := memory.NewStore([]entities.Proposal{{
		ID:         "p1",
		Category:   entities.CategoryTheoretical,
		TargetTier: 1,
		Status:     entities.ProposalStatusApproved,
		Votes: entities.NewVotes().
			Record("r1", entities.DecisionReject, now).
			Record("d1", entities.DecisionApprove, now),
		CreatedAt: now,
	}})
	q := queries.ProposalQueries{Proposals: store, Roster: fixedRoster{"r1", "r2", "r3", "d1"}}

	tally, err := q.GetTally(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get tally: %v", err)
	}
	if tally.RosterSize != 4 || tally.Approvals != 1 || tally.Rejections != 1 || tally.Pending != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.ApprovedPct != 25 || tally.PendingPct != 50 {
		t.Fatalf("unexpected percentages: %+v", tally)
	}
	if tally.Status != entities.ProposalStatusApproved {
		t.Fatalf("tally must report the stored status regardless of counts")
	}
}

func TestListProposalsRejectsInvalidTier(t *testing.T) {
	q := queries.ProposalQueries{Proposals: memory.NewStore(nil)}
	if _, err := q.ListProposals(context.Background(), ports.ProposalFilter{TargetTier: 9}); !errors.Is(err, domainerrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := q.GetProposal(context.Background(), "nope"); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
