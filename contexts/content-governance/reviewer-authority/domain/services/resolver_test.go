package services

import (
	"errors"
	"testing"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	domainerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
)

func testRoster() entities.Roster {
	return entities.Roster{
		Reviewers: []entities.SystemUser{
			{ID: "maestro-2", Email: "Bruno@Maestro.dev", Nickname: "bruno", Tier: 6},
			{ID: "maestro-1", Email: "ana@maestro.dev", Nickname: "ana", Tier: 6},
			{ID: "maestro-3", Email: "caio@maestro.dev", Nickname: "caio", Tier: 5},
		},
		DecisiveEmails: []string{" ANA@maestro.dev "},
	}
}

func TestResolverAnswersCaseInsensitively(t *testing.T) {
	resolver, err := NewResolver(testRoster())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	if !resolver.IsRecognizedReviewer("bruno@maestro.DEV") {
		t.Fatalf("expected bruno to be recognized")
	}
	if resolver.HasDecisiveAuthority("bruno@maestro.dev") {
		t.Fatalf("bruno must not be decisive")
	}
	if !resolver.HasDecisiveAuthority("Ana@Maestro.dev") {
		t.Fatalf("expected ana to be decisive")
	}
	if resolver.IsRecognizedReviewer("visitor@maestro.dev") || resolver.HasDecisiveAuthority("") {
		t.Fatalf("unknown emails must not be reviewers")
	}
}

func TestResolverOrdersReviewersByID(t *testing.T) {
	resolver, err := NewResolver(testRoster())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	ids := resolver.ReviewerIDs()
	if len(ids) != 3 || ids[0] != "maestro-1" || ids[2] != "maestro-3" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	if resolver.RosterSize() != 3 {
		t.Fatalf("expected roster size 3, got %d", resolver.RosterSize())
	}
	ana, ok := resolver.LookupByID("maestro-1")
	if !ok || !ana.DecisiveAuthority || ana.Email != "ana@maestro.dev" {
		t.Fatalf("unexpected lookup result: %+v ok=%v", ana, ok)
	}
	if _, ok := resolver.LookupByID("nobody"); ok {
		t.Fatalf("expected unknown id lookup to miss")
	}
}

func TestResolverRejectsDecisiveOutsideRoster(t *testing.T) {
	roster := testRoster()
	roster.DecisiveEmails = append(roster.DecisiveEmails, "ghost@maestro.dev")
	if _, err := NewResolver(roster); !errors.Is(err, domainerrors.ErrDecisiveNotReviewer) {
		t.Fatalf("expected decisive-not-reviewer error, got %v", err)
	}
}

func TestResolverRejectsDuplicates(t *testing.T) {
	roster := testRoster()
	roster.Reviewers = append(roster.Reviewers, entities.SystemUser{ID: "maestro-9", Email: "ANA@maestro.dev"})
	if _, err := NewResolver(roster); !errors.Is(err, domainerrors.ErrDuplicateReviewer) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}

	roster = testRoster()
	roster.Reviewers = append(roster.Reviewers, entities.SystemUser{ID: "maestro-1", Email: "other@maestro.dev"})
	if _, err := NewResolver(roster); !errors.Is(err, domainerrors.ErrDuplicateReviewer) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestNilResolverKnowsNobody(t *testing.T) {
	var resolver *Resolver
	if resolver.IsRecognizedReviewer("ana@maestro.dev") || resolver.RosterSize() != 0 || resolver.ReviewerIDs() != nil {
		t.Fatalf("nil resolver must answer negatively")
	}
}
