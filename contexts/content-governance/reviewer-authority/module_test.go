package reviewerauthority

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	domainerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
)

func TestFileModuleListsReviewers(t *testing.T) {
	module, err := NewFileModule(context.Background(), filepath.Join("adapters", "yamlroster", "testdata", "roster.yaml"), nil)
	if err != nil {
		t.Fatalf("new file module: %v", err)
	}
	resp, err := module.Handler.ListReviewersHandler(context.Background())
	if err != nil {
		t.Fatalf("list reviewers: %v", err)
	}
	if resp.RosterSize != 3 || len(resp.Items) != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Items[0].ReviewerID != "maestro-1" || !resp.Items[0].DecisiveAuthority {
		t.Fatalf("expected decisive ana first, got %+v", resp.Items[0])
	}
	if resp.Items[1].DecisiveAuthority {
		t.Fatalf("bruno must not be decisive")
	}
}

func TestInMemoryModuleRejectsInvalidRoster(t *testing.T) {
	_, err := NewInMemoryModule(entities.Roster{
		Reviewers:      []entities.SystemUser{{ID: "maestro-1", Email: "ana@maestro.dev"}},
		DecisiveEmails: []string{"bruno@maestro.dev"},
	}, nil)
	if !errors.Is(err, domainerrors.ErrDecisiveNotReviewer) {
		t.Fatalf("expected decisive-not-reviewer, got %v", err)
	}
}

func TestDirectoryLookupReviewer(t *testing.T) {
	module, err := NewInMemoryModule(entities.Roster{
		Reviewers: []entities.SystemUser{{ID: "maestro-1", Email: "ana@maestro.dev"}},
	}, nil)
	if err != nil {
		t.Fatalf("new module: %v", err)
	}
	reviewer, found, err := module.Directory.LookupReviewer(context.Background(), "maestro-1")
	if err != nil || !found || reviewer.Email != "ana@maestro.dev" {
		t.Fatalf("unexpected lookup: %+v found=%v err=%v", reviewer, found, err)
	}
	if _, found, _ := module.Directory.LookupReviewer(context.Background(), "visitor"); found {
		t.Fatalf("visitor must not be found")
	}
}
