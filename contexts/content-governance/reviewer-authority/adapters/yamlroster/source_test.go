package yamlroster

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	domainerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
)

func TestFileSourceLoadsRoster(t *testing.T) {
	roster, err := FileSource{Path: filepath.Join("testdata", "roster.yaml")}.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("load roster: %v", err)
	}
	if len(roster.Reviewers) != 3 {
		t.Fatalf("expected 3 reviewers, got %d", len(roster.Reviewers))
	}
	if roster.Reviewers[2].Tier != 5 || roster.Reviewers[2].Nickname != "caio" {
		t.Fatalf("unexpected reviewer: %+v", roster.Reviewers[2])
	}
	if len(roster.DecisiveEmails) != 1 || roster.DecisiveEmails[0] != "ana@maestro.dev" {
		t.Fatalf("unexpected decisive emails: %v", roster.DecisiveEmails)
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	_, err := FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}.LoadRoster(context.Background())
	if !errors.Is(err, domainerrors.ErrRosterSourceNotFound) {
		t.Fatalf("expected roster source not found, got %v", err)
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("reviewers: [")); !errors.Is(err, domainerrors.ErrInvalidRoster) {
		t.Fatalf("expected invalid roster, got %v", err)
	}
}
