package queries

import (
	"context"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	"maestro/contexts/content-governance/reviewer-authority/domain/services"
)

// Directory exposes the loaded roster to other modules and the API.
type Directory struct {
	Resolver *services.Resolver
}

func (d Directory) IsRecognizedReviewer(email string) bool {
	return d.Resolver.IsRecognizedReviewer(email)
}

func (d Directory) HasDecisiveAuthority(email string) bool {
	return d.Resolver.HasDecisiveAuthority(email)
}

func (d Directory) ReviewerIDs() []string {
	return d.Resolver.ReviewerIDs()
}

func (d Directory) ListReviewers(_ context.Context) ([]entities.SystemUser, error) {
	return d.Resolver.Reviewers(), nil
}

// LookupReviewer maps a reviewer id to its roster entry; found=false for
// anyone not on the roster.
func (d Directory) LookupReviewer(_ context.Context, reviewerID string) (entities.SystemUser, bool, error) {
	reviewer, ok := d.Resolver.LookupByID(reviewerID)
	return reviewer, ok, nil
}
