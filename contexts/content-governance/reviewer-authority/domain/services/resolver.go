package services

import (
	"fmt"
	"sort"
	"strings"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	domainerrors "maestro/contexts/content-governance/reviewer-authority/domain/errors"
)

// Resolver answers authority questions against an immutable roster. All
// lookups are single map reads.
type Resolver struct {
	byEmail  map[string]entities.SystemUser
	byID     map[string]entities.SystemUser
	decisive map[string]struct{}
	ordered  []entities.SystemUser
}

// NewResolver validates the roster: ids and emails are unique and every
// decisive email belongs to a reviewer on the roster.
func NewResolver(roster entities.Roster) (*Resolver, error) {
	resolver := &Resolver{
		byEmail:  make(map[string]entities.SystemUser, len(roster.Reviewers)),
		byID:     make(map[string]entities.SystemUser, len(roster.Reviewers)),
		decisive: make(map[string]struct{}, len(roster.DecisiveEmails)),
	}
	for _, raw := range roster.DecisiveEmails {
		email := entities.NormalizeEmail(raw)
		if email == "" {
			return nil, fmt.Errorf("%w: blank decisive email", domainerrors.ErrInvalidRoster)
		}
		resolver.decisive[email] = struct{}{}
	}

	for _, reviewer := range roster.Reviewers {
		reviewer.ID = strings.TrimSpace(reviewer.ID)
		reviewer.Email = entities.NormalizeEmail(reviewer.Email)
		reviewer.Nickname = strings.TrimSpace(reviewer.Nickname)
		if reviewer.ID == "" || reviewer.Email == "" {
			return nil, fmt.Errorf("%w: reviewer id and email are required", domainerrors.ErrInvalidRoster)
		}
		if _, exists := resolver.byID[reviewer.ID]; exists {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrDuplicateReviewer, reviewer.ID)
		}
		if _, exists := resolver.byEmail[reviewer.Email]; exists {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrDuplicateReviewer, reviewer.Email)
		}
		_, reviewer.DecisiveAuthority = resolver.decisive[reviewer.Email]
		resolver.byID[reviewer.ID] = reviewer
		resolver.byEmail[reviewer.Email] = reviewer
		resolver.ordered = append(resolver.ordered, reviewer)
	}

	for email := range resolver.decisive {
		if _, ok := resolver.byEmail[email]; !ok {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrDecisiveNotReviewer, email)
		}
	}
	sort.Slice(resolver.ordered, func(i, j int) bool {
		return resolver.ordered[i].ID < resolver.ordered[j].ID
	})
	return resolver, nil
}

func (r *Resolver) IsRecognizedReviewer(email string) bool {
	if r == nil {
		return false
	}
	_, ok := r.byEmail[entities.NormalizeEmail(email)]
	return ok
}

func (r *Resolver) HasDecisiveAuthority(email string) bool {
	if r == nil {
		return false
	}
	_, ok := r.decisive[entities.NormalizeEmail(email)]
	return ok
}

func (r *Resolver) LookupByID(reviewerID string) (entities.SystemUser, bool) {
	if r == nil {
		return entities.SystemUser{}, false
	}
	reviewer, ok := r.byID[strings.TrimSpace(reviewerID)]
	return reviewer, ok
}

// Reviewers returns the roster ordered by id.
func (r *Resolver) Reviewers() []entities.SystemUser {
	if r == nil {
		return nil
	}
	return append([]entities.SystemUser(nil), r.ordered...)
}

func (r *Resolver) ReviewerIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.ordered))
	for _, reviewer := range r.ordered {
		ids = append(ids, reviewer.ID)
	}
	return ids
}

func (r *Resolver) RosterSize() int {
	if r == nil {
		return 0
	}
	return len(r.ordered)
}
