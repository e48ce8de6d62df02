package ports

import (
	"context"

	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
)

// RosterSource loads the reviewer roster from configuration.
type RosterSource interface {
	LoadRoster(ctx context.Context) (entities.Roster, error)
}
