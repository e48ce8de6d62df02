package commands

import (
	"context"
	"log/slog"

	application "maestro/contexts/content-governance/reviewer-authority/application"
	"maestro/contexts/content-governance/reviewer-authority/domain/services"
	"maestro/contexts/content-governance/reviewer-authority/ports"
)

type LoadRosterUseCase struct {
	Source ports.RosterSource
	Logger *slog.Logger
}

// Load reads the roster and builds a resolver. A roster that violates the
// decisive-subset rule is rejected as a whole.
func (uc LoadRosterUseCase) Load(ctx context.Context) (*services.Resolver, error) {
	logger := application.ResolveLogger(uc.Logger)
	roster, err := uc.Source.LoadRoster(ctx)
	if err != nil {
		logger.Error("reviewer roster load failed",
			"event", "reviewer_roster_load_failed",
			"module", "content-governance/reviewer-authority",
			"layer", "application",
			"error", err.Error(),
		)
		return nil, err
	}
	resolver, err := services.NewResolver(roster)
	if err != nil {
		logger.Error("reviewer roster rejected",
			"event", "reviewer_roster_invalid",
			"module", "content-governance/reviewer-authority",
			"layer", "application",
			"reviewer_count", len(roster.Reviewers),
			"error", err.Error(),
		)
		return nil, err
	}
	logger.Info("reviewer roster loaded",
		"event", "reviewer_roster_loaded",
		"module", "content-governance/reviewer-authority",
		"layer", "application",
		"reviewer_count", resolver.RosterSize(),
		"decisive_count", len(roster.DecisiveEmails),
	)
	return resolver, nil
}
