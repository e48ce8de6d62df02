package reviewerauthority

import (
	"context"
	"log/slog"

	httpadapter "maestro/contexts/content-governance/reviewer-authority/adapters/http"
	yamlroster "maestro/contexts/content-governance/reviewer-authority/adapters/yamlroster"
	"maestro/contexts/content-governance/reviewer-authority/application/commands"
	"maestro/contexts/content-governance/reviewer-authority/application/queries"
	"maestro/contexts/content-governance/reviewer-authority/domain/entities"
	"maestro/contexts/content-governance/reviewer-authority/ports"
)

type Module struct {
	Handler   httpadapter.Handler
	Directory queries.Directory
}

type Dependencies struct {
	Source ports.RosterSource
	Logger *slog.Logger
}

// NewModule loads the roster once. Callers treat a load error as fatal for
// startup.
func NewModule(ctx context.Context, deps Dependencies) (Module, error) {
	resolver, err := commands.LoadRosterUseCase{
		Source: deps.Source,
		Logger: deps.Logger,
	}.Load(ctx)
	if err != nil {
		return Module{}, err
	}
	directory := queries.Directory{Resolver: resolver}
	return Module{
		Handler:   httpadapter.Handler{Directory: directory},
		Directory: directory,
	}, nil
}

func NewFileModule(ctx context.Context, path string, logger *slog.Logger) (Module, error) {
	return NewModule(ctx, Dependencies{
		Source: yamlroster.FileSource{Path: path},
		Logger: logger,
	})
}

// NewInMemoryModule builds the module from a roster value, mainly for tests.
func NewInMemoryModule(roster entities.Roster, logger *slog.Logger) (Module, error) {
	return NewModule(context.Background(), Dependencies{
		Source: yamlroster.StaticSource{Roster: roster},
		Logger: logger,
	})
}
