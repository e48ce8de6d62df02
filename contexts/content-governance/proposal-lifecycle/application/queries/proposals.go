package queries

import (
	"context"
	"strings"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
)

type ProposalQueries struct {
	Proposals ports.ProposalRepository
	Roster    ports.RosterReader
}

func (q ProposalQueries) GetProposal(ctx context.Context, proposalID string) (entities.Proposal, error) {
	proposalID = strings.TrimSpace(proposalID)
	if proposalID == "" {
		return entities.Proposal{}, domainerrors.ErrInvalidProposalInput
	}
	return q.Proposals.GetProposal(ctx, proposalID)
}

func (q ProposalQueries) ListProposals(ctx context.Context, filter ports.ProposalFilter) ([]entities.Proposal, error) {
	if filter.TargetTier != 0 && !entities.ValidTier(filter.TargetTier) {
		return nil, domainerrors.ErrInvalidTier
	}
	filter.AuthorID = strings.TrimSpace(filter.AuthorID)
	filter.OriginalProposalID = strings.TrimSpace(filter.OriginalProposalID)
	return q.Proposals.ListProposals(ctx, filter)
}

// GetTally derives the roster-wide vote display for a proposal. It is a read
// value only; status transitions never consult it.
func (q ProposalQueries) GetTally(ctx context.Context, proposalID string) (entities.VoteTally, error) {
	proposal, err := q.GetProposal(ctx, proposalID)
	if err != nil {
		return entities.VoteTally{}, err
	}
	var rosterIDs []string
	if q.Roster != nil {
		rosterIDs = q.Roster.ReviewerIDs()
	}
	return entities.NewVoteTally(proposal, rosterIDs), nil
}
