package bootstrap

import (
	"context"
	"encoding/json"
	"errors"

	distributionentities "maestro/contexts/content-governance/content-distribution/domain/entities"
	distributionerrors "maestro/contexts/content-governance/content-distribution/domain/errors"
	distributionservices "maestro/contexts/content-governance/content-distribution/domain/services"
	distributionports "maestro/contexts/content-governance/content-distribution/ports"
	lifecyclequeries "maestro/contexts/content-governance/proposal-lifecycle/application/queries"
	lifecycleentities "maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	lifecycleerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	lifecycleports "maestro/contexts/content-governance/proposal-lifecycle/ports"
	reviewerqueries "maestro/contexts/content-governance/reviewer-authority/application/queries"
)

// reviewerDirectory adapts the reviewer-authority directory to the ports the
// proposal lifecycle depends on. Modules never import each other, so the
// translation lives in the composition root.
type reviewerDirectory struct {
	reviewerqueries.Directory
}

func (d reviewerDirectory) LookupIdentity(ctx context.Context, actorID string) (lifecycleports.Identity, bool, error) {
	user, found, err := d.LookupReviewer(ctx, actorID)
	if err != nil || !found {
		return lifecycleports.Identity{}, found, err
	}
	return lifecycleports.Identity{ID: user.ID, Email: user.Email}, true, nil
}

// eventBus is satisfied by both the in-process and the redis bus.
type eventBus interface {
	lifecycleports.EventPublisher
	distributionports.EventSubscriber
}

// lifecycleSource serves the distributor straight from the lifecycle queries
// when both modules share one process and its memory store. Reads see every
// approval as soon as the vote returns.
type lifecycleSource struct {
	queries lifecyclequeries.ProposalQueries
}

func (s lifecycleSource) ListPublished(
	ctx context.Context,
	tier int,
	category distributionentities.Category,
) ([]distributionentities.PublishedContent, error) {
	proposals, err := s.queries.ListProposals(ctx, lifecycleports.ProposalFilter{
		Status:     lifecycleentities.ProposalStatusApproved,
		TargetTier: tier,
		Category:   lifecycleentities.Category(category),
	})
	if err != nil {
		return nil, err
	}
	items := make([]distributionentities.PublishedContent, 0, len(proposals))
	for _, proposal := range proposals {
		content, err := publishedFromProposal(proposal)
		if err != nil {
			return nil, err
		}
		items = append(items, content)
	}
	return items, nil
}

func (s lifecycleSource) GetPublished(ctx context.Context, proposalID string) (distributionentities.PublishedContent, error) {
	proposal, err := s.queries.GetProposal(ctx, proposalID)
	if errors.Is(err, lifecycleerrors.ErrNotFound) {
		return distributionentities.PublishedContent{}, distributionerrors.ErrContentNotFound
	}
	if err != nil {
		return distributionentities.PublishedContent{}, err
	}
	return publishedFromProposal(proposal)
}

// publishedFromProposal goes through the stored block encoding so blocks
// flatten exactly as they do when read from the database or an event.
func publishedFromProposal(proposal lifecycleentities.Proposal) (distributionentities.PublishedContent, error) {
	raw, err := json.Marshal(lifecycleentities.SortBlocks(proposal.Content))
	if err != nil {
		return distributionentities.PublishedContent{}, err
	}
	blocks, err := distributionservices.DecodeBlocks(raw)
	if err != nil {
		return distributionentities.PublishedContent{}, err
	}
	content := distributionentities.PublishedContent{
		ProposalID:    proposal.ID,
		Title:         proposal.Title,
		Description:   proposal.Description,
		Category:      distributionentities.NormalizeCategory(string(proposal.Category)),
		TargetTier:    proposal.TargetTier,
		AuthorName:    proposal.AuthorName,
		Featured:      proposal.Featured,
		SortIndex:     proposal.SortIndex,
		Distributable: proposal.Distributable && proposal.RetractedAt == nil,
		UpdatedAt:     proposal.UpdatedAt.UTC(),
		Revision:      proposal.Revision,
		Blocks:        blocks,
	}
	if proposal.ApprovedAt != nil {
		content.ApprovedAt = proposal.ApprovedAt.UTC()
	}
	return content, nil
}

var (
	_ distributionports.ContentSource  = lifecycleSource{}
	_ lifecycleports.AuthorityResolver = reviewerDirectory{}
	_ lifecycleports.IdentityDirectory = reviewerDirectory{}
	_ lifecycleports.RosterReader      = reviewerDirectory{}
)
