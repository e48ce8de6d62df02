package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/application/commands"
	"maestro/contexts/content-governance/proposal-lifecycle/application/queries"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
	httptransport "maestro/contexts/content-governance/proposal-lifecycle/transport/http"
)

type Handler struct {
	Lifecycle commands.LifecycleUseCase
	Queries   queries.ProposalQueries
	Logger    *slog.Logger
}

func (h Handler) CreateProposalHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	req httptransport.CreateProposalRequest,
) (httptransport.ProposalResponse, error) {
	content, err := blocksFromDTO(req.Content)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	result, err := h.Lifecycle.CreateDraft(ctx, commands.CreateDraftCommand{
		AuthorID:       userID,
		AuthorName:     req.AuthorName,
		AuthorLevel:    req.AuthorLevel,
		Title:          req.Title,
		Description:    req.Description,
		Category:       entities.Category(req.Category),
		TargetTier:     req.TargetTier,
		Content:        content,
		Featured:       req.Featured,
		SortIndex:      req.SortIndex,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	resp := mapProposal(result.Proposal)
	resp.Replayed = result.Replayed
	return resp, nil
}

func (h Handler) UpdateProposalHandler(
	ctx context.Context,
	userID string,
	proposalID string,
	req httptransport.UpdateProposalRequest,
) (httptransport.ProposalResponse, error) {
	cmd := commands.UpdateDraftCommand{
		ProposalID:  proposalID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		TargetTier:  req.TargetTier,
		Featured:    req.Featured,
		SortIndex:   req.SortIndex,
	}
	if req.Category != nil {
		category := entities.Category(*req.Category)
		cmd.Category = &category
	}
	if req.Content != nil {
		content, err := blocksFromDTO(*req.Content)
		if err != nil {
			return httptransport.ProposalResponse{}, err
		}
		cmd.Content = &content
	}
	proposal, err := h.Lifecycle.UpdateDraft(ctx, cmd)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Queries.GetProposal(ctx, proposalID)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) ListProposalsHandler(ctx context.Context, filter ports.ProposalFilter) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.ListProposals(ctx, filter)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, mapProposal(proposal))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func (h Handler) DeleteProposalHandler(ctx context.Context, userID string, proposalID string) error {
	return h.Lifecycle.DeleteProposal(ctx, commands.DeleteProposalCommand{
		ProposalID: proposalID,
		ActorID:    userID,
	})
}

func (h Handler) SubmitProposalHandler(ctx context.Context, userID string, proposalID string) (httptransport.ProposalResponse, error) {
	proposal, err := h.Lifecycle.SubmitProposal(ctx, commands.SubmitProposalCommand{
		ProposalID: proposalID,
		ActorID:    userID,
	})
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	return mapProposal(proposal), nil
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	userID string,
	proposalID string,
	req httptransport.CastVoteRequest,
) (httptransport.CastVoteResponse, error) {
	result, err := h.Lifecycle.CastVote(ctx, commands.CastVoteCommand{
		ProposalID: proposalID,
		ReviewerID: userID,
		Decision:   entities.Decision(req.Decision),
	})
	if err != nil {
		return httptransport.CastVoteResponse{}, err
	}
	resp := httptransport.CastVoteResponse{
		Proposal:     mapProposal(result.Proposal),
		Decisive:     result.Decisive,
		Transitioned: result.Transitioned,
	}
	if result.Original != nil {
		original := mapProposal(*result.Original)
		resp.Original = &original
	}
	return resp, nil
}

func (h Handler) GetTallyHandler(ctx context.Context, proposalID string) (httptransport.TallyResponse, error) {
	tally, err := h.Queries.GetTally(ctx, proposalID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return httptransport.TallyResponse{
		ProposalID:  tally.ProposalID,
		Status:      string(tally.Status),
		RosterSize:  tally.RosterSize,
		Approvals:   tally.Approvals,
		Rejections:  tally.Rejections,
		Pending:     tally.Pending,
		ApprovedPct: tally.ApprovedPct,
		RejectedPct: tally.RejectedPct,
		PendingPct:  tally.PendingPct,
		Unanimous:   tally.Unanimous,
	}, nil
}

func (h Handler) RequestManagementChangeHandler(
	ctx context.Context,
	userID string,
	idempotencyKey string,
	originalID string,
	req httptransport.ManagementChangeRequest,
) (httptransport.ProposalResponse, error) {
	cmd := commands.ManagementChangeCommand{
		OriginalProposalID: originalID,
		Kind:               entities.ManagementKind(req.Kind),
		ActorID:            userID,
		ActorName:          req.ActorName,
		ActorLevel:         req.ActorLevel,
		Title:              req.Title,
		Description:        req.Description,
		IdempotencyKey:     idempotencyKey,
	}
	if req.Content != nil {
		content, err := blocksFromDTO(*req.Content)
		if err != nil {
			return httptransport.ProposalResponse{}, err
		}
		cmd.NewContent = content
	}
	result, err := h.Lifecycle.RequestManagementChange(ctx, cmd)
	if err != nil {
		return httptransport.ProposalResponse{}, err
	}
	resp := mapProposal(result.Proposal)
	resp.Replayed = result.Replayed
	return resp, nil
}

func blocksFromDTO(items []httptransport.ContentBlockDTO) ([]entities.ContentBlock, error) {
	blocks := make([]entities.ContentBlock, 0, len(items))
	for _, item := range items {
		var content entities.BlockContent
		if len(item.Content) > 0 {
			if err := json.Unmarshal(item.Content, &content); err != nil {
				return nil, domainerrors.ErrInvalidContentBlocks
			}
		}
		blocks = append(blocks, entities.ContentBlock{
			ID:       item.ID,
			Type:     entities.BlockType(item.Type),
			Content:  content,
			Order:    item.Order,
			Metadata: item.Metadata,
		})
	}
	return blocks, nil
}

func mapProposal(proposal entities.Proposal) httptransport.ProposalResponse {
	content := make([]httptransport.ContentBlockDTO, 0, len(proposal.Content))
	for _, block := range entities.SortBlocks(proposal.Content) {
		raw, _ := json.Marshal(block.Content)
		content = append(content, httptransport.ContentBlockDTO{
			ID:       block.ID,
			Type:     string(block.Type),
			Content:  raw,
			Order:    block.Order,
			Metadata: block.Metadata,
		})
	}
	return httptransport.ProposalResponse{
		ProposalID:  proposal.ID,
		Title:       proposal.Title,
		Description: proposal.Description,
		Category:    string(proposal.Category),
		TargetTier:  proposal.TargetTier,
		AuthorID:    proposal.AuthorID,
		AuthorName:  proposal.AuthorName,
		AuthorLevel: proposal.AuthorLevel,
		Status:      string(proposal.Status),
		Content:     content,
		Votes: httptransport.VotesDTO{
			Approvals:  proposal.Votes.ApprovalIDs(),
			Rejections: proposal.Votes.RejectionIDs(),
		},
		OriginalProposalID:    proposal.OriginalProposalID,
		Featured:              proposal.Featured,
		SortIndex:             proposal.SortIndex,
		Distributable:         proposal.Distributable,
		RetractedAt:           formatOptionalTime(proposal.RetractedAt),
		RetractedByProposalID: proposal.RetractedByProposalID,
		LastEditProposalID:    proposal.LastEditProposalID,
		Revision:              proposal.Revision,
		CreatedAt:             proposal.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             proposal.UpdatedAt.UTC().Format(time.RFC3339),
		SubmittedAt:           formatOptionalTime(proposal.SubmittedAt),
		ApprovedAt:            formatOptionalTime(proposal.ApprovedAt),
		RejectedAt:            formatOptionalTime(proposal.RejectedAt),
	}
}

func formatOptionalTime(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}
