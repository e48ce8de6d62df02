package httpadapter

import (
	"context"

	"maestro/contexts/content-governance/reviewer-authority/application/queries"
	httptransport "maestro/contexts/content-governance/reviewer-authority/transport/http"
)

type Handler struct {
	Directory queries.Directory
}

func (h Handler) ListReviewersHandler(ctx context.Context) (httptransport.ReviewerListResponse, error) {
	reviewers, err := h.Directory.ListReviewers(ctx)
	if err != nil {
		return httptransport.ReviewerListResponse{}, err
	}
	items := make([]httptransport.ReviewerResponse, 0, len(reviewers))
	for _, reviewer := range reviewers {
		items = append(items, httptransport.ReviewerResponse{
			ReviewerID:        reviewer.ID,
			Email:             reviewer.Email,
			Nickname:          reviewer.Nickname,
			Tier:              reviewer.Tier,
			DecisiveAuthority: reviewer.DecisiveAuthority,
		})
	}
	return httptransport.ReviewerListResponse{
		RosterSize: len(items),
		Items:      items,
	}, nil
}
