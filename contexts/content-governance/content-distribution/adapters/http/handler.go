package httpadapter

import (
	"context"
	"time"

	"maestro/contexts/content-governance/content-distribution/application/queries"
	"maestro/contexts/content-governance/content-distribution/domain/entities"
	httptransport "maestro/contexts/content-governance/content-distribution/transport/http"
)

type Handler struct {
	Distributor queries.Distributor
}

func (h Handler) ListForTierHandler(ctx context.Context, tier int, category string) (httptransport.TierListingResponse, error) {
	items, err := h.Distributor.ListForTier(ctx, tier, entities.NormalizeCategory(category))
	if err != nil {
		return httptransport.TierListingResponse{}, err
	}
	resp := httptransport.TierListingResponse{
		Tier:     tier,
		Category: string(entities.NormalizeCategory(category)),
		Items:    make([]httptransport.ContentIndexResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, mapIndex(item))
	}
	return resp, nil
}

func (h Handler) GetIndexHandler(ctx context.Context, proposalID string) (httptransport.ContentTableResponse, error) {
	index, sections, err := h.Distributor.GetIndex(ctx, proposalID)
	if err != nil {
		return httptransport.ContentTableResponse{}, err
	}
	resp := httptransport.ContentTableResponse{
		Index:    mapIndex(index),
		Sections: make([]httptransport.ContentSectionResponse, 0, len(sections)),
	}
	for _, section := range sections {
		resp.Sections = append(resp.Sections, httptransport.ContentSectionResponse{
			BlockID:                  section.BlockID,
			SectionTitle:             section.SectionTitle,
			SectionDescription:       section.SectionDescription,
			SectionType:              string(section.SectionType),
			Order:                    section.Order,
			EstimatedDurationMinutes: section.EstimatedDurationMinutes,
			IsRequired:               section.IsRequired,
		})
	}
	return resp, nil
}

func mapIndex(item entities.ContentIndex) httptransport.ContentIndexResponse {
	return httptransport.ContentIndexResponse{
		ProposalID:               item.ProposalID,
		Title:                    item.Title,
		Description:              item.Description,
		Category:                 string(item.Category),
		TargetTier:               item.TargetTier,
		AuthorName:               item.AuthorName,
		ApprovedAt:               item.ApprovedAt.UTC().Format(time.RFC3339),
		Featured:                 item.Featured,
		SortIndex:                item.SortIndex,
		SectionCount:             item.SectionCount,
		EstimatedDurationMinutes: item.EstimatedDurationMinutes,
	}
}
