package http

type ContentIndexResponse struct {
	ProposalID               string `json:"proposal_id"`
	Title                    string `json:"title"`
	Description              string `json:"description"`
	Category                 string `json:"category"`
	TargetTier               int    `json:"target_tier"`
	AuthorName               string `json:"author_name"`
	ApprovedAt               string `json:"approved_at"`
	Featured                 bool   `json:"featured"`
	SortIndex                int    `json:"sort_index"`
	SectionCount             int    `json:"section_count"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
}

type TierListingResponse struct {
	Tier     int                    `json:"tier"`
	Category string                 `json:"category"`
	Items    []ContentIndexResponse `json:"items"`
}

type ContentSectionResponse struct {
	BlockID                  string `json:"block_id"`
	SectionTitle             string `json:"section_title"`
	SectionDescription       string `json:"section_description"`
	SectionType              string `json:"section_type"`
	Order                    int    `json:"order"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
	IsRequired               bool   `json:"is_required"`
}

type ContentTableResponse struct {
	Index    ContentIndexResponse     `json:"index"`
	Sections []ContentSectionResponse `json:"sections"`
}
