package http

import "encoding/json"

type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ContentBlockDTO carries block content as raw JSON: either a string or an
// object with text and items.
type ContentBlockDTO struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
	Order    int             `json:"order"`
	Metadata map[string]any  `json:"metadata,omitempty"`
}

type CreateProposalRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	TargetTier  int               `json:"target_tier"`
	AuthorName  string            `json:"author_name"`
	AuthorLevel int               `json:"author_level"`
	Content     []ContentBlockDTO `json:"content"`
	Featured    bool              `json:"featured"`
	SortIndex   int               `json:"sort_index"`
}

type UpdateProposalRequest struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *string            `json:"category,omitempty"`
	TargetTier  *int               `json:"target_tier,omitempty"`
	Content     *[]ContentBlockDTO `json:"content,omitempty"`
	Featured    *bool              `json:"featured,omitempty"`
	SortIndex   *int               `json:"sort_index,omitempty"`
}

type CastVoteRequest struct {
	Decision string `json:"decision"`
}

type ManagementChangeRequest struct {
	Kind        string             `json:"kind"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	ActorName   string             `json:"actor_name,omitempty"`
	ActorLevel  int                `json:"actor_level,omitempty"`
	Content     *[]ContentBlockDTO `json:"content,omitempty"`
}

type VotesDTO struct {
	Approvals  []string `json:"approvals"`
	Rejections []string `json:"rejections"`
}

type ProposalResponse struct {
	ProposalID            string            `json:"proposal_id"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	Category              string            `json:"category"`
	TargetTier            int               `json:"target_tier"`
	AuthorID              string            `json:"author_id"`
	AuthorName            string            `json:"author_name"`
	AuthorLevel           int               `json:"author_level"`
	Status                string            `json:"status"`
	Content               []ContentBlockDTO `json:"content"`
	Votes                 VotesDTO          `json:"votes"`
	OriginalProposalID    string            `json:"original_proposal_id,omitempty"`
	Featured              bool              `json:"featured"`
	SortIndex             int               `json:"sort_index"`
	Distributable         bool              `json:"distributable"`
	RetractedAt           string            `json:"retracted_at,omitempty"`
	RetractedByProposalID string            `json:"retracted_by_proposal_id,omitempty"`
	LastEditProposalID    string            `json:"last_edit_proposal_id,omitempty"`
	Revision              int64             `json:"revision"`
	CreatedAt             string            `json:"created_at"`
	UpdatedAt             string            `json:"updated_at"`
	SubmittedAt           string            `json:"submitted_at,omitempty"`
	ApprovedAt            string            `json:"approved_at,omitempty"`
	RejectedAt            string            `json:"rejected_at,omitempty"`
	Replayed              bool              `json:"replayed,omitempty"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type CastVoteResponse struct {
	Proposal     ProposalResponse  `json:"proposal"`
	Decisive     bool              `json:"decisive"`
	Transitioned bool              `json:"transitioned"`
	Original     *ProposalResponse `json:"original,omitempty"`
}

type TallyResponse struct {
	ProposalID  string  `json:"proposal_id"`
	Status      string  `json:"status"`
	RosterSize  int     `json:"roster_size"`
	Approvals   int     `json:"approvals"`
	Rejections  int     `json:"rejections"`
	Pending     int     `json:"pending"`
	ApprovedPct float64 `json:"approved_pct"`
	RejectedPct float64 `json:"rejected_pct"`
	PendingPct  float64 `json:"pending_pct"`
	Unanimous   bool    `json:"unanimous"`
}
