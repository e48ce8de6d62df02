package http

type ReviewerResponse struct {
	ReviewerID        string `json:"reviewer_id"`
	Email             string `json:"email"`
	Nickname          string `json:"nickname"`
	Tier              int    `json:"tier"`
	DecisiveAuthority bool   `json:"decisive_authority"`
}

type ReviewerListResponse struct {
	RosterSize int                `json:"roster_size"`
	Items      []ReviewerResponse `json:"items"`
}
