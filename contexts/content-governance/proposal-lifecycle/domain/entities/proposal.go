package entities

import (
	"sort"
	"strings"
	"time"
)

type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

func (s ProposalStatus) Terminal() bool {
	return s == ProposalStatusApproved || s == ProposalStatusRejected
}

type Category string

const (
	CategoryTheoretical           Category = "theoretical"
	CategoryPractical             Category = "practical"
	CategoryCheckpoint            Category = "checkpoint"
	CategoryEditApprovedContent   Category = "edit_approved_content"
	CategoryDeleteApprovedContent Category = "delete_approved_content"
)

// IsContent reports whether proposals of this category carry distributable
// content (as opposed to managing already-approved content).
func (c Category) IsContent() bool {
	return c == CategoryTheoretical || c == CategoryPractical || c == CategoryCheckpoint
}

func (c Category) IsManagement() bool {
	return c == CategoryEditApprovedContent || c == CategoryDeleteApprovedContent
}

type ManagementKind string

const (
	ManagementKindEdit   ManagementKind = "edit"
	ManagementKindDelete ManagementKind = "delete"
)

func (k ManagementKind) Category() (Category, bool) {
	switch k {
	case ManagementKindEdit:
		return CategoryEditApprovedContent, true
	case ManagementKindDelete:
		return CategoryDeleteApprovedContent, true
	default:
		return "", false
	}
}

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

const (
	MinTier = 1
	MaxTier = 6
)

func ValidTier(tier int) bool {
	return tier >= MinTier && tier <= MaxTier
}

// Votes keeps approvals and rejections as disjoint reviewer sets.
type Votes struct {
	Approvals  map[string]time.Time
	Rejections map[string]time.Time
}

func NewVotes() Votes {
	return Votes{
		Approvals:  make(map[string]time.Time),
		Rejections: make(map[string]time.Time),
	}
}

// Record moves reviewerID into the set matching decision; a reviewer is never
// present in both sets.
func (v Votes) Record(reviewerID string, decision Decision, at time.Time) Votes {
	next := v.Clone()
	delete(next.Approvals, reviewerID)
	delete(next.Rejections, reviewerID)
	if decision == DecisionApprove {
		next.Approvals[reviewerID] = at
	} else {
		next.Rejections[reviewerID] = at
	}
	return next
}

func (v Votes) Clone() Votes {
	next := NewVotes()
	for id, at := range v.Approvals {
		next.Approvals[id] = at
	}
	for id, at := range v.Rejections {
		next.Rejections[id] = at
	}
	return next
}

func (v Votes) DecisionOf(reviewerID string) (Decision, bool) {
	if _, ok := v.Approvals[reviewerID]; ok {
		return DecisionApprove, true
	}
	if _, ok := v.Rejections[reviewerID]; ok {
		return DecisionReject, true
	}
	return "", false
}

func (v Votes) ApprovalIDs() []string {
	return sortedKeys(v.Approvals)
}

func (v Votes) RejectionIDs() []string {
	return sortedKeys(v.Rejections)
}

func sortedKeys(items map[string]time.Time) []string {
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type Proposal struct {
	ID                 string
	Title              string
	Description        string
	Category           Category
	TargetTier         int
	AuthorID           string
	AuthorName         string
	AuthorLevel        int
	Status             ProposalStatus
	Content            []ContentBlock
	Votes              Votes
	OriginalProposalID string
	Featured           bool
	SortIndex          int

	// Distributable is set when a content proposal is approved and cleared
	// when a delete_approved_content proposal against it is approved.
	Distributable         bool
	RetractedAt           *time.Time
	RetractedByProposalID string
	LastEditProposalID    string

	DecidedByReviewerID string
	Revision            int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
	SubmittedAt         *time.Time
	ApprovedAt          *time.Time
	RejectedAt          *time.Time
}

func (p Proposal) Clone() Proposal {
	next := p
	next.Content = CloneBlocks(p.Content)
	next.Votes = p.Votes.Clone()
	next.RetractedAt = cloneTime(p.RetractedAt)
	next.SubmittedAt = cloneTime(p.SubmittedAt)
	next.ApprovedAt = cloneTime(p.ApprovedAt)
	next.RejectedAt = cloneTime(p.RejectedAt)
	return next
}

// ManagementKind derives the management kind from the category.
func (p Proposal) ManagementKind() (ManagementKind, bool) {
	switch p.Category {
	case CategoryEditApprovedContent:
		return ManagementKindEdit, true
	case CategoryDeleteApprovedContent:
		return ManagementKindDelete, true
	default:
		return "", false
	}
}

func (p Proposal) IsAuthoredBy(actorID string) bool {
	actorID = strings.TrimSpace(actorID)
	return actorID != "" && strings.TrimSpace(p.AuthorID) == actorID
}

func (p Proposal) MissingSubmitFields() []string {
	var missing []string
	if strings.TrimSpace(p.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "description")
	}
	if len(p.Content) == 0 {
		missing = append(missing, "content")
	}
	return missing
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := value.UTC()
	return &copied
}
