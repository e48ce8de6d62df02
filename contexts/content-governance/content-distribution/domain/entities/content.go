package entities

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryTheoretical Category = "theoretical"
	CategoryPractical   Category = "practical"
	CategoryCheckpoint  Category = "checkpoint"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTheoretical, CategoryPractical, CategoryCheckpoint:
		return true
	default:
		return false
	}
}

func NormalizeCategory(raw string) Category {
	return Category(strings.ToLower(strings.TrimSpace(raw)))
}

const (
	MinTier = 1
	MaxTier = 6
)

func ValidTier(tier int) bool {
	return tier >= MinTier && tier <= MaxTier
}

// Block is the distribution view of one authored content block. Text is the
// flattened plain text; structured payloads are not exposed to consumers.
type Block struct {
	ID       string
	Type     string
	Text     string
	Order    int
	Metadata map[string]any
}

// PublishedContent is an approved proposal as the distributor sees it.
// Distributable is false once the proposal has been retracted.
type PublishedContent struct {
	ProposalID    string
	Title         string
	Description   string
	Category      Category
	TargetTier    int
	AuthorName    string
	Featured      bool
	SortIndex     int
	Distributable bool
	ApprovedAt    time.Time
	UpdatedAt     time.Time
	Revision      int64
	Blocks        []Block
}

// Servable reports whether the content may be listed or indexed.
func (c PublishedContent) Servable() bool {
	return c.Distributable && !c.ApprovedAt.IsZero() && c.Category.Valid()
}

type SectionType string

const (
	SectionTypeContent  SectionType = "content"
	SectionTypeVideo    SectionType = "video"
	SectionTypeQuiz     SectionType = "quiz"
	SectionTypeExercise SectionType = "exercise"
	SectionTypeResource SectionType = "resource"
)

type ContentSection struct {
	BlockID                  string
	SectionTitle             string
	SectionDescription       string
	SectionType              SectionType
	Order                    int
	EstimatedDurationMinutes int
	IsRequired               bool
}

// ContentIndex is the listing summary of one published proposal.
type ContentIndex struct {
	ProposalID               string
	Title                    string
	Description              string
	Category                 Category
	TargetTier               int
	AuthorName               string
	ApprovedAt               time.Time
	Featured                 bool
	SortIndex                int
	SectionCount             int
	EstimatedDurationMinutes int
}
