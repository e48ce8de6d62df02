package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
)

const (
	wordsPerMinute      = 200
	videoMinutes        = 5
	exerciseMinutes     = 10
	checklistMinutes    = 5
	maxTitleRunes       = 80
	maxDescriptionRunes = 160
	metaDurationMinutes = "durationMinutes"
	metaOptional        = "optional"
	metaTitle           = "title"
	metaDescription     = "description"
	blockTypeVideo      = "video"
	blockTypeCode       = "code"
	blockTypeChecklist  = "checklist"
	blockTypeLink       = "link"
	blockTypeImage      = "image"
	blockTypeDivider    = "divider"
	blockTypeTitle      = "title"
	blockTypeSubtitle   = "subtitle"
	blockTypeHeading    = "heading"
)

// SectionTypeFor maps an authored block type to the section type consumers
// render. Unknown block types are plain content.
func SectionTypeFor(blockType string) entities.SectionType {
	switch strings.ToLower(strings.TrimSpace(blockType)) {
	case blockTypeVideo:
		return entities.SectionTypeVideo
	case blockTypeCode:
		return entities.SectionTypeExercise
	case blockTypeChecklist:
		return entities.SectionTypeQuiz
	case blockTypeLink, blockTypeImage:
		return entities.SectionTypeResource
	default:
		return entities.SectionTypeContent
	}
}

// DeriveSections returns one section per block, in block order.
func DeriveSections(blocks []entities.Block) []entities.ContentSection {
	ordered := append([]entities.Block(nil), blocks...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})
	sections := make([]entities.ContentSection, 0, len(ordered))
	for position, block := range ordered {
		sections = append(sections, entities.ContentSection{
			BlockID:                  block.ID,
			SectionTitle:             sectionTitle(block, position),
			SectionDescription:       sectionDescription(block),
			SectionType:              SectionTypeFor(block.Type),
			Order:                    block.Order,
			EstimatedDurationMinutes: EstimateDuration(block),
			IsRequired:               isRequired(block),
		})
	}
	return sections
}

// EstimateDuration prefers an explicit metadata.durationMinutes over the
// per-type estimate. Reading time is 200 words per minute, at least one.
func EstimateDuration(block entities.Block) int {
	if minutes, ok := metadataInt(block.Metadata, metaDurationMinutes); ok && minutes >= 0 {
		return minutes
	}
	switch strings.ToLower(strings.TrimSpace(block.Type)) {
	case blockTypeDivider:
		return 0
	case blockTypeVideo:
		return videoMinutes
	case blockTypeCode:
		return exerciseMinutes
	case blockTypeChecklist:
		return checklistMinutes
	}
	words := len(strings.Fields(block.Text))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}

// BuildIndex summarizes published content for listings.
func BuildIndex(content entities.PublishedContent) entities.ContentIndex {
	sections := DeriveSections(content.Blocks)
	total := 0
	for _, section := range sections {
		total += section.EstimatedDurationMinutes
	}
	return entities.ContentIndex{
		ProposalID:               content.ProposalID,
		Title:                    content.Title,
		Description:              content.Description,
		Category:                 content.Category,
		TargetTier:               content.TargetTier,
		AuthorName:               content.AuthorName,
		ApprovedAt:               content.ApprovedAt,
		Featured:                 content.Featured,
		SortIndex:                content.SortIndex,
		SectionCount:             len(sections),
		EstimatedDurationMinutes: total,
	}
}

// SortListing orders by approval time, then featured first, then the
// explicit sort index, then id so equal keys stay stable across reads.
func SortListing(items []entities.ContentIndex) {
	sort.SliceStable(items, func(i, j int) bool {
		left, right := items[i], items[j]
		if !left.ApprovedAt.Equal(right.ApprovedAt) {
			return left.ApprovedAt.Before(right.ApprovedAt)
		}
		if left.Featured != right.Featured {
			return left.Featured
		}
		if left.SortIndex != right.SortIndex {
			return left.SortIndex < right.SortIndex
		}
		return left.ProposalID < right.ProposalID
	})
}

func isRequired(block entities.Block) bool {
	if strings.EqualFold(strings.TrimSpace(block.Type), blockTypeDivider) {
		return false
	}
	optional, _ := block.Metadata[metaOptional].(bool)
	return !optional
}

func sectionTitle(block entities.Block, position int) string {
	if title := metadataString(block.Metadata, metaTitle); title != "" {
		return truncate(title, maxTitleRunes)
	}
	if line := firstLine(block.Text); line != "" {
		return truncate(line, maxTitleRunes)
	}
	return "Section " + strconv.Itoa(position+1)
}

func sectionDescription(block entities.Block) string {
	if description := metadataString(block.Metadata, metaDescription); description != "" {
		return truncate(description, maxDescriptionRunes)
	}
	switch strings.ToLower(strings.TrimSpace(block.Type)) {
	case blockTypeTitle, blockTypeSubtitle, blockTypeHeading, blockTypeDivider:
		return ""
	}
	return truncate(strings.Join(strings.Fields(block.Text), " "), maxDescriptionRunes)
}

func metadataString(metadata map[string]any, key string) string {
	value, _ := metadata[key].(string)
	return strings.TrimSpace(value)
}

// metadataInt accepts JSON numbers and numeric strings.
func metadataInt(metadata map[string]any, key string) (int, bool) {
	switch value := metadata[key].(type) {
	case float64:
		return int(math.Round(value)), true
	case int:
		return value, true
	case int64:
		return int(value), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		return parsed, err == nil
	default:
		return 0, false
	}
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func truncate(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}
