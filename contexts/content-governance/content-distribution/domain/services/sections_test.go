package services

import (
	"testing"
	"time"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
)

func TestDeriveSectionsMapsTypesInBlockOrder(t *testing.T) {
	blocks := []entities.Block{
		{ID: "b3", Type: "checklist", Text: "a\nb", Order: 3},
		{ID: "b1", Type: "video", Text: "https://video", Order: 1},
		{ID: "b0", Type: "title", Text: "Fibonacci", Order: 0},
		{ID: "b2", Type: "code", Text: "fib(n)", Order: 2},
		{ID: "b4", Type: "link", Text: "https://ref", Order: 4},
		{ID: "b5", Type: "hologram", Text: "future block", Order: 5},
		{ID: "b6", Type: "divider", Order: 6},
		{ID: "b7", Type: "image", Text: "diagram", Order: 7},
	}
	sections := DeriveSections(blocks)
	if len(sections) != len(blocks) {
		t.Fatalf("expected one section per block, got %d", len(sections))
	}
	want := []entities.SectionType{
		entities.SectionTypeContent,
		entities.SectionTypeVideo,
		entities.SectionTypeExercise,
		entities.SectionTypeQuiz,
		entities.SectionTypeResource,
		entities.SectionTypeContent,
		entities.SectionTypeContent,
		entities.SectionTypeResource,
	}
	for i, section := range sections {
		if section.Order != i {
			t.Fatalf("section %d out of order: %+v", i, section)
		}
		if section.SectionType != want[i] {
			t.Fatalf("section %d: expected type %s, got %s", i, want[i], section.SectionType)
		}
	}
	if sections[0].SectionTitle != "Fibonacci" {
		t.Fatalf("expected title block text as section title, got %q", sections[0].SectionTitle)
	}
	if sections[6].IsRequired || sections[6].EstimatedDurationMinutes != 0 {
		t.Fatalf("divider must be optional with zero duration: %+v", sections[6])
	}
	if sections[6].SectionTitle != "Section 7" {
		t.Fatalf("expected positional fallback title, got %q", sections[6].SectionTitle)
	}
}

func TestEstimateDuration(t *testing.T) {
	long := ""
	for i := 0; i < 401; i++ {
		long += "word "
	}
	cases := []struct {
		name  string
		block entities.Block
		want  int
	}{
		{name: "short text rounds up to one", block: entities.Block{Type: "text", Text: "hi"}, want: 1},
		{name: "401 words is three minutes", block: entities.Block{Type: "text", Text: long}, want: 3},
		{name: "video", block: entities.Block{Type: "video"}, want: 5},
		{name: "code", block: entities.Block{Type: "code"}, want: 10},
		{name: "checklist", block: entities.Block{Type: "checklist"}, want: 5},
		{name: "divider", block: entities.Block{Type: "divider"}, want: 0},
		{name: "metadata wins", block: entities.Block{Type: "video", Metadata: map[string]any{"durationMinutes": float64(12)}}, want: 12},
		{name: "numeric string metadata", block: entities.Block{Type: "text", Metadata: map[string]any{"durationMinutes": "7"}}, want: 7},
	}
	for _, tc := range cases {
		if got := EstimateDuration(tc.block); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestOptionalMetadataMakesSectionOptional(t *testing.T) {
	sections := DeriveSections([]entities.Block{
		{ID: "b0", Type: "text", Text: "Extra reading", Metadata: map[string]any{"optional": true}},
		{ID: "b1", Type: "text", Text: "Core", Order: 1, Metadata: map[string]any{"title": "Core idea", "description": "What matters"}},
	})
	if sections[0].IsRequired {
		t.Fatalf("optional block must not be required")
	}
	if !sections[1].IsRequired || sections[1].SectionTitle != "Core idea" || sections[1].SectionDescription != "What matters" {
		t.Fatalf("unexpected section: %+v", sections[1])
	}
}

func TestDecodeBlocksFlattensStructuredContent(t *testing.T) {
	raw := []byte(`[
		{"id":"b0","type":"Text","content":"Intro","order":0},
		{"id":"b1","type":"checklist","content":{"text":"Steps","items":[{"text":"one"},{"text":"two","checked":true}]},"order":1,"metadata":{"optional":true}}
	]`)
	blocks, err := DecodeBlocks(raw)
	if err != nil {
		t.Fatalf("decode blocks: %v", err)
	}
	if len(blocks) != 2 || blocks[0].Type != "text" || blocks[0].Text != "Intro" {
		t.Fatalf("unexpected first block: %+v", blocks)
	}
	if blocks[1].Text != "Steps\none\ntwo" {
		t.Fatalf("unexpected flattened text %q", blocks[1].Text)
	}
	if optional, _ := blocks[1].Metadata["optional"].(bool); !optional {
		t.Fatalf("metadata must be preserved")
	}
	if blocks, err := DecodeBlocks(nil); err != nil || blocks != nil {
		t.Fatalf("empty payload must decode to no blocks")
	}
}

func TestSortListing(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []entities.ContentIndex{
		{ProposalID: "late", ApprovedAt: t0.Add(time.Hour)},
		{ProposalID: "b", ApprovedAt: t0, SortIndex: 2},
		{ProposalID: "a", ApprovedAt: t0, SortIndex: 2},
		{ProposalID: "featured", ApprovedAt: t0, Featured: true, SortIndex: 9},
		{ProposalID: "first-index", ApprovedAt: t0, SortIndex: 1},
	}
	SortListing(items)
	want := []string{"featured", "first-index", "a", "b", "late"}
	for i, id := range want {
		if items[i].ProposalID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, items[i].ProposalID)
		}
	}
}

func TestBuildIndexSumsDurations(t *testing.T) {
	index := BuildIndex(entities.PublishedContent{
		ProposalID: "p1",
		Category:   entities.CategoryPractical,
		TargetTier: 2,
		Blocks: []entities.Block{
			{ID: "b0", Type: "video"},
			{ID: "b1", Type: "code", Order: 1},
		},
	})
	if index.SectionCount != 2 || index.EstimatedDurationMinutes != 15 {
		t.Fatalf("unexpected index: %+v", index)
	}
}
