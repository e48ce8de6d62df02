package entities

import (
	"encoding/json"
	"testing"
)

func TestBlockContentEncodesPlainTextAsString(t *testing.T) {
	raw, err := json.Marshal(TextContent("F(n) = F(n-1) + F(n-2)"))
	if err != nil {
		t.Fatalf("marshal text content: %v", err)
	}
	if string(raw) != `"F(n) = F(n-1) + F(n-2)"` {
		t.Fatalf("expected bare string, got %s", raw)
	}
}

func TestBlockContentDecodesStringAndStructuredForms(t *testing.T) {
	var plain BlockContent
	if err := json.Unmarshal([]byte(`"hello"`), &plain); err != nil {
		t.Fatalf("decode string content: %v", err)
	}
	if plain.Text != "hello" || plain.IsStructured() {
		t.Fatalf("unexpected plain content: %+v", plain)
	}

	var structured BlockContent
	if err := json.Unmarshal([]byte(`{"text":"steps","items":[{"text":"one","checked":true},{"text":"two"}]}`), &structured); err != nil {
		t.Fatalf("decode structured content: %v", err)
	}
	if !structured.IsStructured() || len(structured.Items) != 2 || !structured.Items[0].Checked {
		t.Fatalf("unexpected structured content: %+v", structured)
	}
	if structured.PlainText() != "steps\none\ntwo" {
		t.Fatalf("unexpected plain text: %q", structured.PlainText())
	}
}

func TestUnknownBlockTypeRendersAsText(t *testing.T) {
	unknown := NormalizeBlockType(" Hologram ")
	if unknown.Known() {
		t.Fatalf("expected %q to be unknown", unknown)
	}
	if unknown != BlockType("hologram") {
		t.Fatalf("expected type to be preserved, got %q", unknown)
	}
	if unknown.RenderAs() != BlockTypeText {
		t.Fatalf("expected text fallback, got %q", unknown.RenderAs())
	}
	if BlockTypeCode.RenderAs() != BlockTypeCode {
		t.Fatalf("known types must render as themselves")
	}
}

func TestValidateBlocksRejectsDuplicateIDsAndOrders(t *testing.T) {
	valid := []ContentBlock{
		{ID: "b1", Type: BlockTypeTitle, Order: 0},
		{ID: "b2", Type: BlockTypeText, Order: 4},
	}
	if err := ValidateBlocks(valid); err != nil {
		t.Fatalf("expected sparse orders to be valid: %v", err)
	}
	if err := ValidateBlocks([]ContentBlock{{ID: "b1", Order: 0}, {ID: "b1", Order: 1}}); err == nil {
		t.Fatalf("expected duplicate id to fail")
	}
	if err := ValidateBlocks([]ContentBlock{{ID: "b1", Order: 2}, {ID: "b2", Order: 2}}); err == nil {
		t.Fatalf("expected duplicate order to fail")
	}
	if err := ValidateBlocks([]ContentBlock{{ID: "b1", Order: -1}}); err == nil {
		t.Fatalf("expected negative order to fail")
	}
	if err := ValidateBlocks([]ContentBlock{{ID: " ", Order: 0}}); err == nil {
		t.Fatalf("expected blank id to fail")
	}
}

func TestSortBlocksCopiesInRenderingOrder(t *testing.T) {
	blocks := []ContentBlock{
		{ID: "late", Order: 9, Metadata: map[string]any{"size": "lg"}},
		{ID: "early", Order: 1},
	}
	sorted := SortBlocks(blocks)
	if sorted[0].ID != "early" || sorted[1].ID != "late" {
		t.Fatalf("unexpected order: %+v", sorted)
	}
	sorted[1].Metadata["size"] = "sm"
	if blocks[0].Metadata["size"] != "lg" {
		t.Fatalf("sort must not alias metadata")
	}
}
