package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

type BlockType string

const (
	BlockTypeText      BlockType = "text"
	BlockTypeImage     BlockType = "image"
	BlockTypeVideo     BlockType = "video"
	BlockTypeCode      BlockType = "code"
	BlockTypeQuote     BlockType = "quote"
	BlockTypeList      BlockType = "list"
	BlockTypeChecklist BlockType = "checklist"
	BlockTypeDivider   BlockType = "divider"
	BlockTypeLink      BlockType = "link"
	BlockTypeTitle     BlockType = "title"
	BlockTypeSubtitle  BlockType = "subtitle"
	BlockTypeHeading   BlockType = "heading"
)

// Known reports whether t is one of the block types this build understands.
// Unknown types are kept verbatim so newer authoring clients round-trip.
func (t BlockType) Known() bool {
	switch t {
	case BlockTypeText,
		BlockTypeImage,
		BlockTypeVideo,
		BlockTypeCode,
		BlockTypeQuote,
		BlockTypeList,
		BlockTypeChecklist,
		BlockTypeDivider,
		BlockTypeLink,
		BlockTypeTitle,
		BlockTypeSubtitle,
		BlockTypeHeading:
		return true
	default:
		return false
	}
}

// RenderAs is the type renderers should dispatch on: unknown types fall back
// to generic text.
func (t BlockType) RenderAs() BlockType {
	if !t.Known() {
		return BlockTypeText
	}
	return t
}

func NormalizeBlockType(raw string) BlockType {
	return BlockType(strings.ToLower(strings.TrimSpace(raw)))
}

type BlockItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked,omitempty"`
}

// BlockContent is either a plain string or a structured payload (list and
// checklist items). It encodes as a JSON string when only Text is set.
type BlockContent struct {
	Text  string
	Items []BlockItem
}

func TextContent(text string) BlockContent {
	return BlockContent{Text: text}
}

func (c BlockContent) IsStructured() bool {
	return len(c.Items) > 0
}

func (c BlockContent) IsEmpty() bool {
	return strings.TrimSpace(c.Text) == "" && len(c.Items) == 0
}

// PlainText flattens the content for word counts and summaries.
func (c BlockContent) PlainText() string {
	parts := make([]string, 0, len(c.Items)+1)
	if text := strings.TrimSpace(c.Text); text != "" {
		parts = append(parts, text)
	}
	for _, item := range c.Items {
		if text := strings.TrimSpace(item.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

type structuredContent struct {
	Text  string      `json:"text,omitempty"`
	Items []BlockItem `json:"items,omitempty"`
}

func (c BlockContent) MarshalJSON() ([]byte, error) {
	if !c.IsStructured() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(structuredContent{Text: c.Text, Items: c.Items})
}

func (c *BlockContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*c = BlockContent{}
		return nil
	}
	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*c = BlockContent{Text: text}
		return nil
	}
	var payload structuredContent
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return err
	}
	*c = BlockContent{Text: payload.Text, Items: payload.Items}
	return nil
}

// ContentBlock is one unit of authored content. Order drives rendering only;
// ID is the identity.
type ContentBlock struct {
	ID       string         `json:"id"`
	Type     BlockType      `json:"type"`
	Content  BlockContent   `json:"content"`
	Order    int            `json:"order"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

var (
	errBlockIDRequired  = errors.New("content block id is required")
	errBlockIDDuplicate = errors.New("content block ids must be unique")
	errBlockOrder       = errors.New("content block order must be non-negative and unique")
)

// ValidateBlocks checks the per-proposal block invariants.
func ValidateBlocks(blocks []ContentBlock) error {
	ids := make(map[string]struct{}, len(blocks))
	orders := make(map[int]struct{}, len(blocks))
	for _, block := range blocks {
		id := strings.TrimSpace(block.ID)
		if id == "" {
			return errBlockIDRequired
		}
		if _, exists := ids[id]; exists {
			return errBlockIDDuplicate
		}
		ids[id] = struct{}{}
		if block.Order < 0 {
			return errBlockOrder
		}
		if _, exists := orders[block.Order]; exists {
			return errBlockOrder
		}
		orders[block.Order] = struct{}{}
	}
	return nil
}

// SortBlocks returns a copy of blocks in rendering order.
func SortBlocks(blocks []ContentBlock) []ContentBlock {
	items := CloneBlocks(blocks)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
	return items
}

func CloneBlocks(blocks []ContentBlock) []ContentBlock {
	if blocks == nil {
		return nil
	}
	items := make([]ContentBlock, 0, len(blocks))
	for _, block := range blocks {
		copied := block
		copied.Content.Items = append([]BlockItem(nil), block.Content.Items...)
		if block.Metadata != nil {
			copied.Metadata = make(map[string]any, len(block.Metadata))
			for key, value := range block.Metadata {
				copied.Metadata[key] = value
			}
		}
		items = append(items, copied)
	}
	return items
}
