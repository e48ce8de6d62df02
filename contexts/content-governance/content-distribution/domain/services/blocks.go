package services

import (
	"bytes"
	"encoding/json"
	"strings"

	"maestro/contexts/content-governance/content-distribution/domain/entities"
)

type wireBlock struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content"`
	Order    int             `json:"order"`
	Metadata map[string]any  `json:"metadata"`
}

type wireStructured struct {
	Text  string `json:"text"`
	Items []struct {
		Text string `json:"text"`
	} `json:"items"`
}

// DecodeBlocks reads the stored block array. Block content is either a JSON
// string or an object with text and items; both flatten to plain text.
func DecodeBlocks(raw []byte) ([]entities.Block, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var wire []wireBlock
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, err
	}
	blocks := make([]entities.Block, 0, len(wire))
	for _, item := range wire {
		text, err := flattenContent(item.Content)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, entities.Block{
			ID:       strings.TrimSpace(item.ID),
			Type:     strings.ToLower(strings.TrimSpace(item.Type)),
			Text:     text,
			Order:    item.Order,
			Metadata: item.Metadata,
		})
	}
	return blocks, nil
}

func flattenContent(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var text string
		err := json.Unmarshal(trimmed, &text)
		return text, err
	}
	var payload wireStructured
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(payload.Items)+1)
	if text := strings.TrimSpace(payload.Text); text != "" {
		parts = append(parts, text)
	}
	for _, item := range payload.Items {
		if text := strings.TrimSpace(item.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n"), nil
}
