package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a schema document from JSON or YAML and normalises it. The
// format is sniffed from the payload itself so loaders do not need to care
// about file extensions.
func Parse(data []byte) (*Schema, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("schema: empty document")
	}

	var doc Schema
	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("schema: decode json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("schema: decode yaml: %w", err)
		}
	}

	normalized := Normalize(&doc)
	if len(normalized.Fields) == 0 {
		return nil, fmt.Errorf("schema: document defines no fields")
	}
	return normalized, nil
}

func looksLikeJSON(data []byte) bool {
	trimmed := strings.TrimSpace(string(data))
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
