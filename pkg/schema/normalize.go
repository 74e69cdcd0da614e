package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	displayPolicyOnce sync.Once
	displayPolicy     *bluemonday.Policy
)

// Normalize prepares an externally supplied schema for use by the engine:
// duplicate properties are dropped (first occurrence wins), blank properties
// are removed, and display strings are sanitised. Subforms are normalised
// recursively. The input is not mutated.
func Normalize(in *Schema) *Schema {
	if in == nil {
		return nil
	}

	out := &Schema{Name: strings.TrimSpace(in.Name)}

	seen := make(map[string]struct{}, len(in.Fields))
	for _, field := range in.Fields {
		property := strings.TrimSpace(field.Property)
		if property == "" {
			continue
		}
		if _, dup := seen[property]; dup {
			// The ontology is semi-trusted input; duplicates are defined
			// behaviour, not an error. First occurrence wins.
			continue
		}
		seen[property] = struct{}{}

		field.Property = property
		field.Label = sanitizeDisplay(field.Label)
		field.HelpText = sanitizeDisplay(field.HelpText)
		field.ValidationPrompt = sanitizeDisplay(field.ValidationPrompt)
		field.FormSection = strings.TrimSpace(field.FormSection)
		field.ConditionalDisplay = strings.TrimSpace(field.ConditionalDisplay)
		field.Options = normalizeOptions(field.Options)
		out.Fields = append(out.Fields, field)
	}

	if len(in.Subforms) > 0 {
		out.Subforms = make(map[string]*Schema, len(in.Subforms))
		for key, sub := range in.Subforms {
			key = strings.TrimSpace(key)
			if key == "" || sub == nil {
				continue
			}
			out.Subforms[key] = Normalize(sub)
		}
	}

	return out
}

func normalizeOptions(options []string) []string {
	if len(options) == 0 {
		return nil
	}
	out := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, option := range options {
		trimmed := strings.TrimSpace(option)
		if trimmed == "" {
			continue
		}
		if _, dup := seen[trimmed]; dup {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeDisplay(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(displaySanitizer().Sanitize(trimmed))
}

func displaySanitizer() *bluemonday.Policy {
	displayPolicyOnce.Do(func() {
		displayPolicy = bluemonday.StrictPolicy()
	})
	return displayPolicy
}
