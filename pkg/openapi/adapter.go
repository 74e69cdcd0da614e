// Package openapi derives a quote form schema from an OpenAPI operation's
// request body. Vendor extensions carry the form-specific metadata the
// OpenAPI schema model has no native home for: conditional display rules,
// validation gating, section tags, and field ordering.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Vendor extension keys recognised on request body properties.
const (
	ExtConditionalDisplay = "x-conditional-display"
	ExtRequiresValidation = "x-requires-validation"
	ExtValidationPrompt   = "x-validation-prompt"
	ExtFormSection        = "x-form-section"
	ExtMultiSelect        = "x-multi-select"
	ExtOrder              = "x-order"
)

// Adapter converts OpenAPI documents into form schemas.
type Adapter struct {
	allowExternalRefs bool
}

// Option configures the adapter.
type Option func(*Adapter)

// WithExternalRefs permits resolving $ref pointers outside the document.
func WithExternalRefs(allow bool) Option {
	return func(a *Adapter) {
		a.allowExternalRefs = allow
	}
}

// New constructs an Adapter.
func New(options ...Option) *Adapter {
	a := &Adapter{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// FromDocument loads an OpenAPI document and builds the form schema for the
// named operation's request body. With an empty operationID the document must
// contain exactly one operation carrying a request body.
func (a *Adapter) FromDocument(ctx context.Context, raw []byte, operationID string) (*schema.Schema, error) {
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: a.allowExternalRefs,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}

	operation, err := findOperation(spec, operationID)
	if err != nil {
		return nil, err
	}

	body := requestSchema(operation.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return nil, fmt.Errorf("openapi: operation %q has no request body properties", operation.OperationID)
	}

	s := &schema.Schema{Name: schemaName(operation)}
	required := make(map[string]struct{}, len(body.Required))
	for _, name := range body.Required {
		required[name] = struct{}{}
	}

	for _, name := range orderedProperties(body) {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		s.Fields = append(s.Fields, fieldFromProperty(name, ref.Value, isRequired))
	}

	return schema.Normalize(s), nil
}

func findOperation(spec *openapi3.T, operationID string) (*openapi3.Operation, error) {
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}

	var candidates []*openapi3.Operation
	for _, item := range spec.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range []*openapi3.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Patch,
		} {
			if operation == nil {
				continue
			}
			if operationID != "" {
				if operation.OperationID == operationID {
					return operation, nil
				}
				continue
			}
			if operation.RequestBody != nil {
				candidates = append(candidates, operation)
			}
		}
	}

	if operationID != "" {
		return nil, fmt.Errorf("openapi: operation %q not found", operationID)
	}
	if len(candidates) != 1 {
		return nil, fmt.Errorf("openapi: expected exactly one operation with a request body, found %d", len(candidates))
	}
	return candidates[0], nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func schemaName(operation *openapi3.Operation) string {
	if operation.Summary != "" {
		return operation.Summary
	}
	return operation.OperationID
}

// orderedProperties sorts by the x-order extension, falling back to name so
// the result is stable for documents that omit it. OpenAPI object properties
// are a map; without this the schema order, and with it trigger ownership,
// would change run to run.
func orderedProperties(body *openapi3.Schema) []string {
	type slot struct {
		name   string
		order  float64
		tagged bool
	}

	slots := make([]slot, 0, len(body.Properties))
	for name, ref := range body.Properties {
		s := slot{name: name}
		if ref != nil && ref.Value != nil {
			if order, ok := extNumber(ref.Value.Extensions, ExtOrder); ok {
				s.order = order
				s.tagged = true
			}
		}
		slots = append(slots, s)
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		switch {
		case a.tagged && b.tagged:
			if a.order != b.order {
				return a.order < b.order
			}
			return a.name < b.name
		case a.tagged:
			return true
		case b.tagged:
			return false
		default:
			return a.name < b.name
		}
	})

	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.name
	}
	return out
}

func fieldFromProperty(name string, prop *openapi3.Schema, required bool) schema.FieldDescriptor {
	field := schema.FieldDescriptor{
		Property:     name,
		Label:        prop.Title,
		HelpText:     prop.Description,
		Required:     required,
		DefaultValue: prop.Default,

		ConditionalDisplay: extString(prop.Extensions, ExtConditionalDisplay),
		RequiresValidation: extBool(prop.Extensions, ExtRequiresValidation),
		ValidationPrompt:   extString(prop.Extensions, ExtValidationPrompt),
		FormSection:        extString(prop.Extensions, ExtFormSection),
	}

	switch {
	case typeIs(prop.Type, "boolean"):
		field.Type = schema.FieldTypeRadio
		field.Options = []string{"YES", "NO"}

	case typeIs(prop.Type, "array"):
		field.Type = schema.FieldTypeSelect
		field.MultiSelect = true
		if prop.Items != nil && prop.Items.Value != nil {
			field.Options = enumStrings(prop.Items.Value.Enum)
		}

	case len(prop.Enum) > 0:
		field.Options = enumStrings(prop.Enum)
		if isYesNo(field.Options) {
			field.Type = schema.FieldTypeRadio
		} else {
			field.Type = schema.FieldTypeSelect
		}

	case typeIs(prop.Type, "number") || typeIs(prop.Type, "integer"):
		field.Type = schema.FieldTypeNumber

	default:
		field.Type = stringFieldType(prop.Format)
	}

	if extBool(prop.Extensions, ExtMultiSelect) {
		field.MultiSelect = true
	}
	return field
}

func stringFieldType(format string) schema.FieldType {
	switch format {
	case "date", "date-time":
		return schema.FieldTypeDate
	case "email":
		return schema.FieldTypeEmail
	case "tel", "phone":
		return schema.FieldTypeTel
	case "binary":
		return schema.FieldTypeFile
	case "textarea":
		return schema.FieldTypeTextArea
	default:
		return schema.FieldTypeText
	}
}

func typeIs(types *openapi3.Types, want string) bool {
	return types != nil && types.Is(want)
}

func isYesNo(options []string) bool {
	if len(options) != 2 {
		return false
	}
	return (options[0] == "YES" && options[1] == "NO") || (options[0] == "NO" && options[1] == "YES")
}

func enumStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, fmt.Sprint(value))
	}
	return out
}

func extString(extensions map[string]any, key string) string {
	value, ok := extensions[key]
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case json.RawMessage:
		var out string
		if err := json.Unmarshal(v, &out); err == nil {
			return out
		}
		return ""
	default:
		return ""
	}
}

func extBool(extensions map[string]any, key string) bool {
	value, ok := extensions[key]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	case json.RawMessage:
		var out bool
		if err := json.Unmarshal(v, &out); err == nil {
			return out
		}
		return false
	default:
		return false
	}
}

func extNumber(extensions map[string]any, key string) (float64, bool) {
	value, ok := extensions[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.RawMessage:
		var out float64
		if err := json.Unmarshal(v, &out); err == nil {
			return out, true
		}
		return 0, false
	default:
		return 0, false
	}
}
