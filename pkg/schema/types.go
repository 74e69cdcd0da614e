package schema

// FieldType is the enum of input kinds an ontology can declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeEmail    FieldType = "email"
	FieldTypeTel      FieldType = "tel"
	FieldTypeDate     FieldType = "date"
	FieldTypeNumber   FieldType = "number"
	FieldTypeSelect   FieldType = "select"
	FieldTypeRadio    FieldType = "radio"
	FieldTypeTextArea FieldType = "textarea"
	FieldTypeFile     FieldType = "file"
)

// FieldDescriptor is one entry in an ontology: everything the engine needs to
// decide how a field is shown, when it is shown, and how its value is
// captured. Descriptors are immutable once a schema has been normalised.
type FieldDescriptor struct {
	// Property is the unique key identifying the field inside a schema. The
	// trigger classifier and the form state store both index by it.
	Property string `json:"property" yaml:"property"`

	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	HelpText string `json:"helpText,omitempty" yaml:"helpText,omitempty"`

	Type     FieldType `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`

	// Options is the ordered set of allowed discrete values for select, radio,
	// and multi-select fields.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`

	// MultiSelect marks the value as an ordered set rather than a scalar.
	MultiSelect bool `json:"isMultiSelect,omitempty" yaml:"isMultiSelect,omitempty"`

	// ConditionalDisplay holds the visibility expression. Empty means the
	// field is always visible.
	ConditionalDisplay string `json:"conditionalDisplay,omitempty" yaml:"conditionalDisplay,omitempty"`

	// RequiresValidation gates the field behind the validation round-trip;
	// ValidationPrompt supplies the context passed to the validation service.
	RequiresValidation bool   `json:"requiresValidation,omitempty" yaml:"requiresValidation,omitempty"`
	ValidationPrompt   string `json:"validationPrompt,omitempty" yaml:"validationPrompt,omitempty"`

	// FormSection is an optional explicit grouping tag resolved by the section
	// grouper's lookup table.
	FormSection string `json:"formSection,omitempty" yaml:"formSection,omitempty"`

	// DefaultValue is applied once, the first time the field becomes visible
	// while empty.
	DefaultValue any `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
}

// Schema is the ordered field list for one form section, plus optional named
// subforms keyed by the option value that reveals them.
type Schema struct {
	Name   string            `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`

	// Subforms maps an option value (for example a vehicle-modification
	// category) to the nested field group it reveals. Subforms follow the same
	// visibility and render contracts recursively.
	Subforms map[string]*Schema `json:"subforms,omitempty" yaml:"subforms,omitempty"`
}

// Field returns the descriptor for a property, if present.
func (s *Schema) Field(property string) (FieldDescriptor, bool) {
	if s == nil {
		return FieldDescriptor{}, false
	}
	for _, field := range s.Fields {
		if field.Property == property {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Properties returns every property key in schema order.
func (s *Schema) Properties() []string {
	if s == nil || len(s.Fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.Fields))
	for _, field := range s.Fields {
		out = append(out, field.Property)
	}
	return out
}
