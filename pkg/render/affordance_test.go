package render

import (
	"testing"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

func TestResolveBuiltins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	cases := []struct {
		name  string
		field schema.FieldDescriptor
		want  Affordance
	}{
		{
			name:  "gated beats everything",
			field: schema.FieldDescriptor{Type: schema.FieldTypeSelect, Options: []string{"A"}, RequiresValidation: true},
			want:  AffordanceGatedText,
		},
		{
			name:  "multi select",
			field: schema.FieldDescriptor{Type: schema.FieldTypeSelect, Options: []string{"A", "B"}, MultiSelect: true},
			want:  AffordanceMultiSelect,
		},
		{
			name:  "radio",
			field: schema.FieldDescriptor{Type: schema.FieldTypeRadio, Options: []string{"YES", "NO"}},
			want:  AffordanceRadio,
		},
		{
			name:  "select by type",
			field: schema.FieldDescriptor{Type: schema.FieldTypeSelect, Options: []string{"A"}},
			want:  AffordanceSelect,
		},
		{
			name:  "select by options",
			field: schema.FieldDescriptor{Type: schema.FieldTypeText, Options: []string{"A", "B"}},
			want:  AffordanceSelect,
		},
		{
			name:  "textarea",
			field: schema.FieldDescriptor{Type: schema.FieldTypeTextArea},
			want:  AffordanceTextArea,
		},
		{
			name:  "date",
			field: schema.FieldDescriptor{Type: schema.FieldTypeDate},
			want:  AffordanceDate,
		},
		{
			name:  "plain text fallback",
			field: schema.FieldDescriptor{Type: schema.FieldTypeText},
			want:  AffordanceText,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := reg.Resolve(tc.field); got != tc.want {
				t.Fatalf("Resolve = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRegisterCustomMatcherWins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register("postcode-lookup", 200, func(field schema.FieldDescriptor) bool {
		return field.Property == "postcode"
	})

	got := reg.Resolve(schema.FieldDescriptor{Property: "postcode", Type: schema.FieldTypeText})
	if got != "postcode-lookup" {
		t.Fatalf("custom matcher must win, got %q", got)
	}
}
