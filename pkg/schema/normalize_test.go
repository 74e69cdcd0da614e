package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeDropsDuplicatesFirstWins(t *testing.T) {
	t.Parallel()

	s := Normalize(&Schema{Fields: []FieldDescriptor{
		{Property: "licenceType", Label: "First"},
		{Property: "licenceType", Label: "Second"},
		{Property: "  ", Label: "Blank"},
		{Property: " issuingCountry "},
	}})

	if diff := cmp.Diff([]string{"licenceType", "issuingCountry"}, s.Properties()); diff != "" {
		t.Fatalf("properties mismatch (-want +got):\n%s", diff)
	}
	licence, _ := s.Field("licenceType")
	if licence.Label != "First" {
		t.Fatalf("first occurrence must win, got %q", licence.Label)
	}
}

func TestNormalizeSanitisesDisplayStrings(t *testing.T) {
	t.Parallel()

	s := Normalize(&Schema{Fields: []FieldDescriptor{
		{
			Property:         "occupationDetail",
			Label:            `Occupation <script>alert("x")</script>`,
			HelpText:         "<b>bold</b> help",
			ValidationPrompt: "<img src=x onerror=hack()>Describe it",
		},
	}})

	field, _ := s.Field("occupationDetail")
	if field.Label != "Occupation" {
		t.Fatalf("script not stripped from label: %q", field.Label)
	}
	if field.HelpText != "bold help" {
		t.Fatalf("markup not stripped from help: %q", field.HelpText)
	}
	if field.ValidationPrompt != "Describe it" {
		t.Fatalf("markup not stripped from prompt: %q", field.ValidationPrompt)
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	s := Normalize(&Schema{Fields: []FieldDescriptor{
		{Property: "cover", Options: []string{" COMPREHENSIVE ", "", "COMPREHENSIVE", "THIRD_PARTY"}},
	}})

	field, _ := s.Field("cover")
	if diff := cmp.Diff([]string{"COMPREHENSIVE", "THIRD_PARTY"}, field.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
