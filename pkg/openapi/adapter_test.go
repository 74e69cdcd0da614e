package openapi

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

const quoteDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "Quote capture", "version": "1.0.0"},
  "paths": {
    "/quotes": {
      "post": {
        "operationId": "createQuote",
        "summary": "Motor quote",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["licenceType"],
                "properties": {
                  "licenceType": {
                    "type": "string",
                    "title": "Licence type",
                    "enum": ["FULL_UK", "EU_EEA", "INTERNATIONAL"],
                    "x-order": 1,
                    "x-form-section": "licence"
                  },
                  "issuingCountry": {
                    "type": "string",
                    "title": "Issuing country",
                    "x-order": 2,
                    "x-form-section": "licence",
                    "x-conditional-display": "licenceType=EU_EEA OR licenceType=INTERNATIONAL"
                  },
                  "hasConvictions": {
                    "type": "boolean",
                    "title": "Any convictions?",
                    "x-order": 3
                  },
                  "occupationDetail": {
                    "type": "string",
                    "format": "textarea",
                    "title": "Occupation",
                    "x-order": 4,
                    "x-requires-validation": true,
                    "x-validation-prompt": "Describe your occupation in detail"
                  },
                  "coverExtras": {
                    "type": "array",
                    "title": "Extras",
                    "items": {"type": "string", "enum": ["BREAKDOWN", "LEGAL", "COURTESY_CAR"]},
                    "x-order": 5
                  }
                }
              }
            }
          }
        },
        "responses": {
          "201": {"description": "created"}
        }
      }
    }
  }
}`

func TestFromDocument(t *testing.T) {
	t.Parallel()

	s, err := New().FromDocument(context.Background(), []byte(quoteDocument), "createQuote")
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	if s.Name != "Motor quote" {
		t.Fatalf("schema name = %q", s.Name)
	}

	wantOrder := []string{"licenceType", "issuingCountry", "hasConvictions", "occupationDetail", "coverExtras"}
	if diff := cmp.Diff(wantOrder, s.Properties()); diff != "" {
		t.Fatalf("property order mismatch (-want +got):\n%s", diff)
	}

	licence, ok := s.Field("licenceType")
	if !ok {
		t.Fatal("licenceType missing")
	}
	if licence.Type != schema.FieldTypeSelect || !licence.Required || licence.FormSection != "licence" {
		t.Fatalf("licenceType mapped wrong: %+v", licence)
	}

	country, _ := s.Field("issuingCountry")
	if country.ConditionalDisplay != "licenceType=EU_EEA OR licenceType=INTERNATIONAL" {
		t.Fatalf("conditional display not carried: %+v", country)
	}

	convictions, _ := s.Field("hasConvictions")
	if convictions.Type != schema.FieldTypeRadio {
		t.Fatalf("boolean must map to radio: %+v", convictions)
	}
	if diff := cmp.Diff([]string{"YES", "NO"}, convictions.Options); diff != "" {
		t.Fatalf("boolean options mismatch (-want +got):\n%s", diff)
	}

	occupation, _ := s.Field("occupationDetail")
	if !occupation.RequiresValidation || occupation.ValidationPrompt != "Describe your occupation in detail" {
		t.Fatalf("validation gating not carried: %+v", occupation)
	}
	if occupation.Type != schema.FieldTypeTextArea {
		t.Fatalf("textarea format not mapped: %+v", occupation)
	}

	extras, _ := s.Field("coverExtras")
	if !extras.MultiSelect || extras.Type != schema.FieldTypeSelect {
		t.Fatalf("array must map to multi-select: %+v", extras)
	}
	if diff := cmp.Diff([]string{"BREAKDOWN", "LEGAL", "COURTESY_CAR"}, extras.Options); diff != "" {
		t.Fatalf("item enum mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDocumentSingleOperationFallback(t *testing.T) {
	t.Parallel()

	s, err := New().FromDocument(context.Background(), []byte(quoteDocument), "")
	if err != nil {
		t.Fatalf("FromDocument with empty operationID: %v", err)
	}
	if len(s.Fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(s.Fields))
	}
}

func TestFromDocumentUnknownOperation(t *testing.T) {
	t.Parallel()

	if _, err := New().FromDocument(context.Background(), []byte(quoteDocument), "nope"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestFromDocumentEmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := New().FromDocument(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
