package condition

import (
	"errors"
	"testing"
)

func TestParseSinglePredicate(t *testing.T) {
	t.Parallel()

	expr, err := Parse("licenceType=FULL_UK")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	eq, ok := expr.(Equals)
	if !ok {
		t.Fatalf("expected Equals node, got %T", expr)
	}
	if eq.Field != "licenceType" || eq.Value != "FULL_UK" {
		t.Fatalf("unexpected node: %+v", eq)
	}
}

func TestParseEmptyIsAlwaysVisible(t *testing.T) {
	t.Parallel()

	expr, err := Parse("   ")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if expr != nil {
		t.Fatalf("expected nil expression for blank rule, got %T", expr)
	}
}

func TestParseOperatorPriority(t *testing.T) {
	t.Parallel()

	expr, err := Parse("modifications_includes=ENGINE")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, ok := expr.(Includes); !ok {
		t.Fatalf("expected Includes node, got %T", expr)
	}

	expr, err = Parse("licenceType!=FULL_UK")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, ok := expr.(NotEquals); !ok {
		t.Fatalf("expected NotEquals node, got %T", expr)
	}
}

func TestParseRejectsMixedCombinators(t *testing.T) {
	t.Parallel()

	_, err := Parse("a=1 AND b=2 OR c=3")
	if !errors.Is(err, ErrMixedCombinators) {
		t.Fatalf("expected ErrMixedCombinators, got %v", err)
	}
}

func TestParseRejectsMalformedPredicates(t *testing.T) {
	t.Parallel()

	cases := []string{
		"justAWord",
		"=VALUE",
		"field=",
		"a=1 AND nonsense",
	}
	for _, raw := range cases {
		if _, err := Parse(raw); err == nil {
			t.Fatalf("expected parse error for %q", raw)
		}
	}
}

func TestVisibleFailsOpen(t *testing.T) {
	t.Parallel()

	if !Visible("total nonsense", nil) {
		t.Fatalf("malformed expression must fail open")
	}
	if !Visible("", nil) {
		t.Fatalf("empty expression must be visible")
	}
	if Visible("hasConvictions=YES", map[string]any{"hasConvictions": false}) {
		t.Fatalf("well-formed false expression must hide the field")
	}
}

func TestReferencesAndProperties(t *testing.T) {
	t.Parallel()

	expr, err := Parse("licenceType=EU_EEA OR licenceType=INTERNATIONAL")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if !expr.References("licenceType") {
		t.Fatalf("expected expression to reference licenceType")
	}
	if expr.References("vehicleMake") {
		t.Fatalf("unexpected reference to vehicleMake")
	}
	props := Properties(expr)
	if len(props) != 1 || props[0] != "licenceType" {
		t.Fatalf("unexpected properties: %v", props)
	}
}
