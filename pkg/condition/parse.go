package condition

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMixedCombinators is returned when an expression mixes AND and OR. The
// grammar defines no precedence for the combination, so schemas that rely on
// it are rejected at load time instead of being silently misread.
var ErrMixedCombinators = errors.New("condition: AND and OR cannot be mixed in one expression")

const (
	combinatorAnd = " AND "
	combinatorOr  = " OR "
)

// Parse compiles a visibility expression into an AST. An empty expression
// parses to nil, meaning "always visible". Callers decide the failure policy;
// the engine fails open on parse errors so a bad rule shows the field rather
// than hiding it.
func Parse(raw string) (Expr, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	hasAnd := strings.Contains(trimmed, combinatorAnd)
	hasOr := strings.Contains(trimmed, combinatorOr)
	if hasAnd && hasOr {
		return nil, ErrMixedCombinators
	}

	switch {
	case hasAnd:
		terms, err := parseTerms(trimmed, combinatorAnd)
		if err != nil {
			return nil, err
		}
		return And{Terms: terms}, nil
	case hasOr:
		terms, err := parseTerms(trimmed, combinatorOr)
		if err != nil {
			return nil, err
		}
		return Or{Terms: terms}, nil
	default:
		return parseAtom(trimmed)
	}
}

func parseTerms(raw, combinator string) ([]Expr, error) {
	parts := strings.Split(raw, combinator)
	terms := make([]Expr, 0, len(parts))
	for _, part := range parts {
		atom, err := parseAtom(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		terms = append(terms, atom)
	}
	return terms, nil
}

const includesOp = "_includes="

func parseAtom(raw string) (Expr, error) {
	if raw == "" {
		return nil, errors.New("condition: empty predicate")
	}

	// Operator order matters: `_includes=` and `!=` both contain `=`.
	if idx := strings.Index(raw, includesOp); idx > 0 {
		field := strings.TrimSpace(raw[:idx])
		value := strings.TrimSpace(raw[idx+len(includesOp):])
		if field == "" || value == "" {
			return nil, fmt.Errorf("condition: malformed predicate %q", raw)
		}
		return Includes{Field: field, Value: value}, nil
	}

	if idx := strings.Index(raw, "!="); idx > 0 {
		field := strings.TrimSpace(raw[:idx])
		value := strings.TrimSpace(raw[idx+len("!="):])
		if field == "" || value == "" {
			return nil, fmt.Errorf("condition: malformed predicate %q", raw)
		}
		return NotEquals{Field: field, Value: value}, nil
	}

	if idx := strings.Index(raw, "="); idx > 0 {
		field := strings.TrimSpace(raw[:idx])
		value := strings.TrimSpace(raw[idx+len("="):])
		if field == "" || value == "" {
			return nil, fmt.Errorf("condition: malformed predicate %q", raw)
		}
		return Equals{Field: field, Value: value}, nil
	}

	return nil, fmt.Errorf("condition: no operator in predicate %q", raw)
}

// Visible is the fail-open convenience entry point: it parses and evaluates
// raw in one call, returning true for empty or malformed expressions. Prefer
// Parse at schema load when the expression is evaluated repeatedly.
func Visible(raw string, values map[string]any) bool {
	expr, err := Parse(raw)
	if err != nil {
		return true
	}
	if expr == nil {
		return true
	}
	return expr.Eval(values)
}
