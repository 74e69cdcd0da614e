// Package condition implements the visibility expression language used by
// ontology schemas. Expressions are parsed once, when a schema loads, into a
// small tagged AST; evaluation against live form values is pure and cannot
// fail, so a malformed schema never takes the form down at interaction time.
package condition

// Expr is a parsed visibility expression. Eval reports whether the expression
// holds for the supplied form values; References reports whether the
// expression reads the given property.
type Expr interface {
	Eval(values map[string]any) bool
	References(property string) bool
	properties(dest map[string]struct{})
}

// Equals is the `field=VALUE` predicate. YES/NO match booleans and null
// matches the empty value, per the schema contract.
type Equals struct {
	Field string
	Value string
}

// Eval implements Expr.
func (e Equals) Eval(values map[string]any) bool {
	return matches(values[e.Field], e.Value)
}

// References implements Expr.
func (e Equals) References(property string) bool { return e.Field == property }

func (e Equals) properties(dest map[string]struct{}) { dest[e.Field] = struct{}{} }

// NotEquals is the `field!=VALUE` predicate, the exact complement of Equals
// for every value, including the null and YES/NO special cases.
type NotEquals struct {
	Field string
	Value string
}

// Eval implements Expr.
func (e NotEquals) Eval(values map[string]any) bool {
	return !matches(values[e.Field], e.Value)
}

// References implements Expr.
func (e NotEquals) References(property string) bool { return e.Field == property }

func (e NotEquals) properties(dest map[string]struct{}) { dest[e.Field] = struct{}{} }

// Includes is the `field_includes=VALUE` predicate: membership in an array
// value or in the trimmed tokens of a comma-joined string.
type Includes struct {
	Field string
	Value string
}

// Eval implements Expr.
func (e Includes) Eval(values map[string]any) bool {
	return includes(values[e.Field], e.Value)
}

// References implements Expr.
func (e Includes) References(property string) bool { return e.Field == property }

func (e Includes) properties(dest map[string]struct{}) { dest[e.Field] = struct{}{} }

// And holds when every term holds.
type And struct {
	Terms []Expr
}

// Eval implements Expr.
func (e And) Eval(values map[string]any) bool {
	for _, term := range e.Terms {
		if !term.Eval(values) {
			return false
		}
	}
	return true
}

// References implements Expr.
func (e And) References(property string) bool {
	for _, term := range e.Terms {
		if term.References(property) {
			return true
		}
	}
	return false
}

func (e And) properties(dest map[string]struct{}) {
	for _, term := range e.Terms {
		term.properties(dest)
	}
}

// Or holds when any term holds.
type Or struct {
	Terms []Expr
}

// Eval implements Expr.
func (e Or) Eval(values map[string]any) bool {
	for _, term := range e.Terms {
		if term.Eval(values) {
			return true
		}
	}
	return false
}

// References implements Expr.
func (e Or) References(property string) bool {
	for _, term := range e.Terms {
		if term.References(property) {
			return true
		}
	}
	return false
}

func (e Or) properties(dest map[string]struct{}) {
	for _, term := range e.Terms {
		term.properties(dest)
	}
}

// Properties returns the distinct property keys an expression reads, in no
// particular order. A nil expression reads nothing.
func Properties(expr Expr) []string {
	if expr == nil {
		return nil
	}
	set := make(map[string]struct{})
	expr.properties(set)
	out := make([]string, 0, len(set))
	for property := range set {
		out = append(out, property)
	}
	return out
}
