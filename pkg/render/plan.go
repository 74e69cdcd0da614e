// Package render defines the contract between the form engine and concrete
// renderers: a materialised Plan of visible fields, grouped and ordered, with
// a resolved input affordance per field. How a plan is painted is a renderer
// concern; the engine only guarantees the structure.
package render

import (
	"github.com/quotelane/go-quoteform/pkg/gate"
	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Plan is one materialisation of the form for the current values. It is
// recomputed after every mutation and never stored.
type Plan struct {
	Title    string
	Sections []Section
}

// Section is a named group of entries in fixed render order.
type Section struct {
	ID    string
	Title string

	// Optional sections start collapsed and show Banner when expanded.
	Optional  bool
	Collapsed bool
	Banner    string

	// Active marks an optional section whose controlling field answered
	// YES/true, so the UI can badge it even while collapsed.
	Active bool

	Entries []Entry
}

// Entry is either a standalone field or a trigger with its grouped
// dependents. Dependents never appear in their natural schema position; the
// group renders directly beneath the trigger, labelled with the trigger's own
// label.
type Entry struct {
	Field FieldView

	// Dependents holds the trigger's currently visible dependents in
	// depth-first schema order, including dependents revealed by other
	// dependents. Empty for non-trigger fields.
	Dependents []FieldView

	// Subforms holds nested field groups revealed by selected option values.
	Subforms []Subform
}

// Grouped reports whether the entry renders as a bordered trigger group.
func (e Entry) Grouped() bool { return len(e.Dependents) > 0 }

// Subform is a nested plan revealed by one selected option value.
type Subform struct {
	Key      string
	Sections []Section
}

// FieldView is a field ready to paint: its descriptor, the resolved
// affordance, the current value, and — for gated fields — the validation
// state.
type FieldView struct {
	Descriptor schema.FieldDescriptor
	Affordance Affordance
	Value      any
	GateState  gate.State
}

// Gated reports whether the field's value is controlled by the validation
// gate rather than by direct edits.
func (v FieldView) Gated() bool { return v.Descriptor.RequiresValidation }
