package engine

import (
	"strings"

	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/schema"
	"github.com/quotelane/go-quoteform/pkg/section"
)

// Materialize builds the render plan for the current form values: visible
// fields partitioned into ordered sections, triggers grouped with their
// dependents, subforms attached to the entries whose selected options reveal
// them.
func (e *Engine) Materialize() render.Plan {
	values := e.store.Values()
	visible := e.store.VisibleSet()

	return render.Plan{
		Title:    e.root.schema.Name,
		Sections: e.sections(e.root, values, visible),
	}
}

func (e *Engine) sections(c *compiled, values map[string]any, visible map[string]bool) []render.Section {
	var out []render.Section
	for _, group := range e.grouper.Partition(c.schema.Fields) {
		sec := render.Section{
			ID:        group.Definition.ID,
			Title:     group.Definition.Title,
			Optional:  group.Definition.Optional,
			Collapsed: group.Definition.Optional,
			Banner:    group.Definition.Banner,
		}

		for _, field := range group.Fields {
			if c.classifier.IsDependent(field.Property) {
				// Dependents only ever render inside their trigger's group.
				continue
			}
			if !visible[field.Property] {
				continue
			}

			entry := render.Entry{Field: e.fieldView(field, values)}
			entry.Dependents = e.dependentViews(c, field.Property, values, visible, map[string]bool{field.Property: true})
			entry.Subforms = e.subforms(c, field, values)
			sec.Entries = append(sec.Entries, entry)
		}

		if len(sec.Entries) == 0 {
			continue
		}
		sec.Active = sec.Optional && e.sectionActive(c, group, values)
		out = append(out, sec)
	}
	return out
}

// dependentViews collects a trigger's visible dependents transitively, in
// depth-first schema order. A dependent that is itself a trigger carries its
// own dependents into the same group; the seen set breaks condition cycles.
func (e *Engine) dependentViews(c *compiled, property string, values map[string]any, visible map[string]bool, seen map[string]bool) []render.FieldView {
	var out []render.FieldView
	for _, dependent := range c.classifier.TriggeredFields(property, visible) {
		if seen[dependent.Property] {
			continue
		}
		seen[dependent.Property] = true
		out = append(out, e.fieldView(dependent, values))
		out = append(out, e.dependentViews(c, dependent.Property, values, visible, seen)...)
	}
	return out
}

// sectionActive reports whether an optional section's controlling field — the
// first trigger assigned to it — answered YES/true.
func (e *Engine) sectionActive(c *compiled, group section.Group, values map[string]any) bool {
	for _, field := range group.Fields {
		if !c.classifier.IsTrigger(field.Property) {
			continue
		}
		switch v := values[field.Property].(type) {
		case bool:
			return v
		case string:
			return strings.EqualFold(v, "YES") || strings.EqualFold(v, "true")
		default:
			return false
		}
	}
	return false
}

// subforms attaches the nested field groups revealed by the entry's selected
// option values, evaluated recursively against the same form data.
func (e *Engine) subforms(c *compiled, field schema.FieldDescriptor, values map[string]any) []render.Subform {
	if len(c.subforms) == 0 || len(field.Options) == 0 {
		return nil
	}

	selected := selectedOptions(values[field.Property])
	if len(selected) == 0 {
		return nil
	}

	var out []render.Subform
	for _, option := range field.Options {
		if _, ok := selected[option]; !ok {
			continue
		}
		sub, ok := c.subforms[option]
		if !ok {
			continue
		}
		subVisible := e.subformVisibility(sub, values)
		out = append(out, render.Subform{
			Key:      option,
			Sections: e.sections(sub, values, subVisible),
		})
	}
	return out
}

func (e *Engine) subformVisibility(c *compiled, values map[string]any) map[string]bool {
	visible := make(map[string]bool, len(c.schema.Fields))
	for _, field := range c.schema.Fields {
		expr := c.conditions[field.Property]
		if expr == nil {
			visible[field.Property] = true
			continue
		}
		visible[field.Property] = expr.Eval(values)
	}
	return visible
}

func selectedOptions(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch v := value.(type) {
	case nil:
	case []string:
		for _, entry := range v {
			out[strings.TrimSpace(entry)] = struct{}{}
		}
	case []any:
		for _, entry := range v {
			out[strings.TrimSpace(stringify(entry))] = struct{}{}
		}
	case string:
		for _, token := range strings.Split(v, ",") {
			token = strings.TrimSpace(token)
			if token != "" {
				out[token] = struct{}{}
			}
		}
	default:
		out[stringify(v)] = struct{}{}
	}
	return out
}

func (e *Engine) fieldView(field schema.FieldDescriptor, values map[string]any) render.FieldView {
	view := render.FieldView{
		Descriptor: field,
		Affordance: e.affordances.Resolve(field),
		Value:      values[field.Property],
	}
	if field.RequiresValidation {
		view.GateState = e.gate.StateOf(field.Property)
	}
	return view
}
