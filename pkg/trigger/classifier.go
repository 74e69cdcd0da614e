// Package trigger classifies schema fields into triggers and dependents by
// analysing which properties each field's visibility condition reads.
package trigger

import (
	"github.com/quotelane/go-quoteform/pkg/condition"
	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Classifier holds the reverse index from a trigger property to the fields
// whose visibility depends on it. It is built once per schema and is
// immutable afterwards; treat it as safe for concurrent readers.
type Classifier struct {
	fields     []schema.FieldDescriptor
	byProperty map[string]schema.FieldDescriptor

	// dependents lists, per trigger property, its dependent properties in
	// schema order.
	dependents map[string][]string

	// owner maps a dependent to the trigger whose group renders it. When a
	// dependent is referenced by several triggers, the first trigger in schema
	// order wins so grouping stays deterministic.
	owner map[string]string
}

// Classify builds the reverse index for a schema. conditions carries the
// parsed expression per property; properties whose expressions failed to
// parse should be absent (they fail open and depend on nothing).
func Classify(s *schema.Schema, conditions map[string]condition.Expr) *Classifier {
	c := &Classifier{
		byProperty: make(map[string]schema.FieldDescriptor),
		dependents: make(map[string][]string),
		owner:      make(map[string]string),
	}
	if s == nil {
		return c
	}

	c.fields = s.Fields
	for _, field := range s.Fields {
		c.byProperty[field.Property] = field
	}

	for _, candidate := range s.Fields {
		for _, field := range s.Fields {
			if field.Property == candidate.Property {
				continue
			}
			expr, ok := conditions[field.Property]
			if !ok || expr == nil {
				continue
			}
			if !expr.References(candidate.Property) {
				continue
			}
			c.dependents[candidate.Property] = append(c.dependents[candidate.Property], field.Property)
			if _, owned := c.owner[field.Property]; !owned {
				c.owner[field.Property] = candidate.Property
			}
		}
	}

	return c
}

// IsTrigger reports whether any other field's condition references property.
func (c *Classifier) IsTrigger(property string) bool {
	if c == nil {
		return false
	}
	return len(c.dependents[property]) > 0
}

// IsDependent reports whether the field renders inside a trigger's group
// rather than in its natural schema position.
func (c *Classifier) IsDependent(property string) bool {
	if c == nil {
		return false
	}
	_, ok := c.owner[property]
	return ok
}

// Owner returns the trigger whose group owns the dependent, if any.
func (c *Classifier) Owner(property string) (string, bool) {
	if c == nil {
		return "", false
	}
	owner, ok := c.owner[property]
	return owner, ok
}

// Dependents returns the dependent properties of a trigger in schema order,
// regardless of current visibility.
func (c *Classifier) Dependents(property string) []string {
	if c == nil {
		return nil
	}
	return c.dependents[property]
}

// TriggeredFields returns the trigger's currently visible dependents, in
// schema order, skipping dependents owned by an earlier trigger.
func (c *Classifier) TriggeredFields(property string, visible map[string]bool) []schema.FieldDescriptor {
	if c == nil {
		return nil
	}
	var out []schema.FieldDescriptor
	for _, dependent := range c.dependents[property] {
		if c.owner[dependent] != property {
			continue
		}
		if !visible[dependent] {
			continue
		}
		if field, ok := c.byProperty[dependent]; ok {
			out = append(out, field)
		}
	}
	return out
}

// Triggers returns every trigger property in schema order.
func (c *Classifier) Triggers() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, field := range c.fields {
		if c.IsTrigger(field.Property) {
			out = append(out, field.Property)
		}
	}
	return out
}
