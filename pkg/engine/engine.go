// Package engine wires the conditional form pipeline together: a compiled
// schema, the trigger classifier, the section grouper, the form state store,
// and the validation gate. One Engine drives one form instance.
package engine

import (
	"errors"
	"fmt"

	"github.com/quotelane/go-quoteform/pkg/condition"
	"github.com/quotelane/go-quoteform/pkg/formstate"
	"github.com/quotelane/go-quoteform/pkg/gate"
	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/schema"
	"github.com/quotelane/go-quoteform/pkg/section"
	"github.com/quotelane/go-quoteform/pkg/trigger"
)

// ErrFieldGated is returned by Update for fields that require validation;
// their values only enter form state through an accepted gate interaction.
var ErrFieldGated = errors.New("engine: field is gated; open a validation interaction instead")

// compiled is a schema with its conditions parsed and its reverse index
// built, recursively for subforms.
type compiled struct {
	schema     *schema.Schema
	conditions map[string]condition.Expr
	classifier *trigger.Classifier
	subforms   map[string]*compiled
}

// compile parses every conditionalDisplay expression once. Expressions that
// mix AND and OR are rejected outright: the grammar defines no precedence for
// them, so guessing intent at load time is worse than failing loudly. Any
// other malformed expression fails open: the field stays visible and depends
// on nothing.
func compile(s *schema.Schema) (*compiled, error) {
	c := &compiled{
		schema:     s,
		conditions: make(map[string]condition.Expr),
	}

	for _, field := range s.Fields {
		if field.ConditionalDisplay == "" {
			continue
		}
		expr, err := condition.Parse(field.ConditionalDisplay)
		if err != nil {
			if errors.Is(err, condition.ErrMixedCombinators) {
				return nil, fmt.Errorf("engine: field %q: %w", field.Property, err)
			}
			continue
		}
		if expr != nil {
			c.conditions[field.Property] = expr
		}
	}
	c.classifier = trigger.Classify(s, c.conditions)

	if len(s.Subforms) > 0 {
		c.subforms = make(map[string]*compiled, len(s.Subforms))
		for key, sub := range s.Subforms {
			compiledSub, err := compile(sub)
			if err != nil {
				return nil, fmt.Errorf("engine: subform %q: %w", key, err)
			}
			c.subforms[key] = compiledSub
		}
	}
	return c, nil
}

// field resolves a property against the schema, searching subforms
// recursively. The root schema wins when a property appears at both levels.
func (c *compiled) field(property string) (schema.FieldDescriptor, bool) {
	if field, ok := c.schema.Field(property); ok {
		return field, true
	}
	for _, sub := range c.subforms {
		if field, ok := sub.field(property); ok {
			return field, true
		}
	}
	return schema.FieldDescriptor{}, false
}

// AutoOpenHandler is invoked when the gate auto-opens an interaction for a
// newly visible gated field. The handler owns driving the interaction to
// accept or close.
type AutoOpenHandler func(*gate.Interaction)

// Engine is the live form: immutable compiled schema plus mutable state.
type Engine struct {
	root        *compiled
	grouper     *section.Grouper
	affordances *render.Registry
	store       *formstate.Store
	gate        *gate.Gate

	appliedDefaults map[string]struct{}
	onAutoOpen      AutoOpenHandler
}

// Option customises engine construction.
type Option func(*Engine)

// WithGrouper replaces the default section grouper.
func WithGrouper(grouper *section.Grouper) Option {
	return func(e *Engine) {
		if grouper != nil {
			e.grouper = grouper
		}
	}
}

// WithAffordances replaces the default affordance registry.
func WithAffordances(registry *render.Registry) Option {
	return func(e *Engine) {
		if registry != nil {
			e.affordances = registry
		}
	}
}

// WithAutoOpenHandler registers the callback driven when a gated field
// auto-opens.
func WithAutoOpenHandler(handler AutoOpenHandler) Option {
	return func(e *Engine) {
		e.onAutoOpen = handler
	}
}

// New compiles the schema and builds a ready form engine. validator may be
// nil when the schema has no gated fields; advisor is optional either way.
func New(s *schema.Schema, validator gate.Validator, advisor gate.Advisor, options ...Option) (*Engine, error) {
	if s == nil || len(s.Fields) == 0 {
		return nil, errors.New("engine: schema has no fields")
	}

	root, err := compile(s)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		root:            root,
		grouper:         section.NewGrouper(),
		affordances:     render.NewRegistry(),
		appliedDefaults: make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	e.store = formstate.New(
		formstate.WithRecompute(e.recompute),
		formstate.WithOrder(s.Properties()),
	)
	e.gate = gate.New(validator, e.store.Update, gate.WithAdvisor(advisor))

	e.store.Subscribe(e.onTransition)
	e.store.Refresh()
	return e, nil
}

// Schema returns the compiled schema.
func (e *Engine) Schema() *schema.Schema { return e.root.schema }

// Store exposes the form state store for read access.
func (e *Engine) Store() *formstate.Store { return e.store }

// Gate exposes the validation gate.
func (e *Engine) Gate() *gate.Gate { return e.gate }

// Update mutates a non-gated field and triggers the visibility recompute.
// Gated fields are inert to direct writes, wherever the schema declares them.
func (e *Engine) Update(property string, value any) error {
	if field, ok := e.root.field(property); ok && field.RequiresValidation {
		return ErrFieldGated
	}
	e.store.Update(property, value)
	return nil
}

// Read returns the current value for a property.
func (e *Engine) Read(property string) any {
	return e.store.Read(property)
}

// OpenValidation opens a gate interaction for a gated field on demand,
// seeding it with the field's current value for re-entry edits.
func (e *Engine) OpenValidation(property string) (*gate.Interaction, error) {
	field, ok := e.root.field(property)
	if !ok {
		return nil, fmt.Errorf("engine: unknown field %q", property)
	}
	if !field.RequiresValidation {
		return nil, fmt.Errorf("engine: field %q is not gated", property)
	}
	seed := ""
	if current := e.store.Read(property); current != nil {
		seed = fmt.Sprint(current)
	}
	return e.gate.Open(field, seed)
}

// recompute implements the store's visibility function. On a targeted change
// only the conditions that reference the changed property are re-evaluated;
// everything else keeps its previous flag.
func (e *Engine) recompute(values map[string]any, changed string, previous map[string]bool) map[string]bool {
	next := make(map[string]bool, len(e.root.schema.Fields))

	full := changed == "" || len(previous) == 0
	for _, field := range e.root.schema.Fields {
		expr := e.root.conditions[field.Property]
		if expr == nil {
			next[field.Property] = true
			continue
		}
		if full || expr.References(changed) {
			next[field.Property] = expr.Eval(values)
			continue
		}
		next[field.Property] = previous[field.Property]
	}
	return next
}

// onTransition reacts to fields becoming newly visible: defaults are applied
// once, and gated fields with empty values auto-open once per session. Both
// effects fire only on the hidden→visible transition, never from a general
// recompute, which is what keeps default application and auto-open from
// looping through the store.
func (e *Engine) onTransition(event formstate.Event) {
	for _, property := range event.NewlyVisible {
		field, ok := e.root.schema.Field(property)
		if !ok {
			continue
		}

		if field.DefaultValue != nil && isEmptyValue(e.store.Read(property)) {
			if _, applied := e.appliedDefaults[property]; !applied {
				e.appliedDefaults[property] = struct{}{}
				e.store.Update(property, field.DefaultValue)
			}
		}

		if field.RequiresValidation && isEmptyValue(e.store.Read(property)) {
			if interaction, opened := e.gate.AutoOpen(field); opened && e.onAutoOpen != nil {
				e.onAutoOpen(interaction)
			}
		}
	}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
