package render

import (
	"sort"
	"sync"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Affordance names the input control a renderer should use for a field.
type Affordance string

const (
	AffordanceText        Affordance = "text"
	AffordanceTextArea    Affordance = "textarea"
	AffordanceGatedText   Affordance = "gated-text"
	AffordanceSelect      Affordance = "select"
	AffordanceMultiSelect Affordance = "multiselect"
	AffordanceRadio       Affordance = "radio"
	AffordanceDate        Affordance = "date"
	AffordanceNumber      Affordance = "number"
	AffordanceEmail       Affordance = "email"
	AffordanceTel         Affordance = "tel"
	AffordanceFile        Affordance = "file"
)

// Matcher decides whether an affordance should handle the supplied field.
type Matcher func(field schema.FieldDescriptor) bool

type rule struct {
	affordance Affordance
	priority   int
	match      Matcher
	order      int
}

// Registry resolves the affordance for a field. Higher priority wins; ties
// fall back to registration order. Resolution always succeeds: fields nothing
// matches fall back to plain text.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in matchers registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher for an affordance with the provided priority.
func (r *Registry) Register(affordance Affordance, priority int, matcher Matcher) {
	if r == nil || matcher == nil || affordance == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		affordance: affordance,
		priority:   priority,
		match:      matcher,
		order:      len(r.rules),
	})
}

// Resolve returns the affordance for a field.
func (r *Registry) Resolve(field schema.FieldDescriptor) Affordance {
	if r == nil {
		return AffordanceText
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.affordance
		}
	}
	return AffordanceText
}

func (r *Registry) registerBuiltins() {
	// Gated fields outrank everything: the control must be inert to direct
	// typing no matter what type the schema declares.
	r.Register(AffordanceGatedText, 100, func(field schema.FieldDescriptor) bool {
		return field.RequiresValidation
	})

	r.Register(AffordanceMultiSelect, 90, func(field schema.FieldDescriptor) bool {
		return field.MultiSelect && len(field.Options) > 0
	})

	r.Register(AffordanceRadio, 80, func(field schema.FieldDescriptor) bool {
		return field.Type == schema.FieldTypeRadio
	})

	r.Register(AffordanceSelect, 70, func(field schema.FieldDescriptor) bool {
		return field.Type == schema.FieldTypeSelect || len(field.Options) > 0
	})

	r.Register(AffordanceTextArea, 60, func(field schema.FieldDescriptor) bool {
		return field.Type == schema.FieldTypeTextArea
	})

	typed := map[schema.FieldType]Affordance{
		schema.FieldTypeDate:   AffordanceDate,
		schema.FieldTypeNumber: AffordanceNumber,
		schema.FieldTypeEmail:  AffordanceEmail,
		schema.FieldTypeTel:    AffordanceTel,
		schema.FieldTypeFile:   AffordanceFile,
	}
	for fieldType, affordance := range typed {
		fieldType, affordance := fieldType, affordance
		r.Register(affordance, 50, func(field schema.FieldDescriptor) bool {
			return field.Type == fieldType
		})
	}
}
