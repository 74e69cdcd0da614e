package section

import (
	"sort"
	"strings"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Grouper assigns every field to exactly one section. It is immutable after
// construction.
type Grouper struct {
	definitions []Definition
	byID        map[string]Definition
	tags        map[string]string
	keywords    map[string][]string
}

// Option customises a Grouper.
type Option func(*Grouper)

// WithDefinitions replaces the built-in section definitions.
func WithDefinitions(definitions []Definition) Option {
	return func(g *Grouper) {
		if len(definitions) > 0 {
			g.definitions = definitions
		}
	}
}

// WithTags merges extra formSection tag mappings over the defaults.
func WithTags(tags map[string]string) Option {
	return func(g *Grouper) {
		for tag, id := range tags {
			g.tags[strings.ToLower(strings.TrimSpace(tag))] = id
		}
	}
}

// WithKeywords merges extra heuristic keyword sets over the defaults.
func WithKeywords(keywords map[string][]string) Option {
	return func(g *Grouper) {
		for id, words := range keywords {
			g.keywords[id] = append(g.keywords[id], words...)
		}
	}
}

// NewGrouper constructs a Grouper with the default insurance-quote sections
// plus any overrides.
func NewGrouper(options ...Option) *Grouper {
	g := &Grouper{
		definitions: defaultDefinitions(),
		tags:        defaultTags(),
		keywords:    defaultKeywords(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}

	sort.SliceStable(g.definitions, func(i, j int) bool {
		return g.definitions[i].Order < g.definitions[j].Order
	})
	g.byID = make(map[string]Definition, len(g.definitions))
	for _, def := range g.definitions {
		g.byID[def.ID] = def
	}
	return g
}

// Definitions returns the section definitions in render order.
func (g *Grouper) Definitions() []Definition {
	out := make([]Definition, len(g.definitions))
	copy(out, g.definitions)
	return out
}

// Definition looks up a section by ID.
func (g *Grouper) Definition(id string) (Definition, bool) {
	def, ok := g.byID[id]
	return def, ok
}

// Assign returns the section ID for a field. Explicit tags take priority over
// the property-name heuristics; unmatched fields go to the general section.
func (g *Grouper) Assign(field schema.FieldDescriptor) string {
	if tag := strings.ToLower(strings.TrimSpace(field.FormSection)); tag != "" {
		if id, ok := g.tags[tag]; ok {
			if _, known := g.byID[id]; known {
				return id
			}
		}
		// Unknown explicit tags fall through to the heuristics rather than
		// inventing a section.
	}

	property := strings.ToLower(field.Property)
	for _, id := range keywordOrder {
		if _, known := g.byID[id]; !known {
			continue
		}
		for _, keyword := range g.keywords[id] {
			if strings.Contains(property, strings.ToLower(keyword)) {
				return id
			}
		}
	}
	return SectionGeneral
}

// Group is a section together with its assigned fields in schema order.
type Group struct {
	Definition Definition
	Fields     []schema.FieldDescriptor
}

// Partition assigns every field to its section and returns the non-empty
// groups in render order.
func (g *Grouper) Partition(fields []schema.FieldDescriptor) []Group {
	assigned := make(map[string][]schema.FieldDescriptor)
	for _, field := range fields {
		id := g.Assign(field)
		assigned[id] = append(assigned[id], field)
	}

	var out []Group
	for _, def := range g.definitions {
		members := assigned[def.ID]
		delete(assigned, def.ID)
		if len(members) == 0 {
			continue
		}
		out = append(out, Group{Definition: def, Fields: members})
	}

	// Custom definitions may omit the general section; fields assigned to an
	// unknown ID still need a home.
	if len(assigned) > 0 {
		fallback := Group{Definition: Definition{ID: SectionGeneral, Title: "General", Order: len(g.definitions)}}
		for _, field := range fields {
			id := g.Assign(field)
			if _, leftover := assigned[id]; leftover {
				fallback.Fields = append(fallback.Fields, field)
			}
		}
		out = append(out, fallback)
	}
	return out
}
