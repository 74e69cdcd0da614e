// Package formstate holds the live values of a form and publishes visibility
// transitions. The store itself knows nothing about schemas or conditions; the
// engine injects a recompute function and reacts to the events the store
// emits. Keeping defaults and gate auto-open out of the store is what breaks
// the write → recompute → write cycle: side effects only ever fire from a
// "field became newly visible" transition, never from a general recompute.
package formstate

import (
	"sort"
	"sync"
)

// Recompute maps current values to the visible set. changed names the
// property whose value just changed, letting implementations re-evaluate only
// the conditions that reference it; it is empty for the initial computation.
// previous is the last visible set and must not be mutated.
type Recompute func(values map[string]any, changed string, previous map[string]bool) map[string]bool

// Event describes one mutation and the visibility transitions it caused.
type Event struct {
	// Property is the mutated key; empty for the initial Refresh.
	Property string
	Value    any

	// NewlyVisible and NewlyHidden list properties whose visibility flipped,
	// in schema order.
	NewlyVisible []string
	NewlyHidden  []string
}

// Subscriber receives store events. Subscribers run outside the store lock
// and may call Update again.
type Subscriber func(Event)

// Store is the single mutation entry point for form values.
type Store struct {
	mu          sync.Mutex
	values      map[string]any
	visible     map[string]bool
	order       []string
	recompute   Recompute
	subscribers map[int]Subscriber
	nextSub     int
}

// Option configures a Store.
type Option func(*Store)

// WithRecompute injects the visibility function invoked after every mutation.
func WithRecompute(fn Recompute) Option {
	return func(s *Store) {
		s.recompute = fn
	}
}

// WithOrder fixes the property order used when reporting visibility diffs.
// Typically this is the schema's property order.
func WithOrder(order []string) Option {
	return func(s *Store) {
		s.order = append([]string(nil), order...)
	}
}

// New constructs an empty store.
func New(options ...Option) *Store {
	s := &Store{
		values:      make(map[string]any),
		visible:     make(map[string]bool),
		subscribers: make(map[int]Subscriber),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Subscribe registers a subscriber and returns its unsubscribe function.
func (s *Store) Subscribe(fn Subscriber) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Read returns the current value for a property, or nil when unset.
func (s *Store) Read(property string) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[property]
}

// Values returns a copy of every stored value.
func (s *Store) Values() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valuesLocked()
}

func (s *Store) valuesLocked() map[string]any {
	out := make(map[string]any, len(s.values))
	for key, value := range s.values {
		out[key] = value
	}
	return out
}

// Visible reports the last computed visibility for a property.
func (s *Store) Visible(property string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[property]
}

// VisibleSet returns a copy of the current visibility snapshot.
func (s *Store) VisibleSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.visible))
	for key, visible := range s.visible {
		out[key] = visible
	}
	return out
}

// Update replaces a property's value, recomputes visibility, and notifies
// subscribers of the transitions. Hidden fields keep their values; hiding is
// purely a visibility concern.
func (s *Store) Update(property string, value any) {
	s.mu.Lock()
	s.values[property] = value
	event := s.recomputeLocked(property, value)
	subscribers := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

// Refresh computes the initial visibility snapshot and emits the resulting
// transitions with an empty Property. Call it once after wiring subscribers
// so always-visible fields get their defaults and auto-open passes.
func (s *Store) Refresh() {
	s.mu.Lock()
	event := s.recomputeLocked("", nil)
	subscribers := s.subscribersLocked()
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(event)
	}
}

func (s *Store) recomputeLocked(property string, value any) Event {
	event := Event{Property: property, Value: value}
	if s.recompute == nil {
		return event
	}

	next := s.recompute(s.valuesLocked(), property, s.visible)
	event.NewlyVisible, event.NewlyHidden = s.diffLocked(next)
	s.visible = next
	return event
}

func (s *Store) diffLocked(next map[string]bool) (shown, hidden []string) {
	keys := s.order
	if len(keys) == 0 {
		seen := make(map[string]struct{}, len(next)+len(s.visible))
		for key := range next {
			seen[key] = struct{}{}
		}
		for key := range s.visible {
			seen[key] = struct{}{}
		}
		keys = make([]string, 0, len(seen))
		for key := range seen {
			keys = append(keys, key)
		}
		sort.Strings(keys)
	}

	for _, key := range keys {
		was := s.visible[key]
		now := next[key]
		switch {
		case now && !was:
			shown = append(shown, key)
		case was && !now:
			hidden = append(hidden, key)
		}
	}
	return shown, hidden
}

func (s *Store) subscribersLocked() []Subscriber {
	out := make([]Subscriber, 0, len(s.subscribers))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subscribers[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
