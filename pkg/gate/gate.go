// Package gate implements the human-in-the-loop validation step that sits in
// front of form state for selected free-text fields. A gated field's rendered
// control is inert; the only path for a value into the store is an accepted
// validation round-trip through an Interaction.
package gate

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// State enumerates the per-field validation lifecycle.
type State string

const (
	StateEmpty         State = "empty"
	StateAwaitingInput State = "awaiting_input"
	StatePending       State = "pending"
	StateAccepted      State = "accepted"
	StateRejected      State = "rejected"
)

// RetryMessage is surfaced when the validation service cannot be reached.
const RetryMessage = "The validation service could not be reached. Please try again."

var (
	// ErrInteractionActive is returned when opening a second interaction while
	// one is already open. The gate is a single-slot resource.
	ErrInteractionActive = errors.New("gate: an interaction is already open")

	// ErrInteractionClosed is returned when submitting to an interaction that
	// has been closed or superseded.
	ErrInteractionClosed = errors.New("gate: interaction is closed")

	// ErrStaleResponse marks a validation response that arrived after its
	// request was superseded or its interaction closed; the response is
	// discarded.
	ErrStaleResponse = errors.New("gate: stale validation response discarded")

	// ErrNotValidated is returned when accepting an interaction whose last
	// round-trip did not succeed.
	ErrNotValidated = errors.New("gate: input has not passed validation")
)

// Request is the validation wire request.
type Request struct {
	FieldName        string `json:"fieldName"`
	UserInput        string `json:"userInput"`
	ValidationPrompt string `json:"validationPrompt"`
}

// Outcome is the validation wire response.
type Outcome struct {
	Valid        bool   `json:"isValid"`
	Message      string `json:"message"`
	RequiredInfo string `json:"requiredInfo,omitempty"`
	Suggestions  string `json:"suggestions,omitempty"`
}

// AdvisoryRequest is the one-shot hint request issued when an interaction
// opens. Its result never gates commit.
type AdvisoryRequest struct {
	Field     string `json:"field"`
	Prompt    string `json:"prompt"`
	UserInput string `json:"userInput"`
}

// Validator performs the blocking validation round-trip.
type Validator interface {
	Validate(ctx context.Context, req Request) (Outcome, error)
}

// Advisor performs the non-essential advisory hint round-trip.
type Advisor interface {
	Advise(ctx context.Context, req AdvisoryRequest) (string, error)
}

// CommitFunc writes an accepted value into form state.
type CommitFunc func(property string, value any)

// Gate coordinates validation interactions across every gated field of a
// form. At most one interaction is open at a time.
type Gate struct {
	mu         sync.Mutex
	validator  Validator
	advisor    Advisor
	commit     CommitFunc
	states     map[string]State
	autoOpened map[string]struct{}
	active     *Interaction
}

// Option configures a Gate.
type Option func(*Gate)

// WithAdvisor attaches the optional hint service.
func WithAdvisor(advisor Advisor) Option {
	return func(g *Gate) {
		g.advisor = advisor
	}
}

// New constructs a Gate. commit is invoked with the field's property and the
// accepted input; typically it wraps the form state store's update.
func New(validator Validator, commit CommitFunc, options ...Option) *Gate {
	g := &Gate{
		validator:  validator,
		commit:     commit,
		states:     make(map[string]State),
		autoOpened: make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(g)
	}
	return g
}

// StateOf reports the validation state for a property.
func (g *Gate) StateOf(property string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if state, ok := g.states[property]; ok {
		return state
	}
	return StateEmpty
}

// Active returns the open interaction, if any.
func (g *Gate) Active() *Interaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Open starts an interaction for a gated field. seed pre-populates the input,
// typically with the field's previously accepted value on re-entry. Open
// fails with ErrInteractionActive while another interaction is open.
func (g *Gate) Open(field schema.FieldDescriptor, seed string) (*Interaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openLocked(field, seed)
}

// AutoOpen opens an interaction for a field that just became visible with an
// empty value. It fires at most once per property per session, and reports
// whether an interaction was opened. A busy slot also suppresses the open;
// the once-guard is only consumed by a successful open.
func (g *Gate) AutoOpen(field schema.FieldDescriptor) (*Interaction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, fired := g.autoOpened[field.Property]; fired {
		return nil, false
	}
	if g.active != nil {
		return nil, false
	}

	interaction, err := g.openLocked(field, "")
	if err != nil {
		return nil, false
	}
	g.autoOpened[field.Property] = struct{}{}
	return interaction, true
}

// AutoOpened reports whether the once-per-session auto-open has fired for a
// property.
func (g *Gate) AutoOpened(property string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, fired := g.autoOpened[property]
	return fired
}

func (g *Gate) openLocked(field schema.FieldDescriptor, seed string) (*Interaction, error) {
	if g.active != nil {
		return nil, ErrInteractionActive
	}

	interaction := &Interaction{
		gate:      g,
		field:     field,
		seed:      seed,
		prior:     g.stateLocked(field.Property),
		requestID: uuid.New(),
	}
	g.active = interaction
	g.states[field.Property] = StateAwaitingInput
	return interaction, nil
}

func (g *Gate) stateLocked(property string) State {
	if state, ok := g.states[property]; ok {
		return state
	}
	return StateEmpty
}
