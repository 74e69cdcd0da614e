package gate

import (
	"context"

	"github.com/google/uuid"

	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Interaction is one open validation dialog for a gated field. It is not safe
// for concurrent use by multiple goroutines; the form is driven by a single
// logical thread of interaction events.
type Interaction struct {
	gate  *Gate
	field schema.FieldDescriptor
	seed  string

	// prior is restored when the interaction closes without an accept.
	prior State

	// requestID identifies the in-flight validation request; a response
	// carrying a superseded ID is discarded.
	requestID uuid.UUID

	input   string
	outcome *Outcome
	closed  bool
}

// Field returns the descriptor the interaction validates.
func (i *Interaction) Field() schema.FieldDescriptor { return i.field }

// Property returns the gated field's property key.
func (i *Interaction) Property() string { return i.field.Property }

// Seed returns the initial input, the field's previously accepted value on
// re-entry or empty for a fresh field.
func (i *Interaction) Seed() string { return i.seed }

// Outcome returns the result of the last validation round-trip, or nil before
// the first submit.
func (i *Interaction) Outcome() *Outcome {
	i.gate.mu.Lock()
	defer i.gate.mu.Unlock()
	return i.outcome
}

// Hint issues the one-shot advisory call and returns the reply. Failures are
// swallowed: the hint is non-essential and never gates commit.
func (i *Interaction) Hint(ctx context.Context) string {
	i.gate.mu.Lock()
	advisor := i.gate.advisor
	closed := i.closed
	i.gate.mu.Unlock()

	if advisor == nil || closed {
		return ""
	}

	reply, err := advisor.Advise(ctx, AdvisoryRequest{
		Field:     i.field.Property,
		Prompt:    i.field.ValidationPrompt,
		UserInput: i.seed,
	})
	if err != nil {
		return ""
	}
	return reply
}

// Submit runs the blocking validation round-trip for the supplied input. A
// transport failure is reported as an invalid outcome with a generic retry
// message, never as an error; the user may retry indefinitely. If the
// interaction is closed, or a newer submit supersedes this one while the
// request is in flight, the response is discarded and ErrStaleResponse is
// returned.
func (i *Interaction) Submit(ctx context.Context, input string) (Outcome, error) {
	i.gate.mu.Lock()
	if i.closed || i.gate.active != i {
		i.gate.mu.Unlock()
		return Outcome{}, ErrInteractionClosed
	}
	requestID := uuid.New()
	i.requestID = requestID
	i.input = input
	i.outcome = nil
	i.gate.states[i.field.Property] = StatePending
	validator := i.gate.validator
	i.gate.mu.Unlock()

	var (
		outcome Outcome
		err     error
	)
	if validator == nil {
		err = ErrInteractionClosed
	} else {
		outcome, err = validator.Validate(ctx, Request{
			FieldName:        i.field.Property,
			UserInput:        input,
			ValidationPrompt: i.field.ValidationPrompt,
		})
	}
	if err != nil {
		outcome = Outcome{Valid: false, Message: RetryMessage}
	}

	i.gate.mu.Lock()
	defer i.gate.mu.Unlock()

	if i.closed || i.gate.active != i || i.requestID != requestID {
		return Outcome{}, ErrStaleResponse
	}

	i.outcome = &outcome
	if outcome.Valid {
		i.gate.states[i.field.Property] = StateAwaitingInput
	} else {
		i.gate.states[i.field.Property] = StateRejected
	}
	return outcome, nil
}

// Accept commits the validated input to form state and closes the
// interaction. It fails with ErrNotValidated unless the last round-trip
// succeeded; rejection leaves form state untouched.
func (i *Interaction) Accept() error {
	i.gate.mu.Lock()
	if i.closed || i.gate.active != i {
		i.gate.mu.Unlock()
		return ErrInteractionClosed
	}
	if i.outcome == nil || !i.outcome.Valid {
		i.gate.mu.Unlock()
		return ErrNotValidated
	}

	i.closed = true
	i.gate.active = nil
	i.gate.states[i.field.Property] = StateAccepted
	commit := i.gate.commit
	property, value := i.field.Property, i.input
	i.gate.mu.Unlock()

	if commit != nil {
		// Outside the lock: commit re-enters the store and triggers a
		// visibility recompute.
		commit(property, value)
	}
	return nil
}

// Close abandons the interaction without committing. Any in-flight validation
// response is discarded when it later arrives, and the field's state reverts
// to what it was before the interaction opened.
func (i *Interaction) Close() {
	i.gate.mu.Lock()
	defer i.gate.mu.Unlock()

	if i.closed {
		return
	}
	i.closed = true
	if i.gate.active == i {
		i.gate.active = nil
	}
	i.gate.states[i.field.Property] = i.prior
}
