// Package tui drives a quote form as an interactive terminal session. The
// session walks the engine's materialised plan, prompting one field at a time
// and re-materialising after every answer so conditional fields appear the
// moment their trigger is satisfied.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/quotelane/go-quoteform/pkg/engine"
	"github.com/quotelane/go-quoteform/pkg/gate"
	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/schema"
)

// Session is one interactive capture run over a form engine.
type Session struct {
	engine       *engine.Engine
	driver       PromptDriver
	outputFormat OutputFormat
	transformer  SubmitTransformer

	asked    map[string]struct{}
	expanded map[string]struct{} // optional section IDs the user opened
	declined map[string]struct{} // optional section IDs the user skipped
}

// New constructs a session with defaults (survey driver, JSON output).
func New(e *engine.Engine, options ...Option) (*Session, error) {
	if e == nil {
		return nil, ErrNoEngine
	}

	s := &Session{
		engine:       e,
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
		asked:        make(map[string]struct{}),
		expanded:     make(map[string]struct{}),
		declined:     make(map[string]struct{}),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// ContentType reports the serialization format produced by Run.
func (s *Session) ContentType() string {
	if s.outputFormat == OutputFormatPrettyText {
		return "text/plain"
	}
	return "application/json"
}

// Run prompts until a full pass over the plan finds nothing left to ask, then
// serializes the visible answers.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	for {
		plan := s.engine.Materialize()
		view, ok, err := s.next(ctx, plan)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := s.promptField(ctx, view); err != nil {
			return nil, err
		}
	}

	values := make(map[string]any)
	collectValues(s.engine.Materialize().Sections, values)
	if s.transformer != nil {
		var err error
		values, err = s.transformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return s.serialize(values)
}

// next finds the first unanswered visible field in plan order. Optional
// sections are offered once; declining skips the whole section including any
// field a later answer would have revealed inside it.
func (s *Session) next(ctx context.Context, plan render.Plan) (render.FieldView, bool, error) {
	for _, sec := range plan.Sections {
		if sec.Optional {
			if _, declined := s.declined[sec.ID]; declined {
				continue
			}
			expanded, err := s.expandOptional(ctx, sec)
			if err != nil {
				return render.FieldView{}, false, err
			}
			if !expanded {
				continue
			}
		}
		if view, ok := s.nextInSections([]render.Section{sec}); ok {
			return view, true, nil
		}
	}
	return render.FieldView{}, false, nil
}

func (s *Session) nextInSections(sections []render.Section) (render.FieldView, bool) {
	for _, sec := range sections {
		for _, entry := range sec.Entries {
			if view, ok := s.claim(entry.Field); ok {
				return view, true
			}
			for _, dependent := range entry.Dependents {
				if view, ok := s.claim(dependent); ok {
					return view, true
				}
			}
			for _, sub := range entry.Subforms {
				if view, ok := s.nextInSections(sub.Sections); ok {
					return view, true
				}
			}
		}
	}
	return render.FieldView{}, false
}

func (s *Session) claim(view render.FieldView) (render.FieldView, bool) {
	if _, done := s.asked[view.Descriptor.Property]; done {
		return render.FieldView{}, false
	}
	return view, true
}

// expandOptional asks once whether to fill an optional section in. The
// declaration banner prints on expansion, before any of the section's prompts.
func (s *Session) expandOptional(ctx context.Context, sec render.Section) (bool, error) {
	if _, alreadyOpen := s.expanded[sec.ID]; alreadyOpen {
		return true, nil
	}

	expand, err := s.driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Do you have anything to declare under %q?", sec.Title),
		Default: sec.Active,
	})
	if err != nil {
		return false, err
	}
	if !expand {
		s.declined[sec.ID] = struct{}{}
		return false, nil
	}

	s.expanded[sec.ID] = struct{}{}
	if sec.Banner != "" {
		if err := s.driver.Info(ctx, sec.Banner); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *Session) promptField(ctx context.Context, view render.FieldView) error {
	s.asked[view.Descriptor.Property] = struct{}{}

	if view.Gated() {
		return s.promptGated(ctx, view)
	}

	field := view.Descriptor
	label := field.Label
	if label == "" {
		label = field.Property
	}

	switch view.Affordance {
	case render.AffordanceSelect, render.AffordanceRadio:
		defaultIdx := -1
		if current, ok := view.Value.(string); ok {
			defaultIdx = indexOf(field.Options, current)
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      field.Options,
			DefaultIndex: defaultIdx,
			Help:         field.HelpText,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(field.Options) {
			return fmt.Errorf("tui: invalid selection for %s", field.Property)
		}
		return s.engine.Update(field.Property, field.Options[idx])

	case render.AffordanceMultiSelect:
		var defaults []int
		if current, ok := view.Value.([]string); ok {
			defaults = indicesOf(field.Options, current)
		}
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  field.Options,
			Defaults: defaults,
			Help:     field.HelpText,
		})
		if err != nil {
			return err
		}
		return s.engine.Update(field.Property, valuesFromIndices(field.Options, indices))

	case render.AffordanceTextArea:
		response, err := s.driver.TextArea(ctx, TextAreaConfig{
			Message: label,
			Default: stringValue(view.Value),
			Help:    field.HelpText,
		})
		if err != nil {
			return err
		}
		return s.engine.Update(field.Property, response)

	default:
		response, err := s.driver.Input(ctx, InputConfig{
			Message:   label,
			Default:   stringValue(view.Value),
			Help:      field.HelpText,
			Validator: inputValidator(view),
		})
		if err != nil {
			return err
		}
		if view.Affordance == render.AffordanceNumber && strings.TrimSpace(response) != "" {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
			if err == nil {
				return s.engine.Update(field.Property, parsed)
			}
		}
		return s.engine.Update(field.Property, response)
	}
}

// promptGated runs the validation loop for a gated field: advisory hint, then
// submit and retry until the service accepts the input or the user gives up.
// The engine may already have auto-opened the interaction; reuse it when so.
func (s *Session) promptGated(ctx context.Context, view render.FieldView) error {
	field := view.Descriptor

	interaction := s.engine.Gate().Active()
	if interaction != nil && interaction.Property() != field.Property {
		// The gate auto-opened a field the walk has not reached yet. Release
		// the slot; the walk opens that field on demand when its turn comes.
		interaction.Close()
		interaction = nil
	}
	if interaction == nil {
		var err error
		interaction, err = s.engine.OpenValidation(field.Property)
		if err != nil {
			return err
		}
	}

	if hint := interaction.Hint(ctx); hint != "" {
		if err := s.driver.Info(ctx, hint); err != nil {
			return err
		}
	}

	input := interaction.Seed()
	for {
		response, err := s.driver.TextArea(ctx, TextAreaConfig{
			Message: promptMessage(field),
			Default: input,
			Help:    field.HelpText,
		})
		if err != nil {
			interaction.Close()
			return err
		}
		input = response

		outcome, err := interaction.Submit(ctx, input)
		if err != nil {
			return err
		}
		if outcome.Valid {
			if outcome.Message != "" {
				_ = s.driver.Info(ctx, outcome.Message)
			}
			return interaction.Accept()
		}

		_ = s.driver.Info(ctx, rejectionNotice(outcome))
		retry, err := s.driver.Confirm(ctx, ConfirmConfig{
			Message: "Revise and try again?",
			Default: true,
		})
		if err != nil {
			interaction.Close()
			return err
		}
		if !retry {
			interaction.Close()
			return nil
		}
	}
}

func promptMessage(field schema.FieldDescriptor) string {
	if field.ValidationPrompt != "" {
		return field.ValidationPrompt
	}
	if field.Label != "" {
		return field.Label
	}
	return field.Property
}

func rejectionNotice(outcome gate.Outcome) string {
	parts := []string{outcome.Message}
	if outcome.RequiredInfo != "" {
		parts = append(parts, "Missing: "+outcome.RequiredInfo)
	}
	if outcome.Suggestions != "" {
		parts = append(parts, "Try: "+outcome.Suggestions)
	}
	return strings.Join(parts, "\n")
}

func inputValidator(view render.FieldView) func(string) error {
	required := view.Descriptor.Required
	affordance := view.Affordance

	return func(input string) error {
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			if required {
				return errors.New("a value is required")
			}
			return nil
		}
		switch affordance {
		case render.AffordanceNumber:
			if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
				return errors.New("enter a number")
			}
		case render.AffordanceDate:
			if _, err := time.Parse("2006-01-02", trimmed); err != nil {
				return errors.New("enter a date as YYYY-MM-DD")
			}
		case render.AffordanceEmail:
			if !strings.Contains(trimmed, "@") {
				return errors.New("enter an email address")
			}
		}
		return nil
	}
}

func collectValues(sections []render.Section, out map[string]any) {
	for _, sec := range sections {
		for _, entry := range sec.Entries {
			appendValue(entry.Field, out)
			for _, dependent := range entry.Dependents {
				appendValue(dependent, out)
			}
			for _, sub := range entry.Subforms {
				collectValues(sub.Sections, out)
			}
		}
	}
}

func appendValue(view render.FieldView, out map[string]any) {
	if view.Value == nil {
		return
	}
	out[view.Descriptor.Property] = view.Value
}

func (s *Session) serialize(values map[string]any) ([]byte, error) {
	if s.outputFormat == OutputFormatPrettyText {
		var b strings.Builder
		for _, sec := range s.engine.Materialize().Sections {
			for _, entry := range sec.Entries {
				writePretty(&b, entry)
			}
		}
		return []byte(b.String()), nil
	}
	return json.Marshal(values)
}

func writePretty(b *strings.Builder, entry render.Entry) {
	writePrettyField(b, entry.Field)
	for _, dependent := range entry.Dependents {
		writePrettyField(b, dependent)
	}
	for _, sub := range entry.Subforms {
		for _, sec := range sub.Sections {
			for _, nested := range sec.Entries {
				writePretty(b, nested)
			}
		}
	}
}

func writePrettyField(b *strings.Builder, view render.FieldView) {
	if view.Value == nil {
		return
	}
	fmt.Fprintf(b, "%s=%v\n", view.Descriptor.Property, view.Value)
}

func stringValue(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
