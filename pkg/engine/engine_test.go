package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/quotelane/go-quoteform/pkg/condition"
	"github.com/quotelane/go-quoteform/pkg/gate"
	"github.com/quotelane/go-quoteform/pkg/render"
	"github.com/quotelane/go-quoteform/pkg/schema"
)

type stubValidator struct {
	outcome gate.Outcome
	err     error
	calls   int
}

func (v *stubValidator) Validate(context.Context, gate.Request) (gate.Outcome, error) {
	v.calls++
	return v.outcome, v.err
}

// planProperties flattens a plan into the ordered list of rendered
// properties, prefixing dependents with their trigger.
func planProperties(plan render.Plan) map[string]string {
	out := make(map[string]string)
	for _, sec := range plan.Sections {
		for _, entry := range sec.Entries {
			out[entry.Field.Descriptor.Property] = sec.ID
			for _, dependent := range entry.Dependents {
				out[dependent.Descriptor.Property] = "group:" + entry.Field.Descriptor.Property
			}
		}
	}
	return out
}

func TestConvictionsToggleScenario(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "hasConvictions", Type: schema.FieldTypeRadio, Required: true, Options: []string{"YES", "NO"}},
		{Property: "convictionDate", Type: schema.FieldTypeDate, ConditionalDisplay: "hasConvictions=YES"},
	}}
	e, err := New(s, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("hasConvictions", true); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := e.Update("convictionDate", "2023-06-01"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if err := e.Update("hasConvictions", false); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, shown := planProperties(e.Materialize())["convictionDate"]; shown {
		t.Fatalf("convictionDate must be hidden after toggle off")
	}

	if err := e.Update("hasConvictions", true); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	rendered := planProperties(e.Materialize())
	if _, shown := rendered["convictionDate"]; !shown {
		t.Fatalf("convictionDate must be visible after toggle on")
	}
	if got := e.Read("convictionDate"); got != "2023-06-01" {
		t.Fatalf("value must be preserved across the toggle, got %v", got)
	}
}

func TestLicenceTriggerGroupingScenario(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "licenceType", Type: schema.FieldTypeSelect, Options: []string{"FULL_UK", "EU_EEA", "INTERNATIONAL"}},
		{Property: "issuingCountry", Type: schema.FieldTypeText, ConditionalDisplay: "licenceType=EU_EEA OR licenceType=INTERNATIONAL"},
		{Property: "ukResidencyDate", Type: schema.FieldTypeDate, ConditionalDisplay: "licenceType=EU_EEA OR licenceType=INTERNATIONAL"},
	}}
	e, err := New(s, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("licenceType", "EU_EEA"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	rendered := planProperties(e.Materialize())
	if rendered["issuingCountry"] != "group:licenceType" {
		t.Fatalf("issuingCountry must render inside the licenceType group, got %q", rendered["issuingCountry"])
	}
	if rendered["ukResidencyDate"] != "group:licenceType" {
		t.Fatalf("ukResidencyDate must render inside the licenceType group, got %q", rendered["ukResidencyDate"])
	}

	if err := e.Update("licenceType", "FULL_UK"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	rendered = planProperties(e.Materialize())
	if _, shown := rendered["issuingCountry"]; shown {
		t.Fatalf("issuingCountry must not appear anywhere for FULL_UK")
	}
	if _, shown := rendered["ukResidencyDate"]; shown {
		t.Fatalf("ukResidencyDate must not appear anywhere for FULL_UK")
	}
	if _, shown := rendered["licenceType"]; !shown {
		t.Fatalf("the trigger itself must still render")
	}
}

func TestChainedTriggerKeepsTransitiveDependents(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "hasMedicalConditions", Type: schema.FieldTypeRadio, Options: []string{"YES", "NO"}},
		{Property: "conditionType", Type: schema.FieldTypeSelect, Options: []string{"DIABETES", "EPILEPSY"}, ConditionalDisplay: "hasMedicalConditions=YES"},
		{Property: "lastEpisodeDate", Type: schema.FieldTypeDate, ConditionalDisplay: "conditionType=EPILEPSY"},
	}}
	e, err := New(s, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("hasMedicalConditions", "YES"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := e.Update("conditionType", "EPILEPSY"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	rendered := planProperties(e.Materialize())
	if rendered["conditionType"] != "group:hasMedicalConditions" {
		t.Fatalf("conditionType must render inside the hasMedicalConditions group, got %q", rendered["conditionType"])
	}
	if rendered["lastEpisodeDate"] != "group:hasMedicalConditions" {
		t.Fatalf("a dependent's own dependent must stay in the plan, got %q", rendered["lastEpisodeDate"])
	}

	// Hiding the middle link drops the tail with it.
	if err := e.Update("conditionType", "DIABETES"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	rendered = planProperties(e.Materialize())
	if _, shown := rendered["lastEpisodeDate"]; shown {
		t.Fatalf("lastEpisodeDate must disappear when conditionType changes")
	}
	if rendered["conditionType"] != "group:hasMedicalConditions" {
		t.Fatalf("conditionType must stay grouped, got %q", rendered["conditionType"])
	}
}

func TestGatedFieldRejectsDirectWrites(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "occupationDetail", Type: schema.FieldTypeTextArea, RequiresValidation: true, ValidationPrompt: "Describe your occupation"},
	}}
	validator := &stubValidator{outcome: gate.Outcome{Valid: true, Message: "ok"}}
	e, err := New(s, validator, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("occupationDetail", "typed directly"); !errors.Is(err, ErrFieldGated) {
		t.Fatalf("direct write to a gated field must fail, got %v", err)
	}
	if got := e.Read("occupationDetail"); got != nil {
		t.Fatalf("gated field must stay empty after rejected write, got %v", got)
	}

	// The field auto-opened on refresh; drive that interaction through.
	interaction := e.Gate().Active()
	if interaction == nil {
		t.Fatalf("expected auto-opened interaction for the gated field")
	}
	if _, err := interaction.Submit(context.Background(), "Piano restorer"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if err := interaction.Accept(); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if got := e.Read("occupationDetail"); got != "Piano restorer" {
		t.Fatalf("accepted value must reach form state, got %v", got)
	}
}

func TestSubformGatedFieldRejectsDirectWrites(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{
		Fields: []schema.FieldDescriptor{
			{Property: "extras", Type: schema.FieldTypeSelect, Options: []string{"BREAKDOWN", "NONE"}},
		},
		Subforms: map[string]*schema.Schema{
			"BREAKDOWN": {Fields: []schema.FieldDescriptor{
				{Property: "breakdownHistory", Type: schema.FieldTypeTextArea, RequiresValidation: true, ValidationPrompt: "Describe previous breakdown callouts"},
			}},
		},
	}
	validator := &stubValidator{outcome: gate.Outcome{Valid: true}}
	e, err := New(s, validator, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("breakdownHistory", "typed directly"); !errors.Is(err, ErrFieldGated) {
		t.Fatalf("direct write to a subform gated field must fail, got %v", err)
	}
	if got := e.Read("breakdownHistory"); got != nil {
		t.Fatalf("subform gated field must stay empty after rejected write, got %v", got)
	}

	interaction, err := e.OpenValidation("breakdownHistory")
	if err != nil {
		t.Fatalf("OpenValidation returned error: %v", err)
	}
	if _, err := interaction.Submit(context.Background(), "Two callouts last winter"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if err := interaction.Accept(); err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if got := e.Read("breakdownHistory"); got != "Two callouts last winter" {
		t.Fatalf("accepted value must reach form state, got %v", got)
	}
}

func TestAutoOpenFiresExactlyOncePerSession(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "employmentStatus", Type: schema.FieldTypeSelect, Options: []string{"EMPLOYED", "UNEMPLOYED"}},
		{
			Property:           "occupationDetail",
			Type:               schema.FieldTypeTextArea,
			ConditionalDisplay: "employmentStatus=EMPLOYED",
			RequiresValidation: true,
			ValidationPrompt:   "Describe your occupation",
		},
	}}

	var opened int
	e, err := New(s, &stubValidator{}, nil, WithAutoOpenHandler(func(interaction *gate.Interaction) {
		opened++
		interaction.Close()
	}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := e.Update("employmentStatus", "EMPLOYED"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if opened != 1 {
		t.Fatalf("expected exactly one auto-open, got %d", opened)
	}

	// Unrelated mutations and repeat toggles must not re-open.
	if err := e.Update("employmentStatus", "UNEMPLOYED"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := e.Update("employmentStatus", "EMPLOYED"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if opened != 1 {
		t.Fatalf("auto-open must fire once per session, got %d", opened)
	}
}

func TestDefaultAppliedOnceOnFirstVisibility(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "cover", Type: schema.FieldTypeSelect, Options: []string{"COMPREHENSIVE", "THIRD_PARTY"}, DefaultValue: "COMPREHENSIVE"},
		{Property: "excess", Type: schema.FieldTypeNumber, ConditionalDisplay: "cover=COMPREHENSIVE", DefaultValue: 250},
	}}
	e, err := New(s, nil, nil)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	// cover defaults on refresh, which reveals excess, which defaults too —
	// without looping.
	if got := e.Read("cover"); got != "COMPREHENSIVE" {
		t.Fatalf("cover default not applied, got %v", got)
	}
	if got := e.Read("excess"); got != 250 {
		t.Fatalf("excess default not applied, got %v", got)
	}

	// A user edit wins over the default for the rest of the session.
	if err := e.Update("excess", 500); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := e.Update("cover", "THIRD_PARTY"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := e.Update("cover", "COMPREHENSIVE"); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got := e.Read("excess"); got != 500 {
		t.Fatalf("default must not overwrite a user value, got %v", got)
	}
}

func TestMixedCombinatorsRejectedAtLoad(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "a", Type: schema.FieldTypeText},
		{Property: "b", Type: schema.FieldTypeText, ConditionalDisplay: "a=1 AND a=2 OR a=3"},
	}}
	if _, err := New(s, nil, nil); !errors.Is(err, condition.ErrMixedCombinators) {
		t.Fatalf("expected ErrMixedCombinators at load, got %v", err)
	}
}

func TestMalformedConditionFailsOpen(t *testing.T) {
	t.Parallel()

	s := &schema.Schema{Fields: []schema.FieldDescriptor{
		{Property: "a", Type: schema.FieldTypeText},
		{Property: "b", Type: schema.FieldTypeText, ConditionalDisplay: "complete gibberish"},
	}}
	e, err := New(s, nil, nil)
	if err != nil {
		t.Fatalf("malformed (non-mixed) expressions must not fail the load: %v", err)
	}
	if _, shown := planProperties(e.Materialize())["b"]; !shown {
		t.Fatalf("field with malformed condition must fail open")
	}
}
