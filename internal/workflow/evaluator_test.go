package workflow

import "testing"

// mapRecord is a field-presence fake for engine tests.
type mapRecord struct {
	present  map[string]bool
	declined map[string]bool
}

func (r mapRecord) FieldPresent(name string) bool { return r.present[name] }
func (r mapRecord) Declined(field string) bool    { return r.declined[field] }

func twoStepDef(t *testing.T) Definition {
	t.Helper()
	def := Definition{
		Schema: DefinitionSchemaV1,
		Name:   "test_flow",
		Steps: []Step{
			{Number: 1, Label: "First", Fields: []string{"a", "b"}},
			{Number: 2, Label: "Second", Fields: []string{"c"}, Files: []string{"doc"}},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("definition invalid: %v", err)
	}
	return def
}

func TestIsStepCompleteRequiresAllFields(t *testing.T) {
	def := twoStepDef(t)

	rec := mapRecord{present: map[string]bool{"a": true}}
	if IsStepComplete(def, rec, 1) {
		t.Fatalf("step 1 complete with only one of two fields")
	}

	rec.present["b"] = true
	if !IsStepComplete(def, rec, 1) {
		t.Fatalf("step 1 incomplete with all fields present")
	}
}

func TestIsStepCompleteRequiresFiles(t *testing.T) {
	def := twoStepDef(t)

	rec := mapRecord{present: map[string]bool{"c": true}}
	if IsStepComplete(def, rec, 2) {
		t.Fatalf("step 2 complete without stored file")
	}
	rec.present["doc"] = true
	if !IsStepComplete(def, rec, 2) {
		t.Fatalf("step 2 incomplete with field and file present")
	}
}

func TestIsStepCompleteUnknownStep(t *testing.T) {
	def := twoStepDef(t)
	if IsStepComplete(def, mapRecord{}, 3) {
		t.Fatalf("unknown step reported complete")
	}
	if IsStepComplete(def, mapRecord{}, 0) {
		t.Fatalf("step 0 reported complete")
	}
}

func TestIsStepCompleteIdempotent(t *testing.T) {
	def := twoStepDef(t)
	rec := mapRecord{present: map[string]bool{"a": true, "b": true}}
	first := IsStepComplete(def, rec, 1)
	for i := 0; i < 10; i++ {
		if IsStepComplete(def, rec, 1) != first {
			t.Fatalf("completion verdict changed on repeated evaluation")
		}
	}
}

func optionalStepDef(t *testing.T) Definition {
	t.Helper()
	def := Definition{
		Schema: DefinitionSchemaV1,
		Name:   "optional_flow",
		Steps: []Step{
			{Number: 1, Label: "Basics", Fields: []string{"name"}},
			{
				Number:       2,
				Label:        "Accreditation",
				Optional:     true,
				Fields:       []string{"is_accredited"},
				Files:        []string{"proof"},
				DeclineField: "accreditation_declined",
			},
			{Number: 3, Label: "Agreements", Fields: []string{"terms"}},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("definition invalid: %v", err)
	}
	return def
}

func TestOptionalStepCompleteByDecline(t *testing.T) {
	def := optionalStepDef(t)
	rec := mapRecord{declined: map[string]bool{"accreditation_declined": true}}
	if !IsStepComplete(def, rec, 2) {
		t.Fatalf("declined optional step not complete")
	}
}

func TestOptionalStepPartialFillIncomplete(t *testing.T) {
	def := optionalStepDef(t)
	rec := mapRecord{present: map[string]bool{"is_accredited": true}}
	if IsStepComplete(def, rec, 2) {
		t.Fatalf("optional step complete with flag set but no proof file")
	}
	rec.present["proof"] = true
	if !IsStepComplete(def, rec, 2) {
		t.Fatalf("optional step incomplete with all fields present")
	}
}

func TestMissingStepsSkipsOptional(t *testing.T) {
	def := optionalStepDef(t)
	rec := mapRecord{present: map[string]bool{"name": true, "terms": true}}
	if missing := MissingSteps(def, rec); len(missing) != 0 {
		t.Fatalf("MissingSteps()=%v, want empty (optional step untouched)", missing)
	}

	rec = mapRecord{present: map[string]bool{"name": true}}
	missing := MissingSteps(def, rec)
	if len(missing) != 1 || missing[0] != 3 {
		t.Fatalf("MissingSteps()=%v, want [3]", missing)
	}
}
