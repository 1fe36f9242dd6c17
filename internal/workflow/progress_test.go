package workflow

import "testing"

func TestReportCurrentStepAdvances(t *testing.T) {
	def := twoStepDef(t)

	got := Report(def, mapRecord{})
	if got.CurrentStep != 1 {
		t.Fatalf("CurrentStep=%d, want 1 for empty record", got.CurrentStep)
	}
	if got.Completion[1] || got.Completion[2] {
		t.Fatalf("unexpected completion: %v", got.Completion)
	}

	got = Report(def, mapRecord{present: map[string]bool{"a": true, "b": true}})
	if got.CurrentStep != 2 {
		t.Fatalf("CurrentStep=%d, want 2", got.CurrentStep)
	}
	if !got.Completion[1] || got.Completion[2] {
		t.Fatalf("unexpected completion: %v", got.Completion)
	}

	got = Report(def, mapRecord{present: map[string]bool{"a": true, "b": true, "c": true, "doc": true}})
	if got.CurrentStep != 3 {
		t.Fatalf("CurrentStep=%d, want total+1", got.CurrentStep)
	}
}

func TestReportReadyWhenOnlyOptionalRemains(t *testing.T) {
	def := optionalStepDef(t)
	rec := mapRecord{present: map[string]bool{"name": true, "terms": true}}
	got := Report(def, rec)
	if got.CurrentStep != def.TotalSteps()+1 {
		t.Fatalf("CurrentStep=%d, want %d (all mandatory complete)", got.CurrentStep, def.TotalSteps()+1)
	}
	if got.Completion[2] {
		t.Fatalf("untouched optional step reported complete")
	}
}

func TestReportMatchesEvaluator(t *testing.T) {
	reg := NewRegistry()
	def, ok := reg.Lookup(SyndicateOnboarding)
	if !ok {
		t.Fatalf("missing builtin %s", SyndicateOnboarding)
	}
	rec := mapRecord{present: map[string]bool{
		"legal_name": true, "entity_type": true, "jurisdiction": true,
		"lead_full_name": true,
	}}
	got := Report(def, rec)
	for _, step := range def.Steps {
		if got.Completion[step.Number] != IsStepComplete(def, rec, step.Number) {
			t.Fatalf("completion map diverges from evaluator at step %d", step.Number)
		}
	}
	if got.CurrentStep != 2 {
		t.Fatalf("CurrentStep=%d, want 2", got.CurrentStep)
	}
}
