package workflow

import (
	"errors"
	"math/rand"
	"testing"
)

func TestAuthorizeWriteStepOneNeverGated(t *testing.T) {
	def := twoStepDef(t)
	if err := AuthorizeWrite(def, mapRecord{}, 1); err != nil {
		t.Fatalf("AuthorizeWrite(step 1) err=%v", err)
	}
}

func TestAuthorizeWriteRejectsFirstIncompleteStep(t *testing.T) {
	def := optionalStepDef(t)
	err := AuthorizeWrite(def, mapRecord{}, 3)
	var incomplete *StepIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("AuthorizeWrite() err=%v, want StepIncompleteError", err)
	}
	if incomplete.Step != 1 || incomplete.Label != "Basics" {
		t.Fatalf("unexpected gate error: %+v", incomplete)
	}
}

func TestAuthorizeWriteOptionalStepDoesNotGate(t *testing.T) {
	def := optionalStepDef(t)
	rec := mapRecord{present: map[string]bool{"name": true}}
	// Step 2 is optional and untouched; writing step 3 must still be allowed.
	if err := AuthorizeWrite(def, rec, 3); err != nil {
		t.Fatalf("AuthorizeWrite() err=%v, want nil past optional step", err)
	}
}

func TestAuthorizeWriteUnknownStep(t *testing.T) {
	def := twoStepDef(t)
	err := AuthorizeWrite(def, mapRecord{}, 9)
	var notFound *StepNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("AuthorizeWrite() err=%v, want StepNotFoundError", err)
	}
	if notFound.Step != 9 || notFound.Workflow != "test_flow" {
		t.Fatalf("unexpected not-found error: %+v", notFound)
	}
}

// Randomized agreement between the gate and the evaluator: for arbitrary
// subsets of present fields, a write to step N passes exactly when every
// mandatory step before N evaluates complete.
func TestAuthorizeWriteMatchesEvaluator(t *testing.T) {
	reg := NewRegistry()
	def, ok := reg.Lookup(InvestorOnboarding)
	if !ok {
		t.Fatalf("missing builtin %s", InvestorOnboarding)
	}

	var allFields []string
	for _, step := range def.Steps {
		allFields = append(allFields, step.Fields...)
		allFields = append(allFields, step.Files...)
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 500; trial++ {
		rec := mapRecord{present: map[string]bool{}}
		for _, name := range allFields {
			if rng.Intn(2) == 0 {
				rec.present[name] = true
			}
		}
		target := 1 + rng.Intn(def.TotalSteps())

		err := AuthorizeWrite(def, rec, target)

		expectPass := true
		var expectStep int
		for _, step := range def.Steps {
			if step.Number >= target || step.Optional {
				continue
			}
			if !IsStepComplete(def, rec, step.Number) {
				expectPass = false
				expectStep = step.Number
				break
			}
		}

		if expectPass && err != nil {
			t.Fatalf("trial %d: gate rejected with prerequisites complete: %v", trial, err)
		}
		if !expectPass {
			var incomplete *StepIncompleteError
			if !errors.As(err, &incomplete) {
				t.Fatalf("trial %d: err=%v, want StepIncompleteError", trial, err)
			}
			if incomplete.Step != expectStep {
				t.Fatalf("trial %d: gate named step %d, want %d", trial, incomplete.Step, expectStep)
			}
		}
	}
}
