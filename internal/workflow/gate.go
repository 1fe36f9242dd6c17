package workflow

// AuthorizeWrite verifies that every mandatory step before targetStep is
// complete, scanning in declared order and rejecting on the first gap.
// Writes to step 1 are never gated. Optional steps never gate later writes:
// skipping an optional step must not lock the user out of the rest of the
// flow.
//
// The check runs against whatever record state the caller loaded; persistence
// ordering is the caller's concern.
func AuthorizeWrite(def Definition, rec Record, targetStep int) error {
	if _, ok := def.Step(targetStep); !ok {
		return &StepNotFoundError{Workflow: def.Name, Step: targetStep}
	}
	for _, step := range def.Steps {
		if step.Number >= targetStep {
			break
		}
		if step.Optional {
			continue
		}
		if !IsStepComplete(def, rec, step.Number) {
			return &StepIncompleteError{Step: step.Number, Label: step.Label}
		}
	}
	return nil
}
