package workflow

// IsStepComplete reports whether a step's required data is present on the
// record. Pure: no side effects, same answer for the same record state.
//
// An optional step is complete when the user explicitly declined it or when
// every one of its declared fields and files is present. A partial fill with
// no decline is incomplete; since the step is optional that blocks nothing,
// it only shows up in progress reporting.
func IsStepComplete(def Definition, rec Record, number int) bool {
	step, ok := def.Step(number)
	if !ok {
		return false
	}
	if step.Optional && step.DeclineField != "" && rec.Declined(step.DeclineField) {
		return true
	}
	for _, name := range step.Fields {
		if !rec.FieldPresent(name) {
			return false
		}
	}
	for _, name := range step.Files {
		if !rec.FieldPresent(name) {
			return false
		}
	}
	return true
}

// MissingSteps returns every mandatory step that does not evaluate complete,
// ascending. An empty result means the record is ready to submit.
func MissingSteps(def Definition, rec Record) []int {
	var missing []int
	for _, step := range def.Steps {
		if step.Optional {
			continue
		}
		if !IsStepComplete(def, rec, step.Number) {
			missing = append(missing, step.Number)
		}
	}
	return missing
}
