package workflow

// Progress is the read-only stepper view: a pointer to the next step needing
// attention and a per-step completion map.
type Progress struct {
	CurrentStep int          `json:"current_step"`
	Completion  map[int]bool `json:"step_completion"`
}

// Report derives progress from the completion evaluator alone. CurrentStep is
// the lowest-numbered incomplete step; once every mandatory step is complete
// it becomes TotalSteps+1, signaling ready-to-submit (or already submitted)
// even if an optional step was skipped without an explicit decline.
func Report(def Definition, rec Record) Progress {
	completion := make(map[int]bool, len(def.Steps))
	for _, step := range def.Steps {
		completion[step.Number] = IsStepComplete(def, rec, step.Number)
	}

	if len(MissingSteps(def, rec)) == 0 {
		return Progress{CurrentStep: def.TotalSteps() + 1, Completion: completion}
	}
	for _, step := range def.Steps {
		if !completion[step.Number] {
			return Progress{CurrentStep: step.Number, Completion: completion}
		}
	}
	return Progress{CurrentStep: def.TotalSteps() + 1, Completion: completion}
}
