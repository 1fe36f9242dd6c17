package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadySubmitted guards the one-way draft to submitted transition:
// re-submission is rejected, never silently accepted.
var ErrAlreadySubmitted = errors.New("application already submitted")

// StepNotFoundError reports a write addressed to a step the workflow does not
// declare.
type StepNotFoundError struct {
	Workflow string
	Step     int
}

func (e *StepNotFoundError) Error() string {
	return fmt.Sprintf("workflow %q has no step %d", e.Workflow, e.Step)
}

// StepIncompleteError names the first unmet prerequisite step so the client
// can redirect the user there.
type StepIncompleteError struct {
	Step  int
	Label string
}

func (e *StepIncompleteError) Error() string {
	return fmt.Sprintf("step %d (%s) is incomplete", e.Step, e.Label)
}

// IncompleteStepsError carries the full list of missing mandatory steps;
// submission is a terminal gate check, not a sequential one.
type IncompleteStepsError struct {
	Steps []int
}

func (e *IncompleteStepsError) Error() string {
	parts := make([]string, len(e.Steps))
	for i, n := range e.Steps {
		parts[i] = fmt.Sprint(n)
	}
	return "mandatory steps incomplete: " + strings.Join(parts, ", ")
}
