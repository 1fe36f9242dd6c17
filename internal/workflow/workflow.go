// Package workflow implements the gated multi-step profile engine shared by
// investor onboarding, syndicate onboarding, and lead registration. Each flow
// supplies only a Definition; completion, gating, submission prechecks, and
// progress reporting are computed here from raw field presence, never from
// stored per-step flags.
package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Step declares one gated group of fields. Optional steps never block
// submission; DeclineField names the boolean a user sets to skip an optional
// step explicitly.
type Step struct {
	Number       int      `json:"number" yaml:"number"`
	Label        string   `json:"label" yaml:"label"`
	Optional     bool     `json:"optional,omitempty" yaml:"optional,omitempty"`
	Fields       []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Files        []string `json:"files,omitempty" yaml:"files,omitempty"`
	DeclineField string   `json:"decline_field,omitempty" yaml:"decline_field,omitempty"`
}

// Definition is an ordered, contiguous sequence of steps for one workflow.
type Definition struct {
	Schema string `json:"schema" yaml:"schema"`
	Name   string `json:"name" yaml:"name"`
	Steps  []Step `json:"steps" yaml:"steps"`
}

// Record is the evaluator's view of a profile aggregate. FieldPresent must
// treat blank text, false/unset booleans, and unstored files as absent;
// Declined reports an explicit optional-step opt-out.
type Record interface {
	FieldPresent(name string) bool
	Declined(field string) bool
}

func (d Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("workflow name is required")
	}
	if len(d.Steps) == 0 {
		return errors.New("workflow steps must be non-empty")
	}

	seenLabels := make(map[string]struct{}, len(d.Steps))
	seenFields := make(map[string]int)
	for i, step := range d.Steps {
		if step.Number != i+1 {
			return fmt.Errorf("steps[%d].number must be %d (got %d)", i, i+1, step.Number)
		}
		label := strings.TrimSpace(step.Label)
		if label == "" {
			return fmt.Errorf("steps[%d].label is required", i)
		}
		if _, ok := seenLabels[label]; ok {
			return fmt.Errorf("steps[%d].label must be unique (duplicate %q)", i, label)
		}
		seenLabels[label] = struct{}{}

		if len(step.Fields) == 0 && len(step.Files) == 0 {
			return fmt.Errorf("steps[%d] must declare at least one field or file", i)
		}
		for _, name := range append(append([]string{}, step.Fields...), step.Files...) {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("steps[%d] declares a blank field name", i)
			}
			if prev, ok := seenFields[name]; ok {
				return fmt.Errorf("field %q declared by both step %d and step %d", name, prev, step.Number)
			}
			seenFields[name] = step.Number
		}
		if step.DeclineField != "" && !step.Optional {
			return fmt.Errorf("steps[%d].decline_field requires optional: true", i)
		}
	}
	return nil
}

func (d Definition) TotalSteps() int {
	return len(d.Steps)
}

func (d Definition) Step(number int) (Step, bool) {
	if number < 1 || number > len(d.Steps) {
		return Step{}, false
	}
	return d.Steps[number-1], true
}

// MandatorySteps returns the numbers of all steps that block submission.
func (d Definition) MandatorySteps() []int {
	out := make([]int, 0, len(d.Steps))
	for _, step := range d.Steps {
		if !step.Optional {
			out = append(out, step.Number)
		}
	}
	return out
}
