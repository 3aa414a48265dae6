// Package plan implements the Plan Validator: forward simulation of a
// multi-step generation plan so every admission failure can be reported
// up front, before any generation begins (spec.md §4.4).
package plan

import (
	"context"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
)

// DocRequest is one document to generate within a Step, with the user
// message that will be forwarded to the generator.
type DocRequest struct {
	DocType catalog.DocType
	Message string
}

// Step is an ordered set of DocTypes to produce together.
type Step struct {
	Docs []DocRequest
}

// Plan is an ordered sequence of Steps. Plans are identified only by the
// caller's session; the core never persists them (spec.md §3).
type Plan struct {
	Steps []Step
}

// Failure reports a single admission failure found during validation,
// tagged with the step it occurred in.
type Failure struct {
	StepIndex       int
	DocType         catalog.DocType
	MissingRequired []catalog.DocType
	ErrorMessage    string
}

// Result is the outcome of validating a Plan.
type Result struct {
	OK       bool
	Failures []Failure
}

// Validator forward-simulates a Plan against an Evaluator.
type Validator struct {
	evaluator *admission.Evaluator
}

// NewValidator builds a Validator over the given Evaluator.
func NewValidator(eval *admission.Evaluator) *Validator {
	return &Validator{evaluator: eval}
}

// Validate implements spec.md §4.4's algorithm: start from the project's
// current DocTypes, walk each step evaluating every DocType against the
// state accumulated from earlier steps only (siblings within the same
// step are not visible to each other — a step is a batch, not an
// internal ordering), collect every failure under the active mode, then
// union the whole step into the running set regardless of whether any
// single DocType in it failed, and keep going so the report covers every
// structural problem in the plan, not just the first.
func (v *Validator) Validate(ctx context.Context, p Plan, projectID int64, mode admission.Mode) (Result, error) {
	var generatedSoFar []catalog.DocType
	var failures []Failure

	for stepIdx, step := range p.Steps {
		var producedThisStep []catalog.DocType
		for _, doc := range step.Docs {
			verdict, err := v.evaluator.Evaluate(ctx, doc.DocType, projectID, admission.Options{
				Mode:                mode,
				AdditionalAvailable: generatedSoFar,
			})
			if err != nil {
				return Result{}, err
			}
			if !admission.Decide(verdict, false) {
				failures = append(failures, Failure{
					StepIndex:       stepIdx,
					DocType:         doc.DocType,
					MissingRequired: verdict.MissingRequired,
					ErrorMessage:    verdict.ErrorMessage,
				})
			}
			producedThisStep = append(producedThisStep, doc.DocType)
		}
		generatedSoFar = append(generatedSoFar, producedThisStep...)
	}

	return Result{OK: len(failures) == 0, Failures: failures}, nil
}
