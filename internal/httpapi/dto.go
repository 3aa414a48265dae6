package httpapi

import (
	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/plan"
)

// AdmissionRequest is the wire shape of spec.md §6.1's inward request.
type AdmissionRequest struct {
	DocType       string `json:"docType" validate:"required"`
	Mode          string `json:"mode" validate:"omitempty,oneof=STRICT GUIDED PERMISSIVE"`
	AllowOverride *bool  `json:"allowOverride"`
}

// SuggestionDTO mirrors admission.Suggestion for the wire.
type SuggestionDTO struct {
	Action       string `json:"action"`
	DocType      string `json:"docType"`
	DisplayName  string `json:"displayName"`
	EndpointHint string `json:"endpointHint,omitempty"`
	Description  string `json:"description"`
}

// VerdictDTO mirrors admission.Verdict for the wire, per spec.md §3.
type VerdictDTO struct {
	DocType            string          `json:"docType"`
	DisplayName        string          `json:"displayName"`
	Satisfied          bool            `json:"satisfied"`
	Mode               string          `json:"mode"`
	MissingRequired    []string        `json:"missingRequired"`
	MissingRecommended []string        `json:"missingRecommended"`
	AvailableDocs      []string        `json:"availableDocs"`
	ContextPaths       []string        `json:"contextPaths"`
	Suggestions        []SuggestionDTO `json:"suggestions"`
	ErrorMessage       string          `json:"errorMessage,omitempty"`
	WarningMessage     string          `json:"warningMessage,omitempty"`
}

func toVerdictDTO(v admission.Verdict) VerdictDTO {
	return VerdictDTO{
		DocType:            string(v.DocType),
		DisplayName:        v.DisplayName,
		Satisfied:          v.Satisfied,
		Mode:               string(v.Mode),
		MissingRequired:    docTypesToStrings(v.MissingRequired),
		MissingRecommended: docTypesToStrings(v.MissingRecommended),
		AvailableDocs:      docTypesToStrings(v.AvailableDocs),
		ContextPaths:       v.ContextPaths,
		Suggestions:        toSuggestionDTOs(v.Suggestions),
		ErrorMessage:       v.ErrorMessage,
		WarningMessage:     v.WarningMessage,
	}
}

func toSuggestionDTOs(in []admission.Suggestion) []SuggestionDTO {
	out := make([]SuggestionDTO, len(in))
	for i, s := range in {
		out[i] = SuggestionDTO{
			Action:       string(s.Action),
			DocType:      string(s.DocType),
			DisplayName:  s.DisplayName,
			EndpointHint: s.EndpointHint,
			Description:  s.Description,
		}
	}
	return out
}

func docTypesToStrings(in []catalog.DocType) []string {
	out := make([]string, len(in))
	for i, dt := range in {
		out[i] = string(dt)
	}
	return out
}

// DocRequestDTO is one document to generate within a PlanStepRequest.
type DocRequestDTO struct {
	Type    string `json:"type" validate:"required"`
	Message string `json:"message"`
}

// PlanStepRequest is one step of a PlanRequest.
type PlanStepRequest struct {
	DocTypes []DocRequestDTO `json:"docTypes" validate:"required,min=1,dive"`
}

// PolicyRequest is the wire shape of the executor policy knobs of
// spec.md §6.4.
type PolicyRequest struct {
	OnDocFailure           string `json:"onDocFailure" validate:"omitempty,oneof=abort-step continue-step"`
	GateAfterFinalStep     bool   `json:"gateAfterFinalStep"`
	DecisionTimeoutSeconds int    `json:"decisionTimeoutSeconds" validate:"omitempty,min=0"`
}

// PlanRequest is the wire shape of spec.md §6.2's plan submission request.
type PlanRequest struct {
	Steps  []PlanStepRequest `json:"steps" validate:"required,min=1,dive"`
	Mode   string            `json:"mode" validate:"omitempty,oneof=STRICT GUIDED PERMISSIVE"`
	Policy *PolicyRequest    `json:"policy"`
}

func (r PlanRequest) toPlan() plan.Plan {
	steps := make([]plan.Step, len(r.Steps))
	for i, step := range r.Steps {
		docs := make([]plan.DocRequest, len(step.DocTypes))
		for j, d := range step.DocTypes {
			docs[j] = plan.DocRequest{DocType: catalog.DocType(d.Type), Message: d.Message}
		}
		steps[i] = plan.Step{Docs: docs}
	}
	return plan.Plan{Steps: steps}
}

func (r *PolicyRequest) toPolicy() executor.Policy {
	p := executor.DefaultPolicy()
	if r == nil {
		return p
	}
	if r.OnDocFailure != "" {
		p.OnDocFailure = executor.OnDocFailure(r.OnDocFailure)
	}
	p.GateAfterFinalStep = r.GateAfterFinalStep
	if r.DecisionTimeoutSeconds > 0 {
		p.DecisionTimeout = secondsToDuration(r.DecisionTimeoutSeconds)
	}
	return p
}

// PlanValidationFailureDTO mirrors plan.Failure for the wire.
type PlanValidationFailureDTO struct {
	StepIndex       int      `json:"stepIndex"`
	DocType         string   `json:"docType"`
	MissingRequired []string `json:"missingRequired"`
	ErrorMessage    string   `json:"errorMessage"`
}

func toFailureDTOs(in []plan.Failure) []PlanValidationFailureDTO {
	out := make([]PlanValidationFailureDTO, len(in))
	for i, f := range in {
		out[i] = PlanValidationFailureDTO{
			StepIndex:       f.StepIndex,
			DocType:         string(f.DocType),
			MissingRequired: docTypesToStrings(f.MissingRequired),
			ErrorMessage:    f.ErrorMessage,
		}
	}
	return out
}
