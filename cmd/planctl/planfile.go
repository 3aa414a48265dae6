package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bacopilot/docorch/internal/admission"
	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/executor"
	"github.com/bacopilot/docorch/internal/plan"
	"github.com/bacopilot/docorch/internal/project"
)

// planFile is the on-disk YAML shape planctl reads: the plan itself, the
// project's starting artifacts (so a plan can be validated/run without a
// real project-inspection backend), and the enforcement mode/policy to
// apply.
type planFile struct {
	Mode             string         `yaml:"mode"`
	ProjectArtifacts []artifactYAML `yaml:"projectArtifacts"`
	Steps            []stepYAML     `yaml:"steps"`
	Policy           *policyYAML    `yaml:"policy"`
}

type artifactYAML struct {
	DocType string `yaml:"docType"`
	Origin  string `yaml:"origin"` // ai-generated | user-uploaded
	Path    string `yaml:"path"`
}

type docYAML struct {
	Type    string `yaml:"type"`
	Message string `yaml:"message"`
}

type stepYAML struct {
	Docs []docYAML `yaml:"docs"`
}

type policyYAML struct {
	OnDocFailure           string `yaml:"onDocFailure"`
	GateAfterFinalStep     bool   `yaml:"gateAfterFinalStep"`
	DecisionTimeoutSeconds int    `yaml:"decisionTimeoutSeconds"`
}

func loadPlanFile(path string) (planFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return planFile{}, fmt.Errorf("reading plan file %s: %w", path, err)
	}
	var pf planFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return planFile{}, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	if pf.Mode == "" {
		pf.Mode = string(admission.DefaultMode)
	}
	return pf, nil
}

func (pf planFile) toPlan() plan.Plan {
	steps := make([]plan.Step, len(pf.Steps))
	for i, s := range pf.Steps {
		docs := make([]plan.DocRequest, len(s.Docs))
		for j, d := range s.Docs {
			docs[j] = plan.DocRequest{DocType: catalog.DocType(d.Type), Message: d.Message}
		}
		steps[i] = plan.Step{Docs: docs}
	}
	return plan.Plan{Steps: steps}
}

func (pf planFile) toPolicy() executor.Policy {
	p := executor.DefaultPolicy()
	if pf.Policy == nil {
		return p
	}
	if pf.Policy.OnDocFailure != "" {
		p.OnDocFailure = executor.OnDocFailure(pf.Policy.OnDocFailure)
	}
	p.GateAfterFinalStep = pf.Policy.GateAfterFinalStep
	if pf.Policy.DecisionTimeoutSeconds > 0 {
		p.DecisionTimeout = time.Duration(pf.Policy.DecisionTimeoutSeconds) * time.Second
	}
	return p
}

// seedStore builds a MemStore pre-populated with the plan file's starting
// artifacts, standing in for a real Project Inspector backend.
func seedStore(pf planFile) *project.MemStore {
	store := project.NewMemStore()
	for i, a := range pf.ProjectArtifacts {
		origin := project.OriginAIGenerated
		if a.Origin == string(project.OriginUserUploaded) {
			origin = project.OriginUserUploaded
		}
		store.Add(1, project.Artifact{
			DocType:   catalog.DocType(a.DocType),
			Origin:    origin,
			Path:      a.Path,
			CreatedAt: time.Now().Add(-time.Duration(len(pf.ProjectArtifacts)-i) * time.Minute),
		})
	}
	return store
}
