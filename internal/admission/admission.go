// Package admission implements the Admission Evaluator: the pure decision
// of whether a single document generation request may proceed, the
// assembly of its prerequisite context, and the suggestions offered when
// it cannot.
//
// The Evaluator never calls the generator and never mutates state — it is
// a pure function of the catalog, the inspected project state, and the
// caller's options, mirroring the teacher's guards.Runner
// (internal/guards/guards.go), which is likewise a pure aggregator over a
// pre-populated GuardContext.
package admission

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/project"
)

// Mode is the enforcement strictness applied to missing required
// prerequisites.
type Mode string

const (
	Strict     Mode = "STRICT"
	Guided     Mode = "GUIDED"
	Permissive Mode = "PERMISSIVE"
)

// DefaultMode is the process-wide default per spec.md §3.
const DefaultMode = Guided

// SuggestionAction is one of the closed set of actionable hints a caller
// may present to the user.
type SuggestionAction string

const (
	ActionGenerate SuggestionAction = "generate"
	ActionUpload   SuggestionAction = "upload"
	ActionOverride SuggestionAction = "override"
)

// Suggestion is an actionable hint derived from a missing prerequisite.
type Suggestion struct {
	Action      SuggestionAction
	DocType     catalog.DocType
	DisplayName string
	EndpointHint string
	Description string
}

// Verdict is the immutable result of evaluating a single generation
// request, per spec.md §3's AdmissionVerdict.
type Verdict struct {
	DocType            catalog.DocType
	DisplayName        string
	Satisfied          bool
	Mode               Mode
	MissingRequired     []catalog.DocType
	MissingRecommended  []catalog.DocType
	AvailableDocs      []catalog.DocType
	ContextPaths       []string
	Suggestions        []Suggestion
	ErrorMessage       string
	WarningMessage     string
}

// Options carries the per-request tuning the Evaluator needs, per
// spec.md §4.3.
type Options struct {
	Mode Mode
	// AdditionalAvailable lets the Plan Executor/Validator simulate
	// in-plan prerequisites produced by earlier steps.
	AdditionalAvailable []catalog.DocType
	AllowOverride       bool
}

// Evaluator computes admission verdicts. It holds only read-only
// collaborators (catalog, inspector) and is safe for concurrent use.
type Evaluator struct {
	catalog   *catalog.Catalog
	inspector *project.Inspector
}

// NewEvaluator builds an Evaluator over the given catalog and inspector.
func NewEvaluator(cat *catalog.Catalog, insp *project.Inspector) *Evaluator {
	return &Evaluator{catalog: cat, inspector: insp}
}

// DisplayName exposes the catalog's display name for a DocType, so
// collaborators like the Plan Executor can label events without holding
// their own catalog reference.
func (e *Evaluator) DisplayName(docType catalog.DocType) string {
	return e.catalog.DisplayName(docType)
}

// Evaluate implements the algorithm of spec.md §4.3 steps 1-9.
func (e *Evaluator) Evaluate(ctx context.Context, docType catalog.DocType, projectID int64, opts Options) (Verdict, error) {
	cons, ok := e.catalog.Lookup(docType)
	if !ok {
		// Step 1: unknown DocType is permissive with a warning, never blocking.
		return Verdict{
			DocType:        docType,
			DisplayName:    e.catalog.DisplayName(docType),
			Satisfied:      true,
			Mode:           opts.Mode,
			WarningMessage: "no constraints defined",
		}, nil
	}

	state, err := e.inspector.Inspect(ctx, projectID)
	if err != nil {
		return Verdict{}, err
	}

	available := unionAvailable(state, opts.AdditionalAvailable)

	missingRequired := subtractAvailable(cons.Required, available)
	missingRecommended := subtractAvailable(cons.Recommended, available)
	satisfied := len(missingRequired) == 0

	v := Verdict{
		DocType:            docType,
		DisplayName:        cons.DisplayName,
		Satisfied:          satisfied,
		Mode:               opts.Mode,
		MissingRequired:    missingRequired,
		MissingRecommended: missingRecommended,
		AvailableDocs:      sortedKeys(available),
	}

	if len(missingRequired) > 0 {
		v.ErrorMessage = fmt.Sprintf(
			"Cannot generate %s. Required prerequisites missing: %s",
			cons.DisplayName, joinDisplayNames(e.catalog, missingRequired),
		)
	}
	if len(missingRecommended) > 0 {
		v.WarningMessage = fmt.Sprintf(
			"Generating %s without recommended prerequisites: %s. Output quality may be affected.",
			cons.DisplayName, joinDisplayNames(e.catalog, missingRecommended),
		)
	}

	v.Suggestions = buildSuggestions(e.catalog, cons, missingRequired, missingRecommended)
	v.ContextPaths = contextPaths(state, cons, available)

	return v, nil
}

// contextPaths implements step 8: storage paths for every DocType in
// (required ∪ recommended ∪ enhances) ∩ available, deduplicated in
// discovery order. It reuses the single State snapshot taken for this
// call — re-inspecting here would risk a second, possibly different,
// snapshot within what spec.md §4.2 treats as one admission call.
func contextPaths(state project.State, cons catalog.Constraint, available map[catalog.DocType]bool) []string {
	seen := make(map[string]bool)
	var paths []string
	for _, dt := range concatInOrder(cons.Required, cons.Recommended, cons.Enhances) {
		if !available[dt] {
			continue
		}
		path, ok := state.Paths[dt]
		if !ok || path == "" || seen[path] {
			continue
		}
		seen[path] = true
		paths = append(paths, path)
	}
	return paths
}

// buildSuggestions implements step 7: for each missing required, emit a
// generate then an upload suggestion; for each missing recommended, emit a
// generate suggestion only. Required-first, then recommended, each group in
// declaration order.
func buildSuggestions(cat *catalog.Catalog, cons catalog.Constraint, missingRequired, missingRecommended []catalog.DocType) []Suggestion {
	var out []Suggestion
	for _, dt := range missingRequired {
		display := cat.DisplayName(dt)
		out = append(out,
			Suggestion{
				Action: ActionGenerate, DocType: dt, DisplayName: display,
				EndpointHint: generateEndpointHint(cat, dt),
				Description:  fmt.Sprintf("Generate %s to satisfy this required prerequisite.", display),
			},
			Suggestion{
				Action: ActionUpload, DocType: dt, DisplayName: display,
				Description: fmt.Sprintf("Upload an existing %s to satisfy this required prerequisite.", display),
			},
		)
	}
	for _, dt := range missingRecommended {
		display := cat.DisplayName(dt)
		out = append(out, Suggestion{
			Action: ActionGenerate, DocType: dt, DisplayName: display,
			EndpointHint: generateEndpointHint(cat, dt),
			Description:  fmt.Sprintf("Generate %s; it is recommended before generating %s.", display, cat.DisplayName(cons.DocType)),
		})
	}
	return out
}

func generateEndpointHint(cat *catalog.Catalog, dt catalog.DocType) string {
	cons, ok := cat.Lookup(dt)
	if !ok || cons.Category == "" {
		return ""
	}
	return fmt.Sprintf("/generate/%s", cons.Category)
}

// Decide applies the enforcement mode to a verdict, per spec.md §4.3's
// "Admission decision applied by the caller using mode". This is the
// one-line pure function the caller invokes to turn a verdict into a
// proceed/block decision.
func Decide(v Verdict, allowOverride bool) bool {
	switch v.Mode {
	case Strict:
		return v.Satisfied
	case Permissive:
		return true
	case Guided:
		fallthrough
	default:
		return v.Satisfied || allowOverride
	}
}

func unionAvailable(state project.State, additional []catalog.DocType) map[catalog.DocType]bool {
	out := make(map[catalog.DocType]bool, len(state.DocTypes)+len(additional))
	for dt := range state.DocTypes {
		out[dt] = true
	}
	for _, dt := range additional {
		out[dt] = true // idempotent: duplicate entries collapse naturally
	}
	return out
}

func subtractAvailable(required []catalog.DocType, available map[catalog.DocType]bool) []catalog.DocType {
	var out []catalog.DocType
	for _, dt := range required {
		if !available[dt] {
			out = append(out, dt)
		}
	}
	return out
}

func concatInOrder(groups ...[]catalog.DocType) []catalog.DocType {
	var out []catalog.DocType
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// sortedKeys returns the map's keys in lexicographic order. AvailableDocs
// has no declaration-order requirement in spec.md, but the Determinism
// property (spec.md §8) demands a byte-identical verdict for fixed inputs
// across runs, so map iteration order cannot leak through.
func sortedKeys(m map[catalog.DocType]bool) []catalog.DocType {
	out := make([]catalog.DocType, 0, len(m))
	for dt := range m {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinDisplayNames(cat *catalog.Catalog, docTypes []catalog.DocType) string {
	names := make([]string, len(docTypes))
	for i, dt := range docTypes {
		names[i] = cat.DisplayName(dt)
	}
	return strings.Join(names, ", ")
}
