package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacopilot/docorch/internal/catalog"
	"github.com/bacopilot/docorch/internal/project"
)

func newEvaluator(t *testing.T) (*Evaluator, *project.MemStore) {
	t.Helper()
	store := project.NewMemStore()
	insp := project.NewInspector(store, catalog.Default())
	return NewEvaluator(catalog.Default(), insp), store
}

// Scenario 1 (spec.md §8): entry point, empty project.
func TestEvaluate_EntryPointEmptyProject(t *testing.T) {
	eval, _ := newEvaluator(t)
	v, err := eval.Evaluate(context.Background(), "stakeholder-register", 1, Options{Mode: Strict})
	require.NoError(t, err)

	assert.True(t, v.Satisfied)
	assert.Empty(t, v.MissingRequired)
	assert.Empty(t, v.MissingRecommended)
	assert.Empty(t, v.ContextPaths)
	assert.Empty(t, v.ErrorMessage)
	assert.Empty(t, v.WarningMessage)
	assert.Empty(t, v.Suggestions)
}

// Scenario 2: block on missing required (STRICT).
func TestEvaluate_BlockOnMissingRequired_Strict(t *testing.T) {
	eval, store := newEvaluator(t)
	store.Add(1, project.Artifact{
		DocType: "high-level-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/hlr.json", CreatedAt: time.Now(),
	})

	v, err := eval.Evaluate(context.Background(), "uiux-mockup", 1, Options{Mode: Strict})
	require.NoError(t, err)

	assert.False(t, v.Satisfied)
	assert.Equal(t, []catalog.DocType{"uiux-wireframe"}, v.MissingRequired)
	assert.Equal(t, []catalog.DocType{"hld-arch"}, v.MissingRecommended)
	assert.Contains(t, v.ErrorMessage, "UI/UX Wireframe")

	require.Len(t, v.Suggestions, 3)
	assert.Equal(t, ActionGenerate, v.Suggestions[0].Action)
	assert.Equal(t, catalog.DocType("uiux-wireframe"), v.Suggestions[0].DocType)
	assert.Equal(t, ActionUpload, v.Suggestions[1].Action)
	assert.Equal(t, catalog.DocType("uiux-wireframe"), v.Suggestions[1].DocType)
	assert.Equal(t, ActionGenerate, v.Suggestions[2].Action)
	assert.Equal(t, catalog.DocType("hld-arch"), v.Suggestions[2].DocType)

	assert.False(t, Decide(v, false))
}

// Scenario 3: override in GUIDED.
func TestEvaluate_OverrideInGuided(t *testing.T) {
	eval, store := newEvaluator(t)
	store.Add(1, project.Artifact{
		DocType: "high-level-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/hlr.json", CreatedAt: time.Now(),
	})

	v, err := eval.Evaluate(context.Background(), "uiux-mockup", 1, Options{Mode: Guided, AllowOverride: true})
	require.NoError(t, err)

	assert.False(t, v.Satisfied)
	assert.NotEmpty(t, v.WarningMessage)
	assert.True(t, Decide(v, true))
}

func TestDecide_PermissiveNeverBlocks(t *testing.T) {
	v := Verdict{Mode: Permissive, Satisfied: false}
	assert.True(t, Decide(v, false))
}

func TestDecide_StrictRespectsRequired(t *testing.T) {
	assert.True(t, Decide(Verdict{Mode: Strict, Satisfied: true}, false))
	assert.False(t, Decide(Verdict{Mode: Strict, Satisfied: false}, true))
}

func TestDecide_GuidedNeedsOverride(t *testing.T) {
	v := Verdict{Mode: Guided, Satisfied: false}
	assert.False(t, Decide(v, false))
	assert.True(t, Decide(v, true))
}

func TestEvaluate_UnknownDocType_PermissiveWarning(t *testing.T) {
	eval, _ := newEvaluator(t)
	v, err := eval.Evaluate(context.Background(), "not-a-real-type", 1, Options{Mode: Strict})
	require.NoError(t, err)
	assert.True(t, v.Satisfied)
	assert.Equal(t, "no constraints defined", v.WarningMessage)
	assert.Empty(t, v.Suggestions)
}

func TestEvaluate_Monotonicity(t *testing.T) {
	eval, store := newEvaluator(t)
	store.Add(1, project.Artifact{
		DocType: "stakeholder-register", Origin: project.OriginAIGenerated,
		Path: "/a/sr.json", CreatedAt: time.Now(),
	})

	small, err := eval.Evaluate(context.Background(), "uiux-wireframe", 1, Options{Mode: Strict})
	require.NoError(t, err)

	big, err := eval.Evaluate(context.Background(), "uiux-wireframe", 1, Options{
		Mode: Strict, AdditionalAvailable: []catalog.DocType{"high-level-requirements"},
	})
	require.NoError(t, err)

	assert.False(t, small.Satisfied)
	assert.True(t, big.Satisfied)
	assert.LessOrEqual(t, len(big.MissingRequired), len(small.MissingRequired))
}

func TestEvaluate_AdditionalAvailableIsIdempotent(t *testing.T) {
	eval, _ := newEvaluator(t)
	v, err := eval.Evaluate(context.Background(), "uiux-wireframe", 1, Options{
		Mode: Strict,
		AdditionalAvailable: []catalog.DocType{
			"high-level-requirements", "high-level-requirements", "high-level-requirements",
		},
	})
	require.NoError(t, err)
	assert.True(t, v.Satisfied)
}

func TestEvaluate_ContextPathsDeduplicatedAndFiltered(t *testing.T) {
	eval, store := newEvaluator(t)
	now := time.Now()
	store.Add(1, project.Artifact{
		DocType: "srs", Origin: project.OriginAIGenerated,
		Path: "/a/srs.json", MarkdownPath: "/a/srs.md", CreatedAt: now,
	})
	store.Add(1, project.Artifact{
		DocType: "non-functional-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/nfr.json", CreatedAt: now,
	})

	v, err := eval.Evaluate(context.Background(), "hld-arch", 1, Options{Mode: Guided, AllowOverride: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/a/srs.md", "/a/nfr.json"}, v.ContextPaths)
}

func TestEvaluate_Determinism(t *testing.T) {
	eval, store := newEvaluator(t)
	store.Add(1, project.Artifact{
		DocType: "high-level-requirements", Origin: project.OriginAIGenerated,
		Path: "/a/hlr.json", CreatedAt: time.Now(),
	})

	first, err := eval.Evaluate(context.Background(), "uiux-mockup", 1, Options{Mode: Strict})
	require.NoError(t, err)
	second, err := eval.Evaluate(context.Background(), "uiux-mockup", 1, Options{Mode: Strict})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
