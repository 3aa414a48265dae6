package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_ClosureAndAcyclicity(t *testing.T) {
	c := Default()
	require.NoError(t, c.checkAcyclic())
	for _, dt := range c.All() {
		cons, ok := c.Lookup(dt)
		require.True(t, ok)
		for _, group := range [][]DocType{cons.Required, cons.Recommended, cons.Enhances} {
			for _, ref := range group {
				_, ok := c.Lookup(ref)
				assert.Truef(t, ok, "%s references unknown doc type %s", dt, ref)
			}
		}
	}
}

func TestDefault_EntryPointSoundness(t *testing.T) {
	c := Default()
	for _, dt := range c.All() {
		cons, _ := c.Lookup(dt)
		assert.Equal(t, len(cons.Required) == 0 && cons.EntryPoint, c.IsEntryPoint(dt))
	}
	assert.True(t, c.IsEntryPoint("business-case"))
	assert.True(t, c.IsEntryPoint("stakeholder-register"))
	assert.False(t, c.IsEntryPoint("scope-statement"))
}

func TestDefault_HasAllTwentySixDocTypes(t *testing.T) {
	c := Default()
	assert.Len(t, c.All(), 26)
}

func TestLookup_UnknownDocType(t *testing.T) {
	c := Default()
	_, ok := c.Lookup("not-a-real-doc-type")
	assert.False(t, ok)
	assert.False(t, c.IsEntryPoint("not-a-real-doc-type"))
}

func TestDisplayName_FallsBackToTitleCase(t *testing.T) {
	c := Default()
	assert.Equal(t, "UI/UX Wireframe", c.DisplayName("uiux-wireframe"))
	assert.Equal(t, "Some Unknown Thing", c.DisplayName("some-unknown-thing"))
}

func TestVariant_ShowsEnhances(t *testing.T) {
	assert.True(t, VariantLegacy.ShowsEnhances())
	assert.False(t, VariantCurrent.ShowsEnhances())

	legacy := Load(VariantLegacy)
	assert.Equal(t, VariantLegacy, legacy.Variant())

	cons, ok := legacy.Lookup("srs")
	require.True(t, ok)
	assert.Equal(t, []DocType{"swot-analysis"}, cons.Enhances, "enhances data is identical across variants")
}

func TestNew_RejectsSelfReference(t *testing.T) {
	_, err := New([]Constraint{
		{DocType: "a", Required: []DocType{"a"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "references itself")
}

func TestNew_RejectsUnknownReference(t *testing.T) {
	_, err := New([]Constraint{
		{DocType: "a", Required: []DocType{"ghost"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown DocType")
}

func TestNew_RejectsCycle(t *testing.T) {
	_, err := New([]Constraint{
		{DocType: "a", Required: []DocType{"b"}},
		{DocType: "b", Required: []DocType{"a"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestNew_RejectsEntryPointWithRequired(t *testing.T) {
	_, err := New([]Constraint{
		{DocType: "a", EntryPoint: true, Required: []DocType{"b"}},
		{DocType: "b", EntryPoint: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry-point")
}
