package catalog

// Variant selects which source-documentation table generation the catalog
// was loaded from. Both variants carry the full Required/Recommended/
// Enhances data — `enhances` is always a first-class, non-blocking field
// per the Open Question resolution in spec.md §9 — but VariantCurrent marks
// that the upstream documentation this project was modeled on did not
// surface `enhances` in its user-facing dependency tables. ShowsEnhances
// tells a renderer whether to print the enhances column; it never changes
// admission or context-assembly behavior.
type Variant int

const (
	// VariantCurrent is the latest source documentation: enhances dropped
	// from user-facing tables but retained in the schema.
	VariantCurrent Variant = iota
	// VariantLegacy is the earlier source documentation, which treated
	// enhances as a top-level, user-visible dependency class.
	VariantLegacy
)

// ShowsEnhances reports whether this variant's documentation rendered the
// enhances column. This is the catalog's only configuration point.
func (v Variant) ShowsEnhances() bool {
	return v == VariantLegacy
}

// Load returns the catalog built from the embedded table, tagged with the
// given documentation variant. The underlying Required/Recommended/Enhances
// data is identical across variants; only display behavior differs.
func Load(variant Variant) *Catalog {
	c := MustNew(baseTable())
	c.variant = variant
	return c
}

// Default loads the catalog using the current (post-enhances-table-drop)
// documentation variant, matching this project's primary source.
func Default() *Catalog {
	return Load(VariantCurrent)
}

// Variant reports which documentation variant this catalog was loaded for.
func (c *Catalog) Variant() Variant {
	return c.variant
}

// baseTable is the embedded constraint table: 26 DocTypes across SDLC
// phases 1-9, grounded in spec.md §3's worked examples (stakeholder-register,
// high-level-requirements, uiux-wireframe, uiux-mockup, hld-arch,
// business-case, scope-statement) and extended to a complete BA-to-delivery
// chain. See SPEC_FULL.md §3.1 for the rendered table and DESIGN.md for how
// ambiguity in spec.md §8 scenario 4 was resolved.
func baseTable() []Constraint {
	return []Constraint{
		{
			DocType: "business-case", DisplayName: "Business Case",
			Phase: 1, Category: CategoryPlanning, EntryPoint: true,
		},
		{
			DocType: "stakeholder-register", DisplayName: "Stakeholder Register",
			Phase: 1, Category: CategoryPlanning, EntryPoint: true,
		},
		{
			DocType: "scope-statement", DisplayName: "Scope Statement",
			Phase: 1, Category: CategoryPlanning,
			Required: []DocType{"business-case"},
		},
		{
			DocType: "swot-analysis", DisplayName: "SWOT Analysis",
			Phase: 2, Category: CategoryAnalysis,
			Required: []DocType{"business-case"},
		},
		{
			DocType: "stakeholder-analysis", DisplayName: "Stakeholder Analysis",
			Phase: 2, Category: CategoryAnalysis,
			Required: []DocType{"stakeholder-register"},
		},
		{
			DocType: "risk-register", DisplayName: "Risk Register",
			Phase: 2, Category: CategoryAnalysis,
			Required:    []DocType{"business-case"},
			Recommended: []DocType{"stakeholder-analysis"},
		},
		{
			DocType: "high-level-requirements", DisplayName: "High-Level Requirements",
			Phase: 2, Category: CategoryAnalysis,
			Required:    []DocType{"stakeholder-register"},
			Recommended: []DocType{"scope-statement"},
		},
		{
			DocType: "functional-requirements", DisplayName: "Functional Requirements",
			Phase: 3, Category: CategorySRS,
			Required: []DocType{"high-level-requirements"},
		},
		{
			DocType: "non-functional-requirements", DisplayName: "Non-Functional Requirements",
			Phase: 3, Category: CategorySRS,
			Required: []DocType{"high-level-requirements"},
		},
		{
			DocType: "use-case-spec", DisplayName: "Use Case Specification",
			Phase: 3, Category: CategorySRS,
			Required: []DocType{"functional-requirements"},
		},
		{
			DocType: "srs", DisplayName: "Software Requirements Specification",
			Phase: 3, Category: CategorySRS,
			Required:    []DocType{"high-level-requirements"},
			Recommended: []DocType{"risk-register"},
			Enhances:    []DocType{"swot-analysis"},
		},
		{
			DocType: "uiux-wireframe", DisplayName: "UI/UX Wireframe",
			Phase: 4, Category: CategoryDesign,
			Required: []DocType{"high-level-requirements"},
		},
		{
			DocType: "uiux-mockup", DisplayName: "UI/UX Mockup",
			Phase: 4, Category: CategoryDesign,
			Required:    []DocType{"uiux-wireframe"},
			Recommended: []DocType{"hld-arch"},
		},
		{
			DocType: "uiux-prototype", DisplayName: "UI/UX Prototype",
			Phase: 4, Category: CategoryDesign,
			Required: []DocType{"uiux-mockup"},
		},
		{
			DocType: "hld-arch", DisplayName: "High-Level Design / Architecture",
			Phase: 5, Category: CategoryDesign,
			Required:    []DocType{"srs"},
			Recommended: []DocType{"non-functional-requirements"},
			Enhances:    []DocType{"stakeholder-analysis"},
		},
		{
			DocType: "system-context-diagram", DisplayName: "System Context Diagram",
			Phase: 5, Category: CategoryDiagram,
			Required: []DocType{"hld-arch"},
		},
		{
			DocType: "deployment-diagram", DisplayName: "Deployment Diagram",
			Phase: 5, Category: CategoryDiagram,
			Required: []DocType{"hld-arch"},
		},
		{
			DocType: "lld-design", DisplayName: "Low-Level Design",
			Phase: 6, Category: CategoryDesign,
			Required:    []DocType{"hld-arch"},
			Recommended: []DocType{"use-case-spec"},
			Enhances:    []DocType{"risk-register"},
		},
		{
			DocType: "database-schema", DisplayName: "Database Schema",
			Phase: 6, Category: CategoryDesign,
			Required: []DocType{"lld-design"},
		},
		{
			DocType: "api-spec", DisplayName: "API Specification",
			Phase: 6, Category: CategoryDesign,
			Required:    []DocType{"lld-design"},
			Recommended: []DocType{"use-case-spec"},
			Enhances:    []DocType{"data-flow-diagram"},
		},
		{
			DocType: "data-flow-diagram", DisplayName: "Data Flow Diagram",
			Phase: 6, Category: CategoryDiagram,
			Required:    []DocType{"functional-requirements"},
			Recommended: []DocType{"lld-design"},
		},
		{
			DocType: "sequence-diagram", DisplayName: "Sequence Diagram",
			Phase: 7, Category: CategoryDiagram,
			Required:    []DocType{"use-case-spec"},
			Recommended: []DocType{"lld-design"},
		},
		{
			DocType: "class-diagram", DisplayName: "Class Diagram",
			Phase: 7, Category: CategoryDiagram,
			Required: []DocType{"lld-design"},
		},
		{
			DocType: "erd-diagram", DisplayName: "Entity-Relationship Diagram",
			Phase: 7, Category: CategoryDiagram,
			Required: []DocType{"database-schema"},
		},
		{
			DocType: "test-plan", DisplayName: "Test Plan",
			Phase: 8, Category: CategorySRS,
			Required:    []DocType{"srs"},
			Recommended: []DocType{"use-case-spec"},
		},
		{
			DocType: "traceability-matrix", DisplayName: "Requirements Traceability Matrix",
			Phase: 9, Category: CategoryAnalysis,
			Required: []DocType{"srs", "test-plan"},
		},
	}
}
