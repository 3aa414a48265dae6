// Package catalog implements the constraint catalog: the static, read-only
// registry mapping each document type to its prerequisite metadata.
//
// The catalog is constructed once at process startup from an embedded table
// and is safe for concurrent read access from every goroutine that needs it
// — there is no mutation after New returns.
package catalog

import (
	"strings"
)

// Category is one of the small closed set of document groupings.
type Category string

const (
	CategoryPlanning Category = "planning"
	CategoryAnalysis Category = "analysis"
	CategoryDesign   Category = "design"
	CategorySRS      Category = "srs"
	CategoryDiagram  Category = "diagram"
)

// DocType is an opaque, lowercase, hyphenated artifact-kind identifier.
// Its validity is defined entirely by catalog membership.
type DocType string

// Constraint is the prerequisite metadata attached to a DocType.
type Constraint struct {
	DocType     DocType
	DisplayName string
	Phase       int
	Category    Category
	// Required prerequisites, in declaration order. Empty for entry points.
	Required []DocType
	// Recommended prerequisites, in declaration order.
	Recommended []DocType
	// Enhances lists context-assembly-only prerequisites: they are never
	// blocking and never produce a warning, but their storage paths are
	// still offered to the generator as useful context (spec.md §4.3 step 8).
	Enhances []DocType
	// EntryPoint is explicitly tagged rather than inferred, per spec.md §3:
	// "entry-point DocTypes have required empty" describes a consequence,
	// not the definition — isEntryPoint checks both.
	EntryPoint bool
}

// Catalog is the immutable mapping from DocType to Constraint.
type Catalog struct {
	constraints map[DocType]Constraint
	variant     Variant
}

// New builds a Catalog from an explicit list of constraints, validating the
// invariants of spec.md §3: no self-reference, closure over known DocTypes,
// and acyclicity of the required-edge graph.
func New(constraints []Constraint) (*Catalog, error) {
	c := &Catalog{constraints: make(map[DocType]Constraint, len(constraints))}
	for _, cons := range constraints {
		c.constraints[cons.DocType] = cons
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is New, panicking on error. Intended for package-level embedded
// tables built once at init time, where a validation failure is a
// programmer error, not a runtime condition.
func MustNew(constraints []Constraint) *Catalog {
	c, err := New(constraints)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the Constraint for docType, or (_, false) if unknown.
// Lookup of an unknown DocType is not an error — callers (the Admission
// Evaluator) treat a miss as permissive per spec.md §4.3 step 1.
func (c *Catalog) Lookup(docType DocType) (Constraint, bool) {
	cons, ok := c.constraints[docType]
	return cons, ok
}

// IsEntryPoint reports whether docType has no required prerequisites and is
// explicitly tagged as an entry point. Unknown DocTypes are not entry points.
func (c *Catalog) IsEntryPoint(docType DocType) bool {
	cons, ok := c.constraints[docType]
	if !ok {
		return false
	}
	return cons.EntryPoint && len(cons.Required) == 0
}

// DisplayName returns the catalog's display name for docType, falling back
// to a title-cased, hyphen-split rendering of the identifier when unknown.
func (c *Catalog) DisplayName(docType DocType) string {
	if cons, ok := c.constraints[docType]; ok {
		return cons.DisplayName
	}
	return titleCaseHyphenated(docType)
}

// All returns every DocType known to the catalog, in no particular order.
func (c *Catalog) All() []DocType {
	out := make([]DocType, 0, len(c.constraints))
	for dt := range c.constraints {
		out = append(out, dt)
	}
	return out
}

func titleCaseHyphenated(docType DocType) string {
	parts := strings.Split(string(docType), "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
