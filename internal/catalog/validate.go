package catalog

import "fmt"

// ValidationError reports a catalog invariant violation found during New.
type ValidationError struct {
	DocType DocType
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: %s: %s", e.DocType, e.Reason)
}

// validate enforces spec.md §3's invariants:
//   - no self-reference in required/recommended/enhances
//   - every referenced DocType is itself known to the catalog
//   - the required-edge graph is acyclic
//   - entry-point DocTypes have required empty
func (c *Catalog) validate() error {
	for dt, cons := range c.constraints {
		if err := checkNoSelfReference(dt, cons); err != nil {
			return err
		}
		if err := c.checkClosure(dt, cons); err != nil {
			return err
		}
		if cons.EntryPoint && len(cons.Required) != 0 {
			return &ValidationError{DocType: dt, Reason: "tagged entry-point but has non-empty required list"}
		}
	}
	return c.checkAcyclic()
}

func checkNoSelfReference(dt DocType, cons Constraint) error {
	for _, group := range [][]DocType{cons.Required, cons.Recommended, cons.Enhances} {
		for _, ref := range group {
			if ref == dt {
				return &ValidationError{DocType: dt, Reason: "references itself as a prerequisite"}
			}
		}
	}
	return nil
}

func (c *Catalog) checkClosure(dt DocType, cons Constraint) error {
	for _, group := range [][]DocType{cons.Required, cons.Recommended, cons.Enhances} {
		for _, ref := range group {
			if _, ok := c.constraints[ref]; !ok {
				return &ValidationError{DocType: dt, Reason: fmt.Sprintf("references unknown DocType %q", ref)}
			}
		}
	}
	return nil
}

// checkAcyclic walks the required-edge graph with a three-color DFS.
func (c *Catalog) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[DocType]int, len(c.constraints))

	var visit func(dt DocType, path []DocType) error
	visit = func(dt DocType, path []DocType) error {
		switch color[dt] {
		case black:
			return nil
		case gray:
			return &ValidationError{DocType: dt, Reason: fmt.Sprintf("required-edge cycle detected: %v", append(path, dt))}
		}
		color[dt] = gray
		for _, req := range c.constraints[dt].Required {
			if err := visit(req, append(path, dt)); err != nil {
				return err
			}
		}
		color[dt] = black
		return nil
	}

	for dt := range c.constraints {
		if color[dt] == white {
			if err := visit(dt, nil); err != nil {
				return err
			}
		}
	}
	return nil
}
