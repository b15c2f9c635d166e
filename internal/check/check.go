// Package check runs the per-crate static checks: trait declaration
// well-formedness and impl coherence (duplicates, the orphan rule, and
// pairwise overlap). Checks are first-error-wins; a returned error names
// the offending declaration in full binder-qualified form.
package check

import (
	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/prove"
)

type Check struct {
	program *decls.Program
}

func New(program *decls.Program) *Check {
	return &Check{program: program}
}

// CheckProgram checks every crate in declaration order and stops at the
// first failure.
func (c *Check) CheckProgram() error {
	for _, cr := range c.program.Crates {
		if err := c.CheckCrate(cr.Name); err != nil {
			return err
		}
	}
	return nil
}

// CheckCrate runs all checks with the named crate as the crate under check.
// Every crate's impls stay visible; locality and overlap responsibilities
// are judged from the named crate's point of view.
func (c *Check) CheckCrate(crate string) error {
	cr, ok := c.program.Crate(crate)
	if !ok {
		return NewUnknownCrateError(crate)
	}
	d := decls.NewDecls(c.program, crate)
	s := prove.NewSolver(d)

	for _, td := range decls.ItemsOfKind[decls.TraitDecl](cr.Items) {
		if err := checkTrait(d, s, td); err != nil {
			return err
		}
	}
	return checkCoherence(d, s, cr)
}
