package check

import (
	"fmt"

	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/prove"
	"github.com/rill-lang/rill/internal/term"
)

// checkTrait validates one trait declaration: item names are unique, the
// trait's where-clauses are well-formed under themselves, and each
// associated type's where-clauses are well-formed under the trait's.
//
// TODO: the associated-type ensures clauses are not proven well-formed; a
// malformed ensures clause is only caught when an impl tries to satisfy it.
func checkTrait(d *decls.Decls, s *prove.Solver, td decls.TraitDecl) error {
	env := prove.NewEnv()
	bound := prove.InstantiateUniversally(env, td.Binder)

	seen := make(map[string]bool)
	for _, it := range bound.Items {
		at, ok := it.(decls.AssociatedTy)
		if !ok {
			continue
		}
		if seen[at.ID] {
			return NewDuplicateItemError(td.ID, at.ID)
		}
		seen[at.ID] = true
	}

	ctx := fmt.Sprintf("trait %s", td.ID)
	if err := checkWcsWellFormed(d, s, env, ctx, bound.WhereClauses, bound.WhereClauses); err != nil {
		return err
	}

	for _, it := range bound.Items {
		at, ok := it.(decls.AssociatedTy)
		if !ok {
			continue
		}
		atBound := prove.InstantiateUniversally(env, at.Binder)
		assumptions := append(append(term.Wcs{}, bound.WhereClauses...), atBound.WhereClauses...)
		atCtx := fmt.Sprintf("associated type %s of trait %s", at.ID, td.ID)
		if err := checkWcsWellFormed(d, s, env, atCtx, assumptions, atBound.WhereClauses); err != nil {
			return err
		}
	}
	return nil
}

// checkWcsWellFormed resolves every trait reference in wcs against the
// declarations and proves the well-formedness goals of the mentioned
// parameters under the assumptions.
func checkWcsWellFormed(d *decls.Decls, s *prove.Solver, env *prove.Env, ctx string, assumptions, wcs term.Wcs) error {
	var goals term.Wcs
	for _, wc := range wcs {
		switch w := wc.(type) {
		case term.Implemented:
			if err := checkTraitRef(d, w.TraitRef); err != nil {
				return err
			}
			goals = append(goals, wellFormedParams(w.Params)...)
		case term.NotImplemented:
			if err := checkTraitRef(d, w.TraitRef); err != nil {
				return err
			}
			goals = append(goals, wellFormedParams(w.Params)...)
		case term.Equals:
			goals = append(goals, term.WellFormed{P: w.A}, term.WellFormed{P: w.B})
		case term.WellFormed:
			goals = append(goals, w)
		case term.ForAll:
			opened := env.Clone()
			body := prove.InstantiateUniversally(opened, w.Binder)
			if err := checkWcsWellFormed(d, s, opened, ctx, assumptions, term.Wcs{body}); err != nil {
				return err
			}
		case term.Implies:
			inner := append(append(term.Wcs{}, assumptions...), w.Conditions...)
			nested := append(append(term.Wcs{}, w.Conditions...), w.Consequence)
			if err := checkWcsWellFormed(d, s, env, ctx, inner, nested); err != nil {
				return err
			}
		}
	}
	if len(goals) == 0 {
		return nil
	}
	if len(s.ProveGoals(env, assumptions, goals)) == 0 {
		return NewUnprovableError(ctx, goals)
	}
	return nil
}

func checkTraitRef(d *decls.Decls, tr term.TraitRef) error {
	td, ok := d.Trait(tr.Trait)
	if !ok {
		return NewUnknownTraitError(tr.Trait)
	}
	if td.Arity() != len(tr.Params) {
		return NewTraitArityError(tr.Trait, len(tr.Params), td.Arity())
	}
	return nil
}

func wellFormedParams(params []term.Parameter) term.Wcs {
	out := make(term.Wcs, len(params))
	for i, p := range params {
		out[i] = term.WellFormed{P: p}
	}
	return out
}
