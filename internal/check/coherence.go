package check

import (
	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/prove"
	"github.com/rill-lang/rill/internal/term"
)

// checkCoherence enforces the three impl rules for the crate under check:
// no duplicate impls, no orphan impls, and no two impls of one trait that
// could apply to the same types.
func checkCoherence(d *decls.Decls, s *prove.Solver, cr decls.Crate) error {
	impls := decls.ItemsOfKind[decls.TraitImpl](cr.Items)
	negImpls := decls.ItemsOfKind[decls.NegTraitImpl](cr.Items)

	// Duplicates are judged within the crate: a structural twin declared
	// in another crate is that crate's to answer for.
	for i, a := range impls {
		for _, b := range impls[:i] {
			if a.Equal(b) {
				return NewDuplicateImplError(a.TraitID(), a.String())
			}
		}
	}

	for _, a := range impls {
		if !passesOrphanRule(d, a.Binder) {
			return NewOrphanImplError(cr.Name, a.String())
		}
	}
	for _, a := range negImpls {
		if !passesOrphanRule(d, a.Binder) {
			return NewOrphanImplError(cr.Name, a.String())
		}
	}

	for _, a := range impls {
		for _, b := range d.ImplsOf(a.TraitID()) {
			if a.Equal(b) {
				continue
			}
			if !provablyDisjoint(s, a.Binder, b.Binder) {
				return NewOverlapError(a.TraitID(), a.String(), b.String())
			}
		}
		// A positive impl may not overlap a negative impl of the same
		// trait either: together they would assert both polarities.
		for _, b := range d.NegImplsOf(a.TraitID()) {
			if !provablyDisjoint(s, a.Binder, b.Binder) {
				return NewOverlapError(a.TraitID(), a.String(), b.String())
			}
		}
	}
	// And symmetrically for the crate's own negative impls against
	// positive impls declared elsewhere.
	for _, a := range negImpls {
		for _, b := range d.ImplsOf(a.TraitID()) {
			if !provablyDisjoint(s, a.Binder, b.Binder) {
				return NewOverlapError(a.TraitID(), a.String(), b.String())
			}
		}
	}
	return nil
}

// passesOrphanRule reports whether the impl is entitled to exist in the
// crate under check. The implemented trait reference must be local; clever
// where-clauses do not rescue a non-local impl, with one exception:
// equality constraints are applied first, since they may pin the reference
// down to something local.
func passesOrphanRule(d *decls.Decls, b term.Binder[decls.ImplBound]) bool {
	env := prove.NewEnv().WithCoherenceMode(true)
	bound := prove.InstantiateUniversally(env, b)

	tr, satisfiable := prove.Hypothesized(env, bound.WhereClauses, bound.TraitRef)
	if !satisfiable {
		// Contradictory where-clauses make the impl unusable anywhere;
		// vacuously coherent.
		return true
	}
	return d.IsLocalTraitRef(tr)
}

// provablyDisjoint reports whether the two impls can never apply to the
// same instantiation. Two refutation paths, tried in order:
//
// (a) supposing both impls apply at once (their trait parameters all equal
// and both where-clause lists hold) is refutable in coherence mode;
//
// (b) whenever both would apply, the negation of one of their
// where-clauses is outright provable, so the clause can never actually be
// satisfied alongside the shared constraints.
func provablyDisjoint(s *prove.Solver, ba, bb term.Binder[decls.ImplBound]) bool {
	env := prove.NewEnv().WithCoherenceMode(true)
	ia := prove.InstantiateUniversally(env, ba)
	ib := prove.InstantiateUniversally(env, bb)
	if len(ia.TraitRef.Params) != len(ib.TraitRef.Params) {
		return true
	}

	shared := term.AllEq(ia.TraitRef.Params, ib.TraitRef.Params)
	shared = append(shared, ia.WhereClauses...)
	shared = append(shared, ib.WhereClauses...)

	if s.ProveNotGoal(env, nil, shared) {
		return true
	}

	plain := env.WithCoherenceMode(false)
	inverted := append(ia.WhereClauses.Inverted(), ib.WhereClauses.Inverted()...)
	for _, inv := range inverted {
		for _, c := range s.ProveGoals(plain, shared, term.Wcs{inv}) {
			if c.KnownTrue {
				return true
			}
		}
	}
	return false
}
