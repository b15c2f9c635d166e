package decls

import "github.com/rill-lang/rill/internal/term"

// Substitute/VisitFreeVars plumbing so declaration bodies can live under
// binders. Same traversal shape as the term package: rebuild only what
// changed, share the rest.

func (b TraitBound) VisitFreeVars(fn func(term.Variable) bool) bool {
	if !b.WhereClauses.VisitFreeVars(fn) {
		return false
	}
	for _, it := range b.Items {
		if !it.VisitFreeVars(fn) {
			return false
		}
	}
	return true
}

func (b TraitBound) Substitute(f term.FoldFn, depth int) (term.Term, bool) {
	ws, cw := b.WhereClauses.Substitute(f, depth)
	items, ci := substituteItems(b.Items, f, depth)
	if !cw && !ci {
		return b, false
	}
	return TraitBound{WhereClauses: ws.(term.Wcs), Items: items}, true
}

func substituteItems(items []TraitItem, f term.FoldFn, depth int) ([]TraitItem, bool) {
	var out []TraitItem
	for i, it := range items {
		nit, changed := it.Substitute(f, depth)
		if out == nil {
			if !changed {
				continue
			}
			out = make([]TraitItem, i, len(items))
			copy(out, items[:i])
		}
		out = append(out, nit.(TraitItem))
	}
	if out == nil {
		return items, false
	}
	return out, true
}

func (a AssociatedTy) VisitFreeVars(fn func(term.Variable) bool) bool {
	return a.Binder.VisitFreeVars(fn)
}

func (a AssociatedTy) Substitute(f term.FoldFn, depth int) (term.Term, bool) {
	nb, changed := a.Binder.Substitute(f, depth)
	if !changed {
		return a, false
	}
	return AssociatedTy{ID: a.ID, Binder: nb.(term.Binder[AssociatedTyBound])}, true
}

func (b AssociatedTyBound) VisitFreeVars(fn func(term.Variable) bool) bool {
	if !b.Ensures.VisitFreeVars(fn) {
		return false
	}
	return b.WhereClauses.VisitFreeVars(fn)
}

func (b AssociatedTyBound) Substitute(f term.FoldFn, depth int) (term.Term, bool) {
	es, ce := b.Ensures.Substitute(f, depth)
	ws, cw := b.WhereClauses.Substitute(f, depth)
	if !ce && !cw {
		return b, false
	}
	return AssociatedTyBound{Ensures: es.(term.Wcs), WhereClauses: ws.(term.Wcs)}, true
}

func (b ImplBound) VisitFreeVars(fn func(term.Variable) bool) bool {
	if !b.TraitRef.VisitFreeVars(fn) {
		return false
	}
	if !b.WhereClauses.VisitFreeVars(fn) {
		return false
	}
	for _, av := range b.AssocValues {
		if !av.Value.VisitFreeVars(fn) {
			return false
		}
	}
	return true
}

func (b ImplBound) Substitute(f term.FoldFn, depth int) (term.Term, bool) {
	tr, ct := b.TraitRef.Substitute(f, depth)
	ws, cw := b.WhereClauses.Substitute(f, depth)
	avs, ca := substituteAssocValues(b.AssocValues, f, depth)
	if !ct && !cw && !ca {
		return b, false
	}
	return ImplBound{
		TraitRef:     tr.(term.TraitRef),
		WhereClauses: ws.(term.Wcs),
		AssocValues:  avs,
	}, true
}

func substituteAssocValues(avs []AssocTyValue, f term.FoldFn, depth int) ([]AssocTyValue, bool) {
	var out []AssocTyValue
	for i, av := range avs {
		nv, changed := av.Value.Substitute(f, depth)
		if out == nil {
			if !changed {
				continue
			}
			out = make([]AssocTyValue, i, len(avs))
			copy(out, avs[:i])
		}
		out = append(out, AssocTyValue{Item: av.Item, Value: nv.(term.Parameter)})
	}
	if out == nil {
		return avs, false
	}
	return out, true
}
