package term

// Term is implemented by every value the engine can traverse and rebuild:
// parameters, trait references, where-clauses and binders over any of them.
// Terms are immutable; folding rebuilds structure and shares unchanged
// subterms.
type Term interface {
	String() string
	// Substitute visits every variable occurrence, passing the number of
	// binders between the occurrence and the fold root, and reports whether
	// anything was replaced. A replacement parameter may only contain free
	// variables, so no shifting is needed on the way down.
	Substitute(f FoldFn, depth int) (Term, bool)
	// VisitFreeVars visits every free variable occurrence. Returning false
	// from the visitor stops the walk.
	VisitFreeVars(fn func(Variable) bool) bool
}

type FoldFn func(v Variable, depth int) (Parameter, bool)

// SubstFn maps a free variable to its replacement. Returning false leaves
// the occurrence untouched.
type SubstFn func(v Variable) (Parameter, bool)

// Fold rewrites every free variable of t per f, rebuilding structurally.
// Folding with a function that never replaces returns t unchanged.
func Fold[T Term](t T, f SubstFn) T {
	out, changed := t.Substitute(func(v Variable, _ int) (Parameter, bool) {
		if !v.IsFree() {
			return nil, false
		}
		return f(v)
	}, 0)
	if !changed {
		return t
	}
	return out.(T)
}

// FreeVars collects the free variables of t in first-occurrence order,
// without duplicates.
func FreeVars(t Term) []Variable {
	var out []Variable
	seen := make(map[string]bool)
	t.VisitFreeVars(func(v Variable) bool {
		if k := v.Key(); !seen[k] {
			seen[k] = true
			out = append(out, v)
		}
		return true
	})
	return out
}

// MentionsVar reports whether v occurs free in t.
func MentionsVar(t Term, v Variable) bool {
	found := false
	t.VisitFreeVars(func(w Variable) bool {
		if w == v {
			found = true
			return false
		}
		return true
	})
	return found
}

func foldParams(params []Parameter, f FoldFn, depth int) ([]Parameter, bool) {
	var out []Parameter
	for i, p := range params {
		q, changed := p.Substitute(f, depth)
		if out == nil {
			if !changed {
				continue
			}
			out = make([]Parameter, i, len(params))
			copy(out, params[:i])
		}
		out = append(out, q.(Parameter))
	}
	if out == nil {
		return params, false
	}
	return out, true
}

func freeVarsParams(params []Parameter, fn func(Variable) bool) bool {
	for _, p := range params {
		if !p.VisitFreeVars(fn) {
			return false
		}
	}
	return true
}
