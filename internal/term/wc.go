package term

import (
	"fmt"
	"strings"
)

// TraitRef names a trait applied to parameters. The first parameter is the
// Self type.
type TraitRef struct {
	Trait  string
	Params []Parameter
}

func NewTraitRef(trait string, params ...Parameter) TraitRef {
	if len(params) == 0 {
		params = nil
	}
	return TraitRef{Trait: trait, Params: params}
}

// SelfParam returns the Self parameter of the reference.
func (r TraitRef) SelfParam() Parameter {
	if len(r.Params) == 0 {
		panic(fmt.Sprintf("trait reference %s has no Self parameter", r.Trait))
	}
	return r.Params[0]
}

func (r TraitRef) String() string {
	if len(r.Params) == 0 {
		return r.Trait
	}
	if len(r.Params) == 1 {
		return r.Params[0].String() + ": " + r.Trait
	}
	return r.Params[0].String() + ": " + r.Trait + "<" + joinParams(r.Params[1:]) + ">"
}

func (r TraitRef) VisitFreeVars(fn func(Variable) bool) bool {
	return freeVarsParams(r.Params, fn)
}

func (r TraitRef) Substitute(f FoldFn, depth int) (Term, bool) {
	ps, changed := foldParams(r.Params, f, depth)
	if !changed {
		return r, false
	}
	return TraitRef{Trait: r.Trait, Params: ps}, true
}

// Wc is a single where-clause: a goal the solver can try to prove, or an
// assumption it can prove from.
type Wc interface {
	Term
	// Invert returns the logical negation of the clause, when the clause has
	// one. Only trait bounds are invertible.
	Invert() (Wc, bool)
	isWc()
}

// Implemented asserts that the trait reference holds.
type Implemented struct {
	TraitRef
}

func (w Implemented) Invert() (Wc, bool) { return NotImplemented{w.TraitRef}, true }
func (w Implemented) isWc()              {}

func (w Implemented) Substitute(f FoldFn, depth int) (Term, bool) {
	r, changed := w.TraitRef.Substitute(f, depth)
	if !changed {
		return w, false
	}
	return Implemented{r.(TraitRef)}, true
}

// NotImplemented asserts that the trait reference can never hold.
type NotImplemented struct {
	TraitRef
}

func (w NotImplemented) String() string {
	if len(w.Params) <= 1 {
		return w.SelfParam().String() + ": !" + w.Trait
	}
	return w.SelfParam().String() + ": !" + w.Trait + "<" + joinParams(w.Params[1:]) + ">"
}

func (w NotImplemented) Invert() (Wc, bool) { return Implemented{w.TraitRef}, true }
func (w NotImplemented) isWc()              {}

func (w NotImplemented) Substitute(f FoldFn, depth int) (Term, bool) {
	r, changed := w.TraitRef.Substitute(f, depth)
	if !changed {
		return w, false
	}
	return NotImplemented{r.(TraitRef)}, true
}

// Equals asserts that two parameters are equal.
type Equals struct {
	A, B Parameter
}

func (w Equals) String() string     { return w.A.String() + " == " + w.B.String() }
func (w Equals) Invert() (Wc, bool) { return nil, false }
func (w Equals) isWc()              {}

func (w Equals) VisitFreeVars(fn func(Variable) bool) bool {
	if !w.A.VisitFreeVars(fn) {
		return false
	}
	return w.B.VisitFreeVars(fn)
}

func (w Equals) Substitute(f FoldFn, depth int) (Term, bool) {
	a, ca := w.A.Substitute(f, depth)
	b, cb := w.B.Substitute(f, depth)
	if !ca && !cb {
		return w, false
	}
	return Equals{A: a.(Parameter), B: b.(Parameter)}, true
}

// WellFormed asserts that a parameter is well-formed: every rigid head is a
// declared constructor applied at the right arity.
type WellFormed struct {
	P Parameter
}

func (w WellFormed) String() string     { return "well_formed(" + w.P.String() + ")" }
func (w WellFormed) Invert() (Wc, bool) { return nil, false }
func (w WellFormed) isWc()              {}

func (w WellFormed) VisitFreeVars(fn func(Variable) bool) bool {
	return w.P.VisitFreeVars(fn)
}

func (w WellFormed) Substitute(f FoldFn, depth int) (Term, bool) {
	p, changed := w.P.Substitute(f, depth)
	if !changed {
		return w, false
	}
	return WellFormed{P: p.(Parameter)}, true
}

// ForAll quantifies a clause: it must hold for every instantiation of the
// binder's parameters.
type ForAll struct {
	Binder Binder[Wc]
}

func (w ForAll) String() string     { return w.Binder.String() }
func (w ForAll) Invert() (Wc, bool) { return nil, false }
func (w ForAll) isWc()              {}

func (w ForAll) VisitFreeVars(fn func(Variable) bool) bool {
	return w.Binder.VisitFreeVars(fn)
}

func (w ForAll) Substitute(f FoldFn, depth int) (Term, bool) {
	b, changed := w.Binder.Substitute(f, depth)
	if !changed {
		return w, false
	}
	return ForAll{Binder: b.(Binder[Wc])}, true
}

// Implies conditions a clause on others: the consequence need only hold
// when every condition does.
type Implies struct {
	Conditions  Wcs
	Consequence Wc
}

func (w Implies) String() string {
	return "if " + w.Conditions.String() + " then " + w.Consequence.String()
}

func (w Implies) Invert() (Wc, bool) { return nil, false }
func (w Implies) isWc()              {}

func (w Implies) VisitFreeVars(fn func(Variable) bool) bool {
	if !w.Conditions.VisitFreeVars(fn) {
		return false
	}
	return w.Consequence.VisitFreeVars(fn)
}

func (w Implies) Substitute(f FoldFn, depth int) (Term, bool) {
	cs, changedC := w.Conditions.Substitute(f, depth)
	q, changedQ := w.Consequence.Substitute(f, depth)
	if !changedC && !changedQ {
		return w, false
	}
	return Implies{Conditions: cs.(Wcs), Consequence: q.(Wc)}, true
}

// Wcs is a where-clause list; goals are proven left to right.
type Wcs []Wc

func (ws Wcs) String() string {
	parts := make([]string, len(ws))
	for i, w := range ws {
		parts[i] = w.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (ws Wcs) VisitFreeVars(fn func(Variable) bool) bool {
	for _, w := range ws {
		if !w.VisitFreeVars(fn) {
			return false
		}
	}
	return true
}

func (ws Wcs) Substitute(f FoldFn, depth int) (Term, bool) {
	var out Wcs
	for i, w := range ws {
		nw, changed := w.Substitute(f, depth)
		if out == nil {
			if !changed {
				continue
			}
			out = make(Wcs, i, len(ws))
			copy(out, ws[:i])
		}
		out = append(out, nw.(Wc))
	}
	if out == nil {
		return ws, false
	}
	return out, true
}

// Inverted collects the negations of every invertible clause in the list.
func (ws Wcs) Inverted() []Wc {
	var out []Wc
	for _, w := range ws {
		if inv, ok := w.Invert(); ok {
			out = append(out, inv)
		}
	}
	return out
}

// AllEq builds the pairwise equality goals between two parameter lists of
// equal length.
func AllEq(ps, qs []Parameter) Wcs {
	if len(ps) != len(qs) {
		panic(fmt.Sprintf("AllEq: parameter lists of length %d and %d", len(ps), len(qs)))
	}
	out := make(Wcs, len(ps))
	for i := range ps {
		out[i] = Equals{A: ps[i], B: qs[i]}
	}
	return out
}
