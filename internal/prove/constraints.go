package prove

import (
	"fmt"

	"github.com/rill-lang/rill/internal/term"
)

// Constraints is the result of a successful proof: the (possibly extended)
// environment plus the substitution capturing everything learned. KnownTrue
// is false when the proof rests on a coherence-mode supposition — "this
// could hold once downstream crates weigh in" — rather than on a
// derivation.
//
// Constraint sets are never merged destructively; composition applies one
// set's substitution before evaluating under the next.
type Constraints struct {
	Env       *Env
	KnownTrue bool
	Subst     term.Substitution
}

// None is the trivial success: nothing new was learned.
func None(env *Env) Constraints {
	return Constraints{Env: env, KnownTrue: true, Subst: term.NewSubstitution()}
}

// Ambiguous is a coherence-mode success that carries no learned bindings
// and is not known to be true.
func Ambiguous(env *Env) Constraints {
	return Constraints{Env: env, KnownTrue: false, Subst: term.NewSubstitution()}
}

// Seq composes two constraint sets produced in sequence: d was proven after
// c's substitution had been applied. The learned substitutions compose and
// truth is the conjunction.
func (c Constraints) Seq(d Constraints) Constraints {
	return Constraints{
		Env:       d.Env,
		KnownTrue: c.KnownTrue && d.KnownTrue,
		Subst:     c.Subst.Compose(d.Subst),
	}
}

// Key is the canonical text form, used to deduplicate judgment outputs.
func (c Constraints) Key() string {
	known := "known"
	if !c.KnownTrue {
		known = "maybe"
	}
	return fmt.Sprintf("constraints(%s;%s;%s)", c.Env.Key(), known, c.Subst)
}

func (c Constraints) String() string { return c.Key() }

// AssertValid panics unless the constraint set respects the universe
// invariant: every binding solves an inference variable known to the
// environment, and no solution mentions a placeholder the variable's
// universe cannot see. A violation is a fault in the engine, not in the
// checked program.
func (c Constraints) AssertValid() {
	c.Subst.Range(func(v term.Variable, p term.Parameter) bool {
		iv, ok := v.(term.InferenceVar)
		if !ok {
			panic(fmt.Sprintf("constraints bind non-inference variable %s", v.Key()))
		}
		if !c.Env.KnowsVar(v) {
			panic(fmt.Sprintf("constraints bind unknown variable %s", v.Key()))
		}
		if !c.Env.Encloses(p) {
			panic(fmt.Sprintf("binding %s := %s leaks variables out of scope", v.Key(), p))
		}
		p.VisitFreeVars(func(w term.Variable) bool {
			if ph, isPh := w.(term.PlaceholderVar); isPh && !iv.Universe.CanSee(ph.Universe) {
				panic(fmt.Sprintf(
					"binding %s := %s violates universe ordering: %s cannot see %s",
					v.Key(), p, iv.Universe, ph.Universe,
				))
			}
			return true
		})
		return true
	})
}
