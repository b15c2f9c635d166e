// Package prove contains the logical context (Env), the result of a
// successful proof (Constraints), and the where-clause solver built on the
// judgment engine, including the negation-as-failure primitive used by
// coherence checking.
package prove

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill/internal/term"
)

// VarRecord tracks one live variable: its identity (which carries its
// universe) and its parameter kind.
type VarRecord struct {
	Var  term.Variable
	Kind term.ParamKind
}

// Env is the logical context threaded through every proof step: the current
// maximum universe, the live placeholder/inference variables, and whether
// coherence mode is active. The Env is the sole allocator of universes and
// variables; allocation is deterministic (the next index is derived from
// the variable count), which is what makes rule firings repeatable.
//
// Envs are owned by the proof branch working on them. Branches that explore
// independently must Clone first; the clone is cheap because terms are
// shared structurally.
type Env struct {
	universe  term.Universe
	vars      []VarRecord
	coherence bool
}

func NewEnv() *Env {
	return &Env{universe: term.RootUniverse}
}

// Clone returns an independent copy. Term data is shared; only the variable
// records are duplicated.
func (e *Env) Clone() *Env {
	vars := make([]VarRecord, len(e.vars))
	copy(vars, e.vars)
	return &Env{universe: e.universe, vars: vars, coherence: e.coherence}
}

// WithCoherenceMode returns a derived Env with coherence mode set. Coherence
// mode withholds assumptions that are unsound while checking coherence:
// goals that downstream crates could still affect become ambiguous instead
// of refutable.
func (e *Env) WithCoherenceMode(on bool) *Env {
	d := e.Clone()
	d.coherence = on
	return d
}

func (e *Env) InCoherenceMode() bool { return e.coherence }

func (e *Env) Universe() term.Universe { return e.universe }

// KnowsVar reports whether v was allocated by this Env (or an ancestor).
func (e *Env) KnowsVar(v term.Variable) bool {
	for _, r := range e.vars {
		if r.Var == v {
			return true
		}
	}
	return false
}

// VarKind returns the parameter kind v was allocated with.
func (e *Env) VarKind(v term.Variable) (term.ParamKind, bool) {
	for _, r := range e.vars {
		if r.Var == v {
			return r.Kind, true
		}
	}
	return 0, false
}

// Encloses reports whether every free variable of t is known to this Env.
// The judgment engine asserts this on every result it returns: a violation
// means the engine leaked a variable, not that the checked program is wrong.
func (e *Env) Encloses(t term.Term) bool {
	ok := true
	t.VisitFreeVars(func(v term.Variable) bool {
		if !e.KnowsVar(v) {
			ok = false
			return false
		}
		return true
	})
	return ok
}

// EnclosesEnv reports whether every variable of o is known to this Env.
func (e *Env) EnclosesEnv(o *Env) bool {
	for _, r := range o.vars {
		if !e.KnowsVar(r.Var) {
			return false
		}
	}
	return true
}

// InstantiateUniversally opens a binder with fresh placeholders in a freshly
// bumped universe and returns the body. Each call allocates new identities:
// opening the same binder twice yields unrelated placeholders, because each
// universal instantiation is logically independent.
func InstantiateUniversally[T term.Term](e *Env, b term.Binder[T]) T {
	e.universe = e.universe.Next()
	params := make([]term.Parameter, len(b.Decls))
	for i, d := range b.Decls {
		v := term.PlaceholderVar{Universe: e.universe, Index: len(e.vars)}
		e.vars = append(e.vars, VarRecord{Var: v, Kind: d.Kind})
		params[i] = term.VarParam(d.Kind, v)
	}
	return b.Instantiate(params)
}

// InstantiateExistentially opens a binder with fresh inference variables in
// the current universe and returns the body.
func InstantiateExistentially[T term.Term](e *Env, b term.Binder[T]) T {
	params := make([]term.Parameter, len(b.Decls))
	for i, d := range b.Decls {
		v := term.InferenceVar{Universe: e.universe, Index: len(e.vars)}
		e.vars = append(e.vars, VarRecord{Var: v, Kind: d.Kind})
		params[i] = term.VarParam(d.Kind, v)
	}
	return b.Instantiate(params)
}

// Key is the canonical text form of the Env, used to key judgment inputs.
func (e *Env) Key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "env(%s", e.universe)
	if e.coherence {
		sb.WriteString(";coherence")
	}
	sb.WriteString(";")
	for i, r := range e.vars {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(r.Var.Key())
	}
	sb.WriteString(")")
	return sb.String()
}

func (e *Env) String() string { return e.Key() }
