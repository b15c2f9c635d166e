package term

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
)

var emptySubstMap = immutable.NewSortedMap(nil)

type binding struct {
	v Variable
	p Parameter
}

// Substitution is a persistent, order-irrelevant mapping from variables to
// parameters. Binding returns a new substitution; existing ones are never
// mutated, so proof branches can share them freely.
type Substitution struct {
	m *immutable.SortedMap
}

func NewSubstitution() Substitution {
	return Substitution{m: emptySubstMap}
}

func (s Substitution) sorted() *immutable.SortedMap {
	if s.m == nil {
		return emptySubstMap
	}
	return s.m
}

func (s Substitution) Len() int { return s.sorted().Len() }

func (s Substitution) IsEmpty() bool { return s.Len() == 0 }

// Get returns the parameter bound to v, if any.
func (s Substitution) Get(v Variable) (Parameter, bool) {
	raw, ok := s.sorted().Get(v.Key())
	if !ok {
		return nil, false
	}
	return raw.(binding).p, true
}

// Bind returns a substitution extended with v := p. Rebinding a variable to
// a different value is a fault in the engine: learned bindings are only ever
// refined by composition, never overwritten.
func (s Substitution) Bind(v Variable, p Parameter) Substitution {
	if old, ok := s.Get(v); ok {
		if old.String() != p.String() {
			panic(fmt.Sprintf("Bind: %s already bound to %s, cannot rebind to %s", v.Key(), old, p))
		}
		return s
	}
	return Substitution{m: s.sorted().Set(v.Key(), binding{v: v, p: p})}
}

// Domain returns the bound variables in canonical (sorted key) order.
func (s Substitution) Domain() []Variable {
	out := make([]Variable, 0, s.Len())
	s.Range(func(v Variable, _ Parameter) bool {
		out = append(out, v)
		return true
	})
	return out
}

// Range iterates bindings in canonical order; returning false stops.
func (s Substitution) Range(fn func(Variable, Parameter) bool) {
	iter := s.sorted().Iterator()
	for !iter.Done() {
		_, raw := iter.Next()
		b := raw.(binding)
		if !fn(b.v, b.p) {
			return
		}
	}
}

func (s Substitution) String() string {
	parts := make([]string, 0, s.Len())
	s.Range(func(v Variable, p Parameter) bool {
		parts = append(parts, v.Key()+" := "+p.String())
		return true
	})
	return "{" + strings.Join(parts, ", ") + "}"
}

// ApplySubst rewrites every free occurrence of a bound variable in t with
// its value. Values contain only free variables, so binders inside t cannot
// capture them.
func ApplySubst[T Term](s Substitution, t T) T {
	if s.IsEmpty() {
		return t
	}
	return Fold(t, func(v Variable) (Parameter, bool) {
		return s.Get(v)
	})
}

// Compose sequences two substitutions: the result first applies s, then t.
// Bindings of s have t applied to their values; bindings of t for variables
// not bound in s are carried over.
func (s Substitution) Compose(t Substitution) Substitution {
	if t.IsEmpty() {
		return s
	}
	out := NewSubstitution()
	s.Range(func(v Variable, p Parameter) bool {
		out = out.Bind(v, ApplySubst(t, p))
		return true
	})
	t.Range(func(v Variable, p Parameter) bool {
		if _, ok := s.Get(v); !ok {
			out = out.Bind(v, p)
		}
		return true
	})
	return out
}
