package term

import (
	"fmt"
	"reflect"
	"strings"
)

// KindedName declares one parameter of a binder. The name is a display hint
// only; binding is positional, by de Bruijn index.
type KindedName struct {
	Kind ParamKind
	Name string
}

// Binder pairs a body with the parameter declarations it closes over. Bound
// variables at depth 0 inside the body refer to these declarations. Binders
// compose by de Bruijn depth, never by renaming.
type Binder[T Term] struct {
	Decls []KindedName
	body  T
}

// NewBinder closes body over vars: every free occurrence of vars[i] becomes
// a bound variable with index i referring to the new binder.
func NewBinder[T Term](decls []KindedName, vars []Variable, body T) Binder[T] {
	if len(decls) != len(vars) {
		panic(fmt.Sprintf("NewBinder: %d declarations for %d variables", len(decls), len(vars)))
	}
	index := make(map[string]int, len(vars))
	for i, v := range vars {
		index[v.Key()] = i
	}
	closed, _ := body.Substitute(func(v Variable, depth int) (Parameter, bool) {
		i, ok := index[v.Key()]
		if !ok {
			return nil, false
		}
		return VarParam(decls[i].Kind, BoundVar{Depth: depth, Index: i}), true
	}, 0)
	return Binder[T]{Decls: decls, body: closed.(T)}
}

// EmptyBinder wraps a body that closes over nothing.
func EmptyBinder[T Term](body T) Binder[T] {
	return NewBinder[T](nil, nil, body)
}

// Kinds returns the declared parameter kinds, in binding order.
func (b Binder[T]) Kinds() []ParamKind {
	out := make([]ParamKind, len(b.Decls))
	for i, d := range b.Decls {
		out[i] = d.Kind
	}
	return out
}

// Instantiate replaces this binder's bound variables with the given
// parameters and returns the body. The parameters must match the declared
// arity and kinds; a mismatch is a fault in the caller, not in the checked
// program.
func (b Binder[T]) Instantiate(params []Parameter) T {
	if len(params) != len(b.Decls) {
		panic(fmt.Sprintf("Instantiate: %d parameters for binder of arity %d", len(params), len(b.Decls)))
	}
	for i, p := range params {
		if p.ParamKind() != b.Decls[i].Kind {
			panic(fmt.Sprintf("Instantiate: parameter %d is %v, binder declares %v", i, p.ParamKind(), b.Decls[i].Kind))
		}
	}
	out, changed := b.body.Substitute(func(v Variable, depth int) (Parameter, bool) {
		bv, ok := v.(BoundVar)
		if !ok || bv.Depth != depth {
			return nil, false
		}
		return params[bv.Index], true
	}, 0)
	if !changed {
		return b.body
	}
	return out.(T)
}

// PeekBody returns the body with its bound variables intact. Useful for
// structural comparison; the result must not be folded as if it were a
// standalone term.
func (b Binder[T]) PeekBody() T { return b.body }

// Equal compares two binders structurally, ignoring name hints.
func (b Binder[T]) Equal(o Binder[T]) bool {
	if len(b.Decls) != len(o.Decls) {
		return false
	}
	for i := range b.Decls {
		if b.Decls[i].Kind != o.Decls[i].Kind {
			return false
		}
	}
	return reflect.DeepEqual(b.body, o.body)
}

func (b Binder[T]) String() string {
	if len(b.Decls) == 0 {
		return b.body.String()
	}
	kinds := make([]string, len(b.Decls))
	for i, d := range b.Decls {
		kinds[i] = d.Kind.String()
	}
	return "for<" + strings.Join(kinds, ", ") + "> " + b.body.String()
}

func (b Binder[T]) VisitFreeVars(fn func(Variable) bool) bool {
	return b.body.VisitFreeVars(fn)
}

func (b Binder[T]) Substitute(f FoldFn, depth int) (Term, bool) {
	nb, changed := b.body.Substitute(f, depth+1)
	if !changed {
		return b, false
	}
	return Binder[T]{Decls: b.Decls, body: nb.(T)}, true
}
