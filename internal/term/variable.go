package term

import "fmt"

// ParamKind distinguishes the two kinds of generic parameters.
type ParamKind int

const (
	KindTy ParamKind = iota
	KindLt
)

func (k ParamKind) String() string {
	switch k {
	case KindTy:
		return "ty"
	case KindLt:
		return "lt"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

// Universe is a stratification level for variables. The root universe holds
// only globally visible names; each universal instantiation bumps into a
// fresh, higher universe.
type Universe struct {
	Index int
}

var RootUniverse = Universe{Index: 0}

// CanSee reports whether a value introduced in universe o is visible from u.
// A variable may only be solved in terms of values it can see.
func (u Universe) CanSee(o Universe) bool {
	return u.Index >= o.Index
}

func (u Universe) Next() Universe {
	return Universe{Index: u.Index + 1}
}

func (u Universe) String() string {
	return fmt.Sprintf("U%d", u.Index)
}

// DepthOpen marks a bound variable whose binder is currently open, i.e. the
// body has been extracted and not yet closed back up.
const DepthOpen = -1

// Variable is the three-way union of variable identities. The kinds are
// never confused: bound variables refer to an enclosing binder by de Bruijn
// depth, placeholders stand for arbitrary values opaque beyond their
// universe, and inference variables are unknowns to be solved.
type Variable interface {
	// Key is a canonical text form, unique across all three kinds.
	Key() string
	// IsFree reports whether the variable is free, i.e. not referring to an
	// enclosing binder.
	IsFree() bool
	isVariable()
}

// BoundVar refers to a binder Depth levels out from its occurrence; Index
// selects among that binder's declarations.
type BoundVar struct {
	Depth int // de Bruijn depth, or DepthOpen
	Index int
}

func (v BoundVar) Key() string {
	if v.Depth == DepthOpen {
		return fmt.Sprintf("^open_%d", v.Index)
	}
	return fmt.Sprintf("^%d_%d", v.Depth, v.Index)
}

func (v BoundVar) IsFree() bool { return v.Depth == DepthOpen }

func (v BoundVar) isVariable() {}

// PlaceholderVar is a universally quantified unknown: nothing is known about
// it beyond its universe.
type PlaceholderVar struct {
	Universe Universe
	Index    int
}

func (v PlaceholderVar) Key() string {
	return fmt.Sprintf("!%d_%d", v.Universe.Index, v.Index)
}

func (v PlaceholderVar) IsFree() bool { return true }

func (v PlaceholderVar) isVariable() {}

// InferenceVar is an existentially quantified unknown, solved by
// unification. Its universe bounds which placeholders may appear in its
// solution.
type InferenceVar struct {
	Universe Universe
	Index    int
}

func (v InferenceVar) Key() string {
	return fmt.Sprintf("?%d_%d", v.Universe.Index, v.Index)
}

func (v InferenceVar) IsFree() bool { return true }

func (v InferenceVar) isVariable() {}

// VarParam wraps a variable into a parameter of the given kind.
func VarParam(kind ParamKind, v Variable) Parameter {
	switch kind {
	case KindTy:
		return VarTy{Var: v}
	case KindLt:
		return VarLt{Var: v}
	default:
		panic(fmt.Sprintf("VarParam: unknown parameter kind %v", kind))
	}
}
