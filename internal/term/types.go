package term

import (
	"fmt"
	"strings"
)

// Parameter is the tagged union of types and lifetimes: everything a generic
// parameter can be instantiated with.
type Parameter interface {
	Term
	ParamKind() ParamKind
	// AsVariable unwraps a parameter that is just a variable occurrence.
	AsVariable() (Variable, bool)
	isParameter()
}

// Ty is a type parameter.
type Ty interface {
	Parameter
	isTy()
}

// Lt is a lifetime parameter. Lifetimes are opaque terms here; they
// participate in unification and nothing else.
type Lt interface {
	Parameter
	isLt()
}

// RigidTy is a type with a rigid head constructor: an ADT, a scalar, a
// reference or a tuple. Two rigid types are equatable only if their names
// and parameters match.
type RigidTy struct {
	Name   string
	Params []Parameter
}

// NewRigidTy builds a rigid type, normalizing an empty parameter list to nil
// so structural comparison is reliable.
func NewRigidTy(name string, params ...Parameter) RigidTy {
	if len(params) == 0 {
		params = nil
	}
	return RigidTy{Name: name, Params: params}
}

func (t RigidTy) String() string {
	if len(t.Params) == 0 {
		return t.Name
	}
	return t.Name + "<" + joinParams(t.Params) + ">"
}

func (t RigidTy) ParamKind() ParamKind         { return KindTy }
func (t RigidTy) AsVariable() (Variable, bool) { return nil, false }
func (t RigidTy) isParameter()                 {}
func (t RigidTy) isTy()                        {}

func (t RigidTy) VisitFreeVars(fn func(Variable) bool) bool {
	return freeVarsParams(t.Params, fn)
}

func (t RigidTy) Substitute(f FoldFn, depth int) (Term, bool) {
	ps, changed := foldParams(t.Params, f, depth)
	if !changed {
		return t, false
	}
	return RigidTy{Name: t.Name, Params: ps}, true
}

// AliasTy is an associated type projection Trait::Item applied to
// parameters. It is not rigid: it may normalize to another type entirely.
type AliasTy struct {
	Trait  string
	Item   string
	Params []Parameter
}

func NewAliasTy(trait, item string, params ...Parameter) AliasTy {
	if len(params) == 0 {
		params = nil
	}
	return AliasTy{Trait: trait, Item: item, Params: params}
}

func (t AliasTy) String() string {
	base := t.Trait + "::" + t.Item
	if len(t.Params) == 0 {
		return base
	}
	return base + "<" + joinParams(t.Params) + ">"
}

func (t AliasTy) ParamKind() ParamKind         { return KindTy }
func (t AliasTy) AsVariable() (Variable, bool) { return nil, false }
func (t AliasTy) isParameter()                 {}
func (t AliasTy) isTy()                        {}

func (t AliasTy) VisitFreeVars(fn func(Variable) bool) bool {
	return freeVarsParams(t.Params, fn)
}

func (t AliasTy) Substitute(f FoldFn, depth int) (Term, bool) {
	ps, changed := foldParams(t.Params, f, depth)
	if !changed {
		return t, false
	}
	return AliasTy{Trait: t.Trait, Item: t.Item, Params: ps}, true
}

// VarTy is a variable occurring in type position.
type VarTy struct {
	Var Variable
}

func (t VarTy) String() string               { return t.Var.Key() }
func (t VarTy) ParamKind() ParamKind         { return KindTy }
func (t VarTy) AsVariable() (Variable, bool) { return t.Var, true }
func (t VarTy) isParameter()                 {}
func (t VarTy) isTy()                        {}

func (t VarTy) VisitFreeVars(fn func(Variable) bool) bool {
	if t.Var.IsFree() {
		return fn(t.Var)
	}
	return true
}

func (t VarTy) Substitute(f FoldFn, depth int) (Term, bool) {
	p, ok := f(t.Var, depth)
	if !ok {
		return t, false
	}
	if _, isTy := p.(Ty); !isTy {
		panic(fmt.Sprintf("fold: variable %s in type position replaced with %s", t.Var.Key(), p))
	}
	return p, true
}

// StaticLt is the one concrete lifetime.
type StaticLt struct{}

func (StaticLt) String() string                         { return "'static" }
func (StaticLt) ParamKind() ParamKind                   { return KindLt }
func (StaticLt) AsVariable() (Variable, bool)           { return nil, false }
func (StaticLt) isParameter()                           {}
func (StaticLt) isLt()                                  {}
func (StaticLt) VisitFreeVars(func(Variable) bool) bool { return true }

func (l StaticLt) Substitute(FoldFn, int) (Term, bool) { return l, false }

// VarLt is a variable occurring in lifetime position.
type VarLt struct {
	Var Variable
}

func (l VarLt) String() string               { return "'" + l.Var.Key() }
func (l VarLt) ParamKind() ParamKind         { return KindLt }
func (l VarLt) AsVariable() (Variable, bool) { return l.Var, true }
func (l VarLt) isParameter()                 {}
func (l VarLt) isLt()                        {}

func (l VarLt) VisitFreeVars(fn func(Variable) bool) bool {
	if l.Var.IsFree() {
		return fn(l.Var)
	}
	return true
}

func (l VarLt) Substitute(f FoldFn, depth int) (Term, bool) {
	p, ok := f(l.Var, depth)
	if !ok {
		return l, false
	}
	if _, isLt := p.(Lt); !isLt {
		panic(fmt.Sprintf("fold: variable %s in lifetime position replaced with %s", l.Var.Key(), p))
	}
	return p, true
}

func joinParams(params []Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
