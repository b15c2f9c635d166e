package term

import (
	"reflect"
	"testing"
)

func tyVar(u, i int) VarTy {
	return VarTy{Var: InferenceVar{Universe: Universe{Index: u}, Index: i}}
}

func placeholderTy(u, i int) VarTy {
	return VarTy{Var: PlaceholderVar{Universe: Universe{Index: u}, Index: i}}
}

func TestFoldIdentity(t *testing.T) {
	ty := NewRigidTy("Vec", NewRigidTy("Int"), tyVar(0, 0))
	out := Fold[Parameter](ty, func(Variable) (Parameter, bool) {
		return nil, false
	})
	if !reflect.DeepEqual(out, Parameter(ty)) {
		t.Errorf("identity fold changed term: %s -> %s", ty, out)
	}
}

func TestSubstitutionApply(t *testing.T) {
	x := InferenceVar{Universe: RootUniverse, Index: 0}
	s := NewSubstitution().Bind(x, NewRigidTy("Int"))

	ty := NewRigidTy("Vec", VarTy{Var: x})
	got := ApplySubst(s, Parameter(ty))
	want := Parameter(NewRigidTy("Vec", NewRigidTy("Int")))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ApplySubst = %s, want %s", got, want)
	}
}

func TestSubstitutionIdempotence(t *testing.T) {
	// Applying a substitution to a term free of its domain is a no-op.
	x := InferenceVar{Universe: RootUniverse, Index: 7}
	s := NewSubstitution().Bind(x, NewRigidTy("Bool"))

	ty := NewRigidTy("Pair", NewRigidTy("Int"), placeholderTy(1, 0))
	got := ApplySubst(s, Parameter(ty))
	if !reflect.DeepEqual(got, Parameter(ty)) {
		t.Errorf("substitution touched a term outside its domain: %s -> %s", ty, got)
	}

	// And applying twice is the same as applying once.
	withX := NewRigidTy("Vec", VarTy{Var: x})
	once := ApplySubst(s, Parameter(withX))
	twice := ApplySubst(s, once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("substitution not idempotent: %s vs %s", once, twice)
	}
}

func TestSubstitutionCompose(t *testing.T) {
	x := InferenceVar{Universe: RootUniverse, Index: 0}
	y := InferenceVar{Universe: RootUniverse, Index: 1}

	s := NewSubstitution().Bind(x, NewRigidTy("Vec", VarTy{Var: y}))
	u := NewSubstitution().Bind(y, NewRigidTy("Int"))

	c := s.Compose(u)
	got, ok := c.Get(x)
	if !ok {
		t.Fatalf("composed substitution lost binding for %s", x.Key())
	}
	want := Parameter(NewRigidTy("Vec", NewRigidTy("Int")))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("compose: x := %s, want %s", got, want)
	}
	if _, ok := c.Get(y); !ok {
		t.Errorf("compose dropped binding for %s", y.Key())
	}
}

func TestBinderRoundTrip(t *testing.T) {
	// Close a body over two placeholders, reopen it with the same variables,
	// close again: the binders must be structurally equal.
	p0 := PlaceholderVar{Universe: Universe{Index: 1}, Index: 0}
	p1 := PlaceholderVar{Universe: Universe{Index: 1}, Index: 1}
	decls := []KindedName{{Kind: KindTy, Name: "T"}, {Kind: KindTy, Name: "U"}}

	body := Wcs{
		Implemented{NewTraitRef("Iterator", VarTy{Var: p0})},
		Equals{A: VarTy{Var: p0}, B: NewRigidTy("Vec", VarTy{Var: p1})},
	}

	b := NewBinder(decls, []Variable{p0, p1}, body)
	reopened := b.Instantiate([]Parameter{VarTy{Var: p0}, VarTy{Var: p1}})
	if !reflect.DeepEqual(reopened, body) {
		t.Fatalf("instantiate did not restore body: %s vs %s", reopened, body)
	}

	again := NewBinder(decls, []Variable{p0, p1}, reopened)
	if !b.Equal(again) {
		t.Errorf("binder round trip not stable: %s vs %s", b, again)
	}
}

func TestBinderNesting(t *testing.T) {
	// A variable closed by an outer binder keeps referring to it from inside
	// a nested binder, via a higher de Bruijn depth.
	outer := PlaceholderVar{Universe: Universe{Index: 1}, Index: 0}
	inner := PlaceholderVar{Universe: Universe{Index: 2}, Index: 1}

	innerBinder := NewBinder(
		[]KindedName{{Kind: KindTy, Name: "U"}},
		[]Variable{inner},
		Wcs{Equals{A: VarTy{Var: outer}, B: VarTy{Var: inner}}},
	)

	// Inner variable sits at depth 0 of the inner binder.
	got := innerBinder.PeekBody()[0].(Equals).B.(VarTy).Var
	if got != (Variable)(BoundVar{Depth: 0, Index: 0}) {
		t.Fatalf("inner variable closed at %v", got)
	}

	outerBinder := NewBinder(
		[]KindedName{{Kind: KindTy, Name: "T"}},
		[]Variable{outer},
		innerBinder,
	)

	// Through one nested binder, the outer variable is at depth 1.
	closedInner := outerBinder.PeekBody()
	a := closedInner.PeekBody()[0].(Equals).A.(VarTy).Var
	if a != (Variable)(BoundVar{Depth: 1, Index: 0}) {
		t.Errorf("outer variable closed at %v, want depth 1", a)
	}

	// Instantiating the outer binder leaves the inner binder intact.
	opened := outerBinder.Instantiate([]Parameter{NewRigidTy("Int")})
	b := opened.Instantiate([]Parameter{NewRigidTy("Bool")})
	want := Wcs{Equals{A: NewRigidTy("Int"), B: NewRigidTy("Bool")}}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("nested instantiation = %s, want %s", b, want)
	}
}

func TestFreeVars(t *testing.T) {
	x := InferenceVar{Universe: RootUniverse, Index: 0}
	p := PlaceholderVar{Universe: Universe{Index: 1}, Index: 0}

	ws := Wcs{
		Implemented{NewTraitRef("Eq", VarTy{Var: x})},
		Equals{A: VarTy{Var: p}, B: VarTy{Var: x}},
	}
	got := FreeVars(ws)
	want := []Variable{x, p}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FreeVars = %v, want %v", got, want)
	}
}

func TestInvert(t *testing.T) {
	pos := Implemented{NewTraitRef("Send", NewRigidTy("Int"))}
	inv, ok := pos.Invert()
	if !ok {
		t.Fatalf("trait bound should be invertible")
	}
	if inv.String() != "Int: !Send" {
		t.Errorf("inverted bound = %s", inv)
	}
	back, ok := inv.Invert()
	if !ok || !reflect.DeepEqual(back, Wc(pos)) {
		t.Errorf("double inversion = %s, want %s", back, pos)
	}

	if _, ok := (Equals{A: NewRigidTy("Int"), B: NewRigidTy("Int")}).Invert(); ok {
		t.Errorf("equality goals must not be invertible")
	}
}
