package check

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/term"
)

func implemented(trait string, params ...term.Parameter) term.Wc {
	return term.Implemented{TraitRef: term.NewTraitRef(trait, params...)}
}

func traitDecl(id string, arity int, f func(params []term.Parameter) decls.TraitBound) decls.TraitDecl {
	kn := make([]term.KindedName, arity)
	vars := make([]term.Variable, arity)
	params := make([]term.Parameter, arity)
	for i := range kn {
		kn[i] = term.KindedName{Kind: term.KindTy, Name: fmt.Sprintf("P%d", i)}
		vars[i] = term.InferenceVar{Universe: term.RootUniverse, Index: 9000 + i}
		params[i] = term.VarParam(term.KindTy, vars[i])
	}
	body := decls.TraitBound{}
	if f != nil {
		body = f(params)
	}
	return decls.TraitDecl{ID: id, Binder: term.NewBinder(kn, vars, body)}
}

func markerTrait(id string) decls.TraitDecl { return traitDecl(id, 1, nil) }

func concreteImpl(crate, trait string, self term.Parameter, wcs ...term.Wc) decls.TraitImpl {
	return decls.TraitImpl{
		Crate:  crate,
		Binder: term.EmptyBinder(decls.ImplBound{TraitRef: term.NewTraitRef(trait, self), WhereClauses: wcs}),
	}
}

func concreteNegImpl(crate, trait string, self term.Parameter) decls.NegTraitImpl {
	return decls.NegTraitImpl{
		Crate:  crate,
		Binder: term.EmptyBinder(decls.ImplBound{TraitRef: term.NewTraitRef(trait, self)}),
	}
}

// genericImpl builds impl<T> trait for T with the where-clauses produced
// from the parameter.
func genericImpl(crate, trait string, f func(t term.Parameter) term.Wcs) decls.TraitImpl {
	tv := term.InferenceVar{Universe: term.RootUniverse, Index: 9100}
	tp := term.VarParam(term.KindTy, tv)
	var wcs term.Wcs
	if f != nil {
		wcs = f(tp)
	}
	return decls.TraitImpl{
		Crate: crate,
		Binder: term.NewBinder(
			[]term.KindedName{{Kind: term.KindTy, Name: "T"}},
			[]term.Variable{tv},
			decls.ImplBound{TraitRef: term.NewTraitRef(trait, tp), WhereClauses: wcs},
		),
	}
}

func oneCrate(items ...decls.Item) *decls.Program {
	return &decls.Program{Crates: []decls.Crate{{Name: "core", Items: items}}}
}

func TestDisjointConcreteImpls(t *testing.T) {
	p := oneCrate(
		markerTrait("Clone"),
		concreteImpl("core", "Clone", term.NewRigidTy("I32")),
		concreteImpl("core", "Clone", term.NewRigidTy("Bool")),
	)
	if err := New(p).CheckProgram(); err != nil {
		t.Errorf("disjoint impls rejected: %v", err)
	}
}

func TestDuplicateImpl(t *testing.T) {
	p := oneCrate(
		markerTrait("Clone"),
		concreteImpl("core", "Clone", term.NewRigidTy("I32")),
		concreteImpl("core", "Clone", term.NewRigidTy("I32")),
	)
	err := New(p).CheckProgram()
	var dup *DuplicateImplError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want duplicate impl error", err)
	}
	if dup.Trait != "Clone" {
		t.Errorf("duplicate reported for trait %s", dup.Trait)
	}
}

func TestBlanketImplOverlapsConcrete(t *testing.T) {
	p := oneCrate(
		markerTrait("Clone"),
		genericImpl("core", "Clone", nil),
		concreteImpl("core", "Clone", term.NewRigidTy("I32")),
	)
	err := New(p).CheckProgram()
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("got %v, want overlap error", err)
	}
	if overlap.Trait != "Clone" {
		t.Errorf("overlap reported for trait %s", overlap.Trait)
	}
}

func TestExclusionaryBoundPermitsBlanketAndConcrete(t *testing.T) {
	// The blanket impl requires T: Bound; the concrete type promises to
	// never implement Bound, so the two impls can never meet.
	p := oneCrate(
		markerTrait("Clone"),
		markerTrait("Bound"),
		decls.AdtDecl{Name: "Concrete"},
		genericImpl("core", "Clone", func(tp term.Parameter) term.Wcs {
			return term.Wcs{implemented("Bound", tp)}
		}),
		concreteImpl("core", "Clone", term.NewRigidTy("Concrete")),
		concreteNegImpl("core", "Bound", term.NewRigidTy("Concrete")),
	)
	if err := New(p).CheckProgram(); err != nil {
		t.Errorf("exclusionary bound not honored: %v", err)
	}
}

func TestWithoutNegativeImplTheBlanketOverlaps(t *testing.T) {
	// Same program minus the negative impl: nothing prevents Concrete
	// from implementing Bound downstream, so the impls may overlap.
	p := oneCrate(
		markerTrait("Clone"),
		markerTrait("Bound"),
		decls.AdtDecl{Name: "Concrete"},
		genericImpl("core", "Clone", func(tp term.Parameter) term.Wcs {
			return term.Wcs{implemented("Bound", tp)}
		}),
		concreteImpl("core", "Clone", term.NewRigidTy("Concrete")),
	)
	var overlap *OverlapError
	if err := New(p).CheckProgram(); !errors.As(err, &overlap) {
		t.Errorf("got %v, want overlap error", err)
	}
}

func TestPositiveAndNegativeImplConflict(t *testing.T) {
	p := oneCrate(
		markerTrait("Clone"),
		concreteImpl("core", "Clone", term.NewRigidTy("I32")),
		concreteNegImpl("core", "Clone", term.NewRigidTy("I32")),
	)
	var overlap *OverlapError
	if err := New(p).CheckProgram(); !errors.As(err, &overlap) {
		t.Errorf("got %v, want overlap error", err)
	}
}

func TestOrphanRule(t *testing.T) {
	core := decls.Crate{Name: "core", Items: []decls.Item{
		markerTrait("Show"),
		decls.AdtDecl{Name: "RemoteType"},
	}}

	tests := []struct {
		name   string
		items  []decls.Item
		orphan bool
	}{
		{
			name:  "impl of remote trait for local type",
			items: []decls.Item{decls.AdtDecl{Name: "LocalType"}, concreteImpl("app", "Show", term.NewRigidTy("LocalType"))},
		},
		{
			name:  "impl of local trait for remote type",
			items: []decls.Item{markerTrait("Render"), concreteImpl("app", "Render", term.NewRigidTy("RemoteType"))},
		},
		{
			name:   "impl of remote trait for remote type",
			items:  []decls.Item{concreteImpl("app", "Show", term.NewRigidTy("RemoteType"))},
			orphan: true,
		},
		{
			name:   "negative impl of remote trait for remote type",
			items:  []decls.Item{concreteNegImpl("app", "Show", term.NewRigidTy("RemoteType"))},
			orphan: true,
		},
		{
			name: "blanket impl of remote trait",
			items: []decls.Item{
				markerTrait("Render"),
				genericImpl("app", "Show", func(tp term.Parameter) term.Wcs {
					return term.Wcs{implemented("Render", tp)}
				}),
			},
			orphan: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &decls.Program{Crates: []decls.Crate{core, {Name: "app", Items: tt.items}}}
			err := New(p).CheckCrate("app")
			var orphan *OrphanImplError
			if got := errors.As(err, &orphan); got != tt.orphan {
				t.Errorf("CheckCrate(app) = %v, orphan = %v, want %v", err, got, tt.orphan)
			}
		})
	}
}

func TestRemoteImplsVisibleButNotReChecked(t *testing.T) {
	// The app crate is judged only for its own impls; core's impl of its
	// own trait is core's business.
	core := decls.Crate{Name: "core", Items: []decls.Item{
		markerTrait("Show"),
		decls.AdtDecl{Name: "RemoteType"},
		concreteImpl("core", "Show", term.NewRigidTy("RemoteType")),
	}}
	app := decls.Crate{Name: "app", Items: []decls.Item{
		decls.AdtDecl{Name: "LocalType"},
		concreteImpl("app", "Show", term.NewRigidTy("LocalType")),
	}}
	p := &decls.Program{Crates: []decls.Crate{core, app}}
	if err := New(p).CheckProgram(); err != nil {
		t.Errorf("cross-crate disjoint impls rejected: %v", err)
	}

	// But an app impl overlapping a remote blanket impl is caught from
	// app's side.
	core.Items = append(core.Items, genericImpl("core", "Show", nil))
	p = &decls.Program{Crates: []decls.Crate{core, app}}
	var overlap *OverlapError
	if err := New(p).CheckCrate("app"); !errors.As(err, &overlap) {
		t.Errorf("got %v, want overlap error", err)
	}
}

func TestRemoteTraitBoundCannotRefuteOverlap(t *testing.T) {
	// The guarded impl's bound names a trait core owns; whether I32 ever
	// implements it is core's call, so the bound cannot prove the two
	// impls apart.
	core := decls.Crate{Name: "core", Items: []decls.Item{markerTrait("Remote")}}
	app := decls.Crate{Name: "app", Items: []decls.Item{
		markerTrait("Local"),
		concreteImpl("app", "Local", term.NewRigidTy("I32"), implemented("Remote", term.NewRigidTy("I32"))),
		concreteImpl("app", "Local", term.NewRigidTy("I32")),
	}}
	p := &decls.Program{Crates: []decls.Crate{core, app}}
	var overlap *OverlapError
	if err := New(p).CheckCrate("app"); !errors.As(err, &overlap) {
		t.Errorf("got %v, want overlap error", err)
	}
}

func TestStructurallyEqualImplAcrossCrates(t *testing.T) {
	// core implements its own trait for app's type; app, entitled by the
	// local type, declares the same impl. Each crate answers only for
	// duplicates among its own impls.
	core := decls.Crate{Name: "core", Items: []decls.Item{
		markerTrait("Show"),
		concreteImpl("core", "Show", term.NewRigidTy("AppType")),
	}}
	app := decls.Crate{Name: "app", Items: []decls.Item{
		decls.AdtDecl{Name: "AppType"},
		concreteImpl("app", "Show", term.NewRigidTy("AppType")),
	}}
	p := &decls.Program{Crates: []decls.Crate{core, app}}
	if err := New(p).CheckCrate("app"); err != nil {
		t.Errorf("CheckCrate(app) = %v, want success", err)
	}
}

func TestUnknownCrate(t *testing.T) {
	p := oneCrate(markerTrait("Clone"))
	var unknown *UnknownCrateError
	if err := New(p).CheckCrate("nope"); !errors.As(err, &unknown) {
		t.Errorf("got %v, want unknown crate error", err)
	}
}
