package prove

import (
	"testing"

	"github.com/rill-lang/rill/internal/term"
)

// tyBinder builds a single-parameter type binder whose body is the bound
// parameter itself, so instantiating it hands back the fresh variable.
func tyBinder(name string) term.Binder[term.Parameter] {
	scratch := term.InferenceVar{Universe: term.RootUniverse, Index: 9999}
	return term.NewBinder(
		[]term.KindedName{{Kind: term.KindTy, Name: name}},
		[]term.Variable{scratch},
		term.VarParam(term.KindTy, scratch),
	)
}

func freshExistential(env *Env, name string) term.Parameter {
	return InstantiateExistentially(env, tyBinder(name))
}

func freshUniversal(env *Env, name string) term.Parameter {
	return InstantiateUniversally(env, tyBinder(name))
}

func TestInstantiateUniversallyBumpsUniverse(t *testing.T) {
	env := NewEnv()
	if env.Universe() != term.RootUniverse {
		t.Fatalf("fresh env universe = %s", env.Universe())
	}

	p := freshUniversal(env, "T")
	if env.Universe() != term.RootUniverse.Next() {
		t.Errorf("universe after universal instantiation = %s", env.Universe())
	}
	v, ok := p.AsVariable()
	if !ok {
		t.Fatalf("instantiation produced non-variable %s", p)
	}
	ph, ok := v.(term.PlaceholderVar)
	if !ok {
		t.Fatalf("universal instantiation produced %T", v)
	}
	if ph.Universe != env.Universe() {
		t.Errorf("placeholder universe %s, env universe %s", ph.Universe, env.Universe())
	}
	if !env.KnowsVar(v) {
		t.Error("env does not know its own placeholder")
	}
	if kind, _ := env.VarKind(v); kind != term.KindTy {
		t.Errorf("placeholder kind = %v", kind)
	}

	// A second opening of the same binder is logically independent.
	q := freshUniversal(env, "T")
	if q.String() == p.String() {
		t.Errorf("two universal instantiations produced the same placeholder %s", p)
	}
}

func TestInstantiateExistentiallyKeepsUniverse(t *testing.T) {
	env := NewEnv()
	freshUniversal(env, "T")
	before := env.Universe()

	p := freshExistential(env, "X")
	if env.Universe() != before {
		t.Errorf("universe changed by existential instantiation: %s -> %s", before, env.Universe())
	}
	v, _ := p.AsVariable()
	iv, ok := v.(term.InferenceVar)
	if !ok {
		t.Fatalf("existential instantiation produced %T", v)
	}
	if iv.Universe != before {
		t.Errorf("inference variable universe %s, want %s", iv.Universe, before)
	}
}

func TestEncloses(t *testing.T) {
	env := NewEnv()
	p := freshExistential(env, "X")
	if !env.Encloses(p) {
		t.Error("env does not enclose its own variable")
	}

	foreign := term.VarParam(term.KindTy, term.InferenceVar{Universe: term.RootUniverse, Index: 42})
	if env.Encloses(foreign) {
		t.Error("env encloses a variable it never allocated")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	env := NewEnv()
	freshExistential(env, "X")

	clone := env.Clone()
	q := freshUniversal(clone, "T")

	v, _ := q.AsVariable()
	if env.KnowsVar(v) {
		t.Error("allocation in clone leaked into the original env")
	}
	if !clone.EnclosesEnv(env) {
		t.Error("clone does not enclose the env it was cloned from")
	}
	if env.EnclosesEnv(clone) {
		t.Error("original env encloses variables allocated after the clone")
	}
}

func TestCoherenceModeInKey(t *testing.T) {
	env := NewEnv()
	coh := env.WithCoherenceMode(true)
	if env.Key() == coh.Key() {
		t.Error("coherence mode is not part of the env key")
	}
	if !coh.InCoherenceMode() || env.InCoherenceMode() {
		t.Error("coherence flag mismatch")
	}
}
