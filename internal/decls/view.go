package decls

import (
	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/term"
)

var scalarTys = func() map[string]bool {
	m := make(map[string]bool, len(config.ScalarTypeNames))
	for _, n := range config.ScalarTypeNames {
		m[n] = true
	}
	return m
}()

// IsScalar reports whether name is a built-in scalar head.
func IsScalar(name string) bool { return scalarTys[name] }

// Decls is the flattened, read-only view of a program that the solver and
// the coherence checker consume: trait/impl lookup by trait id plus the
// locality facts for the crate under check.
type Decls struct {
	currentCrate string
	traits       map[string]TraitDecl
	adts         map[string]AdtDecl
	impls        map[string][]TraitImpl
	negImpls     map[string][]NegTraitImpl
	localTraits  map[string]bool
	localAdts    map[string]bool
}

// NewDecls flattens a program from the point of view of currentCrate.
func NewDecls(p *Program, currentCrate string) *Decls {
	d := &Decls{
		currentCrate: currentCrate,
		traits:       make(map[string]TraitDecl),
		adts:         make(map[string]AdtDecl),
		impls:        make(map[string][]TraitImpl),
		negImpls:     make(map[string][]NegTraitImpl),
		localTraits:  make(map[string]bool),
		localAdts:    make(map[string]bool),
	}
	for _, c := range p.Crates {
		local := c.Name == currentCrate
		for _, it := range c.Items {
			switch v := it.(type) {
			case TraitDecl:
				d.traits[v.ID] = v
				if local {
					d.localTraits[v.ID] = true
				}
			case AdtDecl:
				d.adts[v.Name] = v
				if local {
					d.localAdts[v.Name] = true
				}
			case TraitImpl:
				d.impls[v.TraitID()] = append(d.impls[v.TraitID()], v)
			case NegTraitImpl:
				d.negImpls[v.TraitID()] = append(d.negImpls[v.TraitID()], v)
			}
		}
	}
	return d
}

// CurrentCrate is the crate under check.
func (d *Decls) CurrentCrate() string { return d.currentCrate }

// Trait returns the declaration of the named trait.
func (d *Decls) Trait(id string) (TraitDecl, bool) {
	t, ok := d.traits[id]
	return t, ok
}

// Adt returns the declaration of the named type constructor.
func (d *Decls) Adt(name string) (AdtDecl, bool) {
	a, ok := d.adts[name]
	return a, ok
}

// HeadArity returns the declared arity of a rigid head, whether scalar or
// ADT.
func (d *Decls) HeadArity(name string) (int, bool) {
	if IsScalar(name) {
		return 0, true
	}
	if a, ok := d.adts[name]; ok {
		return len(a.Params), true
	}
	return 0, false
}

// ImplsOf returns every positive impl of the trait, across all crates.
func (d *Decls) ImplsOf(traitID string) []TraitImpl { return d.impls[traitID] }

// NegImplsOf returns every negative impl of the trait, across all crates.
func (d *Decls) NegImplsOf(traitID string) []NegTraitImpl { return d.negImpls[traitID] }

// IsLocalTraitRef implements the orphan rule's locality predicate: the
// reference must name a trait declared in the current crate, or its Self
// parameter must have a rigid head declared in the current crate.
func (d *Decls) IsLocalTraitRef(r term.TraitRef) bool {
	if d.localTraits[r.Trait] {
		return true
	}
	if rigid, ok := r.SelfParam().(term.RigidTy); ok {
		return d.localAdts[rigid.Name]
	}
	return false
}
