// Package decls holds the binder-resolved program representation the checker
// consumes: crates, trait declarations, and positive/negative trait
// implementations. Construction happens once (by the manifest loader);
// everything here is read-only afterwards.
package decls

import (
	"github.com/Masterminds/semver/v3"

	"github.com/rill-lang/rill/internal/term"
)

// Item is a crate-level declaration.
type Item interface {
	ItemName() string
	isItem()
}

// AdtDecl declares a nominal type constructor and its parameter kinds.
type AdtDecl struct {
	Name   string
	Params []term.ParamKind
}

func (d AdtDecl) ItemName() string { return d.Name }
func (d AdtDecl) isItem()          {}

// TraitDecl declares a trait. The binder's first declaration is the Self
// parameter; the bound carries the trait's where-clauses and items.
type TraitDecl struct {
	ID     string
	Binder term.Binder[TraitBound]
}

func (d TraitDecl) ItemName() string { return d.ID }
func (d TraitDecl) isItem()          {}

// Arity is the number of generic parameters, including Self.
func (d TraitDecl) Arity() int { return len(d.Binder.Decls) }

// TraitBound is the body of a trait declaration's binder.
type TraitBound struct {
	WhereClauses term.Wcs
	Items        []TraitItem
}

func (b TraitBound) String() string {
	s := "where " + b.WhereClauses.String()
	for _, it := range b.Items {
		s += "; " + it.String()
	}
	return s
}

// TraitItem is an item declared inside a trait. Only associated types are
// modeled; methods are signature-checked elsewhere and do not participate
// in coherence.
type TraitItem interface {
	term.Term
	isTraitItem()
}

// AssociatedTy declares an associated type, with its own binder for any
// extra generics beyond the trait's.
type AssociatedTy struct {
	ID     string
	Binder term.Binder[AssociatedTyBound]
}

func (a AssociatedTy) String() string { return "type " + a.ID + ": " + a.Binder.String() }
func (a AssociatedTy) isTraitItem()   {}

// AssociatedTyBound carries what the associated type ensures about its value
// and the where-clauses under which it must be well-formed.
type AssociatedTyBound struct {
	Ensures      term.Wcs
	WhereClauses term.Wcs
}

func (b AssociatedTyBound) String() string {
	return "ensures " + b.Ensures.String() + " where " + b.WhereClauses.String()
}

// TraitImpl is a positive implementation: a binder-quantified assertion that
// the trait reference holds under the where-clauses.
type TraitImpl struct {
	Crate  string
	Binder term.Binder[ImplBound]
}

func (i TraitImpl) ItemName() string { return i.Binder.String() }
func (i TraitImpl) isItem()          {}

func (i TraitImpl) String() string { return "impl " + i.Binder.String() }

// TraitID returns the implemented trait without opening the binder.
func (i TraitImpl) TraitID() string { return i.Binder.PeekBody().TraitRef.Trait }

// Equal is structural equality of the quantified assertion, ignoring
// parameter name hints and the declaring crate.
func (i TraitImpl) Equal(o TraitImpl) bool { return i.Binder.Equal(o.Binder) }

// NegTraitImpl is a negative implementation: a promise that the trait
// reference will never hold.
type NegTraitImpl struct {
	Crate  string
	Binder term.Binder[ImplBound]
}

func (i NegTraitImpl) ItemName() string { return i.Binder.String() }
func (i NegTraitImpl) isItem()          {}

func (i NegTraitImpl) String() string { return "impl !" + i.Binder.String() }

func (i NegTraitImpl) TraitID() string { return i.Binder.PeekBody().TraitRef.Trait }

// ImplBound is the body of an implementation's binder.
type ImplBound struct {
	TraitRef     term.TraitRef
	WhereClauses term.Wcs
	AssocValues  []AssocTyValue
}

func (b ImplBound) String() string {
	s := b.TraitRef.String()
	if len(b.WhereClauses) > 0 {
		s += " where " + b.WhereClauses.String()
	}
	for _, av := range b.AssocValues {
		s += "; type " + av.Item + " = " + av.Value.String()
	}
	return s
}

// AssocTyValue gives the value of an associated type in a positive impl.
type AssocTyValue struct {
	Item  string
	Value term.Parameter
}

// Crate is one compilation unit of the program.
type Crate struct {
	Name    string
	Version *semver.Version
	Items   []Item
}

// Program is the fully loaded input: every crate, with every crate's
// implementations visible for coherence purposes.
type Program struct {
	Crates []Crate
}

// ItemsFromAllCrates returns every item of every crate, in crate order.
func (p *Program) ItemsFromAllCrates() []Item {
	var out []Item
	for _, c := range p.Crates {
		out = append(out, c.Items...)
	}
	return out
}

// Crate returns the named crate.
func (p *Program) Crate(name string) (Crate, bool) {
	for _, c := range p.Crates {
		if c.Name == name {
			return c, true
		}
	}
	return Crate{}, false
}

// ItemsOfKind filters items down to one declaration kind.
func ItemsOfKind[T Item](items []Item) []T {
	var out []T
	for _, it := range items {
		if v, ok := it.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
