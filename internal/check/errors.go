package check

import (
	"fmt"

	"github.com/rill-lang/rill/internal/term"
)

// DuplicateImplError indicates two structurally identical impls of one trait
type DuplicateImplError struct {
	Trait string
	Impl  string
}

func (e *DuplicateImplError) Error() string {
	return fmt.Sprintf("duplicate impl of trait %s: %s", e.Trait, e.Impl)
}

func NewDuplicateImplError(trait, impl string) *DuplicateImplError {
	return &DuplicateImplError{Trait: trait, Impl: impl}
}

// OrphanImplError indicates an impl that fails the orphan rule
type OrphanImplError struct {
	Crate string
	Impl  string
}

func (e *OrphanImplError) Error() string {
	return fmt.Sprintf("orphan rule violated in crate %s: cannot prove locality of %s", e.Crate, e.Impl)
}

func NewOrphanImplError(crate, impl string) *OrphanImplError {
	return &OrphanImplError{Crate: crate, Impl: impl}
}

// OverlapError indicates two impls of one trait that may apply to the same
// types
type OverlapError struct {
	Trait string
	A, B  string
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("impls of trait %s may overlap: %s vs %s", e.Trait, e.A, e.B)
}

func NewOverlapError(trait, a, b string) *OverlapError {
	return &OverlapError{Trait: trait, A: a, B: b}
}

// DuplicateItemError indicates a trait declaring two items with one name
type DuplicateItemError struct {
	Trait string
	Item  string
}

func (e *DuplicateItemError) Error() string {
	return fmt.Sprintf("trait %s declares item %s more than once", e.Trait, e.Item)
}

func NewDuplicateItemError(trait, item string) *DuplicateItemError {
	return &DuplicateItemError{Trait: trait, Item: item}
}

// UnprovableError indicates a goal that had to hold but could not be proven
type UnprovableError struct {
	Context string
	Goals   term.Wcs
}

func (e *UnprovableError) Error() string {
	return fmt.Sprintf("cannot prove %s in %s", e.Goals, e.Context)
}

func NewUnprovableError(context string, goals term.Wcs) *UnprovableError {
	return &UnprovableError{Context: context, Goals: goals}
}

// UnknownTraitError indicates a where-clause naming an undeclared trait
type UnknownTraitError struct {
	Trait string
}

func (e *UnknownTraitError) Error() string {
	return fmt.Sprintf("unknown trait: %s", e.Trait)
}

func NewUnknownTraitError(trait string) *UnknownTraitError {
	return &UnknownTraitError{Trait: trait}
}

// TraitArityError indicates a trait reference with the wrong parameter count
type TraitArityError struct {
	Trait     string
	Got, Want int
}

func (e *TraitArityError) Error() string {
	return fmt.Sprintf("trait %s takes %d parameter(s), got %d", e.Trait, e.Want, e.Got)
}

func NewTraitArityError(trait string, got, want int) *TraitArityError {
	return &TraitArityError{Trait: trait, Got: got, Want: want}
}

// UnknownCrateError indicates a check request for a crate the program does
// not contain
type UnknownCrateError struct {
	Crate string
}

func (e *UnknownCrateError) Error() string {
	return fmt.Sprintf("unknown crate: %s", e.Crate)
}

func NewUnknownCrateError(crate string) *UnknownCrateError {
	return &UnknownCrateError{Crate: crate}
}
