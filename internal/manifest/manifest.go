// Package manifest loads a program description from YAML into the
// declaration set the checker consumes. The manifest is the only text
// surface of the tool: crates, type constructors, traits, and impls, with
// generic parameters declared by name and compiled into positional binders.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/rill-lang/rill/internal/config"
	"github.com/rill-lang/rill/internal/decls"
	"github.com/rill-lang/rill/internal/term"
)

// Manifest is the top-level YAML document.
type Manifest struct {
	Crates []CrateSection `yaml:"crates"`
}

// CrateSection declares one crate. Crates are checked in declaration order,
// so dependencies come first.
type CrateSection struct {
	Name    string         `yaml:"name"`
	Version string         `yaml:"version,omitempty"`
	Types   []TypeSection  `yaml:"types,omitempty"`
	Traits  []TraitSection `yaml:"traits,omitempty"`
	Impls   []ImplSection  `yaml:"impls,omitempty"`
}

// TypeSection declares a nominal type constructor.
type TypeSection struct {
	Name string `yaml:"name"`

	// Params are the generic parameter names, e.g. [T, "'a"]. A leading
	// apostrophe declares a lifetime parameter.
	Params []string `yaml:"params,omitempty"`
}

// TraitSection declares a trait. Self is implicit and always first; Params
// declares any further generics.
type TraitSection struct {
	Name   string         `yaml:"name"`
	Params []string       `yaml:"params,omitempty"`
	Where  []string       `yaml:"where,omitempty"`
	Types  []AssocSection `yaml:"types,omitempty"`
}

// AssocSection declares an associated type inside a trait.
type AssocSection struct {
	Name    string   `yaml:"name"`
	Params  []string `yaml:"params,omitempty"`
	Ensures []string `yaml:"ensures,omitempty"`
	Where   []string `yaml:"where,omitempty"`
}

// ImplSection declares a trait implementation, e.g.
//
//	impls:
//	  - generics: [T]
//	    trait: "Vec<T>: Clone"
//	    where: ["T: Clone"]
//
// A negative impl is written either with negative: true or with a bang in
// the trait expression ("Concrete: !Bound").
type ImplSection struct {
	Generics []string            `yaml:"generics,omitempty"`
	Trait    string              `yaml:"trait"`
	Where    []string            `yaml:"where,omitempty"`
	Negative bool                `yaml:"negative,omitempty"`
	Types    []AssocValueSection `yaml:"types,omitempty"`
}

// AssocValueSection gives the value of an associated type in an impl.
type AssocValueSection struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// Load reads and compiles a manifest file.
func Load(path string) (*decls.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse compiles manifest bytes into a program.
func Parse(data []byte) (*decls.Program, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return m.Compile()
}

// FindManifest locates the default manifest in dir.
func FindManifest(dir string) (string, error) {
	path := filepath.Join(dir, config.ManifestFileName)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	base := config.ManifestFileName[:len(config.ManifestFileName)-len(filepath.Ext(config.ManifestFileName))]
	for _, ext := range config.ManifestFileExtensions {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no %s found in %s", config.ManifestFileName, dir)
}

// Compile builds the declaration set from the parsed document.
func (m *Manifest) Compile() (*decls.Program, error) {
	b := &builder{}
	program := &decls.Program{}
	seen := make(map[string]bool)
	for i, cs := range m.Crates {
		if cs.Name == "" {
			return nil, fmt.Errorf("crate %d: missing name", i)
		}
		if seen[cs.Name] {
			return nil, fmt.Errorf("crate %s declared twice", cs.Name)
		}
		seen[cs.Name] = true
		crate, err := b.crate(cs)
		if err != nil {
			return nil, fmt.Errorf("crate %s: %w", cs.Name, err)
		}
		program.Crates = append(program.Crates, crate)
	}
	return program, nil
}

// builder carries the scratch-variable allocator used while compiling named
// generics into binders.
type builder struct {
	scratch int
}

func (b *builder) alloc() int {
	b.scratch++
	return b.scratch
}

func (b *builder) crate(cs CrateSection) (decls.Crate, error) {
	crate := decls.Crate{Name: cs.Name}
	if cs.Version != "" {
		v, err := semver.NewVersion(cs.Version)
		if err != nil {
			return decls.Crate{}, fmt.Errorf("version %q: %w", cs.Version, err)
		}
		crate.Version = v
	}
	for _, ts := range cs.Types {
		adt, err := b.adt(ts)
		if err != nil {
			return decls.Crate{}, fmt.Errorf("type %s: %w", ts.Name, err)
		}
		crate.Items = append(crate.Items, adt)
	}
	for _, ts := range cs.Traits {
		trait, err := b.trait(ts)
		if err != nil {
			return decls.Crate{}, fmt.Errorf("trait %s: %w", ts.Name, err)
		}
		crate.Items = append(crate.Items, trait)
	}
	for i, is := range cs.Impls {
		impl, err := b.impl(cs.Name, is)
		if err != nil {
			return decls.Crate{}, fmt.Errorf("impl %d (%s): %w", i, is.Trait, err)
		}
		crate.Items = append(crate.Items, impl)
	}
	return crate, nil
}

func (b *builder) adt(ts TypeSection) (decls.AdtDecl, error) {
	if ts.Name == "" {
		return decls.AdtDecl{}, fmt.Errorf("missing name")
	}
	sc, err := newScope(ts.Params, b.alloc)
	if err != nil {
		return decls.AdtDecl{}, err
	}
	kinds := make([]term.ParamKind, len(sc.order))
	for i, kn := range sc.order {
		kinds[i] = kn.Kind
	}
	if len(kinds) == 0 {
		kinds = nil
	}
	return decls.AdtDecl{Name: ts.Name, Params: kinds}, nil
}

func (b *builder) trait(ts TraitSection) (decls.Item, error) {
	if ts.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	names := append([]string{config.SelfParamName}, ts.Params...)
	sc, err := newScope(names, b.alloc)
	if err != nil {
		return nil, err
	}
	wcs, err := parseWhereClauses(ts.Where, sc)
	if err != nil {
		return nil, err
	}
	var items []decls.TraitItem
	for _, as := range ts.Types {
		item, err := b.assocTy(as, sc)
		if err != nil {
			return nil, fmt.Errorf("associated type %s: %w", as.Name, err)
		}
		items = append(items, item)
	}
	body := decls.TraitBound{WhereClauses: wcs, Items: items}
	return decls.TraitDecl{ID: ts.Name, Binder: term.NewBinder(sc.order, sc.vars, body)}, nil
}

func (b *builder) assocTy(as AssocSection, outer *scope) (decls.AssociatedTy, error) {
	if as.Name == "" {
		return decls.AssociatedTy{}, fmt.Errorf("missing name")
	}
	sc, err := outer.child(as.Params, b.alloc)
	if err != nil {
		return decls.AssociatedTy{}, err
	}
	ensures, err := parseWhereClauses(as.Ensures, sc)
	if err != nil {
		return decls.AssociatedTy{}, err
	}
	wcs, err := parseWhereClauses(as.Where, sc)
	if err != nil {
		return decls.AssociatedTy{}, err
	}
	body := decls.AssociatedTyBound{Ensures: ensures, WhereClauses: wcs}
	return decls.AssociatedTy{ID: as.Name, Binder: term.NewBinder(sc.order, sc.vars, body)}, nil
}

func (b *builder) impl(crate string, is ImplSection) (decls.Item, error) {
	if is.Trait == "" {
		return nil, fmt.Errorf("missing trait expression")
	}
	sc, err := newScope(is.Generics, b.alloc)
	if err != nil {
		return nil, err
	}
	head, err := parseWhereClause(is.Trait, sc)
	if err != nil {
		return nil, err
	}
	var ref term.TraitRef
	negative := is.Negative
	switch h := head.(type) {
	case term.Implemented:
		ref = h.TraitRef
	case term.NotImplemented:
		ref = h.TraitRef
		negative = true
	default:
		return nil, fmt.Errorf("%q is not a trait bound", is.Trait)
	}
	wcs, err := parseWhereClauses(is.Where, sc)
	if err != nil {
		return nil, err
	}
	var assocValues []decls.AssocTyValue
	for _, av := range is.Types {
		if negative {
			return nil, fmt.Errorf("negative impl cannot define associated type %s", av.Name)
		}
		value, err := parseParameter(av.Value, sc)
		if err != nil {
			return nil, fmt.Errorf("associated type %s: %w", av.Name, err)
		}
		assocValues = append(assocValues, decls.AssocTyValue{Item: av.Name, Value: value})
	}
	body := decls.ImplBound{TraitRef: ref, WhereClauses: wcs, AssocValues: assocValues}
	binder := term.NewBinder(sc.order, sc.vars, body)
	if negative {
		return decls.NegTraitImpl{Crate: crate, Binder: binder}, nil
	}
	return decls.TraitImpl{Crate: crate, Binder: binder}, nil
}

func parseWhereClauses(srcs []string, sc *scope) (term.Wcs, error) {
	if len(srcs) == 0 {
		return nil, nil
	}
	out := make(term.Wcs, len(srcs))
	for i, src := range srcs {
		wc, err := parseWhereClause(src, sc)
		if err != nil {
			return nil, err
		}
		out[i] = wc
	}
	return out, nil
}
