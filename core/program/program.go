// Package program assembles the converter, entity prototype store, and
// simulation store that make up a built program (§4.3): the immutable
// artifact produced once from parsed DSL declarations and then shared,
// read-only, across every replicate of a run.
package program

import (
	"fmt"
	"sort"

	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/core/scope"
	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Program is the build-time output: a conversion graph, a prototype store
// keyed by type name, and the subset of prototypes whose kind is
// simulation. Immutable once Build returns.
type Program struct {
	Converter  *units.Graph
	Prototypes map[string]*entity.Prototype
	Simulation map[string]*entity.Prototype

	arithmetic *values.Arithmetic
}

// Arithmetic returns the Arithmetic bound to this program's converter,
// constructing it once on first use.
func (p *Program) Arithmetic() *values.Arithmetic {
	if p.arithmetic == nil {
		p.arithmetic = &values.Arithmetic{Graph: p.Converter}
	}
	return p.arithmetic
}

// Prototype looks up a non-simulation prototype by type name.
func (p *Program) Prototype(typeName string) (*entity.Prototype, bool) {
	proto, ok := p.Prototypes[typeName]
	return proto, ok
}

// Builder provides a fluent interface for assembling a Program, mirroring
// the teacher's graph builder: each Add* call returns the Builder so
// callers can chain declarations, and Build validates before returning.
type Builder struct {
	converter  *units.Graph
	prototypes map[string]*entity.Prototype
	attrSet    map[string]bool
	substeps   []string
	err        error
}

// NewBuilder constructs an empty Builder. substeps is the ordered substep
// list used to compute every prototype's fast-path sets at Build time
// (normally entity.Order).
func NewBuilder(substeps []string) *Builder {
	return &Builder{
		converter:  units.NewGraph(),
		prototypes: map[string]*entity.Prototype{},
		attrSet:    map[string]bool{},
		substeps:   substeps,
	}
}

// AddConversion registers a conversion edge in the program's converter.
func (b *Builder) AddConversion(from, to *units.Units, forward, inverse func(float64) float64, communicativeSafe bool) *Builder {
	if b.err != nil {
		return b
	}
	b.converter.AddConversion(from, to, forward, inverse, communicativeSafe)
	return b
}

// AddPrototype registers typeName/kind's prototype, failing the build if
// typeName was already declared.
func (b *Builder) AddPrototype(typeName string, kind entity.Kind) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.prototypes[typeName]; exists {
		b.err = errs.New(errs.ParseError, "entity type %q declared more than once", typeName)
		return b
	}
	b.prototypes[typeName] = entity.NewPrototype(typeName, kind)
	return b
}

// AddAttribute declares attribute as belonging to typeName, seeding its
// default value and registering it for fast-path computation. Fails if
// attribute shadows a reserved scope name (prior/current/here/meta).
func (b *Builder) AddAttribute(typeName, attribute string, def values.EngineValue) *Builder {
	if b.err != nil {
		return b
	}
	if err := scope.CheckNotReserved(attribute); err != nil {
		b.err = err
		return b
	}
	proto, ok := b.prototypes[typeName]
	if !ok {
		b.err = errs.New(errs.ParseError, "attribute %q declared on unknown type %q", attribute, typeName)
		return b
	}
	proto.Defaults[attribute] = def
	b.attrSet[attribute] = true
	return b
}

// AddCollectionAttribute marks attribute as holding an organism collection
// (e.g. "Trees" on a patch), used by the stepper's discovery pass.
func (b *Builder) AddCollectionAttribute(typeName, attribute string) *Builder {
	if b.err != nil {
		return b
	}
	proto, ok := b.prototypes[typeName]
	if !ok {
		b.err = errs.New(errs.ParseError, "collection attribute %q declared on unknown type %q", attribute, typeName)
		return b
	}
	proto.CollectionAttrs = append(proto.CollectionAttrs, attribute)
	b.attrSet[attribute] = true
	return b
}

// AddHandler registers an event handler on typeName for (attribute,
// substep, state).
func (b *Builder) AddHandler(typeName, attribute, substep, state string, h entity.EventHandler) *Builder {
	if b.err != nil {
		return b
	}
	if err := scope.CheckNotReserved(attribute); err != nil {
		b.err = err
		return b
	}
	proto, ok := b.prototypes[typeName]
	if !ok {
		b.err = errs.New(errs.ParseError, "handler for %q declared on unknown type %q", attribute, typeName)
		return b
	}
	proto.AddHandler(attribute, substep, state, h)
	b.attrSet[attribute] = true
	return b
}

// Build finalizes every registered prototype's fast-path sets and returns
// the immutable Program, or the first error encountered during assembly.
func (b *Builder) Build() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}

	attrs := make([]string, 0, len(b.attrSet))
	for a := range b.attrSet {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	sim := map[string]*entity.Prototype{}
	for name, proto := range b.prototypes {
		proto.Finalize(attrs, b.substeps)
		if proto.Kind == entity.KindSimulation {
			sim[name] = proto
		}
	}

	return &Program{
		Converter:  b.converter,
		Prototypes: b.prototypes,
		Simulation: sim,
	}, nil
}

// MustBuild returns the constructed Program or panics if invalid. Intended
// for tests and trusted call sites (e.g. a CLI command that has already
// validated its config), never for parsing untrusted DSL input.
func (b *Builder) MustBuild() *Program {
	p, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("program: %v", err))
	}
	return p
}
