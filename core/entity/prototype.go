// Package entity implements the Entity record type (patch/organism/
// simulation), its event-handler groups, embedded state machines, and the
// flyweight prototype store that instantiation binds to per-instance
// mutable state. Attribute resolution itself (the shadowing
// prior/current algorithm) lives in core/shadow, which depends on this
// package.
package entity

import (
	"github.com/schmidtdse/joshsim/core/scope"
	"github.com/schmidtdse/joshsim/core/values"
)

// Kind is the entity taxonomy: patch, organism, or simulation.
type Kind string

const (
	KindPatch      Kind = "patch"
	KindOrganism   Kind = "organism"
	KindSimulation Kind = "simulation"
)

// Substep names, in phase order. Init runs once at timestep 0, before the
// first Start.
const (
	SubstepInit  = "init"
	SubstepStart = "start"
	SubstepStep  = "step"
	SubstepEnd   = "end"
)

// Order is the per-timestep substep phase order (init is handled
// separately by the stepper, run once before timestep 0's Start).
var Order = []string{SubstepStart, SubstepStep, SubstepEnd}

// EventKey identifies one event handler group: the attribute it computes,
// the substep it runs in, and (for organisms with state machines) the
// state it is scoped to. State is "" for the type-wide default group.
type EventKey struct {
	Attribute string
	Substep   string
	State     string
}

// EventHandler is a guarded expression producing a value for an attribute
// in a substep. Selector may be nil, meaning unconditional (always runs).
type EventHandler struct {
	Selector scope.Selector
	Callable scope.Callable
}

// Prototype is the per-type template shared (flyweight) by every instance
// of that type: event handler groups, the fast-path "no handler" sets per
// substep, and default attribute seeds. Immutable after program build.
type Prototype struct {
	TypeName string
	Kind     Kind

	// Groups maps an EventKey to its ordered handler list. Handlers in a
	// group are tried in order; the first whose selector fires wins.
	Groups map[EventKey][]EventHandler

	// NoHandlerFastPath[substep] is the set of attribute names observed to
	// have zero handlers (of any state) registered for that substep, at
	// build time. Per spec §4.4 this is an optimization only: the
	// resolver must still fall back to prior.X for attributes that DO
	// have a conditional handler whose selector simply didn't fire.
	NoHandlerFastPath map[string]map[string]bool

	// Defaults seeds new instances' attributes at creation.
	Defaults map[string]values.EngineValue

	// CollectionAttrs lists attribute names that hold organism
	// collections (e.g. "Trees" on a patch type), used by the stepper's
	// discovery pass.
	CollectionAttrs []string
}

// NewPrototype constructs an empty, buildable prototype for typeName/kind.
func NewPrototype(typeName string, kind Kind) *Prototype {
	return &Prototype{
		TypeName:          typeName,
		Kind:              kind,
		Groups:            map[EventKey][]EventHandler{},
		NoHandlerFastPath: map[string]map[string]bool{},
		Defaults:          map[string]values.EngineValue{},
	}
}

// AddHandler registers a handler for (attribute, substep, state) in
// declaration order.
func (p *Prototype) AddHandler(attribute, substep, state string, h EventHandler) {
	key := EventKey{Attribute: attribute, Substep: substep, State: state}
	p.Groups[key] = append(p.Groups[key], h)
}

// Finalize computes the fast-path "no handler" sets from the registered
// groups. Must be called once all handlers are registered (at program
// build time) and before any instance resolves attributes.
func (p *Prototype) Finalize(allAttributes []string, substeps []string) {
	for _, substep := range substeps {
		set := map[string]bool{}
		for _, attr := range allAttributes {
			hasAny := false
			for key := range p.Groups {
				if key.Attribute == attr && key.Substep == substep {
					hasAny = true
					break
				}
			}
			if !hasAny {
				set[attr] = true
			}
		}
		p.NoHandlerFastPath[substep] = set
	}
}

// ActiveGroup returns the handler group that applies for attribute a in
// substep s given the entity's current state (per §4.3: state-scoped
// group first, then the type-wide default, else none).
func (p *Prototype) ActiveGroup(attribute, substep, state string) ([]EventHandler, bool) {
	if state != "" {
		if g, ok := p.Groups[EventKey{Attribute: attribute, Substep: substep, State: state}]; ok {
			return g, true
		}
	}
	if g, ok := p.Groups[EventKey{Attribute: attribute, Substep: substep}]; ok {
		return g, true
	}
	return nil, false
}

// HasFastPath reports whether attribute a is in the statically-computed
// no-handler set for substep s. This is ONLY a hint for the resolver's
// optimization; core/shadow always falls back to prior.X when no handler
// in the active group actually produces a value, regardless of this set.
func (p *Prototype) HasFastPath(substep, attribute string) bool {
	set := p.NoHandlerFastPath[substep]
	return set != nil && set[attribute]
}
