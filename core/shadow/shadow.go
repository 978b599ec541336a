// Package shadow implements the shadowing view and attribute-resolution
// algorithm described in spec §4.4 — the heart of the core. Each timestep,
// every live entity gets a shadowing view answering get("prior") (an
// immutable adapter over the frozen snapshot), get("current") (the
// partially-built, demand-resolved current attribute set), get("here")
// (the enclosing patch, for organisms), and get("meta") (step/year
// counters).
//
// Resolution never trusts the statically-computed "no handler" set as a
// source of truth. That set is consulted only as a fast-path optimization;
// whenever the active handler group runs to completion without any
// handler firing, the resolver falls back to copying prior.X forward. This
// makes a conditional handler whose selector is false observationally
// identical to having no handler at all, which is the contract spec §4.4
// and §9 mandate (and the bug this engine is required not to reproduce).
package shadow

import (
	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/core/scope"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// MetaScope exposes stepCount, year, and replicate as a read-only Scope,
// bound fresh into every View for the duration of a timestep.
type MetaScope struct {
	StepCount int
	Year      int
	Replicate int
}

func (m MetaScope) Get(name string) (any, error) {
	switch name {
	case "stepCount":
		return values.Int{V: int64(m.StepCount), U: nil}, nil
	case "year":
		return values.Int{V: int64(m.Year), U: nil}, nil
	case "replicate":
		return values.Int{V: int64(m.Replicate), U: nil}, nil
	default:
		return nil, errs.New(errs.AttributeUnset, "%q is not a meta attribute", name)
	}
}
func (m MetaScope) Has(name string) bool {
	return name == "stepCount" || name == "year" || name == "replicate"
}
func (m MetaScope) Attributes() []string { return []string{"stepCount", "year", "replicate"} }

// priorAdapter is the read-only, entity-shaped adapter over an entity's
// frozen prior snapshot. It never recurses into resolution: prior values
// are immutable facts established at the end of the previous timestep.
type priorAdapter struct{ e *entity.Entity }

func (p priorAdapter) Get(name string) (any, error) { return p.e.PriorValue(name) }
func (p priorAdapter) Has(name string) bool         { return p.e.HasPrior(name) }
func (p priorAdapter) Attributes() []string         { return nil }

// currentAdapter is the demand-resolved adapter over an entity's
// in-progress current attribute set: Get(name) triggers Resolve for name
// if it has not yet been computed this substep.
type currentAdapter struct {
	view *View
}

func (c currentAdapter) Get(name string) (any, error) { return c.view.Resolve(name) }
func (c currentAdapter) Has(name string) bool {
	return c.view.entity.HasCurrent(name) || c.view.entity.HasPrior(name) ||
		hasAnyHandler(c.view.entity, c.view.substep, name)
}
func (c currentAdapter) Attributes() []string { return c.view.entity.AttributeNames() }

func hasAnyHandler(e *entity.Entity, substep, name string) bool {
	_, ok := e.Proto.ActiveGroup(name, substep, e.State())
	return ok
}

// Resolver is shared by every View created for a single substep; it knows
// how to look up (or lazily create) the View for any entity, so that
// "here.X" on an organism can demand-resolve an attribute on its patch.
type Resolver struct {
	Arithmetic *values.Arithmetic
	RNG        *values.RNG
	Meta       MetaScope
	substep    string
	views      map[*entity.Entity]*View
}

// NewResolver constructs a Resolver for a single program run.
func NewResolver(arith *values.Arithmetic, rng *values.RNG) *Resolver {
	return &Resolver{Arithmetic: arith, RNG: rng}
}

// BeginSubstep resets per-substep state: every live entity's resolution
// memo is cleared and the View cache is emptied, so the next Resolve call
// for any entity starts fresh.
func (r *Resolver) BeginSubstep(substep string, meta MetaScope, live []*entity.Entity) {
	r.substep = substep
	r.Meta = meta
	r.views = map[*entity.Entity]*View{}
	for _, e := range live {
		e.BeginSubstep()
	}
}

// ViewFor returns the (possibly newly created) View for e in the substep
// currently in progress, with here bound as e's enclosing patch (nil for
// patches and the simulation entity).
func (r *Resolver) ViewFor(e *entity.Entity, here *entity.Entity) *View {
	if v, ok := r.views[e]; ok {
		return v
	}
	v := &View{
		resolver: r,
		entity:   e,
		here:     here,
		substep:  r.substep,
	}
	r.views[e] = v
	return v
}

// View is the per-entity, per-substep shadowing scope: the demand-driven
// implementation of spec §4.4's resolution algorithm.
type View struct {
	resolver *Resolver
	entity   *entity.Entity
	here     *entity.Entity
	substep  string

	stack []string // in-progress attribute names, for cycle detection
}

// Get implements scope.Scope: the four reserved bindings are nested
// scopes; anything else is AttributeUnset (user attributes are only
// reachable via current.X or prior.X, never bare).
func (v *View) Get(name string) (any, error) {
	switch name {
	case "current":
		return currentAdapter{view: v}, nil
	case "prior":
		return priorAdapter{e: v.entity}, nil
	case "here":
		if v.here == nil {
			return nil, errs.New(errs.AttributeUnset, "here is not bound outside organism evaluation")
		}
		return currentAdapter{view: v.resolver.ViewFor(v.here, nil)}, nil
	case "meta":
		return v.resolver.Meta, nil
	default:
		return nil, errs.New(errs.AttributeUnset, "%q is not a reserved scope name", name)
	}
}

func (v *View) Has(name string) bool {
	switch name {
	case "current", "prior", "meta":
		return true
	case "here":
		return v.here != nil
	default:
		return false
	}
}

func (v *View) Attributes() []string { return []string{"current", "prior", "here", "meta"} }

var _ scope.Scope = (*View)(nil)

// Resolve implements the attribute resolution algorithm from spec §4.4.
func (v *View) Resolve(attribute string) (values.EngineValue, error) {
	e := v.entity

	if e.IsResolved(attribute) {
		return e.CurrentValue(attribute)
	}

	for _, inProgress := range v.stack {
		if inProgress == attribute {
			return nil, errs.New(errs.CyclicDependency, "cyclic dependency resolving %s.%s in substep %s",
				e.Proto.TypeName, attribute, v.substep).WithAttr(e.Proto.TypeName, attribute)
		}
	}
	v.stack = append(v.stack, attribute)
	defer func() { v.stack = v.stack[:len(v.stack)-1] }()

	// The fast-path is a pure optimization: it is only ever taken when the
	// prototype statically observed zero handlers (of any state, any
	// selector) for (attribute, substep). It must never substitute for the
	// fallback-to-prior logic below, which is what actually gives
	// conditional handlers correct semantics.
	if e.Proto.HasFastPath(v.substep, attribute) {
		return v.fallbackToPrior(attribute)
	}

	group, ok := e.Proto.ActiveGroup(attribute, v.substep, e.State())
	if ok {
		for _, h := range group {
			fire := true
			if h.Selector != nil {
				var err error
				fire, err = h.Selector(v)
				if err != nil {
					return nil, err
				}
			}
			if !fire {
				continue
			}
			val, err := h.Callable(v)
			if err != nil {
				return nil, err
			}
			e.SetCurrent(attribute, val)
			return val, nil
		}
	}

	// No handler in the active group produced a value (either there was no
	// group, or every handler's selector was false). Per spec §4.4/§9 this
	// MUST fall back to prior.X, not leave the attribute unset — that
	// fallback is the general-case rule; the fast-path above is merely an
	// optimized shortcut to the same outcome.
	return v.fallbackToPrior(attribute)
}

func (v *View) fallbackToPrior(attribute string) (values.EngineValue, error) {
	e := v.entity
	// A value already computed by an earlier substep of this timestep is
	// kept; prior is only copied forward when current has nothing yet.
	if e.HasCurrent(attribute) {
		e.MarkResolved(attribute)
		return e.CurrentValue(attribute)
	}
	val, err := e.PriorValue(attribute)
	if err != nil {
		return nil, err
	}
	e.SetCurrent(attribute, val)
	return val, nil
}
