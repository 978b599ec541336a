package entity

import (
	"github.com/schmidtdse/joshsim/compat"
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Geometry is a minimal spatial extent carried by patches. Organisms and
// simulations leave this nil. Real projection/raster concerns live in the
// external data layer; this is only the identity-bearing extent an
// entity's patch owns.
type Geometry struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// Entity is a live instance of a Prototype: identity plus mutable
// per-instance state (current/prior attribute maps, optional state-machine
// state, optional geometry). Event handler groups are NOT copied per
// instance; they are looked up through Proto, a deliberate flyweight.
type Entity struct {
	Proto *Prototype
	Key   values.GeoKey

	Geometry *Geometry // patches only

	mu       compat.Locker
	current  map[string]values.EngineValue
	prior    map[string]values.EngineValue
	state    string // "" means no embedded state machine, or pre-init
	resolved map[string]bool
}

// New instantiates typeName/kind's prototype at the given geo key, seeding
// attributes from the prototype's defaults.
func New(proto *Prototype, key values.GeoKey) *Entity {
	e := &Entity{
		Proto:    proto,
		Key:      key,
		mu:       compat.NewLocker(),
		current:  map[string]values.EngineValue{},
		prior:    map[string]values.EngineValue{},
		resolved: map[string]bool{},
	}
	for k, v := range proto.Defaults {
		e.prior[k] = v
	}
	return e
}

// GeoKey, TypeName, Kind implement values.EntityHandle.
func (e *Entity) GeoKey() values.GeoKey { return e.Key }
func (e *Entity) TypeName() string      { return e.Proto.TypeName }
func (e *Entity) Kind() string          { return string(e.Proto.Kind) }

// Lock/Unlock hold the entity's lock for the duration of a single substep
// resolution, per the concurrency model in spec §5.
func (e *Entity) Lock()   { e.mu.Lock() }
func (e *Entity) Unlock() { e.mu.Unlock() }

// State returns the organism's current state-machine state, or "" if none.
func (e *Entity) State() string { return e.state }

// SetState transitions the organism's state-machine state. Called when a
// handler returns a new string value for the "state" attribute within its
// substep, per spec §4.3/§9.
func (e *Entity) SetState(s string) { e.state = s }

// BeginSubstep clears the per-substep resolution memo. Called once per
// entity per substep, before any attribute on it is resolved.
func (e *Entity) BeginSubstep() {
	e.resolved = map[string]bool{}
}

// Freeze copies current into prior at the end of a timestep and clears
// current for the next timestep, per spec §4.5 step 3.
func (e *Entity) Freeze() {
	next := make(map[string]values.EngineValue, len(e.current))
	for k, v := range e.current {
		next[k] = v
	}
	e.prior = next
	e.current = map[string]values.EngineValue{}
}

// PriorValue returns the value frozen at the end of the previous
// timestep, or AttributeUnset if the attribute has never been set.
func (e *Entity) PriorValue(name string) (values.EngineValue, error) {
	v, ok := e.prior[name]
	if !ok {
		return nil, errs.New(errs.AttributeUnset, "prior.%s was never set", name).WithAttr(e.Proto.TypeName, name)
	}
	return v, nil
}

// HasPrior reports whether the prior snapshot has a value for name.
func (e *Entity) HasPrior(name string) bool {
	_, ok := e.prior[name]
	return ok
}

// CurrentValue returns the value computed so far this substep/timestep,
// or AttributeUnset if not yet resolved.
func (e *Entity) CurrentValue(name string) (values.EngineValue, error) {
	v, ok := e.current[name]
	if !ok {
		return nil, errs.New(errs.AttributeUnset, "current.%s is not resolved yet", name).WithAttr(e.Proto.TypeName, name)
	}
	return v, nil
}

// HasCurrent reports whether current has a resolved value for name.
func (e *Entity) HasCurrent(name string) bool {
	_, ok := e.current[name]
	return ok
}

// SetCurrent assigns the current value for name (what a handler's return
// value becomes) and memoizes it as resolved for this substep.
func (e *Entity) SetCurrent(name string, v values.EngineValue) {
	e.current[name] = v
	e.resolved[name] = true
	if name == "state" {
		if s, ok := v.(values.String); ok {
			e.state = s.V
		}
	}
}

// IsResolved reports whether name has already been resolved (memoized)
// this substep.
func (e *Entity) IsResolved(name string) bool { return e.resolved[name] }

// MarkResolved memoizes name as resolved this substep without changing its
// current value (used by the fast-path, which copies prior forward).
func (e *Entity) MarkResolved(name string) { e.resolved[name] = true }

// AttributeNames lists every name with a resolved current value, for
// scope.AttributeGetter / export snapshotting.
func (e *Entity) AttributeNames() []string {
	names := make([]string, 0, len(e.current))
	for k := range e.current {
		names = append(names, k)
	}
	return names
}

// GetAttribute / HasAttribute implement scope.AttributeGetter over the
// entity's current view, for use as the "current" binding in a shadowing
// scope.
func (e *Entity) GetAttribute(name string) (values.EngineValue, error) { return e.CurrentValue(name) }
func (e *Entity) HasAttribute(name string) bool                        { return e.HasCurrent(name) }

// Snapshot returns a shallow copy of the current attribute map, for export
// rows (§4.5 step 3) and for prototype-level discovery.
func (e *Entity) Snapshot() map[string]values.EngineValue {
	out := make(map[string]values.EngineValue, len(e.current))
	for k, v := range e.current {
		out[k] = v
	}
	return out
}
