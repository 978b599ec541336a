package scope

import (
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// SingleValueScope exposes exactly the name "current", bound to a single
// value. Used for e.g. conversion callables, which receive only the
// scalar being converted.
type SingleValueScope struct {
	Value values.EngineValue
}

func (s SingleValueScope) Get(name string) (any, error) {
	if name == "current" {
		return s.Value, nil
	}
	return nil, errs.New(errs.AttributeUnset, "%q is not bound in a single-value scope", name)
}

func (s SingleValueScope) Has(name string) bool { return name == "current" }
func (s SingleValueScope) Attributes() []string { return []string{"current"} }

// AttributeGetter is implemented by anything that can answer attribute
// lookups for "current"/"prior" style entity-shaped scopes: core/entity's
// resolver and shadow view implement this without scope needing to import
// them back (breaking the import cycle the same way values.EntityHandle
// does).
type AttributeGetter interface {
	GetAttribute(name string) (values.EngineValue, error)
	HasAttribute(name string) bool
	AttributeNames() []string
}

// EntityScope exposes an entity's current attribute names via an
// AttributeGetter (normally the live, partially-built "current" map for
// the substep in progress).
type EntityScope struct {
	Attrs AttributeGetter
}

func (s EntityScope) Get(name string) (any, error) {
	return s.Attrs.GetAttribute(name)
}
func (s EntityScope) Has(name string) bool { return s.Attrs.HasAttribute(name) }
func (s EntityScope) Attributes() []string { return s.Attrs.AttributeNames() }

// DistributionScope iterates a distribution and projects a named
// attribute across its samples, exposing a "current" name bound to
// whichever sample the iteration is presently on (the Index field). The
// index itself is not bound as a name.
type DistributionScope struct {
	Samples []values.EngineValue
	Index   int
}

func (s DistributionScope) Get(name string) (any, error) {
	switch name {
	case "current":
		if s.Index < 0 || s.Index >= len(s.Samples) {
			return nil, errs.New(errs.AttributeUnset, "distribution index %d out of range", s.Index)
		}
		return s.Samples[s.Index], nil
	default:
		return nil, errs.New(errs.AttributeUnset, "%q is not bound in a distribution scope", name)
	}
}

func (s DistributionScope) Has(name string) bool { return name == "current" }
func (s DistributionScope) Attributes() []string { return []string{"current"} }

// LocalScope is an immutable-constant overlay on a containing scope: names
// defined here are constants (defined once, never redefined) that shadow
// nothing from the container except by addition, falling through to the
// container for anything not locally bound.
type LocalScope struct {
	Constants map[string]values.EngineValue
	Container Scope
}

func (s LocalScope) Get(name string) (any, error) {
	if v, ok := s.Constants[name]; ok {
		return v, nil
	}
	if s.Container != nil {
		return s.Container.Get(name)
	}
	return nil, errs.New(errs.AttributeUnset, "%q is not bound", name)
}

func (s LocalScope) Has(name string) bool {
	if _, ok := s.Constants[name]; ok {
		return true
	}
	return s.Container != nil && s.Container.Has(name)
}

func (s LocalScope) Attributes() []string {
	names := make([]string, 0, len(s.Constants))
	for k := range s.Constants {
		names = append(names, k)
	}
	if s.Container != nil {
		names = append(names, s.Container.Attributes()...)
	}
	return names
}
