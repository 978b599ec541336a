// Package scope implements the variable-resolution surface that compiled
// callables and selectors evaluate against: Scope implementations, the
// CompiledCallable/CompiledSelector function types, and the reserved-name
// check.
package scope

import (
	"github.com/schmidtdse/joshsim/core/values"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Scope answers name lookups for a compiled expression. Get returns either
// an EngineValue (a leaf binding) or another Scope (a nested, entity-shaped
// adapter — e.g. the shadowing view's "prior"/"current"/"here"/"meta"
// bindings), so callables can chain lookups like prior.get("age").
type Scope interface {
	// Get returns the value or nested Scope bound to name, or an error if
	// absent.
	Get(name string) (any, error)
	// Has reports whether name is bound in this scope.
	Has(name string) bool
	// Attributes lists every bound name, for diagnostics and "*" style
	// discovery; order is unspecified.
	Attributes() []string
}

// GetValue resolves name on s and type-asserts the result to an
// EngineValue, returning an error if name is bound to a nested Scope
// instead of a leaf value.
func GetValue(s Scope, name string) (values.EngineValue, error) {
	v, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	ev, ok := v.(values.EngineValue)
	if !ok {
		return nil, errs.New(errs.AttributeUnset, "%q is a nested scope, not a value", name)
	}
	return ev, nil
}

// Callable takes a scope and returns an EngineValue. This is what a
// compiled DSL expression becomes after program build.
type Callable func(s Scope) (values.EngineValue, error)

// Selector takes a scope and returns a boolean guard result.
type Selector func(s Scope) (bool, error)

// ReturnCurrent is the identity callable on the scope's "current" binding,
// used as the trivial callable for pass-through attributes. It is only
// valid against a SingleValueScope, where "current" is bound to a leaf
// EngineValue rather than a nested Scope.
func ReturnCurrent(s Scope) (values.EngineValue, error) {
	return GetValue(s, "current")
}

// reservedNames cannot be shadowed by user-declared attributes.
var reservedNames = map[string]bool{
	"prior":   true,
	"current": true,
	"here":    true,
	"meta":    true,
}

// IsReserved reports whether name is one of the scope names a user
// attribute declaration is forbidden from shadowing.
func IsReserved(name string) bool { return reservedNames[name] }

// CheckNotReserved returns ReservedName if name is reserved.
func CheckNotReserved(name string) error {
	if IsReserved(name) {
		return errs.New(errs.ReservedName, "attribute %q shadows a reserved name", name)
	}
	return nil
}
