// Package errs defines the unified error taxonomy used across joshsim.
//
// Every engine-raised failure wraps one of the Kind sentinels below so
// callers can test with errors.Is(err, errs.UnitMismatch) regardless of
// how much context has been layered on with fmt.Errorf("...: %w", err).
package errs

import (
	"errors"
	"fmt"
)

// Kind is a sentinel error identifying one taxonomy entry from spec §7.
type Kind struct {
	name string
}

func (k *Kind) Error() string { return k.name }

// Taxonomy, per spec.md §7.
var (
	ParseError         = &Kind{"ParseError"}
	ReservedName       = &Kind{"ReservedName"}
	UnitMismatch       = &Kind{"UnitMismatch"}
	NoConversion       = &Kind{"NoConversion"}
	AttributeUnset     = &Kind{"AttributeUnset"}
	CyclicDependency   = &Kind{"CyclicDependency"}
	UnknownEntity      = &Kind{"UnknownEntity"}
	UnknownTemplateVar = &Kind{"UnknownTemplateVar"}
	IoError            = &Kind{"IoError"}
	InvalidWire        = &Kind{"InvalidWire"}
	ConfigError        = &Kind{"ConfigError"}
	Cancelled          = &Kind{"Cancelled"}
)

// Error is a taxonomy-tagged error carrying optional source position and
// attribute-chain context.
type Error struct {
	kind   *Kind
	msg    string
	line   int
	col    int
	hasPos bool
	chain  string
}

// New constructs an Error of the given kind.
func New(kind *Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// WithPos attaches a 1-based line/column to the error.
func (e *Error) WithPos(line, col int) *Error {
	e.line, e.col, e.hasPos = line, col, true
	return e
}

// WithAttr attaches the offending "Type.attribute" chain to the error.
func (e *Error) WithAttr(typeName, attr string) *Error {
	e.chain = typeName + "." + attr
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := e.msg
	if e.chain != "" {
		s = e.chain + ": " + s
	}
	if e.hasPos {
		s = fmt.Sprintf("%d:%d: %s", e.line, e.col, s)
	}
	return s
}

// Unwrap exposes the Kind sentinel so errors.Is(err, errs.UnitMismatch)
// works through any amount of %w wrapping.
func (e *Error) Unwrap() error { return e.kind }

// Is lets errors.Is match an *Error against its own Kind directly, so
// errors.Is(err, errs.UnitMismatch) works whether err is the *Error or one
// produced via fmt.Errorf("context: %w", theError).
func (e *Error) Is(target error) bool {
	k, ok := target.(*Kind)
	return ok && k == e.kind
}

// KindOf returns the taxonomy Kind of err, or nil if err was not produced
// by this package (possibly wrapped).
func KindOf(err error) *Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	var k *Kind
	if errors.As(err, &k) {
		return k
	}
	return nil
}
