// Package values implements EngineValue, the universal value carrier for
// joshsim: scalars (integer, decimal, boolean, string, geographic point),
// distributions (virtualized and realized), entity references, and
// entity-reference collections. Every non-entity value carries Units;
// arithmetic combining two values triggers unit algebra and fails with
// UnitMismatch when no conversion applies.
package values

import (
	"fmt"
	"math"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Type tags the concrete kind carried by an EngineValue.
type Type int

const (
	TypeInt Type = iota
	TypeDecimal
	TypeBool
	TypeString
	TypeGeoPoint
	TypeDistribution
	TypeEntityRef
	TypeCollection
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "boolean"
	case TypeString:
		return "string"
	case TypeGeoPoint:
		return "point"
	case TypeDistribution:
		return "distribution"
	case TypeEntityRef:
		return "entity"
	case TypeCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// EngineValue is the universal value carrier. All scalar/distribution
// variants carry Units; EntityRef and Collection do not (entities are not
// unit-bearing).
type EngineValue interface {
	Type() Type
	Units() *units.Units
	String() string
}

// GeoKey is the identity tuple of an entity: (lat, lon, sequence), where
// sequence disambiguates multiple entities at the same location.
type GeoKey struct {
	Lat, Lon float64
	Sequence int
}

func (k GeoKey) String() string {
	return fmt.Sprintf("%.6f,%.6f#%d", k.Lat, k.Lon, k.Sequence)
}

// EntityHandle is the minimal view of a live entity that the values
// package needs. core/entity.Entity implements this; values cannot import
// core/entity directly (core/entity imports values for attribute storage),
// so this interface is the seam that breaks the cycle.
type EntityHandle interface {
	GeoKey() GeoKey
	TypeName() string
	Kind() string
}

// Int is an integer scalar.
type Int struct {
	V int64
	U *units.Units
}

func (s Int) Type() Type          { return TypeInt }
func (s Int) Units() *units.Units { return s.U }
func (s Int) String() string      { return fmt.Sprintf("%d %s", s.V, s.U) }

// Decimal is a decimal scalar. Internally this uses float64 regardless of
// the configured NumericMode; ArbitraryPrecision mode only selects the
// tighter equality tolerance returned by units.Tolerance, without a
// big.Float dependency.
type Decimal struct {
	V float64
	U *units.Units
}

func (s Decimal) Type() Type          { return TypeDecimal }
func (s Decimal) Units() *units.Units { return s.U }
func (s Decimal) String() string      { return fmt.Sprintf("%g %s", s.V, s.U) }

// Bool is a boolean scalar. Units are typically Count but are preserved
// for symmetry with other scalar kinds.
type Bool struct {
	V bool
	U *units.Units
}

func (s Bool) Type() Type          { return TypeBool }
func (s Bool) Units() *units.Units { return s.U }
func (s Bool) String() string      { return fmt.Sprintf("%t", s.V) }

// String is a string scalar.
type String struct {
	V string
	U *units.Units
}

func (s String) Type() Type          { return TypeString }
func (s String) Units() *units.Units { return s.U }
func (s String) String() string      { return s.V }

// GeoPoint is a geographic point scalar.
type GeoPoint struct {
	Lat, Lon float64
	U        *units.Units
}

func (s GeoPoint) Type() Type          { return TypeGeoPoint }
func (s GeoPoint) Units() *units.Units { return s.U }
func (s GeoPoint) String() string      { return fmt.Sprintf("(%g, %g)", s.Lat, s.Lon) }

// EntityRef references a live entity, used for organism/patch-valued
// attributes. It carries no Units.
type EntityRef struct {
	Handle EntityHandle
}

func (r EntityRef) Type() Type          { return TypeEntityRef }
func (r EntityRef) Units() *units.Units { return nil }
func (r EntityRef) String() string {
	if r.Handle == nil {
		return "<nil entity>"
	}
	return fmt.Sprintf("%s@%s", r.Handle.TypeName(), r.Handle.GeoKey())
}

// Collection is an ordered sequence of entity references, e.g. the
// organisms of a type present on a patch ("Trees"). It carries no Units.
type Collection struct {
	Refs []EntityRef
}

func (c Collection) Type() Type          { return TypeCollection }
func (c Collection) Units() *units.Units { return nil }
func (c Collection) String() string      { return fmt.Sprintf("<%d entities>", len(c.Refs)) }

// numeric extracts a float64 and the Units from any scalar numeric value
// (Int or Decimal); it errors on non-numeric inputs.
func numeric(v EngineValue) (float64, *units.Units, error) {
	switch s := v.(type) {
	case Int:
		return float64(s.V), s.U, nil
	case Decimal:
		return s.V, s.U, nil
	default:
		return 0, nil, errs.New(errs.UnitMismatch, "%s is not numeric", v.Type())
	}
}

// widen returns true if either operand is a Decimal, meaning the combined
// result of an arithmetic op should be a Decimal rather than an Int.
func widen(a, b EngineValue) bool {
	_, aDec := a.(Decimal)
	_, bDec := b.(Decimal)
	return aDec || bDec
}

func wrapNumeric(v float64, dec bool, u *units.Units) EngineValue {
	if dec {
		return Decimal{V: v, U: u}
	}
	return Int{V: int64(math.Round(v)), U: u}
}
