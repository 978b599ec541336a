package values

import (
	"math"
	"sort"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/internal/errs"
)

// Arithmetic binds a conversion graph so unit-aware operations can
// reconcile mismatched units. One Arithmetic is shared by an entire
// compiled program (it is built once, immutable, alongside the converter).
type Arithmetic struct {
	Graph *units.Graph
}

// reconcile converts b's numeric value into a's units so add/subtract can
// proceed; returns UnitMismatch if no conversion applies.
func (a *Arithmetic) reconcile(av, bv float64, au, bu *units.Units) (float64, error) {
	if au.Equal(bu) {
		return bv, nil
	}
	converted, err := a.Graph.Convert(bv, bu, au)
	if err != nil {
		return 0, errs.New(errs.UnitMismatch, "cannot reconcile %s with %s: %v", au, bu, err)
	}
	return converted, nil
}

// Add implements unit-aware addition: units must match after an attempted
// conversion through the graph.
func (a *Arithmetic) Add(x, y EngineValue) (EngineValue, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return nil, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return nil, err
	}
	yConv, err := a.reconcile(xf, yf, xu, yu)
	if err != nil {
		return nil, err
	}
	return wrapNumeric(xf+yConv, widen(x, y), xu), nil
}

// Subtract implements unit-aware subtraction.
func (a *Arithmetic) Subtract(x, y EngineValue) (EngineValue, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return nil, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return nil, err
	}
	yConv, err := a.reconcile(xf, yf, xu, yu)
	if err != nil {
		return nil, err
	}
	return wrapNumeric(xf-yConv, widen(x, y), xu), nil
}

// Multiply composes units (no conversion needed: a/b * c/d just composes).
func (a *Arithmetic) Multiply(x, y EngineValue) (EngineValue, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return nil, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return nil, err
	}
	ru, err := xu.Multiply(yu)
	if err != nil {
		return nil, err
	}
	return wrapNumeric(xf*yf, widen(x, y), ru), nil
}

// Divide composes units via division.
func (a *Arithmetic) Divide(x, y EngineValue) (EngineValue, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return nil, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return nil, err
	}
	if yf == 0 {
		return nil, errs.New(errs.ParseError, "division by zero")
	}
	ru, err := xu.Divide(yu)
	if err != nil {
		return nil, err
	}
	return wrapNumeric(xf/yf, true, ru), nil
}

// Power raises x to the y power; y must be dimensionless.
func (a *Arithmetic) Power(x, y EngineValue) (EngineValue, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return nil, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return nil, err
	}
	if !yu.IsCount() {
		return nil, errs.New(errs.UnitMismatch, "exponent must be dimensionless, got %s", yu)
	}
	return wrapNumeric(math.Pow(xf, yf), true, xu), nil
}

// Compare returns -1, 0, or 1 comparing x to y after unit reconciliation.
func (a *Arithmetic) Compare(x, y EngineValue) (int, error) {
	xf, xu, err := numeric(x)
	if err != nil {
		return 0, err
	}
	yf, yu, err := numeric(y)
	if err != nil {
		return 0, err
	}
	yConv, err := a.reconcile(xf, yf, xu, yu)
	if err != nil {
		return 0, err
	}
	switch {
	case xf < yConv:
		return -1, nil
	case xf > yConv:
		return 1, nil
	default:
		return 0, nil
	}
}

// Abs, Ceil, Floor, Round, Ln, Log10 are unary unit-preserving ops.

func unary(v EngineValue, fn func(float64) float64) (EngineValue, error) {
	f, u, err := numeric(v)
	if err != nil {
		return nil, err
	}
	_, wasDec := v.(Decimal)
	return wrapNumeric(fn(f), wasDec, u), nil
}

func (a *Arithmetic) Abs(v EngineValue) (EngineValue, error)   { return unary(v, math.Abs) }
func (a *Arithmetic) Ceil(v EngineValue) (EngineValue, error)  { return unary(v, math.Ceil) }
func (a *Arithmetic) Floor(v EngineValue) (EngineValue, error) { return unary(v, math.Floor) }
func (a *Arithmetic) Round(v EngineValue) (EngineValue, error) { return unary(v, math.Round) }

func (a *Arithmetic) Ln(v EngineValue) (EngineValue, error) {
	f, u, err := numeric(v)
	if err != nil {
		return nil, err
	}
	return Decimal{V: math.Log(f), U: u}, nil
}

func (a *Arithmetic) Log10(v EngineValue) (EngineValue, error) {
	f, u, err := numeric(v)
	if err != nil {
		return nil, err
	}
	return Decimal{V: math.Log10(f), U: u}, nil
}

// Min/Max/Sum/Mean/Std/Count reduce a realized distribution or a slice of
// scalar values that already share units (callers are responsible for
// projecting a distribution into a []EngineValue of consistent units,
// which core/scope.DistributionScope does).

func (a *Arithmetic) reduceNumeric(vs []EngineValue) ([]float64, *units.Units, error) {
	if len(vs) == 0 {
		return nil, units.Count, nil
	}
	out := make([]float64, len(vs))
	_, u, err := numeric(vs[0])
	if err != nil {
		return nil, nil, err
	}
	for i, v := range vs {
		f, vu, err := numeric(v)
		if err != nil {
			return nil, nil, err
		}
		conv, err := a.reconcile(0, f, u, vu)
		if err != nil {
			return nil, nil, err
		}
		out[i] = conv
	}
	return out, u, nil
}

func (a *Arithmetic) Min(vs []EngineValue) (EngineValue, error) {
	fs, u, err := a.reduceNumeric(vs)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, errs.New(errs.ParseError, "min of empty distribution")
	}
	m := fs[0]
	for _, f := range fs[1:] {
		if f < m {
			m = f
		}
	}
	return Decimal{V: m, U: u}, nil
}

func (a *Arithmetic) Max(vs []EngineValue) (EngineValue, error) {
	fs, u, err := a.reduceNumeric(vs)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, errs.New(errs.ParseError, "max of empty distribution")
	}
	m := fs[0]
	for _, f := range fs[1:] {
		if f > m {
			m = f
		}
	}
	return Decimal{V: m, U: u}, nil
}

func (a *Arithmetic) Sum(vs []EngineValue) (EngineValue, error) {
	fs, u, err := a.reduceNumeric(vs)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, f := range fs {
		total += f
	}
	return Decimal{V: total, U: u}, nil
}

func (a *Arithmetic) Mean(vs []EngineValue) (EngineValue, error) {
	fs, u, err := a.reduceNumeric(vs)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, errs.New(errs.ParseError, "mean of empty distribution")
	}
	var total float64
	for _, f := range fs {
		total += f
	}
	return Decimal{V: total / float64(len(fs)), U: u}, nil
}

func (a *Arithmetic) Std(vs []EngineValue) (EngineValue, error) {
	fs, u, err := a.reduceNumeric(vs)
	if err != nil {
		return nil, err
	}
	if len(fs) == 0 {
		return nil, errs.New(errs.ParseError, "std of empty distribution")
	}
	var total float64
	for _, f := range fs {
		total += f
	}
	mean := total / float64(len(fs))
	var sq float64
	for _, f := range fs {
		d := f - mean
		sq += d * d
	}
	return Decimal{V: math.Sqrt(sq / float64(len(fs))), U: u}, nil
}

func (a *Arithmetic) Count(vs []EngineValue) EngineValue {
	return Int{V: int64(len(vs)), U: units.Count}
}

// sortedCopy is used by Median-like future extensions; kept small and
// unexported since the spec does not require a median op today.
func sortedCopy(fs []float64) []float64 {
	out := append([]float64(nil), fs...)
	sort.Float64s(out)
	return out
}
