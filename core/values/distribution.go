package values

import (
	"math/rand"

	"github.com/schmidtdse/joshsim/core/units"
)

// DistKind distinguishes the two distribution shapes.
type DistKind int

const (
	DistUniform DistKind = iota
	DistNormal
)

// Distribution is an EngineValue that is either virtualized (parameters
// only, materialized lazily via a platform RNG) or realized (a finite
// ordered sequence of scalars, e.g. the result of "sample ... n times" or
// of projecting an attribute across a collection).
type Distribution struct {
	U *units.Units

	// Virtualized fields; Realized is nil when these are in use.
	Kind    DistKind
	Param1  float64 // uniform: low; normal: mean
	Param2  float64 // uniform: high; normal: std
	virtual bool

	// Realized fields.
	Realized []EngineValue
}

func (d Distribution) Type() Type          { return TypeDistribution }
func (d Distribution) Units() *units.Units { return d.U }

func (d Distribution) String() string {
	if d.virtual {
		if d.Kind == DistUniform {
			return "uniform distribution"
		}
		return "normal distribution"
	}
	return "realized distribution"
}

// NewUniform constructs a virtualized uniform distribution over [low, high].
func NewUniform(low, high float64, u *units.Units) Distribution {
	return Distribution{U: u, Kind: DistUniform, Param1: low, Param2: high, virtual: true}
}

// NewNormal constructs a virtualized normal distribution with mean/std.
func NewNormal(mean, std float64, u *units.Units) Distribution {
	return Distribution{U: u, Kind: DistNormal, Param1: mean, Param2: std, virtual: true}
}

// NewRealized constructs a realized distribution from an explicit ordered
// sequence of scalars.
func NewRealized(samples []EngineValue, u *units.Units) Distribution {
	return Distribution{U: u, Realized: samples}
}

// IsVirtual reports whether this distribution has not yet been sampled.
func (d Distribution) IsVirtual() bool { return d.virtual }

// RNG is the pluggable source of randomness used to materialize
// virtualized distributions; the compatibility layer and tests both
// construct one explicitly so runs are reproducible given a fixed seed.
type RNG struct {
	r *rand.Rand
}

// NewRNG constructs a seeded RNG. Replicates each use a distinct seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(seed))}
}

// Sample draws a single scalar from a virtualized distribution, or a
// uniformly random element from a realized one.
func (d Distribution) Sample(rng *RNG) EngineValue {
	if !d.virtual {
		if len(d.Realized) == 0 {
			return Decimal{U: d.U}
		}
		return d.Realized[rng.r.Intn(len(d.Realized))]
	}
	switch d.Kind {
	case DistUniform:
		v := d.Param1 + rng.r.Float64()*(d.Param2-d.Param1)
		return Decimal{V: v, U: d.U}
	case DistNormal:
		v := rng.r.NormFloat64()*d.Param2 + d.Param1
		return Decimal{V: v, U: d.U}
	default:
		return Decimal{U: d.U}
	}
}

// Materialize draws n samples, realizing a virtualized distribution into
// one with a finite ordered sequence; realized distributions return a
// resampling of themselves (with replacement) of the requested size.
func (d Distribution) Materialize(rng *RNG, n int) Distribution {
	samples := make([]EngineValue, n)
	for i := range samples {
		samples[i] = d.Sample(rng)
	}
	return NewRealized(samples, d.U)
}

// Elements returns the realized sample sequence, materializing first (with
// n=1) if the distribution is virtual. Used by reduction operators.
func (d Distribution) Elements(rng *RNG) []EngineValue {
	if d.virtual {
		return []EngineValue{d.Sample(rng)}
	}
	return d.Realized
}
