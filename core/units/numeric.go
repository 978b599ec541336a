package units

import "sync/atomic"

// NumericMode selects whether decimal-typed scalars carry arbitrary
// precision (big.Float-class behavior, approximated here with float64 plus
// a tolerance-aware comparison) or plain doubles. Set once at process
// start via compat.Configure; defaults to Double.
type NumericMode int32

const (
	// Double is IEEE-754 double precision decimal arithmetic.
	Double NumericMode = iota
	// ArbitraryPrecision tightens tolerance-sensitive comparisons; see
	// core/units.Tolerance.
	ArbitraryPrecision
)

var mode atomic.Int32

// SetNumericMode sets the process-wide numeric mode. Intended to be called
// exactly once, from compat.Configure.
func SetNumericMode(m NumericMode) { mode.Store(int32(m)) }

// Mode returns the process-wide numeric mode.
func Mode() NumericMode { return NumericMode(mode.Load()) }

// Tolerance returns the equality tolerance appropriate for the current
// numeric mode: 1e-12 under ArbitraryPrecision, 1e-9 under Double.
func Tolerance() float64 {
	if Mode() == ArbitraryPrecision {
		return 1e-12
	}
	return 1e-9
}
