// Package compat holds the small set of swappable runtime primitives
// (§4.10) that accommodate environments where joshsim runs multithreaded
// (the default CLI) versus single-threaded/embedded. A single Configure
// call at process start selects the variants; subsequent calls are
// rejected so the rest of the engine can treat the choice as immutable.
package compat

import (
	"strings"
	"sync"
	"sync/atomic"

	"github.com/schmidtdse/joshsim/core/units"
)

// Environment selects which primitive variants Configure installs.
type Environment int

const (
	// Threaded is the default: native goroutines, a real mutex, and an
	// ants-backed bounded queue.
	Threaded Environment = iota
	// SingleThreaded is for embedded/constrained runs: a no-op lock and
	// a single-goroutine queue fallback.
	SingleThreaded
)

var configured atomic.Bool

// Configure installs the primitive set for env and the numeric mode, once.
// A second call returns false and leaves the prior configuration in place.
func Configure(env Environment, numeric units.NumericMode) bool {
	if !configured.CompareAndSwap(false, true) {
		return false
	}
	units.SetNumericMode(numeric)
	currentEnvironment = env
	return true
}

var currentEnvironment = Threaded

// Configured reports whether Configure has already run.
func Configured() bool { return configured.Load() }

// Join concatenates parts with sep, mirroring the teacher's small string
// joiner helper rather than reaching for strings.Join at every call site
// that also needs the empty-parts-skip behavior.
func Join(sep string, parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			filtered = append(filtered, p)
		}
	}
	return strings.Join(filtered, sep)
}

// Locker is the swappable mutual-exclusion primitive: a real mutex under
// Threaded, a no-op under SingleThreaded (where only one goroutine ever
// runs, so lock/unlock would be pure overhead).
type Locker interface {
	Lock()
	Unlock()
}

// NewLocker returns the Locker variant appropriate for the configured
// environment.
func NewLocker() Locker {
	if currentEnvironment == SingleThreaded {
		return &noopLocker{}
	}
	return &sync.Mutex{}
}

type noopLocker struct{}

func (*noopLocker) Lock()   {}
func (*noopLocker) Unlock() {}
