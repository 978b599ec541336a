package compat

import (
	"sync/atomic"
	"testing"

	"github.com/schmidtdse/joshsim/core/units"
)

func TestJoinSkipsEmptyParts(t *testing.T) {
	if got := Join(",", "a", "", "b"); got != "a,b" {
		t.Fatalf("unexpected join result: %q", got)
	}
}

func TestNewLockerNoopUnderSingleThreaded(t *testing.T) {
	prior := currentEnvironment
	defer func() { currentEnvironment = prior }()

	currentEnvironment = SingleThreaded
	l := NewLocker()
	l.Lock()
	l.Unlock() // must not deadlock against itself
}

func TestQueueDeliversAllSubmittedItems(t *testing.T) {
	var count atomic.Int64
	q, err := newAntsQueue(4, func(item any) { count.Add(1) })
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		if err := q.Submit(i); err != nil {
			t.Fatal(err)
		}
	}
	q.Join()
	q.Close()
	if count.Load() != 20 {
		t.Fatalf("expected 20 deliveries, got %d", count.Load())
	}
}

func TestConfigureAppliesOnceAndRejectsSecondCall(t *testing.T) {
	priorConfigured := configured.Load()
	priorEnv := currentEnvironment
	defer func() {
		configured.Store(priorConfigured)
		currentEnvironment = priorEnv
	}()
	configured.Store(false)

	if ok := Configure(SingleThreaded, units.ArbitraryPrecision); !ok {
		t.Fatal("expected the first Configure call to succeed")
	}
	if currentEnvironment != SingleThreaded {
		t.Fatalf("expected environment to be set to SingleThreaded, got %v", currentEnvironment)
	}
	if units.Mode() != units.ArbitraryPrecision {
		t.Fatalf("expected numeric mode to be set, got %v", units.Mode())
	}
	if ok := Configure(Threaded, units.Double); ok {
		t.Fatal("expected a second Configure call to be rejected")
	}
	if currentEnvironment != SingleThreaded {
		t.Fatal("expected the rejected second call to leave the prior configuration in place")
	}
}

func TestSingleGoroutineQueueRunsInline(t *testing.T) {
	var got []any
	q := newSingleGoroutineQueue(0, func(item any) { got = append(got, item) })
	if err := q.Submit(1); err != nil {
		t.Fatal(err)
	}
	if err := q.Submit(2); err != nil {
		t.Fatal(err)
	}
	q.Join()
	if len(got) != 2 {
		t.Fatalf("expected 2 items delivered synchronously, got %v", got)
	}
}
