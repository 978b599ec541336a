package shadow

import (
	"testing"

	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/core/scope"
	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
)

func newEntity(t *testing.T, proto *entity.Prototype, age int64) *entity.Entity {
	t.Helper()
	e := entity.New(proto, values.GeoKey{Lat: 1, Lon: 2, Sequence: 0})
	e.SetCurrent("age", values.Int{V: age, U: units.Count})
	e.Freeze()
	return e
}

// TestFallbackToPriorWhenSelectorFalse reproduces the scenario spec §8/§9
// calls out: a conditional handler whose selector does not fire must leave
// current.X identical to prior.X, never AttributeUnset, even though the
// attribute has a registered (conditional) handler and so is NOT eligible
// for the static no-handler fast path.
func TestFallbackToPriorWhenSelectorFalse(t *testing.T) {
	proto := entity.NewPrototype("Tree", entity.KindOrganism)
	proto.AddHandler("age", entity.SubstepStep, "", entity.EventHandler{
		Selector: func(s scope.Scope) (bool, error) { return false, nil },
		Callable: func(s scope.Scope) (values.EngineValue, error) {
			return values.Int{V: 999, U: units.Count}, nil
		},
	})
	proto.Finalize([]string{"age"}, entity.Order)
	if proto.HasFastPath(entity.SubstepStep, "age") {
		t.Fatal("age has a registered handler; must not be on the fast path")
	}

	e := newEntity(t, proto, 5)
	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{StepCount: 1}, []*entity.Entity{e})

	v := r.ViewFor(e, nil)
	got, err := v.Resolve("age")
	if err != nil {
		t.Fatal(err)
	}
	if got.(values.Int).V != 5 {
		t.Fatalf("expected fallback to prior age 5, got %v", got)
	}
}

// TestHandlerFires confirms the positive case: when the selector is true,
// the handler's callable value wins and is memoized as current.
func TestHandlerFires(t *testing.T) {
	proto := entity.NewPrototype("Tree", entity.KindOrganism)
	proto.AddHandler("age", entity.SubstepStep, "", entity.EventHandler{
		Selector: func(s scope.Scope) (bool, error) { return true, nil },
		Callable: func(s scope.Scope) (values.EngineValue, error) {
			return values.Int{V: 42, U: units.Count}, nil
		},
	})
	proto.Finalize([]string{"age"}, entity.Order)

	e := newEntity(t, proto, 5)
	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{StepCount: 1}, []*entity.Entity{e})

	v := r.ViewFor(e, nil)
	got, err := v.Resolve("age")
	if err != nil {
		t.Fatal(err)
	}
	if got.(values.Int).V != 42 {
		t.Fatalf("expected handler value 42, got %v", got)
	}
}

// TestFastPathFallsBackToPrior confirms the optimization path (no handler
// registered at all) produces the same observable outcome as the general
// fallback: current.X == prior.X.
func TestFastPathFallsBackToPrior(t *testing.T) {
	proto := entity.NewPrototype("Patch", entity.KindPatch)
	proto.Finalize([]string{"moisture"}, entity.Order)
	if !proto.HasFastPath(entity.SubstepStep, "moisture") {
		t.Fatal("expected moisture on the fast path: no handler registered")
	}

	e := entity.New(proto, values.GeoKey{})
	e.SetCurrent("moisture", values.Decimal{V: 0.4, U: units.Count})
	e.Freeze()

	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{}, []*entity.Entity{e})
	v := r.ViewFor(e, nil)

	got, err := v.Resolve("moisture")
	if err != nil {
		t.Fatal(err)
	}
	if got.(values.Decimal).V != 0.4 {
		t.Fatalf("expected 0.4, got %v", got)
	}
}

// TestCyclicDependencyDetected confirms a handler that reads its own
// current attribute while resolving it fails with CyclicDependency rather
// than recursing forever.
func TestCyclicDependencyDetected(t *testing.T) {
	proto := entity.NewPrototype("Tree", entity.KindOrganism)
	proto.AddHandler("age", entity.SubstepStep, "", entity.EventHandler{
		Callable: func(s scope.Scope) (values.EngineValue, error) {
			current, err := s.Get("current")
			if err != nil {
				return nil, err
			}
			return scope.GetValue(current.(scope.Scope), "age")
		},
	})
	proto.Finalize([]string{"age"}, entity.Order)

	e := newEntity(t, proto, 5)
	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{}, []*entity.Entity{e})
	v := r.ViewFor(e, nil)

	_, err := v.Resolve("age")
	if err == nil {
		t.Fatal("expected cyclic dependency error")
	}
}

// TestHereBindsEnclosingPatch confirms an organism's "here" adapter
// demand-resolves attributes on its patch through the same resolver.
func TestHereBindsEnclosingPatch(t *testing.T) {
	patchProto := entity.NewPrototype("Patch", entity.KindPatch)
	patchProto.AddHandler("moisture", entity.SubstepStep, "", entity.EventHandler{
		Callable: func(s scope.Scope) (values.EngineValue, error) {
			return values.Decimal{V: 0.7, U: units.Count}, nil
		},
	})
	patchProto.Finalize([]string{"moisture"}, entity.Order)
	patch := entity.New(patchProto, values.GeoKey{})

	treeProto := entity.NewPrototype("Tree", entity.KindOrganism)
	treeProto.Finalize([]string{}, entity.Order)
	tree := entity.New(treeProto, values.GeoKey{Sequence: 1})

	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{}, []*entity.Entity{patch, tree})

	v := r.ViewFor(tree, patch)
	here, err := v.Get("here")
	if err != nil {
		t.Fatal(err)
	}
	moisture, err := scope.GetValue(here.(scope.Scope), "moisture")
	if err != nil {
		t.Fatal(err)
	}
	if moisture.(values.Decimal).V != 0.7 {
		t.Fatalf("expected 0.7, got %v", moisture)
	}
}

// TestMetaBindingExposesStepCount covers the "meta" reserved scope used by
// conditional handlers like :if(meta.stepCount == 1).
func TestMetaBindingExposesStepCount(t *testing.T) {
	proto := entity.NewPrototype("Simulation", entity.KindSimulation)
	proto.Finalize([]string{}, entity.Order)
	e := entity.New(proto, values.GeoKey{})

	r := NewResolver(&values.Arithmetic{Graph: units.NewGraph()}, values.NewRNG(1))
	r.BeginSubstep(entity.SubstepStep, MetaScope{StepCount: 3, Year: 2026, Replicate: 0}, []*entity.Entity{e})
	v := r.ViewFor(e, nil)

	meta, err := v.Get("meta")
	if err != nil {
		t.Fatal(err)
	}
	stepCount, err := scope.GetValue(meta.(scope.Scope), "stepCount")
	if err != nil {
		t.Fatal(err)
	}
	if stepCount.(values.Int).V != 3 {
		t.Fatalf("expected stepCount 3, got %v", stepCount)
	}
}
