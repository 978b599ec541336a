package program

import (
	"testing"

	"github.com/schmidtdse/joshsim/core/entity"
	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
)

func TestBuilderAssemblesPrototypesAndSimulationStore(t *testing.T) {
	b := NewBuilder(entity.Order)
	b.AddPrototype("Default", entity.KindSimulation)
	b.AddPrototype("Forest", entity.KindPatch)
	b.AddAttribute("Forest", "moisture", values.Decimal{V: 0.5, U: units.Count})
	b.AddCollectionAttribute("Forest", "Trees")

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Simulation["Default"]; !ok {
		t.Fatal("expected Default in simulation store")
	}
	forest, ok := p.Prototype("Forest")
	if !ok {
		t.Fatal("expected Forest prototype")
	}
	if !forest.HasFastPath(entity.SubstepStep, "moisture") {
		t.Fatal("expected moisture on fast path: no handler registered")
	}
}

func TestBuilderRejectsReservedAttributeName(t *testing.T) {
	b := NewBuilder(entity.Order)
	b.AddPrototype("Forest", entity.KindPatch)
	b.AddAttribute("Forest", "current", values.Int{V: 0, U: units.Count})
	if _, err := b.Build(); err == nil {
		t.Fatal("expected ReservedName error")
	}
}

func TestBuilderRejectsDuplicateTypeDeclaration(t *testing.T) {
	b := NewBuilder(entity.Order)
	b.AddPrototype("Forest", entity.KindPatch)
	b.AddPrototype("Forest", entity.KindPatch)
	if _, err := b.Build(); err == nil {
		t.Fatal("expected duplicate-declaration error")
	}
}

func TestBuilderRejectsAttributeOnUnknownType(t *testing.T) {
	b := NewBuilder(entity.Order)
	b.AddAttribute("Ghost", "age", values.Int{V: 0, U: units.Count})
	if _, err := b.Build(); err == nil {
		t.Fatal("expected unknown-type error")
	}
}

func TestProgramArithmeticUsesConverter(t *testing.T) {
	cm, _ := units.Parse("cm")
	m, _ := units.Parse("m")
	b := NewBuilder(entity.Order)
	b.AddConversion(cm, m, func(v float64) float64 { return v / 100 }, func(v float64) float64 { return v * 100 }, true)
	b.AddPrototype("Sim", entity.KindSimulation)

	p, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	sum, err := p.Arithmetic().Add(values.Decimal{V: 150, U: cm}, values.Decimal{V: 1, U: m})
	if err != nil {
		t.Fatal(err)
	}
	if sum.(values.Decimal).V != 250 {
		t.Fatalf("expected 250, got %v", sum)
	}
}
