package values

import (
	"math"
	"testing"

	"github.com/schmidtdse/joshsim/core/units"
)

func newArithmetic(t *testing.T) (*Arithmetic, *units.Units, *units.Units) {
	t.Helper()
	g := units.NewGraph()
	cm, err := units.Parse("cm")
	if err != nil {
		t.Fatal(err)
	}
	m, err := units.Parse("m")
	if err != nil {
		t.Fatal(err)
	}
	g.AddConversion(cm, m,
		func(v float64) float64 { return v / 100 },
		func(v float64) float64 { return v * 100 },
		true,
	)
	return &Arithmetic{Graph: g}, cm, m
}

func TestAddWithConversion(t *testing.T) {
	a, cm, m := newArithmetic(t)
	x := Decimal{V: 150, U: cm}
	y := Decimal{V: 1, U: m}

	sum, err := a.Add(x, y)
	if err != nil {
		t.Fatal(err)
	}
	dec := sum.(Decimal)
	if math.Abs(dec.V-250) > 1e-9 {
		t.Fatalf("expected 250 cm, got %v %s", dec.V, dec.U)
	}
}

func TestAddNoConversionFails(t *testing.T) {
	g := units.NewGraph()
	a := &Arithmetic{Graph: g}
	apple, _ := units.Parse("apple")
	orange, _ := units.Parse("orange")
	_, err := a.Add(Decimal{V: 1, U: apple}, Decimal{V: 1, U: orange})
	if err == nil {
		t.Fatal("expected UnitMismatch")
	}
}

func TestMultiplyComposesUnits(t *testing.T) {
	a := &Arithmetic{Graph: units.NewGraph()}
	mPerS, _ := units.Parse("m/s")
	s, _ := units.Parse("s")
	result, err := a.Multiply(Decimal{V: 2, U: mPerS}, Decimal{V: 3, U: s})
	if err != nil {
		t.Fatal(err)
	}
	dec := result.(Decimal)
	if dec.V != 6 || dec.U.String() != "m" {
		t.Fatalf("expected 6 m, got %v %s", dec.V, dec.U)
	}
}

func TestWideningDecimalDominatesInteger(t *testing.T) {
	a := &Arithmetic{Graph: units.NewGraph()}
	count := units.Count
	result, err := a.Add(Int{V: 1, U: count}, Decimal{V: 1.5, U: count})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.(Decimal); !ok {
		t.Fatalf("expected widening to Decimal, got %T", result)
	}
}

func TestReductionOps(t *testing.T) {
	a := &Arithmetic{Graph: units.NewGraph()}
	count := units.Count
	vs := []EngineValue{
		Decimal{V: 1, U: count},
		Decimal{V: 2, U: count},
		Decimal{V: 3, U: count},
	}
	sum, err := a.Sum(vs)
	if err != nil {
		t.Fatal(err)
	}
	if sum.(Decimal).V != 6 {
		t.Fatalf("expected sum 6, got %v", sum)
	}
	mean, err := a.Mean(vs)
	if err != nil {
		t.Fatal(err)
	}
	if mean.(Decimal).V != 2 {
		t.Fatalf("expected mean 2, got %v", mean)
	}
	if a.Count(vs).(Int).V != 3 {
		t.Fatal("expected count 3")
	}
}
