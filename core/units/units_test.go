package units

import "testing"

func TestParseCanonical(t *testing.T) {
	u1, err := Parse("m / s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	u2, err := Parse("m/s")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u1 != u2 {
		t.Fatalf("expected interned equal pointers, got %v != %v", u1, u2)
	}
	if u1.String() != "m/s" {
		t.Fatalf("unexpected canonical form %q", u1.String())
	}
}

func TestParseRejectsDoubleDenominator(t *testing.T) {
	if _, err := Parse("m/s/kilogram"); err == nil {
		t.Fatal("expected rejection of a/b/c unit text")
	}
}

func TestCountIsEmpty(t *testing.T) {
	u, err := Parse("count")
	if err != nil {
		t.Fatal(err)
	}
	empty, _ := Parse("")
	if u != empty {
		t.Fatal("count and empty unit should be the identical interned value")
	}
	if !u.IsCount() {
		t.Fatal("expected IsCount() true")
	}
}

func TestMultiplyCancelsFactors(t *testing.T) {
	mPerS, _ := Parse("m/s")
	s, _ := Parse("s")
	result, err := mPerS.Multiply(s)
	if err != nil {
		t.Fatal(err)
	}
	if result.String() != "m" {
		t.Fatalf("expected m after cancelling s, got %s", result)
	}
}

func TestConversionNoop(t *testing.T) {
	g := NewGraph()
	m, _ := Parse("m")
	got, err := g.Convert(42, m, m)
	if err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("expected noop conversion to preserve value, got %v", got)
	}
}

func TestConversionDirectAndInverse(t *testing.T) {
	g := NewGraph()
	cm, _ := Parse("cm")
	m, _ := Parse("m")
	g.AddConversion(cm, m,
		func(v float64) float64 { return v / 100 },
		func(v float64) float64 { return v * 100 },
		true,
	)

	got, err := g.Convert(150, cm, m)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.5 {
		t.Fatalf("expected 1.5 m, got %v", got)
	}

	back, err := g.Convert(got, m, cm)
	if err != nil {
		t.Fatal(err)
	}
	if back != 150 {
		t.Fatalf("expected inverse to round-trip to 150, got %v", back)
	}
}

func TestConversionGraphSearch(t *testing.T) {
	g := NewGraph()
	mm, _ := Parse("mm")
	cm, _ := Parse("cm")
	m, _ := Parse("m")
	g.AddConversion(mm, cm, func(v float64) float64 { return v / 10 }, func(v float64) float64 { return v * 10 }, true)
	g.AddConversion(cm, m, func(v float64) float64 { return v / 100 }, func(v float64) float64 { return v * 100 }, true)

	got, err := g.Convert(1000, mm, m)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("expected 1000mm == 1m via graph search, got %v", got)
	}
}

func TestConversionMissingFails(t *testing.T) {
	g := NewGraph()
	a, _ := Parse("apple")
	b, _ := Parse("orange")
	if _, err := g.Convert(1, a, b); err == nil {
		t.Fatal("expected NoConversion error")
	}
}
