package external

import (
	"testing"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
)

type countingReader struct {
	calls int
}

func (r *countingReader) ReadCells(source, variable string, target Geometry) ([]values.EngineValue, error) {
	r.calls++
	return []values.EngineValue{values.Decimal{V: 1.5, U: units.Count}}, nil
}
func (r *countingReader) Units(variable string) *units.Units { return units.Count }

func TestCacheLayerPassesThroughWithoutPrimingGeometry(t *testing.T) {
	reader := &countingReader{}
	cache := NewCacheLayer(Base{Reader: reader}, 10)

	req := Request{Source: "a.tif", Variable: "precip", Target: Geometry{}}
	if _, err := cache.Fulfill(req); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Fulfill(req); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 2 {
		t.Fatalf("expected cache to pass through unprimed requests, got %d calls", reader.calls)
	}
}

func TestCacheLayerMemoizesWithPrimingGeometry(t *testing.T) {
	reader := &countingReader{}
	cache := NewCacheLayer(Base{Reader: reader}, 10)

	priming := Geometry{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	req := Request{Source: "a.tif", Variable: "precip", Target: Geometry{}, Priming: &priming}
	if _, err := cache.Fulfill(req); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Fulfill(req); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 1 {
		t.Fatalf("expected second call to hit cache, got %d reader calls", reader.calls)
	}
}

func TestExtendingPrimingLayerGrowsHull(t *testing.T) {
	reader := &countingReader{}
	priming := NewPrimingLayer(Base{Reader: reader}, PrimingExtending, Geometry{})

	_, err := priming.Fulfill(Request{Target: Geometry{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = priming.Fulfill(Request{Target: Geometry{MinLat: 5, MinLon: 5, MaxLat: 6, MaxLon: 6}})
	if err != nil {
		t.Fatal(err)
	}
	if priming.hull.MaxLat != 6 || priming.hull.MaxLon != 6 {
		t.Fatalf("expected hull to extend to include second request, got %+v", priming.hull)
	}
}

func TestStaticPrimingLayerNeverGrows(t *testing.T) {
	reader := &countingReader{}
	fixed := Geometry{MinLat: 0, MinLon: 0, MaxLat: 1, MaxLon: 1}
	priming := NewPrimingLayer(Base{Reader: reader}, PrimingStatic, fixed)

	_, err := priming.Fulfill(Request{Target: Geometry{MinLat: 5, MinLon: 5, MaxLat: 6, MaxLon: 6}})
	if err != nil {
		t.Fatal(err)
	}
	if priming.hull != fixed {
		t.Fatalf("expected static hull to stay fixed, got %+v", priming.hull)
	}
}

func TestDefaultValueAppliedOutsideExtent(t *testing.T) {
	reader := &nilCellReader{}
	base := Base{Reader: reader}
	dflt := values.Decimal{V: -9999, U: units.Count}
	dist, err := base.Fulfill(Request{Source: "a.tif", Variable: "precip", DefaultValue: dflt})
	if err != nil {
		t.Fatal(err)
	}
	if dist.Elements(values.NewRNG(1))[0].(values.Decimal).V != -9999 {
		t.Fatal("expected default value substituted for out-of-extent cell")
	}
}

type nilCellReader struct{}

func (r *nilCellReader) ReadCells(source, variable string, target Geometry) ([]values.EngineValue, error) {
	return []values.EngineValue{nil}, nil
}
func (r *nilCellReader) Units(variable string) *units.Units { return units.Count }
