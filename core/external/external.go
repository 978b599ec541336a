// Package external implements the uniform external data layer (§4.6): a
// Layer answers Fulfill(request) with a realized distribution sourced from
// a raster reader (GeoTIFF, NetCDF, CSV-point), with two composable
// decorators — a bounded LRU cache keyed by (source, variable, priming
// geometry) and a priming-geometry layer that accumulates requested
// geometries into a running convex hull.
package external

import (
	"fmt"

	"github.com/golang/groupcache/lru"

	"github.com/schmidtdse/joshsim/core/units"
	"github.com/schmidtdse/joshsim/core/values"
)

// Geometry is a minimal bounding extent used to address external data
// requests and to accumulate priming extents.
type Geometry struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

func (g Geometry) key() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", g.MinLat, g.MinLon, g.MaxLat, g.MaxLon)
}

// Union returns the smallest Geometry containing both g and other.
func (g Geometry) Union(other Geometry) Geometry {
	return Geometry{
		MinLat: minFloat(g.MinLat, other.MinLat),
		MinLon: minFloat(g.MinLon, other.MinLon),
		MaxLat: maxFloat(g.MaxLat, other.MaxLat),
		MaxLon: maxFloat(g.MaxLon, other.MaxLon),
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Request identifies one fulfillment call: a source (file path or URL), a
// variable name, the target geometry, and the value substituted for cells
// outside the data extent.
type Request struct {
	Source       string
	Variable     string
	Target       Geometry
	Priming      *Geometry // nil unless a priming decorator injected one
	DefaultValue values.EngineValue
}

// Layer answers external data requests with a realized distribution.
// Readers (GeoTIFF/NetCDF/CSV-point) implement this directly; the cache
// and priming decorators wrap an inner Layer.
type Layer interface {
	Fulfill(req Request) (values.Distribution, error)
}

// Reader is the narrower surface a concrete raster/point-data format
// implements; Base adapts it to Layer, applying DefaultValue to any cell
// found outside the source's extent.
type Reader interface {
	// ReadCells returns one EngineValue per cell covering target, with a
	// nil entry for each cell the source does not cover.
	ReadCells(source, variable string, target Geometry) ([]values.EngineValue, error)
	Units(variable string) *units.Units
}

// Base adapts a Reader to Layer.
type Base struct {
	Reader Reader
}

func (b Base) Fulfill(req Request) (values.Distribution, error) {
	target := req.Target
	if req.Priming != nil {
		target = req.Priming.Union(target)
	}
	cells, err := b.Reader.ReadCells(req.Source, req.Variable, target)
	if err != nil {
		return values.Distribution{}, fmt.Errorf("external: read %s/%s: %w", req.Source, req.Variable, err)
	}
	u := b.Reader.Units(req.Variable)
	for i, c := range cells {
		if c == nil {
			cells[i] = req.DefaultValue
		}
	}
	return values.NewRealized(cells, u), nil
}

// CacheLayer memoizes Fulfill results keyed by (source, variable, priming
// geometry), consulted only when the request carries an explicit priming
// geometry (per §4.6, an unprimed request always passes through). Capacity
// is a bounded LRU via golang/groupcache's lru.Cache.
type CacheLayer struct {
	inner Layer
	cache *lru.Cache
}

// NewCacheLayer wraps inner with an LRU of the given capacity (entries,
// not bytes).
func NewCacheLayer(inner Layer, capacity int) *CacheLayer {
	return &CacheLayer{inner: inner, cache: lru.New(capacity)}
}

func (c *CacheLayer) Fulfill(req Request) (values.Distribution, error) {
	if req.Priming == nil {
		return c.inner.Fulfill(req)
	}
	key := req.Source + "|" + req.Variable + "|" + req.Priming.key()
	if v, ok := c.cache.Get(key); ok {
		return v.(values.Distribution), nil
	}
	dist, err := c.inner.Fulfill(req)
	if err != nil {
		return dist, err
	}
	c.cache.Add(key, dist)
	return dist, nil
}

// PrimingMode selects how a PrimingLayer's extent evolves.
type PrimingMode int

const (
	// PrimingStatic fixes the extent at construction time.
	PrimingStatic PrimingMode = iota
	// PrimingExtending grows the extent to the union of every request
	// geometry seen so far.
	PrimingExtending
)

// PrimingLayer injects an accumulated priming geometry into every outgoing
// request, so the cache layer (when composed beneath it) can key on a
// stable, coarser extent instead of per-request targets.
type PrimingLayer struct {
	inner Layer
	mode  PrimingMode
	hull  Geometry
	set   bool
}

// NewPrimingLayer wraps inner. initial seeds the hull for PrimingStatic
// (required) and PrimingExtending (the starting extent before any
// requests have been observed).
func NewPrimingLayer(inner Layer, mode PrimingMode, initial Geometry) *PrimingLayer {
	return &PrimingLayer{inner: inner, mode: mode, hull: initial, set: true}
}

func (p *PrimingLayer) Fulfill(req Request) (values.Distribution, error) {
	if p.mode == PrimingExtending {
		if p.set {
			p.hull = p.hull.Union(req.Target)
		} else {
			p.hull = req.Target
			p.set = true
		}
	}
	primed := p.hull
	req.Priming = &primed
	return p.inner.Fulfill(req)
}
