package units

import (
	"container/list"
	"sync"

	"github.com/schmidtdse/joshsim/internal/errs"
)

// ScalarFn transforms a scalar numeric value (see core/values.Scalar,
// which depends on this package, not the reverse — so conversion callables
// operate on plain float64 here and are wrapped by values.Scalar.Convert).
type ScalarFn func(v float64) float64

// edge is one directed conversion arrow in the graph.
type edge struct {
	to                *Units
	fn                ScalarFn
	communicativeSafe bool
}

// Graph is the directed conversion graph: SourceUnits -> DestinationUnits.
// A noop conversion exists implicitly for every unit observed by the
// graph (Equal source/dest). Shortest paths are memoized.
type Graph struct {
	mu    sync.RWMutex
	edges map[*Units]map[*Units]edge
	paths map[[2]*Units][]edge // memoized resolved paths
}

// NewGraph builds an empty conversion graph.
func NewGraph() *Graph {
	return &Graph{
		edges: map[*Units]map[*Units]edge{},
		paths: map[[2]*Units][]edge{},
	}
}

// AddConversion registers a directed edge from -> to with the given
// transform. If inverse is non-nil, an inverse edge to -> from is also
// registered; inverseExact marks both edges communicative-safe.
func (g *Graph) AddConversion(from, to *Units, fn ScalarFn, inverse ScalarFn, inverseExact bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addEdgeLocked(from, to, fn, inverseExact)
	if inverse != nil {
		g.addEdgeLocked(to, from, inverse, inverseExact)
	}
	g.paths = map[[2]*Units][]edge{}
}

func (g *Graph) addEdgeLocked(from, to *Units, fn ScalarFn, communicativeSafe bool) {
	if g.edges[from] == nil {
		g.edges[from] = map[*Units]edge{}
	}
	g.edges[from][to] = edge{to: to, fn: fn, communicativeSafe: communicativeSafe}
}

// Convert transforms v from source units to dest units, searching the
// conversion graph (memoizing the shortest path) if no direct edge
// exists. A noop conversion is always available when source == dest.
func (g *Graph) Convert(v float64, source, dest *Units) (float64, error) {
	if source.Equal(dest) {
		return v, nil
	}
	path, err := g.resolvePath(source, dest)
	if err != nil {
		return 0, err
	}
	out := v
	for _, e := range path {
		out = e.fn(out)
	}
	return out, nil
}

func (g *Graph) resolvePath(source, dest *Units) ([]edge, error) {
	key := [2]*Units{source, dest}

	g.mu.RLock()
	if p, ok := g.paths[key]; ok {
		g.mu.RUnlock()
		return p, nil
	}
	g.mu.RUnlock()

	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.paths[key]; ok {
		return p, nil
	}

	path, ok := g.bfs(source, dest)
	if !ok {
		return nil, errs.New(errs.NoConversion, "no conversion from %s to %s", source, dest)
	}
	g.paths[key] = path
	return path, nil
}

type bfsNode struct {
	units *Units
	path  []edge
}

// bfs finds the shortest edge-path from source to dest (direct
// conversions, when present, are length-1 paths and thus win ties).
func (g *Graph) bfs(source, dest *Units) ([]edge, bool) {
	visited := map[*Units]bool{source: true}
	queue := list.New()
	queue.PushBack(bfsNode{units: source})

	for queue.Len() > 0 {
		front := queue.Remove(queue.Front()).(bfsNode)
		if front.units.Equal(dest) {
			return front.path, true
		}
		for to, e := range g.edges[front.units] {
			if visited[to] {
				continue
			}
			visited[to] = true
			next := append(append([]edge(nil), front.path...), e)
			queue.PushBack(bfsNode{units: to, path: next})
		}
	}
	return nil, false
}
