// This file defines the two adjacency output shapes spec.md §4.2 requires:
// a per-source directed edge list (for internal-node RNGs, u<v) and a
// per-vertex adjacency map (for leaf-cluster RNGs, both directions stored
// to accelerate lookup) — plus a gonum/graph adapter, grounded on the
// teacher's own converterts package, which exists to adapt core.Graph to
// gonum/graph; here it adapts an RNG instead.
package rng

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Edge is one undirected RNG edge, stored with U < V so a directed edge
// list is trivially deduplicated and deterministically ordered.
type Edge struct {
	U, V int
	W    float64
}

// AdjacencyMap is the per-vertex adjacency shape: neighbour-index to edge
// weight, with both (i,j) and (j,i) populated for O(1) neighbour lookup in
// either direction (spec.md §4.2, shape (b)).
type AdjacencyMap map[int]map[int]float64

// Graph is a built RNG: its vertex count plus its adjacency.
type Graph struct {
	N         int
	Adjacency AdjacencyMap
}

// newAdjacency returns an AdjacencyMap with n empty neighbour sets.
func newAdjacency(n int) AdjacencyMap {
	m := make(AdjacencyMap, n)
	for i := 0; i < n; i++ {
		m[i] = make(map[int]float64)
	}

	return m
}

// addEdge records (u,v,w) in both directions of m. It is the caller's
// responsibility to hold any lock guarding m.
func (m AdjacencyMap) addEdge(u, v int, w float64) {
	m[u][v] = w
	m[v][u] = w
}

// removeEdge deletes (u,v) from both directions of m, if present.
func (m AdjacencyMap) removeEdge(u, v int) {
	delete(m[u], v)
	delete(m[v], u)
}

// HasEdge reports whether (u,v) is present in m.
func (m AdjacencyMap) HasEdge(u, v int) bool {
	_, ok := m[u][v]

	return ok
}

// EdgeList returns g's adjacency as a deterministically sorted slice of
// directed edges with U < V, the shape spec.md §4.2 calls for on
// internal-node RNGs.
//
// Complexity: O(E log E).
func (g *Graph) EdgeList() []Edge {
	edges := make([]Edge, 0, g.N)
	for u, nbrs := range g.Adjacency {
		for v, w := range nbrs {
			if u < v {
				edges = append(edges, Edge{U: u, V: v, W: w})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].U != edges[j].U {
			return edges[i].U < edges[j].U
		}

		return edges[i].V < edges[j].V
	})

	return edges
}

// EdgeCount returns the number of undirected edges in g.
//
// Complexity: O(V + E) (visits every directed entry, counts those with u < v).
func (g *Graph) EdgeCount() int {
	total := 0
	for u, nbrs := range g.Adjacency {
		for v := range nbrs {
			if u < v {
				total++
			}
		}
	}

	return total
}

// ToGonum builds a gonum/graph/simple.WeightedUndirectedGraph mirroring g,
// so consumers already wired to the gonum ecosystem (layout, further graph
// algorithms) can operate on the RNG without a bespoke representation.
//
// Complexity: O(V + E).
func (g *Graph) ToGonum() *simple.WeightedUndirectedGraph {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.N; i++ {
		wg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.EdgeList() {
		wg.SetWeightedEdge(wg.NewWeightedEdge(
			simple.Node(int64(e.U)), simple.Node(int64(e.V)), e.W,
		))
	}

	return wg
}

// FromGonum rebuilds a Graph's AdjacencyMap from any gonum weighted
// undirected graph whose node IDs are a dense 0..n-1 range, the inverse of
// ToGonum.
//
// Complexity: O(V + E).
func FromGonum(wg graph.WeightedUndirected, n int) *Graph {
	adj := newAdjacency(n)
	for u := 0; u < n; u++ {
		to := wg.From(int64(u))
		for to.Next() {
			v := int(to.Node().ID())
			if we := wg.WeightedEdge(int64(u), int64(v)); we != nil {
				adj.addEdge(u, v, we.Weight())
			}
		}
	}

	return &Graph{N: n, Adjacency: adj}
}
