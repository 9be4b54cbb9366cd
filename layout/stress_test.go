package layout_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/birchrng/layout"
	"github.com/katalvlaran/birchrng/rng"
)

func triangleGraph() *rng.Graph {
	adj := rng.AdjacencyMap{
		0: {1: 1, 2: 1},
		1: {0: 1, 2: 1},
		2: {0: 1, 1: 1},
	}

	return &rng.Graph{N: 3, Adjacency: adj}
}

func TestStressMajorizationSingleVertexReturnsInitial(t *testing.T) {
	g := &rng.Graph{N: 1, Adjacency: rng.AdjacencyMap{0: {}}}
	initial := []layout.Position{{X: 3, Y: 4}}

	got, err := layout.StressMajorization(g, initial)
	if err != nil {
		t.Fatalf("StressMajorization: %v", err)
	}
	if got[0] != initial[0] {
		t.Fatalf("single-vertex layout must be a no-op, got %+v", got[0])
	}
}

func TestStressMajorizationRejectsPositionCountMismatch(t *testing.T) {
	g := triangleGraph()
	_, err := layout.StressMajorization(g, []layout.Position{{X: 0, Y: 0}})
	if err == nil {
		t.Fatalf("expected ErrPositionCount for mismatched initial slice")
	}
}

func TestStressMajorizationRejectsDisconnectedGraph(t *testing.T) {
	g := &rng.Graph{N: 2, Adjacency: rng.AdjacencyMap{0: {}, 1: {}}}
	initial := []layout.Position{{X: 0, Y: 0}, {X: 1, Y: 1}}

	_, err := layout.StressMajorization(g, initial)
	if err == nil {
		t.Fatalf("expected ErrDisconnected for two isolated vertices")
	}
}

func TestStressMajorizationConvergesOnEquilateralTriangle(t *testing.T) {
	g := triangleGraph()
	// Start from a skewed, non-collinear triangle; majorization should pull
	// it toward an equilateral layout where every pairwise distance is ~1.
	// (A collinear start would stay collinear: each step solves for new
	// coordinates per axis, and an all-zero Y axis stays all-zero.)
	initial := []layout.Position{{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 1}}

	pos, err := layout.StressMajorization(g, initial, layout.WithMaxIterations(200))
	if err != nil {
		t.Fatalf("StressMajorization: %v", err)
	}

	dists := make([]float64, 0, 3)
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			dx := pos[i].X - pos[j].X
			dy := pos[i].Y - pos[j].Y
			dists = append(dists, math.Hypot(dx, dy))
		}
	}
	for _, d := range dists {
		if math.Abs(d-1) > 0.05 {
			t.Fatalf("expected pairwise distances near 1 after convergence, got %+v", dists)
		}
	}
}

func TestStressMajorizationRejectsEmptyGraph(t *testing.T) {
	_, err := layout.StressMajorization(&rng.Graph{N: 0}, nil)
	if err == nil {
		t.Fatalf("expected ErrEmptyGraph for a zero-vertex graph")
	}
}
