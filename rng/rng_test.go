package rng_test

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/birchrng/rng"
)

func TestBuildFourPointSquare(t *testing.T) {
	// spec.md §8 scenario 1: unit square, 4-cycle, diagonals excluded.
	pts := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	g, err := rng.Build(context.Background(), pts, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.EdgeCount() != 4 {
		t.Fatalf("EdgeCount = %d, want 4", g.EdgeCount())
	}
	if g.Adjacency.HasEdge(0, 3) || g.Adjacency.HasEdge(1, 2) {
		t.Fatalf("diagonal edges must be excluded")
	}
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}} {
		if !g.Adjacency.HasEdge(e[0], e[1]) {
			t.Fatalf("missing expected unit edge %v", e)
		}
	}
}

func TestBuildCollinearTriple(t *testing.T) {
	// spec.md §8 scenario 2.
	pts := [][]float64{{0, 0}, {1, 0}, {2, 0}}
	g, err := rng.Build(context.Background(), pts, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", g.EdgeCount())
	}
	if g.Adjacency.HasEdge(0, 2) {
		t.Fatalf("edge (0,2) must be excluded: point 1 is closer to both")
	}
	if !g.Adjacency.HasEdge(0, 1) || !g.Adjacency.HasEdge(1, 2) {
		t.Fatalf("expected edges (0,1) and (1,2)")
	}
}

func TestBuildSinglePointEmptyGraph(t *testing.T) {
	g, err := rng.Build(context.Background(), [][]float64{{1, 2, 3}}, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("single point must have empty RNG, got %d edges", g.EdgeCount())
	}
}

func TestBuildTwoPointSingleEdge(t *testing.T) {
	g, err := rng.Build(context.Background(), [][]float64{{0, 0}, {3, 4}}, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if math.Abs(g.Adjacency[0][1]-5) > 1e-9 {
		t.Fatalf("edge weight = %v, want 5", g.Adjacency[0][1])
	}
}

func TestIncrementalMatchesBatchOnSquare(t *testing.T) {
	pts := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	batch, err := rng.Build(context.Background(), pts, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	inc := rng.NewIncremental(rng.IncrementalOptions{Epsilon: 0})
	for _, p := range pts {
		if err := inc.Insert(context.Background(), p); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	incGraph := inc.Graph()

	assertSameEdges(t, batch, incGraph)
}

func TestIncrementalMatchesBatchRandom4D(t *testing.T) {
	// spec.md §8 scenario 5: 50 random 4-D points, batch vs incremental
	// starting from a 2-point seed, epsilon=0, identical edge sets.
	r := rand.New(rand.NewSource(7))
	pts := make([][]float64, 50)
	for i := range pts {
		v := make([]float64, 4)
		for d := range v {
			v[d] = r.Float64() * 10
		}
		pts[i] = v
	}

	batch, err := rng.Build(context.Background(), pts, rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	seed, err := rng.Build(context.Background(), pts[:2], rng.BuildOptions{})
	if err != nil {
		t.Fatalf("Build seed: %v", err)
	}
	inc := rng.NewIncremental(rng.IncrementalOptions{Epsilon: 0})
	inc.Seed(pts[:2], seed)
	for _, p := range pts[2:] {
		if err := inc.Insert(context.Background(), p); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	assertSameEdges(t, batch, inc.Graph())
}

func assertSameEdges(t *testing.T, a, b *rng.Graph) {
	t.Helper()
	ea, eb := a.EdgeList(), b.EdgeList()
	if len(ea) != len(eb) {
		t.Fatalf("edge count mismatch: %d vs %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i].U != eb[i].U || ea[i].V != eb[i].V {
			t.Fatalf("edge %d mismatch: %+v vs %+v", i, ea[i], eb[i])
		}
		if math.Abs(ea[i].W-eb[i].W) > 1e-6 {
			t.Fatalf("edge %d weight mismatch: %v vs %v", i, ea[i].W, eb[i].W)
		}
	}
}

func TestPolicyThreshold(t *testing.T) {
	if !rng.Policy(100, 10000) {
		t.Fatalf("expected batch for n below cutoff")
	}
	if rng.Policy(20000, 10000) {
		t.Fatalf("expected incremental for n above cutoff")
	}
}
