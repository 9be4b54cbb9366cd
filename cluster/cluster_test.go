package cluster_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/birchrng/cluster"
	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/rng"
)

func mustPoint(t *testing.T, id uint64, vec []float64) point.Point {
	t.Helper()
	p, err := point.New(id, vec, "", "")
	if err != nil {
		t.Fatalf("point.New: %v", err)
	}

	return p
}

func TestClusterTwoPointRNGSingleEdge(t *testing.T) {
	// spec.md §8: "Two-point cluster: cluster RNG contains exactly one
	// edge with weight equal to the Euclidean distance."
	c := cluster.New()
	c.Append(mustPoint(t, 0, []float64{0, 0}))
	c.Append(mustPoint(t, 1, []float64{3, 4}))

	if err := c.RebuildRNG(context.Background(), rng.BuildOptions{}); err != nil {
		t.Fatalf("RebuildRNG: %v", err)
	}
	if c.RNG.EdgeCount() != 1 {
		t.Fatalf("EdgeCount = %d, want 1", c.RNG.EdgeCount())
	}
	if c.RNG.Adjacency[0][1] != 5 {
		t.Fatalf("edge weight = %v, want 5", c.RNG.Adjacency[0][1])
	}
}

func TestClusterSinglePointEmptyRNG(t *testing.T) {
	c := cluster.New()
	c.Append(mustPoint(t, 0, []float64{1, 1}))
	if err := c.RebuildRNG(context.Background(), rng.BuildOptions{}); err != nil {
		t.Fatalf("RebuildRNG: %v", err)
	}
	if c.RNG.EdgeCount() != 0 {
		t.Fatalf("single-point cluster RNG must be empty, got %d edges", c.RNG.EdgeCount())
	}
}

func TestClusterConcat(t *testing.T) {
	a := cluster.New()
	a.Append(mustPoint(t, 0, []float64{0, 0}))
	b := cluster.New()
	b.Append(mustPoint(t, 1, []float64{1, 1}))

	a.Concat(b)
	if a.Len() != 2 {
		t.Fatalf("Len = %d, want 2", a.Len())
	}
}
