// Package cluster implements the leaf-level bag of point references
// (spec.md §3, "Leaf cluster"): an ordered list of point copies sharing one
// entry, plus a per-cluster RNG maintained incrementally or rebuilt
// wholesale depending on spec.md §4.2's policy choice.
//
// Grounded on original_source/3. Code/BIRCH++/Cluster.cpp/Cluster.h: a
// Cluster there owns its element vector and its own RNG map; this package
// keeps the same ownership shape but replaces the owning-pointer vector
// with a value slice (point.Point is cheap to copy and the tree never
// needs aliasing across clusters).
package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/birchrng/point"
	"github.com/katalvlaran/birchrng/rng"
)

// ErrEmptyCluster indicates an operation required at least one point but
// the cluster was empty.
var ErrEmptyCluster = errors.New("cluster: cluster is empty")

// Cluster is an ordered list of point copies plus a per-cluster RNG.
// Invariant (spec.md §3): len(Points) equals the owning entry's summary.N.
type Cluster struct {
	Points []point.Point
	RNG    *rng.Graph

	// inc is the incremental RNG engine, created lazily the first time
	// SyncRNG observes the cluster crossing the configured cutoff M. Nil
	// below the cutoff, where every update is a fresh rebuild instead.
	inc *rng.Incremental
}

// New returns an empty Cluster.
func New() *Cluster {
	return &Cluster{Points: nil, RNG: &rng.Graph{N: 0, Adjacency: rng.AdjacencyMap{}}}
}

// Len returns the number of points in c.
func (c *Cluster) Len() int { return len(c.Points) }

// Vectors returns the raw coordinate vectors of c's points, in insertion
// order — the shape the rng package's builders expect.
//
// Complexity: O(n).
func (c *Cluster) Vectors() [][]float64 {
	vecs := make([][]float64, len(c.Points))
	for i, p := range c.Points {
		vecs[i] = p.Vector
	}

	return vecs
}

// Append adds p to the cluster without touching the RNG; callers update
// the RNG separately (RebuildRNG or InsertRNG) so the choice between
// rebuild and incremental update (spec.md §4.2 "Policy choice") stays with
// the tree, which knows the configured cutoff M.
func (c *Cluster) Append(p point.Point) {
	c.Points = append(c.Points, p)
}

// Concat appends other's points onto c, for the leaf-entry merge case in
// spec.md §4.1 ("when both sides are leaf entries the leaf cluster's point
// list concatenates").
func (c *Cluster) Concat(other *Cluster) {
	c.Points = append(c.Points, other.Points...)
}

// RebuildRNG recomputes c's RNG from scratch via the batch builder — the
// policy spec.md §4.2 calls for whenever the cluster is at or below the
// iRNG cutoff M, or whenever a merge/split has invalidated incremental
// bookkeeping.
//
// Complexity: O(n^2*d + n^3).
func (c *Cluster) RebuildRNG(ctx context.Context, opts rng.BuildOptions) error {
	g, err := rng.Build(ctx, c.Vectors(), opts)
	if err != nil {
		return fmt.Errorf("cluster: rebuild RNG: %w", err)
	}
	c.RNG = g

	return nil
}

// InsertRNG folds the cluster's newest point (already appended via Append)
// into the existing RNG incrementally, the path spec.md §4.2 requires once
// a leaf cluster exceeds the cutoff M. Callers must ensure Append was
// called with exactly one new point since the last RNG update.
//
// Complexity: O(n*d).
func (c *Cluster) InsertRNG(ctx context.Context, inc *rng.Incremental) error {
	if len(c.Points) == 0 {
		return ErrEmptyCluster
	}
	newest := c.Points[len(c.Points)-1]
	if err := inc.Insert(ctx, newest.Vector); err != nil {
		return fmt.Errorf("cluster: incremental RNG insert: %w", err)
	}
	c.RNG = inc.Graph()

	return nil
}

// SyncRNG folds the cluster's newest point into its RNG, choosing between a
// fresh rebuild and the incremental engine per spec.md §4.2's cutoff policy:
// at or below cutoff, rebuild from scratch; above it, seed an incremental
// engine once from the last-known-good RNG and insert every point after
// that one point at a time. Callers must call SyncRNG once per Append.
//
// Complexity: O(n^2*d + n^3) at or below cutoff, O(n*d) above it.
func (c *Cluster) SyncRNG(ctx context.Context, cutoff int, buildOpts rng.BuildOptions, incOpts rng.IncrementalOptions) error {
	n := c.Len()
	if n == 0 {
		return ErrEmptyCluster
	}
	if n <= cutoff {
		c.inc = nil

		return c.RebuildRNG(ctx, buildOpts)
	}
	if c.inc == nil {
		engine := rng.NewIncremental(incOpts)
		engine.Seed(c.Vectors()[:n-1], c.RNG)
		c.inc = engine
	}

	return c.InsertRNG(ctx, c.inc)
}
