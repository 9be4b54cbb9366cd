// This file implements spec.md §4.2's "Policy choice": batch is faster
// below the configured cutoff M, incremental is required above it; per-node
// RNGs (size <= B) always use batch.
package rng

import "context"

// Policy decides, for a point set of size n against cutoff m, whether the
// batch or incremental builder should be used.
//
// Complexity: O(1).
func Policy(n, m int) bool {
	// true => use batch
	return n <= m
}

// BuildWithPolicy builds an RNG over points, choosing batch or incremental
// per Policy. When incremental is chosen, points are folded in one at a
// time starting from an empty engine (the path spec.md §4.2 requires once
// a leaf cluster exceeds the cutoff M).
//
// Complexity: matches Build or a sequence of Incremental.Insert calls.
func BuildWithPolicy(ctx context.Context, points [][]float64, cutoff int, buildOpts BuildOptions, incOpts IncrementalOptions) (*Graph, error) {
	if Policy(len(points), cutoff) {
		return Build(ctx, points, buildOpts)
	}

	inc := NewIncremental(incOpts)
	for _, p := range points {
		if err := inc.Insert(ctx, p); err != nil {
			return nil, err
		}
	}

	return inc.Graph(), nil
}
